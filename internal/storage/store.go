// Package storage keeps the continuous log of simulation runs. Each run
// gets a directory under the data dir holding metadata.json, a snapshot of
// the fixed table in fixed.csv and one row of the dynamic table per tick in
// dynamic.csv.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/san-kum/windsim/internal/params"
)

var ErrNoColumn = errors.New("storage: no such column")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir(runID string) string { return filepath.Join(s.baseDir, runID) }

type RunMetadata struct {
	ID         string             `json:"id"`
	Timestamp  time.Time          `json:"timestamp"`
	Finished   time.Time          `json:"finished,omitempty"`
	ParamsPath string             `json:"params_path"`
	Role       string             `json:"role"`
	ParentPID  int                `json:"parent_pid,omitempty"`
	Dt         float64            `json:"dt"`
	ControlDt  float64            `json:"control_dt"`
	Duration   float64            `json:"duration"`
	Stages     map[string]string  `json:"stages"`
	Steps      int64              `json:"steps"`
	Status     string             `json:"status"`
	Metrics    map[string]float64 `json:"metrics,omitempty"`
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// Begin creates the run directory, snapshots fixed and opens the dynamic
// log with the current columns of dynamic as header. meta.ID is assigned
// when empty.
func (s *Store) Begin(meta RunMetadata, fixed, dynamic *params.Table) (*Recorder, error) {
	if meta.ID == "" {
		meta.ID = NewRunID()
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	meta.Status = "running"
	dir := s.Dir(meta.ID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	if err := writeMetadata(dir, meta); err != nil {
		return nil, err
	}
	if err := writeSnapshot(filepath.Join(dir, "fixed.csv"), fixed); err != nil {
		return nil, err
	}

	f, err := os.Create(filepath.Join(dir, "dynamic.csv"))
	if err != nil {
		return nil, err
	}
	header := dynamic.Header()
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return nil, err
	}
	return &Recorder{dir: dir, meta: meta, table: dynamic, file: f, w: w, cols: len(header)}, nil
}

func writeMetadata(dir string, meta RunMetadata) error {
	metaFile, err := os.Create(filepath.Join(dir, "metadata.json"))
	if err != nil {
		return err
	}
	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		metaFile.Close()
		return err
	}
	return metaFile.Close()
}

func writeSnapshot(path string, t *params.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	w.Write(t.Header())
	w.Write(t.SnapshotRow())
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir(runID), "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadColumns reads the dynamic log of a run into one series per column.
// Cells that do not parse as numbers, such as string parameters, are NaN.
func (s *Store) LoadColumns(runID string) ([]string, [][]float64, error) {
	file, err := os.Open(filepath.Join(s.Dir(runID), "dynamic.csv"))
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("run %s: empty dynamic log", runID)
	}

	header := records[0]
	cols := make([][]float64, len(header))
	for _, record := range records[1:] {
		for j := range header {
			v := nan
			if j < len(record) {
				if f, err := strconv.ParseFloat(record[j], 64); err == nil {
					v = f
				}
			}
			cols[j] = append(cols[j], v)
		}
	}
	return header, cols, nil
}

// LoadSeries returns the time column and the named column of a run.
func (s *Store) LoadSeries(runID, name string) ([]float64, []float64, error) {
	header, cols, err := s.LoadColumns(runID)
	if err != nil {
		return nil, nil, err
	}
	ti, vi := -1, -1
	for i, h := range header {
		switch h {
		case "time":
			ti = i
		case name:
			vi = i
		}
	}
	if vi < 0 {
		return nil, nil, fmt.Errorf("%w: %q in run %s", ErrNoColumn, name, runID)
	}
	if ti < 0 {
		return nil, nil, fmt.Errorf("%w: \"time\" in run %s", ErrNoColumn, runID)
	}
	return cols[ti], cols[vi], nil
}
