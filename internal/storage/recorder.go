package storage

import (
	"encoding/csv"
	"math"
	"os"
	"time"

	"github.com/san-kum/windsim/internal/params"
)

var nan = math.NaN()

// Recorder appends dynamic table snapshots to a run's log.
type Recorder struct {
	dir   string
	meta  RunMetadata
	table *params.Table
	file  *os.File
	w     *csv.Writer
	cols  int
	rows  int64
}

func (r *Recorder) ID() string  { return r.meta.ID }
func (r *Recorder) Dir() string { return r.dir }
func (r *Recorder) Rows() int64 { return r.rows }

// Record writes the current row. Entries added to the table after Begin
// are not logged, the header is fixed at the start of the run.
func (r *Recorder) Record() error {
	row := r.table.SnapshotRow()
	if len(row) > r.cols {
		row = row[:r.cols]
	}
	if err := r.w.Write(row); err != nil {
		return err
	}
	r.rows++
	return nil
}

// Finish flushes the log and rewrites the metadata with the outcome.
func (r *Recorder) Finish(steps int64, status string, metrics map[string]float64) error {
	if r.file == nil {
		return nil
	}
	r.w.Flush()
	err := r.w.Error()
	if cerr := r.file.Close(); err == nil {
		err = cerr
	}
	r.file = nil

	r.meta.Finished = time.Now()
	r.meta.Steps = steps
	r.meta.Status = status
	r.meta.Metrics = metrics
	if merr := writeMetadata(r.dir, r.meta); err == nil {
		err = merr
	}
	return err
}
