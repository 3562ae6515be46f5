package storage

import (
	"encoding/json"
	"io"
	"math"
)

type ExportData struct {
	Run     RunMetadata          `json:"run"`
	Columns map[string][]float64 `json:"columns"`
}

// Export writes a run's metadata and numeric columns as indented JSON.
// Only columns that are finite throughout are included.
func (s *Store) Export(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	header, cols, err := s.LoadColumns(runID)
	if err != nil {
		return err
	}
	data := ExportData{Run: *meta, Columns: make(map[string][]float64, len(header))}
	for i, name := range header {
		if finite(cols[i]) {
			data.Columns[name] = cols[i]
		}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func finite(col []float64) bool {
	for _, v := range col {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
