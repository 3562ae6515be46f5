package flow

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

var ErrWindData = errors.New("flow: invalid wind data")

// Series is a measured wind record with strictly increasing times.
type Series struct {
	Times  []float64
	Speeds []float64
}

// End is the simulated time covered by the record, measured from t=0.
func (s Series) End() float64 {
	if len(s.Times) == 0 {
		return 0
	}
	return math.Max(s.Times[len(s.Times)-1], 0)
}

func ReadSeriesFile(path string) (Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return Series{}, fmt.Errorf("open wind file: %w", err)
	}
	defer f.Close()
	return ReadSeries(f)
}

// ReadSeries parses time,speed rows. Lines starting with # are comments and
// a leading non-numeric row is taken as a header.
func ReadSeries(r io.Reader) (Series, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var s Series
	line := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Series{}, fmt.Errorf("%w: %v", ErrWindData, err)
		}
		line++
		if len(rec) < 2 {
			return Series{}, fmt.Errorf("%w: row %d has %d fields", ErrWindData, line, len(rec))
		}
		t, terr := strconv.ParseFloat(strings.TrimSpace(rec[0]), 64)
		v, verr := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		if terr != nil || verr != nil {
			if line == 1 {
				continue
			}
			return Series{}, fmt.Errorf("%w: row %d is not numeric", ErrWindData, line)
		}
		if n := len(s.Times); n > 0 && t <= s.Times[n-1] {
			return Series{}, fmt.Errorf("%w: time %g at row %d does not increase", ErrWindData, t, line)
		}
		s.Times = append(s.Times, t)
		s.Speeds = append(s.Speeds, v)
	}
	if len(s.Times) == 0 {
		return Series{}, fmt.Errorf("%w: no samples", ErrWindData)
	}
	return s, nil
}

// GridLen is the number of samples on a dt grid covering total seconds.
func GridLen(total, dt float64) int {
	return int(math.Round(total/dt)) + 1
}

// Resample linearly interpolates s onto simulated time k*dt for k in
// [0, GridLen(End, dt)). File times are simulated times: grid points
// before the first sample hold its value, as do points past the last.
func (s Series) Resample(dt float64) []float64 {
	n := GridLen(s.End(), dt)
	out := make([]float64, n)
	j := 0
	for k := range out {
		t := float64(k) * dt
		for j < len(s.Times)-2 && s.Times[j+1] < t {
			j++
		}
		out[k] = s.at(j, t)
	}
	return out
}

func (s Series) at(j int, t float64) float64 {
	if len(s.Times) == 1 || t <= s.Times[0] {
		return s.Speeds[0]
	}
	last := len(s.Times) - 1
	if t >= s.Times[last] {
		return s.Speeds[last]
	}
	t1, t2 := s.Times[j], s.Times[j+1]
	v1, v2 := s.Speeds[j], s.Speeds[j+1]
	return v1 + (v2-v1)*(t-t1)/(t2-t1)
}
