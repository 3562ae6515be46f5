package dataproc

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/san-kum/windsim/internal/dynamo"
	"github.com/san-kum/windsim/internal/semaphore"
)

var summaryHeader = []string{"run_id", "variable", "count", "mean", "min", "max"}

// CSVSummary appends one row per summarised parameter to summary_csv_path.
// Several processes may share the file, so the append runs under the named
// semaphore summary_semaphore.
type CSVSummary struct {
	tracker
	path string
	sem  *semaphore.Named
}

func (c *CSVSummary) Bind(env *dynamo.Env) error {
	if err := c.tracker.bind(env, CSVSummaryID); err != nil {
		return err
	}
	var err error
	if c.path, err = env.Fixed.Text("summary_csv_path"); err != nil {
		return fmt.Errorf("%s: %w", CSVSummaryID, err)
	}
	name, err := env.Fixed.TextOr("summary_semaphore", "windsim_summary")
	if err != nil {
		return fmt.Errorf("%s: %w", CSVSummaryID, err)
	}
	if c.sem, err = semaphore.New(name); err != nil {
		return fmt.Errorf("%s: %w", CSVSummaryID, err)
	}
	return nil
}

func (c *CSVSummary) Process(*dynamo.Env) { c.observe() }

func (c *CSVSummary) Close(env *dynamo.Env) error {
	if c.sem == nil || c.empty() {
		return nil
	}
	err := c.sem.Do(func() error { return c.write(env.RunID) })
	if err != nil {
		return fmt.Errorf("%s: %w", CSVSummaryID, err)
	}
	env.Log.WithField("stage", CSVSummaryID).WithField("path", c.path).Info("summary written")
	return nil
}

func (c *CSVSummary) write(runID string) error {
	f, err := os.OpenFile(c.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return err
	}
	w := csv.NewWriter(f)
	if st.Size() == 0 {
		w.Write(summaryHeader)
	}
	for _, s := range c.stats {
		w.Write([]string{
			runID,
			s.Name,
			strconv.FormatInt(s.Count, 10),
			strconv.FormatFloat(s.Mean, 'f', 10, 64),
			strconv.FormatFloat(s.Min, 'f', 10, 64),
			strconv.FormatFloat(s.Max, 'f', 10, 64),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
