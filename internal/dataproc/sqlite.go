package dataproc

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/san-kum/windsim/internal/dynamo"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

const schema = `CREATE TABLE IF NOT EXISTS summary (
	id TEXT PRIMARY KEY,
	run_id TEXT NOT NULL,
	variable TEXT NOT NULL,
	count INTEGER NOT NULL,
	mean REAL NOT NULL,
	min REAL NOT NULL,
	max REAL NOT NULL,
	finished_at TEXT NOT NULL
)`

// SQLSummary inserts the run statistics into the summary table of the
// SQLite database at summary_db_path.
type SQLSummary struct {
	tracker
	db *sql.DB
}

func (s *SQLSummary) Bind(env *dynamo.Env) error {
	if err := s.tracker.bind(env, SQLSummaryID); err != nil {
		return err
	}
	path, err := env.Fixed.Text("summary_db_path")
	if err != nil {
		return fmt.Errorf("%s: %w", SQLSummaryID, err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("%s: create dirs: %w", SQLSummaryID, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("%s: open sqlite: %w", SQLSummaryID, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return fmt.Errorf("%s: create summary table: %w", SQLSummaryID, err)
	}
	s.db = db
	return nil
}

func (s *SQLSummary) Process(*dynamo.Env) { s.observe() }

func (s *SQLSummary) Close(env *dynamo.Env) (retErr error) {
	if s.db == nil {
		return nil
	}
	defer func() {
		if err := s.db.Close(); err != nil && retErr == nil {
			retErr = err
		}
		s.db = nil
	}()
	if s.empty() {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("%s: %w", SQLSummaryID, err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	finished := time.Now().UTC().Format(time.RFC3339)
	for _, st := range s.stats {
		if _, err := tx.Exec(`INSERT INTO summary (id, run_id, variable, count, mean, min, max, finished_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.NewString(), env.RunID, st.Name, st.Count, st.Mean, st.Min, st.Max, finished); err != nil {
			return fmt.Errorf("%s: insert %s: %w", SQLSummaryID, st.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", SQLSummaryID, err)
	}
	env.Log.WithField("stage", SQLSummaryID).WithField("rows", len(s.stats)).Info("summary stored")
	return nil
}
