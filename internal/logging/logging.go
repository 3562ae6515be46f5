// Package logging builds the logrus logger shared by a run.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// RunLogName is the file written next to a run's recorded data.
const RunLogName = "run.log"

type Options struct {
	Level  string
	Output io.Writer
}

// New returns a text logger at the given level writing to opts.Output, or
// stderr when it is nil.
func New(opts Options) (*logrus.Logger, error) {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if opts.Output != nil {
		log.SetOutput(opts.Output)
	} else {
		log.SetOutput(os.Stderr)
	}
	level := opts.Level
	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	log.SetLevel(lvl)
	return log, nil
}

// TeeToFile adds dir/run.log as a second destination of log. The returned
// function detaches and closes the file.
func TeeToFile(log *logrus.Logger, dir string) (func() error, error) {
	f, err := os.OpenFile(filepath.Join(dir, RunLogName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open run log: %w", err)
	}
	prev := log.Out
	log.SetOutput(io.MultiWriter(prev, f))
	return func() error {
		log.SetOutput(prev)
		return f.Close()
	}, nil
}

// Discard returns an entry that drops everything.
func Discard() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}
