// Package supervise watches the process that launched the simulation.
// Losing the parent is reported, not acted on: stopping the run is up to
// whatever supervises the process tree.
package supervise

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Alive reports whether pid refers to a running process.
type Alive func(pid int) bool

type Watcher struct {
	PID      int
	Interval time.Duration
	Log      *logrus.Entry
	Alive    Alive

	// OnLost, when set, is called once after the parent disappears.
	OnLost func()
}

// Watch polls until ctx is done. It returns nil in every case; a lost
// parent is logged once.
func (w *Watcher) Watch(ctx context.Context) error {
	if w.PID <= 0 {
		return nil
	}
	alive := w.Alive
	if alive == nil {
		alive = ProcessAlive
	}
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if alive(w.PID) {
				continue
			}
			w.Log.WithField("parent_pid", w.PID).Warn("parent process is gone")
			if w.OnLost != nil {
				w.OnLost()
			}
			return nil
		}
	}
}
