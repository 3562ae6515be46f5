package dynamo

import (
	"sync"
	"sync/atomic"
)

// Shutdown is the process-wide stop indicator of one run. The first reason
// recorded wins; later requests only keep the flag raised.
type Shutdown struct {
	requested atomic.Bool
	mu        sync.Mutex
	reason    error
}

func NewShutdown() *Shutdown {
	return &Shutdown{}
}

// Request raises the flag. A nil reason is recorded as ErrShutdown.
func (s *Shutdown) Request(reason error) {
	if reason == nil {
		reason = ErrShutdown
	}
	s.mu.Lock()
	if s.reason == nil {
		s.reason = reason
	}
	s.mu.Unlock()
	s.requested.Store(true)
}

func (s *Shutdown) Requested() bool {
	return s.requested.Load()
}

// Err returns the first recorded reason, or nil while the flag is down.
func (s *Shutdown) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reason
}
