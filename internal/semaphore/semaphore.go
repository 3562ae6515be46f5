// Package semaphore provides the named cross-process lock guarding files
// that several cooperating simulation processes append to.
//
// Callers acquire before opening the shared file and release after closing
// it or on any early error return. [Named.Do] keeps the two paired.
package semaphore

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrName        = errors.New("semaphore: invalid name")
	ErrNotHeld     = errors.New("semaphore: release without acquire")
	ErrUnsupported = errors.New("semaphore: named locks not supported on this platform")
)

// Named is a binary semaphore identified by name across processes.
type Named struct {
	name string
	fd   int
	held bool
}

func New(name string) (*Named, error) {
	name = strings.TrimPrefix(name, "/")
	if name == "" || strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("%w: %q", ErrName, name)
	}
	return &Named{name: name, fd: -1}, nil
}

func (s *Named) Name() string { return s.name }
func (s *Named) Held() bool   { return s.held }

// Acquire blocks until the semaphore is held by this handle.
func (s *Named) Acquire() error {
	if s.held {
		return nil
	}
	fd, err := lock(s.name, true)
	if err != nil {
		return err
	}
	s.fd, s.held = fd, true
	return nil
}

// TryAcquire takes the semaphore if it is free and reports whether it did.
func (s *Named) TryAcquire() (bool, error) {
	if s.held {
		return true, nil
	}
	fd, err := lock(s.name, false)
	if errors.Is(err, errBusy) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	s.fd, s.held = fd, true
	return true, nil
}

func (s *Named) Release() error {
	if !s.held {
		return ErrNotHeld
	}
	err := unlock(s.fd)
	s.fd, s.held = -1, false
	return err
}

// Do runs fn with the semaphore held and always releases it afterwards.
func (s *Named) Do(fn func() error) (err error) {
	if err := s.Acquire(); err != nil {
		return err
	}
	defer func() {
		if rerr := s.Release(); rerr != nil && err == nil {
			err = rerr
		}
	}()
	return fn()
}
