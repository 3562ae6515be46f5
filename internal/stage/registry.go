package stage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/san-kum/windsim/internal/dynamo"
	"github.com/sirupsen/logrus"
)

// UnsetID is reported by ActiveID while the fallback is installed.
const UnsetID = "unset"

var ErrUnknownStage = errors.New("stage: unknown identifier")

// UnknownStageError carries the identifiers that would have been accepted.
type UnknownStageError struct {
	Kind  string
	ID    string
	Valid []string
}

func (e *UnknownStageError) Error() string {
	return fmt.Sprintf("unknown %s identifier %q (valid: %s)", e.Kind, e.ID, strings.Join(e.Valid, ", "))
}

func (e *UnknownStageError) Unwrap() error { return ErrUnknownStage }

// Entry pairs an identifier with the constructor of its implementation.
type Entry[S any] struct {
	ID  string
	New func() S
}

// Registry is the identifier table and active slot for one stage kind.
type Registry[S any] struct {
	kind     string
	entries  []Entry[S]
	active   S
	activeID string
}

// NewRegistry creates a registry with fallback installed as the active
// implementation. Identifiers must be unique.
func NewRegistry[S any](kind string, fallback S, entries ...Entry[S]) *Registry[S] {
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if seen[e.ID] {
			panic(fmt.Sprintf("stage: duplicate %s identifier %q", kind, e.ID))
		}
		seen[e.ID] = true
	}
	return &Registry[S]{
		kind:     kind,
		entries:  entries,
		active:   fallback,
		activeID: UnsetID,
	}
}

func (r *Registry[S]) Kind() string     { return r.kind }
func (r *Registry[S]) Active() S        { return r.active }
func (r *Registry[S]) ActiveID() string { return r.activeID }

// Dispatched reports whether an implementation replaced the fallback.
func (r *Registry[S]) Dispatched() bool { return r.activeID != UnsetID }

// IDs lists the valid identifiers in declaration order.
func (r *Registry[S]) IDs() []string {
	ids := make([]string, len(r.entries))
	for i, e := range r.entries {
		ids[i] = e.ID
	}
	return ids
}

// Register installs s as the active implementation. Last write wins.
func (r *Registry[S]) Register(id string, s S) {
	r.active = s
	r.activeID = id
}

// Dispatch looks up id and, on a match, registers a fresh instance of it.
// On a miss nothing is registered.
func (r *Registry[S]) Dispatch(id string) bool {
	for _, e := range r.entries {
		if e.ID == id {
			r.Register(e.ID, e.New())
			return true
		}
	}
	return false
}

// DispatchOrAbort dispatches id. An unknown identifier is logged together
// with the valid alternatives and raises the shutdown flag.
func (r *Registry[S]) DispatchOrAbort(id string, sd *dynamo.Shutdown, log *logrus.Entry) error {
	if r.Dispatch(id) {
		log.WithFields(logrus.Fields{"stage": r.kind, "id": id}).Debug("stage dispatched")
		return nil
	}
	err := &UnknownStageError{Kind: r.kind, ID: id, Valid: r.IDs()}
	log.WithFields(logrus.Fields{
		"stage": r.kind,
		"id":    id,
		"valid": strings.Join(err.Valid, ","),
	}).Error("invalid stage identifier")
	sd.Request(err)
	return err
}
