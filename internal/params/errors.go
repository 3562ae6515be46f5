package params

import "errors"

var (
	// ErrNotFound indicates a lookup on a name absent from the table.
	ErrNotFound = errors.New("params: parameter not found")

	// ErrTypeMismatch indicates an access or update with the wrong data type.
	ErrTypeMismatch = errors.New("params: type mismatch")

	// ErrBadRow indicates a malformed configuration row.
	ErrBadRow = errors.New("params: malformed configuration row")
)
