// Package shm implements the shared interpolation cache: a named shared
// memory region holding a flat array of float64 samples.
//
// Exactly one producer per run calls [Create] and later [Region.Destroy].
// Consumers call [OpenReadOnly] and only [Region.Close] their mapping. The
// producer must have finished Create before any consumer opens the region;
// that ordering comes from process launch order, not from this package.
// There is no retry: a missing region is a fatal error for the caller.
package shm

import (
	"errors"
	"fmt"
	"strings"
	"unsafe"
)

// DefaultName is the well-known region name of the interpolation cache.
const DefaultName = "/windsim_interp"

const sampleSize = int(unsafe.Sizeof(float64(0)))

var (
	ErrNotExist    = errors.New("shm: region does not exist")
	ErrUnsupported = errors.New("shm: shared memory not supported on this platform")
	ErrSize        = errors.New("shm: region size mismatch")
	ErrName        = errors.New("shm: invalid region name")
	ErrNotOwner    = errors.New("shm: only the producer may destroy a region")
)

// Region is one mapping of a named shared memory region.
type Region struct {
	name   string
	data   []byte
	values []float64
	owner  bool
}

func (r *Region) Name() string { return r.name }
func (r *Region) Len() int     { return len(r.values) }

// Owner reports whether this mapping was made by Create.
func (r *Region) Owner() bool { return r.owner }

// Values is a view of the mapped samples. Consumer views are mapped
// read-only; writing through them faults.
func (r *Region) Values() []float64 { return r.values }

// Create allocates a region sized for values, copies values into it and
// keeps it mapped. An existing region of the same name is replaced.
func Create(name string, values []float64) (*Region, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: %s: no samples", ErrSize, name)
	}
	data, err := mapCreate(name, len(values)*sampleSize)
	if err != nil {
		return nil, err
	}
	r := &Region{name: name, data: data, values: floats(data, len(values)), owner: true}
	copy(r.values, values)
	return r, nil
}

// OpenReadOnly maps an existing region holding at least n samples and
// exposes the first n.
func OpenReadOnly(name string, n int) (*Region, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, fmt.Errorf("%w: %s: expected %d samples", ErrSize, name, n)
	}
	data, err := mapOpen(name, n*sampleSize)
	if err != nil {
		return nil, err
	}
	return &Region{name: name, data: data, values: floats(data, n)}, nil
}

// Close unmaps this view. The region itself stays available to others.
func (r *Region) Close() error {
	if r.data == nil {
		return nil
	}
	err := unmap(r.data)
	r.data, r.values = nil, nil
	return err
}

// Destroy unmaps and unlinks the region. Only the producer may call it.
func (r *Region) Destroy() error {
	if !r.owner {
		return fmt.Errorf("%w: %s", ErrNotOwner, r.name)
	}
	cerr := r.Close()
	if err := Destroy(r.name); err != nil {
		return err
	}
	return cerr
}

// Destroy unlinks the named region so no further opens succeed. Existing
// mappings remain valid until they are closed.
func Destroy(name string) error {
	if err := validName(name); err != nil {
		return err
	}
	return unlink(name)
}

func validName(name string) error {
	if len(name) < 2 || name[0] != '/' || strings.Contains(name[1:], "/") || len(name) > 255 {
		return fmt.Errorf("%w: %q", ErrName, name)
	}
	return nil
}

func floats(data []byte, n int) []float64 {
	return unsafe.Slice((*float64)(unsafe.Pointer(unsafe.SliceData(data))), n)
}
