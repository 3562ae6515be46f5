//go:build !(linux || darwin || freebsd)

package semaphore

import "errors"

var errBusy = errors.New("semaphore: busy")

func lock(name string, wait bool) (int, error) { return -1, ErrUnsupported }
func unlock(fd int) error                      { return ErrUnsupported }
