//go:build linux || darwin || freebsd

package supervise

import (
	"errors"

	"golang.org/x/sys/unix"
)

// ProcessAlive checks pid with signal 0. A process we may not signal still
// exists.
func ProcessAlive(pid int) bool {
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}
