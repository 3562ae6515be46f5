//go:build linux || darwin || freebsd

package semaphore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

var errBusy = errors.New("semaphore: busy")

func lockPath(name string) string {
	dir := "/dev/shm"
	if st, err := os.Stat(dir); err != nil || !st.IsDir() {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "sem."+name)
}

func lock(name string, wait bool) (int, error) {
	fd, err := unix.Open(lockPath(name), unix.O_RDWR|unix.O_CREAT|unix.O_CLOEXEC, 0o600)
	if err != nil {
		return -1, fmt.Errorf("semaphore: open %s: %w", name, err)
	}
	how := unix.LOCK_EX
	if !wait {
		how |= unix.LOCK_NB
	}
	for {
		err = unix.Flock(fd, how)
		if !errors.Is(err, unix.EINTR) {
			break
		}
	}
	if err != nil {
		unix.Close(fd)
		if errors.Is(err, unix.EWOULDBLOCK) {
			return -1, errBusy
		}
		return -1, fmt.Errorf("semaphore: lock %s: %w", name, err)
	}
	return fd, nil
}

func unlock(fd int) error {
	err := unix.Flock(fd, unix.LOCK_UN)
	if cerr := unix.Close(fd); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("semaphore: unlock: %w", err)
	}
	return nil
}
