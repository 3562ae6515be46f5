//go:build linux || darwin || freebsd

package shm

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// Regions live as files under /dev/shm where the system provides it, which
// is where shm_open places them on Linux.
func regionPath(name string) string {
	dir := "/dev/shm"
	if st, err := os.Stat(dir); err != nil || !st.IsDir() {
		dir = os.TempDir()
	}
	return filepath.Join(dir, strings.TrimPrefix(name, "/"))
}

func mapCreate(name string, size int) ([]byte, error) {
	path := regionPath(name)
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CREAT|unix.O_TRUNC|unix.O_CLOEXEC, 0o600)
	if err != nil {
		return nil, fmt.Errorf("shm: create %s: %w", name, err)
	}
	defer unix.Close(fd)

	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		unix.Unlink(path)
		return nil, fmt.Errorf("shm: size %s: %w", name, err)
	}
	data, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Unlink(path)
		return nil, fmt.Errorf("shm: map %s: %w", name, err)
	}
	return data, nil
}

func mapOpen(name string, size int) ([]byte, error) {
	fd, err := unix.Open(regionPath(name), unix.O_RDONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		if errors.Is(err, unix.ENOENT) {
			return nil, fmt.Errorf("%w: %s", ErrNotExist, name)
		}
		return nil, fmt.Errorf("shm: open %s: %w", name, err)
	}
	defer unix.Close(fd)

	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		return nil, fmt.Errorf("shm: stat %s: %w", name, err)
	}
	if st.Size < int64(size) {
		return nil, fmt.Errorf("%w: %s holds %d bytes, want %d", ErrSize, name, st.Size, size)
	}
	data, err := unix.Mmap(fd, 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("shm: map %s: %w", name, err)
	}
	return data, nil
}

func unmap(data []byte) error {
	if err := unix.Munmap(data); err != nil {
		return fmt.Errorf("shm: unmap: %w", err)
	}
	return nil
}

func unlink(name string) error {
	if err := unix.Unlink(regionPath(name)); err != nil {
		if errors.Is(err, unix.ENOENT) {
			return fmt.Errorf("%w: %s", ErrNotExist, name)
		}
		return fmt.Errorf("shm: unlink %s: %w", name, err)
	}
	return nil
}
