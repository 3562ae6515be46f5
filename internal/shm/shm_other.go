//go:build !(linux || darwin || freebsd)

package shm

func mapCreate(name string, size int) ([]byte, error) { return nil, ErrUnsupported }
func mapOpen(name string, size int) ([]byte, error)   { return nil, ErrUnsupported }
func unmap(data []byte) error                         { return ErrUnsupported }
func unlink(name string) error                        { return ErrUnsupported }
