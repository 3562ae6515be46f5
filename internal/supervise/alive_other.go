//go:build !(linux || darwin || freebsd)

package supervise

import "os"

func ProcessAlive(pid int) bool {
	_, err := os.FindProcess(pid)
	return err == nil
}
