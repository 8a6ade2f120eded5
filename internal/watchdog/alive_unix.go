//go:build !windows

package watchdog

import (
	"errors"

	"golang.org/x/sys/unix"
)

// ProcessAlive sends signal 0 to pid. EPERM still means the process exists.
func ProcessAlive(pid int) bool {
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}
