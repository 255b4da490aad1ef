//go:build !windows

package instance

import (
	"errors"
	"syscall"
)

// alive sends signal 0, which checks for the process without touching it.
// EPERM means it exists but belongs to someone else.
func alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, 0)
	return err == nil || errors.Is(err, syscall.EPERM)
}
