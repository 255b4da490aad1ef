// Package instance keeps a second copy of the application from using the
// same base folder, through a pid file.
//
// The lock is advisory. A crashed process leaves its pid file behind; the
// next start treats it as stale once that pid is no longer alive.
package instance

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

const pidFile = "pid"

var ErrAlreadyRunning = errors.New("another instance is already running")

// Lock is a held pid file.
type Lock struct {
	path string
	once sync.Once
	err  error
}

// Acquire writes our pid to <base>/pid. It fails with ErrAlreadyRunning when
// the file names another live process.
func Acquire(base string) (*Lock, error) {
	path := filepath.Join(base, pidFile)

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if pid, convErr := strconv.Atoi(strings.TrimSpace(string(data))); convErr == nil {
			if pid != os.Getpid() && alive(pid) {
				return nil, fmt.Errorf("%w (pid %d)", ErrAlreadyRunning, pid)
			}
		}
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("failed to read pid file: %w", err)
	}

	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write pid file: %w", err)
	}
	return &Lock{path: path}, nil
}

// Path is the pid file location.
func (l *Lock) Path() string { return l.path }

// Release removes the pid file. Calling it more than once is harmless.
func (l *Lock) Release() error {
	l.once.Do(func() {
		err := os.Remove(l.path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			l.err = fmt.Errorf("failed to remove pid file: %w", err)
		}
	})
	return l.err
}

// Shutdown lets the shutdown manager release the lock.
func (l *Lock) Shutdown() error {
	return l.Release()
}
