// Package singleinstance enforces spec.md §6's "process is single-instance"
// rule with a PID/lock file in the platform runtime directory. The
// teacher's own singleton idiom (sync.Once-guarded lazy hardware handles in
// hardware/hardware.go) only arbitrates goroutines within one process; a
// second OS process needs real mutual exclusion, so this uses an
// exclusive, non-blocking flock(2) held for the process lifetime — the
// same "hold a file lock, exit if already held" idiom, generalized across
// process boundaries instead of goroutines.
package singleinstance

import (
	"fmt"
	"os"
	"strconv"

	"golang.org/x/sys/unix"

	"github.com/vincent99/deckmanagerd/internal/logging"
)

var log = logging.For("singleinstance")

// Lock holds an acquired, exclusive lock file for the process lifetime.
type Lock struct {
	file *os.File
}

// ErrAlreadyRunning is returned by Acquire when another process already
// holds the lock.
var ErrAlreadyRunning = fmt.Errorf("singleinstance: another instance is already running")

// Acquire opens (creating if needed) the lock file at path and takes a
// non-blocking exclusive flock on it. On success the file is truncated and
// the calling process's PID written into it, so a second launch reading
// the file can report which PID is already running. The lock is released
// automatically when the process exits, or explicitly via Release.
func Acquire(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("singleinstance: open lock file: %w", err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		return nil, ErrAlreadyRunning
	}

	if err := f.Truncate(0); err == nil {
		f.WriteAt([]byte(strconv.Itoa(os.Getpid())), 0)
	}

	log.WithField("path", path).Debug("singleinstance: lock acquired")
	return &Lock{file: f}, nil
}

// Release unlocks and closes the lock file. A second call, or a call on a
// nil Lock, is a no-op that returns nil.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	err := l.file.Close()
	l.file = nil
	return err
}

// RunningPID reads the PID recorded in the lock file at path by whatever
// process currently holds it, if any. Used to report which instance is
// already running when Acquire fails.
func RunningPID(path string) (int, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(string(data))
	if err != nil {
		return 0, false
	}
	return pid, true
}
