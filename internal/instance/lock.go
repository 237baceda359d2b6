// Package instance provides cross-process single-instance coordination:
// an advisory file lock that decides which invocation becomes the agent,
// plus the companion port file through which the agent announces its
// command channel to later invocations.
package instance

import (
	"errors"
	"os"
)

// ErrLockHeld is returned by Acquire when another process owns the lock.
// Lock contention is a signaled outcome, not a failure: the caller falls
// through to the command-forwarding path.
var ErrLockHeld = errors.New("instance lock held by another process")

// Lock holds the exclusive instance lock. The OS releases the underlying
// flock automatically when the process dies (even SIGKILL), so a crashed
// owner can never lock out its successor; only the lock record file may
// go stale.
type Lock struct {
	path string
	file *os.File
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}
