package daemon

import (
	"errors"
	"fmt"

	"github.com/gofrs/flock"
)

// ErrAlreadyRunning is returned when another daemon instance holds the lock.
var ErrAlreadyRunning = errors.New("daemon already running")

// Lock is the process-singleton advisory lock. The OS releases it when the
// process exits, cleanly or not.
type Lock struct {
	fl *flock.Flock
}

// AcquireLock takes the advisory lock at path without blocking. Query-only
// invocations never call this; only the long-running daemon needs it.
func AcquireLock(path string) (*Lock, error) {
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire daemon lock: %w", err)
	}
	if !ok {
		return nil, ErrAlreadyRunning
	}
	return &Lock{fl: fl}, nil
}

// Release drops the lock early. Safe to skip; process exit releases it.
func (l *Lock) Release() error {
	return l.fl.Unlock()
}
