package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"cdjexport/internal/services"
)

// Lock is held for the duration of an export.
type Lock struct {
	fl *flock.Flock
}

// AcquireLock takes the export lock at path without waiting. A lock held by
// another process yields ErrBusy.
func AcquireLock(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "export", "lock", "create state directory", err)
	}
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "export", "lock", fmt.Sprintf("lock %s", path), err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrBusy, "export", "lock", fmt.Sprintf("%s is held by another process", path), nil)
	}
	return &Lock{fl: fl}, nil
}

// Release drops the lock.
func (l *Lock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	return l.fl.Unlock()
}
