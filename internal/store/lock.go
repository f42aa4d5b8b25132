package store

import (
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"

	ferrors "github.com/ferret-go/ferret/internal/errors"
)

// lockFileName is the writer lock file inside the index directory.
const lockFileName = "write.lock"

// writeLock serializes writers on one index directory across
// processes.
type writeLock struct {
	fl *flock.Flock
}

// acquireWriteLock takes the directory's writer lock without blocking.
// A held lock reports ErrCodeLockHeld.
func acquireWriteLock(dir string) (*writeLock, error) {
	fl := flock.New(filepath.Join(dir, lockFileName))
	ok, err := fl.TryLock()
	if err != nil {
		return nil, ferrors.IOError(fmt.Sprintf("failed to acquire write lock in %s", dir), err)
	}
	if !ok {
		return nil, ferrors.New(ferrors.ErrCodeLockHeld,
			fmt.Sprintf("another writer holds the lock on %s", dir), nil)
	}
	return &writeLock{fl: fl}, nil
}

// Release drops the lock. Releasing twice is harmless.
func (l *writeLock) Release() error {
	if err := l.fl.Unlock(); err != nil {
		return ferrors.IOError("failed to release write lock", err)
	}
	return nil
}
