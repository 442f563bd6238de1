package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// LockFileName is created inside a directory while a batch runs on it
const LockFileName = ".stereomerge.lock"

// ErrLocked is returned when another process holds the directory lock
var ErrLocked = errors.New("directory is locked by another merge")

// DirLock is an advisory lock on a source directory
type DirLock struct {
	fl *flock.Flock
}

// LockDir takes the advisory lock for dir without blocking.
func LockDir(dir string) (*DirLock, error) {
	fl := flock.New(filepath.Join(dir, LockFileName))
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", dir, err)
	}
	if !locked {
		return nil, ErrLocked
	}
	return &DirLock{fl: fl}, nil
}

// Unlock releases the lock and removes the lock file
func (l *DirLock) Unlock() error {
	path := l.fl.Path()
	if err := l.fl.Unlock(); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
