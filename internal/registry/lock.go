package registry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const lockRetryDelay = 50 * time.Millisecond

// FileLock is an advisory, cross-process lock on the registry. It guards the
// load-modify-save window of a hook against other installer processes.
type FileLock struct {
	path string
}

// NewFileLock returns a lock backed by the file at path.
func NewFileLock(path string) *FileLock {
	return &FileLock{path: path}
}

// Lock blocks until the lock is held or ctx is done. The returned function
// releases it.
func (l *FileLock) Lock(ctx context.Context) (func() error, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), dirPerm); err != nil {
		return nil, &FilesystemError{Op: "creating directory", Path: filepath.Dir(l.path), Err: err}
	}

	fl := flock.New(l.path)
	locked, err := fl.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("locking registry %s: %w", l.path, err)
	}
	if !locked {
		return nil, fmt.Errorf("locking registry %s: lock not acquired", l.path)
	}
	return fl.Unlock, nil
}
