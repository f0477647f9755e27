// Package lock serialises mutating ivm commands across processes.
//
// The lock is an advisory file lock on <data>/ivm.lock. Commands that change
// the install root, the downloads directory or the default pointer hold it
// for their whole duration.
package lock

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/matzehuels/ivm/pkg/errors"
)

// PollInterval is how often Acquire retries a lock held by another process.
var PollInterval = 100 * time.Millisecond

// Lock is a held advisory lock.
type Lock struct {
	path string
	fl   *flock.Flock
}

// Acquire takes an exclusive lock on path, waiting until it is available or
// ctx is done. The parent directory is created if needed.
func Acquire(ctx context.Context, path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileSystem, err, "Failed to create %s", filepath.Dir(path))
	}

	fl := flock.New(path)
	ok, err := fl.TryLockContext(ctx, PollInterval)
	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) {
			return nil, errors.New(errors.ErrCodeLocked, "another ivm process holds %s", path)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Wrap(errors.ErrCodeFileSystem, err, "Failed to lock %s", path)
	}
	if !ok {
		return nil, errors.New(errors.ErrCodeLocked, "another ivm process holds %s", path)
	}
	return &Lock{path: path, fl: fl}, nil
}

// AcquireTimeout is Acquire bounded by timeout.
func AcquireTimeout(ctx context.Context, path string, timeout time.Duration) (*Lock, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return Acquire(ctx, path)
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// Release unlocks the file. It is safe to call more than once and on a nil
// lock.
func (l *Lock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	err := l.fl.Unlock()
	l.fl = nil
	return err
}
