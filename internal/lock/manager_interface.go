package lock

import (
	"context"
	"time"

	"github.com/gofrs/flock"
)

// FileLock represents a handle to an OS-level file lock.
type FileLock struct {
	FilePath string
	flock    *flock.Flock
}

// LockManagerInterface defines the methods a lock manager should implement.
// AcquireLock obtains an exclusive OS-level file lock and returns a handle
// which must be provided back to ReleaseLock.
type LockManagerInterface interface {
	AcquireLock(ctx context.Context, filePath string, timeout time.Duration) (*FileLock, error)
	ReleaseLock(lock *FileLock) error
}

var _ LockManagerInterface = (*LockManager)(nil)
