package lock

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

var (
	// ErrLockTimeout is returned when acquiring a lock times out.
	ErrLockTimeout = fmt.Errorf("timeout acquiring lock")
	// ErrFilenameRequired is returned when a filename is empty.
	ErrFilenameRequired = fmt.Errorf("filename is required")
	// ErrNilLock is returned when a nil lock handle is provided to ReleaseLock.
	ErrNilLock = fmt.Errorf("nil lock handle")
)

const (
	// shortPollInterval is the interval to sleep when polling for a lock.
	shortPollInterval = 10 * time.Millisecond
)

// DefaultDir is where lock files go when no directory is configured. They
// must not sit next to the targets: nginx includes every file in
// sites-enabled, a stray .lock file there breaks the configuration.
func DefaultDir() string {
	return filepath.Join(os.TempDir(), "confpatch")
}

// LockManager hands out advisory OS locks, one lock file per target path.
type LockManager struct {
	dir string
}

// NewLockManager initializes and returns a new LockManager keeping its lock
// files in dir, or DefaultDir when dir is empty.
func NewLockManager(dir string) *LockManager {
	if dir == "" {
		dir = DefaultDir()
	}
	return &LockManager{dir: dir}
}

// LockPath returns the lock file used for filePath. The whole path is
// escaped into one file name so different targets never share a lock.
func (lm *LockManager) LockPath(filePath string) string {
	if abs, err := filepath.Abs(filePath); err == nil {
		filePath = abs
	}
	return filepath.Join(lm.dir, url.PathEscape(filepath.ToSlash(filePath))+".lock")
}

// AcquireLock attempts to acquire an exclusive OS-level lock for the given
// file, giving up after timeout or when ctx ends.
func (lm *LockManager) AcquireLock(ctx context.Context, filename string, timeout time.Duration) (*FileLock, error) {
	if filename == "" {
		return nil, ErrFilenameRequired
	}
	if err := os.MkdirAll(lm.dir, 0o700); err != nil {
		return nil, fmt.Errorf("error creating lock directory %s: %w", lm.dir, err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	fileLock := flock.New(lm.LockPath(filename))
	locked, err := fileLock.TryLockContext(ctx, shortPollInterval)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrLockTimeout
		}
		return nil, fmt.Errorf("error acquiring file lock for %s: %w", filename, err)
	}
	if !locked {
		return nil, ErrLockTimeout
	}

	return &FileLock{FilePath: filename, flock: fileLock}, nil
}

// ReleaseLock releases the given OS-level lock. The lock file stays behind
// so that a waiting process keeps locking the same inode.
func (lm *LockManager) ReleaseLock(lock *FileLock) error {
	if lock == nil {
		return ErrNilLock
	}
	if lock.flock != nil {
		if err := lock.flock.Unlock(); err != nil {
			return fmt.Errorf("error releasing file lock for %s: %w", lock.FilePath, err)
		}
	}
	return nil
}
