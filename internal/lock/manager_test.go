package lock

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

const (
	testLockTimeout  = 200 * time.Millisecond
	veryShortTimeout = 30 * time.Millisecond
)

func TestLockManager_DefaultDir(t *testing.T) {
	lm := NewLockManager("")
	if lm.dir != DefaultDir() {
		t.Errorf("expected default dir %s, got %s", DefaultDir(), lm.dir)
	}
}

func TestLockManager_LockPathOutsideTargetDir(t *testing.T) {
	dir := t.TempDir()
	lm := NewLockManager(dir)
	got := lm.LockPath("/etc/nginx/sites-enabled/example.com")
	if filepath.Dir(got) != dir {
		t.Fatalf("lock file %s not in lock dir %s", got, dir)
	}
	if !strings.HasSuffix(got, ".lock") || strings.Contains(filepath.Base(got), "/") {
		t.Errorf("unexpected lock path %s", got)
	}
	if lm.LockPath("/etc/a_b/c") == lm.LockPath("/etc/a/b_c") {
		t.Errorf("distinct targets share a lock file")
	}
}

func TestLockManager_AcquireReleaseBasic(t *testing.T) {
	lm := NewLockManager(t.TempDir())
	filename := "/etc/nginx/nginx.conf"

	l, err := lm.AcquireLock(context.Background(), filename, testLockTimeout)
	if err != nil {
		t.Fatalf("AcquireLock failed: %v", err)
	}
	if l.FilePath != filename {
		t.Errorf("expected FilePath %s, got %s", filename, l.FilePath)
	}
	if err := lm.ReleaseLock(l); err != nil {
		t.Fatalf("ReleaseLock failed: %v", err)
	}

	// A released lock can be taken again.
	l, err = lm.AcquireLock(context.Background(), filename, testLockTimeout)
	if err != nil {
		t.Fatalf("re-acquire failed: %v", err)
	}
	_ = lm.ReleaseLock(l)
}

func TestLockManager_AcquireEmptyFilename(t *testing.T) {
	lm := NewLockManager(t.TempDir())
	_, err := lm.AcquireLock(context.Background(), "", testLockTimeout)
	if !errors.Is(err, ErrFilenameRequired) {
		t.Errorf("expected ErrFilenameRequired, got %v", err)
	}
}

func TestLockManager_ReleaseNilLock(t *testing.T) {
	lm := NewLockManager(t.TempDir())
	if err := lm.ReleaseLock(nil); !errors.Is(err, ErrNilLock) {
		t.Errorf("expected ErrNilLock, got %v", err)
	}
}

func TestLockManager_LockTimeout(t *testing.T) {
	dir := t.TempDir()
	holder := NewLockManager(dir)
	waiter := NewLockManager(dir)
	filename := "/var/www/app/server.js"

	l, err := holder.AcquireLock(context.Background(), filename, testLockTimeout)
	if err != nil {
		t.Fatalf("AcquireLock failed: %v", err)
	}
	defer holder.ReleaseLock(l)

	start := time.Now()
	_, err = waiter.AcquireLock(context.Background(), filename, veryShortTimeout)
	if !errors.Is(err, ErrLockTimeout) {
		t.Fatalf("expected ErrLockTimeout, got %v", err)
	}
	if time.Since(start) < veryShortTimeout {
		t.Errorf("gave up before the timeout elapsed")
	}
}

func TestLockManager_DifferentFilesDoNotBlock(t *testing.T) {
	lm := NewLockManager(t.TempDir())
	a, err := lm.AcquireLock(context.Background(), "/etc/nginx/nginx.conf", testLockTimeout)
	if err != nil {
		t.Fatalf("AcquireLock a: %v", err)
	}
	defer lm.ReleaseLock(a)
	b, err := lm.AcquireLock(context.Background(), "/etc/nginx/sites-enabled/example.com", veryShortTimeout)
	if err != nil {
		t.Fatalf("AcquireLock b: %v", err)
	}
	_ = lm.ReleaseLock(b)
}

func TestLockManager_WaiterGetsLockAfterRelease(t *testing.T) {
	dir := t.TempDir()
	filename := "/etc/nginx/nginx.conf"
	holder := NewLockManager(dir)
	l, err := holder.AcquireLock(context.Background(), filename, testLockTimeout)
	if err != nil {
		t.Fatalf("AcquireLock failed: %v", err)
	}

	var wg sync.WaitGroup
	var waitErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		waiter := NewLockManager(dir)
		wl, err := waiter.AcquireLock(context.Background(), filename, 2*time.Second)
		if err != nil {
			waitErr = err
			return
		}
		waitErr = waiter.ReleaseLock(wl)
	}()

	time.Sleep(50 * time.Millisecond)
	if err := holder.ReleaseLock(l); err != nil {
		t.Fatalf("ReleaseLock failed: %v", err)
	}
	wg.Wait()
	if waitErr != nil {
		t.Fatalf("waiter failed: %v", waitErr)
	}
}

func TestLockManager_ContextCancelled(t *testing.T) {
	dir := t.TempDir()
	filename := "/etc/nginx/nginx.conf"
	holder := NewLockManager(dir)
	l, err := holder.AcquireLock(context.Background(), filename, testLockTimeout)
	if err != nil {
		t.Fatalf("AcquireLock failed: %v", err)
	}
	defer holder.ReleaseLock(l)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewLockManager(dir).AcquireLock(ctx, filename, time.Second); err == nil {
		t.Fatalf("expected error for cancelled context")
	}
}
