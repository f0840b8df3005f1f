package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"
)

func shortLockConfig(timeout time.Duration) *FileLockConfig {
	retry := 10 * time.Millisecond
	maxRetry := int(timeout / retry)
	if maxRetry < 1 {
		maxRetry = 1
	}
	return &FileLockConfig{
		LockTimeout:  timeout,
		LockRetry:    retry,
		LockMaxRetry: maxRetry,
	}
}

func TestNewFileLock(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")

	lock, err := NewFileLock(dir, nil)
	if err != nil {
		t.Fatalf("Failed to acquire lock: %v", err)
	}
	if !lock.IsLocked() {
		t.Error("Expected lock to be held")
	}
	if got, want := lock.Path(), filepath.Join(dir, "deskflow.lock"); got != want {
		t.Errorf("lock path: got %q want %q", got, want)
	}

	lock.Unlock()
	lock.Unlock()

	if lock.IsLocked() {
		t.Error("Expected lock to be released after Unlock()")
	}
}

func TestFileLockSecondProcessTimesOut(t *testing.T) {
	dir := t.TempDir()

	other := flock.New(filepath.Join(dir, "deskflow.lock"))
	locked, err := other.TryLock()
	if err != nil || !locked {
		t.Fatalf("prepare foreign lock: locked=%v err=%v", locked, err)
	}
	defer other.Unlock()

	start := time.Now()
	if _, err := NewFileLock(dir, shortLockConfig(50*time.Millisecond)); err == nil {
		t.Fatal("Expected second lock to fail")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("lock acquisition took too long: %v", elapsed)
	}
}

func TestFileLockReacquireAfterUnlock(t *testing.T) {
	dir := t.TempDir()

	first, err := NewFileLock(dir, shortLockConfig(50*time.Millisecond))
	if err != nil {
		t.Fatalf("first lock: %v", err)
	}
	first.Unlock()

	second, err := NewFileLock(dir, shortLockConfig(50*time.Millisecond))
	if err != nil {
		t.Fatalf("second lock: %v", err)
	}
	second.Unlock()
}
