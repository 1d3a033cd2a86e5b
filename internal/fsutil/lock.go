package fsutil

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// WithLock opens path (creating it with perm if missing), holds an exclusive
// flock on it while fn runs, and releases it afterwards. The lock is advisory:
// it only serialises callers that also use WithLock.
func WithLock(path string, perm os.FileMode, fn func(f *os.File) error) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, perm)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		return fmt.Errorf("flock %s: %w", path, err)
	}
	defer unix.Flock(int(f.Fd()), unix.LOCK_UN)

	return fn(f)
}

