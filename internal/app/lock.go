package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/nightlyone/lockfile"
)

// acquireLock takes the single-writer lock next to the state file.
func acquireLock(path string) (*lockfile.Lockfile, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve lock path %q: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	flock, err := lockfile.New(abs)
	if err != nil {
		return nil, fmt.Errorf("could not create lock file %q: %w", abs, err)
	}
	if err := flock.TryLock(); err != nil {
		if owner, ownerErr := flock.GetOwner(); ownerErr == nil {
			return nil, fmt.Errorf("another instance (pid %d) holds %q: %w", owner.Pid, abs, err)
		}
		return nil, fmt.Errorf("could not get lock on file %q: %w", abs, err)
	}
	return &flock, nil
}
