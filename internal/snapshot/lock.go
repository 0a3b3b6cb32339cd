package snapshot

import (
	"fmt"
	"os"

	"github.com/gofrs/flock"

	"github.com/Sozary/tidsreg/internal/utils"
)

const lockFileSuffix = ".lock"

// writeLock serializes snapshot writes across processes.
type writeLock struct {
	lock *flock.Flock
	path string
}

func newWriteLock(dbPath string) *writeLock {
	lockPath := dbPath + lockFileSuffix
	return &writeLock{
		lock: flock.New(lockPath),
		path: lockPath,
	}
}

// acquire takes the lock, waiting if another process holds it.
func (l *writeLock) acquire() error {
	locked, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock on %s: %w", l.path, err)
	}
	if !locked {
		utils.Log.Warnf("Another tidsreg process is writing to the snapshot database, waiting for it to finish...")
		if err := l.lock.Lock(); err != nil {
			return fmt.Errorf("failed to acquire lock on %s after waiting: %w", l.path, err)
		}
	}
	return nil
}

func (l *writeLock) release() error {
	if err := l.lock.Unlock(); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to release lock on %s: %w", l.path, err)
	}
	return nil
}
