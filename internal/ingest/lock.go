package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

// CycleLock guards the dedup check-and-commit section. The mutex serialises
// goroutines in this process; the file lock serialises separate processes
// sharing one database.
type CycleLock struct {
	mu   sync.Mutex
	file *flock.Flock
}

// NewCycleLock returns a lock backed by path. An empty path gives an
// in-process lock only, which is what a shared postgres database needs
// when every runner lives in one process.
func NewCycleLock(path string) *CycleLock {
	l := &CycleLock{}
	if path != "" {
		l.file = flock.New(path)
	}
	return l
}

func (l *CycleLock) Lock(ctx context.Context) error {
	l.mu.Lock()
	if l.file == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(l.file.Path()), 0o755); err != nil {
		l.mu.Unlock()
		return fmt.Errorf("create lock dir: %w", err)
	}
	ok, err := l.file.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil || !ok {
		l.mu.Unlock()
		if err == nil {
			err = fmt.Errorf("lock %s not acquired", l.file.Path())
		}
		return err
	}
	return nil
}

func (l *CycleLock) Unlock() error {
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	return l.file.Unlock()
}
