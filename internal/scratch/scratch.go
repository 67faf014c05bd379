package scratch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/genricoloni/capview/internal/domain"
	"github.com/gofrs/flock"
	"go.uber.org/zap"
)

// ErrLocked is returned when another process already owns the scratch directory
var ErrLocked = errors.New("scratch space is in use by another process")

// Space is the directory the engine owns exclusively for extracted archive members.
// The lock file lives next to the directory so wiping never removes it.
type Space struct {
	logger *zap.Logger
	dir    string
	lock   *flock.Flock
}

// New creates the scratch directory and takes its lock
func New(logger *zap.Logger, dir string) (*Space, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve scratch path: %w", err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("%w: failed to create scratch directory: %w", domain.ErrIO, err)
	}

	lock := flock.New(abs + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire scratch lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, abs)
	}

	logger.Info("Scratch space acquired", zap.String("dir", abs))
	return &Space{logger: logger, dir: abs, lock: lock}, nil
}

// Dir returns the absolute scratch directory
func (s *Space) Dir() string {
	return s.dir
}

// Wipe removes everything inside the scratch directory
func (s *Space) Wipe() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("%w: failed to list scratch space: %w", domain.ErrIO, err)
	}

	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(s.dir, e.Name())); err != nil {
			return fmt.Errorf("%w: failed to wipe scratch space: %w", domain.ErrIO, err)
		}
	}

	if len(entries) > 0 {
		s.logger.Debug("Scratch space wiped", zap.Int("removed", len(entries)))
	}
	return nil
}

// Close wipes the scratch directory and releases the lock
func (s *Space) Close() error {
	wipeErr := s.Wipe()
	if err := s.lock.Unlock(); err != nil {
		s.logger.Warn("Failed to release scratch lock", zap.Error(err))
	}
	return wipeErr
}
