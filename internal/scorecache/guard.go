package scorecache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const guardRetryInterval = 100 * time.Millisecond

// InflightGuard serializes concurrent runs over the same fingerprint using
// per-fingerprint file locks. The second run blocks until the first
// finishes, then typically hits the freshly written cache entry instead of
// re-issuing provider calls. Opt-in: the core pipeline never requires it.
type InflightGuard struct {
	dir string
}

// NewInflightGuard creates a guard storing its lock files under dir.
func NewInflightGuard(dir string) (*InflightGuard, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure guard directory: %w", err)
	}
	return &InflightGuard{dir: dir}, nil
}

// Acquire blocks until the fingerprint's lock is held or ctx is done. The
// returned release function must be called when the run finishes.
func (g *InflightGuard) Acquire(ctx context.Context, fingerprint string) (func(), error) {
	if g == nil {
		return func() {}, nil
	}
	lock := flock.New(filepath.Join(g.dir, fingerprint+".lock"))
	ok, err := lock.TryLockContext(ctx, guardRetryInterval)
	if err != nil {
		return nil, fmt.Errorf("acquire fingerprint lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("acquire fingerprint lock: not granted")
	}
	return func() {
		_ = lock.Unlock()
		_ = os.Remove(lock.Path())
	}, nil
}
