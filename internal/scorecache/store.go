package scorecache

import (
	"context"
	"sync"

	"sift/internal/report"
)

// Store is the cache capability consumed by the pipeline's cacheCheck and
// cacheStore nodes.
type Store interface {
	// Get returns the cached result for a fingerprint, reporting absence
	// through the boolean rather than an error.
	Get(ctx context.Context, fingerprint string) (*report.Result, bool, error)
	// Put stores a result under its fingerprint, replacing any prior entry.
	Put(ctx context.Context, fingerprint string, result *report.Result) error
}

// Memory is a Store backed by a map. Safe for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]report.Result
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]report.Result)}
}

// Get implements Store.
func (m *Memory) Get(_ context.Context, fingerprint string) (*report.Result, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.entries[fingerprint]
	if !ok {
		return nil, false, nil
	}
	copied := entry
	return &copied, true, nil
}

// Put implements Store.
func (m *Memory) Put(_ context.Context, fingerprint string, result *report.Result) error {
	if result == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *result
	stored.FromCache = false
	m.entries[fingerprint] = stored
	return nil
}

// Len returns the number of cached entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
