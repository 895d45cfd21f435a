package cache

import (
	"context"
	"sync"
	"time"
)

type memEntry struct {
	value   []byte
	expires time.Time // zero means no expiry
	tags    []string
}

// MemoryStore is an in-process Store. Expired entries are dropped lazily on
// Get and in bulk by Serve.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memEntry
	tags    map[string]map[string]struct{}

	sweepEvery time.Duration
	now        func() time.Time
}

// NewMemoryStore creates an empty store that sweeps expired entries every
// sweepEvery while served.
func NewMemoryStore(sweepEvery time.Duration) *MemoryStore {
	if sweepEvery <= 0 {
		sweepEvery = time.Minute
	}
	return &MemoryStore{
		entries:    make(map[string]memEntry),
		tags:       make(map[string]map[string]struct{}),
		sweepEvery: sweepEvery,
		now:        time.Now,
	}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if m.expired(e) {
		m.remove(key)
		return nil, false, nil
	}
	return e.value, true, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration, tags []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.remove(key)
	e := memEntry{value: value, tags: append([]string(nil), tags...)}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.entries[key] = e
	for _, tag := range tags {
		keys, ok := m.tags[tag]
		if !ok {
			keys = make(map[string]struct{})
			m.tags[tag] = keys
		}
		keys[key] = struct{}{}
	}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.remove(key)
	return nil
}

func (m *MemoryStore) InvalidateTag(_ context.Context, tag string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.tags[tag] {
		m.remove(key)
	}
	delete(m.tags, tag)
	return nil
}

func (m *MemoryStore) Name() string { return "memory" }

func (m *MemoryStore) Close() error { return nil }

// Len returns the number of stored entries, expired or not.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Sweep removes expired entries and returns how many were dropped.
func (m *MemoryStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for key, e := range m.entries {
		if m.expired(e) {
			m.remove(key)
			n++
		}
	}
	return n
}

// Serve runs the sweep loop until ctx is cancelled.
func (m *MemoryStore) Serve(ctx context.Context) error {
	ticker := time.NewTicker(m.sweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.Sweep()
		}
	}
}

func (m *MemoryStore) String() string { return "cache-sweeper" }

func (m *MemoryStore) expired(e memEntry) bool {
	return !e.expires.IsZero() && !m.now().Before(e.expires)
}

// remove drops key and its tag index entries. Caller holds mu.
func (m *MemoryStore) remove(key string) {
	e, ok := m.entries[key]
	if !ok {
		return
	}
	delete(m.entries, key)
	for _, tag := range e.tags {
		if keys, ok := m.tags[tag]; ok {
			delete(keys, key)
			if len(keys) == 0 {
				delete(m.tags, tag)
			}
		}
	}
}
