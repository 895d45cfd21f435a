package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sync/singleflight"

	"github.com/me/cinedex/internal/metrics"
)

// DefaultTTL is the revalidation interval used when none is configured.
const DefaultTTL = 5 * time.Minute

// Layer is the read-through cache used by the catalog. Failures of the
// backing Store are logged and counted but never returned: a failed lookup
// behaves as a miss and a failed write is dropped.
//
// Every tag has a generation counter bumped by Invalidate. A load records
// the generations of its tags before it starts, and its result is only
// kept if none of them moved by the time it is stored.
type Layer struct {
	store  Store
	ttl    time.Duration
	logger *slog.Logger
	group  singleflight.Group

	mu      sync.Mutex
	gens    map[string]uint64
	pending map[string]struct{} // tags whose backend invalidation failed

	hits, misses, errors, invalidations atomic.Uint64
}

// Stats is a snapshot of cache activity.
type Stats struct {
	Backend       string `json:"backend"`
	State         string `json:"state,omitempty"`
	Entries       int    `json:"entries"`
	Hits          uint64 `json:"hits"`
	Misses        uint64 `json:"misses"`
	Errors        uint64 `json:"errors"`
	Invalidations uint64 `json:"invalidations"`
}

// NewLayer creates a Layer over store. A nil store disables caching and
// every Fetch goes straight to its loader.
func NewLayer(store Store, ttl time.Duration, logger *slog.Logger) *Layer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Layer{
		store:   store,
		ttl:     ttl,
		logger:  logger.With("component", "cache"),
		gens:    make(map[string]uint64),
		pending: make(map[string]struct{}),
	}
}

// Key derives a deterministic cache key from base and the JSON encoding of
// params.
func Key(base string, params any) string {
	data, err := json.Marshal(params)
	if err != nil {
		return base
	}
	sum := sha256.Sum256(data)
	return base + ":" + hex.EncodeToString(sum[:])
}

// Fetch returns the cached value for key, or calls load, caches its result
// under tags and returns it. Concurrent misses on the same key share one
// load, which runs detached from any one caller's cancellation. Errors
// from load are returned and never cached.
func Fetch[T any](ctx context.Context, l *Layer, key string, tags []string, load func(context.Context) (T, error)) (T, error) {
	if l == nil || l.store == nil {
		return load(ctx)
	}
	if !l.flushPending(ctx, tags) {
		metrics.CacheRequests.WithLabelValues("bypass").Inc()
		return load(ctx)
	}

	snap := l.generations(tags)

	data, ok, err := l.store.Get(ctx, key)
	switch {
	case err != nil:
		l.fail("get", key, err)
	case ok:
		var v T
		if err := json.Unmarshal(data, &v); err == nil {
			l.hits.Add(1)
			metrics.CacheRequests.WithLabelValues("hit").Inc()
			return v, nil
		}
		l.fail("decode", key, err)
	}
	l.misses.Add(1)
	metrics.CacheRequests.WithLabelValues("miss").Inc()

	// The shared load outlives any single caller; each caller stops
	// waiting when its own context ends.
	shared := context.WithoutCancel(ctx)
	ch := l.group.DoChan(key+"@"+snap.String(), func() (interface{}, error) {
		v, err := load(shared)
		if err != nil {
			return nil, err
		}
		l.put(shared, key, tags, snap, v)
		return v, nil
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		v, _ := res.Val.(T)
		return v, nil
	}
}

// Invalidate marks every entry carrying one of tags stale. It returns after
// the backend has dropped them, or after recording the tag for retry if the
// backend failed.
func (l *Layer) Invalidate(ctx context.Context, tags ...string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	for _, tag := range tags {
		l.gens[tag]++
	}
	l.mu.Unlock()

	for _, tag := range tags {
		l.invalidations.Add(1)
		metrics.CacheInvalidations.WithLabelValues(tag).Inc()
		if l.store == nil {
			continue
		}
		if err := l.store.InvalidateTag(ctx, tag); err != nil {
			l.fail("invalidate", tag, err)
			l.mu.Lock()
			l.pending[tag] = struct{}{}
			l.mu.Unlock()
			continue
		}
		l.logger.Debug("cache invalidated", "tag", tag)
	}
}

// Stats returns counters and, where the backend exposes them, its size and
// breaker state.
func (l *Layer) Stats() Stats {
	st := Stats{
		Backend:       "none",
		Entries:       -1,
		Hits:          l.hits.Load(),
		Misses:        l.misses.Load(),
		Errors:        l.errors.Load(),
		Invalidations: l.invalidations.Load(),
	}
	if l.store == nil {
		return st
	}
	st.Backend = l.store.Name()
	if s, ok := l.store.(sizer); ok {
		st.Entries = s.Len()
	}
	if b, ok := l.store.(interface{ State() string }); ok {
		st.State = b.State()
	}
	return st
}

// Close closes the backing store.
func (l *Layer) Close() error {
	if l == nil || l.store == nil {
		return nil
	}
	return l.store.Close()
}

// put stores v unless one of its tags was invalidated since snap was taken.
// A Set racing with an invalidation is undone.
func (l *Layer) put(ctx context.Context, key string, tags []string, snap generation, v any) {
	if !l.current(tags, snap) {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		l.fail("encode", key, err)
		return
	}
	if err := l.store.Set(ctx, key, data, l.ttl, tags); err != nil {
		l.fail("set", key, err)
		return
	}
	if !l.current(tags, snap) {
		if err := l.store.Delete(ctx, key); err != nil {
			l.fail("delete", key, err)
		}
	}
}

// flushPending retries failed invalidations for tags. It reports whether
// the cache may be used for them.
func (l *Layer) flushPending(ctx context.Context, tags []string) bool {
	l.mu.Lock()
	var retry []string
	for _, tag := range tags {
		if _, ok := l.pending[tag]; ok {
			retry = append(retry, tag)
		}
	}
	l.mu.Unlock()

	for _, tag := range retry {
		if err := l.store.InvalidateTag(ctx, tag); err != nil {
			return false
		}
		l.mu.Lock()
		delete(l.pending, tag)
		l.mu.Unlock()
	}
	return true
}

type generation []uint64

func (g generation) String() string {
	parts := make([]string, len(g))
	for i, n := range g {
		parts[i] = strconv.FormatUint(n, 10)
	}
	return strings.Join(parts, ".")
}

func (l *Layer) generations(tags []string) generation {
	l.mu.Lock()
	defer l.mu.Unlock()
	g := make(generation, len(tags))
	for i, tag := range tags {
		g[i] = l.gens[tag]
	}
	return g
}

func (l *Layer) current(tags []string, snap generation) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, tag := range tags {
		if l.gens[tag] != snap[i] {
			return false
		}
	}
	return true
}

func (l *Layer) fail(op, key string, err error) {
	l.errors.Add(1)
	metrics.CacheRequests.WithLabelValues("error").Inc()
	l.logger.Warn("cache store failed", "op", op, "key", key, "error", err)
}
