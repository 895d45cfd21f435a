package cache

import (
	"context"
	"log/slog"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/me/cinedex/internal/metrics"
)

// BreakerConfig configures the circuit breaker around a cache backend.
type BreakerConfig struct {
	MaxRequests      uint32        `koanf:"max_requests"`
	Interval         time.Duration `koanf:"interval"`
	Timeout          time.Duration `koanf:"timeout"`
	FailureThreshold uint32        `koanf:"failure_threshold"`
}

// DefaultBreakerConfig trips after five consecutive failures and lets a
// trial call through after thirty seconds.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// BreakerStore guards a Store with a circuit breaker. While the breaker is
// open every call fails immediately with gobreaker.ErrOpenState.
type BreakerStore struct {
	next Store
	cb   *gobreaker.CircuitBreaker[interface{}]
}

type lookup struct {
	value []byte
	found bool
}

// NewBreakerStore wraps next.
func NewBreakerStore(next Store, cfg BreakerConfig, logger *slog.Logger) *BreakerStore {
	name := "cache-" + next.Name()
	logger = logger.With("component", "cache-breaker", "name", name)
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = DefaultBreakerConfig().FailureThreshold
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "from", from.String(), "to", to.String())
			metrics.CacheBreakerState.WithLabelValues(name).Set(float64(to))
		},
	}
	metrics.CacheBreakerState.WithLabelValues(name).Set(float64(gobreaker.StateClosed))

	return &BreakerStore{
		next: next,
		cb:   gobreaker.NewCircuitBreaker[interface{}](settings),
	}
}

func (b *BreakerStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		v, ok, err := b.next.Get(ctx, key)
		return lookup{v, ok}, err
	})
	if err != nil {
		return nil, false, err
	}
	l := res.(lookup)
	return l.value, l.found, nil
}

func (b *BreakerStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration, tags []string) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.next.Set(ctx, key, value, ttl, tags)
	})
	return err
}

func (b *BreakerStore) Delete(ctx context.Context, key string) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.next.Delete(ctx, key)
	})
	return err
}

func (b *BreakerStore) InvalidateTag(ctx context.Context, tag string) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.next.InvalidateTag(ctx, tag)
	})
	return err
}

func (b *BreakerStore) Name() string { return b.next.Name() }

func (b *BreakerStore) Close() error { return b.next.Close() }

// State reports the breaker state ("closed", "half-open" or "open").
func (b *BreakerStore) State() string { return b.cb.State().String() }

// Len forwards to the wrapped store when it can report its size.
func (b *BreakerStore) Len() int {
	if s, ok := b.next.(sizer); ok {
		return s.Len()
	}
	return -1
}
