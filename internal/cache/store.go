// Package cache provides the tagged read-through cache in front of the
// catalog store.
package cache

import (
	"context"
	"time"
)

// Store is a byte-oriented cache backend. Entries carry a TTL and a set of
// tags; InvalidateTag removes every entry carrying the tag.
type Store interface {
	// Get returns the value for key and whether it was present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value under key. A ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration, tags []string) error
	Delete(ctx context.Context, key string) error
	InvalidateTag(ctx context.Context, tag string) error
	// Name identifies the backend in stats and logs.
	Name() string
	Close() error
}

// sizer is implemented by backends that can report their entry count.
type sizer interface {
	Len() int
}
