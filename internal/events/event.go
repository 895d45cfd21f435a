// Package events carries entity change notifications between cinedex
// instances so each can drop its cached lists.
package events

import (
	"context"
	"time"
)

// Actions carried by an Event.
const (
	ActionCreated  = "created"
	ActionUpdated  = "updated"
	ActionDeleted  = "deleted"
	ActionReviewed = "reviewed"
)

// Event announces a write to one entity.
type Event struct {
	Entity     string    `json:"entity"`
	Action     string    `json:"action"`
	ResourceID string    `json:"resourceId"`
	Tags       []string  `json:"tags,omitempty"`
	Origin     string    `json:"origin"`
	Timestamp  time.Time `json:"timestamp"`
}

// Publisher sends change events.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Nop discards events. It is used when no brokers are configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }
