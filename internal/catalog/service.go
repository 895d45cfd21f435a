// Package catalog is the application layer of cinedex: list queries run
// through the cache, and every write invalidates the cache tags of the kind
// it touched and announces the change to other instances.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/me/cinedex/internal/cache"
	"github.com/me/cinedex/internal/events"
	"github.com/me/cinedex/internal/listquery"
	"github.com/me/cinedex/internal/store"
	"github.com/me/cinedex/internal/validation"
	"github.com/me/cinedex/pkg/model"
)

// ErrNotFound is returned when a read or write addresses a missing record.
var ErrNotFound = store.ErrNotFound

// TagReviews tags cached review lists.
const TagReviews = "reviews"

// Service implements catalog operations on top of a Store.
type Service struct {
	store     store.Store
	registry  *listquery.Registry
	builder   *listquery.Builder
	limits    listquery.Limits
	cache     *cache.Layer
	publisher events.Publisher
	pubWait   time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// DefaultPublishTimeout bounds how long a write waits on its change event.
const DefaultPublishTimeout = 2 * time.Second

// Options configures a Service. Zero values select defaults.
type Options struct {
	Limits    listquery.Limits
	Registry  *listquery.Registry
	Cache     *cache.Layer
	Publisher events.Publisher

	// PublishTimeout bounds each event publish (DefaultPublishTimeout if zero).
	PublishTimeout time.Duration
}

// New creates a Service.
func New(st store.Store, opts Options, logger *slog.Logger) *Service {
	if opts.Registry == nil {
		opts.Registry = listquery.DefaultRegistry()
	}
	if opts.Limits == (listquery.Limits{}) {
		opts.Limits = listquery.DefaultLimits()
	}
	if opts.Publisher == nil {
		opts.Publisher = events.Nop{}
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewLayer(nil, 0, logger)
	}
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = DefaultPublishTimeout
	}
	return &Service{
		store:     st,
		registry:  opts.Registry,
		builder:   listquery.NewBuilder(opts.Registry, opts.Limits),
		limits:    opts.Limits,
		cache:     opts.Cache,
		publisher: opts.Publisher,
		pubWait:   opts.PublishTimeout,
		logger:    logger.With("component", "catalog"),
		now:       time.Now,
	}
}

// Kinds lists the registered entity kinds.
func (s *Service) Kinds() []model.EntityKind {
	return s.registry.Kinds()
}

// Entity returns the definition of kind.
func (s *Service) Entity(kind model.EntityKind) (listquery.Entity, error) {
	return s.registry.Lookup(kind)
}

// Limits returns the page size limits applied to list requests.
func (s *Service) Limits() listquery.Limits {
	return s.limits
}

// List normalizes raw URL parameters for kind and runs the query.
func (s *Service) List(ctx context.Context, kind model.EntityKind, values url.Values) (*model.ListPage, error) {
	e, err := s.registry.Lookup(kind)
	if err != nil {
		return nil, err
	}
	return s.Query(ctx, listquery.Normalize(e, values, s.limits))
}

// Query runs a descriptor through the builder, the cache and the paginator.
func (s *Service) Query(ctx context.Context, desc model.QueryDescriptor) (*model.ListPage, error) {
	e, err := s.registry.Lookup(desc.EntityKind)
	if err != nil {
		return nil, err
	}
	o, err := opsFor(e.Kind())
	if err != nil {
		return nil, err
	}
	q, err := s.builder.Build(desc)
	if err != nil {
		return nil, err
	}
	// The page window is part of the cache key; use the clamped one.
	desc.Page = q.Offset/q.Limit + 1
	desc.PageSize = q.Limit

	page, err := o.list(ctx, s, e, desc, q)
	if err != nil {
		s.logger.Error("list failed", "kind", desc.EntityKind, "error", err)
		return nil, err
	}
	return page, nil
}

// Recent returns the n most recently added records of kind.
func (s *Service) Recent(ctx context.Context, kind model.EntityKind, n int) (*model.ListPage, error) {
	return s.Query(ctx, model.QueryDescriptor{
		EntityKind:    kind,
		SortField:     "createdAt",
		SortDirection: model.SortDesc,
		Page:          1,
		PageSize:      n,
	})
}

// NewRecord returns an empty record of kind for decoding a payload into.
func (s *Service) NewRecord(kind model.EntityKind) (model.Record, error) {
	o, err := opsFor(kind)
	if err != nil {
		return nil, err
	}
	return o.newRecord(), nil
}

// Get returns one record. A missing record yields ErrNotFound.
func (s *Service) Get(ctx context.Context, kind model.EntityKind, id string) (model.Record, error) {
	if _, err := s.registry.Lookup(kind); err != nil {
		return nil, err
	}
	rec, err := s.store.Get(ctx, kind, id)
	if err != nil {
		return nil, fmt.Errorf("get %s %s: %w", kind, id, err)
	}
	if rec == nil {
		return nil, fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return rec, nil
}

// Save validates and stores rec, creating it when it has no ID or its ID
// is unknown. Timestamps are managed here; CreatedAt of an existing record
// is preserved, as is the password hash of a user saved without one.
func (s *Service) Save(ctx context.Context, rec model.Record) error {
	kind := rec.RecordKind()
	o, err := opsFor(kind)
	if err != nil {
		return err
	}
	if apiErr := validation.Struct(rec); apiErr != nil {
		return apiErr
	}

	meta := rec.Metadata()
	now := s.now().UTC().Truncate(time.Millisecond)
	action := events.ActionCreated

	var existing model.Record
	if meta.ID == "" {
		meta.ID = o.idPrefix() + uuid.New().String()
	} else {
		existing, err = s.store.Get(ctx, kind, meta.ID)
		if err != nil {
			return fmt.Errorf("load %s %s: %w", kind, meta.ID, err)
		}
	}

	if u, ok := rec.(*model.User); ok {
		if err := s.checkUserName(ctx, u); err != nil {
			return err
		}
	}

	if existing != nil {
		action = events.ActionUpdated
		meta.CreatedAt = existing.Metadata().CreatedAt
		if u, ok := rec.(*model.User); ok && u.PasswordHash == "" {
			u.PasswordHash = existing.(*model.User).PasswordHash
		}
	} else {
		meta.CreatedAt = now
	}
	meta.UpdatedAt = now

	if err := s.store.Save(ctx, rec); err != nil {
		return fmt.Errorf("save %s %s: %w", kind, meta.ID, err)
	}
	s.logger.Info("record saved", "kind", kind, "id", meta.ID, "action", action)
	s.invalidate(ctx, kind, action, meta.ID)
	return nil
}

// checkUserName rejects a user name already held by another account.
func (s *Service) checkUserName(ctx context.Context, u *model.User) error {
	owner, err := s.store.GetUserByName(ctx, u.UserName)
	if err != nil {
		return fmt.Errorf("look up user %q: %w", u.UserName, err)
	}
	if owner != nil && owner.ID != u.ID {
		return model.NewValidationError("user name already taken",
			model.FieldError{Field: "user_name", Message: u.UserName})
	}
	return nil
}

// Delete removes a record. Deleting a movie or series also drops its
// reviews and bookmarks.
func (s *Service) Delete(ctx context.Context, kind model.EntityKind, id string) error {
	if _, err := s.registry.Lookup(kind); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, kind, id); err != nil {
		return fmt.Errorf("delete %s %s: %w", kind, id, err)
	}
	s.logger.Info("record deleted", "kind", kind, "id", id)
	if kind.IsMedia() {
		s.invalidate(ctx, kind, events.ActionDeleted, id, TagReviews)
		return nil
	}
	s.invalidate(ctx, kind, events.ActionDeleted, id)
	return nil
}

// InvalidateTag drops cached entries for tag on this instance and on every
// instance listening for events.
func (s *Service) InvalidateTag(ctx context.Context, tag string) error {
	if !s.knownTag(tag) {
		return model.NewValidationError("unknown cache tag", model.FieldError{Field: "tag", Message: tag})
	}
	s.cache.Invalidate(ctx, tag)
	s.publish(ctx, events.Event{Entity: tag, Action: "invalidated", Tags: []string{tag}})
	return nil
}

// CacheStats reports cache activity.
func (s *Service) CacheStats() cache.Stats {
	return s.cache.Stats()
}

// HandleEvent applies a change announced by another instance. It only
// touches the local cache and never republishes.
func (s *Service) HandleEvent(ctx context.Context, ev events.Event) error {
	tags := ev.Tags
	if len(tags) == 0 {
		kind, err := model.ParseEntityKind(ev.Entity)
		if err != nil {
			return err
		}
		e, err := s.registry.Lookup(kind)
		if err != nil {
			return err
		}
		tags = e.Tags()
	}
	for _, tag := range tags {
		if !s.knownTag(tag) {
			return fmt.Errorf("event for %s: unknown tag %q", ev.Entity, tag)
		}
	}
	s.cache.Invalidate(ctx, tags...)
	return nil
}

// invalidate derives the cache tags from the kind written, clears them and
// publishes the change.
func (s *Service) invalidate(ctx context.Context, kind model.EntityKind, action, id string, extra ...string) {
	var tags []string
	if e, err := s.registry.Lookup(kind); err == nil {
		tags = append(tags, e.Tags()...)
	}
	tags = append(tags, extra...)
	s.cache.Invalidate(ctx, tags...)
	s.publish(ctx, events.Event{Entity: string(kind), Action: action, ResourceID: id, Tags: tags})
}

// publish sends ev. The write it announces has already committed, so the
// caller going away does not cancel it, but it gives up after pubWait.
// Failures are logged, not returned.
func (s *Service) publish(ctx context.Context, ev events.Event) {
	ev.Timestamp = s.now().UTC()
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.pubWait)
	defer cancel()
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("event publish failed", "entity", ev.Entity, "action", ev.Action, "error", err)
	}
}

func (s *Service) knownTag(tag string) bool {
	if tag == TagReviews {
		return true
	}
	for _, k := range s.registry.Kinds() {
		e, err := s.registry.Lookup(k)
		if err != nil {
			continue
		}
		for _, t := range e.Tags() {
			if t == tag {
				return true
			}
		}
	}
	return false
}

// IsNotFound reports whether err means a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
