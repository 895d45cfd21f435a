package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/me/cinedex/internal/cache"
	"github.com/me/cinedex/internal/events"
	"github.com/me/cinedex/internal/store"
	"github.com/me/cinedex/pkg/model"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) last() events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.events[len(p.events)-1]
}

func testService(t *testing.T) (*Service, *recordingPublisher) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st, err := store.NewSQLiteStore(":memory:", logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	pub := &recordingPublisher{}
	svc := New(st, Options{
		Cache:     cache.NewLayer(cache.NewMemoryStore(time.Minute), time.Hour, logger),
		Publisher: pub,
	}, logger)
	return svc, pub
}

func seedMovies(t *testing.T, svc *Service, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		m := &model.Movie{Title: fmt.Sprintf("Movie %02d", i), ReleaseYear: 1990 + i}
		if err := svc.Save(context.Background(), m); err != nil {
			t.Fatalf("save movie %d: %v", i, err)
		}
	}
}

func TestList_SecondPageOfTwentyFive(t *testing.T) {
	svc, _ := testService(t)
	seedMovies(t, svc, 25)

	page, err := svc.List(context.Background(), model.KindMovies, url.Values{
		"page": {"2"}, "moviesSortBy": {"none"},
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	items := page.Items.([]*model.Movie)
	if len(items) != 10 || page.TotalCount != 25 || page.PageCount != 3 {
		t.Fatalf("len=%d total=%d pages=%d", len(items), page.TotalCount, page.PageCount)
	}
	if items[0].Title != "Movie 11" || items[9].Title != "Movie 20" {
		t.Errorf("page spans %q..%q", items[0].Title, items[9].Title)
	}
}

func TestList_PastLastPage(t *testing.T) {
	svc, _ := testService(t)
	seedMovies(t, svc, 5)

	page, err := svc.List(context.Background(), model.KindMovies, url.Values{"page": {"9"}})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Len != 0 || page.TotalCount != 5 || page.Page != 9 {
		t.Errorf("len=%d total=%d page=%d", page.Len, page.TotalCount, page.Page)
	}
}

func TestList_ActorsByFullnameDesc(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()
	for _, name := range []string{"Ann", "Zoe", "Bob", "Max", "Eve", "Kim", "Lea"} {
		if err := svc.Save(ctx, &model.Actor{Fullname: name}); err != nil {
			t.Fatal(err)
		}
	}

	page, err := svc.List(ctx, model.KindActors, url.Values{
		"actorsSortBy": {"fullname"}, "actorsAscOrDesc": {"desc"}, "pageSize": {"5"},
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var names []string
	for _, a := range page.Items.([]*model.Actor) {
		names = append(names, a.Fullname)
	}
	if fmt.Sprint(names) != "[Zoe Max Lea Kim Eve]" {
		t.Errorf("names = %v", names)
	}
}

func TestList_UnsupportedEntity(t *testing.T) {
	svc, _ := testService(t)
	_, err := svc.List(context.Background(), "nonexistent", url.Values{})
	var unsupported *model.UnsupportedEntityError
	if !errors.As(err, &unsupported) {
		t.Fatalf("err = %v, want UnsupportedEntityError", err)
	}
}

func TestList_BadPageIsFirstPage(t *testing.T) {
	svc, _ := testService(t)
	seedMovies(t, svc, 3)
	ctx := context.Background()

	for _, p := range []string{"0", "-4", "abc", ""} {
		page, err := svc.List(ctx, model.KindMovies, url.Values{"page": {p}})
		if err != nil {
			t.Fatalf("page %q: %v", p, err)
		}
		if page.Page != 1 || page.Len != 3 {
			t.Errorf("page %q: page=%d len=%d", p, page.Page, page.Len)
		}
	}
}

func TestWriteInvalidatesCachedList(t *testing.T) {
	svc, pub := testService(t)
	ctx := context.Background()
	seedMovies(t, svc, 2)

	first, _ := svc.List(ctx, model.KindMovies, url.Values{})
	if first.TotalCount != 2 {
		t.Fatalf("total = %d", first.TotalCount)
	}
	// Served from cache.
	svc.List(ctx, model.KindMovies, url.Values{})
	if svc.CacheStats().Hits == 0 {
		t.Error("second read was not a cache hit")
	}

	m := &model.Movie{Title: "Movie 03"}
	if err := svc.Save(ctx, m); err != nil {
		t.Fatal(err)
	}
	after, _ := svc.List(ctx, model.KindMovies, url.Values{})
	if after.TotalCount != 3 {
		t.Errorf("read after write returned stale total %d", after.TotalCount)
	}

	ev := pub.last()
	if ev.Entity != "movies" || ev.Action != events.ActionCreated || ev.ResourceID != m.ID {
		t.Errorf("event = %+v", ev)
	}
}

func TestSave_CreateAndUpdate(t *testing.T) {
	svc, pub := testService(t)
	ctx := context.Background()

	g := &model.Genre{Name: "drama"}
	if err := svc.Save(ctx, g); err != nil {
		t.Fatal(err)
	}
	if len(g.ID) < 5 || g.ID[:4] != "gen_" {
		t.Errorf("id = %q", g.ID)
	}
	created := g.CreatedAt

	svc.now = func() time.Time { return created.Add(time.Hour) }
	upd := &model.Genre{Meta: model.Meta{ID: g.ID}, Name: "Drama"}
	if err := svc.Save(ctx, upd); err != nil {
		t.Fatal(err)
	}
	if !upd.CreatedAt.Equal(created) {
		t.Errorf("created_at = %v, want %v", upd.CreatedAt, created)
	}
	if pub.last().Action != events.ActionUpdated {
		t.Errorf("action = %s", pub.last().Action)
	}

	rec, err := svc.Get(ctx, model.KindGenres, g.ID)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Label() != "Drama" {
		t.Errorf("label = %q", rec.Label())
	}
}

func TestSave_ValidationError(t *testing.T) {
	svc, pub := testService(t)
	err := svc.Save(context.Background(), &model.Movie{Rating: 12})
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrValidation {
		t.Fatalf("err = %v", err)
	}
	if len(pub.events) != 0 {
		t.Error("invalid write published an event")
	}
}

func TestSave_PublishFailureDoesNotFailWrite(t *testing.T) {
	svc, pub := testService(t)
	pub.err = errors.New("broker down")
	if err := svc.Save(context.Background(), &model.Genre{Name: "noir"}); err != nil {
		t.Errorf("save = %v", err)
	}
}

func TestGetAndDelete(t *testing.T) {
	svc, pub := testService(t)
	ctx := context.Background()

	if _, err := svc.Get(ctx, model.KindMovies, "missing"); !IsNotFound(err) {
		t.Errorf("get missing = %v", err)
	}

	m := &model.Movie{Title: "Heat"}
	svc.Save(ctx, m)
	if err := svc.Delete(ctx, model.KindMovies, m.ID); err != nil {
		t.Fatal(err)
	}
	ev := pub.last()
	if ev.Action != events.ActionDeleted || len(ev.Tags) != 2 || ev.Tags[1] != TagReviews {
		t.Errorf("event = %+v", ev)
	}
	if err := svc.Delete(ctx, model.KindMovies, m.ID); !IsNotFound(err) {
		t.Errorf("second delete = %v", err)
	}
}

func TestHandleEvent(t *testing.T) {
	svc, pub := testService(t)
	ctx := context.Background()
	seedMovies(t, svc, 1)
	published := len(pub.events)

	svc.List(ctx, model.KindMovies, url.Values{})
	svc.List(ctx, model.KindMovies, url.Values{})
	hits := svc.CacheStats().Hits

	if err := svc.HandleEvent(ctx, events.Event{Entity: "movie", Action: "updated"}); err != nil {
		t.Fatal(err)
	}
	svc.List(ctx, model.KindMovies, url.Values{})
	if svc.CacheStats().Hits != hits {
		t.Error("remote event did not invalidate movies")
	}
	if len(pub.events) != published {
		t.Error("remote event was republished")
	}

	if err := svc.HandleEvent(ctx, events.Event{Entity: "studios"}); err == nil {
		t.Error("unknown entity accepted")
	}
	if err := svc.HandleEvent(ctx, events.Event{Entity: "x", Tags: []string{"bogus"}}); err == nil {
		t.Error("unknown tag accepted")
	}
}

func TestInvalidateTag(t *testing.T) {
	svc, pub := testService(t)
	ctx := context.Background()
	if err := svc.InvalidateTag(ctx, "series"); err != nil {
		t.Fatal(err)
	}
	if pub.last().Tags[0] != "series" {
		t.Errorf("event = %+v", pub.last())
	}
	var apiErr *model.APIError
	if err := svc.InvalidateTag(ctx, "nope"); !errors.As(err, &apiErr) {
		t.Errorf("err = %v", err)
	}
}

func TestUserPasswordPreservedOnUpdate(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	u := &model.User{UserName: "alice", Role: model.RoleUser}
	if err := SetPassword(u, "correct horse"); err != nil {
		t.Fatal(err)
	}
	svc.Save(ctx, u)

	upd := &model.User{Meta: model.Meta{ID: u.ID}, UserName: "alice", Email: "alice@example.com", Role: model.RoleUser}
	if err := svc.Save(ctx, upd); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Authenticate(ctx, "alice", "correct horse"); err != nil {
		t.Errorf("authenticate after update: %v", err)
	}
}

func TestList_HugePageIsPastTheEnd(t *testing.T) {
	svc, _ := testService(t)
	seedMovies(t, svc, 5)

	page, err := svc.List(context.Background(), model.KindMovies,
		url.Values{"page": {"92233720368547760"}, "pageSize": {"100"}})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Len != 0 || page.TotalCount != 5 || page.Page < 1 {
		t.Errorf("len=%d total=%d page=%d", page.Len, page.TotalCount, page.Page)
	}
}

func TestSave_DuplicateUserName(t *testing.T) {
	svc, pub := testService(t)
	ctx := context.Background()

	if err := svc.Save(ctx, &model.User{UserName: "alice", Role: model.RoleUser}); err != nil {
		t.Fatal(err)
	}
	published := len(pub.events)

	err := svc.Save(ctx, &model.User{UserName: "alice", Role: model.RoleAdmin})
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrValidation {
		t.Fatalf("err = %v, want VALIDATION_ERROR", err)
	}
	if len(pub.events) != published {
		t.Error("rejected write published an event")
	}
}

// stalledPublisher blocks until the publish context ends.
type stalledPublisher struct {
	err chan error
}

func (p *stalledPublisher) Publish(ctx context.Context, _ events.Event) error {
	<-ctx.Done()
	p.err <- ctx.Err()
	return ctx.Err()
}

func (p *stalledPublisher) Close() error { return nil }

func TestSave_UnreachableBrokerDoesNotStallWrite(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st, err := store.NewSQLiteStore(":memory:", logger)
	if err != nil {
		t.Fatal(err)
	}
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })

	pub := &stalledPublisher{err: make(chan error, 1)}
	svc := New(st, Options{Publisher: pub, PublishTimeout: 20 * time.Millisecond}, logger)

	start := time.Now()
	if err := svc.Save(context.Background(), &model.Genre{Name: "noir"}); err != nil {
		t.Fatalf("save = %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("save took %v with a stalled publisher", elapsed)
	}
	if err := <-pub.err; !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("publish ctx err = %v, want deadline exceeded", err)
	}
}
