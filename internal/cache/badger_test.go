package cache

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"
)

func testBadger(t *testing.T) *BadgerStore {
	t.Helper()
	b, err := OpenBadger("", slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	t.Cleanup(func() { b.Close() })
	return b
}

func TestBadgerStore_GetSet(t *testing.T) {
	b := testBadger(t)
	ctx := context.Background()

	if _, ok, err := b.Get(ctx, "missing"); ok || err != nil {
		t.Fatalf("missing = %v, %v", ok, err)
	}
	if err := b.Set(ctx, "k", []byte("value"), time.Hour, []string{"movies"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, ok, err := b.Get(ctx, "k")
	if err != nil || !ok || string(v) != "value" {
		t.Errorf("get = %q, %v, %v", v, ok, err)
	}

	if err := b.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := b.Get(ctx, "k"); ok {
		t.Error("deleted key still present")
	}
}

func TestBadgerStore_InvalidateTag(t *testing.T) {
	b := testBadger(t)
	ctx := context.Background()

	for i := 0; i < 1200; i++ {
		b.Set(ctx, fmt.Sprintf("movies:%d", i), []byte("x"), time.Hour, []string{"movies"})
	}
	b.Set(ctx, "moviesx:1", []byte("y"), time.Hour, []string{"moviesx"})

	if err := b.InvalidateTag(ctx, "movies"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	for _, key := range []string{"movies:0", "movies:599", "movies:1199"} {
		if _, ok, _ := b.Get(ctx, key); ok {
			t.Errorf("%s survived invalidation", key)
		}
	}
	if _, ok, _ := b.Get(ctx, "moviesx:1"); !ok {
		t.Error("tag with shared prefix was invalidated")
	}
}

func TestBadgerStore_ServeInMemory(t *testing.T) {
	b := testBadger(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := b.Serve(ctx); err != context.Canceled {
		t.Errorf("serve = %v", err)
	}
}
