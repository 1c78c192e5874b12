package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func serviceKey(project, name string) Key {
	return Key{Kind: "service", Identity: []string{project, name}}
}

func TestKeyCanonicalForm(t *testing.T) {
	t.Parallel()

	key := Key{
		Kind:     "service",
		Identity: []string{"acme", "web"},
		Sub:      "changes",
		Filters:  map[string]string{"status": "pending", "field": "source"},
	}
	want := "service/acme/web/changes?field=source&status=pending"
	if key.Canonical() != want {
		t.Fatalf("canonical form mismatch: %q", key.Canonical())
	}

	reordered := Key{
		Kind:     "service",
		Identity: []string{"acme", "web"},
		Sub:      "changes",
		Filters:  map[string]string{"field": "source", "status": "pending"},
	}
	if reordered.Canonical() != want {
		t.Fatalf("filter order must not affect the canonical form")
	}
}

func TestFetchOrCachedPopulatesOnce(t *testing.T) {
	t.Parallel()

	store := NewStore()
	calls := 0
	fetch := func(ctx context.Context) (Value, error) {
		calls++
		return "snapshot", nil
	}

	value, err := store.FetchOrCached(context.Background(), serviceKey("acme", "web"), fetch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value != "snapshot" {
		t.Fatalf("unexpected value: %#v", value)
	}

	value, err = store.FetchOrCached(context.Background(), serviceKey("acme", "web"), fetch)
	if err != nil || value != "snapshot" {
		t.Fatalf("cached read failed: %#v, %v", value, err)
	}
	if calls != 1 {
		t.Fatalf("fetch must run once, ran %d times", calls)
	}
}

func TestFetchOrCachedErrorIsNotCached(t *testing.T) {
	t.Parallel()

	store := NewStore()
	boom := errors.New("backend down")
	calls := 0

	_, err := store.FetchOrCached(context.Background(), serviceKey("acme", "web"), func(ctx context.Context) (Value, error) {
		calls++
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fetch error, got %v", err)
	}

	value, err := store.FetchOrCached(context.Background(), serviceKey("acme", "web"), func(ctx context.Context) (Value, error) {
		calls++
		return "snapshot", nil
	})
	if err != nil || value != "snapshot" {
		t.Fatalf("retry after failure must refetch: %#v, %v", value, err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 fetches, got %d", calls)
	}
}

func TestFetchSupersededByNewerFetch(t *testing.T) {
	t.Parallel()

	store := NewStore()
	key := serviceKey("acme", "web")

	firstStarted := make(chan struct{})
	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)

	var firstErr error
	go func() {
		defer wg.Done()
		_, firstErr = store.FetchOrCached(context.Background(), key, func(ctx context.Context) (Value, error) {
			close(firstStarted)
			<-release
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return "stale", nil
		})
	}()

	<-firstStarted
	value, err := store.FetchOrCached(context.Background(), key, func(ctx context.Context) (Value, error) {
		return "fresh", nil
	})
	close(release)
	wg.Wait()

	if err != nil || value != "fresh" {
		t.Fatalf("superseding fetch must win: %#v, %v", value, err)
	}
	if firstErr == nil {
		t.Fatalf("superseded fetch must report an error")
	}

	cached, ok := store.Get(key)
	if !ok || cached != "fresh" {
		t.Fatalf("stale response must not land in the cache, got %#v", cached)
	}
}

func TestSubscribeDeliversSetAndInvalidate(t *testing.T) {
	t.Parallel()

	store := NewStore()
	key := serviceKey("acme", "web")

	type event struct {
		value Value
		ok    bool
	}
	var events []event
	cancel := store.Subscribe(key, func(value Value, ok bool) {
		events = append(events, event{value: value, ok: ok})
	})

	store.Set(key, "snapshot")
	store.Invalidate(key)
	cancel()
	store.Set(key, "after-cancel")

	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].value != "snapshot" || !events[0].ok {
		t.Fatalf("unexpected set event: %#v", events[0])
	}
	if events[1].ok {
		t.Fatalf("invalidation must deliver ok=false")
	}
}

func TestInvalidateWithoutEntryIsQuiet(t *testing.T) {
	t.Parallel()

	store := NewStore()
	key := serviceKey("acme", "web")

	notified := false
	defer store.Subscribe(key, func(Value, bool) { notified = true })()

	store.Invalidate(key)
	if notified {
		t.Fatalf("invalidating an absent entry must not notify")
	}
}

func TestInvalidatePrefixCoversSubResourcesNotSiblings(t *testing.T) {
	t.Parallel()

	store := NewStore()
	service := serviceKey("acme", "web")
	changes := Key{Kind: "service", Identity: []string{"acme", "web"}, Sub: "changes"}
	filtered := Key{Kind: "service", Identity: []string{"acme", "web"}, Filters: map[string]string{"view": "full"}}
	sibling := serviceKey("acme", "web-two")

	store.Set(service, "snapshot")
	store.Set(changes, "changes")
	store.Set(filtered, "filtered")
	store.Set(sibling, "other")

	store.InvalidatePrefix(service)

	for _, key := range []Key{service, changes, filtered} {
		if _, ok := store.Get(key); ok {
			t.Fatalf("expected %s to be invalidated", key)
		}
	}
	if _, ok := store.Get(sibling); !ok {
		t.Fatalf("prefix invalidation must not touch sibling slugs")
	}
}
