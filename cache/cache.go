// Package cache is the client-side query cache: a keyed store with
// fetch-or-cached population, synchronous subscriber notification, and
// prefix invalidation. It is handed to collaborators as an explicit
// dependency; nothing in the module reaches for a package-level instance.
//
// Ownership rules match the rest of the client: components read, the fetch
// path and the submission gateway are the only writers, and invalidation is
// the only cross-component synchronization primitive.
package cache

import (
	"context"
	"sync"

	"github.com/reefcloud/reefctl/debugctx"
)

type Value = any

// Fetch loads the value for a key. The context is cancelled when the caller
// goes away or when a newer fetch for the same key supersedes this one.
type Fetch func(ctx context.Context) (Value, error)

// Subscriber is notified synchronously after a Set (ok=true) or an
// invalidation (ok=false) of its key.
type Subscriber func(value Value, ok bool)

type entry struct {
	value Value
}

type inflight struct {
	cancel context.CancelFunc
}

type subscription struct {
	key string
	fn  Subscriber
}

type Store struct {
	mu          sync.Mutex
	entries     map[string]entry
	inflight    map[string]*inflight
	subscribers map[int]subscription
	nextSubID   int
}

func NewStore() *Store {
	return &Store{
		entries:     make(map[string]entry),
		inflight:    make(map[string]*inflight),
		subscribers: make(map[int]subscription),
	}
}

// Get returns the cached value for key, if any.
func (s *Store) Get(key Key) (Value, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cached, ok := s.entries[key.Canonical()]
	return cached.value, ok
}

// Set stores a value and notifies the key's subscribers.
func (s *Store) Set(key Key, value Value) {
	canonical := key.Canonical()

	s.mu.Lock()
	s.entries[canonical] = entry{value: value}
	notify := s.subscribersFor(canonical)
	s.mu.Unlock()

	for _, fn := range notify {
		fn(value, true)
	}
}

// Invalidate drops the entry for key and notifies its subscribers. Any
// in-flight fetch for the key is cancelled so a stale response cannot land
// after the invalidation.
func (s *Store) Invalidate(key Key) {
	s.invalidateCanonical(key.Canonical())
}

// InvalidatePrefix drops every entry under prefix: the entry itself, its
// sub-resources, and filtered variants. Used when a mutation affects
// dependent lists, such as a slug rename.
func (s *Store) InvalidatePrefix(prefix Key) {
	target := prefix.Canonical()

	s.mu.Lock()
	var canonicals []string
	for canonical := range s.entries {
		if covers(target, canonical) {
			canonicals = append(canonicals, canonical)
		}
	}
	for canonical, flight := range s.inflight {
		if covers(target, canonical) {
			flight.cancel()
			delete(s.inflight, canonical)
			canonicals = append(canonicals, canonical)
		}
	}
	s.mu.Unlock()

	for _, canonical := range canonicals {
		s.invalidateCanonical(canonical)
	}
}

func (s *Store) invalidateCanonical(canonical string) {
	s.mu.Lock()
	if flight, ok := s.inflight[canonical]; ok {
		flight.cancel()
		delete(s.inflight, canonical)
	}
	_, existed := s.entries[canonical]
	delete(s.entries, canonical)
	notify := s.subscribersFor(canonical)
	s.mu.Unlock()

	if !existed {
		return
	}
	for _, fn := range notify {
		fn(nil, false)
	}
}

// Subscribe registers fn for the key and returns a cancel function. Delivery
// is synchronous with the Set or invalidation that triggered it.
func (s *Store) Subscribe(key Key, fn Subscriber) func() {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = subscription{key: key.Canonical(), fn: fn}
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// FetchOrCached returns the cached value for key, or runs fetch to populate
// it. A concurrent FetchOrCached for the same key supersedes an earlier
// in-flight fetch by cancelling its context; only the superseding fetch may
// write its result.
func (s *Store) FetchOrCached(ctx context.Context, key Key, fetch Fetch) (Value, error) {
	canonical := key.Canonical()

	s.mu.Lock()
	if cached, ok := s.entries[canonical]; ok {
		s.mu.Unlock()
		debugctx.Printf(ctx, debugctx.GroupCache, "hit %s", canonical)
		return cached.value, nil
	}

	if previous, ok := s.inflight[canonical]; ok {
		previous.cancel()
		debugctx.Printf(ctx, debugctx.GroupCache, "superseded in-flight fetch for %s", canonical)
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	token := &inflight{cancel: cancel}
	s.inflight[canonical] = token
	s.mu.Unlock()

	value, err := fetch(fetchCtx)

	s.mu.Lock()
	superseded := s.inflight[canonical] != token
	if !superseded {
		delete(s.inflight, canonical)
	}
	if err != nil || superseded {
		s.mu.Unlock()
		cancel()
		if err == nil {
			err = fetchCtx.Err()
		}
		return nil, err
	}
	s.entries[canonical] = entry{value: value}
	notify := s.subscribersFor(canonical)
	s.mu.Unlock()
	cancel()
	debugctx.Printf(ctx, debugctx.GroupCache, "populated %s", canonical)

	for _, fn := range notify {
		fn(value, true)
	}
	return value, nil
}

func (s *Store) subscribersFor(canonical string) []Subscriber {
	var matched []Subscriber
	for _, sub := range s.subscribers {
		if sub.key == canonical {
			matched = append(matched, sub.fn)
		}
	}
	return matched
}
