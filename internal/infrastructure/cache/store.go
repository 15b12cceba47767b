package cache

import "time"

// entry pairs a cached value with the instant it stops being servable.
// Entries are replaced, never modified.
type entry[V any] struct {
	value     V
	expiresAt time.Time
}

func (e entry[V]) validAt(now time.Time) bool {
	return now.Before(e.expiresAt)
}

type lookupResult int

const (
	lookupAbsent lookupResult = iota
	lookupFresh
	lookupExpired
)

// store is one mapping of the cache. It is not safe for concurrent use;
// CachingRateSource serialises access.
type store[V any] struct {
	items map[string]entry[V]
}

func newStore[V any]() *store[V] {
	return &store[V]{items: make(map[string]entry[V])}
}

// get returns the value for key if it is still valid at now. An expired
// entry is evicted on the spot.
func (s *store[V]) get(key string, now time.Time) (V, lookupResult) {
	var zero V

	e, ok := s.items[key]
	if !ok {
		return zero, lookupAbsent
	}
	if !e.validAt(now) {
		delete(s.items, key)
		return zero, lookupExpired
	}
	return e.value, lookupFresh
}

func (s *store[V]) put(key string, value V, expiresAt time.Time) {
	s.items[key] = entry[V]{value: value, expiresAt: expiresAt}
}

func (s *store[V]) remove(key string) {
	delete(s.items, key)
}

func (s *store[V]) clear() {
	s.items = make(map[string]entry[V])
}

func (s *store[V]) size() int {
	return len(s.items)
}
