package cache

import (
	"maps"
	"sync"
	"time"
)

// Store is a dependable appendable cache. It assumes that cached items
// are never removed, though they may be updated. So you can update
// keys, and can insert new keys, but cannot remove keys.
//
// The no-removal assumption is deliberate: the upstream datasets here
// are additive (films don't get un-released, people don't vanish from
// them), and it sidesteps the harder problem of purging safely while
// still supporting stale fallback. If removal were ever needed, purges
// would have to be delayed until the next successful refresh.
//
// Staleness is judged on elapsed time only. The timestamps come from
// time.Now, which carries a monotonic clock reading, so wall-clock
// jumps and DST changes cannot confuse the TTL check.
type Store[K comparable, V any] struct {
	mu         sync.RWMutex
	defaultTTL time.Duration
	entries    map[K]V
	// zero until the first successful update
	lastUpdate time.Time
	callbacks  []Callback[K, V]
	now        func() time.Time
}

// NewStore creates an empty store with the given default TTL. The
// callbacks run synchronously, in the given order, after every
// successful update.
//
// We could have wrapped an existing TTL-cache library here, but the
// semantics we need are different: expiry must never evict (stale
// entries are our fallback inventory), and every mutation has to move
// the freshness timestamp in lockstep. Behaving like a cache matters
// more to us than behaving like a map.
func NewStore[K comparable, V any](defaultTTL time.Duration, callbacks ...Callback[K, V]) *Store[K, V] {
	return &Store[K, V]{
		defaultTTL: defaultTTL,
		entries:    make(map[K]V),
		callbacks:  callbacks,
		now:        time.Now,
	}
}

// SetClock replaces the time source. Tests use this to simulate the
// passage of time without sleeping.
func (s *Store[K, V]) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.now = now
}

// NeedsUpdate reports whether the cached data is missing or stale.
// Pass a positive ttlOverride to judge staleness against a different
// window than the default TTL; zero or negative means use the default.
func (s *Store[K, V]) NeedsUpdate(ttlOverride time.Duration) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.lastUpdate.IsZero() {
		return true
	}

	ttl := s.defaultTTL
	if ttlOverride > 0 {
		ttl = ttlOverride
	}

	return s.now().Sub(s.lastUpdate) >= ttl
}

// Update upserts every key of batch into the store, then advances the
// freshness timestamp, then runs the registered callbacks in order.
// The timestamp moves only once the whole batch is merged, so an
// interrupted caller never leaves the store looking fresher than it is.
// Callbacks run outside the store lock and may therefore read the store
// they receive.
func (s *Store[K, V]) Update(batch map[K]V) {
	s.mu.Lock()
	maps.Copy(s.entries, batch)
	s.lastUpdate = s.now()
	s.mu.Unlock()

	for _, callback := range s.callbacks {
		callback(s)
	}
}

// Get looks up a single key, with map comma-ok semantics.
func (s *Store[K, V]) Get(key K) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, exists := s.entries[key]
	return value, exists
}

// CanFallbackToStale reports whether there are results we could fall
// back on: true after the first successful update, regardless of how
// stale the data currently is.
func (s *Store[K, V]) CanFallbackToStale() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return !s.lastUpdate.IsZero()
}

// All returns a snapshot of the whole cache. The snapshot is the
// caller's to keep: mutating it never touches the store's own entries.
func (s *Store[K, V]) All() map[K]V {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return maps.Clone(s.entries)
}

// Len returns the number of cached entries.
func (s *Store[K, V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entries)
}
