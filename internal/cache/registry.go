package cache

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Registry associates fetch operations with their cache store, key
// derivation function, and callbacks.
//
// We could have attached the store to the operation itself and cached
// transparently, but that makes it really difficult to test the
// low-level fetch routines (you would need to peel the cache away for
// those tests), and it makes forced refreshes awkward. An explicit
// registry keeps the operations independently callable: explicit cache
// use is better than implicit.
type Registry struct {
	mu       sync.RWMutex
	bindings map[any]any
	logger   zerolog.Logger
	observer RefreshObserver
}

func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		bindings: make(map[any]any),
		logger:   logger.With().Str("component", "cache").Logger(),
	}
}

// SetRefreshObserver installs the outcome hook. Wiring-time only; not
// safe to call once requests are flowing.
func (r *Registry) SetRefreshObserver(observer RefreshObserver) {
	r.observer = observer
}

func (r *Registry) observe(operation string, outcome RefreshOutcome) {
	if r.observer != nil {
		r.observer(operation, outcome)
	}
}

// binding is the {store, key selector} pair registered for one
// operation. Callbacks live on the store itself.
type binding[K comparable, V any] struct {
	store *Store[K, V]
	keyOf KeyFunc[K, V]
}

// Bind attaches a freshly constructed store, the key selector, and the
// callbacks to op. The returned store is the same one later calls will
// resolve; tests use it to seed or inspect cache state directly.
//
// Binding registers metadata only: it neither invokes op nor caches
// anything, and op remains directly callable via op.Fetch.
func Bind[K comparable, V any](
	r *Registry,
	op *Operation[V],
	defaultTTL time.Duration,
	keyOf KeyFunc[K, V],
	callbacks ...Callback[K, V],
) (*Store[K, V], error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bindings[op]; exists {
		return nil, &AlreadyBoundError{Operation: op.Name()}
	}

	store := NewStore[K, V](defaultTTL, callbacks...)
	r.bindings[op] = &binding[K, V]{
		store: store,
		keyOf: keyOf,
	}
	return store, nil
}

// StoreFor resolves the store bound to op, for introspection and
// testing. Fails with NotCacheableError if op was never bound.
func StoreFor[K comparable, V any](r *Registry, op *Operation[V]) (*Store[K, V], error) {
	b, err := bindingFor[K, V](r, op)
	if err != nil {
		return nil, err
	}
	return b.store, nil
}

func bindingFor[K comparable, V any](r *Registry, op *Operation[V]) (*binding[K, V], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.bindings[op]
	if !exists {
		return nil, &NotCacheableError{Operation: op.Name()}
	}

	// A mismatched assertion means the caller bound the operation with
	// different type parameters than it is resolving with. That is the
	// same programming error as not binding at all.
	b, ok := entry.(*binding[K, V])
	if !ok {
		return nil, &NotCacheableError{Operation: op.Name()}
	}
	return b, nil
}
