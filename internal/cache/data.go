package cache

import (
	"context"
	"iter"
)

// FetchFunc produces a lazy, finite, non-restartable sequence of items.
// The sequence performs no work until it is ranged over, and each call
// produces a fresh sequence. A partner failure surfaces as a non-nil
// error element, after which the sequence stops.
type FetchFunc[V any] func(ctx context.Context) iter.Seq2[V, error]

// KeyFunc derives the cache key for an item.
type KeyFunc[K comparable, V any] func(item V) K

// Callback observes a store right after a successful update.
type Callback[K comparable, V any] func(store *Store[K, V])

// Operation is the handle for a data-producing fetch routine. An
// Operation stays directly callable through Fetch, so the underlying
// request logic can be exercised in isolation, without any cache in
// the way. Passing it through the orchestrator additionally requires a
// Bind call on a Registry.
type Operation[V any] struct {
	name  string
	fetch FetchFunc[V]
}

func NewOperation[V any](name string, fetch FetchFunc[V]) *Operation[V] {
	return &Operation[V]{
		name:  name,
		fetch: fetch,
	}
}

func (o *Operation[V]) Name() string {
	return o.name
}

// Fetch invokes the underlying fetch routine directly, bypassing any
// cache. Use RequestThroughCache for cached access.
func (o *Operation[V]) Fetch(ctx context.Context) iter.Seq2[V, error] {
	return o.fetch(ctx)
}

// RefreshOutcome describes how a RequestThroughCache call was served.
type RefreshOutcome string

const (
	OutcomeHit           RefreshOutcome = "hit"
	OutcomeRefreshed     RefreshOutcome = "refreshed"
	OutcomeStaleFallback RefreshOutcome = "stale_fallback"
	OutcomeError         RefreshOutcome = "error"
)

// RefreshObserver receives the outcome of each orchestrated request.
//
// This hook is observational only and MUST NOT be used to derive
// control-flow decisions.
type RefreshObserver func(operation string, outcome RefreshOutcome)
