package cache

import (
	"context"
	"time"

	"github.com/rohmanhakim/ghibli-proxy/pkg/failure"
)

type requestOptions struct {
	bestEffort  bool
	ttlOverride time.Duration
}

type RequestOption func(*requestOptions)

// WithBestEffort controls stale fallback. Enabled by default: upstream
// failures are logged and swallowed when there are previous results to
// serve. Disable it to get either fresh data or an explicit failure,
// never silently stale data.
func WithBestEffort(enabled bool) RequestOption {
	return func(o *requestOptions) {
		o.bestEffort = enabled
	}
}

// WithTTLOverride judges staleness for this call against ttl instead of
// the store's default TTL.
func WithTTLOverride(ttl time.Duration) RequestOption {
	return func(o *requestOptions) {
		o.ttlOverride = ttl
	}
}

// RequestThroughCache serves op's results from its bound store,
// refreshing from upstream first when the store is missing or stale.
//
// A refresh fully drains op's sequence into a batch before committing
// anything, so a failure mid-drain leaves the store exactly as it was.
// When the drain fails with a partner-unavailable error and best-effort
// is on, previously cached results are served instead and the error is
// swallowed with a warning. Every other error propagates unchanged; in
// particular a cancelled drain never commits a partial batch.
//
// Note that two callers can observe NeedsUpdate simultaneously and both
// refresh; the last Update then owns the next staleness window. That
// duplicate-refresh race is accepted here rather than coordinated away.
// See the concurrency notes in the package tests before tightening it.
func RequestThroughCache[K comparable, V any](
	ctx context.Context,
	r *Registry,
	op *Operation[V],
	opts ...RequestOption,
) (map[K]V, error) {
	options := requestOptions{bestEffort: true}
	for _, opt := range opts {
		opt(&options)
	}

	b, err := bindingFor[K, V](r, op)
	if err != nil {
		return nil, err
	}

	if !b.store.NeedsUpdate(options.ttlOverride) {
		r.observe(op.Name(), OutcomeHit)
		return b.store.All(), nil
	}

	// Drain-then-commit: materialize the whole sequence before touching
	// the store. Fine for datasets this size; a paginated partner would
	// need a different strategy.
	batch := make(map[K]V)
	var drainErr error
	for item, itemErr := range op.Fetch(ctx) {
		if itemErr != nil {
			drainErr = itemErr
			break
		}
		batch[b.keyOf(item)] = item
	}

	if drainErr != nil {
		if options.bestEffort && failure.IsPartnerUnavailable(drainErr) && b.store.CanFallbackToStale() {
			r.logger.Warn().
				Err(drainErr).
				Str("operation", op.Name()).
				Msg("Partner unavailable. Serving stale cache.")
			r.observe(op.Name(), OutcomeStaleFallback)
			return b.store.All(), nil
		}

		// Either best-effort was explicitly disabled (stale results are
		// never wanted), or there has never been a successful refresh to
		// fall back on, or the error has nothing to do with the partner.
		// Reraising in the never-refreshed case is ultimately a product
		// decision, and opinions may differ on whether it is the best one.
		r.observe(op.Name(), OutcomeError)
		return nil, drainErr
	}

	b.store.Update(batch)
	r.observe(op.Name(), OutcomeRefreshed)
	return b.store.All(), nil
}
