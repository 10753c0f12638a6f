package cache_test

import (
	"context"
	"iter"
	"sync/atomic"
	"time"

	"github.com/rohmanhakim/ghibli-proxy/internal/cache"
	"github.com/rohmanhakim/ghibli-proxy/pkg/failure"
)

type mockItem struct {
	Key   string
	Value int
}

func mockKey(item mockItem) string {
	return item.Key
}

// partnerError stands in for an upstream partner failure.
type partnerError struct{}

func (e *partnerError) Error() string { return "partner says no" }

func (e *partnerError) Severity() failure.Severity { return failure.SeverityRecoverable }

func (e *partnerError) PartnerUnavailable() bool { return true }

// plainError is a non-partner failure, e.g. a programming error inside
// the fetch routine. It must never get stale-fallback treatment.
type plainError struct{}

func (e *plainError) Error() string { return "bug, not partner" }

func (e *plainError) Severity() failure.Severity { return failure.SeverityFatal }

// fetchCounter counts how many times a fetch sequence was started, so
// tests can tell cache hits from refreshes.
type fetchCounter struct {
	calls atomic.Int32
}

func (c *fetchCounter) Count() int32 { return c.calls.Load() }

func (c *fetchCounter) Reset() { c.calls.Store(0) }

// yielding returns a FetchFunc that emits the given items.
func (c *fetchCounter) yielding(items ...mockItem) cache.FetchFunc[mockItem] {
	return func(_ context.Context) iter.Seq2[mockItem, error] {
		return func(yield func(mockItem, error) bool) {
			c.calls.Add(1)
			for _, item := range items {
				if !yield(item, nil) {
					return
				}
			}
		}
	}
}

// failing returns a FetchFunc that yields some items and then fails.
func (c *fetchCounter) failing(err error, items ...mockItem) cache.FetchFunc[mockItem] {
	return func(_ context.Context) iter.Seq2[mockItem, error] {
		return func(yield func(mockItem, error) bool) {
			c.calls.Add(1)
			for _, item := range items {
				if !yield(item, nil) {
					return
				}
			}
			yield(mockItem{}, err)
		}
	}
}

// fakeClock is a settable time source for simulated-TTL tests.
type fakeClock struct {
	current time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{current: time.Now()}
}

func (c *fakeClock) Now() time.Time { return c.current }

func (c *fakeClock) Tick(d time.Duration) { c.current = c.current.Add(d) }
