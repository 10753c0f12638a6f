package limiter

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/rohmanhakim/ghibli-proxy/pkg/timeutil"
)

// Pacer
// Specialized component to manage the pace of upstream requests
// Responsibilities:
// - Bookkeep the timestamp of the last upstream request
// - Compute the delay before the next request given base delay, jitter,
//   and the current failure streak
// - Make sure a flaky partner is not hammered with refresh attempts
type Pacer struct {
	mu    sync.Mutex
	rngMu sync.Mutex

	baseDelay     time.Duration
	jitter        time.Duration
	backoffParam  timeutil.BackoffParam
	lastRequest   time.Time
	failureStreak int

	rng *rand.Rand
	now func() time.Time
}

func NewPacer(
	baseDelay time.Duration,
	jitter time.Duration,
	backoffParam timeutil.BackoffParam,
) *Pacer {
	return &Pacer{
		baseDelay:    baseDelay,
		jitter:       jitter,
		backoffParam: backoffParam,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		now:          time.Now,
	}
}

func (p *Pacer) SetRandomSeed(randomSeed int64) {
	p.rngMu.Lock()
	defer p.rngMu.Unlock()

	p.rng = rand.New(rand.NewSource(randomSeed))
}

// SetClock replaces the time source. Tests use this to simulate the
// passage of time without sleeping.
func (p *Pacer) SetClock(now func() time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.now = now
}

// ResolveDelay returns how long the caller must still wait before the
// next upstream request is allowed. Returns 0 when no request has been
// made yet, or when enough time has already elapsed.
func (p *Pacer) ResolveDelay() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.lastRequest.IsZero() {
		return 0
	}

	required := p.baseDelay
	if p.failureStreak > 0 {
		backoff := timeutil.ExponentialBackoffDelay(
			p.failureStreak,
			0,
			*p.currentRNG(),
			p.backoffParam,
		)
		required = timeutil.MaxDuration(required, backoff)
	}
	required += p.jitterDelay()

	elapsed := p.now().Sub(p.lastRequest)
	remaining := required - elapsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Wait blocks until the next request is allowed, or until ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	delay := p.ResolveDelay()
	if delay == 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// MarkLastRequestAsNow records the current time as the most recent
// upstream request. Call it right before performing the request.
func (p *Pacer) MarkLastRequestAsNow() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.lastRequest = p.now()
}

// Backoff increments the failure streak, lengthening the delay before
// the next request.
func (p *Pacer) Backoff() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.failureStreak++
}

// ResetBackoff clears the failure streak after a successful request.
func (p *Pacer) ResetBackoff() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.failureStreak = 0
}

func (p *Pacer) jitterDelay() time.Duration {
	if p.jitter <= 0 {
		return 0
	}

	p.rngMu.Lock()
	defer p.rngMu.Unlock()

	return time.Duration(p.rng.Int63n(int64(p.jitter)))
}

func (p *Pacer) currentRNG() *rand.Rand {
	p.rngMu.Lock()
	defer p.rngMu.Unlock()

	return p.rng
}
