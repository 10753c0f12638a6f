package timeutil

import (
	"math"
	"math/rand"
	"time"
)

// DurationPtr is a helper function to create a pointer to a time.Duration
func DurationPtr(d time.Duration) *time.Duration {
	return &d
}

// MaxDuration returns the largest duration among the given values.
// Returns 0 for an empty slice.
func MaxDuration(durations ...time.Duration) time.Duration {
	var max time.Duration
	for _, d := range durations {
		if d > max {
			max = d
		}
	}
	return max
}

// ExponentialBackoffDelay computes the delay before the given attempt
// (1-based). The base delay grows as initialDuration * multiplier^(attempt-1),
// capped at maxDuration, with a random jitter in [0, jitter) added on top.
//
// The caller owns the RNG so that timing stays reproducible under a fixed
// seed.
func ExponentialBackoffDelay(
	attempt int,
	jitter time.Duration,
	rng rand.Rand,
	param BackoffParam,
) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	base := float64(param.InitialDuration()) * math.Pow(param.Multiplier(), float64(attempt-1))
	delay := time.Duration(base)
	if param.MaxDuration() > 0 && delay > param.MaxDuration() {
		delay = param.MaxDuration()
	}

	if jitter > 0 {
		delay += time.Duration(rng.Int63n(int64(jitter)))
	}

	return delay
}
