// Package retrier implements bounded exponential backoff with jitter for
// venue requests.
package retrier

import (
	"context"
	"math/rand"
	"time"
)

// Retrier retries a call up to Attempts times, sleeping between attempts
// with exponential growth and a jitter fraction. The zero value is not
// usable; construct with New.
type Retrier struct {
	Attempts   int
	Delay      time.Duration
	MaxDelay   time.Duration
	Multiplier float64
	Jitter     float64
}

// New returns a Retrier with defaults suited to exchange REST endpoints.
func New() *Retrier {
	return &Retrier{
		Attempts:   4,
		Delay:      500 * time.Millisecond,
		MaxDelay:   10 * time.Second,
		Multiplier: 2,
		Jitter:     0.2,
	}
}

// Do runs fn until it succeeds, attempts run out, or ctx is cancelled.
// The last error is returned.
func (r *Retrier) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	delay := r.Delay

	var err error
	for attempt := 0; attempt < r.Attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(r.withJitter(delay)):
			}

			delay = time.Duration(float64(delay) * r.Multiplier)
			if delay > r.MaxDelay {
				delay = r.MaxDelay
			}
		}

		if err = fn(ctx); err == nil {
			return nil
		}
	}

	return err
}

// DoWithData is Do for calls returning a value.
func DoWithData[T any](ctx context.Context, r *Retrier, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := r.Do(ctx, func(ctx context.Context) error {
		var innerErr error
		out, innerErr = fn(ctx)
		return innerErr
	})
	return out, err
}

func (r *Retrier) withJitter(d time.Duration) time.Duration {
	if r.Jitter <= 0 {
		return d
	}
	offset := (rand.Float64()*2 - 1) * r.Jitter * float64(d)
	jittered := time.Duration(float64(d) + offset)
	if jittered < 0 {
		return 0
	}
	return jittered
}
