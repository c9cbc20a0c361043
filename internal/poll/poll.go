// Package poll provides bounded fixed-interval polling for slow, known-cost
// cluster operations (cluster boot, image load, controller start).
//
// The interval is fixed rather than exponential: every wait here is against an
// operation with a predictable completion window, not a congested resource.
// The total wall-clock bound is always interval times max attempts.
package poll

import (
	"context"
	"fmt"
	"time"
)

// Config holds the polling parameters.
type Config struct {
	Interval    time.Duration
	MaxAttempts int

	// After is the timer source, replaceable in tests so attempts can be
	// counted without real delays.
	After func(time.Duration) <-chan time.Time
}

// Option is a functional option for polling configuration.
type Option func(*Config)

// WithInterval sets the delay between attempts.
func WithInterval(d time.Duration) Option {
	return func(c *Config) {
		c.Interval = d
	}
}

// WithMaxAttempts sets the attempt budget.
func WithMaxAttempts(n int) Option {
	return func(c *Config) {
		c.MaxAttempts = n
	}
}

// WithAfter replaces the timer source.
func WithAfter(after func(time.Duration) <-chan time.Time) Option {
	return func(c *Config) {
		c.After = after
	}
}

// TimeoutError reports an exhausted attempt budget. It carries the last
// observation so callers can surface the state the condition stalled in.
type TimeoutError struct {
	Desc         string
	Attempts     int
	LastObserved string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out waiting for %s after %d attempts (last observed: %q)", e.Desc, e.Attempts, e.LastObserved)
}

// Await polls observe until predicate accepts an observation.
//
// On each attempt the observation is taken and the predicate evaluated; a true
// result returns the observation immediately with no further waiting. An error
// from observe itself is a hard failure and propagates at once rather than
// consuming another attempt. When the budget is exhausted Await returns a
// *TimeoutError carrying the last observation.
func Await(ctx context.Context, desc string, observe func(context.Context) (string, error), predicate func(string) bool, opts ...Option) (string, error) {
	cfg := &Config{
		Interval:    5 * time.Second,
		MaxAttempts: 12,
		After:       time.After,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	var last string
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		obs, err := observe(ctx)
		if err != nil {
			return "", fmt.Errorf("observing %s: %w", desc, err)
		}
		if predicate(obs) {
			return obs, nil
		}
		last = obs

		if attempt < cfg.MaxAttempts {
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("waiting for %s: %w", desc, ctx.Err())
			case <-cfg.After(cfg.Interval):
			}
		}
	}

	return "", &TimeoutError{Desc: desc, Attempts: cfg.MaxAttempts, LastObserved: last}
}
