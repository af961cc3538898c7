// Package poll repeats a check at an interval until it succeeds or a time
// budget runs out.
package poll

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var ErrTimeout = errors.New("poll timed out")

// Clock abstracts time so polling can be tested without sleeping.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

// RealClock uses the wall clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

func (RealClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// FakeClock advances only when Sleep is called.
type FakeClock struct {
	mu     sync.Mutex
	now    time.Time
	slept  []time.Duration
	OnTick func(now time.Time)
}

func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.slept = append(c.slept, d)
	now, tick := c.now, c.OnTick
	c.mu.Unlock()
	if tick != nil {
		tick(now)
	}
	return nil
}

// Slept returns every duration passed to Sleep.
func (c *FakeClock) Slept() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.slept...)
}

// Policy controls how Until waits.
type Policy struct {
	Interval    time.Duration
	Timeout     time.Duration
	Multiplier  float64       // interval growth per attempt, values <= 1 keep it fixed
	MaxInterval time.Duration // cap for the grown interval, zero means no cap
}

// Fixed returns a policy with a constant interval.
func Fixed(interval, timeout time.Duration) Policy {
	return Policy{Interval: interval, Timeout: timeout}
}

// Until sleeps one interval, then calls check, until check reports done or
// the timeout elapses. Errors from check do not stop the loop; the last one
// is wrapped into the ErrTimeout result.
func Until(ctx context.Context, clock Clock, p Policy, check func(ctx context.Context) (bool, error)) error {
	if clock == nil {
		clock = RealClock{}
	}
	deadline := clock.Now().Add(p.Timeout)
	interval := p.Interval
	var lastErr error

	for clock.Now().Before(deadline) {
		if err := clock.Sleep(ctx, interval); err != nil {
			return err
		}

		done, err := check(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			lastErr = err
		} else if done {
			return nil
		}

		interval = p.next(interval)
	}

	if lastErr != nil {
		return fmt.Errorf("%w after %s: %w", ErrTimeout, p.Timeout, lastErr)
	}
	return fmt.Errorf("%w after %s", ErrTimeout, p.Timeout)
}

func (p Policy) next(cur time.Duration) time.Duration {
	if p.Multiplier <= 1 {
		return cur
	}
	grown := time.Duration(float64(cur) * p.Multiplier)
	if p.MaxInterval > 0 && grown > p.MaxInterval {
		return p.MaxInterval
	}
	return grown
}
