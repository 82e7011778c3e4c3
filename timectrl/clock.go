package timectrl

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Mode describes how a Clock advances simulated time.
type Mode int

const (
	// RealTime advances one Tick per Tick of wall-clock time.
	RealTime Mode = iota
	// Accelerated advances as quickly as listeners return.
	Accelerated
)

// Clock drives simulated time forward in fixed ticks and notifies
// registered listeners after each step. It is used to replay recorded
// tracks as if the fixes were arriving live.
type Clock struct {
	mu   sync.RWMutex
	tick time.Duration
	mode Mode
	now  time.Time

	listeners []func(time.Time)
}

// NewClock constructs a clock positioned at start.
func NewClock(start time.Time, tick time.Duration, mode Mode) *Clock {
	return &Clock{tick: tick, mode: mode, now: start}
}

// Now returns the current simulated time.
func (c *Clock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

// SetTime moves the clock without notifying listeners.
func (c *Clock) SetTime(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// AddListener registers a callback invoked on every tick.
func (c *Clock) AddListener(fn func(time.Time)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// Run ticks until the simulated time reaches until, calling listeners with
// the new time after each step. The final step lands exactly on until.
// It returns ctx.Err() if ctx ends first.
func (c *Clock) Run(ctx context.Context, until time.Time) error {
	if c.tick <= 0 {
		return errors.New("clock tick must be positive")
	}

	var ticks <-chan time.Time
	if c.mode == RealTime {
		ticker := time.NewTicker(c.tick)
		defer ticker.Stop()
		ticks = ticker.C
	}

	for {
		c.mu.RLock()
		now := c.now
		listeners := append([]func(time.Time){}, c.listeners...)
		c.mu.RUnlock()

		if !now.Before(until) {
			return nil
		}
		if ticks != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticks:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}

		next := now.Add(c.tick)
		if next.After(until) {
			next = until
		}
		c.SetTime(next)
		for _, fn := range listeners {
			fn(next)
		}
	}
}
