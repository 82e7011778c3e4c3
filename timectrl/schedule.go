// Package timectrl produces the timestamps at which a simulated receiver
// reports fixes. Real receivers are irregular: fixes arrive late or early,
// some are lost, and some are reported twice with the same time.
package timectrl

import (
	"errors"
	"math/rand/v2"
	"time"
)

// Schedule describes a sequence of fix instants.
type Schedule struct {
	Start time.Time
	Step  time.Duration
	// Count is the number of nominal slots, before drops.
	Count int

	// Jitter is the maximum offset applied to each nominal instant. It is
	// capped just below Step/2 so that jitter alone never reorders fixes.
	Jitter time.Duration
	// DuplicateEvery makes every Nth slot repeat the previous instant.
	DuplicateEvery int
	// DropEvery removes every Nth slot.
	DropEvery int

	// Seed makes jitter reproducible.
	Seed uint64
}

// Validate checks that the schedule can produce instants.
func (s Schedule) Validate() error {
	if s.Step <= 0 {
		return errors.New("schedule step must be positive")
	}
	if s.Count < 0 {
		return errors.New("schedule count must not be negative")
	}
	if s.Jitter < 0 || s.DuplicateEvery < 0 || s.DropEvery < 0 {
		return errors.New("schedule jitter and intervals must not be negative")
	}
	return nil
}

// Instants returns the fix times in non-decreasing order.
func (s Schedule) Instants() []time.Time {
	if s.Validate() != nil {
		return nil
	}
	rng := rand.New(rand.NewPCG(s.Seed, s.Seed^0x9e3779b97f4a7c15))

	jitter := s.Jitter
	if limit := s.Step/2 - 1; jitter > limit {
		jitter = limit
	}

	out := make([]time.Time, 0, s.Count)
	for i := 0; i < s.Count; i++ {
		if s.DropEvery > 0 && i > 0 && i%s.DropEvery == 0 {
			continue
		}
		at := s.Start.Add(time.Duration(i) * s.Step)
		if jitter > 0 {
			at = at.Add(time.Duration(rng.Int64N(int64(2*jitter)+1)) - jitter)
		}
		if n := len(out); n > 0 {
			if s.DuplicateEvery > 0 && i%s.DuplicateEvery == 0 {
				at = out[n-1]
			}
			if at.Before(out[n-1]) {
				at = out[n-1]
			}
		}
		out = append(out, at)
	}
	return out
}
