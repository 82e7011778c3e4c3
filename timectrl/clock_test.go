package timectrl

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestClockSetTime(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	c := NewClock(start, time.Second, Accelerated)

	newNow := start.Add(42 * time.Second)
	c.SetTime(newNow)

	if got := c.Now(); !got.Equal(newNow) {
		t.Fatalf("Now() = %v, want %v", got, newNow)
	}
}

func TestClockRunAcceleratedLandsOnUntil(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	c := NewClock(start, 4*time.Second, Accelerated)

	var seen []time.Time
	c.AddListener(func(at time.Time) { seen = append(seen, at) })

	until := start.Add(10 * time.Second)
	if err := c.Run(context.Background(), until); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(seen) != 3 {
		t.Fatalf("ticks = %d, want 3", len(seen))
	}
	if !seen[2].Equal(until) || !c.Now().Equal(until) {
		t.Fatalf("last tick %v, now %v, want %v", seen[2], c.Now(), until)
	}
}

func TestClockRunRealTime(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	c := NewClock(start, 5*time.Millisecond, RealTime)

	if err := c.Run(context.Background(), start.Add(15*time.Millisecond)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got, want := c.Now(), start.Add(15*time.Millisecond); !got.Equal(want) {
		t.Fatalf("Now() = %v, want %v", got, want)
	}
}

func TestClockRunCancelled(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	c := NewClock(start, time.Hour, RealTime)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.Run(ctx, start.Add(24*time.Hour)); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestClockRejectsZeroTick(t *testing.T) {
	c := NewClock(time.Time{}, 0, Accelerated)
	if err := c.Run(context.Background(), time.Time{}.Add(time.Second)); err == nil {
		t.Fatalf("expected error")
	}
}
