package core

import (
	"math"
	"testing"
	"time"

	"github.com/signalsfoundry/gnss-dynamics/model"
)

func TestDeriveAccelerationSequence(t *testing.T) {
	velocities := []model.Velocity{
		*vel(0, 1, 0),
		*vel(0, 3, 2*time.Second),
		*vel(4, 3, 4*time.Second),
	}

	got := DeriveAccelerationSequence(velocities)
	want := []model.Vector2{{X: 0, Y: 1}, {X: 2, Y: 0}}
	if len(got) != len(want) {
		t.Fatalf("len(accelerations) = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("acceleration[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestDeriveAccelerationSequenceShortInput(t *testing.T) {
	if got := DeriveAccelerationSequence(nil); len(got) != 0 {
		t.Fatalf("nil velocities gave %v", got)
	}
	if got := DeriveAccelerationSequence([]model.Velocity{*vel(1, 1, 0)}); len(got) != 0 {
		t.Fatalf("single velocity gave %v", got)
	}
}

// Equal timestamps are a precondition violation and are deliberately not
// guarded; the result is non-finite rather than absent.
func TestDeriveAccelerationSequenceEqualTimestamps(t *testing.T) {
	got := DeriveAccelerationSequence([]model.Velocity{*vel(0, 1, time.Second), *vel(0, 3, time.Second)})
	if len(got) != 1 {
		t.Fatalf("len(accelerations) = %d, want 1", len(got))
	}
	if !math.IsNaN(got[0].X) || !math.IsInf(got[0].Y, 1) {
		t.Fatalf("acceleration = %v, want {NaN +Inf}", got[0])
	}
}
