package core

import (
	"testing"
	"time"

	"github.com/signalsfoundry/gnss-dynamics/model"
)

func TestDeriveVelocity(t *testing.T) {
	samples := track(fix{0, 0, 0}, fix{0, 1, time.Hour})

	v, ok := DeriveVelocity(samples[0], samples[1], planar)
	if !ok {
		t.Fatalf("expected a velocity for a one-hour interval")
	}
	if v.Vector2 != (model.Vector2{X: 0, Y: 1}) {
		t.Fatalf("velocity = %v, want {0 1}", v.Vector2)
	}
	if want := t0.Add(30 * time.Minute); !v.Time.Equal(want) {
		t.Fatalf("velocity time = %v, want midpoint %v", v.Time, want)
	}
	if v.Distance != 1 {
		t.Fatalf("distance = %v, want 1", v.Distance)
	}
}

func TestDeriveVelocityScalesDirectionByDistancePerHour(t *testing.T) {
	samples := track(fix{0, 0, 0}, fix{3, 4, 30 * time.Minute})
	// Direction (0.6, 0.8), distance 10 over half an hour: speed 20.
	dist := func(a, b model.Position) float64 { return 10 }

	v, ok := DeriveVelocity(samples[0], samples[1], dist)
	if !ok {
		t.Fatalf("expected a velocity")
	}
	if !almostEqual(v.X, 12, eps) || !almostEqual(v.Y, 16, eps) {
		t.Fatalf("velocity = %v, want {12 16}", v.Vector2)
	}
	if !almostEqual(v.Speed(), 20, eps) {
		t.Fatalf("speed = %v, want 20", v.Speed())
	}
}

func TestDeriveVelocityZeroElapsedIsAbsent(t *testing.T) {
	samples := track(fix{10, 10, time.Minute}, fix{10.5, 10.5, time.Minute})
	if v, ok := DeriveVelocity(samples[0], samples[1], planar); ok {
		t.Fatalf("expected no velocity for identical timestamps, got %+v", v)
	}
}

func TestDeriveVelocityStationary(t *testing.T) {
	samples := track(fix{5, 5, 0}, fix{5, 5, time.Minute})
	v, ok := DeriveVelocity(samples[0], samples[1], planar)
	if !ok {
		t.Fatalf("stationary interval with elapsed time should still yield a velocity")
	}
	if !v.IsZero() || v.Distance != 0 {
		t.Fatalf("stationary velocity = %+v, want zero", v)
	}
}

func TestDeriveVelocityPassesCurrentThenPrevious(t *testing.T) {
	samples := track(fix{1, 1, 0}, fix{2, 2, time.Hour})
	var gotA, gotB model.Position
	dist := func(a, b model.Position) float64 {
		gotA, gotB = a, b
		return 0
	}
	DeriveVelocity(samples[0], samples[1], dist)
	if gotA != samples[1].Position() || gotB != samples[0].Position() {
		t.Fatalf("distance called with (%v, %v), want (current, previous)", gotA, gotB)
	}
}

func TestDeriveVelocitySequenceDropsUndefinedPairs(t *testing.T) {
	samples := track(
		fix{0, 0, 0},
		fix{0, 1, 0}, // same instant as the first fix
		fix{0, 2, time.Hour},
		fix{0, 3, 2 * time.Hour},
	)

	got := Velocities(samples, planar)
	if len(got) != 2 {
		t.Fatalf("len(velocities) = %d, want 2", len(got))
	}
	if got[0].X != 0 || got[0].Y != 1 {
		t.Fatalf("first velocity = %v, want {0 1}", got[0].Vector2)
	}
}

func TestDeriveVelocitySequenceBounds(t *testing.T) {
	samples := track(
		fix{0, 0, 0},
		fix{0.1, 0.2, 17 * time.Second},
		fix{0.1, 0.2, 17 * time.Second},
		fix{0.3, 0.1, 95 * time.Second},
		fix{0.4, 0.4, 96 * time.Second},
		fix{0.5, 0.4, 10 * time.Minute},
	)

	velocities := Velocities(samples, planar)
	if len(velocities) > len(samples)-1 {
		t.Fatalf("len(velocities) = %d, want at most %d", len(velocities), len(samples)-1)
	}
	for _, v := range velocities {
		inside := false
		for i := 1; i < len(samples); i++ {
			if v.Time.After(samples[i-1].Time()) && v.Time.Before(samples[i].Time()) {
				inside = true
				break
			}
		}
		if !inside {
			t.Errorf("velocity time %v is not strictly inside any sample interval", v.Time)
		}
	}
}

func TestDeriveVelocitySequenceIsRestartable(t *testing.T) {
	samples := track(fix{0, 0, 0}, fix{0, 1, time.Hour}, fix{1, 1, 2 * time.Hour})
	seq := DeriveVelocitySequence(samples, planar)

	first := 0
	for range seq {
		first++
	}
	second := 0
	for range seq {
		second++
	}
	if first != 2 || second != 2 {
		t.Fatalf("ranged twice got %d then %d velocities, want 2 and 2", first, second)
	}

	stopped := 0
	for range seq {
		stopped++
		break
	}
	if stopped != 1 {
		t.Fatalf("early break yielded %d velocities, want 1", stopped)
	}
}

func TestDeriveVelocitySequenceShortInput(t *testing.T) {
	if got := Velocities(nil, planar); len(got) != 0 {
		t.Fatalf("no samples gave %d velocities", len(got))
	}
	if got := Velocities(track(fix{1, 1, 0}), planar); len(got) != 0 {
		t.Fatalf("one sample gave %d velocities", len(got))
	}
}
