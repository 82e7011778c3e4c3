package core

import (
	"iter"
	"slices"

	"github.com/signalsfoundry/gnss-dynamics/model"
)

// DistanceFunc returns the geodesic distance between two positions. It must
// be symmetric and non-negative; the unit is the caller's choice and carries
// through to every derived speed.
type DistanceFunc func(a, b model.Position) float64

// DeriveVelocity returns the velocity over the interval prev -> curr. The
// direction follows the raw lat/lon difference and the length is distance
// per hour. ok is false when both samples share a timestamp.
func DeriveVelocity(prev, curr *model.Sample, distance DistanceFunc) (model.Velocity, bool) {
	from, to := prev.Position().Vector(), curr.Position().Vector()
	direction := Normalize(*Difference(&from, &to))
	dist := distance(curr.Position(), prev.Position())

	hours := ElapsedHours(curr.Time(), prev.Time())
	if hours == 0 {
		return model.Velocity{}, false
	}

	return model.Velocity{
		Vector2:  Scale(direction, dist/hours),
		Time:     Midpoint(prev.Time(), curr.Time()),
		Distance: dist,
	}, true
}

// DeriveVelocitySequence yields the velocity of every consecutive pair of
// samples, skipping pairs with no elapsed time. The sequence may be ranged
// over any number of times.
func DeriveVelocitySequence(samples []*model.Sample, distance DistanceFunc) iter.Seq[model.Velocity] {
	return func(yield func(model.Velocity) bool) {
		for i := 1; i < len(samples); i++ {
			v, ok := DeriveVelocity(samples[i-1], samples[i], distance)
			if !ok {
				continue
			}
			if !yield(v) {
				return
			}
		}
	}
}

// Velocities collects DeriveVelocitySequence into a slice.
func Velocities(samples []*model.Sample, distance DistanceFunc) []model.Velocity {
	return slices.Collect(DeriveVelocitySequence(samples, distance))
}
