package core

import "github.com/signalsfoundry/gnss-dynamics/model"

// DeriveAccelerationSequence returns the finite-difference acceleration
// between each consecutive pair of velocities, in velocity units per second.
//
// The velocities must carry strictly increasing timestamps, which holds for
// anything produced by DeriveVelocitySequence. Equal timestamps are not
// guarded: the division yields ±Inf or NaN components.
func DeriveAccelerationSequence(velocities []model.Velocity) []model.Vector2 {
	if len(velocities) < 2 {
		return nil
	}
	out := make([]model.Vector2, 0, len(velocities)-1)
	for i := 1; i < len(velocities); i++ {
		prev, v := velocities[i-1], velocities[i]
		diff := Difference(&prev.Vector2, &v.Vector2)
		out = append(out, Scale(*diff, 1/ElapsedSeconds(v.Time, prev.Time)))
	}
	return out
}
