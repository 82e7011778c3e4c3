// Package core derives motion dynamics from ordered GNSS fixes: velocity,
// acceleration and angular velocity. All functions are synchronous and
// deterministic; none of them log or perform I/O.
package core

import "github.com/signalsfoundry/gnss-dynamics/model"

// Difference returns b - a. A nil operand yields nil so that callers can
// chain optional values without checking each step.
func Difference(a, b *model.Vector2) *model.Vector2 {
	if a == nil || b == nil {
		return nil
	}
	d := b.Sub(*a)
	return &d
}

// Scale multiplies v componentwise by k.
func Scale(v model.Vector2, k float64) model.Vector2 {
	return v.Scale(k)
}

// Magnitude returns the Euclidean norm of v, or 0 for a nil vector.
func Magnitude(v *model.Vector2) float64 {
	if v == nil {
		return 0
	}
	return v.Norm()
}

// Normalize returns the unit vector along v. The zero vector is its own
// direction and is returned unchanged.
func Normalize(v model.Vector2) model.Vector2 {
	if v.IsZero() {
		return v
	}
	return Scale(v, 1/Magnitude(&v))
}
