package model

import (
	"fmt"
	"time"
)

// Position is a raw latitude/longitude pair in degrees.
type Position struct {
	Latitude  float64
	Longitude float64
}

// Vector returns the position as a planar vector (X = latitude, Y = longitude).
func (p Position) Vector() Vector2 {
	return Vector2{X: p.Latitude, Y: p.Longitude}
}

// Velocity is the motion over one inter-sample interval. The vector points
// along the lat/lon difference of the bracketing samples and its length is
// distance per hour in whatever unit the distance function returned.
type Velocity struct {
	Vector2

	// Time is the midpoint of the bracketed interval.
	Time time.Time

	// Distance between the two bracketed samples.
	Distance float64
}

// Speed returns the magnitude of the velocity vector.
func (v Velocity) Speed() float64 { return v.Norm() }

// Sample is one timestamped GNSS fix. The position and time are fixed at
// construction; the derived fields are write-once and filled by the
// annotation and angular velocity passes.
type Sample struct {
	pos Position
	at  time.Time

	incoming        Cell[Velocity]
	outgoing        Cell[Velocity]
	acceleration    Cell[Vector2]
	angularVelocity Cell[float64]
}

// NewSample constructs a sample with no derived fields.
func NewSample(lat, lon float64, at time.Time) *Sample {
	return &Sample{pos: Position{Latitude: lat, Longitude: lon}, at: at}
}

// Position returns the fix position.
func (s *Sample) Position() Position { return s.pos }

// Latitude returns the fix latitude in degrees.
func (s *Sample) Latitude() float64 { return s.pos.Latitude }

// Longitude returns the fix longitude in degrees.
func (s *Sample) Longitude() float64 { return s.pos.Longitude }

// Time returns the fix timestamp.
func (s *Sample) Time() time.Time { return s.at }

// Clone returns a fresh sample with the same position and time and no
// derived fields.
func (s *Sample) Clone() *Sample {
	return &Sample{pos: s.pos, at: s.at}
}

func (s *Sample) String() string {
	return fmt.Sprintf("Sample(%f, %f, %s)", s.pos.Latitude, s.pos.Longitude, s.at.Format(time.RFC3339Nano))
}

// IncomingVelocity is the velocity from the previous sample to this one.
func (s *Sample) IncomingVelocity() (Velocity, bool) { return s.incoming.Load() }

// OutgoingVelocity is the velocity from this sample to the next one.
func (s *Sample) OutgoingVelocity() (Velocity, bool) { return s.outgoing.Load() }

// Acceleration implied by the bracketing velocities.
func (s *Sample) Acceleration() (Vector2, bool) { return s.acceleration.Load() }

// AngularVelocity is the speed-weighted turn rate at this sample.
func (s *Sample) AngularVelocity() (float64, bool) { return s.angularVelocity.Load() }

// Annotated reports whether the annotation pass has touched this sample.
func (s *Sample) Annotated() bool {
	return s.incoming.Assigned() || s.outgoing.Assigned() || s.acceleration.Assigned()
}

// SetIncomingVelocity records the incoming velocity; nil records absence.
func (s *Sample) SetIncomingVelocity(v *Velocity) error {
	if err := s.incoming.StorePtr(v); err != nil {
		return fmt.Errorf("incoming velocity: %w", err)
	}
	return nil
}

// SetOutgoingVelocity records the outgoing velocity; nil records absence.
func (s *Sample) SetOutgoingVelocity(v *Velocity) error {
	if err := s.outgoing.StorePtr(v); err != nil {
		return fmt.Errorf("outgoing velocity: %w", err)
	}
	return nil
}

// SetAcceleration records the acceleration; nil records absence.
func (s *Sample) SetAcceleration(a *Vector2) error {
	if err := s.acceleration.StorePtr(a); err != nil {
		return fmt.Errorf("acceleration: %w", err)
	}
	return nil
}

// SetAngularVelocity records the angular velocity; nil records absence.
func (s *Sample) SetAngularVelocity(w *float64) error {
	if err := s.angularVelocity.StorePtr(w); err != nil {
		return fmt.Errorf("angular velocity: %w", err)
	}
	return nil
}
