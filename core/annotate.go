package core

import (
	"fmt"

	"github.com/signalsfoundry/gnss-dynamics/model"
)

// Annotate walks the samples once, storing on each sample its incoming and
// outgoing velocity and, for every sample with both, the acceleration
// implied by their difference.
//
// The acceleration here is computed as Difference(outgoing, incoming), i.e.
// incoming - outgoing, divided by the seconds between the two velocity
// midpoints. Unlike DeriveAccelerationSequence it is sample-centred and is
// left absent whenever either bracketing velocity is absent. The last
// sample never receives an acceleration.
//
// Derived fields are write-once: annotating a sequence twice fails with
// model.ErrAlreadyAssigned, possibly after earlier samples were written.
func Annotate(samples []*model.Sample, distance DistanceFunc) ([]*model.Sample, error) {
	for i := 1; i < len(samples); i++ {
		prev, curr := samples[i-1], samples[i]

		var vp *model.Velocity
		if v, ok := DeriveVelocity(prev, curr, distance); ok {
			vp = &v
		}
		if err := prev.SetOutgoingVelocity(vp); err != nil {
			return samples, fmt.Errorf("annotate sample %d: %w", i-1, err)
		}
		if err := curr.SetIncomingVelocity(vp); err != nil {
			return samples, fmt.Errorf("annotate sample %d: %w", i, err)
		}

		if err := prev.SetAcceleration(bracketedAcceleration(prev, i > 1)); err != nil {
			return samples, fmt.Errorf("annotate sample %d: %w", i-1, err)
		}
	}
	return samples, nil
}

func bracketedAcceleration(s *model.Sample, interior bool) *model.Vector2 {
	if !interior {
		return nil
	}
	out, okOut := s.OutgoingVelocity()
	in, okIn := s.IncomingVelocity()
	if !okOut || !okIn {
		return nil
	}
	diff := Difference(&out.Vector2, &in.Vector2)
	acc := Scale(*diff, 1/ElapsedSeconds(out.Time, in.Time))
	return &acc
}
