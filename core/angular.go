package core

import (
	"fmt"
	"math"

	"github.com/signalsfoundry/gnss-dynamics/model"
)

// AngularTrailingExcluded is the number of samples at the end of a track
// that DeriveAngularVelocity never visits. Together with the first sample
// this means a track needs at least four samples to produce any output.
const AngularTrailingExcluded = 2

// SkipReason explains why a sample produced no angular velocity.
type SkipReason int

const (
	// SkipMissingVelocity: one of the bracketing velocities is absent.
	SkipMissingVelocity SkipReason = iota
	// SkipZeroMagnitude: one of the bracketing velocities has zero length.
	SkipZeroMagnitude
	// SkipAcosDomain: rounding pushed the cosine outside [-1, 1].
	SkipAcosDomain
)

func (r SkipReason) String() string {
	switch r {
	case SkipMissingVelocity:
		return "missing_velocity"
	case SkipZeroMagnitude:
		return "zero_magnitude"
	case SkipAcosDomain:
		return "acos_domain"
	default:
		return "unknown"
	}
}

// AngularReport is the output of one angular velocity pass.
type AngularReport struct {
	// Values holds one entry per sample that produced a signal, in order.
	Values []float64
	// Indices holds the sample index for each entry of Values.
	Indices []int
	// Skipped counts visited samples that produced nothing, by reason.
	Skipped map[SkipReason]int
}

// DeriveAngularVelocity returns the speed-weighted turn rate at each sample
// of an annotated track, storing each value on its sample. See
// DeriveAngularVelocityReport for the exact rules.
func DeriveAngularVelocity(samples []*model.Sample) ([]float64, error) {
	r, err := DeriveAngularVelocityReport(samples)
	return r.Values, err
}

// DeriveAngularVelocityReport visits samples 1 through n-3. For each sample
// with incoming velocity u and outgoing velocity v it computes
//
//	angle = acos(u·v / (|u||v|))
//	w     = angle / seconds(v.Time - u.Time) * (|u| + |v|) / 2
//
// Samples with an absent velocity, a zero-length velocity, or a cosine
// outside [-1, 1] are skipped without error. The cosine is not clamped.
func DeriveAngularVelocityReport(samples []*model.Sample) (AngularReport, error) {
	report := AngularReport{Skipped: make(map[SkipReason]int)}

	for i := 1; i < len(samples)-AngularTrailingExcluded; i++ {
		s := samples[i]
		u, okU := s.IncomingVelocity()
		v, okV := s.OutgoingVelocity()
		if !okU || !okV {
			report.Skipped[SkipMissingVelocity]++
			continue
		}

		magU, magV := Magnitude(&u.Vector2), Magnitude(&v.Vector2)
		denom := magU * magV
		if denom == 0 {
			report.Skipped[SkipZeroMagnitude]++
			continue
		}
		cos := u.Dot(v.Vector2) / denom
		if cos > 1 || cos < -1 {
			report.Skipped[SkipAcosDomain]++
			continue
		}

		angle := math.Acos(cos)
		w := (angle / ElapsedSeconds(v.Time, u.Time)) * (magU + magV) / 2
		if err := s.SetAngularVelocity(&w); err != nil {
			return report, fmt.Errorf("angular velocity at sample %d: %w", i, err)
		}
		report.Values = append(report.Values, w)
		report.Indices = append(report.Indices, i)
	}
	return report, nil
}

// AngularVelocitiesFor concatenates the angular velocity output of several
// annotated tracks, in track order.
func AngularVelocitiesFor(tracks ...[]*model.Sample) ([]float64, error) {
	var out []float64
	for n, track := range tracks {
		values, err := DeriveAngularVelocity(track)
		if err != nil {
			return out, fmt.Errorf("track %d: %w", n, err)
		}
		out = append(out, values...)
	}
	return out, nil
}
