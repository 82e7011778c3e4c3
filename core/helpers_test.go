package core

import (
	"math"
	"time"

	"github.com/signalsfoundry/gnss-dynamics/model"
)

var t0 = time.Date(2024, time.June, 3, 9, 0, 0, 0, time.UTC)

// planar measures distance directly in degrees so expected speeds stay exact.
func planar(a, b model.Position) float64 {
	return math.Hypot(a.Latitude-b.Latitude, a.Longitude-b.Longitude)
}

type fix struct {
	lat, lon float64
	at       time.Duration
}

func track(fixes ...fix) []*model.Sample {
	out := make([]*model.Sample, len(fixes))
	for i, f := range fixes {
		out[i] = model.NewSample(f.lat, f.lon, t0.Add(f.at))
	}
	return out
}

func vel(x, y float64, at time.Duration) *model.Velocity {
	return &model.Velocity{Vector2: model.Vector2{X: x, Y: y}, Time: t0.Add(at)}
}

// bracketed builds a four-sample track whose second sample carries the
// given incoming/outgoing velocities, ready for the angular velocity pass.
func bracketed(u, v *model.Velocity) []*model.Sample {
	samples := track(fix{at: 0}, fix{at: time.Minute}, fix{at: 2 * time.Minute}, fix{at: 3 * time.Minute})
	if err := samples[1].SetIncomingVelocity(u); err != nil {
		panic(err)
	}
	if err := samples[1].SetOutgoingVelocity(v); err != nil {
		panic(err)
	}
	return samples
}
