package core

import (
	"github.com/paulmach/orb"

	"github.com/signalsfoundry/gnss-dynamics/model"
)

// emptyBound is inverted so that extending it with any point yields that
// point's degenerate bound.
var emptyBound = orb.Bound{
	Min: orb.Point{180, 90},
	Max: orb.Point{-180, -90},
}

// Bounds returns the lat/lon bounding box of every sample across tracks.
// orb points are (lon, lat). With no samples the inverted sentinel box
// (min lat 90, max lat -90, min lon 180, max lon -180) is returned.
func Bounds(tracks ...[]*model.Sample) orb.Bound {
	b := emptyBound
	for _, track := range tracks {
		for _, s := range track {
			b = b.Extend(orb.Point{s.Longitude(), s.Latitude()})
		}
	}
	return b
}

// BoundsCenter returns the centre of b as a position.
func BoundsCenter(b orb.Bound) model.Position {
	c := b.Center()
	return model.Position{Latitude: c.Lat(), Longitude: c.Lon()}
}
