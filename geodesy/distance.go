// Package geodesy provides distance functions for core.DistanceFunc.
package geodesy

import (
	"fmt"
	"math"
	"strings"

	satellite "github.com/joshuaferrara/go-satellite"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"github.com/signalsfoundry/gnss-dynamics/core"
	"github.com/signalsfoundry/gnss-dynamics/model"
)

// Unit is a distance unit.
type Unit int

const (
	Miles Unit = iota
	Kilometers
	Meters
)

const metersPerMile = 1609.344

// FromMeters converts a distance in metres to u.
func (u Unit) FromMeters(m float64) float64 {
	switch u {
	case Kilometers:
		return m / 1000
	case Meters:
		return m
	default:
		return m / metersPerMile
	}
}

func (u Unit) String() string {
	switch u {
	case Kilometers:
		return "km"
	case Meters:
		return "m"
	default:
		return "miles"
	}
}

// ParseUnit accepts miles|mi, km|kilometers, m|meters.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "miles", "mi":
		return Miles, nil
	case "km", "kilometers", "kilometres":
		return Kilometers, nil
	case "m", "meters", "metres":
		return Meters, nil
	default:
		return Miles, fmt.Errorf("unknown distance unit %q", s)
	}
}

func point(p model.Position) orb.Point {
	return orb.Point{p.Longitude, p.Latitude}
}

// Haversine returns great-circle distance using the haversine formula.
func Haversine(u Unit) core.DistanceFunc {
	return func(a, b model.Position) float64 {
		return u.FromMeters(geo.DistanceHaversine(point(a), point(b)))
	}
}

// Equirectangular returns the Pythagorean distance on an equirectangular
// projection. It is cheaper than Haversine and drifts over long ranges.
func Equirectangular(u Unit) core.DistanceFunc {
	return func(a, b model.Position) float64 {
		return u.FromMeters(geo.Distance(point(a), point(b)))
	}
}

// chordEpoch is arbitrary; both ends rotate together so the chord length
// does not depend on it.
var chordEpoch = satellite.JDay(2000, 1, 1, 12, 0, 0)

// Chord returns the straight-line distance through the Earth between two
// surface positions, using go-satellite's geodetic to ECI conversion.
func Chord(u Unit) core.DistanceFunc {
	return func(a, b model.Position) float64 {
		pa := satellite.LLAToECI(latLong(a), 0, chordEpoch)
		pb := satellite.LLAToECI(latLong(b), 0, chordEpoch)
		dx, dy, dz := pa.X-pb.X, pa.Y-pb.Y, pa.Z-pb.Z
		km := math.Sqrt(dx*dx + dy*dy + dz*dz)
		return u.FromMeters(km * 1000)
	}
}

func latLong(p model.Position) satellite.LatLong {
	return satellite.LatLong{
		Latitude:  p.Latitude * satellite.DEG2RAD,
		Longitude: p.Longitude * satellite.DEG2RAD,
	}
}

// ByName returns the distance function for method haversine|equirectangular|chord.
func ByName(method string, u Unit) (core.DistanceFunc, error) {
	switch strings.ToLower(strings.TrimSpace(method)) {
	case "", "haversine":
		return Haversine(u), nil
	case "equirectangular":
		return Equirectangular(u), nil
	case "chord":
		return Chord(u), nil
	default:
		return nil, fmt.Errorf("unknown distance method %q", method)
	}
}
