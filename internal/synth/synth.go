// Package synth generates synthetic GNSS tracks for demos and tests.
package synth

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"github.com/signalsfoundry/gnss-dynamics/model"
	"github.com/signalsfoundry/gnss-dynamics/timectrl"
)

// ErrInvalidTLE is returned when a two-line element set is malformed.
var ErrInvalidTLE = errors.New("invalid TLE")

// Straight returns fixes along a great circle from start, moving at a
// constant speed (metres per second) on a fixed initial bearing (degrees).
func Straight(start model.Position, headingDeg, speedMps float64, sched timectrl.Schedule) ([]*model.Sample, error) {
	if err := sched.Validate(); err != nil {
		return nil, err
	}
	origin := orb.Point{start.Longitude, start.Latitude}
	instants := sched.Instants()
	out := make([]*model.Sample, 0, len(instants))
	for _, at := range instants {
		d := speedMps * at.Sub(sched.Start).Seconds()
		p := geo.PointAtBearingAndDistance(origin, headingDeg, d)
		out = append(out, model.NewSample(p.Lat(), wrapLongitude(p.Lon()), at))
	}
	return out, nil
}

// Turn returns fixes for a vehicle at constant speed whose heading changes
// at turnRate degrees per second. Positive rates turn clockwise.
func Turn(start model.Position, headingDeg, speedMps, turnRate float64, sched timectrl.Schedule) ([]*model.Sample, error) {
	if err := sched.Validate(); err != nil {
		return nil, err
	}
	instants := sched.Instants()
	out := make([]*model.Sample, 0, len(instants))

	pos := orb.Point{start.Longitude, start.Latitude}
	prev := sched.Start
	for _, at := range instants {
		dt := at.Sub(prev).Seconds()
		if dt > 0 {
			// Heading at the middle of the leg keeps the arc symmetric.
			mid := prev.Sub(sched.Start).Seconds() + dt/2
			bearing := headingDeg + turnRate*mid
			pos = geo.PointAtBearingAndDistance(pos, bearing, speedMps*dt)
			pos[0] = wrapLongitude(pos[0])
		}
		out = append(out, model.NewSample(pos.Lat(), pos.Lon(), at))
		prev = at
	}
	return out, nil
}

// GroundTrack returns the sub-satellite points of the satellite described
// by a TLE, propagated with SGP4. Fix times are truncated to whole seconds
// since the propagator only accepts integral seconds.
func GroundTrack(tle1, tle2 string, sched timectrl.Schedule) ([]*model.Sample, error) {
	if err := sched.Validate(); err != nil {
		return nil, err
	}
	if err := checkTLE(tle1, tle2); err != nil {
		return nil, err
	}
	sat := satellite.TLEToSat(tle1, tle2, satellite.GravityWGS72)

	instants := sched.Instants()
	out := make([]*model.Sample, 0, len(instants))
	for _, at := range instants {
		at = at.UTC().Truncate(time.Second)
		year, month, day := at.Date()
		hour, min, sec := at.Clock()

		posECI, _ := satellite.Propagate(sat, year, int(month), day, hour, min, sec)
		if math.IsNaN(posECI.X) {
			return nil, fmt.Errorf("propagate at %s: %w", at.Format(time.RFC3339), ErrInvalidTLE)
		}
		jd := satellite.JDay(year, int(month), day, hour, min, sec)
		gmst := satellite.ThetaG_JD(jd)
		_, _, ll := satellite.ECIToLLA(posECI, gmst)

		lat := ll.Latitude * satellite.RAD2DEG
		lon := wrapLongitude(ll.Longitude * satellite.RAD2DEG)
		out = append(out, model.NewSample(lat, lon, at))
	}
	return out, nil
}

func checkTLE(l1, l2 string) error {
	if len(l1) < 69 || len(l2) < 69 {
		return fmt.Errorf("%w: lines must be 69 characters", ErrInvalidTLE)
	}
	if !strings.HasPrefix(l1, "1 ") || !strings.HasPrefix(l2, "2 ") {
		return fmt.Errorf("%w: unexpected line numbers", ErrInvalidTLE)
	}
	if strings.TrimSpace(l1[2:7]) != strings.TrimSpace(l2[2:7]) {
		return fmt.Errorf("%w: catalog numbers differ", ErrInvalidTLE)
	}
	return nil
}

// wrapLongitude maps any longitude onto [-180, 180).
func wrapLongitude(lon float64) float64 {
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}
