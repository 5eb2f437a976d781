// pkg/intersect/airport.go
// Copyright(c) 2024 trajcore contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package intersect

import (
	gomath "math"

	"github.com/euctrl-pru/trajcore/pkg/sphere"
	"github.com/euctrl-pru/trajcore/pkg/trajectory"
	"github.com/euctrl-pru/trajcore/pkg/trajerr"
)

// epsilon guards the spherical-Pythagoras projection below against a
// near-zero cross-track distance, where cos(xtd) is indistinguishable from
// 1 and the division is numerically pointless.
const epsilon = 1e-9

// AirportConfig holds the tunable thresholds of the airport-cylinder
// resolver.
type AirportConfig struct {
	RadiusNM            float64
	DistanceToleranceNM float64
}

func DefaultAirportConfig() AirportConfig {
	return AirportConfig{RadiusNM: 40.0, DistanceToleranceNM: 0.25}
}

// FindAirportIntersection locates where st's path crosses the cylinder of
// radius cfg.RadiusNM centred on refPoint, for a departure (isDestination
// false) or destination (true) airport. Returns (nil, nil) if the
// path never crosses the cylinder.
func FindAirportIntersection(st *trajectory.SmoothedTrajectory, path *sphere.SpherePath, airportID string,
	refPoint sphere.Point3d, isDestination bool, cfg AirportConfig) (*AirportEvent, error) {

	radiusRad := sphere.NM(cfg.RadiusNM)
	points := path.Waypoints()

	index, ratio := findCylinderIntersectionIndex(points, refPoint, radiusRad, isDestination)
	if index < 0 {
		return nil, nil
	}

	intPoint := points[index]
	distance := radiusRad

	if ratio > 0.0 && index < len(points)-1 {
		arc := sphere.NewArc3d(points[index], points[index+1])
		atd := arc.AlongTrackDistance(refPoint)
		xtd := gomath.Abs(arc.CrossTrackDistance(refPoint))

		d := 0.0
		if xtd < radiusRad {
			d = radiusRad
		}
		if d != 0 && xtd > epsilon {
			// Project the cylinder radius onto the arc via spherical
			// Pythagoras.
			d = gomath.Acos(gomath.Cos(d) / gomath.Cos(xtd))
		}

		if isDestination {
			if atd+d <= arc.Length() {
				d = atd + d
			} else {
				d = atd - d
			}
		} else {
			if atd-d >= 0.0 {
				d = atd - d
			} else {
				d = atd + d
			}
		}
		intPoint = arc.PositionAt(d)
		distance = intPoint.DistanceTo(refPoint)
	}

	distanceNM := sphere.InNM(distance)
	if gomath.Abs(distanceNM-cfg.RadiusNM) > cfg.DistanceToleranceNM {
		return nil, trajerr.ErrDistanceTolerance
	}

	pathDistanceNM := sphere.InNM(path.PathDistanceOf(intPoint, sphere.NM(cfg.DistanceToleranceNM)))
	lat, lon := intPoint.LatLonDegrees()
	alt := st.AltitudeProfile.Interpolate([]float64{pathDistanceNM})[0]

	return &AirportEvent{
		FlightID:      st.FlightID,
		AirportID:     airportID,
		RadiusNM:      cfg.RadiusNM,
		IsDestination: isDestination,
		Lat:           lat,
		Lon:           lon,
		Alt:           alt,
		Time:          formatISO8601(st.TimeProfile.At(pathDistanceNM)),
		DistanceNM:    pathDistanceNM,
	}, nil
}

// findCylinderIntersectionIndex returns the index and sub-leg ratio of the
// point in points where the distance-to-centre trace crosses radius: a
// descending search for a destination airport (distance shrinks as the
// flight approaches), ascending for a departure.
func findCylinderIntersectionIndex(points []sphere.Point3d, centre sphere.Point3d, radius float64, isDestination bool) (int, float64) {
	distances := make([]float64, len(points))
	minD, maxD := gomath.Inf(1), gomath.Inf(-1)
	for i, p := range points {
		d := p.DistanceTo(centre)
		distances[i] = d
		if d < minD {
			minD = d
		}
		if d > maxD {
			maxD = d
		}
	}
	if !(minD < radius && radius < maxD) {
		return -1, 0.0
	}
	if isDestination {
		return descendingValueReference(distances, radius)
	}
	return valueReferenceWithRatio(distances, radius)
}

// valueReferenceWithRatio finds the index of value in a monotone-increasing
// values, or the index just before it, and the fractional ratio from that
// index toward the next at which value falls.
func valueReferenceWithRatio(values []float64, value float64) (int, float64) {
	index := 0
	for index < len(values) && values[index] < value {
		index++
	}
	if index >= len(values) {
		return len(values) - 1, 0.0
	}
	if index > 0 && value < values[index] {
		index--
		denom := values[index+1] - values[index]
		if denom > 0 {
			return index, (value - values[index]) / denom
		}
	}
	return index, 0.0
}

// descendingValueReference is valueReferenceWithRatio for a
// monotone-decreasing sequence: reverse, search ascending, then map the
// index and ratio back.
func descendingValueReference(values []float64, value float64) (int, float64) {
	n := len(values)
	reversed := make([]float64, n)
	for i, v := range values {
		reversed[n-1-i] = v
	}
	index, ratio := valueReferenceWithRatio(reversed, value)
	index = n - 1 - index
	if ratio != 0 {
		ratio = 1.0 - ratio
		index--
	}
	return index, ratio
}
