// pkg/sphere/core.go
// Copyright(c) 2024 trajcore contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package sphere implements unit-sphere vector geometry for aircraft
// trajectories: points, great-circle arcs, tangent turn arcs, and the
// ordered waypoint path built from them.
//
// Positions are unit vectors in an Earth-Centered Earth-Fixed frame
// (the Earth's radius is normalized to 1); distances and angles are in
// radians unless a function name says otherwise. One nautical mile is
// pi/10800 rad on the unit sphere.
package sphere

import (
	gomath "math"

	"golang.org/x/exp/constraints"
)

const (
	// NMRadians is the angular distance of one nautical mile on a unit sphere.
	NMRadians = gomath.Pi / 10800.0

	MinTurnAngle        = 1.0 * gomath.Pi / 180.0
	MaxTurnAngle        = 150.0 * gomath.Pi / 180.0
	MaxTurnInitiationNM = 20.0
	MinLengthNM         = 1e-6
)

// NM converts a distance in nautical miles to radians.
func NM(nm float64) float64 { return nm * NMRadians }

// InNM converts a distance in radians to nautical miles.
func InNM(rad float64) float64 { return rad / NMRadians }

func Sqr[T constraints.Float | constraints.Integer](v T) T { return v * v }

func Clamp[T constraints.Ordered](x, low, high T) T {
	if x < low {
		return low
	} else if x > high {
		return high
	}
	return x
}

func Lerp(t, a, b float64) float64 { return (1-t)*a + t*b }

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// normalizeAngle wraps a radian angle into (-pi, pi].
func normalizeAngle(a float64) float64 {
	for a <= -gomath.Pi {
		a += 2 * gomath.Pi
	}
	for a > gomath.Pi {
		a -= 2 * gomath.Pi
	}
	return a
}
