// pkg/sphere/point3d_test.go
// Copyright(c) 2024 trajcore contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sphere

import (
	gomath "math"
	"testing"
)

func TestPointLatLonRoundTrip(t *testing.T) {
	latlons := [][2]float64{
		{0, 0},
		{49.0097, 2.5479},   // LFPG
		{-33.9461, 151.177}, // YSSY
		{51.4775, -0.4614},  // EGLL
		{-89.5, 120},
		{89.5, -45},
	}
	for _, ll := range latlons {
		p := PointFromDegrees(ll[0], ll[1])
		lat, lon := p.LatLonDegrees()
		if gomath.Abs(lat-ll[0]) > 1e-12 {
			t.Errorf("(%g, %g): got latitude %.15g", ll[0], ll[1], lat)
		}
		if gomath.Abs(lon-ll[1]) > 1e-12 {
			t.Errorf("(%g, %g): got longitude %.15g", ll[0], ll[1], lon)
		}
		if gomath.Abs(p.Norm()-1) > 1e-15 {
			t.Errorf("(%g, %g): point is not a unit vector, norm %.15g", ll[0], ll[1], p.Norm())
		}
	}
}

func TestGreatCircleDistance(t *testing.T) {
	type testCase struct {
		a, b     Point3d
		expected float64
	}
	cases := []testCase{
		{PointFromDegrees(0, 0), PointFromDegrees(0, 90), gomath.Pi / 2},
		{PointFromDegrees(0, 0), PointFromDegrees(0, 1), NM(60)},
		{PointFromDegrees(0, 0), PointFromDegrees(1, 0), NM(60)},
		{PointFromDegrees(45, 0), PointFromDegrees(45, 0), 0},
		{PointFromDegrees(90, 0), PointFromDegrees(-90, 0), gomath.Pi},
	}
	for _, c := range cases {
		if d := c.a.DistanceTo(c.b); gomath.Abs(d-c.expected) > 1e-12 {
			t.Errorf("distance: got %.15g, expected %.15g", d, c.expected)
		}
		if d := c.b.DistanceTo(c.a); gomath.Abs(d-c.expected) > 1e-12 {
			t.Errorf("reverse distance: got %.15g, expected %.15g", d, c.expected)
		}
	}
}

func TestNMConversion(t *testing.T) {
	if got := InNM(NM(123.456)); gomath.Abs(got-123.456) > 1e-12 {
		t.Errorf("NM round trip: got %.15g", got)
	}
	// 1 degree of great circle is 60 NM.
	if got := InNM(Radians(1)); gomath.Abs(got-60) > 1e-12 {
		t.Errorf("1 degree: got %.15g NM, expected 60", got)
	}
}

func TestIsAntipodal(t *testing.T) {
	a := PointFromDegrees(0, 0)
	if !a.IsAntipodal(PointFromDegrees(0, 180), 1e-9) {
		t.Errorf("(0,0) and (0,180) should be antipodal")
	}
	if a.IsAntipodal(PointFromDegrees(0, 90), 1e-9) {
		t.Errorf("(0,0) and (0,90) should not be antipodal")
	}
}

func TestDestination(t *testing.T) {
	type testCase struct {
		start    Point3d
		bearing  float64
		dist     float64
		expected Point3d
	}
	cases := []testCase{
		// Due east along the equator.
		{PointFromDegrees(0, 0), gomath.Pi / 2, NM(60), PointFromDegrees(0, 1)},
		// Due north along the prime meridian.
		{PointFromDegrees(0, 0), 0, NM(60), PointFromDegrees(1, 0)},
		// Due south.
		{PointFromDegrees(10, 20), gomath.Pi, NM(120), PointFromDegrees(8, 20)},
	}
	for i, c := range cases {
		got := Destination(c.start, c.bearing, c.dist)
		if d := got.DistanceTo(c.expected); d > 1e-9 {
			t.Errorf("case %d: destination off by %.3g rad", i, d)
		}
	}
}
