// pkg/sphere/path_test.go
// Copyright(c) 2024 trajcore contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sphere

import (
	"errors"
	gomath "math"
	"testing"

	"github.com/euctrl-pru/trajcore/pkg/trajerr"
)

// turnPath is an L: 60 NM east along the equator, a 90 degree left turn
// with a 5 NM initiation distance, then 60 NM north.
func turnPath(t *testing.T) *SpherePath {
	t.Helper()
	waypoints := []Point3d{
		PointFromDegrees(0, 0),
		PointFromDegrees(0, 1),
		PointFromDegrees(1, 1),
	}
	p, err := NewSpherePath(waypoints, []float64{0, 5, 0}, 0.1)
	if err != nil {
		t.Fatalf("NewSpherePath: %v", err)
	}
	return p
}

// straightPath is 120 NM due east with a turn-free interior waypoint.
func straightPath(t *testing.T) *SpherePath {
	t.Helper()
	waypoints := []Point3d{
		PointFromDegrees(0, 0),
		PointFromDegrees(0, 1),
		PointFromDegrees(0, 2),
	}
	p, err := NewSpherePath(waypoints, []float64{0, 0, 0}, 0.1)
	if err != nil {
		t.Fatalf("NewSpherePath: %v", err)
	}
	return p
}

func TestSpherePathConstruction(t *testing.T) {
	p := turnPath(t)

	tids := p.TurnInitiationDistancesNM()
	if len(tids) != 3 || tids[0] != 0 || tids[2] != 0 {
		t.Fatalf("endpoint turn distances must be zero: %v", tids)
	}
	if gomath.Abs(tids[1]-5) > 1e-9 {
		t.Errorf("interior turn distance: got %.15g, expected 5", tids[1])
	}

	angles := p.TurnAngles()
	if gomath.Abs(gomath.Abs(angles[1])-gomath.Pi/2) > 1e-9 {
		t.Errorf("turn angle: got %.15g, expected pi/2 magnitude", angles[1])
	}

	// Path length: both legs shortened by the initiation distance, plus the
	// turn arc (radius 5/tan(45) = 5 NM over pi/2).
	arcLen := 5.0 / gomath.Tan(gomath.Pi/4) * gomath.Pi / 2
	expected := NM(55 + 55 + arcLen)
	if gomath.Abs(p.Length()-expected) > NM(0.01) {
		t.Errorf("path length: got %.15g NM, expected %.15g NM", InNM(p.Length()), 110+arcLen)
	}

	halves := p.TurnHalfLengths()
	if gomath.Abs(InNM(halves[1])-arcLen/2) > 0.01 {
		t.Errorf("turn half length: got %.15g NM, expected %.15g NM", InNM(halves[1]), arcLen/2)
	}

	pathLengths := p.PathLengths()
	if gomath.Abs(InNM(pathLengths[0])-55) > 0.01 || gomath.Abs(InNM(pathLengths[1])-55) > 0.01 {
		t.Errorf("per-leg path lengths: got %.15g, %.15g NM, expected 55, 55",
			InNM(pathLengths[0]), InNM(pathLengths[1]))
	}
}

func TestSpherePathSuppressedTurn(t *testing.T) {
	// A colinear interior waypoint has a turn angle below the minimum, so
	// its requested initiation distance is coerced to zero.
	waypoints := []Point3d{
		PointFromDegrees(0, 0),
		PointFromDegrees(0, 1),
		PointFromDegrees(0, 2),
	}
	p, err := NewSpherePath(waypoints, []float64{0, 10, 0}, 0.1)
	if err != nil {
		t.Fatalf("NewSpherePath: %v", err)
	}
	if tid := p.TurnInitiationDistancesNM()[1]; tid != 0 {
		t.Errorf("suppressed turn should have zero initiation distance, got %.15g", tid)
	}
	if gomath.Abs(p.Length()-NM(120)) > NM(0.01) {
		t.Errorf("straight path length: got %.15g NM, expected 120", InNM(p.Length()))
	}
}

func TestSpherePathErrors(t *testing.T) {
	a := PointFromDegrees(0, 0)
	b := PointFromDegrees(0, 0.005) // 0.3 NM
	if _, err := NewSpherePath([]Point3d{a, b}, []float64{0, 0}, 1.0); !errors.Is(err, trajerr.ErrShortLeg) {
		t.Errorf("expected ErrShortLeg, got %v", err)
	}
	if _, err := NewSpherePath([]Point3d{a}, []float64{0}, 0.1); !errors.Is(err, trajerr.ErrInvalidInput) {
		t.Errorf("single waypoint: expected ErrInvalidInput, got %v", err)
	}
	if _, err := NewSpherePath([]Point3d{a, b}, []float64{0}, 0.1); !errors.Is(err, trajerr.ErrInvalidInput) {
		t.Errorf("mismatched lengths: expected ErrInvalidInput, got %v", err)
	}
}

func TestPositionDistanceInversion(t *testing.T) {
	p := turnPath(t)
	// path_distance_of(position_at(s)) == s across straight sections and
	// the turn.
	for frac := 0.0; frac <= 1.0; frac += 0.02 {
		s := frac * p.Length()
		got := p.PathDistanceOf(p.PositionAt(s), NM(0.5))
		if gomath.Abs(got-s) > NM(0.001) {
			t.Errorf("s=%.4f NM: recovered %.4f NM", InNM(s), InNM(got))
		}
	}
}

func TestPathDistanceMonotone(t *testing.T) {
	p := turnPath(t)
	// Points near the path in increasing order project to non-decreasing
	// path distances.
	probe := []Point3d{
		PointFromDegrees(0.01, 0.1),
		PointFromDegrees(-0.01, 0.4),
		PointFromDegrees(0.005, 0.8),
		PointFromDegrees(0.15, 1.01),
		PointFromDegrees(0.5, 0.99),
		PointFromDegrees(0.9, 1.005),
	}
	last := -1.0
	for i, pt := range probe {
		d := p.PathDistanceOf(pt, NM(0.5))
		if d < last {
			t.Errorf("probe %d: path distance %.4f NM < previous %.4f NM", i, InNM(d), InNM(last))
		}
		last = d
	}
}

func TestCrossTrackDistanceAtPath(t *testing.T) {
	p := straightPath(t)
	for i, wp := range p.Waypoints() {
		leg := i
		if leg >= len(p.LegLengths()) {
			leg = len(p.LegLengths()) - 1
		}
		if xtd := gomath.Abs(p.CrossTrackDistanceAt(wp, leg)); xtd > NM(MinLengthNM) {
			t.Errorf("waypoint %d: |xtd| %.3g rad off the path", i, xtd)
		}
	}

	// Signed offsets either side of the first leg.
	north := p.CrossTrackDistanceAt(PointFromDegrees(0.1, 0.5), 0)
	south := p.CrossTrackDistanceAt(PointFromDegrees(-0.1, 0.5), 0)
	if sign(north) == sign(south) {
		t.Errorf("points either side should have opposite signs: %.3g, %.3g", north, south)
	}
	if gomath.Abs(gomath.Abs(north)-Radians(0.1)) > 1e-9 {
		t.Errorf("offset magnitude: got %.15g, expected %.15g", gomath.Abs(north), Radians(0.1))
	}
}

func TestCrossTrackDistanceInTurn(t *testing.T) {
	p := turnPath(t)
	// The midpoint of the turn lies on the turn arc, so its radial
	// cross-track distance is near zero even though it is well off both
	// straight legs.
	boundaries := p.SectionBoundaries()
	var turnStart, turnFinish float64
	for _, b := range boundaries {
		switch b.Type {
		case TurnStartPoint:
			turnStart = b.Distance
		case TurnFinishPoint:
			turnFinish = b.Distance
		}
	}
	mid := p.PositionAt((turnStart + turnFinish) / 2)
	if xtd := gomath.Abs(p.CrossTrackDistanceAt(mid, 0)); xtd > NM(0.01) {
		t.Errorf("turn midpoint: radial xtd %.4f NM, expected ~0", InNM(xtd))
	}
}

func TestSectionBoundaries(t *testing.T) {
	p := turnPath(t)
	b := p.SectionBoundaries()
	expected := []PointType{WaypointPoint, TurnStartPoint, TurnFinishPoint, WaypointPoint}
	if len(b) != len(expected) {
		t.Fatalf("got %d boundaries, expected %d", len(b), len(expected))
	}
	for i, e := range expected {
		if b[i].Type != e {
			t.Errorf("boundary %d: type %v, expected %v", i, b[i].Type, e)
		}
	}
	if b[0].Distance != 0 {
		t.Errorf("first boundary at %.4g, expected 0", b[0].Distance)
	}
	if gomath.Abs(b[len(b)-1].Distance-p.Length()) > 1e-12 {
		t.Errorf("last boundary at %.6f NM, expected path length %.6f NM",
			InNM(b[len(b)-1].Distance), InNM(p.Length()))
	}
	for i := 1; i < len(b); i++ {
		if b[i].Distance <= b[i-1].Distance {
			t.Errorf("boundary distances must increase: %v", b)
		}
	}
	if gomath.Abs(InNM(b[1].Distance)-55) > 0.01 {
		t.Errorf("turn start at %.4f NM, expected 55", InNM(b[1].Distance))
	}
}

func TestSubsection(t *testing.T) {
	p := turnPath(t)
	start, finish := NM(10), NM(100)
	pts := p.Subsection(start, finish)
	if len(pts) < 4 {
		t.Fatalf("expected the endpoints plus both turn boundaries, got %d points", len(pts))
	}
	if d := pts[0].DistanceTo(p.PositionAt(start)); d > 1e-12 {
		t.Errorf("first subsection point off by %.3g", d)
	}
	if d := pts[len(pts)-1].DistanceTo(p.PositionAt(finish)); d > 1e-12 {
		t.Errorf("last subsection point off by %.3g", d)
	}
	// Interior points project to increasing distances within the window.
	last := start - 1
	for i, pt := range pts {
		d := p.PathDistanceOf(pt, NM(0.5))
		if d < last-NM(0.001) {
			t.Errorf("subsection point %d out of order", i)
		}
		last = d
	}
}

func TestGroundTrackAt(t *testing.T) {
	p := turnPath(t)
	// Eastbound at the start, northbound at the end.
	if got := p.GroundTrackAt(0); gomath.Abs(normalizeAngle(got-gomath.Pi/2)) > 1e-6 {
		t.Errorf("track at start: %.15g, expected pi/2", got)
	}
	if got := p.GroundTrackAt(p.Length()); gomath.Abs(normalizeAngle(got)) > 1e-4 {
		t.Errorf("track at end: %.15g, expected 0", got)
	}
}
