// pkg/sphere/arc3d.go
// Copyright(c) 2024 trajcore contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sphere

import gomath "math"

// Arc3d is an oriented great-circle arc from Start to Finish.
type Arc3d struct {
	Start, Finish Point3d
	pole          Point3d // unit(Start x Finish): normal of the great-circle plane, oriented start->finish
	length        float64
}

// NewArc3d builds the great-circle arc from a to b. a and b must not be
// equal or antipodal (within about 1e-9 rad) or the pole is undefined;
// NewArc3d itself does not check this.
func NewArc3d(a, b Point3d) Arc3d {
	pole := a.Cross(b).Unit()
	return Arc3d{
		Start:  a,
		Finish: b,
		pole:   pole,
		length: a.DistanceTo(b),
	}
}

// Length returns the arc length in radians.
func (arc Arc3d) Length() float64 { return arc.length }

// Pole returns the unit normal of the arc's great-circle plane, oriented
// so that Start->Finish is a positive rotation about it.
func (arc Arc3d) Pole() Point3d { return arc.pole }

// PositionAt returns the point at distance d (radians) from Start along
// the arc's great circle, d may be negative or exceed Length to
// extrapolate beyond the arc's endpoints.
func (arc Arc3d) PositionAt(d float64) Point3d {
	c, s := gomath.Cos(d), gomath.Sin(d)
	return arc.Start.Scale(c).Add(arc.pole.Cross(arc.Start).Scale(s))
}

// CrossTrackDistance returns the signed perpendicular angular distance
// from p to the arc's great circle: positive on the pole's side, i.e. to
// the left of the Start->Finish direction, negative to the right.
func (arc Arc3d) CrossTrackDistance(p Point3d) float64 {
	return gomath.Asin(Clamp(p.Dot(arc.pole), -1, 1))
}

// AlongTrackDistance returns the signed distance from Start to the foot
// of the perpendicular from p onto the arc's great circle, positive in
// the Start->Finish direction.
func (arc Arc3d) AlongTrackDistance(p Point3d) float64 {
	xtd := arc.CrossTrackDistance(p)
	cosXtd := gomath.Cos(xtd)
	if gomath.Abs(cosXtd) < 1e-15 {
		return 0
	}
	distSP := arc.Start.DistanceTo(p)
	ratio := Clamp(gomath.Cos(distSP)/cosXtd, -1, 1)
	atd := gomath.Acos(ratio)
	if sign(arc.Start.Cross(p).Dot(arc.pole)) < 0 {
		atd = -atd
	}
	return atd
}

// ClosestDistance returns the angular distance from p to the closest
// point on the finite arc segment (clamped to [Start, Finish], unlike
// CrossTrackDistance which measures to the infinite great circle).
func (arc Arc3d) ClosestDistance(p Point3d) float64 {
	atd := arc.AlongTrackDistance(p)
	switch {
	case atd <= 0:
		return arc.Start.DistanceTo(p)
	case atd >= arc.length:
		return arc.Finish.DistanceTo(p)
	default:
		return gomath.Abs(arc.CrossTrackDistance(p))
	}
}

// PerpPosition returns the point reached by moving from p, perpendicular to
// this arc's great circle, by signed cross-track distance xtd. Used by the
// path builder to re-home a leg's endpoints after a least-squares refit.
func (arc Arc3d) PerpPosition(p Point3d, xtd float64) Point3d {
	return p.Scale(gomath.Cos(xtd)).Add(arc.pole.Scale(gomath.Sin(xtd)))
}

// northEast returns the local north and east unit tangent vectors at p.
func northEast(p Point3d) (north, east Point3d) {
	lat, lon := p.Latitude(), p.Longitude()
	north = Point3d{X: -gomath.Sin(lat) * gomath.Cos(lon), Y: -gomath.Sin(lat) * gomath.Sin(lon), Z: gomath.Cos(lat)}
	east = Point3d{X: -gomath.Sin(lon), Y: gomath.Cos(lon), Z: 0}
	return north, east
}

// Destination returns the point reached by travelling dist radians from
// p along the initial bearing (radians clockwise from north).
func Destination(p Point3d, bearing, dist float64) Point3d {
	north, east := northEast(p)
	tangent := north.Scale(gomath.Cos(bearing)).Add(east.Scale(gomath.Sin(bearing)))
	return p.Scale(gomath.Cos(dist)).Add(tangent.Scale(gomath.Sin(dist)))
}

// AzimuthAt returns the true bearing (radians clockwise from north) of
// the arc's direction of travel at point p, which is assumed to lie on
// (or very near) the arc's great circle.
func (arc Arc3d) AzimuthAt(p Point3d) float64 {
	tangent := arc.pole.Cross(p)
	north, east := northEast(p)
	return gomath.Atan2(tangent.Dot(east), tangent.Dot(north))
}

// TurnAngle returns the signed angle (radians, positive = turn right)
// between this arc's direction at Finish and the direction of the arc
// from Finish to c.
func (arc Arc3d) TurnAngle(c Point3d) float64 {
	if arc.Finish.Equal(c, 1e-12) {
		return 0
	}
	next := NewArc3d(arc.Finish, c)
	return normalizeAngle(next.AzimuthAt(arc.Finish) - arc.AzimuthAt(arc.Finish))
}

// Intersection returns the point where arc's great circle crosses
// other's, choosing the one of the two antipodal solutions within pi/2
// of arc's own starting point. ok is false when the arcs are colinear
// (parallel poles).
func (arc Arc3d) Intersection(other Arc3d) (p Point3d, ok bool) {
	cross := arc.pole.Cross(other.pole)
	n := cross.Norm()
	if n < 1e-12 {
		return Point3d{}, false
	}
	cand := cross.Unit()
	if cand.DistanceTo(arc.Start) > gomath.Pi/2 {
		cand = cand.Negate()
	}
	return cand, true
}
