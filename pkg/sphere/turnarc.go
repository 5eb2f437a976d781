// pkg/sphere/turnarc.go
// Copyright(c) 2024 trajcore contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sphere

import gomath "math"

// SphereTurnArc is a small-circle arc tangent to two consecutive
// great-circle legs at a shared waypoint, approximating the constant-radius
// turn a real aircraft flies instead of the raw polyline corner.
type SphereTurnArc struct {
	Start, Centre, Finish Point3d
	Angle                 float64 // signed turn angle, radians; positive = right turn
	Radius                float64 // angular turn radius, radians
	dirSign               float64 // rotation direction of Start->Finish about Centre
}

// NewSphereTurnArc builds the turn arc tangent to legIn (ending at the
// shared waypoint) and legOut (starting at it), with tangent points
// initiationDist before/after the waypoint. ok is false when the turn
// angle falls outside (MinTurnAngle, MaxTurnAngle] or initiationDist
// isn't strictly between 0 and the length of either leg, in which case
// the turn must be suppressed (waypoint kept as a hard corner).
func NewSphereTurnArc(legIn, legOut Arc3d, initiationDist float64) (SphereTurnArc, bool) {
	if initiationDist <= 0 || initiationDist >= legIn.Length() || initiationDist >= legOut.Length() {
		return SphereTurnArc{}, false
	}

	waypoint := legIn.Finish
	turnAngle := normalizeAngle(legOut.AzimuthAt(waypoint) - legIn.AzimuthAt(waypoint))
	theta := gomath.Abs(turnAngle)
	if theta <= MinTurnAngle || theta > MaxTurnAngle {
		return SphereTurnArc{}, false
	}

	start := legIn.PositionAt(legIn.Length() - initiationDist)
	finish := legOut.PositionAt(initiationDist)

	radius := initiationDist / gomath.Tan(theta/2)
	turnSign := sign(turnAngle)
	az1 := legIn.AzimuthAt(start)
	centre := Destination(start, az1+turnSign*gomath.Pi/2, radius)

	p1 := rotateAroundAxis(start, centre, theta)
	p2 := rotateAroundAxis(start, centre, -theta)
	dirSign := 1.0
	if p2.DistanceTo(finish) < p1.DistanceTo(finish) {
		dirSign = -1.0
	}

	return SphereTurnArc{
		Start:   start,
		Centre:  centre,
		Finish:  finish,
		Angle:   turnAngle,
		Radius:  radius,
		dirSign: dirSign,
	}, true
}

// ArcLength returns the turn arc's length in radians: Radius*|Angle|,
// the flat-turn approximation to the true small-circle length
// sin(Radius)*|Angle|, indistinguishable at the initiation distances
// this model permits (<= MaxTurnInitiationNM).
func (t SphereTurnArc) ArcLength() float64 {
	return t.Radius * gomath.Abs(t.Angle)
}

// PositionAt returns the point at arc length s (0 <= s <= ArcLength())
// from Start along the turn.
func (t SphereTurnArc) PositionAt(s float64) Point3d {
	phi := t.dirSign * s / t.Radius
	return rotateAroundAxis(t.Start, t.Centre, phi)
}

// GroundTrackAt returns the bearing (radians from north) of travel at arc
// length s along the turn: the tangent to the small circle is axis x
// position, signed by the turn's rotation direction.
func (t SphereTurnArc) GroundTrackAt(s float64) float64 {
	pos := t.PositionAt(s)
	tangent := t.Centre.Cross(pos).Scale(t.dirSign)
	north, east := northEast(pos)
	return gomath.Atan2(tangent.Dot(east), tangent.Dot(north))
}

// rotateAroundAxis rotates v by angle radians about the unit axis, via
// Rodrigues' rotation formula.
func rotateAroundAxis(v, axis Point3d, angle float64) Point3d {
	c, s := gomath.Cos(angle), gomath.Sin(angle)
	return v.Scale(c).
		Add(axis.Cross(v).Scale(s)).
		Add(axis.Scale(axis.Dot(v) * (1 - c)))
}
