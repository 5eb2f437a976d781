// pkg/sphere/path.go
// Copyright(c) 2024 trajcore contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sphere

import (
	gomath "math"

	"github.com/euctrl-pru/trajcore/pkg/trajerr"
)

// PointType tags a path boundary as an original waypoint or one of the
// two ends of a turn arc spliced in at that waypoint.
type PointType int

const (
	WaypointPoint PointType = iota
	TurnStartPoint
	TurnFinishPoint
)

func (t PointType) String() string {
	switch t {
	case TurnStartPoint:
		return "TurnStart"
	case TurnFinishPoint:
		return "TurnFinish"
	default:
		return "Waypoint"
	}
}

// Boundary is one entry of SpherePath.SectionBoundaries().
type Boundary struct {
	Distance      float64 // cumulative path distance, radians
	Type          PointType
	WaypointIndex int
}

type segmentKind int

const (
	straightSegment segmentKind = iota
	turnSegment
)

type segment struct {
	kind        segmentKind
	startDist   float64 // cumulative path distance at the start of this segment
	length      float64 // segment length, radians
	legIndex    int     // straightSegment: index into legs
	legOffset   float64 // straightSegment: distance into the leg at startDist
	turn        SphereTurnArc
	waypointIdx int // turnSegment: which waypoint owns this turn
}

// SpherePath is an ordered sequence of waypoints joined by great-circle
// legs, with a tangent turn arc spliced in at each interior waypoint
// where the turn geometry permits one.
type SpherePath struct {
	waypoints       []Point3d
	legs            []Arc3d
	legLengths      []float64
	turnAngles      []float64 // len(waypoints); 0 at the endpoints
	turnInitDistNM  []float64 // len(waypoints); 0 at the endpoints and wherever the turn was suppressed
	turnInitDistRad []float64 // len(waypoints); the same distance, radians, after clamping
	turnHalfLengths []float64 // len(waypoints); ArcLength()/2 of the turn at that waypoint, else 0
	turns           []*SphereTurnArc
	pathLengths     []float64 // per leg: leg length minus the turn-initiation distances at both ends
	pathDistances   []float64 // cumulative distance at each waypoint
	segments        []segment
	totalLength     float64
}

// NewSpherePath builds a SpherePath from an ordered list of waypoints
// (>= 2) and the requested turn-initiation distance (NM) at each
// waypoint (the first and last entries are ignored: the endpoints never
// turn). Consecutive waypoints closer than minLegNM are rejected with
// trajerr.ErrShortLeg.
func NewSpherePath(waypoints []Point3d, turnInitNM []float64, minLegNM float64) (*SpherePath, error) {
	if len(waypoints) < 2 || len(waypoints) != len(turnInitNM) {
		return nil, trajerr.ErrInvalidInput
	}

	n := len(waypoints)
	legs := make([]Arc3d, n-1)
	legLengths := make([]float64, n-1)
	for i := 0; i < n-1; i++ {
		legs[i] = NewArc3d(waypoints[i], waypoints[i+1])
		legLengths[i] = legs[i].Length()
		if InNM(legLengths[i]) < minLegNM {
			return nil, trajerr.ErrShortLeg
		}
	}

	turnAngles := make([]float64, n)
	turnInitDist := make([]float64, n)
	turnHalf := make([]float64, n)
	turns := make([]*SphereTurnArc, n)

	for i := 1; i < n-1; i++ {
		legIn, legOut := legs[i-1], legs[i]
		turnAngles[i] = normalizeAngle(legOut.AzimuthAt(waypoints[i]) - legIn.AzimuthAt(waypoints[i]))

		requested := NM(turnInitNM[i])
		maxByLegs := 0.5 * gomath.Min(legLengths[i-1], legLengths[i])
		maxAllowed := gomath.Min(NM(MaxTurnInitiationNM), maxByLegs)
		dist := Clamp(requested, 0, maxAllowed)

		turn, ok := NewSphereTurnArc(legIn, legOut, dist)
		if !ok {
			continue
		}
		turns[i] = &turn
		turnInitDist[i] = dist
		turnHalf[i] = turn.ArcLength() / 2
	}

	pathLengths := make([]float64, n-1)
	for i := 0; i < n-1; i++ {
		pathLengths[i] = legLengths[i] - turnInitDist[i] - turnInitDist[i+1]
	}
	turnInitDistNMOut := make([]float64, n)
	for i := range turnInitDist {
		turnInitDistNMOut[i] = InNM(turnInitDist[i])
	}

	pathDistances := make([]float64, n)
	for i := 0; i < n-1; i++ {
		arcAfter := 0.0
		if turns[i+1] != nil {
			arcAfter = turns[i+1].ArcLength()
		}
		pathDistances[i+1] = pathDistances[i] + pathLengths[i] + arcAfter
	}

	p := &SpherePath{
		waypoints:       waypoints,
		legs:            legs,
		legLengths:      legLengths,
		turnAngles:      turnAngles,
		turnInitDistNM:  turnInitDistNMOut,
		turnInitDistRad: turnInitDist,
		turnHalfLengths: turnHalf,
		turns:           turns,
		pathLengths:     pathLengths,
		pathDistances:   pathDistances,
	}
	p.buildSegments()
	return p, nil
}

func (p *SpherePath) buildSegments() {
	n := len(p.waypoints)
	dist := 0.0
	for i := 0; i < n-1; i++ {
		// The straight section of leg i starts turnInitDistRad[i] into
		// the leg (consumed by the turn at its starting waypoint, if any).
		p.segments = append(p.segments, segment{
			kind:      straightSegment,
			startDist: dist,
			length:    p.pathLengths[i],
			legIndex:  i,
			legOffset: p.turnInitDistRad[i],
		})
		dist += p.pathLengths[i]

		if p.turns[i+1] != nil {
			t := *p.turns[i+1]
			p.segments = append(p.segments, segment{
				kind:        turnSegment,
				startDist:   dist,
				length:      t.ArcLength(),
				turn:        t,
				waypointIdx: i + 1,
			})
			dist += t.ArcLength()
		}
	}
	p.totalLength = dist
}

// Length returns the total path length in radians.
func (p *SpherePath) Length() float64 { return p.totalLength }

func (p *SpherePath) LegLengths() []float64      { return p.legLengths }
func (p *SpherePath) TurnAngles() []float64      { return p.turnAngles }
func (p *SpherePath) TurnHalfLengths() []float64 { return p.turnHalfLengths }
func (p *SpherePath) PathLengths() []float64     { return p.pathLengths }
func (p *SpherePath) PathDistances() []float64   { return p.pathDistances }
func (p *SpherePath) Waypoints() []Point3d       { return p.waypoints }

// TurnInitiationDistancesNM returns the turn-initiation distance at each
// waypoint, in nautical miles (0 at the endpoints and wherever a turn was
// suppressed).
func (p *SpherePath) TurnInitiationDistancesNM() []float64 { return p.turnInitDistNM }

// PositionAt returns the point at cumulative path distance d (radians),
// clamped to [0, Length()].
func (p *SpherePath) PositionAt(d float64) Point3d {
	seg := p.segmentAt(d)
	local := Clamp(d-seg.startDist, 0, seg.length)
	if seg.kind == turnSegment {
		return seg.turn.PositionAt(local)
	}
	return p.legs[seg.legIndex].PositionAt(seg.legOffset + local)
}

// GroundTrackAt returns the bearing (radians from north) of the path's
// direction of travel at cumulative distance d.
func (p *SpherePath) GroundTrackAt(d float64) float64 {
	seg := p.segmentAt(d)
	local := Clamp(d-seg.startDist, 0, seg.length)
	if seg.kind == turnSegment {
		return seg.turn.GroundTrackAt(local)
	}
	return p.legs[seg.legIndex].AzimuthAt(p.legs[seg.legIndex].PositionAt(seg.legOffset + local))
}

func (p *SpherePath) segmentAt(d float64) segment {
	d = Clamp(d, 0, p.totalLength)
	// Linear scan: paths are at most a few hundred waypoints long, so this
	// is not worth a binary search.
	for i, seg := range p.segments {
		if d <= seg.startDist+seg.length || i == len(p.segments)-1 {
			return seg
		}
	}
	return p.segments[len(p.segments)-1]
}

// PathDistanceOf returns the cumulative path distance of the point on
// the path closest to pt, searching every leg and turn (the "fallback"
// global search; SpherePath does not cache a locality hint across
// calls).
func (p *SpherePath) PathDistanceOf(pt Point3d, acrossTrackTol float64) float64 {
	_ = acrossTrackTol
	bestDist := gomath.Inf(1)
	bestPathDist := 0.0

	for _, seg := range p.segments {
		var closest, pathDist float64
		if seg.kind == straightSegment {
			leg := p.legs[seg.legIndex]
			atd := Clamp(leg.AlongTrackDistance(pt)-seg.legOffset, 0, seg.length)
			probe := leg.PositionAt(seg.legOffset + atd)
			closest = probe.DistanceTo(pt)
			pathDist = seg.startDist + atd
		} else {
			radial := pt.DistanceTo(seg.turn.Centre)
			closest = gomath.Abs(radial - seg.turn.Radius)
			s := Clamp(angleAroundAxis(seg.turn.Centre, seg.turn.Start, pt)*seg.turn.dirSign*seg.turn.Radius, 0, seg.length)
			pathDist = seg.startDist + s
		}
		if closest < bestDist {
			bestDist = closest
			bestPathDist = pathDist
		}
	}
	return bestPathDist
}

// CrossTrackDistanceAt returns the signed distance of pt from the path
// near legIndex: the ordinary cross-track distance to that leg's great
// circle, or the signed radial distance from the turn centre (positive
// outside the turn radius) when pt falls within the turn spliced at
// either end of that leg.
func (p *SpherePath) CrossTrackDistanceAt(pt Point3d, legIndex int) float64 {
	legIndex = Clamp(legIndex, 0, len(p.legs)-1)
	if t := p.turns[legIndex]; t != nil {
		if d := pt.DistanceTo(t.Centre); gomath.Abs(d-t.Radius) < gomath.Abs(p.legs[legIndex].CrossTrackDistance(pt)) {
			return d - t.Radius
		}
	}
	if t := p.turns[legIndex+1]; t != nil {
		if d := pt.DistanceTo(t.Centre); gomath.Abs(d-t.Radius) < gomath.Abs(p.legs[legIndex].CrossTrackDistance(pt)) {
			return d - t.Radius
		}
	}
	return p.legs[legIndex].CrossTrackDistance(pt)
}

// SectionBoundaries lists the cumulative distance and point type of
// every waypoint, turn-start, and turn-finish along the path, in order.
func (p *SpherePath) SectionBoundaries() []Boundary {
	var b []Boundary
	dist := 0.0
	b = append(b, Boundary{Distance: 0, Type: WaypointPoint, WaypointIndex: 0})
	for i := 0; i < len(p.legs); i++ {
		if p.turns[i+1] != nil {
			dist += p.pathLengths[i]
			b = append(b, Boundary{Distance: dist, Type: TurnStartPoint, WaypointIndex: i + 1})
			dist += p.turns[i+1].ArcLength()
			b = append(b, Boundary{Distance: dist, Type: TurnFinishPoint, WaypointIndex: i + 1})
		} else {
			dist += p.pathLengths[i]
			b = append(b, Boundary{Distance: dist, Type: WaypointPoint, WaypointIndex: i + 1})
		}
	}
	return b
}

// Subsection returns points tracing the path between startDist and
// finishDist (inclusive of the interpolated endpoints), at every
// boundary strictly between them.
func (p *SpherePath) Subsection(startDist, finishDist float64) []Point3d {
	pts := []Point3d{p.PositionAt(startDist)}
	for _, b := range p.SectionBoundaries() {
		if b.Distance > startDist && b.Distance < finishDist {
			pts = append(pts, p.PositionAt(b.Distance))
		}
	}
	pts = append(pts, p.PositionAt(finishDist))
	return pts
}

// angleAroundAxis returns the signed angle (radians) you would rotate
// "from" about axis (via rotateAroundAxis) to reach "to".
func angleAroundAxis(axis, from, to Point3d) float64 {
	u := from.Sub(axis.Scale(axis.Dot(from)))
	v := to.Sub(axis.Scale(axis.Dot(to)))
	return gomath.Atan2(axis.Dot(u.Cross(v)), u.Dot(v))
}
