// pkg/trajectory/pathbuilder.go
// Copyright(c) 2024 trajcore contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package trajectory

import (
	gomath "math"

	"gonum.org/v1/gonum/stat"

	"github.com/euctrl-pru/trajcore/pkg/sphere"
	"github.com/euctrl-pru/trajcore/pkg/trajerr"
)

// BuildHorizontalPath derives a SpherePath from cleaned (lat, lon) fixes via
// a recursive Ramer-Douglas-Peucker-like decomposition on the sphere,
// with extensions for along-track excursions (holding patterns, hooks) and
// short-leg fallback.
func BuildHorizontalPath(points []sphere.Point3d, cfg PathBuilderConfig) (*sphere.SpherePath, error) {
	if len(points) < 3 {
		return nil, trajerr.ErrInvalidInput
	}

	thresholdRad := sphere.NM(cfg.AcrossTrackToleranceNM)
	indices := findExtremePointIndices(points, thresholdRad, 0.1, true)
	extreme := make([]sphere.Point3d, len(indices))
	for i, idx := range indices {
		extreme[i] = points[idx]
	}

	prevIndex := 0
	index := indices[1]
	prevArc := fitArcToPoints(points[prevIndex:index+1], sphere.NewArc3d(extreme[0], extreme[1]))

	waypoints := []sphere.Point3d{prevArc.Start}
	turnDistancesRad := []float64{0.0}

	prevLength := prevArc.Length()
	for i := 1; i < len(extreme)-1; i++ {
		prevIndex = index
		index = indices[i+1]
		arc := fitArcToPoints(points[prevIndex:index+1], sphere.NewArc3d(extreme[i], extreme[i+1]))

		turnAngle := prevArc.TurnAngle(arc.Finish)
		maxTurnDistance := gomath.Min(prevLength, arc.Length()) / 2
		if max := sphere.NM(sphere.MaxTurnInitiationNM); maxTurnDistance > max {
			maxTurnDistance = max
		}

		waypoint := arc.Start
		turnDistance := 0.0

		isValidTurn := gomath.Abs(turnAngle) > sphere.MinTurnAngle &&
			gomath.Abs(turnAngle) <= sphere.MaxTurnAngle &&
			maxTurnDistance > sphere.NM(2.0)
		if isValidTurn {
			waypoint = calculateIntersection(prevArc, arc)
			turnDistance = calculateTurnInitiationDistance(prevArc, arc, points[prevIndex+1],
				maxTurnDistance, thresholdRad/4.0)
		}
		waypoints = append(waypoints, waypoint)
		turnDistancesRad = append(turnDistancesRad, turnDistance)

		prevArc = arc
		prevLength = arc.Length()
	}

	waypoints = append(waypoints, prevArc.Finish)
	turnDistancesRad = append(turnDistancesRad, 0.0)

	turnDistancesNM := make([]float64, len(turnDistancesRad))
	for i, d := range turnDistancesRad {
		turnDistancesNM[i] = sphere.InNM(d)
	}

	return sphere.NewSpherePath(waypoints, turnDistancesNM, cfg.MinLegLengthNM)
}

// minimumArcLength is the 0.1 NM floor below which a leg is too short to
// carry a meaningful cross-track fit.
func minimumArcLength() float64 { return sphere.NM(0.1) }

// findFurthestDistance returns the distance and index of the point in
// points furthest from points[0].
func findFurthestDistance(points []sphere.Point3d) (float64, int) {
	best, bestIdx := -1.0, 0
	for i, p := range points {
		d := p.DistanceTo(points[0])
		if d > best {
			best, bestIdx = d, i
		}
	}
	return best, bestIdx
}

// findMostExtreme returns the most extreme (largest magnitude, signed)
// value in vs and its index.
func findMostExtreme(vs []float64) (float64, int) {
	maxV, maxI := vs[0], 0
	minV, minI := vs[0], 0
	for i, v := range vs {
		if v > maxV {
			maxV, maxI = v, i
		}
		if v < minV {
			minV, minI = v, i
		}
	}
	if maxV < -minV {
		return minV, minI
	}
	return maxV, maxI
}

// findExtremePointAlongTrackIndex looks for a point lying beyond either end
// of arc (a holding-pattern or hooking excursion) when no cross-track point
// qualified.
func findExtremePointAlongTrackIndex(arc sphere.Arc3d, points []sphere.Point3d, threshold float64) int {
	atds := make([]float64, len(points))
	for i, p := range points {
		atds[i] = arc.AlongTrackDistance(p)
	}
	maxATD, maxI := atds[0], 0
	minATD, minI := atds[0], 0
	for i, a := range atds {
		if a > maxATD {
			maxATD, maxI = a, i
		}
		if a < minATD {
			minATD, minI = a, i
		}
	}
	pastEnd := maxATD - arc.Length()
	pastStart := -minATD
	if gomath.Max(pastStart, pastEnd) > threshold {
		if pastStart < pastEnd {
			return maxI
		}
		return minI
	}
	return 0
}

// findExtremePointIndex finds the point in points[firstIndex:lastIndex+1]
// furthest from the arc joining the endpoints: cross-track first,
// along-track excursion second, short-leg fallback third.
func findExtremePointIndex(points []sphere.Point3d, firstIndex, lastIndex int,
	threshold, xtdRatio float64, calcAlongTrack bool) int {
	maxXTDIndex := lastIndex
	if lastIndex-firstIndex <= 1 {
		return maxXTDIndex
	}

	arc := sphere.NewArc3d(points[firstIndex], points[lastIndex])
	minArcLen := minimumArcLength()
	if arc.Length() > minArcLen {
		inner := points[firstIndex+1 : lastIndex]
		xtds := make([]float64, len(inner))
		for i, p := range inner {
			xtds[i] = arc.CrossTrackDistance(p)
		}
		maxXTD, xtdIdx := findMostExtreme(xtds)
		xtdIdx++

		xtdThreshold := gomath.Min(threshold, xtdRatio*arc.Length())
		if xtdThreshold < minArcLen {
			xtdThreshold = minArcLen
		}
		if gomath.Abs(maxXTD) > xtdThreshold {
			maxXTDIndex = firstIndex + xtdIdx
		} else if calcAlongTrack {
			atdIdx := findExtremePointAlongTrackIndex(arc, points[firstIndex:lastIndex+1], minArcLen)
			if atdIdx != 0 {
				maxXTDIndex = firstIndex + atdIdx
			}
		}
	} else {
		dist, idx := findFurthestDistance(points[firstIndex:lastIndex])
		if dist > minArcLen {
			idx += firstIndex
			endDistance := points[idx].DistanceTo(points[lastIndex])
			if endDistance > minArcLen {
				maxXTDIndex = idx
			}
		}
	}
	return maxXTDIndex
}

// findExtremePointIndices drives the recursive decomposition iteratively
// with an explicit stack: a worklist of "most extreme point found so far"
// searched toward the path start, then outward.
func findExtremePointIndices(points []sphere.Point3d, threshold, xtdRatio float64, calcAlongTrack bool) []int {
	finishIndex := len(points) - 1
	startIndex := 0
	indices := []int{0}

	if len(points) > 2 {
		distance, _ := findFurthestDistance(points)
		if threshold < distance {
			index := findExtremePointIndex(points, startIndex, finishIndex, threshold, xtdRatio, calcAlongTrack)
			lastIndex := finishIndex
			var lastIndices []int

			for index < finishIndex {
				if index < lastIndex {
					lastIndices = append(lastIndices, lastIndex)
					lastIndex = index
				} else {
					indices = append(indices, lastIndex)
					startIndex = lastIndex
					index = startIndex
					lastIndex = lastIndices[len(lastIndices)-1]
					lastIndices = lastIndices[:len(lastIndices)-1]
				}
				index = findExtremePointIndex(points, startIndex, lastIndex, threshold, xtdRatio, calcAlongTrack)
			}
		}
	}

	indices = append(indices, finishIndex)
	return indices
}

// fitArcToPoints replaces arc with the least-squares line through points in
// (along-track, cross-track) coordinates of the initial arc: regress
// cross-track distance against
// along-track distance, then re-home both endpoints perpendicular to the
// initial arc by the fitted offsets.
func fitArcToPoints(points []sphere.Point3d, arc sphere.Arc3d) sphere.Arc3d {
	if len(points) < 2 {
		return arc
	}
	atds := make([]float64, len(points))
	xtds := make([]float64, len(points))
	for i, p := range points {
		atds[i] = arc.AlongTrackDistance(p)
		xtds[i] = arc.CrossTrackDistance(p)
	}
	alpha, beta := stat.LinearRegression(atds, xtds, nil, false)
	a := arc.PerpPosition(arc.Start, alpha)
	b := arc.PerpPosition(arc.Finish, alpha+arc.Length()*beta)
	return sphere.NewArc3d(a, b)
}

// calculateIntersection returns the point where prevArc's and arc's great
// circles genuinely cross, falling back to arc.Start when the legs are
// colinear.
func calculateIntersection(prevArc, arc sphere.Arc3d) sphere.Point3d {
	p, ok := arc.Intersection(prevArc)
	if !ok {
		return arc.Start
	}
	return p
}

// calculateBisector returns a short arc from the waypoint along the
// direction bisecting the turn between prevArc and arc, used to measure how
// far the raw corner point sits from the symmetric turn centreline.
func calculateBisector(prevArc, arc sphere.Arc3d) sphere.Arc3d {
	waypoint := arc.Start
	azIn := prevArc.AzimuthAt(waypoint)
	turnAngle := prevArc.TurnAngle(arc.Finish)
	bisectorAz := azIn + turnAngle/2
	dest := sphere.Destination(waypoint, bisectorAz, minimumArcLength())
	return sphere.NewArc3d(waypoint, dest)
}

// calculateTurnInitiationDistance chooses the turn-initiation distance so
// that the tangent turn arc passes as close as possible to the raw point
// nearest the waypoint, subject to maxDistance and the across-track
// threshold.
func calculateTurnInitiationDistance(prevArc, arc sphere.Arc3d, point sphere.Point3d,
	maxDistance, threshold float64) float64 {
	distance := arc.Start.DistanceTo(point)
	if distance >= maxDistance {
		return maxDistance
	}

	xtdIn := gomath.Abs(prevArc.CrossTrackDistance(point))
	xtdOut := gomath.Abs(arc.CrossTrackDistance(point))
	if xtdIn <= threshold || xtdOut <= threshold {
		return gomath.Min(distance, maxDistance)
	}

	bisector := calculateBisector(prevArc, arc)
	xtd := gomath.Abs(bisector.CrossTrackDistance(point))
	if xtd >= distance {
		return gomath.Min(distance, maxDistance)
	}

	angle := gomath.Acos(xtd / distance)
	halfTurnAngle := gomath.Abs(prevArc.TurnAngle(arc.Finish)) / 2
	cosAngle := gomath.Cos(angle)
	cosHalfTurnAngle := gomath.Cos(halfTurnAngle)
	sin2HalfTurnAngle := 1 - cosHalfTurnAngle*cosHalfTurnAngle
	if sin2HalfTurnAngle <= 0 {
		return gomath.Min(distance, maxDistance)
	}
	factor := cosAngle*cosAngle - sin2HalfTurnAngle
	if factor < 0 {
		factor = 0
	}
	radius := distance * cosHalfTurnAngle * (cosAngle + gomath.Sqrt(factor)) / sin2HalfTurnAngle
	distance = radius * gomath.Tan(halfTurnAngle)

	return gomath.Min(distance, maxDistance)
}
