// pkg/trajectory/altitude.go
// Copyright(c) 2024 trajcore contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package trajectory

import (
	gomath "math"

	"gonum.org/v1/gonum/stat"
)

// AltitudeProfileType classifies a trajectory's vertical shape.
type AltitudeProfileType int

const (
	Climbing AltitudeProfileType = iota
	Descending
	Cruising
	ClimbingAndDescending
)

func (t AltitudeProfileType) String() string {
	switch t {
	case Climbing:
		return "CLIMBING"
	case Descending:
		return "DESCENDING"
	case Cruising:
		return "CRUISING"
	default:
		return "CLIMBING_AND_DESCENDING"
	}
}

// AltitudeProfile is a piecewise altitude-vs-path-distance profile that
// excludes interior cruise samples, keeping only the entry and exit of each
// cruise section.
type AltitudeProfile struct {
	Distances []float64 // NM, strictly non-decreasing
	Altitudes []float64 // feet
}

// Interpolate returns the altitude at each of distances via piecewise
// linear interpolation between the profile's endpoints (the original
// altitude samples are themselves exact, so linear interpolation between
// endpoints suffices for altitude, unlike time and position which need the
// spline treatment of TimeProfile/SpherePath).
func (ap AltitudeProfile) Interpolate(distances []float64) []float64 {
	out := make([]float64, len(distances))
	for i, d := range distances {
		out[i] = ap.interpolateOne(d)
	}
	return out
}

func (ap AltitudeProfile) interpolateOne(d float64) float64 {
	n := len(ap.Distances)
	if n == 0 {
		return 0
	}
	if d <= ap.Distances[0] {
		return ap.Altitudes[0]
	}
	if d >= ap.Distances[n-1] {
		return ap.Altitudes[n-1]
	}
	lo := 0
	for lo < n-1 && ap.Distances[lo+1] < d {
		lo++
	}
	d0, d1 := ap.Distances[lo], ap.Distances[lo+1]
	if d1 == d0 {
		return ap.Altitudes[lo]
	}
	t := (d - d0) / (d1 - d0)
	return ap.Altitudes[lo] + t*(ap.Altitudes[lo+1]-ap.Altitudes[lo])
}

// AltitudeRange returns the min/max altitude over [start, finish] (used by
// the intersection resolver to test vertical overlap against a volume).
func (ap AltitudeProfile) AltitudeRange(start, finish float64) (min, max float64) {
	min, max = gomath.Inf(1), gomath.Inf(-1)
	consider := func(a float64) {
		if a < min {
			min = a
		}
		if a > max {
			max = a
		}
	}
	consider(ap.interpolateOne(start))
	consider(ap.interpolateOne(finish))
	for i, d := range ap.Distances {
		if d > start && d < finish {
			consider(ap.Altitudes[i])
		}
	}
	return min, max
}

// IntersectionDistances returns the distances in (start, finish) at which
// the piecewise-linear altitude profile crosses the given altitude.
func (ap AltitudeProfile) IntersectionDistances(altitude, start, finish float64) []float64 {
	var out []float64
	for i := 0; i < len(ap.Distances)-1; i++ {
		d0, d1 := ap.Distances[i], ap.Distances[i+1]
		a0, a1 := ap.Altitudes[i], ap.Altitudes[i+1]
		segStart, segFinish := gomath.Max(d0, start), gomath.Min(d1, finish)
		if segStart >= segFinish || a0 == a1 {
			continue
		}
		if (a0 < altitude) == (a1 < altitude) {
			continue
		}
		t := (altitude - a0) / (a1 - a0)
		d := d0 + t*(d1-d0)
		if d > segStart && d < segFinish {
			out = append(out, d)
		}
	}
	return out
}

// Type classifies the profile by the sign of altitude change between
// endpoints, refined by the presence of cruise sections.
func (ap AltitudeProfile) Type(cruiseSections int) AltitudeProfileType {
	n := len(ap.Altitudes)
	if n < 2 {
		return Cruising
	}
	delta := ap.Altitudes[n-1] - ap.Altitudes[0]
	switch {
	case cruiseSections > 0 && isFlat(ap.Altitudes):
		return Cruising
	case cruiseSections > 0:
		return ClimbingAndDescending
	case delta > 0:
		return Climbing
	case delta < 0:
		return Descending
	default:
		return Cruising
	}
}

func isFlat(alts []float64) bool {
	if len(alts) == 0 {
		return true
	}
	first := alts[0]
	for _, a := range alts {
		if a != first {
			return false
		}
	}
	return true
}

// TopOfClimbDistance returns the distance at the end of the first climbing
// run, or the last distance if the trajectory never levels off.
func (ap AltitudeProfile) TopOfClimbDistance() float64 {
	for i := 1; i < len(ap.Altitudes); i++ {
		if ap.Altitudes[i] <= ap.Altitudes[i-1] {
			return ap.Distances[i-1]
		}
	}
	if len(ap.Distances) == 0 {
		return 0
	}
	return ap.Distances[len(ap.Distances)-1]
}

// TopOfDescentDistance returns the distance at the start of the final
// descending run: the last distance if the profile does not end in a
// descent, the first distance if it descends throughout.
func (ap AltitudeProfile) TopOfDescentDistance() float64 {
	n := len(ap.Altitudes)
	for i := n - 2; i >= 0; i-- {
		if ap.Altitudes[i] <= ap.Altitudes[i+1] {
			if i+1 < len(ap.Distances) {
				return ap.Distances[i+1]
			}
		}
	}
	if len(ap.Distances) == 0 {
		return 0
	}
	return ap.Distances[0]
}

// FindLevelSections returns the start/finish index pairs of every maximal
// run of consecutive samples with exactly equal altitude, length >= 2.
// An input of two or fewer samples yields no sections.
func FindLevelSections(alts []float64) []int {
	var out []int
	n := len(alts)
	if n <= 2 {
		return out
	}

	isLevel := alts[0] == alts[1]
	if isLevel {
		out = append(out, 0)
	}
	alt := alts[1]
	for i := 1; i < n-1; i++ {
		next := alts[i+1]
		if isLevel {
			isLevel = alt == next
			if !isLevel {
				out = append(out, i)
			}
		} else {
			isLevel = alt == next
			if isLevel {
				out = append(out, i)
			}
		}
		alt = next
	}
	if isLevel {
		out = append(out, n-1)
	}
	return out
}

// findCruiseSections filters level sections down to those at or above
// climbThresholdFt, i.e. the ones treated as cruise rather than a
// leveling-off during climb/descent.
func findCruiseSections(alts []float64, climbThresholdFt float64) []int {
	levels := FindLevelSections(alts)
	var cruise []int
	for i := 0; i+1 < len(levels); i += 2 {
		start, finish := levels[i], levels[i+1]
		if alts[start] >= climbThresholdFt {
			cruise = append(cruise, start, finish)
		}
	}
	return cruise
}

// ClosestCruisingAltitude snaps alt (feet) to the nearest standard flight
// level: 500 ft quadrantal/semi-circular steps when magTrackDeg is known,
// else the closest 1000 ft level.
func ClosestCruisingAltitude(alt, magTrackDeg float64, haveTrack bool) float64 {
	if haveTrack {
		// Eastbound tracks (0-179) fly odd thousands + 500 (the
		// semi-circular rule simplified to its 500 ft quadrantal step);
		// westbound fly even thousands + 500. Both sets repeat every
		// 2000 ft, offset by 1500 ft (east) or 500 ft (west).
		offset := 1500.0
		if gomath.Mod(magTrackDeg, 360) >= 180 {
			offset = 500.0
		}
		return gomath.Round((alt-offset)/2000.0)*2000.0 + offset
	}
	return gomath.Round(alt/1000.0) * 1000.0
}

// setCruiseAltitudes returns a copy of alts with every sample from a
// cruise section's start+1 through its finish snapped to the cruise
// section's standard flight level.
func setCruiseAltitudes(alts []float64, cruiseSections []int) []float64 {
	out := make([]float64, len(alts))
	copy(out, alts)
	for i := 0; i+1 < len(cruiseSections); i += 2 {
		start, finish := cruiseSections[i], cruiseSections[i+1]
		if start >= finish {
			continue
		}
		level := ClosestCruisingAltitude(alts[start+1], 0, false)
		for j := start + 1; j <= finish; j++ {
			out[j] = level
		}
	}
	return out
}

// cruiseDeltaAltitudes returns the residuals of the raw cruise-section
// altitudes from their snapped flight level, used for the quality metrics.
func cruiseDeltaAltitudes(alts []float64, cruiseSections []int) []float64 {
	var deltas []float64
	for i := 0; i+1 < len(cruiseSections); i += 2 {
		start, finish := cruiseSections[i]+1, cruiseSections[i+1]
		if start >= finish {
			continue
		}
		level := ClosestCruisingAltitude(alts[start], 0, false)
		for j := start; j < finish; j++ {
			deltas = append(deltas, alts[j]-level)
		}
	}
	return deltas
}

// AnalyseAltitudes builds an AltitudeProfile from raw distances/altitudes,
// snapping cruise sections to standard flight levels and dropping their
// interior samples.
func AnalyseAltitudes(distances, altitudes []float64, climbThresholdFt float64) (AltitudeProfile, float64, float64, int) {
	cruiseSections := findCruiseSections(altitudes, climbThresholdFt)

	deltas := cruiseDeltaAltitudes(altitudes, cruiseSections)
	altSD, maxAlt := 0.0, 0.0
	if len(deltas) > 0 {
		altSD = stat.StdDev(deltas, nil)
		maxAlt = maxAbsDelta(deltas)
	}

	snapped := setCruiseAltitudes(altitudes, cruiseSections)
	isCruise := make([]bool, len(altitudes))
	for i := 0; i+1 < len(cruiseSections); i += 2 {
		start, finish := cruiseSections[i]+1, cruiseSections[i+1]
		for j := start; j < finish; j++ {
			isCruise[j] = true
		}
	}

	var dists, alts []float64
	for i := range altitudes {
		if !isCruise[i] {
			dists = append(dists, distances[i])
			alts = append(alts, snapped[i])
		}
	}

	return AltitudeProfile{Distances: dists, Altitudes: alts}, altSD, maxAlt, len(cruiseSections) / 2
}

func maxAbsDelta(deltas []float64) float64 {
	maxV, minV := deltas[0], deltas[0]
	for _, d := range deltas {
		if d > maxV {
			maxV = d
		}
		if d < minV {
			minV = d
		}
	}
	if maxV > -minV {
		return maxV
	}
	return -minV
}
