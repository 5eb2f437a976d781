// pkg/trajectory/assembler.go
// Copyright(c) 2024 trajcore contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package trajectory

import (
	"fmt"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/euctrl-pru/trajcore/pkg/sphere"
	"github.com/euctrl-pru/trajcore/pkg/trajerr"
	"github.com/euctrl-pru/trajcore/pkg/util"
)

// Metrics is the quality-metrics row produced alongside a SmoothedTrajectory:
// one row per flight, suitable for writing straight to a CSV.
type Metrics struct {
	FlightID        string
	ProfileType     AltitudeProfileType
	PositionPeriodS float64
	ClimbPeriodS    float64
	CruisePeriodS   float64
	DescentPeriodS  float64
	Unordered       bool
	TimeSD          float64
	MaxTimeDiff     float64
	MaxTimeIndex    int
	XTESD           float64
	MaxXTE          float64
	MaxXTEIndex     int
	AltSD           float64
	MaxAlt          float64
	CruiseSections  int
}

// timedPosition pairs a cleaned report with its projected path distance, for
// the sort-by-(distance,time) pass.
type timedPosition struct {
	distance float64
	time     time.Time
	alt      float64
	orig     int
}

// Assemble runs the full per-flight pipeline on a set of already
// time-sorted, already-cleaned position reports: it builds the horizontal
// path, projects every position onto it, smooths altitude and time, and
// returns the resulting SmoothedTrajectory with its quality-metrics row.
//
// Assemble has no side effects and raises no panics on malformed input: every
// failure mode is returned as one of the trajerr sentinel
// errors, wrapped with the flight id for context.
func Assemble(flightID string, reports []PositionReport, cfg AssemblerConfig) (*SmoothedTrajectory, *Metrics, error) {
	if len(reports) < 2 {
		return nil, nil, fmt.Errorf("flight %s: %w", flightID, trajerr.ErrInvalidInput)
	}

	avgPeriod := averageSamplePeriod(reports)

	points := util.MapSlice(reports, func(r PositionReport) sphere.Point3d {
		return sphere.PointFromDegrees(r.Lat, r.Lon)
	})

	path, err := BuildHorizontalPath(points, cfg.PathBuilder)
	if err != nil {
		return nil, nil, fmt.Errorf("flight %s: %w", flightID, err)
	}
	if sphere.InNM(path.Length()) <= cfg.PathShortToleranceNM {
		return nil, nil, fmt.Errorf("flight %s: %w", flightID, trajerr.ErrPathTooShort)
	}

	positions := make([]timedPosition, len(reports))
	for i, r := range reports {
		d := sphere.InNM(path.PathDistanceOf(points[i], sphere.NM(cfg.PathShortToleranceNM)))
		positions[i] = timedPosition{distance: d, time: r.Time, alt: r.Alt, orig: i}
	}

	pathLengthNM := sphere.InNM(path.Length())
	lastDistance := positions[len(positions)-1].distance
	if pathLengthNM-lastDistance > cfg.PathShortToleranceNM {
		return nil, nil, fmt.Errorf("flight %s: %w", flightID, trajerr.ErrPathShort)
	}

	unordered := sortTimedPositions(positions)

	distances := make([]float64, len(positions))
	times := make([]time.Time, len(positions))
	alts := make([]float64, len(positions))
	for i, p := range positions {
		distances[i] = p.distance
		times[i] = p.time
		alts[i] = p.alt
	}

	duplicate := FindDuplicateDistances(distances, cfg.PathBuilder.MinLegLengthNM)

	var tp *TimeProfile
	var timeSD, maxTimeDiff float64
	var maxTimeIdx int
	if cfg.TimeAnalyzer.Method.IsCurveFit() {
		tp, timeSD, maxTimeDiff, maxTimeIdx, err = AnalyseTimesByCurveFit(distances, times, duplicate, cfg.TimeAnalyzer.Method)
	} else {
		tp, timeSD, maxTimeDiff, maxTimeIdx, err = AnalyseTimesBySpeed(distances, times, duplicate, cfg.TimeAnalyzer)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("flight %s: %w", flightID, err)
	}

	altProfile, altSD, maxAlt, cruiseSections := AnalyseAltitudes(distances, alts, cfg.ClimbThresholdFt)

	xtds := crossTrackResiduals(path, points, positions, cfg.PathBuilder.AcrossTrackToleranceNM)
	xteSD, maxXTE, maxXTEIdx := 0.0, 0.0, 0
	if len(xtds) > 0 {
		xteSD = stat.StdDev(xtds, nil)
		maxXTE, maxXTEIdx = findMostExtreme(xtds)
	}

	climbEnd := altProfile.TopOfClimbDistance()
	descentStart := altProfile.TopOfDescentDistance()
	climbPeriod := tp.CalculateAveragePeriod(0, climbEnd)
	cruisePeriod := tp.CalculateAveragePeriod(climbEnd, descentStart)
	descentPeriod := tp.CalculateAveragePeriod(descentStart, pathLengthNM)

	st := &SmoothedTrajectory{
		FlightID:        flightID,
		HorizontalPath:  NewHorizontalPath(path),
		TimeProfile:     *tp,
		AltitudeProfile: altProfile,
	}

	metrics := &Metrics{
		FlightID:        flightID,
		ProfileType:     altProfile.Type(cruiseSections),
		PositionPeriodS: avgPeriod,
		ClimbPeriodS:    climbPeriod,
		CruisePeriodS:   cruisePeriod,
		DescentPeriodS:  descentPeriod,
		Unordered:       unordered,
		TimeSD:          timeSD,
		MaxTimeDiff:     maxTimeDiff,
		MaxTimeIndex:    maxTimeIdx,
		XTESD:           xteSD,
		MaxXTE:          maxXTE,
		MaxXTEIndex:     maxXTEIdx,
		AltSD:           altSD,
		MaxAlt:          maxAlt,
		CruiseSections:  cruiseSections,
	}

	return st, metrics, nil
}

// averageSamplePeriod returns the mean inter-report gap in seconds.
func averageSamplePeriod(reports []PositionReport) float64 {
	if len(reports) < 2 {
		return 0
	}
	total := reports[len(reports)-1].Time.Sub(reports[0].Time).Seconds()
	return total / float64(len(reports)-1)
}

// sortTimedPositions sorts positions by (distance, time) in place and
// reports whether the original order differed, i.e. whether the raw
// positions were not already monotone in path distance.
func sortTimedPositions(positions []timedPosition) bool {
	unordered := false
	for i := 1; i < len(positions); i++ {
		if positions[i].distance < positions[i-1].distance {
			unordered = true
			break
		}
	}
	sort.SliceStable(positions, func(i, j int) bool {
		if positions[i].distance != positions[j].distance {
			return positions[i].distance < positions[j].distance
		}
		return positions[i].time.Before(positions[j].time)
	})
	return unordered
}

// crossTrackResiduals returns the signed cross-track distance (NM) of every
// cleaned position from the fitted path, for the xte_sd/max_xte metrics.
func crossTrackResiduals(path *sphere.SpherePath, points []sphere.Point3d, positions []timedPosition, acrossTrackToleranceNM float64) []float64 {
	legLengths := path.PathLengths()
	cumulative := path.PathDistances()
	out := make([]float64, 0, len(positions))
	for _, p := range positions {
		legIdx := 0
		for legIdx < len(legLengths)-1 && p.distance >= cumulative[legIdx+1] {
			legIdx++
		}
		xtd := path.CrossTrackDistanceAt(points[p.orig], legIdx)
		out = append(out, sphere.InNM(xtd))
	}
	_ = acrossTrackToleranceNM
	return out
}
