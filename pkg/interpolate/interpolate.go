// pkg/interpolate/interpolate.go
// Copyright(c) 2024 trajcore contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package interpolate emits synthetic position samples along a
// SmoothedTrajectory, finer around turns than on straight legs.
package interpolate

import (
	gomath "math"

	"github.com/euctrl-pru/trajcore/pkg/sphere"
	"github.com/euctrl-pru/trajcore/pkg/trajectory"
	"github.com/euctrl-pru/trajcore/pkg/util"
)

// Config holds the tunable sampling intervals of the Trajectory
// Interpolator.
type Config struct {
	StraightIntervalS float64
	TurnIntervalS     float64
	MinLegLengthNM    float64
}

func DefaultConfig() Config {
	return Config{StraightIntervalS: 5.0, TurnIntervalS: 5.0, MinLegLengthNM: 0.1}
}

// Position is one synthetic sample along a trajectory.
type Position struct {
	FlightID      string
	DistanceNM    float64
	ElapsedTimeS  float64
	Lat, Lon      float64
	AltitudeFt    float64
	SpeedKt       float64
	TrackDeg      float64
	VerticalFtMin float64
}

// Interpolate produces synthetic samples for st at the configured
// intervals.
func Interpolate(st *trajectory.SmoothedTrajectory, cfg Config) ([]Position, error) {
	path, err := st.HorizontalPath.SpherePath(cfg.MinLegLengthNM)
	if err != nil {
		return nil, err
	}

	boundaries := path.SectionBoundaries()
	pointDistances := make([]float64, len(boundaries))
	pointTypes := make([]sphere.PointType, len(boundaries))
	for i, b := range boundaries {
		pointDistances[i] = sphere.InNM(b.Distance)
		pointTypes[i] = b.Type
	}

	pointTimes := util.MapSlice(pointDistances, st.TimeProfile.TimeAt)

	times := calculateInterpolationTimes(pointTimes, pointTypes, cfg.StraightIntervalS, cfg.TurnIntervalS)

	distances := util.MapSlice(times, st.TimeProfile.DistanceAt)
	altitudes := st.AltitudeProfile.Interpolate(distances)

	speeds := calculateSpeeds(times, distances)
	vertSpeeds := calculateVerticalSpeeds(times, altitudes)

	positions := make([]Position, len(times))
	for i, d := range distances {
		pt := path.PositionAt(sphere.NM(d))
		lat, lon := pt.LatLonDegrees()
		track := convertToTrackAngle(path.GroundTrackAt(sphere.NM(d)))
		positions[i] = Position{
			FlightID:      st.FlightID,
			DistanceNM:    d,
			ElapsedTimeS:  times[i],
			Lat:           lat,
			Lon:           lon,
			AltitudeFt:    altitudes[i],
			SpeedKt:       speeds[i],
			TrackDeg:      track,
			VerticalFtMin: vertSpeeds[i],
		}
	}
	return positions, nil
}

// calculateInterpolationTimes inserts intermediate samples between each pair
// of boundary times at straightInterval or turnInterval, depending on
// whether the segment starting at pointTimes[i-1] begins inside a turn.
func calculateInterpolationTimes(pointTimes []float64, pointTypes []sphere.PointType, straightInterval, turnInterval float64) []float64 {
	if len(pointTimes) == 0 {
		return nil
	}
	prevTime := pointTimes[0]
	times := []float64{prevTime}
	isTurning := pointTypes[0] == sphere.TurnStartPoint

	for i := 1; i < len(pointTimes); i++ {
		nextTime := pointTimes[i]
		deltaTime := nextTime - prevTime
		interval := straightInterval
		if isTurning {
			interval = turnInterval
		}
		if deltaTime > interval && interval > 0 {
			steps := int(deltaTime / interval)
			for j := 0; j < steps; j++ {
				prevTime += interval
				times = append(times, prevTime)
			}
		}
		times = append(times, nextTime)
		isTurning = pointTypes[i] == sphere.TurnStartPoint
		prevTime = nextTime
	}
	return times
}

// calculateSpeeds returns per-sample ground speed (knots) via finite
// differences of distance/time, repeating the last computed speed for the
// final sample.
func calculateSpeeds(times, distances []float64) []float64 {
	n := len(times)
	speeds := make([]float64, n)
	if n < 2 {
		return speeds
	}
	for i := 1; i < n; i++ {
		speeds[i-1] = speedKt(distances[i]-distances[i-1], times[i]-times[i-1])
	}
	speeds[n-1] = speeds[n-2]
	return speeds
}

// calculateVerticalSpeeds returns per-sample vertical rate (ft/min) via
// finite differences of altitude/time, repeating the last value for the
// final sample.
func calculateVerticalSpeeds(times, altitudes []float64) []float64 {
	n := len(times)
	out := make([]float64, n)
	if n < 2 {
		return out
	}
	for i := 1; i < n; i++ {
		out[i-1] = verticalSpeedFtMin(altitudes[i]-altitudes[i-1], times[i]-times[i-1])
	}
	out[n-1] = out[n-2]
	return out
}

func speedKt(distanceNM, durationS float64) float64 {
	if durationS <= 0 {
		durationS = 0.5
	}
	return 3600.0 * distanceNM / durationS
}

func verticalSpeedFtMin(deltaFt, durationS float64) float64 {
	if durationS <= 0 {
		durationS = 0.5
	}
	return 60.0 * deltaFt / durationS
}

// convertToTrackAngle maps a radian bearing to degrees in [0, 360).
func convertToTrackAngle(radians float64) float64 {
	deg := radians * 180.0 / gomath.Pi
	if deg < 0 {
		deg += 360.0
	}
	return deg
}
