// pkg/trajectory/config.go
// Copyright(c) 2024 trajcore contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package trajectory builds SmoothedTrajectory objects from cleaned,
// time-ordered position reports: cleaning, horizontal path construction,
// altitude and time smoothing, and assembly.
package trajectory

// CleanerConfig holds the tunable thresholds for the position Cleaner.
type CleanerConfig struct {
	MaxSpeedKt           float64
	DistanceAccuracyNM   float64
	TimePrecisionS       float64
	FindInvalidAddresses bool
}

func DefaultCleanerConfig() CleanerConfig {
	return CleanerConfig{
		MaxSpeedKt:           750.0,
		DistanceAccuracyNM:   0.25,
		TimePrecisionS:       1.0,
		FindInvalidAddresses: true,
	}
}

// PathBuilderConfig holds the tunable thresholds for the Horizontal Path
// Builder.
type PathBuilderConfig struct {
	AcrossTrackToleranceNM float64
	MinLegLengthNM         float64
}

func DefaultPathBuilderConfig() PathBuilderConfig {
	return PathBuilderConfig{
		AcrossTrackToleranceNM: 0.5,
		MinLegLengthNM:         0.1,
	}
}

// TimeAnalyzerConfig holds the tunable parameters of the Time Analyzer.
type TimeAnalyzerConfig struct {
	Method               TimeSmoothingMethod
	MovingMedianSamples  int
	MovingAverageSamples int
	MaxSpeedDurationS    float64
}

func DefaultTimeAnalyzerConfig() TimeAnalyzerConfig {
	return TimeAnalyzerConfig{
		Method:               MovingAverageSpeed,
		MovingMedianSamples:  5,
		MovingAverageSamples: 3,
		MaxSpeedDurationS:    120.0,
	}
}

// TimeSmoothingMethod selects between the two time-smoothing strategies.
type TimeSmoothingMethod int

const (
	MovingAverageSpeed TimeSmoothingMethod = iota
	CurveFitLM
	CurveFitTRF
	CurveFitDogbox
)

func (m TimeSmoothingMethod) IsCurveFit() bool {
	return m == CurveFitLM || m == CurveFitTRF || m == CurveFitDogbox
}

// AssemblerConfig bundles the configuration passed to Assemble.
type AssemblerConfig struct {
	PathBuilder  PathBuilderConfig
	TimeAnalyzer TimeAnalyzerConfig
	// PathShortToleranceNM is the tolerance used both to decide that a
	// derived path is PathTooShort and that cleaned positions extend
	// PathShort beyond the fitted path; one named value serves both
	// checks.
	PathShortToleranceNM float64
	// ClimbThresholdFt is the altitude at or above which a level section
	// qualifies as cruise.
	ClimbThresholdFt float64
}

func DefaultAssemblerConfig() AssemblerConfig {
	return AssemblerConfig{
		PathBuilder:          DefaultPathBuilderConfig(),
		TimeAnalyzer:         DefaultTimeAnalyzerConfig(),
		PathShortToleranceNM: 0.25,
		ClimbThresholdFt:     10000.0,
	}
}
