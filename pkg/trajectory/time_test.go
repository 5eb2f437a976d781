// pkg/trajectory/time_test.go
// Copyright(c) 2024 trajcore contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package trajectory

import (
	"errors"
	gomath "math"
	"testing"
	"time"

	"github.com/euctrl-pru/trajcore/pkg/trajerr"
)

var timeEpoch = time.Date(2017, 8, 1, 6, 30, 0, 0, time.UTC)

func secondsAfterEpoch(secs []float64) []time.Time {
	out := make([]time.Time, len(secs))
	for i, s := range secs {
		out[i] = timeEpoch.Add(time.Duration(s * float64(time.Second)))
	}
	return out
}

func TestTimeProfileInterpolation(t *testing.T) {
	distances := []float64{0, 10, 20, 30, 40, 50, 60}
	elapsed := []float64{0, 60, 120, 180, 240, 300, 360}
	tp, err := NewTimeProfile(timeEpoch, distances, elapsed)
	if err != nil {
		t.Fatalf("NewTimeProfile: %v", err)
	}

	// Linear data is reproduced exactly by the spline, in both directions.
	for _, d := range []float64{0, 5, 12.5, 30, 55, 60} {
		expected := 6 * d
		if got := tp.TimeAt(d); gomath.Abs(got-expected) > 1e-9 {
			t.Errorf("TimeAt(%g): got %.12g, expected %.12g", d, got, expected)
		}
	}
	for _, s := range []float64{0, 30, 90, 222, 360} {
		expected := s / 6
		if got := tp.DistanceAt(s); gomath.Abs(got-expected) > 1e-9 {
			t.Errorf("DistanceAt(%g): got %.12g, expected %.12g", s, got, expected)
		}
	}

	// Clamped outside the domain.
	if got := tp.TimeAt(-10); gomath.Abs(got) > 1e-9 {
		t.Errorf("TimeAt before the profile: got %g, expected 0", got)
	}
	if got := tp.TimeAt(100); gomath.Abs(got-360) > 1e-9 {
		t.Errorf("TimeAt after the profile: got %g, expected 360", got)
	}

	// Absolute time.
	if got := tp.At(30); got.Sub(timeEpoch.Add(180*time.Second)).Abs() > time.Millisecond {
		t.Errorf("At(30): got %v", got)
	}
}

func TestTimeProfileInvalidInput(t *testing.T) {
	if _, err := NewTimeProfile(timeEpoch, []float64{0}, []float64{0}); !errors.Is(err, trajerr.ErrInvalidInput) {
		t.Errorf("single sample: expected ErrInvalidInput, got %v", err)
	}
	if _, err := NewTimeProfile(timeEpoch, []float64{0, 1, 2}, []float64{0, 1}); !errors.Is(err, trajerr.ErrInvalidInput) {
		t.Errorf("mismatched lengths: expected ErrInvalidInput, got %v", err)
	}
}

func TestAnalyseTimesBySpeedConstant(t *testing.T) {
	// A constant 360 kt flight: the smoother must reproduce the observed
	// times exactly (no speed is replaced, filters are no-ops on a
	// constant series, and the mean shift is zero).
	n := 11
	distances := make([]float64, n)
	elapsed := make([]float64, n)
	for i := range distances {
		distances[i] = float64(i) * 6
		elapsed[i] = float64(i) * 60
	}
	times := secondsAfterEpoch(elapsed)
	duplicate := make([]bool, n)

	tp, sd, maxDelta, _, err := AnalyseTimesBySpeed(distances, times, duplicate, DefaultTimeAnalyzerConfig())
	if err != nil {
		t.Fatalf("AnalyseTimesBySpeed: %v", err)
	}
	if sd > 1e-9 || gomath.Abs(maxDelta) > 1e-9 {
		t.Errorf("constant speed: sd %g, max delta %g, expected ~0", sd, maxDelta)
	}
	for i := range tp.ElapsedTimes {
		if gomath.Abs(tp.ElapsedTimes[i]-elapsed[i]) > 1e-9 {
			t.Errorf("sample %d: smoothed %.12g, observed %.12g", i, tp.ElapsedTimes[i], elapsed[i])
		}
	}
	if !tp.StartTime.Equal(timeEpoch) {
		t.Errorf("start time: got %v, expected %v", tp.StartTime, timeEpoch)
	}
}

func TestAnalyseTimesBySpeedOutlier(t *testing.T) {
	// One glitched leg in an otherwise constant-speed series: the median
	// filter absorbs it, so every smoothed time lands closer to the true
	// constant-speed time than the observed one did.
	n := 13
	distances := make([]float64, n)
	elapsed := make([]float64, n)
	for i := range distances {
		distances[i] = float64(i) * 6
		elapsed[i] = float64(i) * 60
	}
	elapsed[6] += 20 // a late report mid-series
	times := secondsAfterEpoch(elapsed)

	tp, _, _, _, err := AnalyseTimesBySpeed(distances, times, make([]bool, n), DefaultTimeAnalyzerConfig())
	if err != nil {
		t.Fatalf("AnalyseTimesBySpeed: %v", err)
	}
	trueTime := float64(6) * 60
	observedErr := gomath.Abs(elapsed[6] - trueTime)
	smoothedErr := gomath.Abs(tp.ElapsedTimes[6] - trueTime)
	if smoothedErr >= observedErr {
		t.Errorf("outlier not reduced: smoothed error %.3g, observed error %.3g", smoothedErr, observedErr)
	}

	// Smoothed distances stay strictly increasing.
	for i := 1; i < len(tp.Distances); i++ {
		if tp.Distances[i] <= tp.Distances[i-1] {
			t.Fatalf("distances not strictly increasing: %v", tp.Distances)
		}
	}
}

func TestFindDuplicateDistances(t *testing.T) {
	got := FindDuplicateDistances([]float64{0, 5, 5.0001, 10, 10.05}, 0.1)
	expected := []bool{false, false, true, false, true}
	for i := range got {
		if got[i] != expected[i] {
			t.Errorf("mask: got %v, expected %v", got, expected)
			break
		}
	}
}

func TestDuplicateDistancesIgnoredBySmoothing(t *testing.T) {
	// A repeated distance is dropped before smoothing: the output series
	// has strictly unique distances.
	distances := []float64{0, 6, 6.00001, 12, 18, 24}
	elapsed := []float64{0, 60, 61, 120, 180, 240}
	times := secondsAfterEpoch(elapsed)
	duplicate := FindDuplicateDistances(distances, 0.1)

	tp, _, _, _, err := AnalyseTimesBySpeed(distances, times, duplicate, DefaultTimeAnalyzerConfig())
	if err != nil {
		t.Fatalf("AnalyseTimesBySpeed: %v", err)
	}
	if len(tp.Distances) != 5 {
		t.Fatalf("got %d samples, expected 5", len(tp.Distances))
	}
	for i := 1; i < len(tp.Distances); i++ {
		if tp.Distances[i] <= tp.Distances[i-1] {
			t.Errorf("distances not strictly unique: %v", tp.Distances)
		}
	}
}

func TestAnalyseTimesByCurveFit(t *testing.T) {
	// A quadratic time law is inside the degree-5 model, so the fit
	// reproduces it almost exactly.
	n := 12
	distances := make([]float64, n)
	elapsed := make([]float64, n)
	for i := range distances {
		d := float64(i)
		distances[i] = d
		elapsed[i] = 10*d + 0.1*d*d
	}
	times := secondsAfterEpoch(elapsed)

	tp, _, maxDelta, _, err := AnalyseTimesByCurveFit(distances, times, make([]bool, n), CurveFitLM)
	if err != nil {
		t.Fatalf("AnalyseTimesByCurveFit: %v", err)
	}
	if gomath.Abs(maxDelta) > 1e-3 {
		t.Errorf("max residual: got %g, expected ~0", maxDelta)
	}
	for i := range tp.ElapsedTimes {
		if gomath.Abs(tp.ElapsedTimes[i]-elapsed[i]) > 1e-3 {
			t.Errorf("sample %d: fitted %.12g, actual %.12g", i, tp.ElapsedTimes[i], elapsed[i])
		}
	}
}

func TestAnalyseTimesByCurveFitTooFewPoints(t *testing.T) {
	distances := []float64{0, 5, 10}
	times := secondsAfterEpoch([]float64{0, 50, 100})
	if _, _, _, _, err := AnalyseTimesByCurveFit(distances, times, make([]bool, 3), CurveFitTRF); !errors.Is(err, trajerr.ErrNumericalFailure) {
		t.Errorf("expected ErrNumericalFailure, got %v", err)
	}
}

func TestCalculateAveragePeriod(t *testing.T) {
	distances := []float64{0, 10, 20, 30, 40, 50, 60}
	elapsed := []float64{0, 60, 120, 180, 240, 300, 360}
	tp, err := NewTimeProfile(timeEpoch, distances, elapsed)
	if err != nil {
		t.Fatalf("NewTimeProfile: %v", err)
	}
	if got := tp.CalculateAveragePeriod(0, 60); gomath.Abs(got-60) > 1e-9 {
		t.Errorf("full span: got %g, expected 60", got)
	}
	if got := tp.CalculateAveragePeriod(30, 30); got != 0 {
		t.Errorf("empty span: got %g, expected 0", got)
	}
}
