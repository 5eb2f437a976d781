// pkg/trajectory/altitude_test.go
// Copyright(c) 2024 trajcore contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package trajectory

import (
	gomath "math"
	"testing"
)

func TestFindLevelSections(t *testing.T) {
	type testCase struct {
		name     string
		alts     []float64
		expected []int
	}
	cases := []testCase{
		{"NoLevels", []float64{0, 1000, 2000, 3000}, nil},
		{"OneSection", []float64{0, 1000, 2000, 2000, 2000, 3000}, []int{2, 4}},
		{"LeadingSection", []float64{1000, 1000, 2000, 3000}, []int{0, 1}},
		{"TrailingSection", []float64{1000, 2000, 3000, 3000}, []int{2, 3}},
		{"TwoSections", []float64{0, 5000, 5000, 6000, 7000, 7000, 7000, 8000}, []int{1, 2, 4, 6}},
		{"AllLevel", []float64{6000, 6000, 6000, 6000}, []int{0, 3}},
		{"TooShort", []float64{6000, 6000}, nil},
	}
	for _, c := range cases {
		got := FindLevelSections(c.alts)
		if len(got) != len(c.expected) {
			t.Errorf("%s: got %v, expected %v", c.name, got, c.expected)
			continue
		}
		for i := range got {
			if got[i] != c.expected[i] {
				t.Errorf("%s: got %v, expected %v", c.name, got, c.expected)
				break
			}
		}
	}
}

func TestClosestCruisingAltitude(t *testing.T) {
	if got := ClosestCruisingAltitude(34800, 0, false); got != 35000 {
		t.Errorf("34800 without track: got %g, expected 35000", got)
	}
	if got := ClosestCruisingAltitude(35400, 0, false); got != 35000 {
		t.Errorf("35400 without track: got %g, expected 35000", got)
	}
	// With a known track the snapping uses 500 ft quadrantal steps, so the
	// result is always a standard level offset from the rounded thousand.
	for _, track := range []float64{90, 270} {
		got := ClosestCruisingAltitude(34800, track, true)
		if gomath.Mod(got, 500) != 0 {
			t.Errorf("track %g: %g is not a 500 ft level", track, got)
		}
	}
}

func TestAnalyseAltitudesCruise(t *testing.T) {
	// The climb-cruise-descent shape of a short flight: one cruise section
	// from index 6 to 9, whose two interior samples are dropped.
	alts := []float64{0, 1800, 3000, 3600, 4200, 5400, 6000, 6000, 6000, 6000, 5400, 4200}
	distances := make([]float64, len(alts))
	for i := range distances {
		distances[i] = float64(i) * 30
	}

	profile, altSD, maxAlt, cruiseSections := AnalyseAltitudes(distances, alts, 6000)
	if cruiseSections != 1 {
		t.Errorf("cruise sections: got %d, expected 1", cruiseSections)
	}
	if len(profile.Distances) != 10 {
		t.Errorf("profile samples: got %d, expected 10 (two cruise interior points removed)",
			len(profile.Distances))
	}
	if altSD != 0 || maxAlt != 0 {
		t.Errorf("exact cruise altitudes should have zero residuals: sd %g, max %g", altSD, maxAlt)
	}
	if profile.Type(cruiseSections) != ClimbingAndDescending {
		t.Errorf("profile type: got %v, expected CLIMBING_AND_DESCENDING", profile.Type(cruiseSections))
	}

	// Endpoints preserved, distances non-decreasing.
	if profile.Distances[0] != 0 || profile.Altitudes[0] != 0 {
		t.Errorf("first sample not preserved: %g at %g", profile.Altitudes[0], profile.Distances[0])
	}
	last := len(profile.Distances) - 1
	if profile.Distances[last] != 330 || profile.Altitudes[last] != 4200 {
		t.Errorf("last sample not preserved: %g at %g", profile.Altitudes[last], profile.Distances[last])
	}
	for i := 1; i < len(profile.Distances); i++ {
		if profile.Distances[i] < profile.Distances[i-1] {
			t.Fatalf("profile distances must be non-decreasing: %v", profile.Distances)
		}
	}
}

func TestAnalyseAltitudesBelowThreshold(t *testing.T) {
	// Level sections below the climb threshold are a leveling-off, not a
	// cruise: nothing is dropped or snapped.
	alts := []float64{0, 3000, 3000, 3000, 6000}
	distances := []float64{0, 10, 20, 30, 40}
	profile, _, _, cruiseSections := AnalyseAltitudes(distances, alts, 10000)
	if cruiseSections != 0 {
		t.Errorf("cruise sections: got %d, expected 0", cruiseSections)
	}
	if len(profile.Distances) != len(alts) {
		t.Errorf("profile samples: got %d, expected %d", len(profile.Distances), len(alts))
	}
}

func TestAltitudeProfileType(t *testing.T) {
	type testCase struct {
		name     string
		profile  AltitudeProfile
		cruise   int
		expected AltitudeProfileType
	}
	cases := []testCase{
		{"Climbing", AltitudeProfile{[]float64{0, 50}, []float64{2000, 30000}}, 0, Climbing},
		{"Descending", AltitudeProfile{[]float64{0, 50}, []float64{30000, 2000}}, 0, Descending},
		{"Cruising", AltitudeProfile{[]float64{0, 50}, []float64{35000, 35000}}, 1, Cruising},
		{"ClimbAndDescend", AltitudeProfile{[]float64{0, 25, 50}, []float64{2000, 35000, 3000}}, 1, ClimbingAndDescending},
	}
	for _, c := range cases {
		if got := c.profile.Type(c.cruise); got != c.expected {
			t.Errorf("%s: got %v, expected %v", c.name, got, c.expected)
		}
	}
}

func TestAltitudeInterpolate(t *testing.T) {
	ap := AltitudeProfile{Distances: []float64{0, 10, 20}, Altitudes: []float64{0, 10000, 0}}
	type testCase struct {
		d, expected float64
	}
	cases := []testCase{
		{-5, 0}, {0, 0}, {5, 5000}, {10, 10000}, {15, 5000}, {20, 0}, {25, 0},
	}
	for _, c := range cases {
		if got := ap.Interpolate([]float64{c.d})[0]; gomath.Abs(got-c.expected) > 1e-9 {
			t.Errorf("Interpolate(%g): got %g, expected %g", c.d, got, c.expected)
		}
	}
}

func TestAltitudeIntersectionDistances(t *testing.T) {
	ap := AltitudeProfile{Distances: []float64{0, 10, 20}, Altitudes: []float64{0, 10000, 0}}
	got := ap.IntersectionDistances(5000, 0, 20)
	if len(got) != 2 || gomath.Abs(got[0]-5) > 1e-9 || gomath.Abs(got[1]-15) > 1e-9 {
		t.Errorf("crossings of 5000 ft: got %v, expected [5 15]", got)
	}
	if got := ap.IntersectionDistances(5000, 0, 12); len(got) != 1 || gomath.Abs(got[0]-5) > 1e-9 {
		t.Errorf("crossings limited to [0, 12]: got %v, expected [5]", got)
	}
	if got := ap.IntersectionDistances(15000, 0, 20); len(got) != 0 {
		t.Errorf("altitude never reached: got %v, expected none", got)
	}
}

func TestAltitudeRange(t *testing.T) {
	ap := AltitudeProfile{Distances: []float64{0, 10, 20}, Altitudes: []float64{0, 10000, 0}}
	min, max := ap.AltitudeRange(0, 20)
	if min != 0 || max != 10000 {
		t.Errorf("full range: got [%g, %g], expected [0, 10000]", min, max)
	}
	min, max = ap.AltitudeRange(2, 6)
	if gomath.Abs(min-2000) > 1e-9 || gomath.Abs(max-6000) > 1e-9 {
		t.Errorf("partial range: got [%g, %g], expected [2000, 6000]", min, max)
	}
}

func TestTopOfClimbAndDescent(t *testing.T) {
	ap := AltitudeProfile{
		Distances: []float64{0, 30, 60, 90, 120},
		Altitudes: []float64{0, 20000, 35000, 35000, 5000},
	}
	if got := ap.TopOfClimbDistance(); got != 60 {
		t.Errorf("top of climb: got %g, expected 60", got)
	}
	if got := ap.TopOfDescentDistance(); got != 90 {
		t.Errorf("top of descent: got %g, expected 90", got)
	}
}
