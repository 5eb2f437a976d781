// pkg/trajectory/cleaner.go
// Copyright(c) 2024 trajcore contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package trajectory

import (
	"time"

	"github.com/euctrl-pru/trajcore/pkg/sphere"
	"github.com/euctrl-pru/trajcore/pkg/util"
)

// PositionReport is one raw surveillance position for a flight, time-sorted
// on input.
type PositionReport struct {
	Time            time.Time
	Lat, Lon        float64 // degrees
	Alt             float64 // feet
	AircraftAddress string
	SSRCode         string
}

// ErrorCounts is the five-tuple error count returned by Clean.
type ErrorCounts struct {
	Total            int
	Duplicates       int
	InvalidAddresses int
	DistanceErrors   int
	AltitudeErrors   int
}

// Clean applies the position-cleaning rules in order to a time-sorted slice of
// reports, returning a validity mask (true = invalid) and the error tally.
// Clean is pure: it never mutates reports and never raises on well-formed
// input.
func Clean(reports []PositionReport, cfg CleanerConfig) ([]bool, ErrorCounts) {
	n := len(reports)
	invalid := make([]bool, n)
	var counts ErrorCounts
	if n == 0 {
		return invalid, counts
	}

	// Rule 1: duplicate (time, lat, lon, alt, address, ssr) with a
	// non-empty address.
	seen := make(map[string]bool, n)
	for i, r := range reports {
		if r.AircraftAddress == "" {
			continue
		}
		key := dupKey(r)
		if seen[key] {
			invalid[i] = true
			counts.Duplicates++
		} else {
			seen[key] = true
		}
	}

	// Rule 2: address reconciliation against the modal non-empty address.
	if cfg.FindInvalidAddresses {
		counts_, addrInvalid := invalidAddresses(reports, invalid)
		counts.InvalidAddresses = counts_
		for i, v := range addrInvalid {
			if v {
				invalid[i] = true
			}
		}
	}

	// Rule 3/4: kinematic check, walking forward from the last accepted index.
	points := util.MapSlice(reports, func(r PositionReport) sphere.Point3d {
		return sphere.PointFromDegrees(r.Lat, r.Lon)
	})

	refAttitude := 0
	refIdx := 0
	prevIdx := 0
	for i := 1; i < n; i++ {
		if invalid[i] {
			prevIdx = i
			continue
		}

		distNM := sphere.InNM(points[i].DistanceTo(points[refIdx]))
		deltaT := reports[i].Time.Sub(reports[refIdx].Time).Seconds()
		speed := minSpeedKt(distNM, deltaT, cfg.DistanceAccuracyNM, cfg.TimePrecisionS)

		isInvalid := false
		if speed > cfg.MaxSpeedKt {
			isInvalid = true
			counts.DistanceErrors++
		}

		attitude := sign3(reports[i].Alt - reports[prevIdx].Alt)
		if refAttitude != attitude {
			if reports[i].SSRCode == reports[refIdx].SSRCode {
				refAttitude = attitude
			} else if reports[i].SSRCode != reports[prevIdx].SSRCode {
				isInvalid = true
				counts.AltitudeErrors++
			}
		}

		if isInvalid {
			invalid[i] = true
		} else {
			refIdx = i
		}
		prevIdx = i
	}

	for _, v := range invalid {
		if v {
			counts.Total++
		}
	}
	return invalid, counts
}

func dupKey(r PositionReport) string {
	return r.Time.Format(time.RFC3339Nano) + "|" + formatF(r.Lat) + "|" + formatF(r.Lon) +
		"|" + formatF(r.Alt) + "|" + r.AircraftAddress + "|" + r.SSRCode
}

func formatF(f float64) string {
	// A fixed-precision key is sufficient here: duplicate detection compares
	// reports for bit-for-bit repeats of the same upstream record, not
	// near-equal floats.
	const prec = 1e-9
	return intKey(int64(f / prec))
}

func intKey(v int64) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [32]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// invalidAddresses marks every report whose non-empty address is not the
// modal address across already-valid reports as invalid.
func invalidAddresses(reports []PositionReport, alreadyInvalid []bool) (int, []bool) {
	counts := make(map[string]int)
	for i, r := range reports {
		if alreadyInvalid[i] || r.AircraftAddress == "" {
			continue
		}
		counts[r.AircraftAddress]++
	}
	if len(counts) <= 1 {
		return 0, make([]bool, len(reports))
	}

	modal, best := "", -1
	for addr, c := range counts {
		if c > best || (c == best && addr < modal) {
			modal, best = addr, c
		}
	}

	out := make([]bool, len(reports))
	total := 0
	for i, r := range reports {
		if r.AircraftAddress != "" && r.AircraftAddress != modal {
			out[i] = true
			total++
		}
	}
	return total, out
}

// minSpeedKt is the slowest speed consistent with the observed distance and
// time once measurement tolerances are applied: distance is reduced and
// time is increased before converting to knots, so the reported speed is a
// lower bound on the true ground speed.
func minSpeedKt(distanceNM, deltaTimeS, distanceAccuracyNM, timePrecisionS float64) float64 {
	d := distanceNM - distanceAccuracyNM
	t := deltaTimeS + timePrecisionS
	if t <= 0 {
		t = 0.5
	}
	return 3600.0 * d / t
}

func sign3(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
