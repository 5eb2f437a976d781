// pkg/intersect/csv.go
// Copyright(c) 2024 trajcore contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package intersect

import (
	"encoding/csv"
	"io"
	"strconv"
)

// AirspaceIntersectionFields is the column order of the airspace
// intersection table.
var AirspaceIntersectionFields = []string{
	"FLIGHT_ID", "SECTOR_ID", "IS_EXIT", "LAT", "LON", "ALT", "TIME", "DISTANCE",
}

// AirportIntersectionFields is the column order of the airport
// intersection table.
var AirportIntersectionFields = []string{
	"FLIGHT_ID", "AIRPORT_ID", "RADIUS", "IS_DESTINATION", "LAT", "LON", "ALT", "TIME", "DISTANCE",
}

// WriteAirspaceEvents writes events to w as CSV with the
// AirspaceIntersectionFields header.
func WriteAirspaceEvents(w io.Writer, events []Event) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(AirspaceIntersectionFields); err != nil {
		return err
	}
	for _, e := range events {
		row := []string{
			e.FlightID,
			e.VolumeName,
			strconv.FormatBool(e.IsExit),
			strconv.FormatFloat(e.Lat, 'f', -1, 64),
			strconv.FormatFloat(e.Lon, 'f', -1, 64),
			strconv.FormatFloat(e.Alt, 'f', -1, 64),
			e.Time,
			strconv.FormatFloat(e.DistanceNM, 'f', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteAirportEvents writes events to w as CSV with the
// AirportIntersectionFields header.
func WriteAirportEvents(w io.Writer, events []AirportEvent) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(AirportIntersectionFields); err != nil {
		return err
	}
	for _, e := range events {
		row := []string{
			e.FlightID,
			e.AirportID,
			strconv.FormatFloat(e.RadiusNM, 'f', -1, 64),
			strconv.FormatBool(e.IsDestination),
			strconv.FormatFloat(e.Lat, 'f', -1, 64),
			strconv.FormatFloat(e.Lon, 'f', -1, 64),
			strconv.FormatFloat(e.Alt, 'f', -1, 64),
			e.Time,
			strconv.FormatFloat(e.DistanceNM, 'f', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
