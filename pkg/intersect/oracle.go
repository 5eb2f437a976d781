// pkg/intersect/oracle.go
// Copyright(c) 2024 trajcore contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package intersect resolves a SmoothedTrajectory's crossings of airspace
// sectors, user-defined volumes, and airport cylinders, against an
// external GeometryOracle that supplies the horizontal footprints.
package intersect

// GeometryOracle is the external geometry seam: the one collaborator in the
// core that may block. Implementations typically hold a pooled database
// client; this package never assumes anything about how a volume_id is
// resolved to geometry beyond the methods below.
type GeometryOracle interface {
	// FindSectorIntersections2D returns the unordered 2D crossings of the
	// polyline lats/lons with every airspace sector whose vertical extent
	// overlaps [minAlt, maxAlt]. The three returned slices are the same
	// length.
	FindSectorIntersections2D(flightID string, lats, lons []float64, minAlt, maxAlt float64) (xlat, xlon []float64, volumeID []string, err error)

	// FindUserVolumeIntersections2D is FindSectorIntersections2D against the
	// separate user-volume namespace.
	FindUserVolumeIntersections2D(flightID string, lats, lons []float64, minAlt, maxAlt float64) (xlat, xlon []float64, volumeID []string, err error)

	// SectorVerticalExtent returns a sector's [bottom, top) altitude band in
	// feet, or trajerr.ErrNotFound.
	SectorVerticalExtent(volumeID string) (bottomFt, topFt float64, err error)

	// SectorDisplayName returns a sector's human-readable name, or
	// trajerr.ErrNotFound.
	SectorDisplayName(volumeID string) (string, error)

	// UserVolumeVerticalExtent is SectorVerticalExtent for the user-volume
	// namespace.
	UserVolumeVerticalExtent(volumeID string) (bottomFt, topFt float64, err error)

	// UserVolumeDisplayName is SectorDisplayName for the user-volume
	// namespace.
	UserVolumeDisplayName(volumeID string) (string, error)

	// AirportLocation returns an ICAO airport's reference point, or
	// trajerr.ErrNotFound.
	AirportLocation(icao string) (lat, lon float64, err error)
}
