// pkg/trajectory/horizontalpath.go
// Copyright(c) 2024 trajcore contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package trajectory

import "github.com/euctrl-pru/trajcore/pkg/sphere"

// HorizontalPath is the serializable projection of a SpherePath back to
// (lats, lons, turn-initiation distances in NM).
type HorizontalPath struct {
	Lats []float64 // degrees
	Lons []float64 // degrees
	TIDs []float64 // turn-initiation distances, NM
}

// NewHorizontalPath projects every waypoint of path back to (lat, lon) in
// degrees, pairing each with its turn-initiation distance.
func NewHorizontalPath(path *sphere.SpherePath) HorizontalPath {
	waypoints := path.Waypoints()
	hp := HorizontalPath{
		Lats: make([]float64, len(waypoints)),
		Lons: make([]float64, len(waypoints)),
		TIDs: path.TurnInitiationDistancesNM(),
	}
	for i, wp := range waypoints {
		lat, lon := wp.LatLonDegrees()
		hp.Lats[i] = lat
		hp.Lons[i] = lon
	}
	return hp
}

// SpherePath reconstructs the SpherePath this HorizontalPath was derived
// from (the inverse of NewHorizontalPath), used by the interpolator and
// intersection resolver which both operate on sphere geometry rather than
// the flat (lat, lon, tid) serialization.
func (hp HorizontalPath) SpherePath(minLegNM float64) (*sphere.SpherePath, error) {
	waypoints := make([]sphere.Point3d, len(hp.Lats))
	for i := range hp.Lats {
		waypoints[i] = sphere.PointFromDegrees(hp.Lats[i], hp.Lons[i])
	}
	return sphere.NewSpherePath(waypoints, hp.TIDs, minLegNM)
}
