// pkg/intersect/sector.go
// Copyright(c) 2024 trajcore contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package intersect

import (
	"fmt"
	"sort"
	"time"

	"github.com/euctrl-pru/trajcore/pkg/sphere"
	"github.com/euctrl-pru/trajcore/pkg/trajectory"
	"github.com/euctrl-pru/trajcore/pkg/util"
)

// ResolverConfig holds the tunable thresholds of the Intersection Resolver.
type ResolverConfig struct {
	AcrossTrackToleranceNM     float64
	InitialPositionToleranceNM float64
}

func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{
		AcrossTrackToleranceNM:     0.5,
		InitialPositionToleranceNM: 0.01,
	}
}

// volumeLookup abstracts the pair of (vertical extent, display name) oracle
// calls so ResolveSectors/ResolveUserVolumes can share one implementation
// against either namespace.
type volumeLookup struct {
	verticalExtent func(volumeID string) (float64, float64, error)
	displayName    func(volumeID string) (string, error)
	find2D         func(flightID string, lats, lons []float64, minAlt, maxAlt float64) ([]float64, []float64, []string, error)
}

func sectorLookup(oracle GeometryOracle) volumeLookup {
	return volumeLookup{
		verticalExtent: oracle.SectorVerticalExtent,
		displayName:    oracle.SectorDisplayName,
		find2D:         oracle.FindSectorIntersections2D,
	}
}

func userVolumeLookup(oracle GeometryOracle) volumeLookup {
	return volumeLookup{
		verticalExtent: oracle.UserVolumeVerticalExtent,
		displayName:    oracle.UserVolumeDisplayName,
		find2D:         oracle.FindUserVolumeIntersections2D,
	}
}

// ResolveSectors finds the 3D sector-crossing events for st.
func ResolveSectors(oracle GeometryOracle, st *trajectory.SmoothedTrajectory, path *sphere.SpherePath, cfg ResolverConfig) ([]Event, error) {
	return resolve(sectorLookup(oracle), st, path, cfg)
}

// ResolveUserVolumes finds the 3D user-volume-crossing events for st.
func ResolveUserVolumes(oracle GeometryOracle, st *trajectory.SmoothedTrajectory, path *sphere.SpherePath, cfg ResolverConfig) ([]Event, error) {
	return resolve(userVolumeLookup(oracle), st, path, cfg)
}

type twoDEvent struct {
	volumeID string
	distance float64
}

func resolve(lookup volumeLookup, st *trajectory.SmoothedTrajectory, path *sphere.SpherePath, cfg ResolverConfig) ([]Event, error) {
	ap := st.AltitudeProfile
	pathLengthNM := sphere.InNM(path.Length())
	minAlt, maxAlt := ap.AltitudeRange(0, pathLengthNM)

	lats, lons := st.HorizontalPath.Lats, st.HorizontalPath.Lons
	xlat, xlon, volumeIDs, err := lookup.find2D(st.FlightID, lats, lons, minAlt, maxAlt)
	if err != nil {
		return nil, fmt.Errorf("flight %s: %w", st.FlightID, err)
	}
	if len(xlat) == 0 {
		return nil, nil
	}

	twoD := calculate2DIntersectionDistances(path, xlat, xlon, volumeIDs, cfg.AcrossTrackToleranceNM)

	isCruising := ap.Type(0) == trajectory.Cruising
	var threeD []twoDEvent
	if isCruising {
		threeD = twoD
	} else {
		volumes, err := resolveVolumes(lookup, twoD)
		if err != nil {
			return nil, fmt.Errorf("flight %s: %w", st.FlightID, err)
		}
		threeD = calculate3DIntersections(ap, volumes, twoD, pathLengthNM)
	}
	if len(threeD) == 0 {
		return nil, nil
	}

	sort.SliceStable(threeD, func(i, j int) bool { return threeD[i].distance < threeD[j].distance })
	isExit := setExitFlags(threeD)

	initialTol := cfg.InitialPositionToleranceNM
	var filtered []twoDEvent
	var filteredExit []bool
	for i, e := range threeD {
		if e.distance < initialTol {
			continue
		}
		filtered = append(filtered, e)
		filteredExit = append(filteredExit, isExit[i])
	}
	if len(filtered) == 0 {
		return nil, nil
	}

	names := make(map[string]string)
	events := make([]Event, len(filtered))
	for i, e := range filtered {
		name, ok := names[e.volumeID]
		if !ok {
			n, err := lookup.displayName(e.volumeID)
			if err != nil {
				return nil, fmt.Errorf("flight %s: %w", st.FlightID, err)
			}
			name = n
			names[e.volumeID] = name
		}
		pt := path.PositionAt(sphere.NM(e.distance))
		lat, lon := pt.LatLonDegrees()
		events[i] = Event{
			FlightID:   st.FlightID,
			VolumeID:   e.volumeID,
			VolumeName: name,
			IsExit:     filteredExit[i],
			Lat:        lat,
			Lon:        lon,
			Alt:        ap.Interpolate([]float64{e.distance})[0],
			Time:       formatISO8601(st.TimeProfile.At(e.distance)),
			DistanceNM: e.distance,
		}
	}
	return events, nil
}

func resolveVolumes(lookup volumeLookup, events []twoDEvent) (map[string]AirspaceVolume, error) {
	out := make(map[string]AirspaceVolume)
	for _, e := range events {
		if _, ok := out[e.volumeID]; ok {
			continue
		}
		bottom, top, err := lookup.verticalExtent(e.volumeID)
		if err != nil {
			return nil, err
		}
		out[e.volumeID] = AirspaceVolume{Name: e.volumeID, BottomAltitude: bottom, TopAltitude: top}
	}
	return out, nil
}

// calculate2DIntersectionDistances projects each reported (lat, lon)
// intersection onto path's along-path distance, pairing it with its volume
// id.
func calculate2DIntersectionDistances(path *sphere.SpherePath, lats, lons []float64, volumeIDs []string, acrossTrackToleranceNM float64) []twoDEvent {
	out := make([]twoDEvent, len(lats))
	for i := range lats {
		pt := sphere.PointFromDegrees(lats[i], lons[i])
		d := sphere.InNM(path.PathDistanceOf(pt, sphere.NM(acrossTrackToleranceNM)))
		out[i] = twoDEvent{volumeID: volumeIDs[i], distance: d}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].distance < out[j].distance })
	return out
}

// calculate3DIntersections walks the 2D event stream maintaining per-volume
// entry state, emitting 3D boundary crossings for each closed entry/exit
// pair and for volumes still open at the end of the trajectory.
func calculate3DIntersections(ap trajectory.AltitudeProfile, volumes map[string]AirspaceVolume, twoD []twoDEvent, pathLengthNM float64) []twoDEvent {
	var out []twoDEvent
	entryIndex := make(map[string]int)

	for i, e := range twoD {
		if start, ok := entryIndex[e.volumeID]; ok {
			delete(entryIndex, e.volumeID)
			out = append(out, intersection3D(ap, volumes[e.volumeID], twoD[start].distance, e.distance, true)...)
		} else {
			entryIndex[e.volumeID] = i
		}
	}

	// Close the still-open volumes in sorted id order so event emission
	// stays deterministic within a flight.
	for _, volumeID := range util.SortedMapKeys(entryIndex) {
		start := entryIndex[volumeID]
		out = append(out, intersection3D(ap, volumes[volumeID], twoD[start].distance, pathLengthNM, false)...)
	}
	return out
}

// intersection3D computes the 3D boundary-crossing distances within
// [entryDist, exitDist] against volume.
func intersection3D(ap trajectory.AltitudeProfile, volume AirspaceVolume, entryDist, exitDist float64, includeHorizontalExit bool) []twoDEvent {
	var out []twoDEvent
	minAlt, maxAlt := ap.AltitudeRange(entryDist, exitDist)
	if !volume.VerticalIntersection(minAlt, maxAlt) {
		return nil
	}

	entryAlt := ap.Interpolate([]float64{entryDist})[0]
	exitAlt := ap.Interpolate([]float64{exitDist})[0]

	if volume.IsInside(entryAlt) {
		out = append(out, twoDEvent{distance: entryDist})
	}
	if volume.BottomIntersection(minAlt, maxAlt) {
		for _, d := range ap.IntersectionDistances(volume.BottomAltitude, entryDist, exitDist) {
			out = append(out, twoDEvent{distance: d})
		}
	}
	if volume.TopIntersection(minAlt, maxAlt) {
		for _, d := range ap.IntersectionDistances(volume.TopAltitude, entryDist, exitDist) {
			out = append(out, twoDEvent{distance: d})
		}
	}
	if includeHorizontalExit && volume.IsInside(exitAlt) {
		out = append(out, twoDEvent{distance: exitDist})
	}

	for i := range out {
		out[i].volumeID = volume.Name
	}
	return out
}

// setExitFlags toggles is_exit per volume on successive occurrences,
// starting with false.
func setExitFlags(events []twoDEvent) []bool {
	isExit := make([]bool, len(events))
	open := make(map[string]bool)
	for i, e := range events {
		if open[e.volumeID] {
			isExit[i] = true
			delete(open, e.volumeID)
		} else {
			open[e.volumeID] = true
		}
	}
	return isExit
}

func formatISO8601(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000Z")
}
