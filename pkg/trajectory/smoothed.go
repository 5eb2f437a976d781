// pkg/trajectory/smoothed.go
// Copyright(c) 2024 trajcore contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package trajectory

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// SmoothedTrajectory packages the horizontal path, altitude profile, and
// time profile for one flight. It is immutable after assembly: every
// field is populated once by Assemble and never mutated thereafter.
type SmoothedTrajectory struct {
	FlightID        string
	HorizontalPath  HorizontalPath
	TimeProfile     TimeProfile
	AltitudeProfile AltitudeProfile
}

// trajectoryJSON is the serialized wire shape of a SmoothedTrajectory.
type trajectoryJSON struct {
	FlightID       string `json:"flight_id"`
	HorizontalPath struct {
		Lats []float64 `json:"lats"`
		Lons []float64 `json:"lons"`
		TIDs []float64 `json:"tids"`
	} `json:"horizontal_path"`
	TimeProfile struct {
		StartTime    time.Time `json:"start_time"`
		Distances    []float64 `json:"distances"`
		ElapsedTimes []float64 `json:"elapsed_times"`
	} `json:"time_profile"`
	AltitudeProfile struct {
		Distances []float64 `json:"distances"`
		Altitudes []float64 `json:"altitudes"`
	} `json:"altitude_profile"`
}

// MarshalJSON writes the wire shape.
func (st SmoothedTrajectory) MarshalJSON() ([]byte, error) {
	var w trajectoryJSON
	w.FlightID = st.FlightID
	w.HorizontalPath.Lats = st.HorizontalPath.Lats
	w.HorizontalPath.Lons = st.HorizontalPath.Lons
	w.HorizontalPath.TIDs = st.HorizontalPath.TIDs
	w.TimeProfile.StartTime = st.TimeProfile.StartTime
	w.TimeProfile.Distances = st.TimeProfile.Distances
	w.TimeProfile.ElapsedTimes = st.TimeProfile.ElapsedTimes
	w.AltitudeProfile.Distances = st.AltitudeProfile.Distances
	w.AltitudeProfile.Altitudes = st.AltitudeProfile.Altitudes
	return json.Marshal(w)
}

// UnmarshalJSON reads the wire shape, refitting the TimeProfile's
// splines.
func (st *SmoothedTrajectory) UnmarshalJSON(b []byte) error {
	var w trajectoryJSON
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	st.FlightID = w.FlightID
	st.HorizontalPath = HorizontalPath{
		Lats: w.HorizontalPath.Lats,
		Lons: w.HorizontalPath.Lons,
		TIDs: w.HorizontalPath.TIDs,
	}
	st.AltitudeProfile = AltitudeProfile{
		Distances: w.AltitudeProfile.Distances,
		Altitudes: w.AltitudeProfile.Altitudes,
	}
	tp, err := NewTimeProfile(w.TimeProfile.StartTime, w.TimeProfile.Distances, w.TimeProfile.ElapsedTimes)
	if err != nil {
		return err
	}
	st.TimeProfile = *tp
	return nil
}

// CollectionHeader is the metadata written once at the top of a streamed
// trajectory collection file: the smoothing method and tolerances used
// to produce every trajectory in the file.
type CollectionHeader struct {
	Method               string  `json:"method"`
	DistanceTolerance    float64 `json:"distance_tolerance"`
	MovingMedianSamples  int     `json:"moving_median_samples"`
	MovingAverageSamples int     `json:"moving_average_samples"`
	MaxSpeedDuration     float64 `json:"max_speed_duration"`
}

// TrajectoryWriter streams a collection file one trajectory at a time, so
// the caller never holds the whole collection in memory.
type TrajectoryWriter struct {
	w      *bufio.Writer
	wrote  bool
	closed bool
}

// NewTrajectoryWriter writes the collection header and opens the array.
func NewTrajectoryWriter(w io.Writer, header CollectionHeader) (*TrajectoryWriter, error) {
	bw := bufio.NewWriter(w)
	headerJSON, err := json.Marshal(header)
	if err != nil {
		return nil, err
	}
	if _, err := fmt.Fprintf(bw, "{\"header\":%s,\"trajectories\":[\n", headerJSON); err != nil {
		return nil, err
	}
	return &TrajectoryWriter{w: bw}, nil
}

// Write appends one trajectory to the collection.
func (tw *TrajectoryWriter) Write(st *SmoothedTrajectory) error {
	b, err := json.Marshal(st)
	if err != nil {
		return err
	}
	if tw.wrote {
		if _, err := tw.w.WriteString(",\n"); err != nil {
			return err
		}
	}
	tw.wrote = true
	_, err = tw.w.Write(b)
	return err
}

// Close terminates the array and flushes the underlying writer.
func (tw *TrajectoryWriter) Close() error {
	if tw.closed {
		return nil
	}
	tw.closed = true
	if _, err := tw.w.WriteString("\n]}\n"); err != nil {
		return err
	}
	return tw.w.Flush()
}

// TrajectoryReader pulls one SmoothedTrajectory at a time from a collection
// file's stream, never materializing the whole array.
type TrajectoryReader struct {
	dec    *json.Decoder
	header CollectionHeader
	done   bool
}

// NewTrajectoryReader opens r, reads the header object, and positions the
// decoder at the start of the trajectories array.
func NewTrajectoryReader(r io.Reader) (*TrajectoryReader, error) {
	dec := json.NewDecoder(r)

	if t, err := dec.Token(); err != nil || t != json.Delim('{') {
		return nil, fmt.Errorf("trajectory collection: expected object start: %w", errOrNil(err))
	}

	tr := &TrajectoryReader{dec: dec}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := keyTok.(string)
		switch key {
		case "header":
			if err := dec.Decode(&tr.header); err != nil {
				return nil, err
			}
		case "trajectories":
			if t, err := dec.Token(); err != nil || t != json.Delim('[') {
				return nil, fmt.Errorf("trajectory collection: expected trajectories array: %w", errOrNil(err))
			}
			return tr, nil
		default:
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, err
			}
		}
	}
	return tr, nil
}

func errOrNil(err error) error {
	if err != nil {
		return err
	}
	return fmt.Errorf("malformed input")
}

// Header returns the collection-level metadata read by NewTrajectoryReader.
func (tr *TrajectoryReader) Header() CollectionHeader { return tr.header }

// Next decodes and returns the next trajectory in the stream, or (nil,
// io.EOF) once the array is exhausted.
func (tr *TrajectoryReader) Next() (*SmoothedTrajectory, error) {
	if tr.done || !tr.dec.More() {
		tr.done = true
		return nil, io.EOF
	}
	var st SmoothedTrajectory
	if err := tr.dec.Decode(&st); err != nil {
		return nil, err
	}
	return &st, nil
}
