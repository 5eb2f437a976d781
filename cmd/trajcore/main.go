// cmd/trajcore/main.go
// Copyright(c) 2024 trajcore contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/euctrl-pru/trajcore/pkg/intersect"
	"github.com/euctrl-pru/trajcore/pkg/log"
	"github.com/euctrl-pru/trajcore/pkg/trajectory"
	"github.com/euctrl-pru/trajcore/pkg/trajerr"
	"github.com/euctrl-pru/trajcore/pkg/util"
)

// rawPosition is one line of the input JSON array: a single surveillance
// position report, tagged with its flight id.
type rawPosition struct {
	FlightID        string    `json:"flight_id"`
	Time            time.Time `json:"time"`
	Lat             float64   `json:"lat"`
	Lon             float64   `json:"lon"`
	Alt             float64   `json:"alt"`
	AircraftAddress string    `json:"aircraft_address"`
	SSRCode         string    `json:"ssr_code"`
}

func main() {
	outBase := flag.String("out", "trajectories", "output basename (writes <out>-trajectories.json and <out>-sectors.csv)")
	logLevel := flag.String("log", "info", "log level: debug, info, warn, error")
	logDir := flag.String("logdir", "", "directory for the rotating log file (default: per-user config dir)")
	flag.Parse()

	if len(flag.Args()) != 1 {
		fmt.Printf("usage: trajcore [-out basename] [-log level] <positions.json>\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	lg := log.New(*logLevel, *logDir)

	f, err := os.Open(flag.Args()[0])
	if err != nil {
		fmt.Printf("%v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	var raw []rawPosition
	if err := util.UnmarshalJSON(f, &raw); err != nil {
		fmt.Printf("%v\n", err)
		os.Exit(1)
	}

	flights := groupByFlight(raw)

	var elog util.ErrorLogger
	elog.Push("positions")
	validateFlights(&flights, &elog)
	elog.Pop()
	if elog.HaveErrors() {
		elog.PrintErrors(lg)
	}

	outFile, err := os.Create(*outBase + "-trajectories.json")
	if err != nil {
		fmt.Printf("%v\n", err)
		os.Exit(1)
	}
	defer outFile.Close()

	cfg := trajectory.DefaultAssemblerConfig()
	header := trajectory.CollectionHeader{
		Method:               "MOVING_AVERAGE_SPEED",
		DistanceTolerance:    cfg.PathShortToleranceNM,
		MovingMedianSamples:  cfg.TimeAnalyzer.MovingMedianSamples,
		MovingAverageSamples: cfg.TimeAnalyzer.MovingAverageSamples,
		MaxSpeedDuration:     cfg.TimeAnalyzer.MaxSpeedDurationS,
	}
	writer, err := trajectory.NewTrajectoryWriter(outFile, header)
	if err != nil {
		fmt.Printf("%v\n", err)
		os.Exit(1)
	}

	oracle := &stubOracle{}
	resolverCfg := intersect.DefaultResolverConfig()

	// Flights are independent, so process them across a bounded worker
	// pool and keep the output deterministic by writing results back in
	// input order.
	results := make([]flightResult, len(flights.order))
	var wg sync.WaitGroup
	sem := make(chan struct{}, runtime.NumCPU())
	for i, flightID := range flights.order {
		wg.Add(1)
		go func(i int, flightID string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = processFlight(flightID, flights.byFlight[flightID], cfg, oracle, resolverCfg, lg)
		}(i, flightID)
	}
	wg.Wait()

	var sectorEvents []intersect.Event
	processed, skipped := 0, 0
	for _, res := range results {
		if res.st == nil {
			skipped++
			continue
		}
		if err := writer.Write(res.st); err != nil {
			fmt.Printf("%v\n", err)
			os.Exit(1)
		}
		sectorEvents = append(sectorEvents, res.events...)
		processed++
	}

	if err := writer.Close(); err != nil {
		fmt.Printf("%v\n", err)
		os.Exit(1)
	}

	csvFile, err := os.Create(*outBase + "-sectors.csv")
	if err != nil {
		fmt.Printf("%v\n", err)
		os.Exit(1)
	}
	defer csvFile.Close()
	if err := intersect.WriteAirspaceEvents(csvFile, sectorEvents); err != nil {
		fmt.Printf("%v\n", err)
		os.Exit(1)
	}

	fmt.Printf("processed %d flights, skipped %d\n", processed, skipped)
}

// flightResult is what one worker produces for one flight: the smoothed
// trajectory and its sector events, or nothing when the flight was skipped.
type flightResult struct {
	st     *trajectory.SmoothedTrajectory
	events []intersect.Event
}

// processFlight runs the full per-flight pipeline: clean, assemble, resolve
// sector intersections. Every failure is logged with the flight id and
// turns into a skipped flight; it never poisons the other workers.
func processFlight(flightID string, reports []trajectory.PositionReport, cfg trajectory.AssemblerConfig,
	oracle intersect.GeometryOracle, resolverCfg intersect.ResolverConfig, lg *log.Logger) flightResult {

	invalid, counts := trajectory.Clean(reports, trajectory.DefaultCleanerConfig())
	cleaned := dropInvalid(reports, invalid)

	st, metrics, err := trajectory.Assemble(flightID, cleaned, cfg)
	if err != nil {
		lg.Warnf("skipping flight %s: %v", flightID, err)
		return flightResult{}
	}
	lg.Infof("flight %s: %d/%d positions retained (%d errors), profile %s", flightID,
		len(cleaned), len(reports), counts.Total, metrics.ProfileType)

	path, err := st.HorizontalPath.SpherePath(cfg.PathBuilder.MinLegLengthNM)
	if err != nil {
		lg.Warnf("flight %s: could not rebuild path for intersections: %v", flightID, err)
		return flightResult{st: st}
	}
	events, err := intersect.ResolveSectors(oracle, st, path, resolverCfg)
	if err != nil {
		lg.Warnf("flight %s: sector resolution failed: %v", flightID, err)
		return flightResult{st: st}
	}
	return flightResult{st: st, events: events}
}

type flightGroups struct {
	order    []string
	byFlight map[string][]trajectory.PositionReport
}

// validateFlights drops flights whose reports are malformed (out-of-range
// coordinates, time-order violations) before the pipeline sees them,
// accumulating one labelled entry per problem so a bad input file reports
// all of its defects at once.
func validateFlights(flights *flightGroups, e *util.ErrorLogger) {
	var keep []string
	for _, flightID := range flights.order {
		e.Push(flightID)
		if validReports(flights.byFlight[flightID], e) {
			keep = append(keep, flightID)
		} else {
			delete(flights.byFlight, flightID)
		}
		e.Pop()
	}
	flights.order = keep
}

func validReports(reports []trajectory.PositionReport, e *util.ErrorLogger) bool {
	ok := true
	for i, r := range reports {
		if r.Lat < -90 || r.Lat > 90 || r.Lon < -180 || r.Lon > 180 {
			e.ErrorString("report %d: latitude/longitude (%g, %g) out of range", i, r.Lat, r.Lon)
			ok = false
		}
		if i > 0 && r.Time.Before(reports[i-1].Time) {
			e.ErrorString("report %d: out of time order", i)
			ok = false
		}
	}
	return ok
}

// groupByFlight splits the flat input stream into per-flight report
// slices, keeping each flight's reports in input order (validateFlights
// rejects flights that are not time-ordered) and preserving first-seen
// flight order.
func groupByFlight(raw []rawPosition) flightGroups {
	g := flightGroups{byFlight: make(map[string][]trajectory.PositionReport)}
	for _, r := range raw {
		if r.FlightID == "" {
			// Reports with no upstream id cannot be grouped; give each
			// its own flight so it is cleanly skipped downstream rather
			// than silently merged.
			r.FlightID = uuid.NewString()
		}
		if _, ok := g.byFlight[r.FlightID]; !ok {
			g.order = append(g.order, r.FlightID)
		}
		g.byFlight[r.FlightID] = append(g.byFlight[r.FlightID], trajectory.PositionReport{
			Time:            r.Time,
			Lat:             r.Lat,
			Lon:             r.Lon,
			Alt:             r.Alt,
			AircraftAddress: r.AircraftAddress,
			SSRCode:         r.SSRCode,
		})
	}
	return g
}

func dropInvalid(reports []trajectory.PositionReport, invalid []bool) []trajectory.PositionReport {
	out := make([]trajectory.PositionReport, 0, len(reports))
	for i, r := range reports {
		if !invalid[i] {
			out = append(out, r)
		}
	}
	return out
}

// stubOracle is an in-memory GeometryOracle with no configured geometry: it
// reports no 2D intersections and NotFound for every lookup. It exists to
// demonstrate the wiring of the intersection resolver into the CLI driver;
// a real deployment supplies a client backed by the sector/airport
// reference database.
type stubOracle struct{}

func (*stubOracle) FindSectorIntersections2D(flightID string, lats, lons []float64, minAlt, maxAlt float64) ([]float64, []float64, []string, error) {
	return nil, nil, nil, nil
}

func (*stubOracle) FindUserVolumeIntersections2D(flightID string, lats, lons []float64, minAlt, maxAlt float64) ([]float64, []float64, []string, error) {
	return nil, nil, nil, nil
}

func (*stubOracle) SectorVerticalExtent(volumeID string) (float64, float64, error) {
	return 0, 0, trajerr.ErrNotFound
}

func (*stubOracle) SectorDisplayName(volumeID string) (string, error) {
	return "", trajerr.ErrNotFound
}

func (*stubOracle) UserVolumeVerticalExtent(volumeID string) (float64, float64, error) {
	return 0, 0, trajerr.ErrNotFound
}

func (*stubOracle) UserVolumeDisplayName(volumeID string) (string, error) {
	return "", trajerr.ErrNotFound
}

func (*stubOracle) AirportLocation(icao string) (float64, float64, error) {
	return 0, 0, trajerr.ErrNotFound
}
