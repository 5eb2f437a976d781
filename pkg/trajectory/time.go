// pkg/trajectory/time.go
// Copyright(c) 2024 trajcore contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package trajectory

import (
	gomath "math"
	"sort"
	"time"

	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/mat"

	"github.com/euctrl-pru/trajcore/pkg/trajerr"
)

// TimeProfile smooths elapsed time vs path distance and supports
// cubic-spline interpolation in both directions.
type TimeProfile struct {
	StartTime    time.Time
	Distances    []float64 // NM, strictly increasing
	ElapsedTimes []float64 // seconds from StartTime

	byDistance *interp.NaturalCubic
	byTime     *interp.NaturalCubic
}

// NewTimeProfile builds a TimeProfile and fits the cubic splines used by
// TimeAt/DistanceAt. Distances must be strictly increasing (duplicate
// positions must already have been filtered out by the caller).
func NewTimeProfile(startTime time.Time, distances, elapsedTimes []float64) (*TimeProfile, error) {
	if len(distances) != len(elapsedTimes) || len(distances) < 2 {
		return nil, trajerr.ErrInvalidInput
	}
	tp := &TimeProfile{StartTime: startTime, Distances: distances, ElapsedTimes: elapsedTimes}

	byDist := new(interp.NaturalCubic)
	if err := byDist.Fit(distances, elapsedTimes); err != nil {
		return nil, trajerr.ErrNumericalFailure
	}
	tp.byDistance = byDist

	timesSorted := append([]float64(nil), elapsedTimes...)
	distsSorted := append([]float64(nil), distances...)
	sortParallel(timesSorted, distsSorted)
	byTime := new(interp.NaturalCubic)
	if err := byTime.Fit(timesSorted, distsSorted); err != nil {
		return nil, trajerr.ErrNumericalFailure
	}
	tp.byTime = byTime

	return tp, nil
}

func sortParallel(keys, vals []float64) {
	idx := make([]int, len(keys))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return keys[idx[a]] < keys[idx[b]] })
	k2 := make([]float64, len(keys))
	v2 := make([]float64, len(vals))
	for i, j := range idx {
		k2[i] = keys[j]
		v2[i] = vals[j]
	}
	copy(keys, k2)
	copy(vals, v2)
}

// TimeAt interpolates elapsed time (seconds) at a path distance (NM), via
// cubic spline, clamped to the profile's domain at the ends.
func (tp *TimeProfile) TimeAt(distance float64) float64 {
	return evalClamped(tp.byDistance, tp.Distances, distance)
}

// DistanceAt interpolates path distance (NM) at an elapsed time (seconds).
func (tp *TimeProfile) DistanceAt(elapsedS float64) float64 {
	sorted := append([]float64(nil), tp.ElapsedTimes...)
	sort.Float64s(sorted)
	return evalClamped(tp.byTime, sorted, elapsedS)
}

func evalClamped(pc *interp.NaturalCubic, xs []float64, x float64) float64 {
	if x <= xs[0] {
		return pc.Predict(xs[0])
	}
	if x >= xs[len(xs)-1] {
		return pc.Predict(xs[len(xs)-1])
	}
	return pc.Predict(x)
}

// At returns the absolute time at distance.
func (tp *TimeProfile) At(distance float64) time.Time {
	return tp.StartTime.Add(time.Duration(tp.TimeAt(distance) * float64(time.Second)))
}

// CalculateAveragePeriod returns the average seconds/sample between
// startDistance and finishDistance, or zero if there are not enough points
// between them (the per-phase average sample period metric).
func (tp *TimeProfile) CalculateAveragePeriod(startDistance, finishDistance float64) float64 {
	if startDistance >= finishDistance {
		return 0
	}
	startIdx := valueReference(tp.Distances, startDistance)
	finishIdx := valueReference(tp.Distances, finishDistance)
	deltaIdx := finishIdx - startIdx
	if deltaIdx <= 2 {
		return 0
	}
	firstTime := tp.ElapsedTimes[startIdx+1]
	lastTime := tp.ElapsedTimes[finishIdx]
	return (lastTime - firstTime) / float64(deltaIdx-1)
}

// valueReference returns the index of value in values, or the index just
// before it.
func valueReference(values []float64, value float64) int {
	idx := sort.SearchFloat64s(values, value)
	if idx >= len(values) {
		return len(values) - 1
	}
	if idx > 0 && value < values[idx] {
		idx--
	}
	return idx
}

// AnalyseTimesBySpeed smooths elapsed times via the moving-average-speed
// method: recompute ground speeds, median- then mean-filter them,
// then re-integrate.
func AnalyseTimesBySpeed(distances []float64, times []time.Time, duplicate []bool, cfg TimeAnalyzerConfig) (*TimeProfile, float64, float64, int, error) {
	validDistances, validTimes := filterDuplicates(distances, times, duplicate)
	if len(validDistances) < 2 {
		return nil, 0, 0, 0, trajerr.ErrInvalidInput
	}
	elapsed := elapsedSeconds(validTimes)

	speeds := groundSpeeds(validDistances, elapsed, cfg.MaxSpeedDurationS)

	if cfg.MovingMedianSamples > 1 && len(speeds) > cfg.MovingMedianSamples+1 {
		movingFilter(speeds[1:], cfg.MovingMedianSamples, median)
	}
	if cfg.MovingAverageSamples > 1 && len(speeds) > cfg.MovingAverageSamples+1 {
		movingFilter(speeds[1:], cfg.MovingAverageSamples, mean)
	}

	smoothed := make([]float64, len(validDistances))
	for i := 1; i < len(validDistances); i++ {
		legLen := validDistances[i] - validDistances[i-1]
		speed := speeds[i]
		if speed == 0 {
			speed = 1e-6
		}
		smoothed[i] = smoothed[i-1] + 3600.0*legLen/speed
	}

	deltaSum := 0.0
	for i := range smoothed {
		deltaSum += smoothed[i] - elapsed[i]
	}
	meanDelta := deltaSum / float64(len(smoothed))
	for i := range smoothed {
		smoothed[i] -= meanDelta
	}

	deltas := make([]float64, len(smoothed))
	for i := range smoothed {
		deltas[i] = smoothed[i] - elapsed[i]
	}
	sd := stdDev(deltas)
	maxDelta, maxIdx := findMostExtreme(deltas)

	tp, err := NewTimeProfile(validTimes[0], validDistances, smoothed)
	if err != nil {
		return nil, 0, 0, 0, err
	}
	return tp, sd, maxDelta, maxIdx, nil
}

// groundSpeeds computes per-leg speed, replacing short, non-monotone legs
// (duration below maxDuration and not bracketed by its neighbours) with the
// two-leg average speed spanning them.
func groundSpeeds(distances, elapsed []float64, maxDuration float64) []float64 {
	n := len(distances)
	legLengths := make([]float64, n)
	durations := make([]float64, n)
	for i := 1; i < n; i++ {
		legLengths[i] = distances[i] - distances[i-1]
		durations[i] = elapsed[i] - elapsed[i-1]
	}
	speeds := make([]float64, n)
	for i := 1; i < n; i++ {
		speeds[i] = speedKt(legLengths[i], durations[i])
	}

	if n > 2 {
		if durations[1] < maxDuration/10.0 {
			speeds[1] = speedKt(legLengths[1]+legLengths[2], durations[1]+durations[2])
		}
		for i := 2; i < n-1; i++ {
			monotoneUp := speeds[i-1] <= speeds[i] && speeds[i] <= speeds[i+1]
			monotoneDown := speeds[i-1] >= speeds[i] && speeds[i] >= speeds[i+1]
			if durations[i] < maxDuration && !monotoneUp && !monotoneDown {
				speeds[i] = speedKt(legLengths[i]+legLengths[i+1], durations[i]+durations[i+1])
			}
		}
	}
	return speeds
}

func speedKt(distanceNM, durationS float64) float64 {
	if durationS <= 0 {
		durationS = 0.5
	}
	return 3600.0 * distanceNM / durationS
}

// movingFilter applies fn over a centred window of width n (odd) to x,
// leaving the first and last n/2 samples unmodified.
func movingFilter(x []float64, n int, fn func([]float64) float64) {
	if n <= 1 || len(x) <= n {
		return
	}
	half := n / 2
	out := make([]float64, len(x))
	copy(out, x)
	for i := half; i < len(x)-half; i++ {
		out[i] = fn(x[i-half : i+half+1])
	}
	copy(x, out)
}

func median(vs []float64) float64 {
	s := append([]float64(nil), vs...)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

func mean(vs []float64) float64 {
	sum := 0.0
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

func stdDev(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	m := mean(vs)
	sumSq := 0.0
	for _, v := range vs {
		sumSq += (v - m) * (v - m)
	}
	return gomath.Sqrt(sumSq / float64(len(vs)))
}

func elapsedSeconds(times []time.Time) []float64 {
	out := make([]float64, len(times))
	if len(times) == 0 {
		return out
	}
	t0 := times[0]
	for i, t := range times {
		out[i] = t.Sub(t0).Seconds()
	}
	return out
}

func filterDuplicates(distances []float64, times []time.Time, duplicate []bool) ([]float64, []time.Time) {
	var d []float64
	var t []time.Time
	for i := range distances {
		if i < len(duplicate) && duplicate[i] {
			continue
		}
		d = append(d, distances[i])
		t = append(t, times[i])
	}
	return d, t
}

// FindDuplicateDistances flags points within tolNM of their predecessor
// (other than the first point, which is never a duplicate).
func FindDuplicateDistances(distances []float64, tolNM float64) []bool {
	out := make([]bool, len(distances))
	for i := 1; i < len(distances); i++ {
		if distances[i]-distances[i-1] < tolNM {
			out[i] = true
		}
	}
	return out
}

// AnalyseTimesByCurveFit fits a degree-5 polynomial t(d) to the non-duplicate
// (distance, time) pairs by least squares; the Levenberg-Marquardt,
// trust-region-reflective, and dogbox variants all converge to the same
// optimum on this model, so the selector is accepted but not used.
func AnalyseTimesByCurveFit(distances []float64, times []time.Time, duplicate []bool, _ TimeSmoothingMethod) (*TimeProfile, float64, float64, int, error) {
	validDistances, validTimes := filterDuplicates(distances, times, duplicate)
	if len(validDistances) < 6 {
		return nil, 0, 0, 0, trajerr.ErrNumericalFailure
	}
	elapsed := elapsedSeconds(validTimes)

	coeffs, covDiag, err := fitPolynomial5(validDistances, elapsed)
	if err != nil {
		return nil, 0, 0, 0, trajerr.ErrNumericalFailure
	}

	smoothed := make([]float64, len(validDistances))
	for i, d := range validDistances {
		smoothed[i] = evalPolynomial5(coeffs, d)
	}

	sumDiag := 0.0
	for _, v := range covDiag {
		sumDiag += v
	}
	timeSD := gomath.Sqrt(gomath.Abs(sumDiag))

	deltas := make([]float64, len(smoothed))
	for i := range smoothed {
		deltas[i] = smoothed[i] - elapsed[i]
	}
	maxDelta, maxIdx := findMostExtreme(deltas)

	tp, err := NewTimeProfile(validTimes[0], validDistances, smoothed)
	if err != nil {
		return nil, 0, 0, 0, err
	}
	return tp, timeSD, maxDelta, maxIdx, nil
}

// fitPolynomial5 fits a*x^5+b*x^4+c*x^3+d*x^2+e*x+f by linear least squares
// on the Vandermonde design: the coefficients enter linearly, so an
// ordinary normal-equations solve reaches the optimum a damped nonlinear
// iteration would. Returns the 6 coefficients (highest
// degree first) and the diagonal of (AtA)^-1 scaled by the residual
// variance, the covariance proxy used for the time_sd metric.
func fitPolynomial5(x, y []float64) ([]float64, []float64, error) {
	n := len(x)
	const degree = 5
	a := mat.NewDense(n, degree+1, nil)
	for i, xi := range x {
		p := 1.0
		for j := degree; j >= 0; j-- {
			a.Set(i, j, p)
			p *= xi
		}
	}
	yv := mat.NewVecDense(n, y)

	var ata mat.Dense
	ata.Mul(a.T(), a)
	var aty mat.VecDense
	aty.MulVec(a.T(), yv)

	var coeffs mat.VecDense
	if err := coeffs.SolveVec(&ata, &aty); err != nil {
		return nil, nil, err
	}

	var ataInv mat.Dense
	if err := ataInv.Inverse(&ata); err != nil {
		return nil, nil, err
	}

	residSS := 0.0
	out := make([]float64, degree+1)
	for j := 0; j <= degree; j++ {
		out[j] = coeffs.AtVec(j)
	}
	for i, xi := range x {
		residSS += sq(evalPolynomial5(out, xi) - y[i])
	}
	variance := 0.0
	if n > degree+1 {
		variance = residSS / float64(n-degree-1)
	}

	diag := make([]float64, degree+1)
	for j := 0; j <= degree; j++ {
		diag[j] = variance * ataInv.At(j, j)
	}

	return out, diag, nil
}

func evalPolynomial5(coeffs []float64, x float64) float64 {
	// coeffs[0]=a (x^5) ... coeffs[5]=f (x^0), Horner's method.
	v := 0.0
	for _, c := range coeffs {
		v = v*x + c
	}
	return v
}

func sq(v float64) float64 { return v * v }
