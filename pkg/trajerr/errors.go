// pkg/trajerr/errors.go
// Copyright(c) 2024 trajcore contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package trajerr holds the sentinel errors shared across the trajectory
// core, so that every package reports failures the per-flight driver
// can match with errors.Is instead of inspecting message strings.
package trajerr

import "errors"

var (
	ErrShortLeg          = errors.New("consecutive waypoints closer than minimum spacing")
	ErrPathTooShort      = errors.New("path length at or below tolerance")
	ErrPathShort         = errors.New("cleaned positions extend beyond the fitted path")
	ErrInvalidInput      = errors.New("invalid input: bad time order, empty input, or mismatched array lengths")
	ErrDistanceTolerance = errors.New("airport intersection distance outside tolerance")
	ErrNotFound          = errors.New("oracle lookup miss")
	ErrNumericalFailure  = errors.New("curve-fit or spline failure")
)
