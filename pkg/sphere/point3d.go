// pkg/sphere/point3d.go
// Copyright(c) 2024 trajcore contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sphere

import gomath "math"

// Point3d is a unit vector in Earth-Centered Earth-Fixed coordinates.
type Point3d struct {
	X, Y, Z float64
}

// NewPoint3d builds a Point3d from a latitude/longitude pair in radians.
func NewPoint3d(latRad, lonRad float64) Point3d {
	cosLat := gomath.Cos(latRad)
	return Point3d{
		X: cosLat * gomath.Cos(lonRad),
		Y: cosLat * gomath.Sin(lonRad),
		Z: gomath.Sin(latRad),
	}
}

// PointFromDegrees builds a Point3d from a latitude/longitude pair in degrees.
func PointFromDegrees(latDeg, lonDeg float64) Point3d {
	return NewPoint3d(Radians(latDeg), Radians(lonDeg))
}

func Radians(deg float64) float64 { return deg * gomath.Pi / 180.0 }
func Degrees(rad float64) float64 { return rad * 180.0 / gomath.Pi }

// Latitude returns the point's latitude in radians.
func (p Point3d) Latitude() float64 {
	return gomath.Atan2(p.Z, gomath.Hypot(p.X, p.Y))
}

// Longitude returns the point's longitude in radians.
func (p Point3d) Longitude() float64 {
	return gomath.Atan2(p.Y, p.X)
}

// LatLonDegrees returns the point's (lat, lon) in degrees.
func (p Point3d) LatLonDegrees() (lat, lon float64) {
	return Degrees(p.Latitude()), Degrees(p.Longitude())
}

func (p Point3d) Add(q Point3d) Point3d { return Point3d{p.X + q.X, p.Y + q.Y, p.Z + q.Z} }
func (p Point3d) Sub(q Point3d) Point3d { return Point3d{p.X - q.X, p.Y - q.Y, p.Z - q.Z} }
func (p Point3d) Scale(s float64) Point3d {
	return Point3d{p.X * s, p.Y * s, p.Z * s}
}
func (p Point3d) Negate() Point3d { return Point3d{-p.X, -p.Y, -p.Z} }

func (p Point3d) Dot(q Point3d) float64 {
	return p.X*q.X + p.Y*q.Y + p.Z*q.Z
}

func (p Point3d) Cross(q Point3d) Point3d {
	return Point3d{
		X: p.Y*q.Z - p.Z*q.Y,
		Y: p.Z*q.X - p.X*q.Z,
		Z: p.X*q.Y - p.Y*q.X,
	}
}

func (p Point3d) Norm() float64 { return gomath.Sqrt(p.Dot(p)) }

// Unit returns p scaled to unit length; the zero vector is returned unchanged.
func (p Point3d) Unit() Point3d {
	n := p.Norm()
	if n == 0 {
		return p
	}
	return p.Scale(1 / n)
}

// DistanceTo returns the great-circle distance in radians between p and q.
// Uses atan2 of the cross and dot products rather than a bare acos(dot)
// for stability when the points are nearly coincident or antipodal.
func (p Point3d) DistanceTo(q Point3d) float64 {
	return gomath.Atan2(p.Cross(q).Norm(), p.Dot(q))
}

// IsAntipodal reports whether p and q are (within tol radians of) opposite
// points on the sphere, the one case great-circle constructions cannot
// resolve (infinitely many arcs connect antipodal points).
func (p Point3d) IsAntipodal(q Point3d, tol float64) bool {
	return gomath.Pi-p.DistanceTo(q) < tol
}

func (p Point3d) Equal(q Point3d, tol float64) bool {
	return p.DistanceTo(q) < tol
}
