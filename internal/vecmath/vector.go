// Package vecmath provides the 3-vector and 3x3 rotation matrix types used by
// the apparent-position pipeline.
//
// Vectors are plain values: every operation returns a new Vector3 and never
// mutates its receiver. Lengths are in AU and velocities in AU/day unless a
// caller documents otherwise.
package vecmath

import "math"

// Vector3 is a Cartesian 3-vector.
type Vector3 struct {
	X, Y, Z float64
}

// State is a body's position and velocity relative to some center, in a
// fixed ICRS-aligned inertial frame.
type State struct {
	Position Vector3 // AU
	Velocity Vector3 // AU/day
}

// Add returns v + o.
func (v Vector3) Add(o Vector3) Vector3 {
	return Vector3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Sub returns v - o.
func (v Vector3) Sub(o Vector3) Vector3 {
	return Vector3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Scale returns v * s.
func (v Vector3) Scale(s float64) Vector3 {
	return Vector3{v.X * s, v.Y * s, v.Z * s}
}

// Dot returns the dot product v · o.
func (v Vector3) Dot(o Vector3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

// Norm returns the Euclidean length ||v||.
func (v Vector3) Norm() float64 {
	return math.Sqrt(v.Dot(v))
}

// Unit returns v / ||v||. The zero vector is returned unchanged.
func (v Vector3) Unit() Vector3 {
	n := v.Norm()
	if n == 0 {
		return v
	}
	return v.Scale(1.0 / n)
}

// Distance returns ||b - a||.
func Distance(a, b Vector3) float64 {
	return b.Sub(a).Norm()
}

// Direction returns the unit vector pointing from a to b.
// If the two points coincide the (zero) difference is returned.
func Direction(a, b Vector3) Vector3 {
	return b.Sub(a).Unit()
}
