package vecmath

import "math"

// Matrix is a 3x3 matrix stored row-major. Rotation matrices built by this
// package are orthogonal, so the transpose is the inverse.
type Matrix [3][3]float64

// Identity is the 3x3 unit matrix.
var Identity = Matrix{
	{1, 0, 0},
	{0, 1, 0},
	{0, 0, 1},
}

// R1 returns the frame rotation about the x-axis by angle a (radians).
//
//	| 1    0     0  |
//	| 0  cos a sin a|
//	| 0 -sin a cos a|
func R1(a float64) Matrix {
	s, c := math.Sincos(a)
	return Matrix{
		{1, 0, 0},
		{0, c, s},
		{0, -s, c},
	}
}

// R2 returns the frame rotation about the y-axis by angle a (radians).
func R2(a float64) Matrix {
	s, c := math.Sincos(a)
	return Matrix{
		{c, 0, -s},
		{0, 1, 0},
		{s, 0, c},
	}
}

// R3 returns the frame rotation about the z-axis by angle a (radians).
func R3(a float64) Matrix {
	s, c := math.Sincos(a)
	return Matrix{
		{c, s, 0},
		{-s, c, 0},
		{0, 0, 1},
	}
}

// Mul returns the matrix product m · o.
func (m Matrix) Mul(o Matrix) Matrix {
	var r Matrix
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = m[i][0]*o[0][j] + m[i][1]*o[1][j] + m[i][2]*o[2][j]
		}
	}
	return r
}

// Transpose returns mᵀ.
func (m Matrix) Transpose() Matrix {
	var r Matrix
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = m[j][i]
		}
	}
	return r
}

// Apply returns m · v.
func (m Matrix) Apply(v Vector3) Vector3 {
	return Vector3{
		X: m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z,
		Y: m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z,
		Z: m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z,
	}
}

// RotateX returns R1(a) · m, i.e. m followed by a rotation about x.
func (m Matrix) RotateX(a float64) Matrix { return R1(a).Mul(m) }

// RotateY returns R2(a) · m.
func (m Matrix) RotateY(a float64) Matrix { return R2(a).Mul(m) }

// RotateZ returns R3(a) · m.
func (m Matrix) RotateZ(a float64) Matrix { return R3(a).Mul(m) }
