// Package transform converts positions between rectangular and polar form
// and between the equatorial and ecliptic frames.
package transform

import (
	"math"

	"github.com/soniakeys/unit"

	"github.com/star/apos/internal/vecmath"
)

// Polar is a spherical position: longitude-like angle in [0, 2π),
// latitude-like angle in [-π/2, π/2], both in radians, and a radius in the
// units of the source vector.
type Polar struct {
	Lon float64
	Lat float64
	R   float64
}

// LonDeg returns Lon in degrees.
func (p Polar) LonDeg() float64 { return unit.Angle(p.Lon).Deg() }

// LatDeg returns Lat in degrees.
func (p Polar) LatDeg() float64 { return unit.Angle(p.Lat).Deg() }

// Rect2Pol decomposes v. The zero vector maps to the zero Polar.
func Rect2Pol(v vecmath.Vector3) Polar {
	r := v.Norm()
	if r == 0 {
		return Polar{}
	}
	return Polar{
		Lon: unit.PMod(math.Atan2(v.Y, v.X), 2*math.Pi),
		Lat: math.Asin(v.Z / r),
		R:   r,
	}
}

// Pol2Rect is the inverse of Rect2Pol.
func Pol2Rect(p Polar) vecmath.Vector3 {
	sl, cl := math.Sincos(p.Lon)
	sb, cb := math.Sincos(p.Lat)
	return vecmath.Vector3{
		X: p.R * cb * cl,
		Y: p.R * cb * sl,
		Z: p.R * sb,
	}
}

// RectEqToEc rotates an equatorial vector into the ecliptic frame of
// obliquity eps.
func RectEqToEc(v vecmath.Vector3, eps float64) vecmath.Vector3 {
	return vecmath.R1(eps).Apply(v)
}

// RectEcToEq rotates an ecliptic vector into the equatorial frame.
func RectEcToEq(v vecmath.Vector3, eps float64) vecmath.Vector3 {
	return vecmath.R1(-eps).Apply(v)
}

// PolEqToEc converts equatorial (α, δ, r) to ecliptic (λ, β, r).
func PolEqToEc(p Polar, eps float64) Polar {
	return Rect2Pol(RectEqToEc(Pol2Rect(p), eps))
}

// PolEcToEq converts ecliptic (λ, β, r) to equatorial (α, δ, r).
func PolEcToEq(p Polar, eps float64) Polar {
	return Rect2Pol(RectEcToEq(Pol2Rect(p), eps))
}
