// Package bpn builds the IAU 2006/2000A bias, precession and nutation
// rotation matrices using the Fukushima-Williams four-angle formulation.
package bpn

import (
	"fmt"

	"github.com/soniakeys/unit"

	"github.com/star/apos/internal/nutation"
	"github.com/star/apos/internal/obliquity"
	"github.com/star/apos/internal/refdata"
	"github.com/star/apos/internal/vecmath"
)

// Variant selects one of the six frame rotations.
type Variant int

const (
	Bias Variant = iota
	BiasPrecession
	BiasPrecessionNutation
	Precession
	PrecessionNutation
	Nutation
	numVariants
)

var variantNames = [numVariants]string{
	"bias", "bias+precession", "bias+precession+nutation",
	"precession", "precession+nutation", "nutation",
}

func (v Variant) String() string {
	if v < 0 || v >= numVariants {
		return fmt.Sprintf("Variant(%d)", int(v))
	}
	return variantNames[v]
}

// Variants lists every variant in declaration order.
func Variants() []Variant {
	out := make([]Variant, numVariants)
	for i := range out {
		out[i] = Variant(i)
	}
	return out
}

// Frame holds the six rotation matrices for one Julian century.
// It is immutable after construction.
type Frame struct {
	T        float64
	Eps      float64         // mean obliquity, radians
	Nut      nutation.Angles // raw nutation angles, radians
	matrices [numVariants]vecmath.Matrix
}

// New builds the frame for Julian century t (TDB) from the nutation series
// in tables.
func New(t float64, tables *refdata.Tables) *Frame {
	return NewFromAngles(t, obliquity.Mean(t), nutation.Calc(t, tables))
}

// NewFromAngles builds the frame from precomputed mean obliquity and
// nutation angles.
func NewFromAngles(t, eps float64, nut nutation.Angles) *Frame {
	f := &Frame{T: t, Eps: eps, Nut: nut}

	// IAU 2006 adjustments of the IAU 2000A nutation angles.
	fj2 := -2.7774e-6 * t
	dpsi := nut.DPsi * (1 + 0.4697e-6 + fj2)
	deps := nut.DEps * (1 + fj2)

	bp := angles(t, true)
	p := angles(t, false)
	for _, v := range Variants() {
		var m vecmath.Matrix
		switch v {
		case Bias:
			m = vecmath.Identity.
				RotateX(mas(-5.1)).
				RotateY(mas(-17.3)).
				RotateZ(mas(78.0))
		case BiasPrecession:
			m = bp.matrix(eps, 0, 0)
		case BiasPrecessionNutation:
			m = bp.matrix(eps, dpsi, deps)
		case Precession:
			m = p.matrix(eps, 0, 0)
		case PrecessionNutation:
			m = p.matrix(eps, dpsi, deps)
		case Nutation:
			m = vecmath.Identity.
				RotateX(eps).
				RotateZ(-dpsi).
				RotateX(-eps - deps)
		}
		f.matrices[v] = m
	}
	return f
}

// Matrix returns the rotation matrix for v.
func (f *Frame) Matrix(v Variant) vecmath.Matrix {
	return f.matrices[v]
}

// Apply rotates p by the matrix selected by v.
func (f *Frame) Apply(v Variant, p vecmath.Vector3) vecmath.Vector3 {
	return f.matrices[v].Apply(p)
}

// ApplyInverse rotates p by the transpose of the matrix selected by v.
func (f *Frame) ApplyInverse(v Variant, p vecmath.Vector3) vecmath.Vector3 {
	return f.matrices[v].Transpose().Apply(p)
}

type fwAngles struct {
	gamma, phi, psi float64
}

// matrix composes R1(-ε-Δε)·R3(-ψ-Δψ)·R1(φ)·R3(γ).
func (a fwAngles) matrix(eps, dpsi, deps float64) vecmath.Matrix {
	return vecmath.Identity.
		RotateZ(a.gamma).
		RotateX(a.phi).
		RotateZ(-a.psi - dpsi).
		RotateX(-eps - deps)
}

// angles evaluates the Fukushima-Williams angles γ̄, φ̄, ψ̄ at t. With
// withBias the frame bias is folded in; otherwise the precession-only
// coefficient set is used.
func angles(t float64, withBias bool) fwAngles {
	if withBias {
		return fwAngles{
			gamma: arcsec(t, -0.052928, 10.556378, 0.4932044, -0.00031238, -0.000002788, 0.0000000260),
			phi:   arcsec(t, 84381.412819, -46.811016, 0.0511268, 0.00053289, -0.000000440, -0.0000000176),
			psi:   arcsec(t, -0.041775, 5038.481484, 1.5584175, -0.00018522, -0.000026452, -0.0000000148),
		}
	}
	return fwAngles{
		gamma: arcsec(t, 0, 10.556403, 0.4932044, -0.00031238, -0.000002788, 0.0000000260),
		phi:   arcsec(t, 84381.406, -46.811015, 0.0511269, 0.00053289, -0.000000440, -0.0000000176),
		psi:   arcsec(t, 0, 5038.481507, 1.5584176, -0.00018522, -0.000026452, -0.0000000148),
	}
}

// arcsec evaluates a polynomial with coefficients in arcseconds and returns
// radians.
func arcsec(t float64, c ...float64) float64 {
	v := 0.0
	for i := len(c) - 1; i >= 0; i-- {
		v = v*t + c[i]
	}
	return unit.AngleFromSec(v).Rad()
}

func mas(v float64) float64 {
	return unit.AngleFromSec(v / 1000).Rad()
}
