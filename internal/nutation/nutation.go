// Package nutation evaluates the IAU 2000A nutation series.
package nutation

import (
	"math"

	"github.com/soniakeys/unit"

	"github.com/star/apos/internal/refdata"
)

// 0.1 microarcsecond in radians
var u2r = unit.AngleFromSec(1e-7).Rad()

// Angles is nutation in longitude (DPsi) and obliquity (DEps), in radians.
type Angles struct {
	DPsi float64
	DEps float64
}

// Calc returns the total nutation at Julian century t using the luni-solar
// and planetary series in tables.
func Calc(t float64, tables *refdata.Tables) Angles {
	args := FundamentalArguments(t)
	ls := LuniSolar(t, args, tables.LuniSolar)
	pl := Planetary(args, tables.Planetary)
	return Angles{DPsi: ls.DPsi + pl.DPsi, DEps: ls.DEps + pl.DEps}
}

// LuniSolar sums the luni-solar series, last row first.
func LuniSolar(t float64, args Arguments, terms []refdata.LuniSolarTerm) Angles {
	var dp, de float64
	for i := len(terms) - 1; i >= 0; i-- {
		m, amp := terms[i].Mult, terms[i].Amp
		a := unit.PMod(m[0]*args.L+m[1]*args.LP+m[2]*args.F+m[3]*args.D+m[4]*args.Om, twoPi)
		sa, ca := math.Sincos(a)
		dp += (amp[0]+amp[1]*t)*sa + amp[2]*ca
		de += (amp[3]+amp[4]*t)*ca + amp[5]*sa
	}
	return Angles{DPsi: dp * u2r, DEps: de * u2r}
}

// Planetary sums the planetary series. The l' multiplier column is ignored.
func Planetary(args Arguments, terms []refdata.PlanetaryTerm) Angles {
	var dp, de float64
	for i := len(terms) - 1; i >= 0; i-- {
		m, amp := terms[i].Mult, terms[i].Amp
		a := m[0]*args.PL + m[2]*args.PF + m[3]*args.PD + m[4]*args.POm +
			m[5]*args.Me + m[6]*args.Ve + m[7]*args.E + m[8]*args.Ma +
			m[9]*args.J + m[10]*args.Sa + m[11]*args.U + m[12]*args.Ne +
			m[13]*args.PA
		sa, ca := math.Sincos(unit.PMod(a, twoPi))
		dp += amp[0]*sa + amp[1]*ca
		de += amp[2]*sa + amp[3]*ca
	}
	return Angles{DPsi: dp * u2r, DEps: de * u2r}
}
