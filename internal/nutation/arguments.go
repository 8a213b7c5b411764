package nutation

import (
	"math"

	"github.com/soniakeys/unit"
)

const (
	twoPi = 2 * math.Pi

	// arcseconds in a full circle
	turnArcsec = 1296000.0
)

// Arguments are the fundamental arguments of the nutation series at one
// instant, each in radians and reduced to [0, 2π) except PA.
type Arguments struct {
	L, LP, F, D, Om float64 // luni-solar (IERS 2003 / MHB2000 polynomials)

	// Planetary series uses its own linear approximations of l, F, D, Ω.
	PL, PF, PD, POm float64

	Me, Ve, E, Ma, J, Sa, U, Ne float64 // planetary mean longitudes
	PA                          float64 // general accumulated precession
}

// arcsecArg evaluates a quartic polynomial in arcseconds and reduces it to
// an angle in [0, 2π).
func arcsecArg(t, c0, c1, c2, c3, c4 float64) float64 {
	v := c0 + (c1+(c2+(c3+c4*t)*t)*t)*t
	return unit.AngleFromSec(unit.PMod(v, turnArcsec)).Rad()
}

func radArg(c0, c1, t float64) float64 {
	return unit.PMod(c0+c1*t, twoPi)
}

// FundamentalArguments evaluates every argument at Julian century t (TDB).
func FundamentalArguments(t float64) Arguments {
	return Arguments{
		L:  arcsecArg(t, 485868.249036, 1717915923.2178, 31.8792, 0.051635, -0.00024470),
		LP: arcsecArg(t, 1287104.79305, 129596581.0481, -0.5532, 0.000136, -0.00001149),
		F:  arcsecArg(t, 335779.526232, 1739527262.8478, -12.7512, -0.001037, 0.00000417),
		D:  arcsecArg(t, 1072260.70369, 1602961601.2090, -6.3706, 0.006593, -0.00003169),
		Om: arcsecArg(t, 450160.398036, -6962890.5431, 7.4722, 0.007702, -0.00005939),

		PL:  radArg(2.35555598, 8328.6914269554, t),
		PF:  radArg(1.627905234, 8433.466158131, t),
		PD:  radArg(5.198466741, 7771.3771468121, t),
		POm: radArg(2.18243920, -33.757045, t),

		Me: radArg(4.402608842, 2608.7903141574, t),
		Ve: radArg(3.176146697, 1021.3285546211, t),
		E:  radArg(1.753470314, 628.3075849991, t),
		Ma: radArg(6.203480913, 334.0612426700, t),
		J:  radArg(0.599546497, 52.9690962641, t),
		Sa: radArg(0.874016757, 21.3299104960, t),
		U:  radArg(5.481293872, 7.4781598567, t),
		Ne: radArg(5.321159000, 3.8127774000, t),
		PA: (0.024381750 + 0.00000538691*t) * t,
	}
}
