// Package obliquity computes the mean obliquity of the ecliptic.
package obliquity

import "github.com/soniakeys/unit"

// Mean returns the IAU 2006 mean obliquity of the ecliptic at Julian
// century t (TDB), in radians.
func Mean(t float64) float64 {
	sec := 84381.406 +
		(-46.836769+
			(-0.0001831+
				(0.00200340+
					(-0.000000576+
						-0.0000000434*t)*t)*t)*t)*t
	return unit.AngleFromSec(sec).Rad()
}
