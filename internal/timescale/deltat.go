package timescale

// poly evaluates c[0] + c[1]·t + c[2]·t² + ...
func poly(t float64, c ...float64) float64 {
	v := 0.0
	for i := len(c) - 1; i >= 0; i-- {
		v = v*t + c[i]
	}
	return v
}

// DeltaTModel returns the polynomial estimate of TT - UT1 in seconds for the
// given civil year and month (Espenak & Meeus). y is the decimal year used
// inside each regime; the regime itself is chosen by the integer year.
func DeltaTModel(year int, month int) float64 {
	y := float64(year) + (float64(month)-0.5)/12
	switch {
	case year < -500:
		u := (y - 1820) / 100
		return -20 + 32*u*u
	case year < 500:
		return poly(y/100,
			10583.6, -1014.41, 33.78311, -5.952053, -0.1798452, 0.022174192, 0.0090316521)
	case year < 1600:
		return poly((y-1000)/100,
			1574.2, -556.01, 71.23472, 0.319781, -0.8503463, -0.005050998, 0.0083572073)
	case year < 1700:
		return poly(y-1600, 120, -0.9808, -0.01532, 1.0/7129)
	case year < 1800:
		return poly(y-1700, 8.83, 0.1603, -0.0059285, 0.00013336, -1.0/1174000)
	case year < 1860:
		return poly(y-1800,
			13.72, -0.332447, 0.0068612, 0.0041116, -0.00037436, 0.0000121272, -0.0000001699, 0.000000000875)
	case year < 1900:
		return poly(y-1860, 7.62, 0.5737, -0.251754, 0.01680668, -0.0004473624, 1.0/233174)
	case year < 1920:
		return poly(y-1900, -2.79, 1.494119, -0.0598939, 0.0061966, -0.000197)
	case year < 1941:
		return poly(y-1920, 21.20, 0.84493, -0.076100, 0.0020936)
	case year < 1961:
		return poly(y-1950, 29.07, 0.407, -1.0/233, 1.0/2547)
	case year < 1986:
		return poly(y-1975, 45.45, 1.067, -1.0/260, -1.0/718)
	case year < 2005:
		return poly(y-2000, 63.86, 0.3345, -0.060374, 0.0017275, 0.000651814, 0.00002373599)
	case year < 2050:
		return poly(y-2000, 62.92, 0.32217, 0.005589)
	case year <= 2150:
		u := (y - 1820) / 100
		return -20 + 32*u*u - 0.5628*(2150-y)
	default:
		u := (y - 1820) / 100
		return -20 + 32*u*u
	}
}

// DeltaT returns TT - UT1 in seconds. When a leap-second offset is known it
// is exact: (TT - TAI) - (UTC - TAI) - DUT1. Otherwise the polynomial model
// is used.
func DeltaT(utc Instant, utcMinusTAI int, dut1 float64) float64 {
	if utcMinusTAI != 0 {
		return TTMinusTAI - float64(utcMinusTAI) - dut1
	}
	t := utc.Time()
	return DeltaTModel(t.Year(), int(t.Month()))
}

