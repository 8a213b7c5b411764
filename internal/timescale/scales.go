package timescale

// Time-scale constants (IERS Conventions 2010).
const (
	TTMinusTAI = 32.184          // seconds
	LG         = 6.969290134e-10 // TCG rate relative to TT
	LB         = 1.550519768e-8  // TCB rate relative to TDB
	T0         = 2443144.5003725 // JD of 1977-01-01 00:00:32.184 TAI
	TDB0       = -6.55e-5        // seconds
)

const secondsPerDay = 86400.0

// UTCToTAI removes the leap-second offset (UTC - TAI).
func UTCToTAI(utc Instant, utcMinusTAI int) Instant {
	return NewInstant(utc.Sec-int64(utcMinusTAI), utc.Nsec)
}

// UTCToUT1 adds DUT1 (UT1 - UTC).
func UTCToUT1(utc Instant, dut1 float64) Instant {
	return utc.AddSeconds(dut1)
}

// TAIToTT adds the fixed TT - TAI offset.
func TAIToTT(tai Instant) Instant {
	return tai.AddSeconds(TTMinusTAI)
}

// TTToTCG adds the secular LG term accumulated since T0. jd is the Julian
// Day of the instant being converted.
func TTToTCG(tt Instant, jd float64) Instant {
	return tt.AddSeconds(LG * (jd - T0) * secondsPerDay)
}

// TTToTCB adds the secular LB term accumulated since T0.
func TTToTCB(tt Instant, jd float64) Instant {
	return tt.AddSeconds(LB * (jd - T0) * secondsPerDay)
}

// TCBToTDB removes the LB rate term and the TDB0 offset.
func TCBToTDB(tcb Instant, jd float64) Instant {
	return tcb.AddSeconds(-(LB*(jd-T0)*secondsPerDay + TDB0))
}
