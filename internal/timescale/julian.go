package timescale

import (
	"github.com/soniakeys/meeus/v3/julian"
)

// J2000 is the Julian Day of 2000-01-01 12:00:00.
const J2000 = 2451545.0

// DaysPerCentury is the length of a Julian century.
const DaysPerCentury = 36525.0

// JulianDay returns the Julian Day of the calendar date and time carried by
// i, read on the proleptic Gregorian calendar.
func JulianDay(i Instant) float64 {
	t := i.Time()
	y, m, d := t.Date()
	secOfDay := float64(t.Hour()*3600+t.Minute()*60+t.Second()) + float64(i.Nsec)/nanosPerSecond
	return julian.CalendarGregorianToJD(y, int(m), float64(d)+secOfDay/86400)
}

// JulianCentury returns (jd - J2000) / 36525.
func JulianCentury(jd float64) float64 {
	return (jd - J2000) / DaysPerCentury
}
