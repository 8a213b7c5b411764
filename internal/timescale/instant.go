// Package timescale converts a UTC instant through the TAI, UT1, TT, TCG, TCB
// and TDB time scales and computes Julian Days and ΔT.
package timescale

import (
	"math"
	"time"
)

const nanosPerSecond = 1_000_000_000

// Instant is a point on some time scale as whole seconds since the Unix
// epoch plus a nanosecond fraction. Nsec is always in [0, 1e9).
type Instant struct {
	Sec  int64
	Nsec int64
}

// NewInstant builds a normalized Instant.
func NewInstant(sec, nsec int64) Instant {
	sec += nsec / nanosPerSecond
	nsec %= nanosPerSecond
	if nsec < 0 {
		sec--
		nsec += nanosPerSecond
	}
	return Instant{Sec: sec, Nsec: nsec}
}

// FromTime converts t to an Instant.
func FromTime(t time.Time) Instant {
	return NewInstant(t.Unix(), int64(t.Nanosecond()))
}

// Time returns the instant as a UTC time.Time. The calendar fields are those
// of whatever scale the instant belongs to.
func (i Instant) Time() time.Time {
	return time.Unix(i.Sec, i.Nsec).UTC()
}

// AddSeconds returns i shifted by s seconds, carrying the fractional part
// into the nanosecond field.
func (i Instant) AddSeconds(s float64) Instant {
	whole := math.Floor(s)
	frac := math.Round((s - whole) * nanosPerSecond)
	return NewInstant(i.Sec+int64(whole), i.Nsec+int64(frac))
}

// Sub returns i - o in seconds.
func (i Instant) Sub(o Instant) float64 {
	return float64(i.Sec-o.Sec) + float64(i.Nsec-o.Nsec)/nanosPerSecond
}

// ToZone shifts i by offsetHours, e.g. 9 turns UTC into JST.
func ToZone(i Instant, offsetHours int) Instant {
	return NewInstant(i.Sec+int64(offsetHours)*3600, i.Nsec)
}

// FromZone is the inverse of ToZone.
func FromZone(i Instant, offsetHours int) Instant {
	return ToZone(i, -offsetHours)
}

// Format renders i as "2006-01-02 15:04:05.000".
func (i Instant) Format() string {
	return i.Time().Format("2006-01-02 15:04:05.000")
}
