package refdata

import "time"

// DateKey is a civil date packed as YYYYMMDD, so that ordinary integer
// comparison orders dates chronologically.
type DateKey int

// NewDateKey packs a calendar date.
func NewDateKey(year int, month time.Month, day int) DateKey {
	return DateKey(year*10000 + int(month)*100 + day)
}

// DateKeyOf returns the UTC calendar date of t.
func DateKeyOf(t time.Time) DateKey {
	y, m, d := t.UTC().Date()
	return NewDateKey(y, m, d)
}

// LeapSecond is one row of the leap-second history.
type LeapSecond struct {
	Date        DateKey
	UTCMinusTAI int // cumulative, seconds (negative since 1972)
}

// DUT1Entry is one row of the DUT1 history.
type DUT1Entry struct {
	Date    DateKey
	Seconds float64 // UT1 - UTC
}

// LuniSolarTerm is one row of the luni-solar nutation series.
// Amp holds A, A', A'', B, B', B'' in units of 0.1 microarcsecond.
type LuniSolarTerm struct {
	Mult [5]float64 // l, l', F, D, Ω
	Amp  [6]float64
}

// PlanetaryTerm is one row of the planetary nutation series.
// Mult follows the column order l, l', F, D, Ω, Me, Ve, E, Ma, J, Sa, U, Ne,
// pA; the l' column is carried but not used by the series.
// Amp holds the Δψ sin/cos and Δε sin/cos amplitudes in 0.1 microarcsecond.
type PlanetaryTerm struct {
	Mult [14]float64
	Amp  [4]float64
}

// Tables is the complete, read-only reference data set.
type Tables struct {
	Source      string
	LoadedAt    time.Time
	LeapSeconds []LeapSecond
	DUT1        []DUT1Entry
	LuniSolar   []LuniSolarTerm
	Planetary   []PlanetaryTerm
}

// Term counts of the complete IAU 2000A nutation series.
const (
	FullLuniSolarTerms = 678
	FullPlanetaryTerms = 687
)

// EmbeddedSource is the Source of the tables compiled into the binary.
const EmbeddedSource = "embedded"

// Approximate reports whether positions computed from t fall short of the
// full IAU 2000A model: either series is missing terms, or the tables are
// the embedded set whose DUT1 history is a coarse sample.
func (t *Tables) Approximate() bool {
	return t.Source == EmbeddedSource ||
		len(t.LuniSolar) < FullLuniSolarTerms ||
		len(t.Planetary) < FullPlanetaryTerms
}
