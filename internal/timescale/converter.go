package timescale

import (
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru"

	"github.com/star/apos/internal/refdata"
)

// ErrNoTables is returned when a Converter is built without reference tables.
var ErrNoTables = errors.New("timescale: reference tables are required")

// DefaultCacheSize is the number of converted instants kept in memory.
const DefaultCacheSize = 1024

// Epochs is one UTC instant expressed on every supported time scale.
type Epochs struct {
	UTC Instant
	TAI Instant
	UT1 Instant
	TT  Instant
	TCG Instant
	TCB Instant
	TDB Instant

	UTCMinusTAI int     // seconds, from the leap-second table
	DUT1        float64 // UT1 - UTC, seconds
	DeltaT      float64 // TT - UT1, seconds

	JD    float64 // Julian Day of the UTC calendar date
	JDTDB float64 // Julian Day of the TDB calendar date
	T     float64 // Julian centuries of TDB since J2000
}

// Converter turns UTC instants into Epochs using a fixed set of reference
// tables. Results are memoised per instant; a Converter is safe for
// concurrent use.
type Converter struct {
	tables *refdata.Tables
	cache  *lru.Cache
}

// NewConverter creates a Converter. cacheSize <= 0 selects DefaultCacheSize.
func NewConverter(tables *refdata.Tables, cacheSize int) (*Converter, error) {
	if tables == nil {
		return nil, ErrNoTables
	}
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating epoch cache: %w", err)
	}
	return &Converter{tables: tables, cache: cache}, nil
}

// Tables returns the reference tables the converter was built with.
func (c *Converter) Tables() *refdata.Tables {
	return c.tables
}

// Convert returns every epoch for the UTC instant utc.
func (c *Converter) Convert(utc Instant) Epochs {
	if v, ok := c.cache.Get(utc); ok {
		return v.(Epochs)
	}
	e := Compute(utc, c.tables)
	c.cache.Add(utc, e)
	return e
}

// Compute runs the conversion chain without memoisation. Dates before the
// first table row get a zero leap-second offset and zero DUT1.
func Compute(utc Instant, tables *refdata.Tables) Epochs {
	date := refdata.DateKeyOf(utc.Time())
	utcTAI, _ := tables.UTCMinusTAI(date)
	dut1, _ := tables.DUT1At(date)

	jd := JulianDay(utc)
	tai := UTCToTAI(utc, utcTAI)
	tt := TAIToTT(tai)
	tcb := TTToTCB(tt, jd)
	tdb := TCBToTDB(tcb, jd)
	jdTDB := JulianDay(tdb)

	return Epochs{
		UTC:         utc,
		TAI:         tai,
		UT1:         UTCToUT1(utc, dut1),
		TT:          tt,
		TCG:         TTToTCG(tt, jd),
		TCB:         tcb,
		TDB:         tdb,
		UTCMinusTAI: utcTAI,
		DUT1:        dut1,
		DeltaT:      DeltaT(utc, utcTAI, dut1),
		JD:          jd,
		JDTDB:       jdTDB,
		T:           JulianCentury(jdTDB),
	}
}
