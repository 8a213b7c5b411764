package refdata

// UTCMinusTAI returns the cumulative leap-second offset in effect on date.
// The table is scanned from its newest row backwards and the first row whose
// effective date is on or before date wins. ok is false when date precedes
// every row; the offset is then zero.
func (t *Tables) UTCMinusTAI(date DateKey) (offset int, ok bool) {
	for i := len(t.LeapSeconds) - 1; i >= 0; i-- {
		if t.LeapSeconds[i].Date <= date {
			return t.LeapSeconds[i].UTCMinusTAI, true
		}
	}
	return 0, false
}

// DUT1At returns UT1 - UTC in effect on date, with the same scan and
// fallback rules as UTCMinusTAI.
func (t *Tables) DUT1At(date DateKey) (seconds float64, ok bool) {
	for i := len(t.DUT1) - 1; i >= 0; i-- {
		if t.DUT1[i].Date <= date {
			return t.DUT1[i].Seconds, true
		}
	}
	return 0, false
}
