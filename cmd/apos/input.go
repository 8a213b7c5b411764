package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/star/apos/internal/timescale"
)

const (
	minInputDigits = 14 // YYYYMMDDhhmmss
	maxInputDigits = 23 // plus nine fractional digits
)

var errInputFormat = errors.New("time must be YYYYMMDDhhmmss followed by up to 9 fractional digits")

// parseInput reads a compact civil time in the zone offsetHours east of UTC
// and returns it as a UTC instant.
func parseInput(s string, offsetHours int) (timescale.Instant, error) {
	if len(s) > maxInputDigits {
		return timescale.Instant{}, fmt.Errorf("%w: over %d digits", errInputFormat, maxInputDigits)
	}
	if len(s) < minInputDigits {
		return timescale.Instant{}, fmt.Errorf("%w: %q", errInputFormat, s)
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return timescale.Instant{}, fmt.Errorf("%w: %q", errInputFormat, s)
		}
	}

	zone := time.FixedZone(fmt.Sprintf("UTC%+d", offsetHours), offsetHours*3600)
	t, err := time.ParseInLocation("20060102150405", s[:minInputDigits], zone)
	if err != nil {
		return timescale.Instant{}, fmt.Errorf("%w: %v", errInputFormat, err)
	}

	var nsec int64
	if frac := s[minInputDigits:]; frac != "" {
		frac += strings.Repeat("0", 9-len(frac))
		nsec, _ = strconv.ParseInt(frac, 10, 64)
	}
	return timescale.NewInstant(t.Unix(), nsec), nil
}

// inputInstant parses args[0], or returns now when args is empty.
func inputInstant(args []string, offsetHours int) (timescale.Instant, error) {
	if len(args) == 0 {
		return timescale.FromTime(time.Now()), nil
	}
	return parseInput(args[0], offsetHours)
}
