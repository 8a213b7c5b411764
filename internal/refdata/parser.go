package refdata

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// ErrMalformedRow is returned when a table row has the wrong number of
// columns or a value that does not parse.
var ErrMalformedRow = errors.New("malformed reference table row")

// ErrEmptyTable is returned when a table file contains no data rows.
var ErrEmptyTable = errors.New("reference table has no rows")

const (
	leapSecondCols = 2
	dut1Cols       = 2
	luniSolarCols  = 5 + 6
	planetaryCols  = 14 + 4

	// Amplitude columns are stored in milliarcseconds; the series works in
	// 0.1 microarcsecond units.
	amplitudeScale = 10000.0
)

// scanRows calls fn for every non-blank, non-comment line of r after checking
// that it has exactly cols whitespace-separated fields.
func scanRows(r io.Reader, cols int, fn func(fields []string) error) (int, error) {
	scanner := bufio.NewScanner(r)
	var lineNo, rows int
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != cols {
			return rows, fmt.Errorf("line %d: %w: got %d columns, want %d", lineNo, ErrMalformedRow, len(fields), cols)
		}
		if err := fn(fields); err != nil {
			return rows, fmt.Errorf("line %d: %w: %v", lineNo, ErrMalformedRow, err)
		}
		rows++
	}
	if err := scanner.Err(); err != nil {
		return rows, fmt.Errorf("reading table: %w", err)
	}
	if rows == 0 {
		return 0, ErrEmptyTable
	}
	return rows, nil
}

// parseDate accepts YYYYMMDD or YYYY-MM-DD.
func parseDate(s string) (DateKey, error) {
	if len(s) == 10 && s[4] == '-' && s[7] == '-' {
		s = s[:4] + s[5:7] + s[8:]
	}
	if len(s) != 8 {
		return 0, fmt.Errorf("invalid date %q", s)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid date %q: %w", s, err)
	}
	month, day := n/100%100, n%100
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return 0, fmt.Errorf("invalid date %q", s)
	}
	return DateKey(n), nil
}

func parseFloats(dst []float64, fields []string, scaleFrom int) error {
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return fmt.Errorf("column %d: %w", i, err)
		}
		if i >= scaleFrom {
			v *= amplitudeScale
		}
		dst[i] = v
	}
	return nil
}

// ParseLeapSeconds reads "date offset" rows, offset being UTC - TAI in whole
// seconds. Rows are returned in ascending date order.
func ParseLeapSeconds(r io.Reader) ([]LeapSecond, error) {
	var out []LeapSecond
	_, err := scanRows(r, leapSecondCols, func(fields []string) error {
		date, err := parseDate(fields[0])
		if err != nil {
			return err
		}
		offset, err := strconv.Atoi(fields[1])
		if err != nil {
			return fmt.Errorf("invalid offset %q: %w", fields[1], err)
		}
		out = append(out, LeapSecond{Date: date, UTCMinusTAI: offset})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("leap seconds: %w", err)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// ParseDUT1 reads "date seconds" rows. Rows are returned in ascending date
// order.
func ParseDUT1(r io.Reader) ([]DUT1Entry, error) {
	var out []DUT1Entry
	_, err := scanRows(r, dut1Cols, func(fields []string) error {
		date, err := parseDate(fields[0])
		if err != nil {
			return err
		}
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return fmt.Errorf("invalid DUT1 %q: %w", fields[1], err)
		}
		out = append(out, DUT1Entry{Date: date, Seconds: v})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("dut1: %w", err)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// ParseLuniSolar reads rows of 5 argument multipliers and 6 amplitudes.
// Amplitudes are scaled by 10000 on the way in.
func ParseLuniSolar(r io.Reader) ([]LuniSolarTerm, error) {
	var out []LuniSolarTerm
	row := make([]float64, luniSolarCols)
	_, err := scanRows(r, luniSolarCols, func(fields []string) error {
		if err := parseFloats(row, fields, 5); err != nil {
			return err
		}
		var term LuniSolarTerm
		copy(term.Mult[:], row[:5])
		copy(term.Amp[:], row[5:])
		out = append(out, term)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("luni-solar nutation: %w", err)
	}
	return out, nil
}

// ParsePlanetary reads rows of 14 argument multipliers and 4 amplitudes.
// Amplitudes are scaled by 10000 on the way in.
func ParsePlanetary(r io.Reader) ([]PlanetaryTerm, error) {
	var out []PlanetaryTerm
	row := make([]float64, planetaryCols)
	_, err := scanRows(r, planetaryCols, func(fields []string) error {
		if err := parseFloats(row, fields, 14); err != nil {
			return err
		}
		var term PlanetaryTerm
		copy(term.Mult[:], row[:14])
		copy(term.Amp[:], row[14:])
		out = append(out, term)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("planetary nutation: %w", err)
	}
	return out, nil
}
