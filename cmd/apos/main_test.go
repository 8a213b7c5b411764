package main

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/star/apos/internal/apos"
	"github.com/star/apos/internal/ephemeris"
	"github.com/star/apos/internal/refdata"
	"github.com/star/apos/internal/timescale"
	"github.com/star/apos/internal/vecmath"
)

func TestParseInput(t *testing.T) {
	const jan11 = 1610323200 // 2021-01-11T00:00:00Z

	tests := []struct {
		in     string
		offset int
		sec    int64
		nsec   int64
	}{
		{"20210111090000", 9, jan11, 0},
		{"20210111000000", 0, jan11, 0},
		{"20210111090000123", 9, jan11, 123_000_000},
		{"20210111090000000000001", 9, jan11, 1},
		{"20210111083000", 8, jan11 + 1800, 0},
		{"20210110230000", -1, jan11, 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseInput(tt.in, tt.offset)
			if err != nil {
				t.Fatal(err)
			}
			if got.Sec != tt.sec || got.Nsec != tt.nsec {
				t.Errorf("parseInput(%q, %d) = %+v, want {%d %d}", tt.in, tt.offset, got, tt.sec, tt.nsec)
			}
		})
	}
}

func TestParseInputErrors(t *testing.T) {
	for _, in := range []string{
		"202101110900000000000001", // 24 digits
		"2021011109",
		"",
		"2021-01-11 09:00",
		"20211311090000", // month 13
		"2021011109000x",
	} {
		if _, err := parseInput(in, 9); !errors.Is(err, errInputFormat) {
			t.Errorf("parseInput(%q) err = %v, want errInputFormat", in, err)
		}
	}
	_, err := parseInput("123456789012345678901234", 9)
	if err == nil || !strings.Contains(err.Error(), "over 23 digits") {
		t.Errorf("err = %v, want over-23-digits message", err)
	}
}

func TestInputInstantDefaultsToNow(t *testing.T) {
	got, err := inputInstant(nil, 9)
	if err != nil {
		t.Fatal(err)
	}
	if got.Sec < 1600000000 {
		t.Errorf("inputInstant(nil) = %+v, want the current time", got)
	}
}

func sampleEpochs() timescale.Epochs {
	utc := timescale.NewInstant(1610323200, 0)
	return timescale.Epochs{
		UTC:         utc,
		TAI:         utc.AddSeconds(37),
		TT:          utc.AddSeconds(69.184),
		TDB:         utc.AddSeconds(69.184),
		UTCMinusTAI: -37,
		JD:          2459225.5,
		JDTDB:       2459225.50080074,
	}
}

func TestWriteReport(t *testing.T) {
	sun := apos.Position{Alpha: 1, Delta: -0.5, DEq: 0.98, Lambda: math.Pi, Beta: 0, DEc: 0.9834, AngularRadius: 975.59, Parallax: 8.94}
	moon := apos.Position{Alpha: 2, Delta: 0.25, Lambda: math.Pi / 2, Beta: 0.01, DEc: 0.00257, AngularRadius: 932.123, Parallax: 3420.5}

	var buf bytes.Buffer
	if err := writeReport(&buf, sampleEpochs(), 9, sun, moon); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"            JST: 2021-01-11 09:00:00.000\n",
		"            UTC: 2021-01-11 00:00:00.000\n",
		"            TDB: 2021-01-11 00:01:09.184\n",
		"        JD(TDB): 2459225.50080074\n---\n",
		"* Apparent position: Sun\n  = [RA:   1.0000000000 rad, Dec:  -0.5000000000 rad]\n",
		"  = [Lon: 180.0000000000 deg, Lat:   0.0000000000 deg]\n",
		"* Apparent position: Moon\n",
		"  = [Lon:  90.0000000000 deg,",
		"* Distance: Sun\n  = 0.9834000000 AU\n",
		"* Distance: Moon\n  = 0.0025700000 AU\n",
		"* Apparent radius: Moon\n  = 932.12 ″\n",
		"* Horizontal parallax: Moon\n  = 3420.50 ″\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q\n%s", want, out)
		}
	}
	if strings.Index(out, "Sun") > strings.Index(out, "Moon") {
		t.Error("Sun block must come before Moon")
	}
}

func TestZoneLabel(t *testing.T) {
	if zoneLabel(9) != "JST" || zoneLabel(0) != "UTC+0" || zoneLabel(-5) != "UTC-5" {
		t.Errorf("labels = %s %s %s", zoneLabel(9), zoneLabel(0), zoneLabel(-5))
	}
}

func TestTimescalesCommand(t *testing.T) {
	t.Setenv("APOS_CONFIG", "")
	t.Setenv("APOS_DATA_DIR", "")

	root := newRootCmd(&app{})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"timescales", "20210111090000"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"      JST: 2021-01-11 09:00:00.000",
		"      UTC: 2021-01-11 00:00:00.000",
		"      TAI: 2021-01-11 00:00:37.000",
		"       TT: 2021-01-11 00:01:09.184",
		"  UTC-TAI: -37 s",
		"  JD(UTC): 2459225.50000000",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q\n%s", want, out.String())
		}
	}
}

func TestComputeRejectsLongInput(t *testing.T) {
	t.Setenv("APOS_CONFIG", "")
	root := newRootCmd(&app{})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"compute", "123456789012345678901234"})
	if err := root.Execute(); !errors.Is(err, errInputFormat) {
		t.Errorf("err = %v, want errInputFormat", err)
	}
}

func TestComputePositionsLeavesMetricsAlone(t *testing.T) {
	tables, err := refdata.LoadEmbedded(nil)
	if err != nil {
		t.Fatal(err)
	}
	conv, err := timescale.NewConverter(tables, 4)
	if err != nil {
		t.Fatal(err)
	}
	provider := &ephemeris.Linear{
		Epoch: 2459225.5,
		States: map[ephemeris.Body]vecmath.State{
			ephemeris.Earth: {},
			ephemeris.Sun:   {Position: vecmath.Vector3{X: 1}},
			ephemeris.Moon:  {Position: vecmath.Vector3{Y: 0.00257}},
		},
		Constants: map[string]float64{
			ephemeris.ConstAU:          149597870.7,
			ephemeris.ConstSunRadius:   696000,
			ephemeris.ConstMoonRadius:  1737.4,
			ephemeris.ConstEarthRadius: 6378.137,
		},
	}

	ep, sun, moon, err := computePositions(timescale.NewInstant(1610323200, 0), conv, provider, nil)
	if err != nil {
		t.Fatal(err)
	}
	if ep.UTCMinusTAI != -37 || math.Abs(sun.DEq-1) > 1e-9 || math.Abs(moon.DEq-0.00257) > 1e-9 {
		t.Errorf("epochs = %+v, sun = %+v, moon = %+v", ep, sun, moon)
	}

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatal(err)
	}
	for _, mf := range families {
		if mf.GetName() == "apos_computations_total" && len(mf.GetMetric()) > 0 {
			t.Errorf("compute recorded %d computation series", len(mf.GetMetric()))
		}
	}
}
