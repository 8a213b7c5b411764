package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/soniakeys/unit"

	"github.com/star/apos/internal/bpn"
	"github.com/star/apos/internal/refdata"
	"github.com/star/apos/internal/timescale"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	now := time.Now().UTC()
	if len(os.Args) > 1 {
		t, err := time.Parse(time.RFC3339Nano, os.Args[1])
		if err != nil {
			fmt.Println("ERROR parsing time:", err)
			os.Exit(1)
		}
		now = t
	}

	tables, err := refdata.LoadEmbedded(logger)
	if err != nil {
		fmt.Println("ERROR loading reference tables:", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded %d leap seconds, %d DUT1 rows, %d luni-solar and %d planetary terms\n",
		len(tables.LeapSeconds), len(tables.DUT1), len(tables.LuniSolar), len(tables.Planetary))

	ep := timescale.Compute(timescale.FromTime(now), tables)
	fmt.Printf("UTC  %s\n", ep.UTC.Format())
	fmt.Printf("TAI  %s  (UTC-TAI %d s)\n", ep.TAI.Format(), ep.UTCMinusTAI)
	fmt.Printf("UT1  %s  (DUT1 %+.7f s)\n", ep.UT1.Format(), ep.DUT1)
	fmt.Printf("TT   %s  (ΔT %.7f s)\n", ep.TT.Format(), ep.DeltaT)
	fmt.Printf("TCG  %s\n", ep.TCG.Format())
	fmt.Printf("TCB  %s\n", ep.TCB.Format())
	fmt.Printf("TDB  %s\n", ep.TDB.Format())
	fmt.Printf("JD(UTC) %.8f  JD(TDB) %.8f  T %.12f\n", ep.JD, ep.JDTDB, ep.T)

	f := bpn.New(ep.T, tables)
	fmt.Printf("\nmean obliquity  %.6f\"\n", unit.Angle(f.Eps).Sec())
	fmt.Printf("nutation  Δψ %+.6f\"  Δε %+.6f\"\n", unit.Angle(f.Nut.DPsi).Sec(), unit.Angle(f.Nut.DEps).Sec())

	for _, v := range bpn.Variants() {
		m := f.Matrix(v)
		fmt.Printf("\n%s\n", v)
		for _, row := range m {
			fmt.Printf("  %+.15f %+.15f %+.15f\n", row[0], row[1], row[2])
		}
	}
}
