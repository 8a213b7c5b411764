package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/star/apos/internal/timescale"
)

func newTimescalesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "timescales [YYYYMMDDhhmmss[nnnnnnnnn]]",
		Short: "Print the instant on every supported time scale",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			offset := a.cfg.CLI.TimezoneOffset
			utc, err := inputInstant(args, offset)
			if err != nil {
				return err
			}
			conv, _, err := a.converter(cmd.Context())
			if err != nil {
				return err
			}
			return writeTimescales(cmd.OutOrStdout(), conv.Convert(utc), offset)
		},
	}
}

func writeTimescales(w io.Writer, ep timescale.Epochs, offsetHours int) error {
	rows := []struct {
		label string
		value timescale.Instant
	}{
		{zoneLabel(offsetHours), timescale.ToZone(ep.UTC, offsetHours)},
		{"UTC", ep.UTC},
		{"TAI", ep.TAI},
		{"UT1", ep.UT1},
		{"TT", ep.TT},
		{"TCG", ep.TCG},
		{"TCB", ep.TCB},
		{"TDB", ep.TDB},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "%9s: %s\n", r.label, r.value.Format())
	}
	_, err := fmt.Fprintf(w,
		"%9s: %d s\n%9s: %+.7f s\n%9s: %.7f s\n%9s: %.8f\n%9s: %.8f\n%9s: %.12f\n",
		"UTC-TAI", ep.UTCMinusTAI,
		"DUT1", ep.DUT1,
		"ΔT", ep.DeltaT,
		"JD(UTC)", ep.JD,
		"JD(TDB)", ep.JDTDB,
		"T", ep.T,
	)
	return err
}
