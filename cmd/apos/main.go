package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/star/apos/internal/config"
	"github.com/star/apos/internal/ephemeris"
	"github.com/star/apos/internal/refdata"
	"github.com/star/apos/internal/timescale"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	cfg    config.Config
	logger *slog.Logger
}

func main() {
	a := &app{}
	root := newRootCmd(a)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	var (
		ephemerisFile string
		dataDir       string
		tzOffset      int
		verbose       bool
	)

	root := &cobra.Command{
		Use:   "apos",
		Short: "Apparent positions of the Sun and Moon",
		Long: `Compute apparent geocentric positions of the Sun and Moon (IAU 2006/2000A)
from a JPL DE binary ephemeris: light-time, aberration, bias-precession-nutation,
equatorial and ecliptic coordinates, apparent radius and horizontal parallax.

Configuration is read from the TOML file named by APOS_CONFIG and from APOS_*
environment variables; flags override both.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			// Config loading logs at Info; keep the CLI quiet unless asked.
			cfgLogger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			cfg, err := config.Load(cfgLogger)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("ephemeris") {
				cfg.Ephemeris.File = ephemerisFile
			}
			if flags.Changed("data-dir") {
				cfg.Data.Dir = dataDir
			}
			if flags.Changed("tz") {
				cfg.CLI.TimezoneOffset = tzOffset
			}
			if verbose {
				cfg.Log.Level = "debug"
			}
			a.cfg = cfg
			a.logger = cfgLogger
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&ephemerisFile, "ephemeris", "", "JPL DE binary ephemeris file (default from config, JPLEPH)")
	pf.StringVar(&dataDir, "data-dir", "", "directory with LEAP_SEC.txt, DUT1.txt, NUT_LS.txt, NUT_PL.txt (default embedded)")
	pf.IntVar(&tzOffset, "tz", 9, "offset of the input time zone from UTC, in hours")
	pf.BoolVarP(&verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(newComputeCmd(a), newTimescalesCmd(a), newServeCmd(a))
	return root
}

// converter loads the reference tables and wraps them in a Converter.
func (a *app) converter(ctx context.Context) (*timescale.Converter, *refdata.Tables, error) {
	tables, err := refdata.Load(ctx, a.cfg.Data.Dir, a.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("loading reference tables: %w", err)
	}
	conv, err := timescale.NewConverter(tables, a.cfg.Timescale.EpochCacheSize)
	if err != nil {
		return nil, nil, err
	}
	return conv, tables, nil
}

func (a *app) openEphemeris() (*ephemeris.JPL, error) {
	return ephemeris.OpenJPL(a.cfg.Ephemeris.File, a.logger)
}
