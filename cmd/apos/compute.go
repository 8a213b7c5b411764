package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/soniakeys/unit"
	"github.com/spf13/cobra"

	"github.com/star/apos/internal/apos"
	"github.com/star/apos/internal/ephemeris"
	"github.com/star/apos/internal/timescale"
)

func newComputeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "compute [YYYYMMDDhhmmss[nnnnnnnnn]]",
		Short: "Print apparent positions of the Sun and Moon",
		Long: `Print the apparent equatorial and ecliptic positions, distance, apparent
radius and horizontal parallax of the Sun and Moon at the given local time
(JST unless --tz says otherwise). Without an argument the current time is used.`,
		Args: cobra.MaximumNArgs(1),
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
			eph, err := a.openEphemeris()
			if err != nil {
				return err
			}
			defer eph.Close()

			ep, sun, moon, err := computePositions(utc, conv, eph, a.logger)
			if err != nil {
				return err
			}
			return writeReport(cmd.OutOrStdout(), ep, offset, sun, moon)
		},
	}
}

// computePositions runs one Sun and Moon computation without touching the
// metrics registry.
func computePositions(utc timescale.Instant, conv *timescale.Converter, provider ephemeris.Provider, logger *slog.Logger) (timescale.Epochs, apos.Position, apos.Position, error) {
	calc, err := apos.New(utc, conv, provider, apos.WithLogger(logger))
	if err != nil {
		return timescale.Epochs{}, apos.Position{}, apos.Position{}, err
	}
	sun, err := calc.Sun()
	if err != nil {
		return timescale.Epochs{}, apos.Position{}, apos.Position{}, fmt.Errorf("sun: %w", err)
	}
	moon, err := calc.Moon()
	if err != nil {
		return timescale.Epochs{}, apos.Position{}, apos.Position{}, fmt.Errorf("moon: %w", err)
	}
	return calc.Epochs(), sun, moon, nil
}

func zoneLabel(offsetHours int) string {
	if offsetHours == 9 {
		return "JST"
	}
	return fmt.Sprintf("UTC%+d", offsetHours)
}

// writeHeader prints the instant on the local, UTC and TDB scales.
func writeHeader(w io.Writer, ep timescale.Epochs, offsetHours int) error {
	_, err := fmt.Fprintf(w,
		"%15s: %s\n%15s: %s\n%15s: %s\n%15s: %.8f\n---\n",
		zoneLabel(offsetHours), timescale.ToZone(ep.UTC, offsetHours).Format(),
		"UTC", ep.UTC.Format(),
		"TDB", ep.TDB.Format(),
		"JD(TDB)", ep.JDTDB,
	)
	return err
}

func writeReport(w io.Writer, ep timescale.Epochs, offsetHours int, sun, moon apos.Position) error {
	if err := writeHeader(w, ep, offsetHours); err != nil {
		return err
	}
	for _, b := range []struct {
		name string
		pos  apos.Position
	}{{"Sun", sun}, {"Moon", moon}} {
		p := b.pos
		fmt.Fprintf(w, "* Apparent position: %s\n", b.name)
		fmt.Fprintf(w, "  = [RA: %14.10f rad, Dec: %14.10f rad]\n", p.Alpha, p.Delta)
		fmt.Fprintf(w, "  = [RA: %14.10f deg, Dec: %14.10f deg]\n", deg(p.Alpha), deg(p.Delta))
		fmt.Fprintf(w, "  = [Lon: %14.10f rad, Lat: %14.10f rad]\n", p.Lambda, p.Beta)
		fmt.Fprintf(w, "  = [Lon: %14.10f deg, Lat: %14.10f deg]\n", deg(p.Lambda), deg(p.Beta))
	}
	fmt.Fprintf(w, "* Distance: Sun\n  = %.10f AU\n", sun.DEc)
	fmt.Fprintf(w, "* Distance: Moon\n  = %.10f AU\n", moon.DEc)
	fmt.Fprintf(w, "* Apparent radius: Sun\n  = %.2f ″\n", sun.AngularRadius)
	fmt.Fprintf(w, "* Apparent radius: Moon\n  = %.2f ″\n", moon.AngularRadius)
	fmt.Fprintf(w, "* Horizontal parallax: Sun\n  = %.2f ″\n", sun.Parallax)
	_, err := fmt.Fprintf(w, "* Horizontal parallax: Moon\n  = %.2f ″\n", moon.Parallax)
	return err
}

func deg(rad float64) float64 { return unit.Angle(rad).Deg() }
