package refdata

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"golang.org/x/exp/mmap"
	"golang.org/x/sync/errgroup"

	"github.com/star/apos/data"
)

// File names of the four reference tables.
const (
	LeapSecondFile = "LEAP_SEC.txt"
	DUT1File       = "DUT1.txt"
	LuniSolarFile  = "NUT_LS.txt"
	PlanetaryFile  = "NUT_PL.txt"
)

// LoadFile memory-maps path and hands its contents to parse.
func LoadFile[T any](path string, parse func(io.Reader) (T, error)) (T, error) {
	var zero T
	r, err := mmap.Open(path)
	if err != nil {
		return zero, fmt.Errorf("opening %s: %w", path, err)
	}
	defer r.Close()

	v, err := parse(io.NewSectionReader(r, 0, int64(r.Len())))
	if err != nil {
		return zero, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return v, nil
}

// LoadDir reads the four tables from dir concurrently.
func LoadDir(ctx context.Context, dir string, logger *slog.Logger) (*Tables, error) {
	start := time.Now()
	t := &Tables{Source: dir}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return loadInto(gctx, filepath.Join(dir, LeapSecondFile), ParseLeapSeconds, &t.LeapSeconds)
	})
	g.Go(func() error {
		return loadInto(gctx, filepath.Join(dir, DUT1File), ParseDUT1, &t.DUT1)
	})
	g.Go(func() error {
		return loadInto(gctx, filepath.Join(dir, LuniSolarFile), ParseLuniSolar, &t.LuniSolar)
	})
	g.Go(func() error {
		return loadInto(gctx, filepath.Join(dir, PlanetaryFile), ParsePlanetary, &t.Planetary)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	t.LoadedAt = time.Now()
	logLoaded(logger, t, time.Since(start))
	return t, nil
}

// loadInto stores the parsed table in dst unless ctx is already done.
func loadInto[T any](ctx context.Context, path string, parse func(io.Reader) (T, error), dst *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v, err := LoadFile(path, parse)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

// LoadFS reads the four tables from the root of fsys.
func LoadFS(fsys fs.FS, source string, logger *slog.Logger) (*Tables, error) {
	start := time.Now()
	t := &Tables{Source: source}

	open := func(name string, parse func(io.Reader) error) error {
		f, err := fsys.Open(name)
		if err != nil {
			return fmt.Errorf("opening %s: %w", name, err)
		}
		defer f.Close()
		if err := parse(f); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		return nil
	}

	var err error
	steps := []struct {
		name  string
		parse func(io.Reader) error
	}{
		{LeapSecondFile, func(r io.Reader) error { t.LeapSeconds, err = ParseLeapSeconds(r); return err }},
		{DUT1File, func(r io.Reader) error { t.DUT1, err = ParseDUT1(r); return err }},
		{LuniSolarFile, func(r io.Reader) error { t.LuniSolar, err = ParseLuniSolar(r); return err }},
		{PlanetaryFile, func(r io.Reader) error { t.Planetary, err = ParsePlanetary(r); return err }},
	}
	for _, s := range steps {
		if err := open(s.name, s.parse); err != nil {
			return nil, err
		}
	}

	t.LoadedAt = time.Now()
	logLoaded(logger, t, time.Since(start))
	return t, nil
}

// LoadEmbedded returns the tables compiled into the binary. They carry only
// the dominant nutation terms and a coarse DUT1 sample, so the result is
// always Approximate.
func LoadEmbedded(logger *slog.Logger) (*Tables, error) {
	return LoadFS(data.Tables, EmbeddedSource, logger)
}

// Load reads tables from dir, or the embedded defaults when dir is empty.
func Load(ctx context.Context, dir string, logger *slog.Logger) (*Tables, error) {
	if dir == "" {
		return LoadEmbedded(logger)
	}
	return LoadDir(ctx, dir, logger)
}

func logLoaded(logger *slog.Logger, t *Tables, took time.Duration) {
	if logger == nil {
		return
	}
	logger.Info("reference tables loaded",
		"source", t.Source,
		"leap_seconds", len(t.LeapSeconds),
		"dut1", len(t.DUT1),
		"luni_solar_terms", len(t.LuniSolar),
		"planetary_terms", len(t.Planetary),
		"duration_ms", took.Milliseconds(),
	)
	if t.Approximate() {
		logger.Warn("reference tables are approximate; load the full IAU 2000A series and IERS DUT1 history with a data directory for milliarcsecond accuracy",
			"source", t.Source,
			"luni_solar_terms", len(t.LuniSolar),
			"luni_solar_terms_full", FullLuniSolarTerms,
			"planetary_terms", len(t.Planetary),
			"planetary_terms_full", FullPlanetaryTerms,
		)
	}
}
