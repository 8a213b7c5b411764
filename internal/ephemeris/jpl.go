package ephemeris

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/mshafiee/jpleph"

	"github.com/star/apos/internal/vecmath"
)

// ErrOutsideRange is returned, wrapped, for Julian Days the file does not
// cover.
var ErrOutsideRange = jpleph.ErrOutsideRange

// JPL reads a JPL DE binary ephemeris (DE430 etc.). Queries are serialized
// because the reader keeps a shared record cache.
type JPL struct {
	mu        sync.Mutex
	eph       *jpleph.Ephemeris
	constants map[string]float64
	path      string
}

// OpenJPL opens the ephemeris file at path and reads its constant table.
func OpenJPL(path string, logger *slog.Logger) (*JPL, error) {
	eph, err := jpleph.NewEphemeris(path, true)
	if err != nil {
		return nil, fmt.Errorf("opening ephemeris %s: %w", path, err)
	}

	j := &JPL{eph: eph, path: path, constants: make(map[string]float64)}
	n := int(eph.GetEphemerisLong(jpleph.NumberOfConstants))
	for i := 0; i < n; i++ {
		name, err := eph.GetConstantName(i)
		if err != nil {
			continue
		}
		v, err := eph.GetConstantValue(i)
		if err != nil {
			continue
		}
		j.constants[strings.TrimSpace(name)] = v
	}
	if _, ok := j.constants[ConstAU]; !ok {
		j.constants[ConstAU] = eph.GetEphemerisDouble(jpleph.AUinKM)
	}

	if logger != nil {
		logger.Info("ephemeris opened",
			"path", path,
			"version", eph.GetEphemerisLong(jpleph.EphemerisVersion),
			"start_jd", eph.GetEphemerisDouble(jpleph.EphemerisStartJD),
			"end_jd", eph.GetEphemerisDouble(jpleph.EphemerisEndJD),
			"constants", len(j.constants),
		)
	}
	return j, nil
}

// Path returns the file the ephemeris was read from.
func (j *JPL) Path() string { return j.path }

// Range returns the first and last Julian Day covered by the file.
func (j *JPL) Range() (start, end float64) {
	return j.eph.GetEphemerisDouble(jpleph.EphemerisStartJD), j.eph.GetEphemerisDouble(jpleph.EphemerisEndJD)
}

// State implements Provider. Errors from the reader, such as
// jpleph.ErrOutsideRange, are wrapped unchanged.
func (j *JPL) State(jd float64, target, center Body) (vecmath.State, error) {
	if !Supported(target) || !Supported(center) {
		return vecmath.State{}, fmt.Errorf("%w: %d relative to %d", ErrUnsupportedBody, target, center)
	}

	j.mu.Lock()
	pos, vel, err := j.eph.CalculatePV(jd, jpleph.Planet(target), jpleph.CenterBody(center), true)
	j.mu.Unlock()
	if err != nil {
		return vecmath.State{}, fmt.Errorf("state of %s at JD %.8f: %w", target, jd, err)
	}
	return vecmath.State{
		Position: vecmath.Vector3{X: pos.X, Y: pos.Y, Z: pos.Z},
		Velocity: vecmath.Vector3{X: vel.DX, Y: vel.DY, Z: vel.DZ},
	}, nil
}

// Constant implements Provider.
func (j *JPL) Constant(name string) (float64, error) {
	v, ok := j.constants[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrConstantNotFound, name)
	}
	return v, nil
}

// Close releases the ephemeris file.
func (j *JPL) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.eph.Close()
}
