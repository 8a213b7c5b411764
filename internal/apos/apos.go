// Package apos computes apparent geocentric positions of the Sun and Moon:
// light-time correction, relativistic aberration, bias-precession-nutation
// and conversion to equatorial and ecliptic coordinates.
package apos

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/soniakeys/unit"

	"github.com/star/apos/internal/bpn"
	"github.com/star/apos/internal/ephemeris"
	"github.com/star/apos/internal/obliquity"
	"github.com/star/apos/internal/timescale"
	"github.com/star/apos/internal/transform"
	"github.com/star/apos/internal/vecmath"
)

const (
	// SpeedOfLight in m/s.
	SpeedOfLight = 299792458.0

	secondsPerDay = 86400.0

	// MaxIterations bounds the light-time Newton iteration.
	MaxIterations = 10
	// Tolerance is the light-time Newton step accepted as converged, in days.
	Tolerance = 1e-10
)

// ErrNoConvergence is returned when the light-time iteration does not reach
// Tolerance within MaxIterations steps.
var ErrNoConvergence = errors.New("light-time iteration did not converge")

// Position is the apparent place of one body.
type Position struct {
	Alpha         float64 `json:"alpha"`          // right ascension, rad
	Delta         float64 `json:"delta"`          // declination, rad
	DEq           float64 `json:"d_eq"`           // AU
	Lambda        float64 `json:"lambda"`         // ecliptic longitude, rad
	Beta          float64 `json:"beta"`           // ecliptic latitude, rad
	DEc           float64 `json:"d_ec"`           // AU
	AngularRadius float64 `json:"angular_radius"` // arcsec
	Parallax      float64 `json:"parallax"`       // horizontal parallax, arcsec
}

// Recorder receives one observation per computed position.
type Recorder interface {
	ObserveComputation(body string, d time.Duration, iterations int, err error)
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithLogger enables debug logging of the light-time iteration.
func WithLogger(l *slog.Logger) Option {
	return func(c *Calculator) { c.logger = l }
}

// WithRecorder reports every computation to r.
func WithRecorder(r Recorder) Option {
	return func(c *Calculator) { c.recorder = r }
}

// Calculator holds everything fixed at the observation instant t2: the time
// scales, the Earth, Moon and Sun states, the physical constants and the
// BPN frame. Sun and Moon can be called repeatedly; only the emission-time
// state is recomputed per call.
type Calculator struct {
	provider ephemeris.Provider
	logger   *slog.Logger
	recorder Recorder

	epochs timescale.Epochs
	jd     float64 // t2, Julian Day (TDB)
	t      float64 // Julian century (TDB)

	states map[ephemeris.Body]vecmath.State // barycentric at t2

	au     float64 // km
	c      float64 // AU/day
	radius map[ephemeris.Body]float64
	rEarth float64
	eps    float64
	frame  *bpn.Frame
}

// New resolves the observation instant utc: time scales, body states at t2
// and physical constants.
func New(utc timescale.Instant, conv *timescale.Converter, provider ephemeris.Provider, opts ...Option) (*Calculator, error) {
	c := &Calculator{
		provider: provider,
		states:   make(map[ephemeris.Body]vecmath.State, 3),
		radius:   make(map[ephemeris.Body]float64, 2),
	}
	for _, o := range opts {
		o(c)
	}

	c.epochs = conv.Convert(utc)
	c.jd = c.epochs.JDTDB
	c.t = c.epochs.T

	for _, b := range []ephemeris.Body{ephemeris.Earth, ephemeris.Moon, ephemeris.Sun} {
		s, err := provider.State(c.jd, b, ephemeris.SSB)
		if err != nil {
			return nil, err
		}
		c.states[b] = s
	}

	var err error
	if c.au, err = provider.Constant(ephemeris.ConstAU); err != nil {
		return nil, err
	}
	if c.radius[ephemeris.Sun], err = provider.Constant(ephemeris.ConstSunRadius); err != nil {
		return nil, err
	}
	if c.radius[ephemeris.Moon], err = provider.Constant(ephemeris.ConstMoonRadius); err != nil {
		return nil, err
	}
	if c.rEarth, err = provider.Constant(ephemeris.ConstEarthRadius); err != nil {
		return nil, err
	}
	c.c = SpeedOfLight * secondsPerDay / (c.au * 1000)

	c.eps = obliquity.Mean(c.t)
	c.frame = bpn.New(c.t, conv.Tables())
	return c, nil
}

// Epochs returns the time scales of the observation instant.
func (c *Calculator) Epochs() timescale.Epochs { return c.epochs }

// JD returns the observation instant t2 as a Julian Day (TDB).
func (c *Calculator) JD() float64 { return c.jd }

// Frame returns the BPN frame of the observation instant.
func (c *Calculator) Frame() *bpn.Frame { return c.frame }

// Obliquity returns the mean obliquity of the ecliptic at t2, in radians.
func (c *Calculator) Obliquity() float64 { return c.eps }

// Sun returns the apparent position of the Sun.
func (c *Calculator) Sun() (Position, error) { return c.Position(ephemeris.Sun) }

// Moon returns the apparent position of the Moon.
func (c *Calculator) Moon() (Position, error) { return c.Position(ephemeris.Moon) }

// Position returns the apparent position of body, which must be the Sun or
// the Moon.
func (c *Calculator) Position(body ephemeris.Body) (Position, error) {
	start := time.Now()
	pos, n, err := c.position(body)
	if c.recorder != nil {
		c.recorder.ObserveComputation(body.String(), time.Since(start), n, err)
	}
	return pos, err
}

func (c *Calculator) position(body ephemeris.Body) (Position, int, error) {
	radius, ok := c.radius[body]
	if !ok {
		return Position{}, 0, fmt.Errorf("%w: %s", ephemeris.ErrUnsupportedBody, body)
	}

	tau, target, n, err := c.lightTime(body)
	if err != nil {
		return Position{}, n, err
	}

	earth := c.states[ephemeris.Earth]
	dir := vecmath.Direction(earth.Position, target.Position)
	dist := vecmath.Distance(earth.Position, target.Position)
	apparent := c.aberration(dir).Scale(dist)

	rect := c.frame.Apply(bpn.BiasPrecessionNutation, apparent)
	eq := transform.Rect2Pol(rect)
	ec := transform.Rect2Pol(transform.RectEqToEc(rect, c.eps))

	distKm := eq.R * c.au
	pos := Position{
		Alpha:         eq.Lon,
		Delta:         eq.Lat,
		DEq:           eq.R,
		Lambda:        ec.Lon,
		Beta:          ec.Lat,
		DEc:           ec.R,
		AngularRadius: unit.Angle(math.Asin(radius / distKm)).Sec(),
		Parallax:      unit.Angle(math.Asin(c.rEarth / distKm)).Sec(),
	}

	if c.logger != nil {
		c.logger.Debug("apparent position",
			"body", body.String(),
			"t2_jd", c.jd,
			"light_time_days", tau,
			"iterations", n,
			"distance_au", eq.R,
		)
	}
	return pos, n, nil
}

// LightTime solves c·τ = |r_target(t2 - τ) - r_earth(t2)| for the light
// time τ = t2 - t1 in days with Newton's method, seeded at τ = 0. It returns
// τ and the number of Newton steps taken.
func (c *Calculator) LightTime(body ephemeris.Body) (tau float64, iterations int, err error) {
	tau, _, iterations, err = c.lightTime(body)
	return tau, iterations, err
}

// lightTime iterates on τ rather than on t1 itself so that the step size
// is not limited by the resolution of a Julian Day near 2.4e6.
func (c *Calculator) lightTime(body ephemeris.Body) (float64, vecmath.State, int, error) {
	target, ok := c.states[body]
	if !ok || body == ephemeris.Earth {
		return 0, vecmath.State{}, 0, fmt.Errorf("%w: %s", ephemeris.ErrUnsupportedBody, body)
	}
	earth := c.states[ephemeris.Earth].Position

	var tau, step float64
	for i := 1; i <= MaxIterations; i++ {
		r := target.Position.Sub(earth)
		d := r.Norm()
		if d == 0 {
			return 0, target, i - 1, nil
		}
		f := c.c*tau - d
		step = f / (c.c + r.Dot(target.Velocity)/d)
		tau -= step

		s, err := c.provider.State(c.jd-tau, body, ephemeris.SSB)
		if err != nil {
			return 0, vecmath.State{}, i, err
		}
		target = s
		if math.Abs(step) < Tolerance {
			return tau, target, i, nil
		}
	}
	return 0, vecmath.State{}, MaxIterations, fmt.Errorf("%w: %s after %d iterations (last step %.3e d)",
		ErrNoConvergence, body, MaxIterations, step)
}

// aberration applies the Lorentz transformation for the Earth's
// barycentric velocity at t2 to the unit vector d.
func (c *Calculator) aberration(d vecmath.Vector3) vecmath.Vector3 {
	v := c.states[ephemeris.Earth].Velocity.Scale(1 / c.c)
	f := math.Sqrt(1 - v.Dot(v))
	g := v.Dot(d)
	return d.Scale(f).Add(v.Scale(1 + g/(1+f))).Scale(1 / (1 + g))
}
