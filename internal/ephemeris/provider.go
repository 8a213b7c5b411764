// Package ephemeris defines the ephemeris provider contract used by the
// apparent-position pipeline and implements it on JPL DE binary files.
package ephemeris

import (
	"errors"
	"fmt"
	"strings"

	"github.com/star/apos/internal/vecmath"
)

// Body identifies a target or center body by its JPL index.
type Body int

const (
	Earth Body = 3
	Moon  Body = 10
	Sun   Body = 11
	SSB   Body = 12 // solar system barycenter
)

func (b Body) String() string {
	switch b {
	case Earth:
		return "earth"
	case Moon:
		return "moon"
	case Sun:
		return "sun"
	case SSB:
		return "ssb"
	}
	return "unknown"
}

// ParseBody maps a body name ("sun", "moon", "earth", "ssb") to its Body.
func ParseBody(name string) (Body, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "earth":
		return Earth, nil
	case "moon":
		return Moon, nil
	case "sun":
		return Sun, nil
	case "ssb":
		return SSB, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedBody, name)
}

// Names of the physical constants read from the ephemeris header.
const (
	ConstAU          = "AU"   // km
	ConstSunRadius   = "ASUN" // km
	ConstMoonRadius  = "AM"   // km
	ConstEarthRadius = "RE"   // km
)

var (
	// ErrConstantNotFound is returned when a named constant is absent.
	ErrConstantNotFound = errors.New("ephemeris constant not found")
	// ErrUnsupportedBody is returned for bodies outside the Sun, Moon,
	// Earth and barycenter.
	ErrUnsupportedBody = errors.New("unsupported ephemeris body")
)

// Provider supplies body states and named constants.
//
// State returns the position (AU) and velocity (AU/day) of target relative
// to center at Julian Day jd (TDB).
type Provider interface {
	State(jd float64, target, center Body) (vecmath.State, error)
	Constant(name string) (float64, error)
}

// Supported reports whether b can be queried.
func Supported(b Body) bool {
	switch b {
	case Earth, Moon, Sun, SSB:
		return true
	}
	return false
}
