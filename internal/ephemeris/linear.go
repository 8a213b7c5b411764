package ephemeris

import (
	"fmt"

	"github.com/star/apos/internal/vecmath"
)

// Linear is an in-memory Provider that moves each body in a straight line
// from a barycentric state given at Epoch. It stands in for a DE file in
// tests and fixture runs.
type Linear struct {
	Epoch     float64 // Julian Day (TDB) of States
	States    map[Body]vecmath.State
	Constants map[string]float64
}

// State implements Provider.
func (l *Linear) State(jd float64, target, center Body) (vecmath.State, error) {
	t, err := l.at(jd, target)
	if err != nil {
		return vecmath.State{}, err
	}
	c, err := l.at(jd, center)
	if err != nil {
		return vecmath.State{}, err
	}
	return vecmath.State{
		Position: t.Position.Sub(c.Position),
		Velocity: t.Velocity.Sub(c.Velocity),
	}, nil
}

func (l *Linear) at(jd float64, b Body) (vecmath.State, error) {
	if b == SSB {
		return vecmath.State{}, nil
	}
	s, ok := l.States[b]
	if !ok {
		return vecmath.State{}, fmt.Errorf("%w: %s", ErrUnsupportedBody, b)
	}
	dt := jd - l.Epoch
	return vecmath.State{
		Position: s.Position.Add(s.Velocity.Scale(dt)),
		Velocity: s.Velocity,
	}, nil
}

// Constant implements Provider.
func (l *Linear) Constant(name string) (float64, error) {
	v, ok := l.Constants[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrConstantNotFound, name)
	}
	return v, nil
}
