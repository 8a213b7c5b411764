// Package series computes apparent positions over a time range with a fixed
// pool of goroutines.
package series

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/star/apos/internal/apos"
	"github.com/star/apos/internal/ephemeris"
	"github.com/star/apos/internal/timescale"
)

var (
	// ErrInvalidRange is returned for an empty or reversed range or a
	// non-positive step.
	ErrInvalidRange = errors.New("invalid time range")
	// ErrTooManyPoints is returned when a range expands to more instants
	// than the pool accepts.
	ErrTooManyPoints = errors.New("too many points in range")
)

// Point is the apparent position of one body at one instant.
type Point struct {
	Time     time.Time     `json:"time"`
	JD       float64       `json:"jd"`
	Position apos.Position `json:"position"`
}

// Times expands [start, end] into instants step apart, end included when it
// falls on a step. It fails with ErrTooManyPoints above maxPoints.
func Times(start, end time.Time, step time.Duration, maxPoints int) ([]time.Time, error) {
	if step <= 0 || end.Before(start) {
		return nil, fmt.Errorf("%w: start=%s end=%s step=%s", ErrInvalidRange,
			start.Format(time.RFC3339), end.Format(time.RFC3339), step)
	}
	n := int(end.Sub(start)/step) + 1
	if maxPoints > 0 && n > maxPoints {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyPoints, n, maxPoints)
	}
	out := make([]time.Time, n)
	for i := range out {
		out[i] = start.Add(time.Duration(i) * step)
	}
	return out, nil
}

type job struct {
	index int
	at    time.Time
}

type result struct {
	index int
	point Point
	err   error
}

// Pool runs position computations on a fixed number of goroutines.
type Pool struct {
	workers  int
	conv     *timescale.Converter
	provider ephemeris.Provider
	logger   *slog.Logger
	opts     []apos.Option
}

// NewPool creates a pool with the given number of workers (at least one).
// opts are passed to every apos.Calculator the pool creates.
func NewPool(workers int, conv *timescale.Converter, provider ephemeris.Provider, logger *slog.Logger, opts ...apos.Option) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		workers:  workers,
		conv:     conv,
		provider: provider,
		logger:   logger,
		opts:     opts,
	}
}

// Workers returns the number of goroutines used per batch.
func (p *Pool) Workers() int { return p.workers }

// Compute returns the position of body at every instant in times, in input
// order. Instants that fail are logged and skipped; failed counts them. The
// context error is returned if ctx ends before the batch completes.
func (p *Pool) Compute(ctx context.Context, body ephemeris.Body, times []time.Time) (points []Point, failed int, err error) {
	if len(times) == 0 {
		return nil, 0, nil
	}

	jobs := make(chan job, p.workers*2)
	results := make(chan result, p.workers*2)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				r := p.computeOne(body, j)
				select {
				case results <- r:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i, t := range times {
			select {
			case jobs <- job{index: i, at: t}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	collected := make([]result, 0, len(times))
	for r := range results {
		if r.err != nil {
			failed++
			p.logger.Warn("position computation failed",
				"body", body.String(),
				"time", r.point.Time,
				"error", r.err,
			)
			continue
		}
		collected = append(collected, r)
	}
	if err := ctx.Err(); err != nil {
		return nil, failed, err
	}

	sort.Slice(collected, func(i, j int) bool { return collected[i].index < collected[j].index })
	points = make([]Point, len(collected))
	for i, r := range collected {
		points[i] = r.point
	}
	return points, failed, nil
}

func (p *Pool) computeOne(body ephemeris.Body, j job) result {
	r := result{index: j.index, point: Point{Time: j.at}}
	calc, err := apos.New(timescale.FromTime(j.at), p.conv, p.provider, p.opts...)
	if err != nil {
		r.err = err
		return r
	}
	pos, err := calc.Position(body)
	if err != nil {
		r.err = err
		return r
	}
	r.point.JD = calc.JD()
	r.point.Position = pos
	return r
}
