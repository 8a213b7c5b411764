package apos

import (
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/soniakeys/unit"

	"github.com/star/apos/internal/bpn"
	"github.com/star/apos/internal/ephemeris"
	"github.com/star/apos/internal/obliquity"
	"github.com/star/apos/internal/refdata"
	"github.com/star/apos/internal/timescale"
	"github.com/star/apos/internal/transform"
	"github.com/star/apos/internal/vecmath"
)

const (
	auKm      = 149597870.7
	sunKm     = 696000.0
	moonKm    = 1737.4
	earthKm   = 6378.137
	moonDist  = 0.00257 // AU
	epoch2021 = 2459225.5
)

var obs2021 = timescale.FromTime(time.Date(2021, 1, 11, 0, 0, 0, 0, time.UTC))

func constants() map[string]float64 {
	return map[string]float64{
		ephemeris.ConstAU:          auKm,
		ephemeris.ConstSunRadius:   sunKm,
		ephemeris.ConstMoonRadius:  moonKm,
		ephemeris.ConstEarthRadius: earthKm,
	}
}

func testConverter(t *testing.T) *timescale.Converter {
	t.Helper()
	tables, err := refdata.LoadEmbedded(nil)
	if err != nil {
		t.Fatalf("loading embedded tables: %v", err)
	}
	conv, err := timescale.NewConverter(tables, 16)
	if err != nil {
		t.Fatalf("NewConverter: %v", err)
	}
	return conv
}

// ecliptic returns a J2000 equatorial vector from ecliptic longitude (deg),
// latitude zero and length r.
func ecliptic(lonDeg, r float64) vecmath.Vector3 {
	v := transform.Pol2Rect(transform.Polar{Lon: unit.AngleFromDeg(lonDeg).Rad(), R: r})
	return transform.RectEcToEq(v, obliquity.Mean(0))
}

// fixture2021 places the Sun at the barycenter and the Earth on a circular
// orbit so that the geometric solar longitude is 291° on 2021-01-11. The
// Moon sits 0.00257 AU from the Earth at geocentric longitude 60°.
func fixture2021() *ephemeris.Linear {
	earth := vecmath.State{
		Position: ecliptic(111, 0.9834),
		Velocity: ecliptic(201, 0.01748),
	}
	moonRel := vecmath.State{
		Position: ecliptic(60, moonDist),
		Velocity: ecliptic(150, 0.00059),
	}
	return &ephemeris.Linear{
		Epoch: epoch2021,
		States: map[ephemeris.Body]vecmath.State{
			ephemeris.Sun:   {},
			ephemeris.Earth: earth,
			ephemeris.Moon: {
				Position: earth.Position.Add(moonRel.Position),
				Velocity: earth.Velocity.Add(moonRel.Velocity),
			},
		},
		Constants: constants(),
	}
}

// stationary puts a motionless Earth at the origin and motionless targets
// on the x axis.
func stationary(sunDist float64) *ephemeris.Linear {
	return &ephemeris.Linear{
		Epoch: epoch2021,
		States: map[ephemeris.Body]vecmath.State{
			ephemeris.Earth: {},
			ephemeris.Sun:   {Position: vecmath.Vector3{X: sunDist}},
			ephemeris.Moon:  {Position: vecmath.Vector3{Y: moonDist}},
		},
		Constants: constants(),
	}
}

func newCalc(t *testing.T, p ephemeris.Provider, opts ...Option) *Calculator {
	t.Helper()
	c, err := New(obs2021, testConverter(t), p, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestLightTimeStationaryTarget(t *testing.T) {
	c := newCalc(t, stationary(1))
	tau, n, err := c.LightTime(ephemeris.Sun)
	if err != nil {
		t.Fatalf("LightTime: %v", err)
	}
	want := 1 / c.c
	if math.Abs(tau-want) > 1e-9 {
		t.Errorf("t2 - t1 = %.12f d, want %.12f d", tau, want)
	}
	// One step lands on the root, the second confirms it.
	if n != 2 {
		t.Errorf("iterations = %d, want 2", n)
	}
	// 1 AU is about 499 s of light time.
	if s := want * 86400; math.Abs(s-499.005) > 0.01 {
		t.Errorf("light time for 1 AU = %.4f s", s)
	}
}

func TestLightTimeSatisfiesEquation(t *testing.T) {
	p := fixture2021()
	c := newCalc(t, p)
	for _, b := range []ephemeris.Body{ephemeris.Sun, ephemeris.Moon} {
		tau, n, err := c.LightTime(b)
		if err != nil {
			t.Fatalf("%s: %v", b, err)
		}
		if n < 1 || n > MaxIterations {
			t.Errorf("%s: iterations = %d", b, n)
		}
		target, err := p.State(c.JD()-tau, b, ephemeris.SSB)
		if err != nil {
			t.Fatal(err)
		}
		earth, err := p.State(c.JD(), ephemeris.Earth, ephemeris.SSB)
		if err != nil {
			t.Fatal(err)
		}
		residual := c.c*tau - vecmath.Distance(earth.Position, target.Position)
		if math.Abs(residual) > 1e-9 {
			t.Errorf("%s: residual %.3e AU", b, residual)
		}
	}
}

// wobbly reports a zero velocity for a Sun that actually oscillates fast
// enough to defeat the Newton step.
type wobbly struct{ *ephemeris.Linear }

func (w wobbly) State(jd float64, target, center ephemeris.Body) (vecmath.State, error) {
	s, err := w.Linear.State(jd, target, center)
	if err != nil || target != ephemeris.Sun {
		return s, err
	}
	s.Position.X += 0.5 * math.Sin(1e7*(jd-epoch2021))
	return s, nil
}

func TestLightTimeNoConvergence(t *testing.T) {
	rec := &recorder{}
	c := newCalc(t, wobbly{stationary(1)}, WithRecorder(rec))
	if _, _, err := c.LightTime(ephemeris.Sun); !errors.Is(err, ErrNoConvergence) {
		t.Fatalf("LightTime error = %v, want ErrNoConvergence", err)
	}
	if _, err := c.Sun(); !errors.Is(err, ErrNoConvergence) {
		t.Fatalf("Sun error = %v, want ErrNoConvergence", err)
	}
	if len(rec.calls) != 1 || rec.calls[0].err == nil || rec.calls[0].iterations != MaxIterations {
		t.Errorf("recorded %+v", rec.calls)
	}
}

func TestMissingConstant(t *testing.T) {
	for _, name := range []string{
		ephemeris.ConstAU, ephemeris.ConstSunRadius,
		ephemeris.ConstMoonRadius, ephemeris.ConstEarthRadius,
	} {
		p := stationary(1)
		delete(p.Constants, name)
		if _, err := New(obs2021, testConverter(t), p); !errors.Is(err, ephemeris.ErrConstantNotFound) {
			t.Errorf("without %s: err = %v", name, err)
		}
	}
}

func TestMissingBody(t *testing.T) {
	p := stationary(1)
	delete(p.States, ephemeris.Moon)
	if _, err := New(obs2021, testConverter(t), p); !errors.Is(err, ephemeris.ErrUnsupportedBody) {
		t.Errorf("err = %v, want ErrUnsupportedBody", err)
	}
}

func TestUnsupportedTarget(t *testing.T) {
	c := newCalc(t, stationary(1))
	for _, b := range []ephemeris.Body{ephemeris.Earth, ephemeris.SSB, ephemeris.Body(99)} {
		if _, err := c.Position(b); !errors.Is(err, ephemeris.ErrUnsupportedBody) {
			t.Errorf("%s: err = %v", b, err)
		}
	}
}

func TestAberrationShift(t *testing.T) {
	c := newCalc(t, stationary(1))
	// Earth moving at 1 AU orbital speed perpendicular to the line of sight.
	c.states[ephemeris.Earth] = vecmath.State{Velocity: vecmath.Vector3{Y: 0.0172021}}
	d := vecmath.Vector3{X: 1}
	got := c.aberration(d)
	if math.Abs(got.Norm()-1) > 1e-15 {
		t.Errorf("aberrated vector length = %.17f", got.Norm())
	}
	shift := unit.Angle(math.Acos(got.Dot(d))).Sec()
	if math.Abs(shift-20.49) > 0.02 {
		t.Errorf("aberration = %.4f\", want about 20.49\"", shift)
	}
	if got.Y <= 0 {
		t.Errorf("aberration should tilt towards the velocity, got %+v", got)
	}
}

func TestNoVelocityNoAberration(t *testing.T) {
	c := newCalc(t, stationary(1))
	d := vecmath.Vector3{X: 0.6, Y: 0.8}
	if got := c.aberration(d); vecmath.Distance(got, d) > 1e-16 {
		t.Errorf("aberration(%+v) = %+v with Earth at rest", d, got)
	}
}

func TestAngularRadiusAndParallax(t *testing.T) {
	c := newCalc(t, stationary(1))
	sun, err := c.Sun()
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(sun.DEq-1) > 1e-12 || math.Abs(sun.DEc-1) > 1e-12 {
		t.Errorf("distances = %v, %v, want 1", sun.DEq, sun.DEc)
	}
	if want := unit.Angle(math.Asin(sunKm / auKm)).Sec(); math.Abs(sun.AngularRadius-want) > 1e-9 {
		t.Errorf("sun radius = %.4f\", want %.4f\"", sun.AngularRadius, want)
	}
	if math.Abs(sun.AngularRadius-959.63) > 0.05 {
		t.Errorf("sun radius = %.4f\"", sun.AngularRadius)
	}
	if math.Abs(sun.Parallax-8.794) > 0.001 {
		t.Errorf("solar parallax = %.4f\"", sun.Parallax)
	}

	moon, err := c.Moon()
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(moon.AngularRadius-932.1) > 0.2 {
		t.Errorf("moon radius = %.3f\"", moon.AngularRadius)
	}
	if math.Abs(moon.Parallax/60-57.03) > 0.02 {
		t.Errorf("lunar parallax = %.3f'", moon.Parallax/60)
	}
}

func TestSun2021(t *testing.T) {
	c := newCalc(t, fixture2021())
	sun, err := c.Sun()
	if err != nil {
		t.Fatal(err)
	}
	// 291° geometric J2000 longitude, plus 0.294° of precession, minus 21"
	// of aberration and about 16" of nutation.
	if lon := unit.Angle(sun.Lambda).Deg(); math.Abs(lon-291.284) > 0.01 {
		t.Errorf("λ = %.5f°", lon)
	}
	if lat := unit.Angle(sun.Beta).Sec(); math.Abs(lat) > 15 {
		t.Errorf("β = %.3f\"", lat)
	}
	if ra := unit.Angle(sun.Alpha).Deg(); ra < 290 || ra > 296 {
		t.Errorf("α = %.5f°", ra)
	}
	if dec := unit.Angle(sun.Delta).Deg(); math.Abs(dec+21.8) > 0.3 {
		t.Errorf("δ = %.5f°", dec)
	}
	if math.Abs(sun.DEq-0.9834) > 1e-6 || math.Abs(sun.DEq-sun.DEc) > 1e-12 {
		t.Errorf("distances = %v, %v", sun.DEq, sun.DEc)
	}
}

func TestMoon2021(t *testing.T) {
	c := newCalc(t, fixture2021())
	moon, err := c.Moon()
	if err != nil {
		t.Fatal(err)
	}
	// Light time and aberration from the Earth's orbital motion cancel to
	// first order, leaving precession, nutation and 0.01° of lunar motion.
	if lon := unit.Angle(moon.Lambda).Deg(); math.Abs(lon-60.30) > 0.02 {
		t.Errorf("λ = %.5f°", lon)
	}
	if math.Abs(moon.DEq-moonDist) > 1e-6 {
		t.Errorf("distance = %.9f AU", moon.DEq)
	}
	want := unit.Angle(math.Asin(moonKm / (moon.DEq * auKm))).Sec()
	if math.Abs(moon.AngularRadius-want) > 1e-9 {
		t.Errorf("radius = %.6f\", want %.6f\"", moon.AngularRadius, want)
	}
}

// TestMatchesManualComposition rebuilds the Sun's position step by step
// from the building blocks and compares it with the pipeline.
func TestMatchesManualComposition(t *testing.T) {
	p := fixture2021()
	conv := testConverter(t)
	c, err := New(obs2021, conv, p)
	if err != nil {
		t.Fatal(err)
	}
	got, err := c.Sun()
	if err != nil {
		t.Fatal(err)
	}

	ep := conv.Convert(obs2021)
	tau, _, err := c.LightTime(ephemeris.Sun)
	if err != nil {
		t.Fatal(err)
	}
	sun, _ := p.State(ep.JDTDB-tau, ephemeris.Sun, ephemeris.SSB)
	earth, _ := p.State(ep.JDTDB, ephemeris.Earth, ephemeris.SSB)

	cAU := SpeedOfLight * 86400 / (auKm * 1000)
	d := vecmath.Direction(earth.Position, sun.Position)
	v := earth.Velocity.Scale(1 / cAU)
	f := math.Sqrt(1 - v.Dot(v))
	g := v.Dot(d)
	d = d.Scale(f).Add(v.Scale(1 + g/(1+f))).Scale(1 / (1 + g))
	pos := d.Scale(vecmath.Distance(earth.Position, sun.Position))

	frame := bpn.New(ep.T, conv.Tables())
	pos = frame.Matrix(bpn.BiasPrecessionNutation).Apply(pos)
	eq := transform.Rect2Pol(pos)
	ec := transform.PolEqToEc(eq, obliquity.Mean(ep.T))

	for _, x := range []struct {
		name      string
		got, want float64
	}{
		{"alpha", got.Alpha, eq.Lon},
		{"delta", got.Delta, eq.Lat},
		{"d_eq", got.DEq, eq.R},
		{"lambda", got.Lambda, ec.Lon},
		{"beta", got.Beta, ec.Lat},
		{"d_ec", got.DEc, ec.R},
	} {
		if math.Abs(x.got-x.want) > 1e-12 {
			t.Errorf("%s = %.15f, want %.15f", x.name, x.got, x.want)
		}
	}
}

func TestRepeatedCallsAreStable(t *testing.T) {
	c := newCalc(t, fixture2021())
	a, err := c.Moon()
	if err != nil {
		t.Fatal(err)
	}
	b, err := c.Moon()
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Errorf("repeated Moon() differ: %+v vs %+v", a, b)
	}
}

type call struct {
	body       string
	iterations int
	err        error
}

type recorder struct {
	mu    sync.Mutex
	calls []call
}

func (r *recorder) ObserveComputation(body string, _ time.Duration, iterations int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call{body, iterations, err})
}

func TestRecorder(t *testing.T) {
	rec := &recorder{}
	c := newCalc(t, fixture2021(), WithRecorder(rec))
	if _, err := c.Sun(); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Moon(); err != nil {
		t.Fatal(err)
	}
	if len(rec.calls) != 2 {
		t.Fatalf("recorded %d calls, want 2", len(rec.calls))
	}
	if rec.calls[0].body != "sun" || rec.calls[1].body != "moon" {
		t.Errorf("bodies = %s, %s", rec.calls[0].body, rec.calls[1].body)
	}
	for _, cl := range rec.calls {
		if cl.err != nil || cl.iterations < 1 {
			t.Errorf("call %+v", cl)
		}
	}
}

// goldenConverter uses a fixed reference set independent of the embedded data:
// the leap second in effect since 2017 and the five largest luni-solar and
// the largest planetary nutation terms.
func goldenConverter(t *testing.T) *timescale.Converter {
	t.Helper()
	ls, err := refdata.ParseLuniSolar(strings.NewReader(`
0 0 0 0 1 -17206.4161 -17.4666 3.3386 9205.2331 0.9086 1.5377
0 0 2 -2 2 -1317.0906 -0.1675 -1.3696 573.0336 -0.3015 -0.4587
0 0 2 0 2 -227.6413 -0.0234 0.2796 97.8459 -0.0485 0.1374
0 0 0 0 2 207.4554 0.0207 -0.0698 -89.7492 0.0470 -0.0291
0 1 0 0 0 147.5877 -0.3633 1.1817 7.3871 -0.0184 -0.1924
`))
	if err != nil {
		t.Fatal(err)
	}
	pl, err := refdata.ParsePlanetary(strings.NewReader(
		"0 0 0 0 0 0 0 8 -16 4 5 0 0 0 0.1440 0.0000 0.0000 0.0000\n"))
	if err != nil {
		t.Fatal(err)
	}
	conv, err := timescale.NewConverter(&refdata.Tables{
		Source:      "golden",
		LeapSeconds: []refdata.LeapSecond{{Date: refdata.NewDateKey(2017, time.January, 1), UTCMinusTAI: -37}},
		DUT1:        []refdata.DUT1Entry{{Date: refdata.NewDateKey(2017, time.January, 1), Seconds: 0.4}},
		LuniSolar:   ls,
		Planetary:   pl,
	}, 4)
	if err != nil {
		t.Fatal(err)
	}
	return conv
}

// TestGolden2021 pins every output of both bodies on the 2021-01-11
// fixture to 8 significant digits.
func TestGolden2021(t *testing.T) {
	c, err := New(obs2021, goldenConverter(t), fixture2021())
	if err != nil {
		t.Fatal(err)
	}
	if got := c.Epochs().JDTDB; math.Abs(got-2459225.5008007414) > 1e-9 {
		t.Errorf("JD(TDB) = %.10f", got)
	}

	tests := []struct {
		name string
		pos  func() (Position, error)
		want Position
	}{
		{"sun", c.Sun, Position{
			Alpha:         5.113927334282661,
			Delta:         -3.797080492972106e-01,
			DEq:           9.834000000996109e-01,
			Lambda:        5.083871003063924,
			Beta:          -4.947078173482265e-05,
			DEc:           9.834000000996110e-01,
			AngularRadius: 9.758439565294045e+02,
			Parallax:      8.942590846091861,
		}},
		{"moon", c.Moon, Position{
			Alpha:         1.014572419272554,
			Delta:         3.528011023024797e-01,
			DEq:           2.570201670802052e-03,
			Lambda:        1.052427569621046,
			Beta:          4.943574422165882e-05,
			DEc:           2.570201670802052e-03,
			AngularRadius: 9.320384192951771e+02,
			Parallax:      3.421734294787300e+03,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.pos()
			if err != nil {
				t.Fatal(err)
			}
			for _, f := range []struct {
				name      string
				got, want float64
			}{
				{"alpha", got.Alpha, tt.want.Alpha},
				{"delta", got.Delta, tt.want.Delta},
				{"d_eq", got.DEq, tt.want.DEq},
				{"lambda", got.Lambda, tt.want.Lambda},
				{"beta", got.Beta, tt.want.Beta},
				{"d_ec", got.DEc, tt.want.DEc},
				{"angular_radius", got.AngularRadius, tt.want.AngularRadius},
				{"parallax", got.Parallax, tt.want.Parallax},
			} {
				if math.Abs(f.got-f.want) > 1e-8*math.Abs(f.want) {
					t.Errorf("%s = %.15e, want %.15e (rel %.1e)",
						f.name, f.got, f.want, math.Abs(f.got-f.want)/math.Abs(f.want))
				}
			}
		})
	}
}
