package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/soniakeys/unit"

	"github.com/star/apos/internal/apos"
	"github.com/star/apos/internal/ephemeris"
	"github.com/star/apos/internal/metrics"
	"github.com/star/apos/internal/series"
	"github.com/star/apos/internal/timescale"
)

type handlers struct {
	logger *slog.Logger
	deps   Deps
}

// positionView adds degree fields to apos.Position.
type positionView struct {
	apos.Position
	AlphaDeg  float64 `json:"alpha_deg"`
	DeltaDeg  float64 `json:"delta_deg"`
	LambdaDeg float64 `json:"lambda_deg"`
	BetaDeg   float64 `json:"beta_deg"`
}

func newPositionView(p apos.Position) *positionView {
	return &positionView{
		Position:  p,
		AlphaDeg:  unit.Angle(p.Alpha).Deg(),
		DeltaDeg:  unit.Angle(p.Delta).Deg(),
		LambdaDeg: unit.Angle(p.Lambda).Deg(),
		BetaDeg:   unit.Angle(p.Beta).Deg(),
	}
}

type apparentResponse struct {
	UTC  string        `json:"utc"`
	TDB  string        `json:"tdb"`
	JD   float64       `json:"jd_tdb"`
	Sun  *positionView `json:"sun,omitempty"`
	Moon *positionView `json:"moon,omitempty"`
}

type timescalesResponse struct {
	UTC         string  `json:"utc"`
	TAI         string  `json:"tai"`
	UT1         string  `json:"ut1"`
	TT          string  `json:"tt"`
	TCG         string  `json:"tcg"`
	TCB         string  `json:"tcb"`
	TDB         string  `json:"tdb"`
	UTCMinusTAI int     `json:"utc_minus_tai"`
	DUT1        float64 `json:"dut1"`
	DeltaT      float64 `json:"delta_t"`
	JD          float64 `json:"jd"`
	JDTDB       float64 `json:"jd_tdb"`
	T           float64 `json:"t"`
}

type seriesResponse struct {
	Body   string         `json:"body"`
	Count  int            `json:"count"`
	Failed int            `json:"failed"`
	Points []series.Point `json:"points"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps a computation error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ephemeris.ErrUnsupportedBody):
		return http.StatusBadRequest
	case errors.Is(err, apos.ErrNoConvergence), errors.Is(err, ephemeris.ErrOutsideRange):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("computation failed", "component", "api", "path", r.URL.Path, "error", err)
	}
	writeError(w, status, err.Error())
}

// parseTime reads an RFC 3339 instant from query parameter name; empty
// means now.
func parseTime(r *http.Request, name string) (time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" || v == "now" {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be an RFC 3339 timestamp: %q", name, v)
	}
	return t.UTC(), nil
}

// parseStep accepts a Go duration ("90s", "1h") or a number of seconds.
func parseStep(v string) (time.Duration, error) {
	if v == "" {
		return time.Hour, nil
	}
	if n, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(n * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("step must be a duration or seconds: %q", v)
	}
	return d, nil
}

func (h *handlers) calculator(t time.Time) (*apos.Calculator, error) {
	return apos.New(timescale.FromTime(t), h.deps.Converter, h.deps.Provider,
		apos.WithLogger(h.logger), apos.WithRecorder(metrics.Recorder{}))
}

func (h *handlers) apparent(w http.ResponseWriter, r *http.Request) {
	t, err := parseTime(r, "time")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	calc, err := h.calculator(t)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	sun, err := calc.Sun()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	moon, err := calc.Moon()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ep := calc.Epochs()
	writeJSON(w, http.StatusOK, apparentResponse{
		UTC:  ep.UTC.Format(),
		TDB:  ep.TDB.Format(),
		JD:   ep.JDTDB,
		Sun:  newPositionView(sun),
		Moon: newPositionView(moon),
	})
}

func (h *handlers) apparentBody(w http.ResponseWriter, r *http.Request) {
	body, err := ephemeris.ParseBody(r.PathValue("body"))
	if err != nil || (body != ephemeris.Sun && body != ephemeris.Moon) {
		writeError(w, http.StatusBadRequest, "body must be sun or moon")
		return
	}
	t, err := parseTime(r, "time")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	calc, err := h.calculator(t)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	pos, err := calc.Position(body)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ep := calc.Epochs()
	resp := apparentResponse{UTC: ep.UTC.Format(), TDB: ep.TDB.Format(), JD: ep.JDTDB}
	if body == ephemeris.Sun {
		resp.Sun = newPositionView(pos)
	} else {
		resp.Moon = newPositionView(pos)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) timescales(w http.ResponseWriter, r *http.Request) {
	t, err := parseTime(r, "time")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ep := h.deps.Converter.Convert(timescale.FromTime(t))
	writeJSON(w, http.StatusOK, timescalesResponse{
		UTC:         ep.UTC.Format(),
		TAI:         ep.TAI.Format(),
		UT1:         ep.UT1.Format(),
		TT:          ep.TT.Format(),
		TCG:         ep.TCG.Format(),
		TCB:         ep.TCB.Format(),
		TDB:         ep.TDB.Format(),
		UTCMinusTAI: ep.UTCMinusTAI,
		DUT1:        ep.DUT1,
		DeltaT:      ep.DeltaT,
		JD:          ep.JD,
		JDTDB:       ep.JDTDB,
		T:           ep.T,
	})
}

func (h *handlers) series(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	body, err := ephemeris.ParseBody(q.Get("body"))
	if err != nil || (body != ephemeris.Sun && body != ephemeris.Moon) {
		writeError(w, http.StatusBadRequest, "body must be sun or moon")
		return
	}
	start, err := parseTime(r, "start")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	end := start.Add(24 * time.Hour)
	if q.Get("end") != "" {
		if end, err = parseTime(r, "end"); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	step, err := parseStep(q.Get("step"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	times, err := series.Times(start, end, step, h.deps.MaxSeriesPoints)
	switch {
	case errors.Is(err, series.ErrTooManyPoints):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":      err.Error(),
			"max_points": h.deps.MaxSeriesPoints,
		})
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	points, failed, err := h.deps.Pool.Compute(r.Context(), body, times)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	metrics.ObserveSeries(len(points), failed)
	if len(points) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "no position could be computed in range")
		return
	}
	writeJSON(w, http.StatusOK, seriesResponse{
		Body:   body.String(),
		Count:  len(points),
		Failed: failed,
		Points: points,
	})
}

type ephemerisResponse struct {
	Path      string             `json:"path,omitempty"`
	StartJD   float64            `json:"start_jd,omitempty"`
	EndJD     float64            `json:"end_jd,omitempty"`
	Constants map[string]float64 `json:"constants"`
	Tables    tablesInfo         `json:"tables"`
}

type tablesInfo struct {
	Source      string  `json:"source"`
	LoadedAt    string  `json:"loaded_at"`
	AgeSeconds  float64 `json:"age_seconds"`
	LeapSeconds int     `json:"leap_seconds"`
	DUT1        int     `json:"dut1"`
	LuniSolar   int     `json:"luni_solar_terms"`
	Planetary   int     `json:"planetary_terms"`
	Approximate bool    `json:"approximate"`
}

// fileProvider is implemented by providers backed by a DE file.
type fileProvider interface {
	Path() string
	Range() (start, end float64)
}

func (h *handlers) ephemeris(w http.ResponseWriter, r *http.Request) {
	resp := ephemerisResponse{Constants: make(map[string]float64)}
	if fp, ok := h.deps.Provider.(fileProvider); ok {
		resp.Path = fp.Path()
		resp.StartJD, resp.EndJD = fp.Range()
	}
	for _, name := range []string{
		ephemeris.ConstAU, ephemeris.ConstSunRadius,
		ephemeris.ConstMoonRadius, ephemeris.ConstEarthRadius,
	} {
		if v, err := h.deps.Provider.Constant(name); err == nil {
			resp.Constants[strings.ToLower(name)] = v
		}
	}
	if h.deps.Tables != nil {
		if t := h.deps.Tables.Get(); t != nil {
			resp.Tables = tablesInfo{
				Source:      t.Source,
				LoadedAt:    t.LoadedAt.UTC().Format(time.RFC3339),
				AgeSeconds:  h.deps.Tables.AgeSeconds(),
				LeapSeconds: len(t.LeapSeconds),
				DUT1:        len(t.DUT1),
				LuniSolar:   len(t.LuniSolar),
				Planetary:   len(t.Planetary),
				Approximate: t.Approximate(),
			}
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
