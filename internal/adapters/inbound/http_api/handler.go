package http_api

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/charleschow/fairodds/internal/core/odds"
	"github.com/charleschow/fairodds/internal/core/session"
	"github.com/charleschow/fairodds/internal/core/state/game"
	"github.com/charleschow/fairodds/internal/core/state/match"
	"github.com/charleschow/fairodds/internal/core/strategy/overunder"
	"github.com/charleschow/fairodds/internal/telemetry"
)

const maxBodyBytes = 64 << 10

// MatchService is the session surface the API drives.
type MatchService interface {
	Start(ctx context.Context, req session.StartRequest) (session.View, error)
	Submit(ctx context.Context, id string, in match.EventInput) (match.LogRecord, error)
	Project(ctx context.Context, id string, line float64) (overunder.Projection, error)
	Evaluate(ctx context.Context, id string, line, liveOdd float64) (session.Evaluation, error)
	Restart(ctx context.Context, id string, mo odds.MarketOdds) (session.View, error)
	Get(ctx context.Context, id string) (session.View, error)
	List(ctx context.Context) []session.Summary
	Close(ctx context.Context, id string) error
}

// Handler serves the match JSON API.
//
// Routes:
//
//	POST   /matches                    start a match
//	GET    /matches                    list matches
//	GET    /matches/{id}               full state and history
//	POST   /matches/{id}/events        submit one minute
//	POST   /matches/{id}/restart       reseed with new odds
//	GET    /matches/{id}/projection    ?line=2.5
//	GET    /matches/{id}/value         ?line=2.5&live_odd=2.10
//	DELETE /matches/{id}               discard the session
//	GET    /health                     200 OK
type Handler struct {
	svc     MatchService
	limiter *rate.Limiter
	timeout time.Duration
}

// NewHandler builds the API. rps <= 0 disables rate limiting.
func NewHandler(svc MatchService, rps float64, burst int) *Handler {
	h := &Handler{svc: svc, timeout: 5 * time.Second}
	if rps > 0 {
		if burst < 1 {
			burst = 1
		}
		h.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
	return h
}

// RegisterRoutes wires HTTP routes onto the provided mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /matches", h.wrap(h.start))
	mux.HandleFunc("GET /matches", h.wrap(h.list))
	mux.HandleFunc("GET /matches/{id}", h.wrap(h.get))
	mux.HandleFunc("POST /matches/{id}/events", h.wrap(h.submit))
	mux.HandleFunc("POST /matches/{id}/restart", h.wrap(h.restart))
	mux.HandleFunc("GET /matches/{id}/projection", h.wrap(h.projection))
	mux.HandleFunc("GET /matches/{id}/value", h.wrap(h.value))
	mux.HandleFunc("DELETE /matches/{id}", h.wrap(h.close))
	mux.HandleFunc("GET /health", h.healthCheck)
}

type apiFunc func(w http.ResponseWriter, r *http.Request) error

// wrap applies the rate limit, a per-request timeout and error mapping.
func (h *Handler) wrap(fn apiFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		telemetry.Metrics.APIRequests.Inc()
		defer func() { telemetry.Metrics.APILatency.Record(time.Since(start)) }()

		if h.limiter != nil && !h.limiter.Allow() {
			telemetry.Metrics.APIRateLimited.Inc()
			writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		defer cancel()
		if err := fn(w, r.WithContext(ctx)); err != nil {
			status, code := classify(err)
			if status >= http.StatusInternalServerError {
				telemetry.Errorf("api: %s %s: %v", r.Method, r.URL.Path, err)
			} else {
				telemetry.Debugf("api: %s %s -> %d %s: %v", r.Method, r.URL.Path, status, code, err)
			}
			writeError(w, status, code, err.Error())
		}
	}
}

func (h *Handler) start(w http.ResponseWriter, r *http.Request) error {
	var req session.StartRequest
	if err := decodeBody(w, r, &req); err != nil {
		return err
	}
	v, err := h.svc.Start(r.Context(), req)
	if err != nil {
		return err
	}
	telemetry.Infof("api: match %s started  %s vs %s  preset=%s", v.ID, v.Home, v.Away, v.Preset)
	writeJSON(w, http.StatusCreated, v)
	return nil
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) error {
	writeJSON(w, http.StatusOK, h.svc.List(r.Context()))
	return nil
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) error {
	v, err := h.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, v)
	return nil
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) error {
	var in match.EventInput
	if err := decodeBody(w, r, &in); err != nil {
		return err
	}
	rec, err := h.svc.Submit(r.Context(), r.PathValue("id"), in)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, rec)
	return nil
}

type restartRequest struct {
	Odds odds.MarketOdds `json:"odds"`
}

func (h *Handler) restart(w http.ResponseWriter, r *http.Request) error {
	var req restartRequest
	if err := decodeBody(w, r, &req); err != nil {
		return err
	}
	v, err := h.svc.Restart(r.Context(), r.PathValue("id"), req.Odds)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, v)
	return nil
}

type projectionResponse struct {
	overunder.Projection
	UnderFairOdd float64 `json:"under_fair_odd"`
}

func (h *Handler) projection(w http.ResponseWriter, r *http.Request) error {
	line, err := queryFloat(r, "line", false)
	if err != nil {
		return err
	}
	proj, err := h.svc.Project(r.Context(), r.PathValue("id"), line)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, projectionResponse{Projection: proj, UnderFairOdd: proj.UnderFairOdd()})
	return nil
}

func (h *Handler) value(w http.ResponseWriter, r *http.Request) error {
	line, err := queryFloat(r, "line", false)
	if err != nil {
		return err
	}
	live, err := queryFloat(r, "live_odd", true)
	if err != nil {
		return err
	}
	ev, err := h.svc.Evaluate(r.Context(), r.PathValue("id"), line, live)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, ev)
	return nil
}

func (h *Handler) close(w http.ResponseWriter, r *http.Request) error {
	if err := h.svc.Close(r.Context(), r.PathValue("id")); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"matches": telemetry.Metrics.ActiveMatches.Value(),
	})
}

var errBadRequest = errors.New("bad request")

// decodeBody reads a JSON body, plain or gzip-compressed.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	defer r.Body.Close()
	var reader io.Reader = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if strings.EqualFold(r.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(reader)
		if err != nil {
			return fmt.Errorf("gzip header: %v: %w", err, errBadRequest)
		}
		defer gz.Close()
		reader = io.LimitReader(gz, maxBodyBytes)
	}
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode body: %v: %w", err, errBadRequest)
	}
	return nil
}

func queryFloat(r *http.Request, name string, required bool) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		if required {
			return 0, fmt.Errorf("missing ?%s=: %w", name, errBadRequest)
		}
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || !odds.Finite(v) {
		return 0, fmt.Errorf("%s=%q: %w", name, raw, errBadRequest)
	}
	return v, nil
}

// classify maps core errors onto HTTP status and a stable error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, session.ErrNotFound), errors.Is(err, game.ErrClosed):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, match.ErrOutOfOrderMinute):
		return http.StatusConflict, "out_of_order_minute"
	case errors.Is(err, match.ErrMatchLengthExceeded):
		return http.StatusConflict, "match_length_exceeded"
	case errors.Is(err, match.ErrEmptySubmission):
		return http.StatusUnprocessableEntity, "empty_submission"
	case errors.Is(err, match.ErrInvalidEvent):
		return http.StatusUnprocessableEntity, "invalid_event"
	case errors.Is(err, match.ErrInvalidOdds):
		return http.StatusUnprocessableEntity, "invalid_odds"
	case errors.Is(err, match.ErrNoOddAvailable):
		return http.StatusUnprocessableEntity, "no_odd_available"
	case errors.Is(err, match.ErrInvalidPolicy), errors.Is(err, session.ErrUnknownPreset):
		return http.StatusUnprocessableEntity, "invalid_policy"
	case errors.Is(err, session.ErrInvalidLine), errors.Is(err, match.ErrNonFinite):
		return http.StatusUnprocessableEntity, "invalid_line"
	case errors.Is(err, game.ErrInboxFull),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, "busy"
	}
	return http.StatusInternalServerError, "internal"
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorBody{Error: msg, Code: code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		telemetry.Warnf("api: encode response: %v", err)
	}
}
