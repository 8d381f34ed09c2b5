// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	service "github.com/okian/perfectcircle/internal/app"
	"github.com/okian/perfectcircle/internal/adapters/render"
	"github.com/okian/perfectcircle/internal/domain/geometry"
	"github.com/okian/perfectcircle/internal/domain/scoring"
	"github.com/okian/perfectcircle/internal/domain/session"
	"github.com/okian/perfectcircle/internal/domain/types"
	"github.com/okian/perfectcircle/pkg/logger"
)

// bytesPerSample over-estimates one encoded {"x":..,"y":..} point.
const (
	bytesPerSample = 64
	bodyOverhead   = 4 << 10
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Evaluate(ctx context.Context, width float64, path geometry.Path) (scoring.Report, error)
	Eligible(r scoring.Result) bool

	CreateSession(ctx context.Context, width float64) (string, error)
	StartGesture(ctx context.Context, id string, width float64) (session.State, error)
	AppendSamples(ctx context.Context, id string, points []geometry.Point) (session.Update, error)
	EndGesture(ctx context.Context, id string) (session.Outcome, error)
	SessionState(ctx context.Context, id string) (session.State, error)
	SessionPath(ctx context.Context, id string) (geometry.Path, float64, error)

	Submit(ctx context.Context, req service.SubmitRequest) (service.SubmitResult, error)
	TopN(ctx context.Context, n int) ([]Entry, error)

	StatsProvider
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	deps         Dependencies
	renderer     *render.Renderer
	maxBodyBytes int64

	healthHandler *HealthHandler
	statsHandler  *StatsHandler
}

// Option configures a Server.
type Option func(*Server)

// WithMaxSamples sizes the request body limit for paths of up to n samples.
func WithMaxSamples(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = int64(n)*bytesPerSample + bodyOverhead
		}
	}
}

// WithRenderer replaces the PNG renderer.
func WithRenderer(r *render.Renderer) Option {
	return func(s *Server) {
		if r != nil {
			s.renderer = r
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		deps:          deps,
		renderer:      render.New(),
		maxBodyBytes:  10_000*bytesPerSample + bodyOverhead,
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(deps),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /score", MetricsMiddleware(s.handleScore, "score"))
	mux.HandleFunc("POST /render", MetricsMiddleware(s.handleRender, "render"))

	mux.HandleFunc("POST /sessions", MetricsMiddleware(s.handleCreateSession, "sessions"))
	mux.HandleFunc("GET /sessions/{id}", MetricsMiddleware(s.handleSessionState, "session_state"))
	mux.HandleFunc("POST /sessions/{id}/start", MetricsMiddleware(s.handleStartGesture, "session_start"))
	mux.HandleFunc("POST /sessions/{id}/points", MetricsMiddleware(s.handleAppendSamples, "session_points"))
	mux.HandleFunc("POST /sessions/{id}/end", MetricsMiddleware(s.handleEndGesture, "session_end"))
	mux.HandleFunc("GET /sessions/{id}/preview.png", MetricsMiddleware(s.handleSessionPreview, "session_preview"))

	mux.HandleFunc("POST /scores", MetricsMiddleware(s.handleSubmit, "scores_submit"))
	mux.HandleFunc("GET /scores", MetricsMiddleware(s.handleTopN, "scores"))
}

// Handler returns the API routes on a fresh mux wrapped with recovery and request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.Register(mux)
	return RecoverMiddleware(LoggingMiddleware(mux))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON encodes v before committing status. Values that fail to encode
// are answered with a 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		logger.Get().Error(context.Background(), "encode response failed", logger.Error(err))
		status = http.StatusInternalServerError
		body, _ = json.Marshal(errorResponse{Code: "internal_error", Message: Wrap("encode response", err).Error()})
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		logger.Get().Debug(context.Background(), "write response failed", logger.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// fail maps a service error to its HTTP status and error code.
func fail(w http.ResponseWriter, op string, err error) {
	status, code := classify(err)
	writeError(w, status, code, Wrap(op, err))
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBodyTooLarge), errors.Is(err, service.ErrTooManySamples):
		return http.StatusRequestEntityTooLarge, "too_large"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, service.ErrInvalidWidth),
		errors.Is(err, service.ErrInvalidName),
		errors.Is(err, service.ErrInvalidScore),
		errors.Is(err, service.ErrInvalidLimit),
		errors.Is(err, service.ErrInvalidSessionID),
		errors.Is(err, render.ErrInvalidWidth):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, service.ErrSessionNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrNotDrawing):
		return http.StatusConflict, "not_drawing"
	case errors.Is(err, service.ErrNotEligible):
		return http.StatusUnprocessableEntity, "not_eligible"
	case errors.Is(err, service.ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, service.ErrTooManySessions):
		return http.StatusTooManyRequests, "too_many_sessions"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// decode reads a JSON body into v. An empty body is accepted when optional is set.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any, optional bool) error {
	body := http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return fmt.Errorf("%w: limit %d bytes", ErrBodyTooLarge, tooLarge.Limit)
		case optional && errors.Is(err, io.EOF):
			return nil
		default:
			return fmt.Errorf("%w: %w", ErrBadRequest, err)
		}
	}
	return nil
}

// resultView is a final or live score with its presentation bucket.
type resultView struct {
	Score    float64 `json:"score"`
	Valid    bool    `json:"valid"`
	Severity string  `json:"severity"`
	Level    int     `json:"level"`
	Color    string  `json:"color"`
}

func viewOf(r scoring.Result) resultView {
	sev := scoring.Classify(r.Value)
	return resultView{
		Score:    r.Value,
		Valid:    r.Valid,
		Severity: sev.Label,
		Level:    sev.Level,
		Color:    sev.Color,
	}
}
