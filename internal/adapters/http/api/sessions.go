package api

import (
	"net/http"

	"github.com/okian/perfectcircle/internal/domain/geometry"
	"github.com/okian/perfectcircle/internal/domain/session"
)

type createSessionRequest struct {
	Width float64 `json:"width"`
}

type createSessionResponse struct {
	SessionID string  `json:"session_id"`
	Width     float64 `json:"width"`
}

type startRequest struct {
	Width float64 `json:"width,omitempty"`
}

type pointsRequest struct {
	Points []geometry.Point `json:"points"`
}

type pointsResponse struct {
	Samples  int         `json:"samples"`
	TooClose bool        `json:"too_close"`
	Live     *resultView `json:"live,omitempty"`
}

type outcomeResponse struct {
	resultView
	Best        float64 `json:"best"`
	NewBest     bool    `json:"new_best"`
	Eligible    bool    `json:"eligible"`
	InvalidPath bool    `json:"invalid_path"`
	TooClose    bool    `json:"too_close"`
}

// handleCreateSession handles POST /sessions.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_session"
	var req createSessionRequest
	if err := s.decode(w, r, &req, false); err != nil {
		fail(w, op, err)
		return
	}
	id, err := s.deps.CreateSession(r.Context(), req.Width)
	if err != nil {
		fail(w, op, err)
		return
	}
	w.Header().Set("Location", "/sessions/"+id)
	writeJSON(w, http.StatusCreated, createSessionResponse{SessionID: id, Width: req.Width})
}

// handleSessionState handles GET /sessions/{id}.
func (s *Server) handleSessionState(w http.ResponseWriter, r *http.Request) {
	const op = "api.session_state"
	st, err := s.deps.SessionState(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// handleStartGesture handles POST /sessions/{id}/start. The body is optional.
func (s *Server) handleStartGesture(w http.ResponseWriter, r *http.Request) {
	const op = "api.start_gesture"
	var req startRequest
	if err := s.decode(w, r, &req, true); err != nil {
		fail(w, op, err)
		return
	}
	st, err := s.deps.StartGesture(r.Context(), r.PathValue("id"), req.Width)
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// handleAppendSamples handles POST /sessions/{id}/points.
func (s *Server) handleAppendSamples(w http.ResponseWriter, r *http.Request) {
	const op = "api.append_samples"
	var req pointsRequest
	if err := s.decode(w, r, &req, false); err != nil {
		fail(w, op, err)
		return
	}
	up, err := s.deps.AppendSamples(r.Context(), r.PathValue("id"), req.Points)
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, pointsView(up))
}

func pointsView(up session.Update) pointsResponse {
	out := pointsResponse{Samples: up.Samples, TooClose: up.TooClose}
	if up.Live != nil {
		v := viewOf(*up.Live)
		out.Live = &v
	}
	return out
}

// handleEndGesture handles POST /sessions/{id}/end.
func (s *Server) handleEndGesture(w http.ResponseWriter, r *http.Request) {
	const op = "api.end_gesture"
	out, err := s.deps.EndGesture(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, outcomeResponse{
		resultView:  viewOf(out.Result),
		Best:        out.Best,
		NewBest:     out.NewBest,
		Eligible:    out.Eligible,
		InvalidPath: out.Report.InvalidPath,
		TooClose:    out.Report.TooClose,
	})
}
