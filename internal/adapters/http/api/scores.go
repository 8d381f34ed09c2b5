package api

import (
	"net/http"
	"strconv"
	"strings"

	service "github.com/okian/perfectcircle/internal/app"
	"github.com/okian/perfectcircle/internal/domain/geometry"
)

// submitRequest mirrors the OpenAPI schema for POST /scores.
type submitRequest struct {
	SubmissionID string        `json:"submission_id"`
	Name         string        `json:"name"`
	Score        float64       `json:"score"`
	Width        float64       `json:"width"`
	Points       geometry.Path `json:"points"`
}

type ackResponse struct {
	Status       string  `json:"status"`
	SubmissionID string  `json:"submission_id"`
	Name         string  `json:"name"`
	Score        float64 `json:"score"`
	Duplicate    bool    `json:"duplicate"`
}

// handleSubmit handles POST /scores: 202 when queued, 200 for a retried id.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_score"
	var req submitRequest
	if err := s.decode(w, r, &req, false); err != nil {
		fail(w, op, err)
		return
	}
	res, err := s.deps.Submit(r.Context(), service.SubmitRequest{
		ID:    strings.TrimSpace(req.SubmissionID),
		Name:  req.Name,
		Score: req.Score,
		Width: req.Width,
		Path:  req.Points,
	})
	if err != nil {
		fail(w, op, err)
		return
	}
	ack := ackResponse{
		Status:       "accepted",
		SubmissionID: res.ID,
		Name:         res.Name,
		Score:        res.Score,
		Duplicate:    res.Duplicate,
	}
	if res.Duplicate {
		ack.Status = "duplicate"
		writeJSON(w, http.StatusOK, ack)
		return
	}
	writeJSON(w, http.StatusAccepted, ack)
}

// handleTopN handles GET /scores?limit=N. Without a limit the default size is used.
func (s *Server) handleTopN(w http.ResponseWriter, r *http.Request) {
	const op = "api.top_scores"
	n := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		n = v
	}
	entries, err := s.deps.TopN(r.Context(), n)
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
