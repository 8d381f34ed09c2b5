package api

import (
	"net/http"

	"github.com/okian/perfectcircle/internal/domain/geometry"
	"github.com/okian/perfectcircle/internal/domain/scoring"
)

// pathRequest is the body of POST /score and POST /render.
type pathRequest struct {
	Width  float64       `json:"width"`
	Points geometry.Path `json:"points"`
}

type scoreResponse struct {
	resultView
	InvalidPath bool           `json:"invalid_path"`
	TooClose    bool           `json:"too_close"`
	Eligible    bool           `json:"eligible"`
	Breakdown   scoring.Report `json:"breakdown"`
}

// handleScore handles POST /score: one-shot scoring of a complete path.
func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.score"
	var req pathRequest
	if err := s.decode(w, r, &req, false); err != nil {
		fail(w, op, err)
		return
	}
	rep, err := s.deps.Evaluate(r.Context(), req.Width, req.Points)
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, scoreResponse{
		resultView:  viewOf(rep.Result),
		InvalidPath: rep.InvalidPath,
		TooClose:    rep.TooClose,
		Eligible:    s.deps.Eligible(rep.Result),
		Breakdown:   rep,
	})
}
