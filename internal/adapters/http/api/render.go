package api

import (
	"bytes"
	"net/http"

	"github.com/okian/perfectcircle/internal/adapters/render"
	"github.com/okian/perfectcircle/internal/domain/scoring"
)

type renderRequest struct {
	pathRequest
	Score *float64 `json:"score,omitempty"`
	Best  *float64 `json:"best,omitempty"`
}

// handleRender handles POST /render: the path is scored unless a score is
// given, and the frame comes back as image/png.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	const op = "api.render"
	var req renderRequest
	if err := s.decode(w, r, &req, false); err != nil {
		fail(w, op, err)
		return
	}
	var res scoring.Result
	if req.Score != nil {
		res = scoring.Result{Value: *req.Score, Valid: true}
	} else {
		rep, err := s.deps.Evaluate(r.Context(), req.Width, req.Points)
		if err != nil {
			fail(w, op, err)
			return
		}
		res = rep.Result
	}
	s.writePNG(w, op, render.Scene{Width: req.Width, Path: req.Points, Result: &res, Best: req.Best})
}

// handleSessionPreview handles GET /sessions/{id}/preview.png.
func (s *Server) handleSessionPreview(w http.ResponseWriter, r *http.Request) {
	const op = "api.session_preview"
	id := r.PathValue("id")
	st, err := s.deps.SessionState(r.Context(), id)
	if err != nil {
		fail(w, op, err)
		return
	}
	path, width, err := s.deps.SessionPath(r.Context(), id)
	if err != nil {
		fail(w, op, err)
		return
	}
	sc := render.Scene{Width: width, Path: path, Best: st.Best, TooClose: st.TooClose}
	if st.Drawing {
		sc.Result = st.Live
	} else {
		sc.Result = st.Last
	}
	s.writePNG(w, op, sc)
}

func (s *Server) writePNG(w http.ResponseWriter, op string, sc render.Scene) {
	var buf bytes.Buffer
	if err := s.renderer.PNG(&buf, sc); err != nil {
		status, code := classify(err)
		writeError(w, status, code, WrapKind(op, ErrRenderFailed, err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
