// Package site serves the embedded drawing page that captures pointer input
// and talks to the session and leaderboard API.
package site

import (
	"context"
	"errors"
	"net/http"
)

// ErrServe is reported when the embedded page cannot be served.
var ErrServe = errors.New("site serve failed")

// Register attaches the game page at / and its assets under /static/.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	files := http.FileServer(FS())
	mux.Handle("GET /static/", http.StripPrefix("/static", files))
	mux.HandleFunc("GET /{$}", NewRootHandler().HandleRoot)
}

// RootHandler serves the game page.
type RootHandler struct {
	fs http.FileSystem
}

// NewRootHandler creates a new root handler.
func NewRootHandler() *RootHandler {
	return &RootHandler{fs: FS()}
}

// HandleRoot handles GET / requests.
func (h *RootHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	f, err := h.fs.Open("index.html")
	if err != nil {
		http.Error(w, errors.Join(ErrServe, err).Error(), http.StatusInternalServerError)
		return
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		http.Error(w, errors.Join(ErrServe, err).Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeContent(w, r, "index.html", st.ModTime(), f)
}
