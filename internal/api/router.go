// Package api exposes the resolution pipeline over HTTP.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sydlexius/driftwood/internal/event"
	"github.com/sydlexius/driftwood/internal/lyrics"
	"github.com/sydlexius/driftwood/internal/resolve"
)

// RouterDeps bundles all dependencies needed by the HTTP router. Bus may be
// nil, disabling resolution event publication.
type RouterDeps struct {
	Resolver *resolve.Resolver
	Lyrics   *lyrics.Service
	Bus      *event.Bus
	Logger   *slog.Logger
}

// Router sets up all HTTP routes for the application.
type Router struct {
	resolver *resolve.Resolver
	lyrics   *lyrics.Service
	bus      *event.Bus
	logger   *slog.Logger
}

// NewRouter creates a Router with all routes configured.
func NewRouter(deps RouterDeps) *Router {
	return &Router{
		resolver: deps.Resolver,
		lyrics:   deps.Lyrics,
		bus:      deps.Bus,
		logger:   deps.Logger,
	}
}

func (r *Router) publish(t event.Type, data map[string]any) {
	if r.bus != nil {
		r.bus.Publish(event.Event{Type: t, Data: data})
	}
}

// Handler returns the fully configured HTTP handler.
func (r *Router) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/health", r.handleHealth)
	mux.HandleFunc("GET /api/v1/resolve/album", r.handleResolveAlbum)
	mux.HandleFunc("GET /api/v1/resolve/track", r.handleResolveTrack)
	mux.HandleFunc("GET /api/v1/resolve/artist", r.handleResolveArtist)
	mux.HandleFunc("GET /api/v1/lyrics", r.handleLyrics)

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
