package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/sydlexius/driftwood/internal/enricher"
	"github.com/sydlexius/driftwood/internal/event"
	"github.com/sydlexius/driftwood/internal/provider"
	"github.com/sydlexius/driftwood/internal/resolve"
	"github.com/sydlexius/driftwood/internal/version"
)

func (r *Router) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.Version,
		"commit":  version.Commit,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// albumResponse is the resolved-album payload.
type albumResponse struct {
	ID       int64             `json:"id"`
	Metadata enricher.Metadata `json:"metadata"`
}

type trackResponse struct {
	ID       int64             `json:"id"`
	Artist   string            `json:"artist,omitempty"`
	Album    string            `json:"album,omitempty"`
	Metadata enricher.Metadata `json:"metadata"`
}

type artistResponse struct {
	ID       int64             `json:"id"`
	Metadata enricher.Metadata `json:"metadata"`
}

func (r *Router) handleResolveAlbum(w http.ResponseWriter, req *http.Request) {
	target, ok := targetFromQuery(w, req)
	if !ok {
		return
	}

	album, err := r.resolver.ResolveAlbum(req.Context(), target)
	if err != nil {
		r.writeUpstreamError(w, err)
		return
	}
	if album == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no confident match"})
		return
	}

	r.publish(event.AlbumResolved, map[string]any{"id": album.ID, "name": album.Name})
	writeJSON(w, http.StatusOK, albumResponse{
		ID:       album.ID,
		Metadata: enricher.AlbumMetadata(album),
	})
}

func (r *Router) handleResolveTrack(w http.ResponseWriter, req *http.Request) {
	target, ok := targetFromQuery(w, req)
	if !ok {
		return
	}

	song, err := r.resolver.ResolveTrack(req.Context(), target)
	if err != nil {
		r.writeUpstreamError(w, err)
		return
	}
	if song == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no match"})
		return
	}

	resp := trackResponse{
		ID:       song.ID,
		Artist:   song.ArtistName(),
		Metadata: enricher.TrackMetadata(song),
	}
	if album := song.AlbumRef(); album != nil {
		resp.Album = album.Name
	}
	writeJSON(w, http.StatusOK, resp)
}

func (r *Router) handleResolveArtist(w http.ResponseWriter, req *http.Request) {
	name := req.URL.Query().Get("name")
	if name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	match, err := r.resolver.ResolveArtist(req.Context(), name)
	if err != nil {
		r.writeUpstreamError(w, err)
		return
	}
	if match == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no match"})
		return
	}

	r.publish(event.ArtistResolved, map[string]any{"id": match.Artist.ID, "name": match.Artist.Name})
	writeJSON(w, http.StatusOK, artistResponse{
		ID:       match.Artist.ID,
		Metadata: enricher.ArtistMetadata(match),
	})
}

func (r *Router) handleLyrics(w http.ResponseWriter, req *http.Request) {
	title := req.URL.Query().Get("title")
	if title == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "title is required"})
		return
	}
	artist := req.URL.Query().Get("artist")

	lrc, err := r.lyrics.Lookup(req.Context(), title, artist)
	if err != nil {
		r.writeUpstreamError(w, err)
		return
	}
	if lrc == "" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no lyrics found"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"lyrics": lrc})
}

func targetFromQuery(w http.ResponseWriter, req *http.Request) (resolve.Target, bool) {
	q := req.URL.Query()
	target := resolve.Target{
		Name:   q.Get("name"),
		Artist: q.Get("artist"),
	}
	if target.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return resolve.Target{}, false
	}
	return target, true
}

// writeUpstreamError maps a transient upstream failure to 503 with a
// Retry-After hint; anything else is an internal error.
func (r *Router) writeUpstreamError(w http.ResponseWriter, err error) {
	var ua *provider.ErrUnavailable
	if errors.As(err, &ua) {
		if ua.RetryAfter > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(ua.RetryAfter.Seconds())))
		}
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "upstream temporarily unavailable"})
		return
	}
	r.logger.Error("resolution failed", "error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}
