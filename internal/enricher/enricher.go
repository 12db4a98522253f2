// Package enricher turns resolved catalog records into local metadata:
// building display metadata from album, track, and artist records, and
// driving the post-resolution side effects (lyrics lookup, tag writing) for
// library files.
package enricher

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sydlexius/driftwood/internal/event"
	"github.com/sydlexius/driftwood/internal/lyrics"
	"github.com/sydlexius/driftwood/internal/provider/netease"
	"github.com/sydlexius/driftwood/internal/resolve"
	"github.com/sydlexius/driftwood/internal/tagger"
)

// Metadata is the provider-neutral record produced from a resolved entity.
type Metadata struct {
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	Genres        []string `json:"genres,omitempty"`
	ImageURL      string   `json:"image_url,omitempty"`
	Year          int      `json:"year,omitempty"`
	Lyrics        string   `json:"lyrics,omitempty"`
	MusicBrainzID string   `json:"musicbrainz_id,omitempty"`
}

// AlbumMetadata builds metadata from an album record. The release year is
// derived from the publish timestamp, which the catalog reports in unix
// milliseconds.
func AlbumMetadata(album *netease.Album) Metadata {
	if album == nil {
		return Metadata{}
	}
	m := Metadata{
		Name:          album.Name,
		Description:   album.Description,
		ImageURL:      album.PicURL,
		MusicBrainzID: album.MusicBrainzID,
	}
	if album.Genre != "" {
		m.Genres = []string{album.Genre}
	}
	if album.PublishTime > 0 {
		m.Year = time.UnixMilli(album.PublishTime).UTC().Year()
	}
	if m.MusicBrainzID == "" {
		m.MusicBrainzID = PlaceholderID(album.Name)
	}
	return m
}

// TrackMetadata builds metadata from a track record.
func TrackMetadata(song *netease.Song) Metadata {
	if song == nil {
		return Metadata{}
	}
	m := Metadata{
		Name:        song.Name,
		Description: song.Description,
		Lyrics:      song.Lyric,
	}
	if song.Genre != "" {
		m.Genres = []string{song.Genre}
	}
	if album := song.AlbumRef(); album != nil {
		m.ImageURL = album.PicURL
		if album.PublishTime > 0 {
			m.Year = time.UnixMilli(album.PublishTime).UTC().Year()
		}
	}
	m.MusicBrainzID = PlaceholderID(song.Name)
	return m
}

// ArtistMetadata builds metadata from an artist match, preferring the detail
// record's fields when present.
func ArtistMetadata(match *resolve.ArtistMatch) Metadata {
	if match == nil {
		return Metadata{}
	}
	m := Metadata{
		Name:          match.Artist.Name,
		Description:   match.Artist.BriefDesc,
		ImageURL:      match.Artist.PicURL,
		MusicBrainzID: match.Artist.MusicBrainzID,
	}
	if match.Artist.Genre != "" {
		m.Genres = []string{match.Artist.Genre}
	}
	if d := match.Detail; d != nil {
		if d.BriefDesc != "" {
			m.Description = d.BriefDesc
		}
		if d.Cover != "" {
			m.ImageURL = d.Cover
		} else if d.Avatar != "" {
			m.ImageURL = d.Avatar
		}
		if d.MusicBrainzID != "" {
			m.MusicBrainzID = d.MusicBrainzID
		}
	}
	if m.MusicBrainzID == "" {
		m.MusicBrainzID = PlaceholderID(match.Artist.Name)
	}
	return m
}

// PlaceholderID derives a stable UUID-shaped identifier for an entity the
// catalog does not map to MusicBrainz, so hosts expecting MusicBrainz-shaped
// ids accept the record and repeated lookups agree on the same id.
func PlaceholderID(name string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("netease_"+name)).String()
}

// Config toggles the enricher's side effects.
type Config struct {
	WriteTags   bool
	FetchLyrics bool
	EmbedCovers bool
}

// Enricher resolves library files and applies post-resolution side effects.
type Enricher struct {
	resolver *resolve.Resolver
	lyrics   *lyrics.Service
	tagger   *tagger.Tagger
	bus      *event.Bus
	logger   *slog.Logger
	cfg      Config
}

// New creates an enricher. lyricsSvc and tagWriter may be nil when the
// corresponding toggle is off.
func New(resolver *resolve.Resolver, lyricsSvc *lyrics.Service, tagWriter *tagger.Tagger, bus *event.Bus, cfg Config, logger *slog.Logger) *Enricher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Enricher{
		resolver: resolver,
		lyrics:   lyricsSvc,
		tagger:   tagWriter,
		bus:      bus,
		logger:   logger,
		cfg:      cfg,
	}
}

// EnrichFile resolves the track described by target and writes the result
// into the file at path. A failed resolution publishes match.failed and
// returns nil; only transient upstream errors surface.
func (e *Enricher) EnrichFile(ctx context.Context, path string, target resolve.Target) error {
	song, err := e.resolver.ResolveTrack(ctx, target)
	if err != nil {
		return err
	}
	if song == nil {
		e.logger.Info("no match for file", "path", path, "target", target.String())
		e.publish(event.MatchFailed, map[string]any{
			"path":           path,
			"name":           target.Name,
			"placeholder_id": PlaceholderID(target.Name),
		})
		return nil
	}
	e.publish(event.TrackResolved, map[string]any{"path": path, "song_id": song.ID, "name": song.Name})

	var lrc string
	if e.cfg.FetchLyrics && e.lyrics != nil {
		lrc, err = e.lyrics.Lookup(ctx, song.Name, song.ArtistName())
		if err != nil {
			return err
		}
		if lrc != "" {
			e.publish(event.LyricsFetched, map[string]any{"path": path, "song_id": song.ID})
		}
	}

	if !e.cfg.WriteTags || e.tagger == nil {
		return nil
	}

	tags := tagger.Tags{
		Title:  song.Name,
		Artist: song.ArtistName(),
		Lyrics: lrc,
	}
	if album := song.AlbumRef(); album != nil {
		tags.Album = album.Name
		tags.AlbumArtist = album.ArtistName()
		tags.Genre = album.Genre
		if album.PublishTime > 0 {
			tags.Year = time.UnixMilli(album.PublishTime).UTC().Year()
		}
		if e.cfg.EmbedCovers {
			tags.CoverURL = album.PicURL
		}
	}

	if err := e.tagger.WriteFile(ctx, path, tags); err != nil {
		// Tag writes are fire-and-forget relative to resolution.
		e.logger.Warn("tag write failed", "path", path, "error", err)
	}
	return nil
}

func (e *Enricher) publish(t event.Type, data map[string]any) {
	if e.bus != nil {
		e.bus.Publish(event.Event{Type: t, Data: data})
	}
}
