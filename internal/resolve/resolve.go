// Package resolve picks the correct remote catalog record for a local album,
// track, or artist. Album resolution runs a multi-strategy scored pipeline;
// track and artist resolution trust the catalog's own relevance ranking.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sydlexius/driftwood/internal/match"
	"github.com/sydlexius/driftwood/internal/provider"
	"github.com/sydlexius/driftwood/internal/provider/netease"
)

// Default acceptance thresholds and search limits. The thresholds are
// empirical: 50 accepts a song-derived album immediately, 30 is the floor
// for direct album-search fallback candidates.
const (
	DefaultSongMatchScore     = 50
	DefaultFallbackMatchScore = 30
	DefaultSongSearchLimit    = 20
	DefaultAlbumSearchLimit   = 10
)

// Catalog is the slice of the upstream client the resolver needs. All lookup
// failures other than transient unavailability degrade to no-match.
type Catalog interface {
	SearchSongs(ctx context.Context, keywords string, limit int) ([]netease.Song, error)
	SearchAlbums(ctx context.Context, keywords string, limit int) ([]netease.Album, error)
	SearchArtists(ctx context.Context, keywords string, limit int) ([]netease.Artist, error)
	AlbumDetail(ctx context.Context, id int64) (*netease.Album, error)
	SongDetail(ctx context.Context, id int64) (*netease.Song, error)
	ArtistDetail(ctx context.Context, id int64) (*netease.ArtistDetail, error)
}

// Config holds resolver tuning. Zero values take the defaults above.
type Config struct {
	SongMatchScore     float64
	FallbackMatchScore float64
	SongSearchLimit    int
	AlbumSearchLimit   int
}

func (c Config) withDefaults() Config {
	if c.SongMatchScore <= 0 {
		c.SongMatchScore = DefaultSongMatchScore
	}
	if c.FallbackMatchScore <= 0 {
		c.FallbackMatchScore = DefaultFallbackMatchScore
	}
	if c.SongSearchLimit <= 0 {
		c.SongSearchLimit = DefaultSongSearchLimit
	}
	if c.AlbumSearchLimit <= 0 {
		c.AlbumSearchLimit = DefaultAlbumSearchLimit
	}
	return c
}

// Target is the local entity being resolved. It is immutable for the
// duration of one resolution.
type Target struct {
	Name       string
	Artist     string
	ExternalID string
}

// ArtistMatch pairs the artist search hit with its optional detail record.
// Detail may be nil; its absence never invalidates the match.
type ArtistMatch struct {
	Artist netease.Artist
	Detail *netease.ArtistDetail
}

// Resolver runs resolution pipelines against a catalog. It holds no mutable
// state; concurrent resolutions are independent.
type Resolver struct {
	catalog Catalog
	cfg     Config
	logger  *slog.Logger
}

// New creates a resolver.
func New(catalog Catalog, cfg Config, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{catalog: catalog, cfg: cfg.withDefaults(), logger: logger}
}

// transient reports whether err is an upstream retry-later signal. Those
// propagate unmodified; everything else degrades to no-match.
func transient(err error) bool {
	var ua *provider.ErrUnavailable
	return errors.As(err, &ua)
}

// buildStrategies constructs the ordered, de-duplicated search keyword list
// for a target: "{title} {artist}" when a usable artist credit exists, the
// bare title, and the simplified title with a soundtrack suffix.
func buildStrategies(target Target) []string {
	title := strings.TrimSpace(target.Name)
	artist := match.CleanArtist(target.Artist)
	simplified, _ := match.SimplifyTitle(title)

	var raw []string
	if artist != "" && !strings.Contains(artist, match.VariousArtistsMarker) {
		raw = append(raw, strings.TrimSpace(title+" "+artist))
	}
	raw = append(raw, title)
	if simplified != "" {
		raw = append(raw, simplified+" "+match.SoundtrackSearchSuffix)
	}

	seen := make(map[string]struct{}, len(raw))
	var strategies []string
	for _, s := range raw {
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		strategies = append(strategies, s)
	}
	return strategies
}

// scored pairs a candidate album with its match score.
type scored struct {
	album netease.Album
	score float64
}

func (r *Resolver) scoreAlbum(target Target, album netease.Album) float64 {
	return match.Score(target.Name, album.Name, match.CleanArtist(target.Artist), album.ArtistName())
}

// ResolveAlbum resolves an album. A nil result with a nil error means no
// confident match was found; only transient upstream errors are returned.
func (r *Resolver) ResolveAlbum(ctx context.Context, target Target) (*netease.Album, error) {
	strategies := buildStrategies(target)
	if len(strategies) == 0 {
		return nil, nil
	}

	// Preferred path: derive album candidates from track search results,
	// which carry an embedded album reference per hit.
	for _, keyword := range strategies {
		songs, err := r.catalog.SearchSongs(ctx, keyword, r.cfg.SongSearchLimit)
		if err != nil {
			if transient(err) {
				return nil, err
			}
			r.logger.Debug("song search failed", "keyword", keyword, "error", err)
			continue
		}

		best, ok := r.bestEmbeddedAlbum(target, songs)
		if !ok || best.score < r.cfg.SongMatchScore {
			continue
		}
		r.logger.Debug("album accepted from song results",
			"album", best.album.Name, "id", best.album.ID, "score", best.score, "keyword", keyword)
		return r.albumWithDetail(ctx, best.album)
	}

	// Fallback path: direct album search, first strategy with any results
	// wins the candidate set; one bare-title retry before giving up.
	candidates, err := r.directAlbumSearch(ctx, strategies, target)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	var best scored
	for _, album := range candidates {
		if s := r.scoreAlbum(target, album); s > best.score {
			best = scored{album: album, score: s}
		}
	}
	if best.score < r.cfg.FallbackMatchScore {
		r.logger.Debug("no confident album match",
			"target", target.Name, "best", best.album.Name, "score", best.score)
		return nil, nil
	}
	r.logger.Debug("album accepted from album search",
		"album", best.album.Name, "id", best.album.ID, "score", best.score)
	return r.albumWithDetail(ctx, best.album)
}

// bestEmbeddedAlbum scores the distinct albums embedded in song results and
// returns the highest scorer. Candidates are scored in first-seen order and
// ties keep the earlier hit, so a given result set always resolves the same
// way and the upstream relevance ranking breaks ties.
func (r *Resolver) bestEmbeddedAlbum(target Target, songs []netease.Song) (scored, bool) {
	seen := make(map[int64]struct{})
	var candidates []netease.Album
	for _, song := range songs {
		ref := song.AlbumRef()
		if ref == nil || ref.ID == 0 {
			continue
		}
		if _, dup := seen[ref.ID]; dup {
			continue
		}
		seen[ref.ID] = struct{}{}
		candidates = append(candidates, *ref)
	}

	var best scored
	var found bool
	for _, album := range candidates {
		s := r.scoreAlbum(target, album)
		if !found || s > best.score {
			best = scored{album: album, score: s}
			found = true
		}
	}
	return best, found
}

// directAlbumSearch tries each strategy until one returns album results,
// then retries once with the bare title. Only transient errors surface.
func (r *Resolver) directAlbumSearch(ctx context.Context, strategies []string, target Target) ([]netease.Album, error) {
	for _, keyword := range strategies {
		albums, err := r.catalog.SearchAlbums(ctx, keyword, r.cfg.AlbumSearchLimit)
		if err != nil {
			if transient(err) {
				return nil, err
			}
			r.logger.Debug("album search failed", "keyword", keyword, "error", err)
			continue
		}
		if len(albums) > 0 {
			return albums, nil
		}
	}

	title := strings.TrimSpace(target.Name)
	if title == "" {
		return nil, nil
	}
	albums, err := r.catalog.SearchAlbums(ctx, title, r.cfg.AlbumSearchLimit)
	if err != nil {
		if transient(err) {
			return nil, err
		}
		r.logger.Debug("bare-title album search failed", "keyword", title, "error", err)
		return nil, nil
	}
	return albums, nil
}

// albumWithDetail upgrades an accepted summary record to its full detail
// record. A failed or empty detail fetch falls back to the summary; only a
// transient error aborts.
func (r *Resolver) albumWithDetail(ctx context.Context, summary netease.Album) (*netease.Album, error) {
	detail, err := r.catalog.AlbumDetail(ctx, summary.ID)
	if err != nil {
		if transient(err) {
			return nil, err
		}
		r.logger.Debug("album detail fetch failed", "id", summary.ID, "error", err)
		return &summary, nil
	}
	if detail == nil {
		return &summary, nil
	}
	return detail, nil
}

// ResolveTrack resolves a track with a single combined-keyword search. The
// catalog's relevance ranking is trusted directly: the first hit wins, then
// gets upgraded to its full detail record when one is available.
func (r *Resolver) ResolveTrack(ctx context.Context, target Target) (*netease.Song, error) {
	keyword := strings.TrimSpace(strings.TrimSpace(target.Name) + " " + match.CleanArtist(target.Artist))
	if keyword == "" {
		return nil, nil
	}
	songs, err := r.catalog.SearchSongs(ctx, keyword, 1)
	if err != nil {
		if transient(err) {
			return nil, err
		}
		r.logger.Debug("track search failed", "keyword", keyword, "error", err)
		return nil, nil
	}
	if len(songs) == 0 {
		return nil, nil
	}
	return r.songWithDetail(ctx, songs[0])
}

// songWithDetail upgrades an accepted search hit to its full detail record.
// A failed or empty detail fetch falls back to the summary; only a transient
// error aborts.
func (r *Resolver) songWithDetail(ctx context.Context, summary netease.Song) (*netease.Song, error) {
	detail, err := r.catalog.SongDetail(ctx, summary.ID)
	if err != nil {
		if transient(err) {
			return nil, err
		}
		r.logger.Debug("song detail fetch failed", "id", summary.ID, "error", err)
		return &summary, nil
	}
	if detail == nil {
		return &summary, nil
	}
	return detail, nil
}

// ResolveArtist resolves an artist by cleaned name, trusting the first hit.
// The detail fetch is enrichment only: its failure never invalidates the
// primary match.
func (r *Resolver) ResolveArtist(ctx context.Context, name string) (*ArtistMatch, error) {
	cleaned := match.CleanArtist(name)
	if cleaned == "" {
		return nil, nil
	}
	artists, err := r.catalog.SearchArtists(ctx, cleaned, 1)
	if err != nil {
		if transient(err) {
			return nil, err
		}
		r.logger.Debug("artist search failed", "keyword", cleaned, "error", err)
		return nil, nil
	}
	if len(artists) == 0 {
		return nil, nil
	}

	result := &ArtistMatch{Artist: artists[0]}
	detail, err := r.catalog.ArtistDetail(ctx, artists[0].ID)
	if err != nil {
		r.logger.Debug("artist detail fetch failed", "id", artists[0].ID, "error", err)
		return result, nil
	}
	result.Detail = detail
	return result, nil
}

// ResolveAlbumTracks fetches the track list keyword by album and artist,
// convenience for callers enriching a whole release.
func (r *Resolver) ResolveAlbumTracks(ctx context.Context, album *netease.Album) ([]netease.Song, error) {
	if album == nil {
		return nil, nil
	}
	keyword := strings.TrimSpace(album.Name + " " + match.CleanArtist(album.ArtistName()))
	if keyword == "" {
		return nil, nil
	}
	songs, err := r.catalog.SearchSongs(ctx, keyword, r.cfg.SongSearchLimit)
	if err != nil {
		if transient(err) {
			return nil, err
		}
		return nil, nil
	}
	var tracks []netease.Song
	for _, song := range songs {
		ref := song.AlbumRef()
		if ref != nil && ref.ID == album.ID {
			tracks = append(tracks, song)
		}
	}
	return tracks, nil
}

// String implements fmt.Stringer for logging.
func (t Target) String() string {
	if t.Artist == "" {
		return t.Name
	}
	return fmt.Sprintf("%s - %s", t.Name, t.Artist)
}
