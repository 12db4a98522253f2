// Package lyrics fetches synchronized lyrics from the upstream catalog and
// normalizes them to a uniform LRC shape: metadata header lines removed and
// every timestamp carrying an explicit millisecond component.
package lyrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/sydlexius/driftwood/internal/match"
	"github.com/sydlexius/driftwood/internal/provider"
	"github.com/sydlexius/driftwood/internal/provider/netease"
)

// headerPattern matches LRC metadata lines such as [ti:...], [ar:...].
var headerPattern = regexp.MustCompile(`^\[(ti|ar|al|au|by|offset|re|ve):`)

// timedPattern matches a timestamp that already carries milliseconds.
var timedPattern = regexp.MustCompile(`^\[(\d{1,2}):(\d{2})\.(\d{2,3})\]`)

// barePattern matches a timestamp without milliseconds. Whether the next
// character is a dot is checked separately, since that would mean the
// millisecond part simply has not been consumed yet.
var barePattern = regexp.MustCompile(`^\[(\d{1,2}):(\d{2})\]`)

// Normalize rewrites raw LRC text so every retained line starts with a
// [mm:ss.mmm] timestamp. Metadata headers are dropped, bare [mm:ss] stamps
// gain a .000 millisecond part, and anything unrecognized is discarded.
// Normalizing already-normal text is a no-op.
func Normalize(raw string) string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if headerPattern.MatchString(trimmed) {
			continue
		}
		if timedPattern.MatchString(trimmed) {
			out = append(out, trimmed)
			continue
		}
		if loc := barePattern.FindStringSubmatchIndex(trimmed); loc != nil {
			// A dot right after the stamp means milliseconds follow in a
			// form timedPattern did not accept; skip rather than guess.
			if loc[1] < len(trimmed) && trimmed[loc[1]] == '.' {
				continue
			}
			mm := trimmed[loc[2]:loc[3]]
			ss := trimmed[loc[4]:loc[5]]
			text := strings.TrimSpace(trimmed[loc[1]:])
			out = append(out, fmt.Sprintf("[%s:%s.000] %s", mm, ss, text))
		}
	}
	return strings.Join(out, "\n")
}

// Catalog is the slice of the upstream client the service needs.
type Catalog interface {
	SearchSongs(ctx context.Context, keywords string, limit int) ([]netease.Song, error)
	Lyric(ctx context.Context, songID int64) (string, error)
}

// Service looks up lyrics by track title and artist.
type Service struct {
	catalog Catalog
	logger  *slog.Logger
}

// NewService creates a lyrics service.
func NewService(catalog Catalog, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{catalog: catalog, logger: logger}
}

// searchLimit caps how many candidates a lyrics search pulls back. Only the
// first is used; the wider net keeps the upstream from returning nothing on
// near-miss keywords.
const searchLimit = 10

// Lookup searches for the track and returns its normalized lyrics. A track
// with no lyric body, no search hit at all, or an unparseable upstream
// response returns "" with a nil error; only transient unavailability
// surfaces as an error.
func (s *Service) Lookup(ctx context.Context, title, artist string) (string, error) {
	_, core := match.SimplifyTitle(title)
	keyword := strings.TrimSpace(core + " " + match.CleanArtist(artist))
	if keyword == "" {
		return "", nil
	}

	songs, err := s.catalog.SearchSongs(ctx, keyword, searchLimit)
	if err != nil {
		if transient(err) {
			return "", fmt.Errorf("searching songs for lyrics: %w", err)
		}
		s.logger.Debug("lyrics search failed", "keyword", keyword, "error", err)
		return "", nil
	}
	if len(songs) == 0 {
		s.logger.Debug("no lyrics candidates", "title", title, "artist", artist)
		return "", nil
	}

	raw, err := s.catalog.Lyric(ctx, songs[0].ID)
	if err != nil {
		if transient(err) {
			return "", fmt.Errorf("fetching lyric for song %d: %w", songs[0].ID, err)
		}
		s.logger.Debug("lyric fetch failed", "song_id", songs[0].ID, "error", err)
		return "", nil
	}
	return Normalize(raw), nil
}

// transient reports whether err is an upstream retry-later signal. Anything
// else degrades to no lyrics.
func transient(err error) bool {
	var ua *provider.ErrUnavailable
	return errors.As(err, &ua)
}
