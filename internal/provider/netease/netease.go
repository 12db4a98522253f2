// Package netease is the HTTP adapter for a self-hosted NetEase Cloud Music
// API. It performs rate-limited GET requests, maps transport conditions onto
// the shared error taxonomy, and optionally caches response bodies.
package netease

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/sydlexius/driftwood/internal/provider"
	"github.com/sydlexius/driftwood/internal/version"
)

// Search type discriminators used by the /search endpoint.
const (
	searchTypeSong   = "1"
	searchTypeAlbum  = "10"
	searchTypeArtist = "100"
)

// Backoff hints surfaced when the upstream does not say how long to wait.
const (
	defaultRateLimitBackoff   = 5 * time.Second
	defaultUnavailableBackoff = 10 * time.Second
)

const maxResponseBytes = 2 << 20

// Cache stores raw response bodies keyed by request URL. Implementations
// must be safe for concurrent use. A nil Cache disables caching.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, body []byte, ttl time.Duration) error
}

// Config holds adapter settings.
type Config struct {
	BaseURL           string
	RequestsPerSecond float64
	Timeout           time.Duration
	MetadataTTL       time.Duration // cache TTL for search and detail responses
	LyricsTTL         time.Duration // cache TTL for lyric responses
}

// Client is the NetEase API adapter.
type Client struct {
	client      *http.Client
	limiter     *rate.Limiter
	cache       Cache
	logger      *slog.Logger
	baseURL     string
	metadataTTL time.Duration
	lyricsTTL   time.Duration
}

// New creates a NetEase adapter. cache may be nil.
func New(cfg Config, cache Cache, logger *slog.Logger) *Client {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 10
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		client:      &http.Client{Timeout: timeout},
		limiter:     rate.NewLimiter(rate.Limit(rps), 1),
		cache:       cache,
		logger:      logger.With(slog.String("provider", string(provider.NameNetEase))),
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		metadataTTL: cfg.MetadataTTL,
		lyricsTTL:   cfg.LyricsTTL,
	}
}

// SearchSongs searches the catalog for tracks (type=1).
func (c *Client) SearchSongs(ctx context.Context, keywords string, limit int) ([]Song, error) {
	resp, err := c.search(ctx, keywords, searchTypeSong, limit)
	if err != nil || resp == nil {
		return nil, err
	}
	return resp.Result.Songs, nil
}

// SearchAlbums searches the catalog for albums (type=10).
func (c *Client) SearchAlbums(ctx context.Context, keywords string, limit int) ([]Album, error) {
	resp, err := c.search(ctx, keywords, searchTypeAlbum, limit)
	if err != nil || resp == nil {
		return nil, err
	}
	return resp.Result.Albums, nil
}

// SearchArtists searches the catalog for artists (type=100).
func (c *Client) SearchArtists(ctx context.Context, keywords string, limit int) ([]Artist, error) {
	resp, err := c.search(ctx, keywords, searchTypeArtist, limit)
	if err != nil || resp == nil {
		return nil, err
	}
	return resp.Result.Artists, nil
}

func (c *Client) search(ctx context.Context, keywords, searchType string, limit int) (*searchResponse, error) {
	if strings.TrimSpace(keywords) == "" {
		return nil, nil
	}
	params := url.Values{
		"keywords": {keywords},
		"type":     {searchType},
		"limit":    {strconv.Itoa(limit)},
	}
	body, err := c.get(ctx, "search", params, c.metadataTTL)
	if err != nil || body == nil {
		return nil, err
	}
	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing search response: %w", err)
	}
	return &resp, nil
}

// AlbumDetail fetches the full album record. Returns ErrNotFound when the
// catalog has no usable payload for the id; callers treat that as
// enrichment-only and fall back to the record they already hold.
func (c *Client) AlbumDetail(ctx context.Context, id int64) (*Album, error) {
	params := url.Values{"id": {strconv.FormatInt(id, 10)}}
	body, err := c.get(ctx, "album/detail", params, c.metadataTTL)
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, notFound(id)
	}
	var resp albumDetailResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing album detail: %w", err)
	}
	if resp.Album == nil {
		return nil, notFound(id)
	}
	return resp.Album, nil
}

// ArtistDetail fetches the full artist record. Returns ErrNotFound when the
// catalog has no usable payload for the id.
func (c *Client) ArtistDetail(ctx context.Context, id int64) (*ArtistDetail, error) {
	params := url.Values{"id": {strconv.FormatInt(id, 10)}}
	body, err := c.get(ctx, "artist/detail", params, c.metadataTTL)
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, notFound(id)
	}
	var resp artistDetailResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing artist detail: %w", err)
	}
	if (resp.Code != 0 && resp.Code != 200) || resp.Data.Artist == nil {
		return nil, notFound(id)
	}
	return resp.Data.Artist, nil
}

// SongDetail fetches the full track record by id. Returns ErrNotFound when
// the catalog has no record for it.
func (c *Client) SongDetail(ctx context.Context, id int64) (*Song, error) {
	params := url.Values{"ids": {strconv.FormatInt(id, 10)}}
	body, err := c.get(ctx, "song/detail", params, c.metadataTTL)
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, notFound(id)
	}
	var resp songDetailResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing song detail: %w", err)
	}
	if len(resp.Songs) == 0 {
		return nil, notFound(id)
	}
	return &resp.Songs[0], nil
}

func notFound(id int64) error {
	return &provider.ErrNotFound{
		Provider: provider.NameNetEase,
		ID:       strconv.FormatInt(id, 10),
	}
}

// Lyric fetches the raw synced lyric body for a song id. The lv/kv/tv
// parameters request every lyric variant the catalog has.
func (c *Client) Lyric(ctx context.Context, songID int64) (string, error) {
	params := url.Values{
		"id": {strconv.FormatInt(songID, 10)},
		"lv": {"-1"},
		"kv": {"-1"},
		"tv": {"-1"},
	}
	body, err := c.get(ctx, "lyric", params, c.lyricsTTL)
	if err != nil || body == nil {
		return "", err
	}
	var resp lyricResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("parsing lyric response: %w", err)
	}
	return resp.Lrc.Lyric, nil
}

// get executes a rate-limited GET against the API, consulting the cache
// first. 400/401/404 yield (nil, nil); 429 and 502/503 yield ErrUnavailable
// with a backoff hint; other non-200 statuses yield ErrUnavailable.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, ttl time.Duration) ([]byte, error) {
	reqURL := c.baseURL + "/" + endpoint + "?" + params.Encode()

	if c.cache != nil && ttl > 0 {
		body, ok, err := c.cache.Get(ctx, reqURL)
		if err != nil {
			c.logger.Warn("cache read failed", slog.String("key", reqURL), slog.Any("error", err))
		} else if ok {
			return body, nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &provider.ErrUnavailable{
			Provider: provider.NameNetEase,
			Cause:    fmt.Errorf("rate limiter: %w", err),
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent())
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("requesting", slog.String("url", reqURL))

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &provider.ErrUnavailable{
			Provider: provider.NameNetEase,
			Cause:    err,
		}
	}
	defer resp.Body.Close() //nolint:errcheck

	switch resp.StatusCode {
	case http.StatusOK:
		// fall through to body read

	case http.StatusTooManyRequests:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &provider.ErrUnavailable{
			Provider:   provider.NameNetEase,
			Cause:      fmt.Errorf("HTTP %d", resp.StatusCode),
			RetryAfter: retryAfter(resp.Header, defaultRateLimitBackoff),
		}

	case http.StatusBadGateway, http.StatusServiceUnavailable:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &provider.ErrUnavailable{
			Provider:   provider.NameNetEase,
			Cause:      fmt.Errorf("HTTP %d", resp.StatusCode),
			RetryAfter: defaultUnavailableBackoff,
		}

	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, nil

	default:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &provider.ErrUnavailable{
			Provider: provider.NameNetEase,
			Cause:    fmt.Errorf("unexpected HTTP %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &provider.ErrUnavailable{
			Provider: provider.NameNetEase,
			Cause:    fmt.Errorf("reading body: %w", err),
		}
	}

	if c.cache != nil && ttl > 0 {
		if err := c.cache.Put(ctx, reqURL, body, ttl); err != nil {
			c.logger.Warn("cache write failed", slog.String("key", reqURL), slog.Any("error", err))
		}
	}

	return body, nil
}

// retryAfter parses a Retry-After header given in seconds, falling back to
// the provided default.
func retryAfter(h http.Header, fallback time.Duration) time.Duration {
	v := h.Get("Retry-After")
	if v == "" {
		return fallback
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return fallback
	}
	return time.Duration(secs) * time.Second
}

func userAgent() string {
	return fmt.Sprintf("Driftwood/%s (https://github.com/sydlexius/driftwood)", version.Version)
}
