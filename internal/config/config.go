// Package config loads application configuration from a YAML file with
// environment variable overrides. Environment variables take precedence.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	NetEase  NetEaseConfig  `yaml:"netease"`
	Resolver ResolverConfig `yaml:"resolver"`
	Cache    CacheConfig    `yaml:"cache"`
	Library  LibraryConfig  `yaml:"library"`
	Tagging  TaggingConfig  `yaml:"tagging"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// NetEaseConfig holds upstream catalog API settings.
type NetEaseConfig struct {
	BaseURL           string  `yaml:"base_url"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	TimeoutSeconds    int     `yaml:"timeout_s"`
}

// ResolverConfig holds match acceptance thresholds and search limits.
type ResolverConfig struct {
	SongMatchScore     float64 `yaml:"song_match_score"`
	FallbackMatchScore float64 `yaml:"fallback_match_score"`
	SongSearchLimit    int     `yaml:"song_search_limit"`
	AlbumSearchLimit   int     `yaml:"album_search_limit"`
}

// CacheConfig holds response cache TTLs.
type CacheConfig struct {
	MetadataTTLDays      int `yaml:"metadata_ttl_days"`
	LyricsTTLDays        int `yaml:"lyrics_ttl_days"`
	PurgeIntervalMinutes int `yaml:"purge_interval_m"`
}

// LibraryConfig holds music library watch settings.
type LibraryConfig struct {
	Paths               []string `yaml:"paths"`
	WatchEnabled        bool     `yaml:"watch_enabled"`
	PollIntervalSeconds int      `yaml:"poll_interval_s"`
}

// TaggingConfig holds tag-writing settings.
type TaggingConfig struct {
	WriteTags    bool `yaml:"write_tags"`
	FetchLyrics  bool `yaml:"fetch_lyrics"`
	EmbedCovers  bool `yaml:"embed_covers"`
	MaxCoverEdge int  `yaml:"max_cover_edge"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level          string `yaml:"level"`
	Format         string `yaml:"format"`
	FilePath       string `yaml:"file_path"`
	FileMaxSizeMB  int    `yaml:"file_max_size_mb"`
	FileMaxFiles   int    `yaml:"file_max_files"`
	FileMaxAgeDays int    `yaml:"file_max_age_days"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
		},
		Database: DatabaseConfig{
			Path: "/data/driftwood.db",
		},
		NetEase: NetEaseConfig{
			BaseURL:           "http://localhost:3000",
			RequestsPerSecond: 10,
			TimeoutSeconds:    5,
		},
		Resolver: ResolverConfig{
			SongMatchScore:     50,
			FallbackMatchScore: 30,
			SongSearchLimit:    20,
			AlbumSearchLimit:   10,
		},
		Cache: CacheConfig{
			MetadataTTLDays:      7,
			LyricsTTLDays:        14,
			PurgeIntervalMinutes: 60,
		},
		Library: LibraryConfig{
			Paths:               []string{"/music"},
			WatchEnabled:        false,
			PollIntervalSeconds: 60,
		},
		Tagging: TaggingConfig{
			WriteTags:    true,
			FetchLyrics:  true,
			EmbedCovers:  true,
			MaxCoverEdge: 1200,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads config from a YAML file (if it exists) and overrides with
// environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFromFile(path); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	cfg.loadFromEnv()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) loadFromEnv() {
	if v := os.Getenv("DW_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("DW_DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("DW_NETEASE_URL"); v != "" {
		c.NetEase.BaseURL = v
	}
	if v := os.Getenv("DW_MUSIC_PATH"); v != "" {
		c.Library.Paths = []string{v}
	}
	if v := os.Getenv("DW_WATCH_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Library.WatchEnabled = b
		}
	}
	if v := os.Getenv("DW_WRITE_TAGS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Tagging.WriteTags = b
		}
	}
	if v := os.Getenv("DW_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("DW_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}
	if c.NetEase.BaseURL == "" {
		return fmt.Errorf("netease base_url is required")
	}
	if c.Resolver.SongMatchScore < 0 || c.Resolver.SongMatchScore > 100 {
		return fmt.Errorf("song_match_score must be in [0, 100], got %v", c.Resolver.SongMatchScore)
	}
	if c.Resolver.FallbackMatchScore < 0 || c.Resolver.FallbackMatchScore > 100 {
		return fmt.Errorf("fallback_match_score must be in [0, 100], got %v", c.Resolver.FallbackMatchScore)
	}
	return nil
}
