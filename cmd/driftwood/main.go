package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sydlexius/driftwood/internal/api"
	"github.com/sydlexius/driftwood/internal/cache"
	"github.com/sydlexius/driftwood/internal/config"
	"github.com/sydlexius/driftwood/internal/database"
	"github.com/sydlexius/driftwood/internal/enricher"
	"github.com/sydlexius/driftwood/internal/event"
	"github.com/sydlexius/driftwood/internal/logging"
	"github.com/sydlexius/driftwood/internal/lyrics"
	"github.com/sydlexius/driftwood/internal/provider/netease"
	"github.com/sydlexius/driftwood/internal/resolve"
	"github.com/sydlexius/driftwood/internal/tagger"
	"github.com/sydlexius/driftwood/internal/version"
	"github.com/sydlexius/driftwood/internal/watcher"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	configPath := os.Getenv("DW_CONFIG_PATH")
	if configPath == "" {
		configPath = "/data/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Set up structured logging via the logging Manager
	logManager, logger := logging.NewManager(logging.Config{
		Level:          cfg.Logging.Level,
		Format:         cfg.Logging.Format,
		FilePath:       cfg.Logging.FilePath,
		FileMaxSizeMB:  cfg.Logging.FileMaxSizeMB,
		FileMaxFiles:   cfg.Logging.FileMaxFiles,
		FileMaxAgeDays: cfg.Logging.FileMaxAgeDays,
	})
	defer logManager.Close() //nolint:errcheck
	slog.SetDefault(logger)

	// Open database and run migrations
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("closing database", "error", err)
		}
	}()

	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	logger.Info("database ready", slog.String("path", cfg.Database.Path))

	// Graceful shutdown on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Response cache with a background purger
	store := cache.NewStore(db)
	go store.StartPurger(ctx, time.Duration(cfg.Cache.PurgeIntervalMinutes)*time.Minute,
		func(removed int64, err error) {
			if err != nil {
				logger.Error("cache purge failed", "error", err)
			} else if removed > 0 {
				logger.Debug("cache purged", "removed", removed)
			}
		})

	// Upstream catalog adapter
	catalog := netease.New(netease.Config{
		BaseURL:           cfg.NetEase.BaseURL,
		RequestsPerSecond: cfg.NetEase.RequestsPerSecond,
		Timeout:           time.Duration(cfg.NetEase.TimeoutSeconds) * time.Second,
		MetadataTTL:       time.Duration(cfg.Cache.MetadataTTLDays) * 24 * time.Hour,
		LyricsTTL:         time.Duration(cfg.Cache.LyricsTTLDays) * 24 * time.Hour,
	}, store, logger)

	// Resolution pipeline and services
	resolver := resolve.New(catalog, resolve.Config{
		SongMatchScore:     cfg.Resolver.SongMatchScore,
		FallbackMatchScore: cfg.Resolver.FallbackMatchScore,
		SongSearchLimit:    cfg.Resolver.SongSearchLimit,
		AlbumSearchLimit:   cfg.Resolver.AlbumSearchLimit,
	}, logger)
	lyricsService := lyrics.NewService(catalog, logger)

	// Event bus
	eventBus := event.NewBus(logger, 256)
	go eventBus.Start()
	defer eventBus.Stop()

	// Tag writer and enricher
	tagWriter := tagger.New(db, eventBus, logger, cfg.Tagging.MaxCoverEdge)
	enrich := enricher.New(resolver, lyricsService, tagWriter, eventBus, enricher.Config{
		WriteTags:   cfg.Tagging.WriteTags,
		FetchLyrics: cfg.Tagging.FetchLyrics,
		EmbedCovers: cfg.Tagging.EmbedCovers,
	}, logger)

	// Library watcher
	if cfg.Library.WatchEnabled {
		watchSvc := watcher.NewService(watcher.Config{
			Roots:        cfg.Library.Paths,
			PollInterval: time.Duration(cfg.Library.PollIntervalSeconds) * time.Second,
		}, func(ctx context.Context, path string, target resolve.Target) {
			if err := enrich.EnrichFile(ctx, path, target); err != nil {
				logger.Warn("enriching file failed", "path", path, "error", err)
			}
		}, eventBus, logger)
		go watchSvc.Start(ctx)
	}

	logger.Info("starting driftwood",
		slog.String("version", version.Version),
		slog.String("commit", version.Commit),
	)

	// HTTP server
	router := api.NewRouter(api.RouterDeps{
		Resolver: resolver,
		Lyrics:   lyricsService,
		Bus:      eventBus,
		Logger:   logger,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return nil
}
