// Package watcher monitors library directories for new audio files and hands
// them to an enrichment handler. fsnotify covers filesystems that support
// change notification; a periodic poll covers those that do not.
package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dhowden/tag"
	"github.com/fsnotify/fsnotify"

	"github.com/sydlexius/driftwood/internal/event"
	"github.com/sydlexius/driftwood/internal/match"
	"github.com/sydlexius/driftwood/internal/resolve"
)

// audioExtensions lists the file types the watcher reacts to.
var audioExtensions = map[string]bool{
	".mp3":  true,
	".flac": true,
}

// Handler receives each newly discovered audio file.
type Handler func(ctx context.Context, path string, target resolve.Target)

// Config holds watcher settings.
type Config struct {
	Roots        []string
	Debounce     time.Duration
	PollInterval time.Duration
}

// Service watches library roots for new audio files.
type Service struct {
	cfg     Config
	handler Handler
	bus     *event.Bus
	logger  *slog.Logger

	mu        sync.Mutex
	pending   map[string]struct{}
	snapshots map[string]map[string]struct{} // root -> set of relative file paths
}

// NewService creates a filesystem watcher service.
func NewService(cfg Config, handler Handler, bus *event.Bus, logger *slog.Logger) *Service {
	if cfg.Debounce <= 0 {
		cfg.Debounce = time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cfg:       cfg,
		handler:   handler,
		bus:       bus,
		logger:    logger.With("component", "fs-watcher"),
		pending:   make(map[string]struct{}),
		snapshots: make(map[string]map[string]struct{}),
	}
}

// Start blocks until ctx is canceled. If fsnotify is unavailable the service
// still runs with poll-only support.
func (s *Service) Start(ctx context.Context) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		s.logger.Warn("fsnotify unavailable, running poll-only", "error", err)
	} else {
		defer w.Close() //nolint:errcheck
		s.addWatches(w)
	}

	s.initSnapshots()
	s.logger.Info("filesystem watcher starting", "roots", len(s.cfg.Roots))

	pollTicker := time.NewTicker(s.cfg.PollInterval)
	defer pollTicker.Stop()

	// Debounce timer coalesces bursts of creates into one processing pass.
	// Starts stopped; reset on each discovery.
	debounceTimer := time.NewTimer(0)
	if !debounceTimer.Stop() {
		<-debounceTimer.C
	}

	var eventCh <-chan fsnotify.Event
	var errCh <-chan error
	if w != nil {
		eventCh = w.Events
		errCh = w.Errors
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("filesystem watcher stopping")
			return

		case ev, ok := <-eventCh:
			if !ok {
				return
			}
			s.handleFSEvent(w, ev, debounceTimer)

		case err, ok := <-errCh:
			if !ok {
				return
			}
			s.logger.Error("fsnotify error", "error", err)

		case <-debounceTimer.C:
			s.processPending(ctx)

		case <-pollTicker.C:
			if s.pollRoots() {
				resetTimer(debounceTimer, s.cfg.Debounce)
			}
		}
	}
}

func (s *Service) handleFSEvent(w *fsnotify.Watcher, ev fsnotify.Event, debounceTimer *time.Timer) {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return
	}

	info, err := os.Stat(ev.Name)
	if err != nil {
		return
	}

	// New subdirectories get their own watch so nested drops are seen.
	if info.IsDir() {
		if ev.Has(fsnotify.Create) && w != nil {
			if err := w.Add(ev.Name); err != nil {
				s.logger.Warn("failed to watch new directory", "path", ev.Name, "error", err)
			}
		}
		return
	}

	if !IsAudioFile(ev.Name) {
		return
	}

	s.mu.Lock()
	_, queued := s.pending[ev.Name]
	s.pending[ev.Name] = struct{}{}
	s.mu.Unlock()

	if !queued {
		s.logger.Info("audio file discovered", "path", ev.Name)
	}
	resetTimer(debounceTimer, s.cfg.Debounce)
}

// processPending drains the pending set and runs the handler for each file.
func (s *Service) processPending(ctx context.Context) {
	s.mu.Lock()
	paths := make([]string, 0, len(s.pending))
	for p := range s.pending {
		paths = append(paths, p)
	}
	s.pending = make(map[string]struct{})
	s.mu.Unlock()

	for _, path := range paths {
		target := TargetForFile(path)
		if s.bus != nil {
			s.bus.Publish(event.Event{
				Type: event.FileDiscovered,
				Data: map[string]any{"path": path, "name": target.Name},
			})
		}
		if s.handler != nil {
			s.handler(ctx, path, target)
		}
	}
}

func (s *Service) addWatches(w *fsnotify.Watcher) {
	for _, root := range s.cfg.Roots {
		err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return nil //nolint:nilerr // skip unreadable entries
			}
			if d.IsDir() {
				if err := w.Add(path); err != nil {
					s.logger.Warn("failed to watch directory", "path", path, "error", err)
				}
			}
			return nil
		})
		if err != nil {
			s.logger.Warn("walking library root failed", "root", root, "error", err)
		}
	}
}

// initSnapshots records the current file sets so the first poll tick only
// reports actual changes.
func (s *Service) initSnapshots() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, root := range s.cfg.Roots {
		s.snapshots[root] = readFileSnapshot(root)
	}
}

// pollRoots diffs each root against its snapshot and queues new audio files.
// Returns true when anything was queued.
func (s *Service) pollRoots() bool {
	queued := false
	for _, root := range s.cfg.Roots {
		newSnap := readFileSnapshot(root)
		if newSnap == nil {
			continue
		}

		s.mu.Lock()
		oldSnap := s.snapshots[root]
		for rel := range newSnap {
			if _, existed := oldSnap[rel]; !existed {
				s.pending[filepath.Join(root, rel)] = struct{}{}
				queued = true
			}
		}
		s.snapshots[root] = newSnap
		s.mu.Unlock()
	}
	return queued
}

// readFileSnapshot walks root and returns the set of relative audio file
// paths, or nil when the root is unreadable.
func readFileSnapshot(root string) map[string]struct{} {
	snap := make(map[string]struct{})
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr
		}
		if d.IsDir() || !IsAudioFile(path) {
			return nil
		}
		if rel, err := filepath.Rel(root, path); err == nil {
			snap[rel] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil
	}
	return snap
}

// IsAudioFile reports whether path has a supported audio extension.
func IsAudioFile(path string) bool {
	return audioExtensions[strings.ToLower(filepath.Ext(path))]
}

// TargetForFile builds a resolution target for an audio file, preferring
// embedded tags and falling back to "Artist - Title" filename parsing.
func TargetForFile(path string) resolve.Target {
	if f, err := os.Open(path); err == nil {
		defer f.Close() //nolint:errcheck
		if m, err := tag.ReadFrom(f); err == nil && m.Title() != "" {
			return resolve.Target{
				Name:   m.Title(),
				Artist: match.CleanArtist(m.Artist()),
			}
		}
	}
	return targetFromFilename(path)
}

// targetFromFilename derives a target from an "Artist - Title" base name,
// or uses the whole base name as the title.
func targetFromFilename(path string) resolve.Target {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if artist, title, found := strings.Cut(base, " - "); found {
		return resolve.Target{
			Name:   strings.TrimSpace(title),
			Artist: match.CleanArtist(artist),
		}
	}
	return resolve.Target{Name: strings.TrimSpace(base)}
}

func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}
