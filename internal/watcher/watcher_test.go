package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sydlexius/driftwood/internal/resolve"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestIsAudioFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/music/song.mp3", true},
		{"/music/song.FLAC", true},
		{"/music/cover.jpg", false},
		{"/music/notes.txt", false},
		{"/music/noext", false},
	}
	for _, tt := range tests {
		if got := IsAudioFile(tt.path); got != tt.want {
			t.Errorf("IsAudioFile(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestTargetFromFilename(t *testing.T) {
	tests := []struct {
		path       string
		wantName   string
		wantArtist string
	}{
		{"/music/刘涛 - 红颜旧.mp3", "红颜旧", "刘涛"},
		{"/music/刘涛, 胡歌 - 红颜旧.flac", "红颜旧", "刘涛"},
		{"/music/红颜旧.mp3", "红颜旧", ""},
	}
	for _, tt := range tests {
		got := targetFromFilename(tt.path)
		if got.Name != tt.wantName || got.Artist != tt.wantArtist {
			t.Errorf("targetFromFilename(%q) = %+v, want name %q artist %q",
				tt.path, got, tt.wantName, tt.wantArtist)
		}
	}
}

func TestTargetForFileUntagged(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ArtistA - Some Song.mp3")
	if err := os.WriteFile(path, []byte("not a real mp3"), 0o644); err != nil {
		t.Fatal(err)
	}

	got := TargetForFile(path)
	if got.Name != "Some Song" || got.Artist != "ArtistA" {
		t.Errorf("TargetForFile = %+v", got)
	}
}

func TestPollRootsDetectsNewFiles(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(Config{Roots: []string{dir}}, nil, nil, testLogger())
	svc.initSnapshots()

	if svc.pollRoots() {
		t.Fatal("no changes expected on first poll")
	}

	if err := os.WriteFile(filepath.Join(dir, "new.mp3"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if !svc.pollRoots() {
		t.Fatal("expected new audio file to be detected")
	}

	svc.mu.Lock()
	_, queued := svc.pending[filepath.Join(dir, "new.mp3")]
	n := len(svc.pending)
	svc.mu.Unlock()
	if !queued || n != 1 {
		t.Errorf("pending = %d entries, queued new.mp3 = %v", n, queued)
	}

	// A second poll with no changes reports nothing.
	if svc.pollRoots() {
		t.Error("no changes expected on repeat poll")
	}
}

func TestProcessPendingInvokesHandler(t *testing.T) {
	var mu sync.Mutex
	var handled []string

	svc := NewService(Config{Roots: nil}, func(_ context.Context, path string, _ resolve.Target) {
		mu.Lock()
		defer mu.Unlock()
		handled = append(handled, path)
	}, nil, testLogger())

	svc.mu.Lock()
	svc.pending["/music/a.mp3"] = struct{}{}
	svc.pending["/music/b.flac"] = struct{}{}
	svc.mu.Unlock()

	svc.processPending(context.Background())

	mu.Lock()
	defer mu.Unlock()
	if len(handled) != 2 {
		t.Errorf("handled %d files, want 2", len(handled))
	}

	svc.mu.Lock()
	remaining := len(svc.pending)
	svc.mu.Unlock()
	if remaining != 0 {
		t.Errorf("pending not drained, %d left", remaining)
	}
}

func TestStartStopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(Config{
		Roots:        []string{dir},
		Debounce:     10 * time.Millisecond,
		PollInterval: 10 * time.Millisecond,
	}, nil, nil, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Start(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop after context cancel")
	}
}
