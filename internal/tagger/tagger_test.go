package tagger

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/sydlexius/driftwood/internal/database"
)

func makeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encoding jpeg: %v", err)
	}
	return buf.Bytes()
}

func makePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding png: %v", err)
	}
	return buf.Bytes()
}

func TestDetectFormat(t *testing.T) {
	format, _, err := detectFormat(bytes.NewReader(makeJPEG(t, 10, 10)))
	if err != nil || format != formatJPEG {
		t.Errorf("detectFormat(jpeg) = %q, %v", format, err)
	}

	format, _, err = detectFormat(bytes.NewReader(makePNG(t, 10, 10)))
	if err != nil || format != formatPNG {
		t.Errorf("detectFormat(png) = %q, %v", format, err)
	}

	if _, _, err := detectFormat(bytes.NewReader([]byte("not an image"))); err == nil {
		t.Error("expected error for unrecognized data")
	}
}

func TestFitDimensions(t *testing.T) {
	tests := []struct {
		origW, origH, maxW, maxH int
		wantW, wantH             int
	}{
		{100, 100, 200, 200, 100, 100}, // already fits
		{400, 200, 200, 200, 200, 100}, // wide
		{200, 400, 200, 200, 100, 200}, // tall
		{1000, 1000, 100, 100, 100, 100},
	}
	for _, tt := range tests {
		gotW, gotH := fitDimensions(tt.origW, tt.origH, tt.maxW, tt.maxH)
		if gotW != tt.wantW || gotH != tt.wantH {
			t.Errorf("fitDimensions(%d, %d, %d, %d) = (%d, %d), want (%d, %d)",
				tt.origW, tt.origH, tt.maxW, tt.maxH, gotW, gotH, tt.wantW, tt.wantH)
		}
	}
}

func TestResizeCover(t *testing.T) {
	data, format, err := resizeCover(bytes.NewReader(makeJPEG(t, 800, 400)), 200)
	if err != nil {
		t.Fatalf("resizeCover: %v", err)
	}
	if format != formatJPEG {
		t.Errorf("format = %q, want jpeg", format)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if cfg.Width != 200 || cfg.Height != 100 {
		t.Errorf("resized to %dx%d, want 200x100", cfg.Width, cfg.Height)
	}
}

func TestFetchCover(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(makePNG(t, 50, 50))
	}))
	defer srv.Close()

	data, mime, err := FetchCover(context.Background(), srv.URL, 100)
	if err != nil {
		t.Fatalf("FetchCover: %v", err)
	}
	if mime != "image/png" {
		t.Errorf("mime = %q, want image/png", mime)
	}
	if len(data) == 0 {
		t.Error("expected image data")
	}
}

func TestFetchCoverHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	if _, _, err := FetchCover(context.Background(), srv.URL, 100); err == nil {
		t.Error("expected error on 404")
	}
}

func TestWriteFileUnsupportedType(t *testing.T) {
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	defer db.Close() //nolint:errcheck
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrating: %v", err)
	}

	tg := New(db, nil, nil, 0)
	if err := tg.WriteFile(context.Background(), "/music/song.ogg", Tags{Title: "x"}); err == nil {
		t.Fatal("expected error for unsupported extension")
	}

	// The failed attempt must be journaled.
	var status string
	err = db.QueryRow("SELECT status FROM tag_writes WHERE file_path = ?", "/music/song.ogg").Scan(&status)
	if err != nil {
		t.Fatalf("reading journal: %v", err)
	}
	if status != statusError {
		t.Errorf("journal status = %q, want %q", status, statusError)
	}
}
