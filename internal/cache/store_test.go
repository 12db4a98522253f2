package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/sydlexius/driftwood/internal/database"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrating: %v", err)
	}
	return NewStore(db)
}

func TestPutGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "k1", []byte(`{"code":200}`), time.Hour); err != nil {
		t.Fatalf("Put: %v", err)
	}

	body, ok, err := s.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("expected cache hit")
	}
	if string(body) != `{"code":200}` {
		t.Errorf("unexpected body: %s", body)
	}
}

func TestGetMiss(t *testing.T) {
	s := newTestStore(t)
	_, ok, err := s.Get(context.Background(), "absent")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("expected miss for absent key")
	}
}

func TestExpiry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now()
	s.now = func() time.Time { return base }

	if err := s.Put(ctx, "k1", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Put: %v", err)
	}

	s.now = func() time.Time { return base.Add(2 * time.Minute) }
	_, ok, err := s.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("expected expired entry to miss")
	}
}

func TestPutReplaces(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "k1", []byte("old"), time.Hour); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Put(ctx, "k1", []byte("new"), time.Hour); err != nil {
		t.Fatalf("Put: %v", err)
	}

	body, ok, _ := s.Get(ctx, "k1")
	if !ok || string(body) != "new" {
		t.Errorf("expected replaced body, got %q (hit=%v)", body, ok)
	}
}

func TestPurge(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now()
	s.now = func() time.Time { return base }

	_ = s.Put(ctx, "live", []byte("v"), time.Hour)
	_ = s.Put(ctx, "stale", []byte("v"), time.Minute)

	s.now = func() time.Time { return base.Add(30 * time.Minute) }
	n, err := s.Purge(ctx)
	if err != nil {
		t.Fatalf("Purge: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 purged row, got %d", n)
	}

	if _, ok, _ := s.Get(ctx, "live"); !ok {
		t.Error("live entry should survive purge")
	}
}
