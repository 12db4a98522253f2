package enricher

import (
	"testing"

	"github.com/sydlexius/driftwood/internal/provider/netease"
	"github.com/sydlexius/driftwood/internal/resolve"
)

func TestAlbumMetadata(t *testing.T) {
	album := &netease.Album{
		Name:        "琅琊榜 电视原声带",
		Description: "television soundtrack",
		Genre:       "Soundtrack",
		PicURL:      "https://img.example/5.jpg",
		PublishTime: 1443628800000, // 2015-09-30 UTC
	}
	m := AlbumMetadata(album)
	if m.Year != 2015 {
		t.Errorf("Year = %d, want 2015", m.Year)
	}
	if len(m.Genres) != 1 || m.Genres[0] != "Soundtrack" {
		t.Errorf("Genres = %v", m.Genres)
	}
	if m.ImageURL != album.PicURL {
		t.Errorf("ImageURL = %q", m.ImageURL)
	}
	// A record the catalog does not map to MusicBrainz gets a stable
	// placeholder id.
	if m.MusicBrainzID != PlaceholderID(album.Name) {
		t.Errorf("MusicBrainzID = %q, want placeholder", m.MusicBrainzID)
	}
}

func TestAlbumMetadataKeepsCatalogMusicBrainzID(t *testing.T) {
	album := &netease.Album{
		Name:          "琅琊榜 电视原声带",
		MusicBrainzID: "2f6e1c35-6f4a-4c27-8c3e-000000000001",
	}
	m := AlbumMetadata(album)
	if m.MusicBrainzID != album.MusicBrainzID {
		t.Errorf("MusicBrainzID = %q, want the catalog's own id", m.MusicBrainzID)
	}
}

func TestAlbumMetadataNil(t *testing.T) {
	if m := AlbumMetadata(nil); m.Name != "" {
		t.Errorf("expected zero metadata, got %+v", m)
	}
}

func TestTrackMetadataUsesAlbumRef(t *testing.T) {
	song := &netease.Song{
		Name: "红颜旧",
		Al: &netease.Album{
			PicURL:      "https://img.example/5.jpg",
			PublishTime: 1443628800000,
		},
	}
	m := TrackMetadata(song)
	if m.Year != 2015 {
		t.Errorf("Year = %d, want 2015", m.Year)
	}
	if m.ImageURL == "" {
		t.Error("expected image from the embedded album")
	}
	if m.MusicBrainzID != PlaceholderID(song.Name) {
		t.Errorf("MusicBrainzID = %q, want placeholder", m.MusicBrainzID)
	}
}

func TestArtistMetadataPrefersDetail(t *testing.T) {
	match := &resolve.ArtistMatch{
		Artist: netease.Artist{
			Name:      "刘涛",
			BriefDesc: "short",
			PicURL:    "https://img.example/a.jpg",
		},
		Detail: &netease.ArtistDetail{
			BriefDesc: "much longer biography",
			Cover:     "https://img.example/cover.jpg",
		},
	}
	m := ArtistMetadata(match)
	if m.Description != "much longer biography" {
		t.Errorf("Description = %q, want the detail record's", m.Description)
	}
	if m.ImageURL != "https://img.example/cover.jpg" {
		t.Errorf("ImageURL = %q, want the detail cover", m.ImageURL)
	}
}

func TestArtistMetadataWithoutDetail(t *testing.T) {
	match := &resolve.ArtistMatch{
		Artist: netease.Artist{Name: "刘涛", PicURL: "https://img.example/a.jpg"},
	}
	m := ArtistMetadata(match)
	if m.Name != "刘涛" || m.ImageURL != "https://img.example/a.jpg" {
		t.Errorf("unexpected metadata %+v", m)
	}
}

func TestPlaceholderIDStable(t *testing.T) {
	a := PlaceholderID("刘涛")
	b := PlaceholderID("刘涛")
	if a != b {
		t.Errorf("PlaceholderID not stable: %q vs %q", a, b)
	}
	if a == PlaceholderID("胡歌") {
		t.Error("different names must yield different ids")
	}
}
