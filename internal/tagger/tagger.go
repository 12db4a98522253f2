// Package tagger writes resolved metadata into local audio files: ID3v2
// frames for MP3 and vorbis comments plus picture blocks for FLAC. Writes
// happen after resolution succeeds and are journaled; their failure never
// affects the returned match.
package tagger

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bogem/id3v2"
	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	flac "github.com/go-flac/go-flac"
	"github.com/google/uuid"

	"github.com/sydlexius/driftwood/internal/event"
)

// Tags is the metadata written into a file. Empty fields are skipped.
type Tags struct {
	Title       string
	Artist      string
	AlbumArtist string
	Album       string
	Genre       string
	Year        int
	TrackNumber int
	Lyrics      string
	CoverURL    string
}

// Journal statuses recorded in the tag_writes table.
const (
	statusOK    = "ok"
	statusError = "error"
)

// DefaultMaxCoverEdge bounds embedded cover art dimensions.
const DefaultMaxCoverEdge = 1200

// Tagger writes tags to MP3 and FLAC files and journals each attempt.
type Tagger struct {
	db           *sql.DB
	bus          *event.Bus
	logger       *slog.Logger
	maxCoverEdge int
}

// New creates a tagger. db and bus may be nil, disabling the journal and
// event publication respectively.
func New(db *sql.DB, bus *event.Bus, logger *slog.Logger, maxCoverEdge int) *Tagger {
	if logger == nil {
		logger = slog.Default()
	}
	if maxCoverEdge <= 0 {
		maxCoverEdge = DefaultMaxCoverEdge
	}
	return &Tagger{db: db, bus: bus, logger: logger, maxCoverEdge: maxCoverEdge}
}

// WriteFile writes tags into the file at path, dispatching on extension.
// Cover art download failures degrade to tagging without artwork.
func (t *Tagger) WriteFile(ctx context.Context, path string, tags Tags) error {
	var cover []byte
	var coverMIME string
	if tags.CoverURL != "" {
		var err error
		cover, coverMIME, err = FetchCover(ctx, tags.CoverURL, t.maxCoverEdge)
		if err != nil {
			t.logger.Warn("cover fetch failed, tagging without artwork",
				"url", tags.CoverURL, "error", err)
			cover = nil
		}
	}

	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		err = t.writeMP3(path, tags, cover, coverMIME)
	case ".flac":
		err = t.writeFLAC(path, tags, cover, coverMIME)
	default:
		err = fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
	}

	if err != nil {
		t.journal(ctx, path, statusError, err.Error())
		return err
	}

	t.journal(ctx, path, statusOK, "")
	if t.bus != nil {
		t.bus.Publish(event.Event{
			Type: event.TagsWritten,
			Data: map[string]any{"path": path, "title": tags.Title},
		})
	}
	return nil
}

func (t *Tagger) writeMP3(path string, tags Tags, cover []byte, coverMIME string) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("opening mp3: %w", err)
	}
	defer tag.Close() //nolint:errcheck

	tag.SetDefaultEncoding(id3v2.EncodingUTF8)

	if tags.Title != "" {
		tag.SetTitle(tags.Title)
	}
	if tags.Artist != "" {
		tag.SetArtist(tags.Artist)
	}
	if tags.Album != "" {
		tag.SetAlbum(tags.Album)
	}
	if tags.Genre != "" {
		tag.SetGenre(tags.Genre)
	}
	if tags.Year > 0 {
		tag.SetYear(strconv.Itoa(tags.Year))
	}
	if tags.AlbumArtist != "" {
		tag.AddTextFrame("TPE2", tag.DefaultEncoding(), tags.AlbumArtist)
	}
	if tags.TrackNumber > 0 {
		tag.AddTextFrame("TRCK", tag.DefaultEncoding(), strconv.Itoa(tags.TrackNumber))
	}
	if tags.Lyrics != "" {
		tag.AddUnsynchronisedLyricsFrame(id3v2.UnsynchronisedLyricsFrame{
			Encoding: id3v2.EncodingUTF8,
			Language: "und",
			Lyrics:   tags.Lyrics,
		})
	}
	if len(cover) > 0 {
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    coverMIME,
			PictureType: id3v2.PTFrontCover,
			Description: "Front Cover",
			Picture:     cover,
		})
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("saving mp3 tags: %w", err)
	}
	return nil
}

func (t *Tagger) writeFLAC(path string, tags Tags, cover []byte, coverMIME string) error {
	f, err := flac.ParseFile(path)
	if err != nil {
		return fmt.Errorf("parsing flac: %w", err)
	}

	// Replace any existing comment and picture blocks.
	var kept []*flac.MetaDataBlock
	for _, block := range f.Meta {
		if block.Type != flac.VorbisComment && block.Type != flac.Picture {
			kept = append(kept, block)
		}
	}
	f.Meta = kept

	comment := flacvorbis.New()
	addComment(comment, flacvorbis.FIELD_TITLE, tags.Title)
	addComment(comment, flacvorbis.FIELD_ARTIST, tags.Artist)
	addComment(comment, flacvorbis.FIELD_ALBUM, tags.Album)
	addComment(comment, "ALBUMARTIST", tags.AlbumArtist)
	addComment(comment, "GENRE", tags.Genre)
	if tags.Year > 0 {
		addComment(comment, "DATE", strconv.Itoa(tags.Year))
	}
	if tags.TrackNumber > 0 {
		addComment(comment, flacvorbis.FIELD_TRACKNUMBER, strconv.Itoa(tags.TrackNumber))
	}
	addComment(comment, "LYRICS", tags.Lyrics)

	commentBlock := comment.Marshal()
	f.Meta = append(f.Meta, &commentBlock)

	if len(cover) > 0 {
		picture, err := flacpicture.NewFromImageData(
			flacpicture.PictureTypeFrontCover, "Front Cover", cover, coverMIME)
		if err != nil {
			t.logger.Warn("building flac picture block failed", "path", path, "error", err)
		} else {
			pictureBlock := picture.Marshal()
			f.Meta = append(f.Meta, &pictureBlock)
		}
	}

	if err := f.Save(path); err != nil {
		return fmt.Errorf("saving flac: %w", err)
	}
	return nil
}

// addComment adds a vorbis field when the value is non-empty. Add only fails
// on malformed field names; ours are fixed.
func addComment(comment *flacvorbis.MetaDataBlockVorbisComment, field, value string) {
	if value == "" {
		return
	}
	_ = comment.Add(field, value)
}

// journal records a tag-write attempt. Journal failures are logged, never
// surfaced.
func (t *Tagger) journal(ctx context.Context, path, status, detail string) {
	if t.db == nil {
		return
	}
	_, err := t.db.ExecContext(ctx,
		"INSERT INTO tag_writes (id, file_path, status, detail, created_at) VALUES (?, ?, ?, ?, ?)",
		uuid.NewString(), path, status, detail, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		t.logger.Warn("journaling tag write failed", "path", path, "error", err)
	}
}
