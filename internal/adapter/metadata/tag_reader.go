// Package metadata reads artist and title information from audio files.
package metadata

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"

	"github.com/tejashwikalptaru/soundscape/internal/domain"
	"github.com/tejashwikalptaru/soundscape/internal/ports"
)

// UnknownArtist is used when neither tags nor the file name name an artist.
const UnknownArtist = "Unknown Artist"

// TagReader implements ports.MetadataReader with dhowden/tag.
// Files without usable tags fall back to an "Artist - Title" file name.
type TagReader struct {
	logger *slog.Logger
}

// NewTagReader creates a tag reader.
func NewTagReader(logger *slog.Logger) *TagReader {
	return &TagReader{logger: logger.With(slog.String("adapter", "metadata"))}
}

// ReadSong builds a Song for path. The song ID is derived from artist and title.
func (r *TagReader) ReadSong(path string) (domain.Song, error) {
	if path == "" {
		return domain.Song{}, domain.NewValidationError("path", path, "path cannot be empty", domain.ErrInvalidFieldValue)
	}

	artist, title := FromFileName(path)

	file, err := os.Open(path)
	if err != nil {
		return domain.Song{}, domain.NewRepositoryError("ReadSong", "metadata", "failed to open file", err)
	}
	defer file.Close()

	// Use dhowden/tag library to extract metadata
	meta, err := tag.ReadFrom(file)
	if err != nil || meta == nil {
		r.logger.Debug("no tags, using file name", slog.String("path", path), slog.Any("error", err))
	} else {
		if t := strings.TrimSpace(meta.Title()); t != "" {
			title = t
		}
		if a := strings.TrimSpace(meta.Artist()); a != "" {
			artist = a
		} else if a := strings.TrimSpace(meta.AlbumArtist()); a != "" {
			artist = a
		}
	}

	return domain.Song{
		ID:         domain.SongID(artist, title),
		ArtistName: artist,
		SongName:   title,
		Src:        path,
	}, nil
}

// FromFileName splits "Artist - Title.ext" into its parts. Names without the
// separator yield UnknownArtist and the bare name.
func FromFileName(path string) (artist, title string) {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	if a, t, ok := strings.Cut(base, " - "); ok {
		a, t = strings.TrimSpace(a), strings.TrimSpace(t)
		if a != "" && t != "" {
			return a, t
		}
	}
	return UnknownArtist, strings.TrimSpace(base)
}

// Verify interface implementation
var _ ports.MetadataReader = (*TagReader)(nil)
