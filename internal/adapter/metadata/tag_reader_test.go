package metadata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/soundscape/internal/domain"
	"github.com/tejashwikalptaru/soundscape/internal/logger"
)

func TestFromFileName(t *testing.T) {
	tests := []struct {
		path   string
		artist string
		title  string
	}{
		{"/music/Daft Punk - Around the World.mp3", "Daft Punk", "Around the World"},
		{"Boards of Canada - Roygbiv.wav", "Boards of Canada", "Roygbiv"},
		{"/music/untitled.mp3", UnknownArtist, "untitled"},
		{"/music/ - Title.mp3", UnknownArtist, "- Title"},
		{"A - B - C.flac", "A", "B - C"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			artist, title := FromFileName(tt.path)
			assert.Equal(t, tt.artist, artist)
			assert.Equal(t, tt.title, title)
		})
	}
}

func TestTagReader_FallsBackToFileName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Aphex Twin - Xtal.mp3")
	require.NoError(t, os.WriteFile(path, []byte("not really audio"), 0o644))

	r := NewTagReader(logger.NewTestLogger())
	song, err := r.ReadSong(path)
	require.NoError(t, err)

	assert.Equal(t, "Aphex Twin", song.ArtistName)
	assert.Equal(t, "Xtal", song.SongName)
	assert.Equal(t, domain.SongID("Aphex Twin", "Xtal"), song.ID)
	assert.Equal(t, path, song.Src)
}

func TestTagReader_Errors(t *testing.T) {
	r := NewTagReader(logger.NewTestLogger())

	_, err := r.ReadSong("")
	assert.ErrorIs(t, err, domain.ErrInvalidFieldValue)

	_, err = r.ReadSong(filepath.Join(t.TempDir(), "missing.mp3"))
	var repoErr *domain.RepositoryError
	assert.ErrorAs(t, err, &repoErr)
}
