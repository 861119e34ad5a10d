package memory

import (
	"testing"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/soundscape/internal/domain"
)

// Helper to create a test settings repository
func newTestSettingsRepository() *SettingsRepository {
	app := test.NewApp()
	return NewSettingsRepository(app.Preferences())
}

func TestSettingsRepository_Scalars(t *testing.T) {
	repo := newTestSettingsRepository()

	assert.Equal(t, 1.0, repo.LoadFloat("SpiralScene.boxSize", 1.0))
	assert.True(t, repo.LoadBool("SpiralScene.reversed", true))
	assert.Equal(t, 0, repo.LoadInt("settings.scene_index", 0))

	require.NoError(t, repo.SaveFloat("SpiralScene.boxSize", 2.5))
	require.NoError(t, repo.SaveBool("SpiralScene.reversed", false))
	require.NoError(t, repo.SaveInt("settings.scene_index", 2))

	assert.Equal(t, 2.5, repo.LoadFloat("SpiralScene.boxSize", 1.0))
	assert.False(t, repo.LoadBool("SpiralScene.reversed", true))
	assert.Equal(t, 2, repo.LoadInt("settings.scene_index", 0))
}

func TestSettingsRepository_EmptyKeyRejected(t *testing.T) {
	repo := newTestSettingsRepository()

	var repoErr *domain.RepositoryError
	assert.ErrorAs(t, repo.SaveFloat("", 1), &repoErr)
	assert.ErrorAs(t, repo.SaveBool("", true), &repoErr)
	assert.ErrorAs(t, repo.SaveInt("", 1), &repoErr)
}

func TestSettingsRepository_Themes(t *testing.T) {
	repo := newTestSettingsRepository()

	themes, err := repo.LoadThemes()
	require.NoError(t, err)
	assert.Nil(t, themes, "nothing saved yet")

	want := domain.DefaultThemes()
	require.NoError(t, repo.SaveThemes(want))

	got, err := repo.LoadThemes()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSettingsRepository_Songs(t *testing.T) {
	repo := newTestSettingsRepository()

	songs, err := repo.LoadSongs()
	require.NoError(t, err)
	assert.Empty(t, songs)

	want := []domain.Song{
		{ID: domain.SongID("Artist", "One"), ArtistName: "Artist", SongName: "One", Src: "/music/one.mp3"},
	}
	require.NoError(t, repo.SaveSongs(want))

	got, err := repo.LoadSongs()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSettingsRepository_CorruptCollection(t *testing.T) {
	app := test.NewApp()
	prefs := app.Preferences()
	prefs.SetString(keyThemes, "{not json")

	repo := NewSettingsRepository(prefs)
	_, err := repo.LoadThemes()

	var repoErr *domain.RepositoryError
	assert.ErrorAs(t, err, &repoErr)
}

func TestSettingsRepository_Clear(t *testing.T) {
	repo := newTestSettingsRepository()

	require.NoError(t, repo.SaveFloat("settings.volume", 0.3))
	require.NoError(t, repo.SaveBool("settings.rotation", true))
	require.NoError(t, repo.SaveThemes(domain.DefaultThemes()))

	require.NoError(t, repo.Clear())

	assert.Equal(t, 1.0, repo.LoadFloat("settings.volume", 1.0))
	assert.False(t, repo.LoadBool("settings.rotation", false))
	themes, err := repo.LoadThemes()
	require.NoError(t, err)
	assert.Nil(t, themes)
}

func TestSettingsRepository_ClearAfterReopen(t *testing.T) {
	app := test.NewApp()
	prefs := app.Preferences()

	first := NewSettingsRepository(prefs)
	require.NoError(t, first.SaveFloat("SpiralScene.rotationSpeed", 4))

	second := NewSettingsRepository(prefs)
	require.NoError(t, second.Clear())

	assert.Equal(t, 10.0, second.LoadFloat("SpiralScene.rotationSpeed", 10))
}
