package service

import (
	"testing"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/soundscape/internal/adapter/repository/memory"
	"github.com/tejashwikalptaru/soundscape/internal/domain"
	"github.com/tejashwikalptaru/soundscape/internal/logger"
)

// Helper to create a settings service over a fresh preferences store
func newTestSettingsService() (*SettingsService, *memory.SettingsRepository) {
	app := test.NewApp()
	repo := memory.NewSettingsRepository(app.Preferences())
	bus := newTestBus()
	return NewSettingsService(logger.NewTestLogger(), repo, bus), repo
}

func TestSettingsService_LoadStateDefaults(t *testing.T) {
	svc, _ := newTestSettingsService()

	st := svc.LoadState(testSceneCount)

	assert.Equal(t, DefaultState(), st)
}

func TestSettingsService_LoadStateRestores(t *testing.T) {
	svc, repo := newTestSettingsService()
	themes := domain.DefaultThemes()[:2]
	songs := testSongs(2)

	require.NoError(t, repo.SaveFloat(keyVolume, 0.25))
	require.NoError(t, repo.SaveBool(keyRotationEnabled, false))
	require.NoError(t, repo.SaveBool(keyShowFPS, true))
	require.NoError(t, repo.SaveInt(keySceneIndex, 2))
	require.NoError(t, repo.SaveInt(keyThemeIndex, 1))
	require.NoError(t, repo.SaveThemes(themes))
	require.NoError(t, repo.SaveSongs(songs))

	st := svc.LoadState(testSceneCount)

	assert.Equal(t, 0.25, st.Volume)
	assert.False(t, st.RotationEnabled)
	assert.True(t, st.PanEnabled)
	assert.True(t, st.ShowFPS)
	assert.Equal(t, 2, st.SceneIndex)
	assert.Equal(t, 1, st.ThemeIndex)
	assert.Equal(t, themes, st.Themes)
	assert.Equal(t, songs, st.SongList)
}

func TestSettingsService_LoadStateClamps(t *testing.T) {
	svc, repo := newTestSettingsService()

	require.NoError(t, repo.SaveFloat(keyVolume, 7))
	require.NoError(t, repo.SaveInt(keySceneIndex, 9))
	require.NoError(t, repo.SaveInt(keyThemeIndex, -4))

	st := svc.LoadState(testSceneCount)

	assert.Equal(t, 0.5, st.Volume, "out of range volume falls back to the default")
	assert.Equal(t, testSceneCount-1, st.SceneIndex)
	assert.Equal(t, 0, st.ThemeIndex)
}

func TestClampIndex(t *testing.T) {
	tests := []struct {
		i, n, want int
	}{
		{0, 3, 0},
		{2, 3, 2},
		{5, 3, 2},
		{-1, 3, 0},
		{4, 0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, clampIndex(tt.i, tt.n), "clampIndex(%d, %d)", tt.i, tt.n)
	}
}

func TestSettingsService_SavesStateChanges(t *testing.T) {
	store, _, bus := newTestStore(t, 0)
	repo := memory.NewSettingsRepository(test.NewApp().Preferences())
	svc := NewSettingsService(logger.NewTestLogger(), repo, bus)
	svc.Start(store.State())
	defer svc.Shutdown()

	bus.Publish(domain.NewVolumeChangedEvent(0.3))
	bus.Publish(domain.NewZoomToggledEvent(false))
	bus.Publish(domain.NewAnimationToggledEvent(false))
	bus.Publish(domain.NewSceneIndexChangedEvent(1))
	bus.Publish(domain.NewThemeAddedEvent(domain.Theme{Name: "Neon"}))
	bus.Publish(domain.NewSongUploadedEvent("Boards of Canada", "Roygbiv", "roygbiv.mp3"))

	assert.Equal(t, 0.3, repo.LoadFloat(keyVolume, 0))
	assert.False(t, repo.LoadBool(keyZoomEnabled, true))
	assert.False(t, repo.LoadBool(keyAnimation, true))
	assert.Equal(t, 1, repo.LoadInt(keySceneIndex, 0))

	themes, err := repo.LoadThemes()
	require.NoError(t, err)
	assert.Equal(t, store.State().Themes, themes)

	songs, err := repo.LoadSongs()
	require.NoError(t, err)
	require.Len(t, songs, 1)
	assert.Equal(t, "Roygbiv", songs[0].SongName)
}

func TestSettingsService_ThemeIndexSavedOnRequest(t *testing.T) {
	store, _, bus := newTestStore(t, 0)
	repo := memory.NewSettingsRepository(test.NewApp().Preferences())
	svc := NewSettingsService(logger.NewTestLogger(), repo, bus)
	svc.Start(store.State())
	defer svc.Shutdown()

	bus.Publish(domain.NewThemeIndexChangedEvent(2, false))
	assert.Equal(t, -1, repo.LoadInt(keyThemeIndex, -1), "previews are not saved")

	bus.Publish(domain.NewThemeIndexChangedEvent(3, true))
	assert.Equal(t, 3, repo.LoadInt(keyThemeIndex, -1))

	bus.Publish(domain.NewThemeIndexChangedEvent(42, true))
	assert.Equal(t, 3, repo.LoadInt(keyThemeIndex, -1), "rejected indices are not saved")
}

func TestSettingsService_ThemeDeleteKeepsSavedSelection(t *testing.T) {
	store, _, bus := newTestStore(t, 0)
	repo := memory.NewSettingsRepository(test.NewApp().Preferences())
	svc := NewSettingsService(logger.NewTestLogger(), repo, bus)
	svc.Start(store.State())
	defer svc.Shutdown()

	bus.Publish(domain.NewThemeIndexChangedEvent(2, true))
	bus.Publish(domain.NewThemeDeletedEvent(0))

	live := store.State()
	require.Equal(t, 1, live.ThemeIndex)
	require.Equal(t, "Lagoon", live.Themes[live.ThemeIndex].Name)

	restored := svc.LoadState(testSceneCount)
	assert.Equal(t, live.ThemeIndex, restored.ThemeIndex)
	assert.Equal(t, "Lagoon", restored.Themes[restored.ThemeIndex].Name)
}

func TestSettingsService_ThemeDeleteAboveSelectionKeepsIndex(t *testing.T) {
	store, _, bus := newTestStore(t, 0)
	repo := memory.NewSettingsRepository(test.NewApp().Preferences())
	svc := NewSettingsService(logger.NewTestLogger(), repo, bus)
	svc.Start(store.State())
	defer svc.Shutdown()

	bus.Publish(domain.NewThemeIndexChangedEvent(1, false))
	bus.Publish(domain.NewThemeDeletedEvent(3))

	assert.Equal(t, -1, repo.LoadInt(keyThemeIndex, -1), "an unchanged preview is still not saved")
}

func TestSettingsService_IgnoresStaleSnapshots(t *testing.T) {
	svc, repo := newTestSettingsService()
	initial := DefaultState()
	initial.Version = 5
	svc.Start(initial)
	defer svc.Shutdown()

	stale := initial.Clone()
	stale.Version = 4
	stale.Volume = 0.9
	svc.onStateChanged(domain.NewStateChangedEvent(stale))

	assert.Equal(t, -1.0, repo.LoadFloat(keyVolume, -1))
}

func TestSettingsService_ResetToDefaults(t *testing.T) {
	svc, repo := newTestSettingsService()
	require.NoError(t, repo.SaveInt(keySceneIndex, 2))
	require.NoError(t, repo.SaveThemes(domain.DefaultThemes()[:1]))

	require.NoError(t, svc.ResetToDefaults())

	assert.Equal(t, DefaultState(), svc.LoadState(testSceneCount))
}

func TestSettingsService_ShutdownStopsSaving(t *testing.T) {
	store, _, bus := newTestStore(t, 0)
	repo := memory.NewSettingsRepository(test.NewApp().Preferences())
	svc := NewSettingsService(logger.NewTestLogger(), repo, bus)
	svc.Start(store.State())
	require.NoError(t, svc.Shutdown())

	bus.Publish(domain.NewVolumeChangedEvent(0.1))

	assert.Equal(t, -1.0, repo.LoadFloat(keyVolume, -1))
}
