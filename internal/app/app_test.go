package app

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/soundscape/internal/adapter/themes"
	"github.com/tejashwikalptaru/soundscape/internal/config"
	"github.com/tejashwikalptaru/soundscape/internal/domain"
	"github.com/tejashwikalptaru/soundscape/internal/logger"
	"github.com/tejashwikalptaru/soundscape/internal/scene"
)

func headlessConfig() config.Config {
	cfg := config.Default()
	cfg.Audio.Backend = config.BackendMock
	cfg.UI.Headless = true
	cfg.Animation.FPS = 120
	return cfg
}

func newTestApplication(t *testing.T, cfg config.Config) *Application {
	t.Helper()
	a := test.NewApp()
	t.Cleanup(a.Quit)

	app, err := NewApplication(cfg, Options{Logger: logger.NewTestLogger(), FyneApp: a})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Shutdown() })
	return app
}

func TestNewApplication(t *testing.T) {
	app := newTestApplication(t, headlessConfig())

	assert.NotNil(t, app.GetEventBus())
	assert.NotNil(t, app.GetFyneApp())
	assert.Equal(t, []string{scene.ChaoticName, scene.FlatCircleName, scene.SpiralName}, app.SceneNames())
	assert.Nil(t, app.mainWindow, "headless runs without a window")
}

func TestNewApplication_InvalidConfig(t *testing.T) {
	cfg := headlessConfig()
	cfg.Audio.FFTSize = 1000

	a := test.NewApp()
	defer a.Quit()

	_, err := NewApplication(cfg, Options{Logger: logger.NewTestLogger(), FyneApp: a})

	var validationErr *domain.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestApplicationLifecycle(t *testing.T) {
	app := newTestApplication(t, headlessConfig())

	require.NoError(t, app.Start())
	require.NoError(t, app.Start())

	assert.True(t, app.Driver().IsRunning(), "animation starts running by default")

	app.GetEventBus().Publish(domain.NewSceneIndexChangedEvent(2))
	assert.Equal(t, 2, app.State().SceneIndex)
	assert.Equal(t, 2, app.scenes.CurrentIndex(), "scene follows the state")

	app.GetEventBus().Publish(domain.NewAnimationToggledEvent(false))
	assert.False(t, app.Driver().IsRunning())

	require.NoError(t, app.Shutdown())
	require.NoError(t, app.Shutdown())
}

func TestApplication_StateSurvivesRestart(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()
	cfg := headlessConfig()

	first, err := NewApplication(cfg, Options{Logger: logger.NewTestLogger(), FyneApp: a})
	require.NoError(t, err)
	require.NoError(t, first.Start())
	first.GetEventBus().Publish(domain.NewVolumeChangedEvent(0.8))
	first.GetEventBus().Publish(domain.NewSceneIndexChangedEvent(1))
	require.NoError(t, first.Shutdown())

	second, err := NewApplication(cfg, Options{Logger: logger.NewTestLogger(), FyneApp: a})
	require.NoError(t, err)
	defer second.Shutdown()

	assert.InDelta(t, 0.8, second.initial.Volume, 1e-9)
	assert.Equal(t, 1, second.initial.SceneIndex)
}

func TestApplication_StartRespectsAnimationConfig(t *testing.T) {
	cfg := headlessConfig()
	cfg.Animation.StartRunning = false
	app := newTestApplication(t, cfg)

	require.NoError(t, app.Start())

	assert.False(t, app.Driver().IsRunning())
	assert.False(t, app.State().IsAnimationRunning)
}

func TestApplication_ThemeFileApplied(t *testing.T) {
	path := filepath.Join(t.TempDir(), "themes.yaml")
	require.NoError(t, themes.Save(path, []domain.Theme{
		{Name: "Neon", Color: domain.Hex(0x39ff14), TransitionColor: domain.Hex(0xff00ff)},
	}))

	cfg := headlessConfig()
	cfg.Themes.File = path
	app := newTestApplication(t, cfg)
	require.NoError(t, app.Start())

	names := make([]string, 0, len(app.State().Themes))
	for _, th := range app.State().Themes {
		names = append(names, th.Name)
	}
	assert.Contains(t, names, "Neon")
}

func TestApplication_RunHeadlessReturnsOnCancel(t *testing.T) {
	app := newTestApplication(t, headlessConfig())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestVersionInfo(t *testing.T) {
	v := GetVersionInfo()
	assert.Equal(t, "dev", v.Short())
	assert.Contains(t, v.FullString(), "Soundscape dev")
	assert.Contains(t, v.FullString(), runtime.Version())

	v.GitTag = "v1.2.0"
	assert.Equal(t, "v1.2.0", v.Short())
	assert.Contains(t, v.FullString(), "Soundscape v1.2.0")
}
