package service

import (
	"log/slog"
	"reflect"
	"sync"

	"github.com/tejashwikalptaru/soundscape/internal/domain"
	"github.com/tejashwikalptaru/soundscape/internal/ports"
)

// Persisted setting keys.
const (
	keyVolume          = "settings.volume"
	keyRotationEnabled = "settings.rotation_enabled"
	keyPanEnabled      = "settings.pan_enabled"
	keyZoomEnabled     = "settings.zoom_enabled"
	keyAnimation       = "settings.animation_running"
	keyShowFPS         = "settings.show_fps"
	keySceneIndex      = "settings.scene_index"
	keyThemeIndex      = "settings.theme_index"
)

// SettingsService persists the parts of the application state that survive restarts.
// It restores them with LoadState and saves them as StateChangedEvents arrive.
// The theme index is only saved when the ThemeIndexChanged intent asks for it.
type SettingsService struct {
	// Dependencies (injected)
	logger     *slog.Logger
	repository ports.SettingsRepository
	bus        ports.EventBus

	// Last snapshot written
	last domain.ApplicationState
	subs []domain.SubscriptionID

	// Concurrency control
	mu sync.Mutex
}

// NewSettingsService creates a new settings service.
func NewSettingsService(
	logger *slog.Logger,
	repository ports.SettingsRepository,
	bus ports.EventBus,
) *SettingsService {
	s := &SettingsService{
		logger:     logger.With(slog.String("service", "settings")),
		repository: repository,
		bus:        bus,
	}
	s.logger.Debug("settings service initialized")
	return s
}

// LoadState builds the initial state from defaults and saved values.
// Saved indices are clamped to the loaded collections and sceneCount.
func (s *SettingsService) LoadState(sceneCount int) domain.ApplicationState {
	st := DefaultState()

	themes, err := s.repository.LoadThemes()
	switch {
	case err != nil:
		s.logger.Warn("saved themes unreadable, using defaults", slog.Any("error", err))
	case len(themes) > 0:
		st.Themes = themes
	}

	songs, err := s.repository.LoadSongs()
	switch {
	case err != nil:
		s.logger.Warn("saved songs unreadable", slog.Any("error", err))
	case len(songs) > 0:
		st.SongList = songs
	}

	volume := s.repository.LoadFloat(keyVolume, st.Volume)
	if volume >= 0 && volume <= 1 {
		st.Volume = volume
	}
	st.RotationEnabled = s.repository.LoadBool(keyRotationEnabled, st.RotationEnabled)
	st.PanEnabled = s.repository.LoadBool(keyPanEnabled, st.PanEnabled)
	st.ZoomEnabled = s.repository.LoadBool(keyZoomEnabled, st.ZoomEnabled)
	st.IsAnimationRunning = s.repository.LoadBool(keyAnimation, st.IsAnimationRunning)
	st.ShowFPS = s.repository.LoadBool(keyShowFPS, st.ShowFPS)
	st.SceneIndex = clampIndex(s.repository.LoadInt(keySceneIndex, 0), sceneCount)
	st.ThemeIndex = clampIndex(s.repository.LoadInt(keyThemeIndex, 0), len(st.Themes))

	s.logger.Debug("settings loaded",
		slog.Int("themes", len(st.Themes)),
		slog.Int("songs", len(st.SongList)),
		slog.Int("sceneIndex", st.SceneIndex),
		slog.Int("themeIndex", st.ThemeIndex))
	return st
}

func clampIndex(i, n int) int {
	if n <= 0 || i < 0 {
		return 0
	}
	return min(i, n-1)
}

// Start begins saving. initial is treated as already persisted.
func (s *SettingsService) Start(initial domain.ApplicationState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.subs) > 0 {
		return
	}
	s.last = initial.Clone()
	s.subs = append(s.subs,
		s.bus.Subscribe(domain.EventStateChanged, s.onStateChanged),
		s.bus.Subscribe(domain.EventThemeIndexChanged, s.onThemeIndexChanged),
	)
}

func (s *SettingsService) onStateChanged(event domain.Event) {
	e, ok := event.(domain.StateChangedEvent)
	if !ok {
		return
	}

	s.mu.Lock()
	prev := s.last
	if e.State.Version <= prev.Version {
		s.mu.Unlock()
		return
	}
	s.last = e.State
	s.mu.Unlock()

	next := e.State
	s.saveIf(prev.Volume != next.Volume, func() error { return s.repository.SaveFloat(keyVolume, next.Volume) })
	s.saveIf(prev.RotationEnabled != next.RotationEnabled, func() error { return s.repository.SaveBool(keyRotationEnabled, next.RotationEnabled) })
	s.saveIf(prev.PanEnabled != next.PanEnabled, func() error { return s.repository.SaveBool(keyPanEnabled, next.PanEnabled) })
	s.saveIf(prev.ZoomEnabled != next.ZoomEnabled, func() error { return s.repository.SaveBool(keyZoomEnabled, next.ZoomEnabled) })
	s.saveIf(prev.IsAnimationRunning != next.IsAnimationRunning, func() error { return s.repository.SaveBool(keyAnimation, next.IsAnimationRunning) })
	s.saveIf(prev.ShowFPS != next.ShowFPS, func() error { return s.repository.SaveBool(keyShowFPS, next.ShowFPS) })
	s.saveIf(prev.SceneIndex != next.SceneIndex, func() error { return s.repository.SaveInt(keySceneIndex, next.SceneIndex) })
	themesChanged := !reflect.DeepEqual(prev.Themes, next.Themes)
	s.saveIf(themesChanged, func() error { return s.repository.SaveThemes(next.Themes) })
	// A delete repairs the selection in the same update; keep the saved index pointing at it.
	s.saveIf(themesChanged && prev.ThemeIndex != next.ThemeIndex, func() error { return s.repository.SaveInt(keyThemeIndex, next.ThemeIndex) })
	s.saveIf(!reflect.DeepEqual(prev.SongList, next.SongList), func() error { return s.repository.SaveSongs(next.SongList) })
}

func (s *SettingsService) onThemeIndexChanged(event domain.Event) {
	e, ok := event.(domain.ThemeIndexChangedEvent)
	if !ok || !e.SaveToLocalStorage {
		return
	}

	// The store handled the intent first; a rejected index never reaches s.last.
	s.mu.Lock()
	applied := s.last.ThemeIndex == e.ThemeIndex
	s.mu.Unlock()
	if !applied {
		return
	}
	s.saveIf(true, func() error { return s.repository.SaveInt(keyThemeIndex, e.ThemeIndex) })
}

func (s *SettingsService) saveIf(changed bool, save func() error) {
	if !changed {
		return
	}
	if err := save(); err != nil {
		s.logger.Warn("failed to save setting", slog.Any("error", err))
	}
}

// ResetToDefaults removes every saved setting.
func (s *SettingsService) ResetToDefaults() error {
	if err := s.repository.Clear(); err != nil {
		return domain.NewServiceError("SettingsService", "ResetToDefaults", "failed to clear settings", err)
	}
	return nil
}

// Shutdown stops saving.
func (s *SettingsService) Shutdown() error {
	s.mu.Lock()
	subs := s.subs
	s.subs = nil
	s.mu.Unlock()
	for _, id := range subs {
		s.bus.Unsubscribe(id)
	}
	return nil
}
