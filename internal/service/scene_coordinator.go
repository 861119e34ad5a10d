package service

import (
	"log/slog"
	"reflect"
	"sync"

	"github.com/tejashwikalptaru/soundscape/internal/domain"
	"github.com/tejashwikalptaru/soundscape/internal/ports"
)

// SceneCoordinator applies state broadcasts to the scene manager, the camera
// controls and the animation loop. Each snapshot is diffed against the last
// one applied; older versions are ignored.
type SceneCoordinator struct {
	// Dependencies (injected)
	logger   *slog.Logger
	bus      ports.EventBus
	scenes   ports.SceneController
	controls ports.CameraControls
	loop     ports.FrameLoop

	applied domain.ApplicationState
	sub     domain.SubscriptionID
	started bool

	// Concurrency control
	mu sync.Mutex
}

// NewSceneCoordinator creates a coordinator. controls and loop may be nil.
func NewSceneCoordinator(
	logger *slog.Logger,
	bus ports.EventBus,
	scenes ports.SceneController,
	controls ports.CameraControls,
	loop ports.FrameLoop,
) *SceneCoordinator {
	return &SceneCoordinator{
		logger:   logger.With(slog.String("service", "scene_coordinator")),
		bus:      bus,
		scenes:   scenes,
		controls: controls,
		loop:     loop,
	}
}

// Start applies initial in full and then follows StateChangedEvents.
func (c *SceneCoordinator) Start(initial domain.ApplicationState) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return domain.ErrAlreadyInitialized
	}

	if err := c.scenes.SetThemes(initial.Themes, initial.ThemeIndex); err != nil {
		return domain.NewServiceError("SceneCoordinator", "Start", "invalid initial themes", err)
	}
	if err := c.scenes.SetCurrentScene(initial.SceneIndex); err != nil {
		return domain.NewServiceError("SceneCoordinator", "Start", "failed to build initial scene", err)
	}
	c.applyControls(initial)
	c.applyLoop(initial.IsAnimationRunning)

	c.applied = initial.Clone()
	c.started = true
	c.sub = c.bus.Subscribe(domain.EventStateChanged, c.onStateChanged)
	return nil
}

func (c *SceneCoordinator) onStateChanged(event domain.Event) {
	e, ok := event.(domain.StateChangedEvent)
	if !ok {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started || e.State.Version <= c.applied.Version {
		return
	}
	prev, next := c.applied, e.State
	c.applied = next

	switch {
	case !reflect.DeepEqual(prev.Themes, next.Themes):
		if err := c.scenes.SetThemes(next.Themes, next.ThemeIndex); err != nil {
			c.logger.Error("failed to apply themes", slog.Any("error", err))
		}
	case prev.ThemeIndex != next.ThemeIndex:
		if err := c.scenes.SetCurrentThemeIndex(next.ThemeIndex); err != nil {
			c.logger.Error("failed to select theme", slog.Int("themeIndex", next.ThemeIndex), slog.Any("error", err))
			break
		}
		if err := c.scenes.ChangeTheme(next.ThemeIndex); err != nil {
			c.logger.Warn("failed to recolor scene", slog.Int("themeIndex", next.ThemeIndex), slog.Any("error", err))
		}
	}

	if prev.SceneIndex != next.SceneIndex {
		if err := c.scenes.SetCurrentScene(next.SceneIndex); err != nil {
			c.logger.Error("failed to switch scene", slog.Int("sceneIndex", next.SceneIndex), slog.Any("error", err))
		}
	}

	if prev.RotationEnabled != next.RotationEnabled || prev.PanEnabled != next.PanEnabled || prev.ZoomEnabled != next.ZoomEnabled {
		c.applyControls(next)
	}
	if prev.IsAnimationRunning != next.IsAnimationRunning {
		c.applyLoop(next.IsAnimationRunning)
	}
}

func (c *SceneCoordinator) applyControls(st domain.ApplicationState) {
	if c.controls == nil {
		return
	}
	c.controls.SetRotateEnabled(st.RotationEnabled)
	c.controls.SetPanEnabled(st.PanEnabled)
	c.controls.SetZoomEnabled(st.ZoomEnabled)
}

func (c *SceneCoordinator) applyLoop(running bool) {
	if c.loop == nil {
		return
	}
	if running {
		c.loop.Resume()
	} else {
		c.loop.Pause()
	}
}

// AppliedVersion returns the version of the last snapshot applied.
func (c *SceneCoordinator) AppliedVersion() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.applied.Version
}

// Shutdown stops following state changes.
func (c *SceneCoordinator) Shutdown() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		return nil
	}
	c.bus.Unsubscribe(c.sub)
	c.started = false
	return nil
}
