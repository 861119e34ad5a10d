package ports

import (
	"time"

	"github.com/tejashwikalptaru/soundscape/internal/domain"
	"github.com/tejashwikalptaru/soundscape/internal/render"
)

// FrameSink receives a snapshot after every animation tick.
// The frame is reused by the caller; sinks copy what they keep.
type FrameSink interface {
	PushFrame(frame *render.Frame)
}

// StateReader exposes read-only snapshots of the application state.
type StateReader interface {
	State() domain.ApplicationState
}

// SceneController is what the coordinator needs from the scene manager.
type SceneController interface {
	SetCurrentScene(index int) error
	SetCurrentThemeIndex(index int) error
	SetThemes(themes []domain.Theme, index int) error
	ChangeTheme(index int) error
	SceneNames() []string
}

// CameraControls toggles the orbit controls' input channels.
type CameraControls interface {
	SetRotateEnabled(enabled bool)
	SetPanEnabled(enabled bool)
	SetZoomEnabled(enabled bool)
}

// FrameLoop starts and stops the per-frame callback.
type FrameLoop interface {
	Resume()
	Pause()
	IsRunning() bool
	FPS() float64
	Interval() time.Duration
}
