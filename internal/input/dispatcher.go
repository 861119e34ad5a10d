package input

import (
	"log/slog"
	"sync"

	"github.com/tejashwikalptaru/soundscape/internal/domain"
	"github.com/tejashwikalptaru/soundscape/internal/ports"
)

// Dispatcher turns actions into intents on the bus. Window-level actions
// (fullscreen, theater) go to handlers installed by the UI.
type Dispatcher struct {
	logger *slog.Logger
	bus    ports.EventBus
	state  ports.StateReader
	keymap *Keymap

	mu           sync.RWMutex
	onFullscreen func()
	onTheater    func()
}

// NewDispatcher creates a dispatcher. Toggle actions read the current state
// from state to decide the new value.
func NewDispatcher(logger *slog.Logger, bus ports.EventBus, state ports.StateReader, keymap *Keymap) *Dispatcher {
	return &Dispatcher{
		logger: logger.With(slog.String("component", "input")),
		bus:    bus,
		state:  state,
		keymap: keymap,
	}
}

// SetFullscreenHandler installs the fullscreen toggle.
func (d *Dispatcher) SetFullscreenHandler(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onFullscreen = fn
}

// SetTheaterHandler installs the theater mode toggle.
func (d *Dispatcher) SetTheaterHandler(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onTheater = fn
}

// Keymap returns the keymap used by HandleKey.
func (d *Dispatcher) Keymap() *Keymap {
	return d.keymap
}

// HandleKey performs the action bound to key. It reports whether the press
// was bound.
func (d *Dispatcher) HandleKey(key string, mods Modifier) bool {
	action := d.keymap.Lookup(key, mods)
	if action == ActionNone {
		return false
	}
	if err := d.Perform(action); err != nil {
		d.logger.Warn("shortcut failed", slog.String("action", action.String()), slog.Any("error", err))
	}
	return true
}

// Perform runs action.
func (d *Dispatcher) Perform(action Action) error {
	st := d.state.State()

	switch action {
	case ActionPlayPause:
		d.bus.Publish(domain.NewSongStateChangedEvent(!st.IsPlaying))
	case ActionNext:
		d.bus.Publish(domain.NewNextSongEvent())
	case ActionPrevious:
		d.bus.Publish(domain.NewPreviousSongEvent())
	case ActionToggleAnimation:
		d.bus.Publish(domain.NewAnimationToggledEvent(!st.IsAnimationRunning))
	case ActionToggleFPS:
		d.bus.Publish(domain.NewFPSToggledEvent(!st.ShowFPS))
	case ActionToggleFullscreen:
		return d.call(d.fullscreenHandler(), "fullscreen")
	case ActionToggleTheater:
		return d.call(d.theaterHandler(), "theater")
	case ActionDebugDump:
		song, _ := st.CurrentSong()
		d.logger.Info("state dump",
			slog.Any("state", st),
			slog.String("currentSong", song.ID),
			slog.Int("sceneIndex", st.SceneIndex))
	default:
		return domain.NewValidationError("action", int(action), "unknown action", domain.ErrInvalidFieldValue)
	}
	return nil
}

func (d *Dispatcher) fullscreenHandler() func() {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.onFullscreen
}

func (d *Dispatcher) theaterHandler() func() {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.onTheater
}

func (d *Dispatcher) call(fn func(), name string) error {
	if fn == nil {
		return domain.NewServiceError("Dispatcher", "Perform", name+" handler not installed", domain.ErrNotInitialized)
	}
	fn()
	return nil
}
