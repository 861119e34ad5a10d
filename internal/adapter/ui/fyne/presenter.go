// Package fyne provides the desktop UI built on the Fyne toolkit.
package fyne

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	fyneapp "fyne.io/fyne/v2"

	"github.com/tejashwikalptaru/soundscape/internal/domain"
	"github.com/tejashwikalptaru/soundscape/internal/ports"
	"github.com/tejashwikalptaru/soundscape/internal/scene"
	"github.com/tejashwikalptaru/soundscape/internal/service"
)

// View is what the presenter drives. MainWindow implements it.
// All methods are called on the Fyne main goroutine.
type View interface {
	ApplyState(state domain.ApplicationState)
	SetProgress(progress domain.ProgressUpdatedEvent)
	SetScheme(fields []scene.ConfigField)
	ClearSongForm()
	ShowAlert(title, message string)
}

// SchemeEditor exposes the live scene's tunables.
type SchemeEditor interface {
	Scheme() []scene.ConfigField
	ApplyField(key string, value float64) error
}

// LibraryScanner imports songs from disk.
type LibraryScanner interface {
	ScanFolder(ctx context.Context, folderPath string) (service.ScanResult, error)
	ScanFiles(ctx context.Context, filePaths []string) (service.ScanResult, error)
	IsScanning() bool
}

// Presenter implements the Presenter pattern (MVP architecture).
// It renders StateChanged snapshots into the view and turns UI commands into
// intents. It never mutates state directly.
//
// Thread-safety: event handlers hop onto the Fyne goroutine through do.
type Presenter struct {
	logger  *slog.Logger
	bus     ports.EventBus
	state   ports.StateReader
	scheme  SchemeEditor
	library LibraryScanner
	view    View

	// do runs fn on the UI goroutine
	do func(fn func())

	mu        sync.Mutex
	subs      []domain.SubscriptionID
	pendingID string
	started   bool

	// touched only inside do
	sceneIndex int
	rendered   uint64
	hasRender  bool

	ctx         context.Context
	cancel      context.CancelFunc
	scans       sync.WaitGroup
	shutdownOne sync.Once
}

// NewPresenter creates a new presenter. library may be nil when no scanner is wired.
func NewPresenter(
	logger *slog.Logger,
	bus ports.EventBus,
	state ports.StateReader,
	scheme SchemeEditor,
	library LibraryScanner,
	view View,
) *Presenter {
	ctx, cancel := context.WithCancel(context.Background())
	return &Presenter{
		logger:     logger.With(slog.String("component", "presenter")),
		bus:        bus,
		state:      state,
		scheme:     scheme,
		library:    library,
		view:       view,
		do:         fyneapp.Do,
		sceneIndex: -1,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start subscribes to the bus and renders the current state.
func (p *Presenter) Start() {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true

	subscriptions := map[domain.EventType]domain.EventHandler{
		domain.EventStateChanged:    p.onStateChanged,
		domain.EventProgressUpdated: p.onProgressUpdated,
		domain.EventSongAccepted:    p.onSongAccepted,
		domain.EventSongRejected:    p.onSongRejected,
		domain.EventIntentRejected:  p.onIntentRejected,
		domain.EventSongLoadFailed:  p.onSongLoadFailed,
	}
	for eventType, handler := range subscriptions {
		p.subs = append(p.subs, p.bus.Subscribe(eventType, handler))
	}
	p.mu.Unlock()

	p.render(p.state.State())
}

// Event handlers

func (p *Presenter) onStateChanged(event domain.Event) {
	e, ok := event.(domain.StateChangedEvent)
	if !ok {
		return
	}
	p.render(e.State)
}

// render queues st for the view. Publishes from different goroutines can
// reach the UI goroutine out of order, so snapshots older than the last one
// rendered are dropped there.
func (p *Presenter) render(st domain.ApplicationState) {
	p.do(func() {
		if p.hasRender && st.Version < p.rendered {
			p.logger.Debug("stale snapshot skipped",
				slog.Uint64("version", st.Version),
				slog.Uint64("rendered", p.rendered))
			return
		}
		p.hasRender = true
		p.rendered = st.Version

		p.view.ApplyState(st)
		if st.SceneIndex != p.sceneIndex {
			p.sceneIndex = st.SceneIndex
			var fields []scene.ConfigField
			if p.scheme != nil {
				fields = p.scheme.Scheme()
			}
			p.view.SetScheme(fields)
		}
	})
}

// onSongAccepted clears the upload form once the song it sent is in the list.
// Songs added by a library scan leave the form alone.
func (p *Presenter) onSongAccepted(event domain.Event) {
	e, ok := event.(domain.SongAcceptedEvent)
	if !ok {
		return
	}
	p.mu.Lock()
	mine := p.pendingID != "" && p.pendingID == e.Song.ID
	if mine {
		p.pendingID = ""
	}
	p.mu.Unlock()
	if mine {
		p.do(p.view.ClearSongForm)
	}
}

func (p *Presenter) onProgressUpdated(event domain.Event) {
	e, ok := event.(domain.ProgressUpdatedEvent)
	if !ok {
		return
	}
	p.do(func() { p.view.SetProgress(e) })
}

func (p *Presenter) onSongRejected(event domain.Event) {
	e, ok := event.(domain.SongRejectedEvent)
	if !ok || p.scanning() {
		return
	}
	msg := fmt.Sprintf("%q was not added: %v", e.Song.SongName, e.Reason)
	if errors.Is(e.Reason, domain.ErrDuplicateSong) {
		msg = fmt.Sprintf("%q by %s is already in the list", e.Song.SongName, e.Song.ArtistName)
	}
	p.do(func() { p.view.ShowAlert("Song rejected", msg) })
}

func (p *Presenter) onIntentRejected(event domain.Event) {
	e, ok := event.(domain.IntentRejectedEvent)
	if !ok || e.Intent == domain.EventSongUploaded {
		// song rejections have their own alert
		return
	}
	p.do(func() { p.view.ShowAlert("Not applied", e.Err.Error()) })
}

func (p *Presenter) onSongLoadFailed(event domain.Event) {
	e, ok := event.(domain.SongLoadFailedEvent)
	if !ok {
		return
	}
	p.do(func() { p.view.ShowAlert("Playback", fmt.Sprintf("Could not load %s: %v", e.Song.ID, e.Err)) })
}

func (p *Presenter) scanning() bool {
	return p.library != nil && p.library.IsScanning()
}

// User commands

// OnPlayPauseClicked toggles playback.
func (p *Presenter) OnPlayPauseClicked() {
	p.bus.Publish(domain.NewSongStateChangedEvent(!p.state.State().IsPlaying))
}

// OnNextClicked moves to the next song.
func (p *Presenter) OnNextClicked() {
	p.bus.Publish(domain.NewNextSongEvent())
}

// OnPreviousClicked moves to the previous song.
func (p *Presenter) OnPreviousClicked() {
	p.bus.Publish(domain.NewPreviousSongEvent())
}

// OnVolumeChanged handles a volume slider change in the 0..1 range.
func (p *Presenter) OnVolumeChanged(volume float64) {
	p.bus.Publish(domain.NewVolumeChangedEvent(volume))
}

// OnSeekRequested handles a progress bar click at fraction 0..1.
func (p *Presenter) OnSeekRequested(fraction float64) {
	p.bus.Publish(domain.NewProgressBarClickedEvent(fraction, p.state.State().IsPlaying))
}

// OnSongSelected starts playing the song at index.
func (p *Presenter) OnSongSelected(index int) {
	p.bus.Publish(domain.NewNewSongSelectedEvent(index, true))
}

// OnSongSubmitted handles the upload form.
// The form is cleared only when the song is accepted.
func (p *Presenter) OnSongSubmitted(artist, title, src string) {
	intent := domain.NewSongUploadedEvent(artist, title, src)
	p.mu.Lock()
	p.pendingID = intent.ID
	p.mu.Unlock()
	p.bus.Publish(intent)
}

// OnSceneSelected switches scenes.
func (p *Presenter) OnSceneSelected(index int) {
	p.bus.Publish(domain.NewSceneIndexChangedEvent(index))
}

// OnThemeSelected switches and persists the theme.
func (p *Presenter) OnThemeSelected(index int) {
	p.bus.Publish(domain.NewThemeIndexChangedEvent(index, true))
}

// OnRotationToggled enables or disables camera rotation.
func (p *Presenter) OnRotationToggled(enabled bool) {
	p.bus.Publish(domain.NewRotationToggledEvent(enabled))
}

// OnPanToggled enables or disables camera panning.
func (p *Presenter) OnPanToggled(enabled bool) {
	p.bus.Publish(domain.NewPanToggledEvent(enabled))
}

// OnZoomToggled enables or disables camera zoom.
func (p *Presenter) OnZoomToggled(enabled bool) {
	p.bus.Publish(domain.NewZoomToggledEvent(enabled))
}

// OnAnimationToggled pauses or resumes the animation loop.
func (p *Presenter) OnAnimationToggled(running bool) {
	p.bus.Publish(domain.NewAnimationToggledEvent(running))
}

// OnFPSToggled shows or hides the frame rate.
func (p *Presenter) OnFPSToggled(enabled bool) {
	p.bus.Publish(domain.NewFPSToggledEvent(enabled))
}

// OnThemeSubmitted parses the custom theme form. Invalid input is returned
// without publishing anything.
func (p *Presenter) OnThemeSubmitted(name, color, transition, background string) error {
	var (
		t   = domain.Theme{Name: name}
		err error
	)
	if t.Color, err = domain.ParseColor(color); err != nil {
		return err
	}
	if t.TransitionColor, err = domain.ParseColor(transition); err != nil {
		return err
	}
	if t.BackgroundColor, err = domain.ParseColor(background); err != nil {
		return err
	}
	if err := t.Validate(); err != nil {
		return err
	}
	p.bus.Publish(domain.NewThemeAddedEvent(t))
	return nil
}

// OnThemeDeleteClicked deletes the current theme.
func (p *Presenter) OnThemeDeleteClicked() {
	p.bus.Publish(domain.NewThemeDeletedEvent(p.state.State().ThemeIndex))
}

// OnFieldChanged applies a scene tunable edit.
func (p *Presenter) OnFieldChanged(key string, value float64) error {
	if p.scheme == nil {
		return domain.ErrNotInitialized
	}
	if err := p.scheme.ApplyField(key, value); err != nil {
		p.logger.Debug("field rejected", slog.String("key", key), slog.Float64("value", value), slog.Any("error", err))
		return err
	}
	return nil
}

// OnFolderOpened scans folderPath in the background.
func (p *Presenter) OnFolderOpened(folderPath string) {
	p.scan(func(ctx context.Context) (service.ScanResult, error) {
		return p.library.ScanFolder(ctx, folderPath)
	})
}

// OnFilesOpened imports filePaths in the background.
func (p *Presenter) OnFilesOpened(filePaths []string) {
	p.scan(func(ctx context.Context) (service.ScanResult, error) {
		return p.library.ScanFiles(ctx, filePaths)
	})
}

func (p *Presenter) scan(run func(ctx context.Context) (service.ScanResult, error)) {
	if p.library == nil {
		p.view.ShowAlert("Library", "no library scanner configured")
		return
	}

	p.scans.Add(1)
	go func() {
		defer p.scans.Done()
		res, err := run(p.ctx)
		switch {
		case errors.Is(err, context.Canceled):
			return
		case err != nil:
			p.logger.Warn("scan failed", slog.Any("error", err))
			p.do(func() { p.view.ShowAlert("Library", err.Error()) })
		default:
			p.do(func() {
				p.view.ShowAlert("Library", fmt.Sprintf("Added %d songs, skipped %d", res.Added, res.Skipped))
			})
		}
	}()
}

// WaitForScans blocks until background scans finish.
func (p *Presenter) WaitForScans() {
	p.scans.Wait()
}

// Shutdown unsubscribes and cancels running scans.
func (p *Presenter) Shutdown() {
	p.shutdownOne.Do(func() {
		p.mu.Lock()
		for _, id := range p.subs {
			p.bus.Unsubscribe(id)
		}
		p.subs = nil
		p.mu.Unlock()

		p.cancel()
		p.scans.Wait()
	})
}
