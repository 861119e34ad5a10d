package fyne

import (
	"strings"
	"sync"

	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"

	"github.com/tejashwikalptaru/soundscape/internal/adapter/ui/fyne/widgets"
	"github.com/tejashwikalptaru/soundscape/internal/domain"
	"github.com/tejashwikalptaru/soundscape/internal/input"
	"github.com/tejashwikalptaru/soundscape/internal/ports"
	"github.com/tejashwikalptaru/soundscape/internal/scene"
)

// Window defaults.
const (
	AppName = "Soundscape"
	Width   = 1280
	Height  = 800
)

// MainWindow is the main UI window implementing the View interface.
//
// It is a "dumb view": panels render what the presenter hands them and
// forward user input back to it.
type MainWindow struct {
	app    fyneapp.App
	window fyneapp.Window

	surface *widgets.Surface
	player  *playerPanel
	songs   *songPanel
	props   *propertiesPanel
	sides   []fyneapp.CanvasObject

	loop    ports.FrameLoop
	showFPS bool
	theater bool

	closeOnce sync.Once

	// Presenter (set after construction)
	presenter *Presenter
}

var (
	_ View            = (*MainWindow)(nil)
	_ ports.FrameSink = (*widgets.Surface)(nil)
)

// NewMainWindow creates the window and its panels. sceneNames populates the scene select.
func NewMainWindow(app fyneapp.App, sceneNames []string) *MainWindow {
	w := &MainWindow{app: app}
	w.window = app.NewWindow(AppName)

	current := func() *Presenter { return w.presenter }
	w.surface = widgets.NewSurface()
	w.surface.OnDoubleTapped = w.ToggleTheater
	w.player = newPlayerPanel(current)
	w.songs = newSongPanel(current)
	w.props = newPropertiesPanel(current, sceneNames, w.ShowAlert)

	w.buildUI()
	w.window.Resize(fyneapp.NewSize(Width, Height))
	return w
}

func (w *MainWindow) buildUI() {
	songs := container.NewGridWrap(fyneapp.NewSize(260, Height), w.songs.content)
	props := container.NewGridWrap(fyneapp.NewSize(300, Height), w.props.content)
	w.sides = []fyneapp.CanvasObject{songs, props, w.player.content}

	w.window.SetContent(container.NewBorder(nil, w.player.content, songs, props, w.surface))
	w.window.SetMainMenu(fyneapp.NewMainMenu(w.createMenu()...))
}

// SetPresenter connects the presenter to this view.
// This must be called before showing the window.
func (w *MainWindow) SetPresenter(presenter *Presenter) {
	w.presenter = presenter
}

// SetOrbiter routes surface gestures to the camera rig.
func (w *MainWindow) SetOrbiter(o widgets.Orbiter) {
	w.surface.SetOrbiter(o)
}

// SetFrameLoop lets the FPS overlay read the measured frame rate.
func (w *MainWindow) SetFrameLoop(loop ports.FrameLoop) {
	w.loop = loop
}

// Surface returns the drawing surface, a ports.FrameSink.
func (w *MainWindow) Surface() *widgets.Surface {
	return w.surface
}

func (w *MainWindow) createMenu() []*fyneapp.Menu {
	openFile := fyneapp.NewMenuItem("Open File...", func() {
		showFileOpen(w.window, func(path string) { w.presenter.OnFilesOpened([]string{path}) }, w.ShowAlert)
	})
	openFolder := fyneapp.NewMenuItem("Open Folder...", func() {
		showFolderOpen(w.window, w.presenter.OnFolderOpened, w.ShowAlert)
	})
	fullscreen := fyneapp.NewMenuItem("Fullscreen", w.ToggleFullscreen)
	theater := fyneapp.NewMenuItem("Theater Mode", w.ToggleTheater)

	return []*fyneapp.Menu{
		fyneapp.NewMenu("File", openFile, openFolder),
		fyneapp.NewMenu("View", fullscreen, theater),
	}
}

// BindKeys installs the dispatcher's keymap on the window canvas. With the
// modifier gate on, every binding becomes a Ctrl+Shift shortcut; otherwise
// plain typed runes are looked up.
func (w *MainWindow) BindKeys(d *input.Dispatcher) {
	d.SetFullscreenHandler(w.ToggleFullscreen)
	d.SetTheaterHandler(w.ToggleTheater)

	km := d.Keymap()
	if !km.RequiresModifier() {
		w.window.Canvas().SetOnTypedRune(func(r rune) { d.HandleKey(string(r), 0) })
		return
	}
	for _, b := range km.Bindings() {
		key := b.Key
		w.window.Canvas().AddShortcut(&desktop.CustomShortcut{
			KeyName:  fyneapp.KeyName(strings.ToUpper(key)),
			Modifier: fyneapp.KeyModifierControl | fyneapp.KeyModifierShift,
		}, func(fyneapp.Shortcut) {
			d.HandleKey(key, input.Gate)
		})
	}
}

// ToggleFullscreen switches the window in or out of fullscreen.
func (w *MainWindow) ToggleFullscreen() {
	w.window.SetFullScreen(!w.window.FullScreen())
}

// ToggleTheater hides or shows every panel around the surface.
func (w *MainWindow) ToggleTheater() {
	w.theater = !w.theater
	for _, o := range w.sides {
		if w.theater {
			o.Hide()
		} else {
			o.Show()
		}
	}
	w.window.Content().Refresh()
}

// IsTheater reports whether theater mode is on.
func (w *MainWindow) IsTheater() bool {
	return w.theater
}

// ShowAndRun shows the window and runs the application.
func (w *MainWindow) ShowAndRun() {
	w.window.ShowAndRun()
}

// Close closes the window. It's safe to call multiple times (idempotent).
func (w *MainWindow) Close() {
	w.closeOnce.Do(func() {
		w.window.Close()
	})
}

// GetWindow returns the underlying Fyne window.
func (w *MainWindow) GetWindow() fyneapp.Window {
	return w.window
}

// View interface implementation

// ApplyState renders a snapshot into every panel.
func (w *MainWindow) ApplyState(st domain.ApplicationState) {
	w.player.apply(st)
	w.songs.apply(st)
	w.props.apply(st)

	w.showFPS = st.ShowFPS
	w.refreshFPS()
}

// SetProgress updates the progress bar and time label.
func (w *MainWindow) SetProgress(progress domain.ProgressUpdatedEvent) {
	w.player.setProgress(progress)
	w.refreshFPS()
}

func (w *MainWindow) refreshFPS() {
	var fps float64
	if w.loop != nil {
		fps = w.loop.FPS()
	}
	w.surface.SetFPS(w.showFPS, fps)
}

// SetScheme rebuilds the scene tunables form.
func (w *MainWindow) SetScheme(fields []scene.ConfigField) {
	w.props.setScheme(fields)
}

// ClearSongForm empties the upload form.
func (w *MainWindow) ClearSongForm() {
	w.songs.clearForm()
}

// ShowAlert shows a modal message.
func (w *MainWindow) ShowAlert(title, message string) {
	dialog.ShowInformation(title, message, w.window)
}
