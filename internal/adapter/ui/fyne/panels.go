package fyne

import (
	"fmt"
	"strconv"

	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/samber/lo"

	"github.com/tejashwikalptaru/soundscape/internal/adapter/ui/fyne/widgets"
	"github.com/tejashwikalptaru/soundscape/internal/domain"
	"github.com/tejashwikalptaru/soundscape/internal/scene"
)

const titleWidth = 40

// Panels render snapshots and forward edits to the presenter. The syncing
// flag suppresses callbacks fired by their own programmatic updates.

// playerPanel holds transport buttons, volume, and the progress bar.
type playerPanel struct {
	presenter func() *Presenter

	prev, play, next *widget.Button
	volume           *widget.Slider
	progress         *widget.Slider
	elapsed          *widget.Label
	title            *widget.Label
	marquee          *widgets.Marquee
	current          string

	content fyneapp.CanvasObject
}

func newPlayerPanel(presenter func() *Presenter) *playerPanel {
	p := &playerPanel{presenter: presenter, marquee: widgets.NewMarquee("", titleWidth)}

	p.prev = widget.NewButtonWithIcon("", theme.MediaSkipPreviousIcon(), func() { p.presenter().OnPreviousClicked() })
	p.play = widget.NewButtonWithIcon("", theme.MediaPlayIcon(), func() { p.presenter().OnPlayPauseClicked() })
	p.next = widget.NewButtonWithIcon("", theme.MediaSkipNextIcon(), func() { p.presenter().OnNextClicked() })

	p.volume = widget.NewSlider(0, 1)
	p.volume.Step = 0.01
	p.volume.OnChangeEnded = func(v float64) { p.presenter().OnVolumeChanged(v) }

	p.progress = widget.NewSlider(0, 1)
	p.progress.Step = 0.001
	p.progress.OnChangeEnded = func(v float64) { p.presenter().OnSeekRequested(v) }

	p.elapsed = widget.NewLabel("00:00 / 00:00")
	p.title = widget.NewLabel("No song loaded")
	p.title.Truncation = fyneapp.TextTruncateClip
	p.title.TextStyle = fyneapp.TextStyle{Bold: true, Italic: true}

	buttons := container.NewHBox(p.prev, p.play, p.next)
	volumeHolder := container.NewBorder(nil, nil, widget.NewIcon(theme.VolumeUpIcon()), nil, p.volume)
	top := container.NewBorder(nil, nil, buttons, container.NewGridWrap(fyneapp.NewSize(160, 36), volumeHolder), p.title)
	p.content = container.NewVBox(top, container.NewBorder(nil, nil, nil, p.elapsed, p.progress))
	return p
}

func (p *playerPanel) apply(st domain.ApplicationState) {
	if st.IsPlaying {
		p.play.SetIcon(theme.MediaPauseIcon())
	} else {
		p.play.SetIcon(theme.MediaPlayIcon())
	}

	// assigning Value directly does not fire OnChangeEnded
	p.volume.Value = st.Volume
	p.volume.Refresh()

	text := "No song loaded"
	if song, ok := st.CurrentSong(); ok {
		text = fmt.Sprintf("%s - %s", song.ArtistName, song.SongName)
	}
	if text != p.current {
		p.current = text
		p.marquee.SetText(text)
		p.title.SetText(p.marquee.Text())
	}
}

func (p *playerPanel) setProgress(e domain.ProgressUpdatedEvent) {
	p.progress.Value = e.Fraction
	p.progress.Refresh()
	p.elapsed.SetText(e.Label)
	p.title.SetText(p.marquee.Step())
}

// songPanel lists the songs and hosts the upload form.
type songPanel struct {
	presenter func() *Presenter

	songs   []domain.Song
	list    *widget.List
	syncing bool

	artist, name, src *widget.Entry

	content fyneapp.CanvasObject
}

func newSongPanel(presenter func() *Presenter) *songPanel {
	p := &songPanel{presenter: presenter}

	p.list = widget.NewList(
		func() int { return len(p.songs) },
		func() fyneapp.CanvasObject { return widget.NewLabel("") },
		func(id widget.ListItemID, o fyneapp.CanvasObject) {
			song := p.songs[id]
			o.(*widget.Label).SetText(fmt.Sprintf("%s - %s", song.ArtistName, song.SongName))
		},
	)
	p.list.OnSelected = func(id widget.ListItemID) {
		if !p.syncing {
			p.presenter().OnSongSelected(id)
		}
	}

	p.artist = widget.NewEntry()
	p.artist.SetPlaceHolder("Artist")
	p.name = widget.NewEntry()
	p.name.SetPlaceHolder("Song")
	p.src = widget.NewEntry()
	p.src.SetPlaceHolder("File or URL")

	add := widget.NewButtonWithIcon("Add", theme.ContentAddIcon(), func() {
		p.presenter().OnSongSubmitted(p.artist.Text, p.name.Text, p.src.Text)
	})
	form := container.NewVBox(widget.NewLabel("Upload"), p.artist, p.name, p.src, add)

	p.content = container.NewBorder(widget.NewLabelWithStyle("Songs", fyneapp.TextAlignLeading, fyneapp.TextStyle{Bold: true}), form, nil, nil, p.list)
	return p
}

func (p *songPanel) apply(st domain.ApplicationState) {
	p.syncing = true
	defer func() { p.syncing = false }()

	p.songs = st.SongList
	p.list.Refresh()
	if len(p.songs) == 0 {
		p.list.UnselectAll()
		return
	}
	p.list.Select(st.CurrentSongIndex)
}

// clearForm empties the upload form after the song was accepted.
func (p *songPanel) clearForm() {
	p.artist.SetText("")
	p.name.SetText("")
	p.src.SetText("")
}

// propertiesPanel edits scene, theme, camera toggles, and scene tunables.
type propertiesPanel struct {
	presenter func() *Presenter
	alert     func(title, message string)
	syncing   bool

	scenes *widget.Select
	themes *widget.Select

	rotation, pan, zoom *widget.Check
	animation, fps      *widget.Check

	scheme *fyneapp.Container

	themeName, color, transition, background *widget.Entry

	content fyneapp.CanvasObject
}

func newPropertiesPanel(presenter func() *Presenter, sceneNames []string, alert func(title, message string)) *propertiesPanel {
	p := &propertiesPanel{presenter: presenter, alert: alert}

	p.scenes = widget.NewSelect(sceneNames, func(string) {
		if !p.syncing {
			p.presenter().OnSceneSelected(p.scenes.SelectedIndex())
		}
	})
	p.themes = widget.NewSelect(nil, func(string) {
		if !p.syncing {
			p.presenter().OnThemeSelected(p.themes.SelectedIndex())
		}
	})
	deleteTheme := widget.NewButtonWithIcon("", theme.DeleteIcon(), func() { p.presenter().OnThemeDeleteClicked() })

	p.rotation = p.check("Rotation", func(b bool) { p.presenter().OnRotationToggled(b) })
	p.pan = p.check("Pan", func(b bool) { p.presenter().OnPanToggled(b) })
	p.zoom = p.check("Zoom", func(b bool) { p.presenter().OnZoomToggled(b) })
	p.animation = p.check("Animate", func(b bool) { p.presenter().OnAnimationToggled(b) })
	p.fps = p.check("Show FPS", func(b bool) { p.presenter().OnFPSToggled(b) })

	p.scheme = container.NewVBox()

	p.themeName = widget.NewEntry()
	p.themeName.SetPlaceHolder("Name")
	p.color = widget.NewEntry()
	p.color.SetPlaceHolder("#2607a6")
	p.transition = widget.NewEntry()
	p.transition.SetPlaceHolder("#5500ff")
	p.background = widget.NewEntry()
	p.background.SetPlaceHolder("#000000")
	addTheme := widget.NewButtonWithIcon("Add theme", theme.ContentAddIcon(), func() {
		err := p.presenter().OnThemeSubmitted(p.themeName.Text, p.color.Text, p.transition.Text, p.background.Text)
		if err != nil {
			p.alert("Theme", err.Error())
			return
		}
		p.themeName.SetText("")
	})

	p.content = container.NewVScroll(container.NewVBox(
		widget.NewForm(
			widget.NewFormItem("Scene", p.scenes),
			widget.NewFormItem("Theme", container.NewBorder(nil, nil, nil, deleteTheme, p.themes)),
		),
		container.NewGridWithColumns(2, p.rotation, p.pan, p.zoom, p.animation, p.fps),
		widget.NewSeparator(),
		p.scheme,
		widget.NewSeparator(),
		widget.NewLabel("Custom theme"),
		widget.NewForm(
			widget.NewFormItem("Name", p.themeName),
			widget.NewFormItem("Color", p.color),
			widget.NewFormItem("Transition", p.transition),
			widget.NewFormItem("Background", p.background),
		),
		addTheme,
		layout.NewSpacer(),
	))
	return p
}

func (p *propertiesPanel) check(label string, fn func(bool)) *widget.Check {
	return widget.NewCheck(label, func(b bool) {
		if !p.syncing {
			fn(b)
		}
	})
}

func (p *propertiesPanel) apply(st domain.ApplicationState) {
	p.syncing = true
	defer func() { p.syncing = false }()

	p.scenes.SetSelectedIndex(st.SceneIndex)
	p.themes.SetOptions(lo.Map(st.Themes, func(t domain.Theme, _ int) string { return t.Name }))
	p.themes.SetSelectedIndex(st.ThemeIndex)

	p.rotation.SetChecked(st.RotationEnabled)
	p.pan.SetChecked(st.PanEnabled)
	p.zoom.SetChecked(st.ZoomEnabled)
	p.animation.SetChecked(st.IsAnimationRunning)
	p.fps.SetChecked(st.ShowFPS)
}

// setScheme rebuilds the tunables form. Fields arrive sorted by order.
func (p *propertiesPanel) setScheme(fields []scene.ConfigField) {
	p.scheme.RemoveAll()
	for _, f := range fields {
		p.scheme.Add(p.fieldControl(f))
	}
	p.scheme.Refresh()
}

func (p *propertiesPanel) fieldControl(f scene.ConfigField) fyneapp.CanvasObject {
	key := f.Key
	switch f.Kind {
	case scene.FieldCheckbox:
		c := widget.NewCheck(f.Label, func(b bool) {
			if err := p.presenter().OnFieldChanged(key, lo.Ternary(b, 1.0, 0.0)); err != nil {
				p.alert(f.Label, err.Error())
			}
		})
		c.Checked = f.Default != 0
		return c
	default:
		e := widget.NewEntry()
		e.SetText(strconv.FormatFloat(f.Default, 'g', -1, 64))
		e.OnSubmitted = func(text string) {
			v, err := strconv.ParseFloat(text, 64)
			if err == nil {
				err = p.presenter().OnFieldChanged(key, v)
			}
			if err != nil {
				p.alert(f.Label, err.Error())
			}
		}
		return container.NewBorder(nil, nil, widget.NewLabel(f.Label), nil, e)
	}
}
