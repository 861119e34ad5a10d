// Package domain contains core models and logic with no external dependencies.
// This package defines the fundamental entities of the soundscape visualizer.
package domain

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Color is an RGB triple with each channel in the 0..1 range.
// It marshals to and from the text form "#rrggbb"; "0xrrggbb" is accepted on input.
type Color struct {
	R float64
	G float64
	B float64
}

// Hex creates a Color from a packed 0xRRGGBB value.
func Hex(v uint32) Color {
	return Color{
		R: float64((v>>16)&0xff) / 255,
		G: float64((v>>8)&0xff) / 255,
		B: float64(v&0xff) / 255,
	}
}

// ParseColor parses "#rrggbb", "0xrrggbb" or "rrggbb".
func ParseColor(s string) (Color, error) {
	raw := strings.TrimSpace(s)
	raw = strings.TrimPrefix(raw, "#")
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "0x"), "0X")
	if len(raw) != 6 {
		return Color{}, NewValidationError("color", s, "expected six hex digits", ErrInvalidTheme)
	}
	v, err := strconv.ParseUint(raw, 16, 32)
	if err != nil {
		return Color{}, NewValidationError("color", s, "invalid hex value", ErrInvalidTheme)
	}
	return Hex(uint32(v)), nil
}

// Packed returns the color as 0xRRGGBB.
func (c Color) Packed() uint32 {
	return uint32(channel(c.R))<<16 | uint32(channel(c.G))<<8 | uint32(channel(c.B))
}

// String returns the "#rrggbb" form.
func (c Color) String() string {
	return fmt.Sprintf("#%06x", c.Packed())
}

// MarshalText implements encoding.TextMarshaler.
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Lerp linearly interpolates between a and b. t is not clamped.
func Lerp(a, b Color, t float64) Color {
	return Color{
		R: a.R + (b.R-a.R)*t,
		G: a.G + (b.G-a.G)*t,
		B: a.B + (b.B-a.B)*t,
	}
}

func channel(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
}

// Theme is a named bundle of colors used by scenes and by the UI accents.
// Themes are values: editing a collection replaces entries, it never mutates
// a slice that a running scene holds.
type Theme struct {
	Name            string `json:"name" yaml:"name"`
	Color           Color  `json:"color" yaml:"color"`
	TransitionColor Color  `json:"transitionColor" yaml:"transition_color"`
	BackgroundColor Color  `json:"backgroundColor" yaml:"background_color"`
}

// Validate checks that the theme can be stored in a collection.
func (t Theme) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return NewValidationError("name", t.Name, "theme name is required", ErrInvalidTheme)
	}
	return nil
}

// DefaultThemes returns the built-in theme collection. It is never empty.
func DefaultThemes() []Theme {
	return []Theme{
		{Name: "Ultraviolet", Color: Hex(0x2607a6), TransitionColor: Hex(0x5500ff), BackgroundColor: Hex(0x000000)},
		{Name: "Ember", Color: Hex(0xffffff), TransitionColor: Hex(0xff0000), BackgroundColor: Hex(0x0b0b0b)},
		{Name: "Lagoon", Color: Hex(0x00a6a6), TransitionColor: Hex(0xefca08), BackgroundColor: Hex(0x04151f)},
		{Name: "Moss", Color: Hex(0x3a5a40), TransitionColor: Hex(0xdad7cd), BackgroundColor: Hex(0x101410)},
	}
}

// Song is an entry in the playlist.
type Song struct {
	// ID is derived from the artist and title, see SongID
	ID string `json:"id"`

	ArtistName string `json:"artistName"`
	SongName   string `json:"songName"`

	// Src locates the audio data (file path or URL)
	Src string `json:"src,omitempty"`
}

// SongID derives the unique song identifier from artist and title.
func SongID(artistName, songName string) string {
	return artistName + " " + songName
}

// ApplicationState is the single record owned by the StateStore.
// Other components only ever see copies of it.
type ApplicationState struct {
	// Playback
	IsPlaying        bool    `json:"isPlaying"`
	CurrentSongIndex int     `json:"currentSongIndex"`
	Volume           float64 `json:"volume"`

	// UI toggles
	RotationEnabled    bool `json:"rotationEnabled"`
	PanEnabled         bool `json:"panEnabled"`
	ZoomEnabled        bool `json:"zoomEnabled"`
	IsAnimationRunning bool `json:"isAnimationRunning"`
	ShowFPS            bool `json:"showFps"`

	// Selection indices, always valid for their collections
	SceneIndex int `json:"sceneIndex"`
	ThemeIndex int `json:"themeIndex"`

	// Collections
	SongList []Song  `json:"songList"`
	Themes   []Theme `json:"themes"`

	// ProgressTicking is true while the progress tracker is running
	ProgressTicking bool `json:"progressTicking"`

	// Version increments on every update
	Version uint64 `json:"version"`
}

// Clone returns a deep copy of the state. Collections are copied so that
// callers can never alias the store's slices.
func (s ApplicationState) Clone() ApplicationState {
	out := s
	out.SongList = slices.Clone(s.SongList)
	out.Themes = slices.Clone(s.Themes)
	return out
}

// CurrentTheme returns the selected theme, or false if the index is out of range.
func (s ApplicationState) CurrentTheme() (Theme, bool) {
	if s.ThemeIndex < 0 || s.ThemeIndex >= len(s.Themes) {
		return Theme{}, false
	}
	return s.Themes[s.ThemeIndex], true
}

// CurrentSong returns the selected song, or false if the list is empty.
func (s ApplicationState) CurrentSong() (Song, bool) {
	if s.CurrentSongIndex < 0 || s.CurrentSongIndex >= len(s.SongList) {
		return Song{}, false
	}
	return s.SongList[s.CurrentSongIndex], true
}

// StatePatch describes a shallow update of ApplicationState.
// Nil fields are left untouched; a non-nil slice replaces the whole collection.
type StatePatch struct {
	IsPlaying        *bool
	CurrentSongIndex *int
	Volume           *float64

	RotationEnabled    *bool
	PanEnabled         *bool
	ZoomEnabled        *bool
	IsAnimationRunning *bool
	ShowFPS            *bool

	SceneIndex *int
	ThemeIndex *int

	SongList []Song
	Themes   []Theme

	ProgressTicking *bool
}

// Apply merges the patch into s and returns the result.
func (p StatePatch) Apply(s ApplicationState) ApplicationState {
	if p.IsPlaying != nil {
		s.IsPlaying = *p.IsPlaying
	}
	if p.CurrentSongIndex != nil {
		s.CurrentSongIndex = *p.CurrentSongIndex
	}
	if p.Volume != nil {
		s.Volume = *p.Volume
	}
	if p.RotationEnabled != nil {
		s.RotationEnabled = *p.RotationEnabled
	}
	if p.PanEnabled != nil {
		s.PanEnabled = *p.PanEnabled
	}
	if p.ZoomEnabled != nil {
		s.ZoomEnabled = *p.ZoomEnabled
	}
	if p.IsAnimationRunning != nil {
		s.IsAnimationRunning = *p.IsAnimationRunning
	}
	if p.ShowFPS != nil {
		s.ShowFPS = *p.ShowFPS
	}
	if p.SceneIndex != nil {
		s.SceneIndex = *p.SceneIndex
	}
	if p.ThemeIndex != nil {
		s.ThemeIndex = *p.ThemeIndex
	}
	if p.SongList != nil {
		s.SongList = slices.Clone(p.SongList)
	}
	if p.Themes != nil {
		s.Themes = slices.Clone(p.Themes)
	}
	if p.ProgressTicking != nil {
		s.ProgressTicking = *p.ProgressTicking
	}
	return s
}

// FormatClock renders a duration as zero-padded "mm:ss".
// Minutes are not wrapped at one hour.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
