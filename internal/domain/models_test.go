package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want uint32
	}{
		{"#2607a6", 0x2607a6},
		{"0x5500ff", 0x5500ff},
		{"FFFFFF", 0xffffff},
		{" #000000 ", 0x000000},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c, err := ParseColor(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Packed())
		})
	}
}

func TestParseColor_Invalid(t *testing.T) {
	for _, in := range []string{"", "#fff", "#gggggg", "0x1234567"} {
		_, err := ParseColor(in)
		assert.ErrorIs(t, err, ErrInvalidTheme, in)
	}
}

func TestColor_JSONRoundTrip(t *testing.T) {
	theme := Theme{Name: "t", Color: Hex(0x2607a6), TransitionColor: Hex(0x5500ff), BackgroundColor: Hex(0)}

	data, err := json.Marshal(theme)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"color":"#2607a6"`)

	var back Theme
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, theme.Color.Packed(), back.Color.Packed())
	assert.Equal(t, theme.TransitionColor.Packed(), back.TransitionColor.Packed())
}

func TestLerp(t *testing.T) {
	a := Color{R: 0, G: 0, B: 0}
	b := Color{R: 1, G: 0.5, B: 0.25}

	assert.Equal(t, a, Lerp(a, b, 0))
	assert.Equal(t, b, Lerp(a, b, 1))
	mid := Lerp(a, b, 0.5)
	assert.InDelta(t, 0.5, mid.R, 1e-9)
	assert.InDelta(t, 0.25, mid.G, 1e-9)
	assert.InDelta(t, 0.125, mid.B, 1e-9)
}

func TestSongID(t *testing.T) {
	assert.Equal(t, "A B", SongID("A", "B"))

	e := SongUploadedEvent{ArtistName: "System of a Down", SongName: "Forest"}
	assert.Equal(t, "System of a Down Forest", e.Song().ID)
}

func TestStatePatch_ShallowMerge(t *testing.T) {
	base := ApplicationState{Volume: 0.5, SceneIndex: 1, Themes: DefaultThemes()}
	vol := 0.9
	scene := 0

	got := StatePatch{Volume: &vol}.Apply(base)
	assert.Equal(t, 0.9, got.Volume)
	assert.Equal(t, 1, got.SceneIndex)
	assert.Len(t, got.Themes, len(base.Themes))

	got = StatePatch{SceneIndex: &scene, SongList: []Song{{ID: "x"}}}.Apply(got)
	assert.Equal(t, 0, got.SceneIndex)
	assert.Equal(t, []Song{{ID: "x"}}, got.SongList)
}

func TestApplicationState_CloneDoesNotAlias(t *testing.T) {
	s := ApplicationState{Themes: DefaultThemes(), SongList: []Song{{ID: "a"}}}
	c := s.Clone()
	c.Themes[0].Name = "changed"
	c.SongList[0].ID = "b"

	assert.NotEqual(t, "changed", s.Themes[0].Name)
	assert.Equal(t, "a", s.SongList[0].ID)
}

func TestApplicationState_CurrentTheme(t *testing.T) {
	s := ApplicationState{Themes: DefaultThemes(), ThemeIndex: 1}
	theme, ok := s.CurrentTheme()
	require.True(t, ok)
	assert.Equal(t, DefaultThemes()[1].Name, theme.Name)

	s.ThemeIndex = 99
	_, ok = s.CurrentTheme()
	assert.False(t, ok)
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "00:00", FormatClock(0))
	assert.Equal(t, "00:09", FormatClock(9*time.Second+900*time.Millisecond))
	assert.Equal(t, "03:05", FormatClock(185*time.Second))
	assert.Equal(t, "61:01", FormatClock(time.Hour+61*time.Second))
	assert.Equal(t, "00:00", FormatClock(-time.Second))
}

func TestValidationError_Unwrap(t *testing.T) {
	err := NewValidationError("themeIndex", 3, "out of range", ErrInvalidIndex)
	assert.True(t, errors.Is(err, ErrInvalidIndex))
	assert.Contains(t, err.Error(), "themeIndex")
}

func TestProgressUpdatedEvent(t *testing.T) {
	e := NewProgressUpdatedEvent(30*time.Second, 2*time.Minute)
	assert.InDelta(t, 0.25, e.Fraction, 1e-9)
	assert.Equal(t, "00:30 / 02:00", e.Label)

	e = NewProgressUpdatedEvent(time.Second, 0)
	assert.Equal(t, 0.0, e.Fraction)
}

func TestIntentTypes_AreIntents(t *testing.T) {
	var intents = []Intent{
		NewSongStateChangedEvent(true),
		NewNewSongSelectedEvent(0, true),
		NewVolumeChangedEvent(0.5),
		NewProgressBarClickedEvent(0.5, true),
		NewSongEndedEvent(),
		NewSongChangedEvent(),
		NewNextSongEvent(),
		NewPreviousSongEvent(),
		NewSongUploadedEvent("a", "b", ""),
		NewSceneIndexChangedEvent(0),
		NewThemeIndexChangedEvent(0, true),
		NewRotationToggledEvent(true),
		NewPanToggledEvent(true),
		NewZoomToggledEvent(true),
		NewThemeAddedEvent(Theme{Name: "x"}),
		NewThemeUpdatedEvent(0, Theme{Name: "x"}),
		NewThemeDeletedEvent(0),
		NewAnimationToggledEvent(true),
		NewFPSToggledEvent(true),
	}

	types := IntentTypes()
	require.Len(t, intents, len(types))
	for i, intent := range intents {
		assert.Equal(t, types[i], intent.Type())
		assert.False(t, intent.Timestamp().IsZero())
	}
}
