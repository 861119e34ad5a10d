package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/soundscape/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/soundscape/internal/domain"
	"github.com/tejashwikalptaru/soundscape/internal/logger"
)

type staticState struct {
	st domain.ApplicationState
}

func (s staticState) State() domain.ApplicationState { return s.st }

// Helper to create a dispatcher that records every published event
func newTestDispatcher(st domain.ApplicationState, requireModifier bool) (*Dispatcher, *[]domain.Event) {
	log := logger.NewTestLogger()
	bus := eventbus.NewSyncEventBus(log)
	var events []domain.Event
	bus.SubscribeAll(func(e domain.Event) { events = append(events, e) })
	return NewDispatcher(log, bus, staticState{st}, DefaultKeymap(requireModifier)), &events
}

func TestKeymap_Lookup(t *testing.T) {
	k := DefaultKeymap(false)

	tests := []struct {
		key  string
		want Action
	}{
		{"p", ActionPlayPause},
		{"P", ActionPlayPause},
		{"n", ActionNext},
		{"b", ActionPrevious},
		{"]", ActionToggleAnimation},
		{"f", ActionToggleFullscreen},
		{"t", ActionToggleTheater},
		{"s", ActionToggleFPS},
		{"d", ActionDebugDump},
		{"x", ActionNone},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, k.Lookup(tt.key, 0), tt.key)
	}
}

func TestKeymap_ModifierGate(t *testing.T) {
	k := DefaultKeymap(true)

	assert.True(t, k.RequiresModifier())
	assert.Equal(t, ActionNone, k.Lookup("p", 0))
	assert.Equal(t, ActionNone, k.Lookup("p", ModCtrl))
	assert.Equal(t, ActionNone, k.Lookup("p", ModShift|ModAlt))
	assert.Equal(t, ActionPlayPause, k.Lookup("p", ModCtrl|ModShift))
	assert.Equal(t, ActionPlayPause, k.Lookup("p", ModCtrl|ModShift|ModAlt))
}

func TestKeymap_BindAndUnbind(t *testing.T) {
	k := DefaultKeymap(false)

	k.Bind("Space", ActionPlayPause)
	k.Bind("p", ActionNone)

	assert.Equal(t, ActionPlayPause, k.Lookup("space", 0))
	assert.Equal(t, ActionNone, k.Lookup("p", 0))

	bindings := k.Bindings()
	require.NotEmpty(t, bindings)
	for i := 1; i < len(bindings); i++ {
		assert.Less(t, bindings[i-1].Key, bindings[i].Key)
	}
}

func TestAction_String(t *testing.T) {
	assert.Equal(t, "play/pause", ActionPlayPause.String())
	assert.Equal(t, "unknown", Action(99).String())
}

func TestDispatcher_TogglesFromState(t *testing.T) {
	st := domain.ApplicationState{IsPlaying: true, IsAnimationRunning: false, ShowFPS: true}
	d, events := newTestDispatcher(st, false)

	require.NoError(t, d.Perform(ActionPlayPause))
	require.NoError(t, d.Perform(ActionToggleAnimation))
	require.NoError(t, d.Perform(ActionToggleFPS))
	require.NoError(t, d.Perform(ActionNext))
	require.NoError(t, d.Perform(ActionPrevious))

	require.Len(t, *events, 5)
	assert.False(t, (*events)[0].(domain.SongStateChangedEvent).IsPlaying)
	assert.True(t, (*events)[1].(domain.AnimationToggledEvent).Running)
	assert.False(t, (*events)[2].(domain.FPSToggledEvent).Enabled)
	assert.Equal(t, domain.EventNextSong, (*events)[3].Type())
	assert.Equal(t, domain.EventPreviousSong, (*events)[4].Type())
}

func TestDispatcher_HandleKey(t *testing.T) {
	d, events := newTestDispatcher(domain.ApplicationState{}, true)

	assert.False(t, d.HandleKey("p", 0), "ungated press ignored")
	assert.Empty(t, *events)

	assert.True(t, d.HandleKey("P", Gate))
	require.Len(t, *events, 1)
	assert.True(t, (*events)[0].(domain.SongStateChangedEvent).IsPlaying)

	assert.False(t, d.HandleKey("q", Gate))
}

func TestDispatcher_WindowHandlers(t *testing.T) {
	d, events := newTestDispatcher(domain.ApplicationState{}, false)

	var serviceErr *domain.ServiceError
	require.ErrorAs(t, d.Perform(ActionToggleFullscreen), &serviceErr)
	assert.ErrorIs(t, serviceErr, domain.ErrNotInitialized)
	assert.True(t, d.HandleKey("t", 0), "bound even without a handler")

	fullscreen, theater := 0, 0
	d.SetFullscreenHandler(func() { fullscreen++ })
	d.SetTheaterHandler(func() { theater++ })

	require.NoError(t, d.Perform(ActionToggleFullscreen))
	require.NoError(t, d.Perform(ActionToggleTheater))
	assert.Equal(t, 1, fullscreen)
	assert.Equal(t, 1, theater)
	assert.Empty(t, *events, "window actions publish nothing")
}

func TestDispatcher_DebugDumpAndUnknown(t *testing.T) {
	d, events := newTestDispatcher(domain.ApplicationState{SongList: []domain.Song{{ID: "a b"}}}, false)

	assert.NoError(t, d.Perform(ActionDebugDump))
	assert.Empty(t, *events)

	assert.ErrorIs(t, d.Perform(Action(42)), domain.ErrInvalidFieldValue)
	assert.ErrorIs(t, d.Perform(ActionNone), domain.ErrInvalidFieldValue)
}
