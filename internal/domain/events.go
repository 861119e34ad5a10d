// Package domain defines events for the event-driven architecture.
// Panels, the keyboard and file watchers publish intents; the StateStore is
// the only consumer that turns them into state changes.
package domain

import (
	"time"
)

// Event is the base interface for all events in the system.
// All events must implement this interface to be published via the event bus.
type Event interface {
	// Type returns the event type identifier
	Type() EventType

	// Timestamp returns when the event occurred
	Timestamp() time.Time
}

// Intent is an event describing a desired state change.
// Only types in this package can implement it.
type Intent interface {
	Event
	isIntent()
}

// EventType is a string identifier for different event types.
type EventType string

// Event type constants define all possible events in the system.
const (
	// State broadcast
	EventStateChanged EventType = "state.changed"

	// Playback intents
	EventSongStateChanged   EventType = "song.state_changed"
	EventNewSongSelected    EventType = "song.selected"
	EventVolumeChanged      EventType = "volume.changed"
	EventProgressBarClicked EventType = "progress.clicked"
	EventSongEnded          EventType = "song.ended"
	EventSongChanged        EventType = "song.changed"
	EventNextSong           EventType = "song.next"
	EventPreviousSong       EventType = "song.previous"
	EventSongUploaded       EventType = "song.uploaded"

	// Properties panel intents
	EventSceneIndexChanged EventType = "scene.index_changed"
	EventThemeIndexChanged EventType = "theme.index_changed"
	EventRotationToggled   EventType = "controls.rotation_toggled"
	EventPanToggled        EventType = "controls.pan_toggled"
	EventZoomToggled       EventType = "controls.zoom_toggled"
	EventThemeAdded        EventType = "theme.added"
	EventThemeUpdated      EventType = "theme.updated"
	EventThemeDeleted      EventType = "theme.deleted"

	// Keyboard intents
	EventAnimationToggled EventType = "animation.toggled"
	EventFPSToggled       EventType = "fps.toggled"

	// Notifications
	EventSongAccepted    EventType = "song.accepted"
	EventSongRejected    EventType = "song.rejected"
	EventSongLoaded      EventType = "song.loaded"
	EventSongLoadFailed  EventType = "song.load_failed"
	EventProgressUpdated EventType = "progress.updated"
	EventIntentRejected  EventType = "intent.rejected"
)

// IntentTypes lists every event type the StateStore dispatches.
func IntentTypes() []EventType {
	return []EventType{
		EventSongStateChanged,
		EventNewSongSelected,
		EventVolumeChanged,
		EventProgressBarClicked,
		EventSongEnded,
		EventSongChanged,
		EventNextSong,
		EventPreviousSong,
		EventSongUploaded,
		EventSceneIndexChanged,
		EventThemeIndexChanged,
		EventRotationToggled,
		EventPanToggled,
		EventZoomToggled,
		EventThemeAdded,
		EventThemeUpdated,
		EventThemeDeleted,
		EventAnimationToggled,
		EventFPSToggled,
	}
}

// EventHandler is a function that handles events.
type EventHandler func(event Event)

// SubscriptionID uniquely identifies an event subscription.
type SubscriptionID string

// baseEvent provides common event functionality.
// All concrete events should embed this struct.
type baseEvent struct {
	timestamp time.Time
}

// Timestamp returns when the event occurred.
func (e baseEvent) Timestamp() time.Time {
	return e.timestamp
}

// newBaseEvent creates a new base event with the current timestamp.
func newBaseEvent() baseEvent {
	return baseEvent{timestamp: time.Now()}
}

// intentEvent is embedded by every intent.
type intentEvent struct {
	baseEvent
}

func (intentEvent) isIntent() {}

func newIntentEvent() intentEvent {
	return intentEvent{baseEvent: newBaseEvent()}
}

// StateChangedEvent carries a full snapshot after every StateStore update.
type StateChangedEvent struct {
	baseEvent
	State ApplicationState
}

// Type returns the event type.
func (e StateChangedEvent) Type() EventType { return EventStateChanged }

// NewStateChangedEvent creates a new StateChangedEvent.
func NewStateChangedEvent(state ApplicationState) StateChangedEvent {
	return StateChangedEvent{baseEvent: newBaseEvent(), State: state}
}

// SongStateChangedEvent asks to play or pause the current song.
type SongStateChangedEvent struct {
	intentEvent
	IsPlaying bool
}

// Type returns the event type.
func (e SongStateChangedEvent) Type() EventType { return EventSongStateChanged }

// NewSongStateChangedEvent creates a new SongStateChangedEvent.
func NewSongStateChangedEvent(isPlaying bool) SongStateChangedEvent {
	return SongStateChangedEvent{intentEvent: newIntentEvent(), IsPlaying: isPlaying}
}

// NewSongSelectedEvent asks to load the song at CurrentSong.
type NewSongSelectedEvent struct {
	intentEvent
	CurrentSong int
	IsPlaying   bool
}

// Type returns the event type.
func (e NewSongSelectedEvent) Type() EventType { return EventNewSongSelected }

// NewNewSongSelectedEvent creates a new NewSongSelectedEvent.
func NewNewSongSelectedEvent(currentSong int, isPlaying bool) NewSongSelectedEvent {
	return NewSongSelectedEvent{intentEvent: newIntentEvent(), CurrentSong: currentSong, IsPlaying: isPlaying}
}

// VolumeChangedEvent asks to change the output volume.
type VolumeChangedEvent struct {
	intentEvent
	Volume float64
}

// Type returns the event type.
func (e VolumeChangedEvent) Type() EventType { return EventVolumeChanged }

// NewVolumeChangedEvent creates a new VolumeChangedEvent.
func NewVolumeChangedEvent(volume float64) VolumeChangedEvent {
	return VolumeChangedEvent{intentEvent: newIntentEvent(), Volume: volume}
}

// ProgressBarClickedEvent asks to seek. Position is a fraction of the song duration.
type ProgressBarClickedEvent struct {
	intentEvent
	Position  float64
	IsPlaying bool
}

// Type returns the event type.
func (e ProgressBarClickedEvent) Type() EventType { return EventProgressBarClicked }

// NewProgressBarClickedEvent creates a new ProgressBarClickedEvent.
func NewProgressBarClickedEvent(position float64, isPlaying bool) ProgressBarClickedEvent {
	return ProgressBarClickedEvent{intentEvent: newIntentEvent(), Position: position, IsPlaying: isPlaying}
}

// SongEndedEvent reports that the current song reached its end.
type SongEndedEvent struct {
	intentEvent
}

// Type returns the event type.
func (e SongEndedEvent) Type() EventType { return EventSongEnded }

// NewSongEndedEvent creates a new SongEndedEvent.
func NewSongEndedEvent() SongEndedEvent {
	return SongEndedEvent{intentEvent: newIntentEvent()}
}

// SongChangedEvent asks to reload and play the current song index.
type SongChangedEvent struct {
	intentEvent
}

// Type returns the event type.
func (e SongChangedEvent) Type() EventType { return EventSongChanged }

// NewSongChangedEvent creates a new SongChangedEvent.
func NewSongChangedEvent() SongChangedEvent {
	return SongChangedEvent{intentEvent: newIntentEvent()}
}

// NextSongEvent asks to advance to the next song, wrapping at the end.
type NextSongEvent struct {
	intentEvent
}

// Type returns the event type.
func (e NextSongEvent) Type() EventType { return EventNextSong }

// NewNextSongEvent creates a new NextSongEvent.
func NewNextSongEvent() NextSongEvent {
	return NextSongEvent{intentEvent: newIntentEvent()}
}

// PreviousSongEvent asks to go back one song, wrapping at the start.
type PreviousSongEvent struct {
	intentEvent
}

// Type returns the event type.
func (e PreviousSongEvent) Type() EventType { return EventPreviousSong }

// NewPreviousSongEvent creates a new PreviousSongEvent.
func NewPreviousSongEvent() PreviousSongEvent {
	return PreviousSongEvent{intentEvent: newIntentEvent()}
}

// SongUploadedEvent asks to append a song to the list.
// An empty ID is derived from the artist and song name.
type SongUploadedEvent struct {
	intentEvent
	ID         string
	ArtistName string
	SongName   string
	Src        string
}

// Type returns the event type.
func (e SongUploadedEvent) Type() EventType { return EventSongUploaded }

// Song returns the song described by the event.
func (e SongUploadedEvent) Song() Song {
	id := e.ID
	if id == "" {
		id = SongID(e.ArtistName, e.SongName)
	}
	return Song{ID: id, ArtistName: e.ArtistName, SongName: e.SongName, Src: e.Src}
}

// NewSongUploadedEvent creates a new SongUploadedEvent with a derived ID.
func NewSongUploadedEvent(artistName, songName, src string) SongUploadedEvent {
	return SongUploadedEvent{
		intentEvent: newIntentEvent(),
		ID:          SongID(artistName, songName),
		ArtistName:  artistName,
		SongName:    songName,
		Src:         src,
	}
}

// SceneIndexChangedEvent asks to switch the active scene.
type SceneIndexChangedEvent struct {
	intentEvent
	SceneIndex int
}

// Type returns the event type.
func (e SceneIndexChangedEvent) Type() EventType { return EventSceneIndexChanged }

// NewSceneIndexChangedEvent creates a new SceneIndexChangedEvent.
func NewSceneIndexChangedEvent(sceneIndex int) SceneIndexChangedEvent {
	return SceneIndexChangedEvent{intentEvent: newIntentEvent(), SceneIndex: sceneIndex}
}

// ThemeIndexChangedEvent asks to select another theme.
type ThemeIndexChangedEvent struct {
	intentEvent
	ThemeIndex         int
	SaveToLocalStorage bool
}

// Type returns the event type.
func (e ThemeIndexChangedEvent) Type() EventType { return EventThemeIndexChanged }

// NewThemeIndexChangedEvent creates a new ThemeIndexChangedEvent.
func NewThemeIndexChangedEvent(themeIndex int, save bool) ThemeIndexChangedEvent {
	return ThemeIndexChangedEvent{intentEvent: newIntentEvent(), ThemeIndex: themeIndex, SaveToLocalStorage: save}
}

// RotationToggledEvent enables or disables camera rotation.
type RotationToggledEvent struct {
	intentEvent
	Enabled bool
}

// Type returns the event type.
func (e RotationToggledEvent) Type() EventType { return EventRotationToggled }

// NewRotationToggledEvent creates a new RotationToggledEvent.
func NewRotationToggledEvent(enabled bool) RotationToggledEvent {
	return RotationToggledEvent{intentEvent: newIntentEvent(), Enabled: enabled}
}

// PanToggledEvent enables or disables camera panning.
type PanToggledEvent struct {
	intentEvent
	Enabled bool
}

// Type returns the event type.
func (e PanToggledEvent) Type() EventType { return EventPanToggled }

// NewPanToggledEvent creates a new PanToggledEvent.
func NewPanToggledEvent(enabled bool) PanToggledEvent {
	return PanToggledEvent{intentEvent: newIntentEvent(), Enabled: enabled}
}

// ZoomToggledEvent enables or disables camera zoom.
type ZoomToggledEvent struct {
	intentEvent
	Enabled bool
}

// Type returns the event type.
func (e ZoomToggledEvent) Type() EventType { return EventZoomToggled }

// NewZoomToggledEvent creates a new ZoomToggledEvent.
func NewZoomToggledEvent(enabled bool) ZoomToggledEvent {
	return ZoomToggledEvent{intentEvent: newIntentEvent(), Enabled: enabled}
}

// ThemeAddedEvent asks to append a theme to the collection.
type ThemeAddedEvent struct {
	intentEvent
	Theme Theme
}

// Type returns the event type.
func (e ThemeAddedEvent) Type() EventType { return EventThemeAdded }

// NewThemeAddedEvent creates a new ThemeAddedEvent.
func NewThemeAddedEvent(theme Theme) ThemeAddedEvent {
	return ThemeAddedEvent{intentEvent: newIntentEvent(), Theme: theme}
}

// ThemeUpdatedEvent asks to replace the theme at ThemeIndex.
type ThemeUpdatedEvent struct {
	intentEvent
	ThemeIndex int
	Theme      Theme
}

// Type returns the event type.
func (e ThemeUpdatedEvent) Type() EventType { return EventThemeUpdated }

// NewThemeUpdatedEvent creates a new ThemeUpdatedEvent.
func NewThemeUpdatedEvent(themeIndex int, theme Theme) ThemeUpdatedEvent {
	return ThemeUpdatedEvent{intentEvent: newIntentEvent(), ThemeIndex: themeIndex, Theme: theme}
}

// ThemeDeletedEvent asks to remove the theme at ThemeIndex.
type ThemeDeletedEvent struct {
	intentEvent
	ThemeIndex int
}

// Type returns the event type.
func (e ThemeDeletedEvent) Type() EventType { return EventThemeDeleted }

// NewThemeDeletedEvent creates a new ThemeDeletedEvent.
func NewThemeDeletedEvent(themeIndex int) ThemeDeletedEvent {
	return ThemeDeletedEvent{intentEvent: newIntentEvent(), ThemeIndex: themeIndex}
}

// AnimationToggledEvent starts or stops the frame loop.
type AnimationToggledEvent struct {
	intentEvent
	Running bool
}

// Type returns the event type.
func (e AnimationToggledEvent) Type() EventType { return EventAnimationToggled }

// NewAnimationToggledEvent creates a new AnimationToggledEvent.
func NewAnimationToggledEvent(running bool) AnimationToggledEvent {
	return AnimationToggledEvent{intentEvent: newIntentEvent(), Running: running}
}

// FPSToggledEvent shows or hides the frame counter.
type FPSToggledEvent struct {
	intentEvent
	Enabled bool
}

// Type returns the event type.
func (e FPSToggledEvent) Type() EventType { return EventFPSToggled }

// NewFPSToggledEvent creates a new FPSToggledEvent.
func NewFPSToggledEvent(enabled bool) FPSToggledEvent {
	return FPSToggledEvent{intentEvent: newIntentEvent(), Enabled: enabled}
}

// SongAcceptedEvent is published after an upload was appended to the list.
type SongAcceptedEvent struct {
	baseEvent
	Song Song
}

// Type returns the event type.
func (e SongAcceptedEvent) Type() EventType { return EventSongAccepted }

// NewSongAcceptedEvent creates a new SongAcceptedEvent.
func NewSongAcceptedEvent(song Song) SongAcceptedEvent {
	return SongAcceptedEvent{baseEvent: newBaseEvent(), Song: song}
}

// SongRejectedEvent is published when an upload is refused. The form that
// sent it should stay filled so the user can correct it.
type SongRejectedEvent struct {
	baseEvent
	Song   Song
	Reason error
}

// Type returns the event type.
func (e SongRejectedEvent) Type() EventType { return EventSongRejected }

// NewSongRejectedEvent creates a new SongRejectedEvent.
func NewSongRejectedEvent(song Song, reason error) SongRejectedEvent {
	return SongRejectedEvent{baseEvent: newBaseEvent(), Song: song, Reason: reason}
}

// SongLoadedEvent is published when the transport finished loading a song.
type SongLoadedEvent struct {
	baseEvent
	Song     Song
	Index    int
	Duration time.Duration
}

// Type returns the event type.
func (e SongLoadedEvent) Type() EventType { return EventSongLoaded }

// NewSongLoadedEvent creates a new SongLoadedEvent.
func NewSongLoadedEvent(song Song, index int, duration time.Duration) SongLoadedEvent {
	return SongLoadedEvent{baseEvent: newBaseEvent(), Song: song, Index: index, Duration: duration}
}

// SongLoadFailedEvent is published when loading a song fails.
type SongLoadFailedEvent struct {
	baseEvent
	Song  Song
	Index int
	Err   error
}

// Type returns the event type.
func (e SongLoadFailedEvent) Type() EventType { return EventSongLoadFailed }

// NewSongLoadFailedEvent creates a new SongLoadFailedEvent.
func NewSongLoadFailedEvent(song Song, index int, err error) SongLoadFailedEvent {
	return SongLoadFailedEvent{baseEvent: newBaseEvent(), Song: song, Index: index, Err: err}
}

// ProgressUpdatedEvent is published periodically while a song plays.
type ProgressUpdatedEvent struct {
	baseEvent
	Current  time.Duration
	Duration time.Duration
	Fraction float64
	Label    string
}

// Type returns the event type.
func (e ProgressUpdatedEvent) Type() EventType { return EventProgressUpdated }

// NewProgressUpdatedEvent creates a new ProgressUpdatedEvent.
func NewProgressUpdatedEvent(current, duration time.Duration) ProgressUpdatedEvent {
	fraction := 0.0
	if duration > 0 {
		fraction = float64(current) / float64(duration)
		if fraction > 1 {
			fraction = 1
		}
	}
	return ProgressUpdatedEvent{
		baseEvent: newBaseEvent(),
		Current:   current,
		Duration:  duration,
		Fraction:  fraction,
		Label:     FormatClock(current) + " / " + FormatClock(duration),
	}
}

// IntentRejectedEvent is published when the dispatcher refuses an intent.
type IntentRejectedEvent struct {
	baseEvent
	Intent EventType
	Err    error
}

// Type returns the event type.
func (e IntentRejectedEvent) Type() EventType { return EventIntentRejected }

// NewIntentRejectedEvent creates a new IntentRejectedEvent.
func NewIntentRejectedEvent(intent EventType, err error) IntentRejectedEvent {
	return IntentRejectedEvent{baseEvent: newBaseEvent(), Intent: intent, Err: err}
}
