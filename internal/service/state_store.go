// Package service provides the application logic of soundscape.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/samber/lo"

	"github.com/tejashwikalptaru/soundscape/internal/domain"
	"github.com/tejashwikalptaru/soundscape/internal/ports"
)

const storeName = "StateStore"

// DefaultState returns the state used when nothing was persisted.
func DefaultState() domain.ApplicationState {
	return domain.ApplicationState{
		Volume:             0.5,
		RotationEnabled:    true,
		PanEnabled:         true,
		ZoomEnabled:        true,
		IsAnimationRunning: true,
		Themes:             domain.DefaultThemes(),
	}
}

// StateStore owns the ApplicationState. It is the only consumer of intents:
// each one is validated, merged and broadcast as a StateChangedEvent.
//
// Merges happen under the store mutex; the broadcast happens after unlock so
// handlers may read the store again. Song loads run on their own goroutines.
// Only the most recently requested load may change the transport or the state.
type StateStore struct {
	// Dependencies (injected)
	logger     *slog.Logger
	bus        ports.EventBus
	transport  ports.Transport
	sceneCount int

	// State
	state domain.ApplicationState
	subs  []domain.SubscriptionID
	mu    sync.Mutex

	// Loads
	ctx        context.Context
	cancel     context.CancelFunc
	loadMu     sync.Mutex
	loadSerial sync.Mutex
	loadID     uint64
	loadCancel context.CancelFunc
	loadWg     sync.WaitGroup
	closed     bool
}

// NewStateStore creates a store holding initial. sceneCount bounds SceneIndex.
func NewStateStore(
	logger *slog.Logger,
	bus ports.EventBus,
	transport ports.Transport,
	sceneCount int,
	initial domain.ApplicationState,
) *StateStore {
	ctx, cancel := context.WithCancel(context.Background())
	s := &StateStore{
		logger:     logger.With(slog.String("service", "state_store")),
		bus:        bus,
		transport:  transport,
		sceneCount: sceneCount,
		state:      initial.Clone(),
		ctx:        ctx,
		cancel:     cancel,
	}
	transport.SetPlaylist(s.state.SongList)
	if err := transport.SetVolume(s.state.Volume); err != nil {
		s.logger.Warn("initial volume rejected", slog.Float64("volume", s.state.Volume), slog.Any("error", err))
	}
	return s
}

// Start subscribes the dispatcher to every intent type.
func (s *StateStore) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.subs) > 0 {
		return
	}
	for _, t := range domain.IntentTypes() {
		s.subs = append(s.subs, s.bus.Subscribe(t, s.handleIntent))
	}
	s.logger.Debug("dispatcher started", slog.Int("intents", len(s.subs)))
}

func (s *StateStore) handleIntent(event domain.Event) {
	if err := s.Dispatch(event); err != nil {
		s.logger.Info("intent rejected", slog.String("intent", string(event.Type())), slog.Any("error", err))
		s.bus.Publish(domain.NewIntentRejectedEvent(event.Type(), err))
	}
}

// State returns a copy of the current state.
func (s *StateStore) State() domain.ApplicationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// UpdateState merges patch, bumps the version and broadcasts the result.
// It does not validate.
func (s *StateStore) UpdateState(patch domain.StatePatch) domain.ApplicationState {
	snap, _ := s.update(func(domain.ApplicationState) (domain.StatePatch, error) {
		return patch, nil
	})
	return snap
}

// update computes a patch from the live state and merges it atomically.
// fn must not retain or modify the collections it is given.
func (s *StateStore) update(fn func(st domain.ApplicationState) (domain.StatePatch, error)) (domain.ApplicationState, error) {
	s.mu.Lock()
	patch, err := fn(s.state)
	if err != nil {
		s.mu.Unlock()
		return domain.ApplicationState{}, err
	}
	s.state = patch.Apply(s.state)
	s.state.Version++
	snap := s.state.Clone()
	s.mu.Unlock()

	s.bus.Publish(domain.NewStateChangedEvent(snap))
	return snap, nil
}

func dispatchError(op, message string, err error) error {
	return domain.NewServiceError(storeName, op, message, err)
}

// Dispatch validates and applies one intent.
func (s *StateStore) Dispatch(event domain.Event) error {
	switch e := event.(type) {
	case domain.SongStateChangedEvent:
		return s.setPlaying(e.IsPlaying)
	case domain.NewSongSelectedEvent:
		return s.selectSong(e.CurrentSong, e.IsPlaying)
	case domain.VolumeChangedEvent:
		return s.setVolume(e.Volume)
	case domain.ProgressBarClickedEvent:
		return s.seek(e.Position, e.IsPlaying)
	case domain.SongEndedEvent:
		return s.step("SongEnded", 1)
	case domain.NextSongEvent:
		return s.step("NextSong", 1)
	case domain.PreviousSongEvent:
		return s.step("PreviousSong", -1)
	case domain.SongChangedEvent:
		return s.step("SongChanged", 0)
	case domain.SongUploadedEvent:
		return s.addSong(e.Song())
	case domain.SceneIndexChangedEvent:
		return s.setSceneIndex(e.SceneIndex)
	case domain.ThemeIndexChangedEvent:
		return s.setThemeIndex(e.ThemeIndex)
	case domain.RotationToggledEvent:
		s.UpdateState(domain.StatePatch{RotationEnabled: lo.ToPtr(e.Enabled)})
	case domain.PanToggledEvent:
		s.UpdateState(domain.StatePatch{PanEnabled: lo.ToPtr(e.Enabled)})
	case domain.ZoomToggledEvent:
		s.UpdateState(domain.StatePatch{ZoomEnabled: lo.ToPtr(e.Enabled)})
	case domain.ThemeAddedEvent:
		return s.addTheme(e.Theme)
	case domain.ThemeUpdatedEvent:
		return s.updateTheme(e.ThemeIndex, e.Theme)
	case domain.ThemeDeletedEvent:
		return s.deleteTheme(e.ThemeIndex)
	case domain.AnimationToggledEvent:
		s.UpdateState(domain.StatePatch{IsAnimationRunning: lo.ToPtr(e.Running)})
	case domain.FPSToggledEvent:
		s.UpdateState(domain.StatePatch{ShowFPS: lo.ToPtr(e.Enabled)})
	default:
		return dispatchError("Dispatch", fmt.Sprintf("unhandled event %q", event.Type()), nil)
	}
	return nil
}

func (s *StateStore) setPlaying(playing bool) error {
	st := s.State()
	if playing && len(st.SongList) == 0 {
		return dispatchError("SongStateChanged", "nothing to play", domain.ErrPlaylistEmpty)
	}

	var err error
	if playing {
		err = s.transport.Play()
	} else {
		err = s.transport.Pause()
	}
	switch {
	case errors.Is(err, domain.ErrNoTrackLoaded):
		if playing {
			s.UpdateState(domain.StatePatch{IsPlaying: lo.ToPtr(true)})
			s.startLoad(st.CurrentSongIndex, true)
			return nil
		}
	case err != nil:
		return dispatchError("SongStateChanged", "transport refused", err)
	}

	s.UpdateState(domain.StatePatch{IsPlaying: lo.ToPtr(playing)})
	return nil
}

func (s *StateStore) selectSong(index int, playing bool) error {
	_, err := s.update(func(st domain.ApplicationState) (domain.StatePatch, error) {
		if index < 0 || index >= len(st.SongList) {
			return domain.StatePatch{}, domain.NewValidationError("currentSong", index, "song index out of range", domain.ErrInvalidIndex)
		}
		return domain.StatePatch{CurrentSongIndex: lo.ToPtr(index), IsPlaying: lo.ToPtr(playing)}, nil
	})
	if err != nil {
		return dispatchError("NewSongSelected", "invalid selection", err)
	}
	s.startLoad(index, playing)
	return nil
}

func (s *StateStore) setVolume(volume float64) error {
	if volume < 0 || volume > 1 {
		return dispatchError("VolumeChanged", "volume out of range", domain.ErrInvalidVolume)
	}
	if err := s.transport.SetVolume(volume); err != nil {
		return dispatchError("VolumeChanged", "transport refused", err)
	}
	s.UpdateState(domain.StatePatch{Volume: lo.ToPtr(volume)})
	return nil
}

func (s *StateStore) seek(position float64, playing bool) error {
	if position < 0 || position > 1 {
		return dispatchError("ProgressBarClicked", "position must be a fraction", domain.ErrInvalidPosition)
	}
	duration, ok := s.transport.Duration()
	if !ok {
		return dispatchError("ProgressBarClicked", "duration unknown", domain.ErrNoTrackLoaded)
	}
	if err := s.transport.PlayFromSecond(position * duration.Seconds()); err != nil {
		return dispatchError("ProgressBarClicked", "seek failed", err)
	}
	if !playing {
		if err := s.transport.Pause(); err != nil {
			return dispatchError("ProgressBarClicked", "pause after seek failed", err)
		}
	}
	s.UpdateState(domain.StatePatch{IsPlaying: lo.ToPtr(playing)})
	return nil
}

// step moves the current song by delta (wrapping) and loads it for playback.
func (s *StateStore) step(op string, delta int) error {
	snap, err := s.update(func(st domain.ApplicationState) (domain.StatePatch, error) {
		n := len(st.SongList)
		if n == 0 {
			return domain.StatePatch{}, domain.ErrPlaylistEmpty
		}
		next := ((st.CurrentSongIndex+delta)%n + n) % n
		return domain.StatePatch{CurrentSongIndex: lo.ToPtr(next), IsPlaying: lo.ToPtr(true)}, nil
	})
	if err != nil {
		return dispatchError(op, "cannot change song", err)
	}
	s.startLoad(snap.CurrentSongIndex, true)
	return nil
}

func (s *StateStore) addSong(song domain.Song) error {
	if strings.TrimSpace(song.SongName) == "" {
		err := domain.NewValidationError("songName", song.SongName, "song name is required", domain.ErrInvalidFieldValue)
		s.bus.Publish(domain.NewSongRejectedEvent(song, err))
		return dispatchError("SongUploaded", "invalid song", err)
	}

	_, err := s.update(func(st domain.ApplicationState) (domain.StatePatch, error) {
		if lo.ContainsBy(st.SongList, func(existing domain.Song) bool { return existing.ID == song.ID }) {
			return domain.StatePatch{}, domain.ErrDuplicateSong
		}
		songs := append(slices.Clone(st.SongList), song)
		s.transport.SetPlaylist(songs)
		return domain.StatePatch{SongList: songs}, nil
	})
	if err != nil {
		s.bus.Publish(domain.NewSongRejectedEvent(song, err))
		return dispatchError("SongUploaded", song.ID, err)
	}

	s.logger.Debug("song added", slog.String("id", song.ID))
	s.bus.Publish(domain.NewSongAcceptedEvent(song))
	return nil
}

func (s *StateStore) setSceneIndex(index int) error {
	if index < 0 || index >= s.sceneCount {
		return dispatchError("SceneIndexChanged", "invalid scene",
			domain.NewValidationError("sceneIndex", index, "scene index out of range", domain.ErrInvalidIndex))
	}
	s.UpdateState(domain.StatePatch{SceneIndex: lo.ToPtr(index)})
	return nil
}

func (s *StateStore) setThemeIndex(index int) error {
	_, err := s.update(func(st domain.ApplicationState) (domain.StatePatch, error) {
		if index < 0 || index >= len(st.Themes) {
			return domain.StatePatch{}, domain.NewValidationError("themeIndex", index, "theme index out of range", domain.ErrInvalidIndex)
		}
		return domain.StatePatch{ThemeIndex: lo.ToPtr(index)}, nil
	})
	if err != nil {
		return dispatchError("ThemeIndexChanged", "invalid theme", err)
	}
	return nil
}

func nameTaken(themes []domain.Theme, name string, except int) bool {
	idx := lo.IndexOf(lo.Map(themes, func(t domain.Theme, _ int) string { return t.Name }), name)
	return idx >= 0 && idx != except
}

func (s *StateStore) addTheme(theme domain.Theme) error {
	_, err := s.update(func(st domain.ApplicationState) (domain.StatePatch, error) {
		if err := theme.Validate(); err != nil {
			return domain.StatePatch{}, err
		}
		if nameTaken(st.Themes, theme.Name, -1) {
			return domain.StatePatch{}, domain.ErrDuplicateTheme
		}
		return domain.StatePatch{Themes: append(slices.Clone(st.Themes), theme)}, nil
	})
	if err != nil {
		return dispatchError("ThemeAdded", theme.Name, err)
	}
	return nil
}

func (s *StateStore) updateTheme(index int, theme domain.Theme) error {
	_, err := s.update(func(st domain.ApplicationState) (domain.StatePatch, error) {
		if index < 0 || index >= len(st.Themes) {
			return domain.StatePatch{}, domain.NewValidationError("themeIndex", index, "theme index out of range", domain.ErrInvalidIndex)
		}
		if err := theme.Validate(); err != nil {
			return domain.StatePatch{}, err
		}
		if nameTaken(st.Themes, theme.Name, index) {
			return domain.StatePatch{}, domain.ErrDuplicateTheme
		}
		themes := slices.Clone(st.Themes)
		themes[index] = theme
		return domain.StatePatch{Themes: themes}, nil
	})
	if err != nil {
		return dispatchError("ThemeUpdated", theme.Name, err)
	}
	return nil
}

func (s *StateStore) deleteTheme(index int) error {
	_, err := s.update(func(st domain.ApplicationState) (domain.StatePatch, error) {
		if index < 0 || index >= len(st.Themes) {
			return domain.StatePatch{}, domain.NewValidationError("themeIndex", index, "theme index out of range", domain.ErrInvalidIndex)
		}
		if len(st.Themes) == 1 {
			return domain.StatePatch{}, domain.ErrLastTheme
		}
		themes := slices.Delete(slices.Clone(st.Themes), index, index+1)
		selected := st.ThemeIndex
		if index < selected {
			selected--
		}
		selected = min(selected, len(themes)-1)
		return domain.StatePatch{Themes: themes, ThemeIndex: lo.ToPtr(selected)}, nil
	})
	if err != nil {
		return dispatchError("ThemeDeleted", "cannot delete theme", err)
	}
	return nil
}

// startLoad supersedes any pending load and loads index on a new goroutine.
func (s *StateStore) startLoad(index int, play bool) {
	s.loadMu.Lock()
	if s.closed {
		s.loadMu.Unlock()
		return
	}
	s.loadID++
	id := s.loadID
	if s.loadCancel != nil {
		s.loadCancel()
	}
	ctx, cancel := context.WithCancel(s.ctx)
	s.loadCancel = cancel
	s.loadWg.Add(1)
	s.loadMu.Unlock()

	go func() {
		defer s.loadWg.Done()
		defer cancel()
		if err := s.load(ctx, id, index, play); errors.Is(err, domain.ErrStaleLoad) {
			s.logger.Debug("stale load discarded", slog.Int("index", index), slog.Uint64("request", id))
		}
	}()
}

func (s *StateStore) latest(id uint64) bool {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	return id == s.loadID && !s.closed
}

// load runs one song load. Loads never overlap on the transport, and the
// request ID is checked on both sides of SetSong.
func (s *StateStore) load(ctx context.Context, id uint64, index int, play bool) error {
	s.loadSerial.Lock()
	defer s.loadSerial.Unlock()

	if !s.latest(id) {
		return domain.ErrStaleLoad
	}
	err := s.transport.SetSong(ctx, index)
	if !s.latest(id) {
		return domain.ErrStaleLoad
	}

	var song domain.Song
	if st := s.State(); index >= 0 && index < len(st.SongList) {
		song = st.SongList[index]
	}
	if err != nil {
		s.logger.Warn("song load failed", slog.Int("index", index), slog.Any("error", err))
		s.bus.Publish(domain.NewSongLoadFailedEvent(song, index, err))
		s.UpdateState(domain.StatePatch{IsPlaying: lo.ToPtr(false)})
		return err
	}

	duration, _ := s.transport.Duration()
	s.bus.Publish(domain.NewSongLoadedEvent(song, index, duration))

	if !play {
		return nil
	}
	if err := s.transport.Play(); err != nil {
		s.logger.Warn("play after load failed", slog.Int("index", index), slog.Any("error", err))
		s.UpdateState(domain.StatePatch{IsPlaying: lo.ToPtr(false)})
		return err
	}
	return nil
}

// WaitForLoads blocks until every pending load goroutine has returned.
func (s *StateStore) WaitForLoads() {
	s.loadWg.Wait()
}

// Shutdown unsubscribes the dispatcher, cancels pending loads and waits for them.
func (s *StateStore) Shutdown() error {
	s.loadMu.Lock()
	s.closed = true
	s.cancel()
	s.loadMu.Unlock()
	s.loadWg.Wait()

	s.mu.Lock()
	subs := s.subs
	s.subs = nil
	s.mu.Unlock()
	for _, id := range subs {
		s.bus.Unsubscribe(id)
	}
	s.logger.Debug("state store shut down")
	return nil
}

var _ ports.StateReader = (*StateStore)(nil)
