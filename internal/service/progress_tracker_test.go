package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/soundscape/internal/adapter/audio/mock"
	"github.com/tejashwikalptaru/soundscape/internal/domain"
	"github.com/tejashwikalptaru/soundscape/internal/logger"
	"github.com/tejashwikalptaru/soundscape/internal/testutil"
)

func TestProgressTracker_DefaultInterval(t *testing.T) {
	store, engine, bus := newTestStore(t, 0)

	tracker := NewProgressTracker(logger.NewTestLogger(), engine, bus, store, 0)

	assert.Equal(t, DefaultProgressInterval, tracker.interval)
	assert.False(t, tracker.IsRunning())
}

func TestProgressTracker_PublishesWhilePlaying(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	store, engine, bus := newTestStore(t, 1)
	progress := record[domain.ProgressUpdatedEvent](bus, domain.EventProgressUpdated)
	tracker := NewProgressTracker(logger.NewTestLogger(), engine, bus, store, 5*time.Millisecond)

	bus.Publish(domain.NewSongStateChangedEvent(true))
	store.WaitForLoads()
	engine.Advance(30 * time.Second)

	tracker.Start()
	assert.True(t, tracker.IsRunning())
	assert.True(t, store.State().ProgressTicking)

	require.Eventually(t, func() bool { return progress.Len() > 0 }, time.Second, 5*time.Millisecond)
	first := progress.All()[0]
	assert.Equal(t, 30*time.Second, first.Current)
	assert.Equal(t, mock.DefaultSongLength, first.Duration)
	assert.Equal(t, "00:30 / 03:00", first.Label)

	tracker.Stop()
	assert.False(t, tracker.IsRunning())
	assert.False(t, store.State().ProgressTicking)
	require.NoError(t, tracker.Shutdown())
	require.NoError(t, store.Shutdown())
}

func TestProgressTracker_SilentWhilePaused(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	store, engine, bus := newTestStore(t, 1)
	progress := record[domain.ProgressUpdatedEvent](bus, domain.EventProgressUpdated)
	tracker := NewProgressTracker(logger.NewTestLogger(), engine, bus, store, time.Millisecond)

	bus.Publish(domain.NewNewSongSelectedEvent(0, false))
	store.WaitForLoads()

	tracker.Start()
	time.Sleep(20 * time.Millisecond)
	tracker.Stop()

	assert.Zero(t, progress.Len())
	require.NoError(t, store.Shutdown())
}

func TestProgressTracker_StartStopIdempotent(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	store, engine, bus := newTestStore(t, 0)
	tracker := NewProgressTracker(logger.NewTestLogger(), engine, bus, store, time.Millisecond)
	changed := record[domain.StateChangedEvent](bus, domain.EventStateChanged)

	tracker.Stop()
	tracker.Start()
	tracker.Start()
	tracker.Stop()
	tracker.Stop()

	assert.Equal(t, 2, changed.Len(), "only real transitions touch the state")
	require.NoError(t, store.Shutdown())
}

func TestProgressTracker_SongEndAdvances(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	store, engine, bus := newTestStore(t, 2)
	ended := record[domain.SongEndedEvent](bus, domain.EventSongEnded)
	tracker := NewProgressTracker(logger.NewTestLogger(), engine, bus, store, 0)

	bus.Publish(domain.NewSongStateChangedEvent(true))
	store.WaitForLoads()

	engine.SimulateEnd()
	store.WaitForLoads()

	assert.Equal(t, 1, ended.Len())
	assert.Equal(t, 1, store.State().CurrentSongIndex)
	assert.Equal(t, 1, engine.Current())
	assert.True(t, engine.IsPlaying())

	require.NoError(t, tracker.Shutdown())
	engine.SimulateEnd()
	assert.Equal(t, 1, ended.Len(), "detached after shutdown")
	require.NoError(t, store.Shutdown())
}
