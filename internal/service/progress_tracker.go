package service

import (
	"log/slog"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/tejashwikalptaru/soundscape/internal/domain"
	"github.com/tejashwikalptaru/soundscape/internal/ports"
)

// DefaultProgressInterval is how often progress is published while playing.
const DefaultProgressInterval = 250 * time.Millisecond

// StateUpdater merges a patch into the application state.
type StateUpdater interface {
	UpdateState(patch domain.StatePatch) domain.ApplicationState
}

// ProgressTracker publishes playback progress while a song plays and turns
// the transport's end-of-song callback into a SongEnded intent.
// Its running flag is mirrored into ApplicationState.ProgressTicking.
type ProgressTracker struct {
	// Dependencies (injected)
	logger    *slog.Logger
	transport ports.Transport
	bus       ports.EventBus
	state     StateUpdater
	interval  time.Duration

	// Concurrency control
	mu      sync.Mutex
	running bool
	stop    chan struct{}
	wg      sync.WaitGroup
}

// NewProgressTracker creates a stopped tracker. interval <= 0 selects DefaultProgressInterval.
func NewProgressTracker(
	logger *slog.Logger,
	transport ports.Transport,
	bus ports.EventBus,
	state StateUpdater,
	interval time.Duration,
) *ProgressTracker {
	if interval <= 0 {
		interval = DefaultProgressInterval
	}
	t := &ProgressTracker{
		logger:    logger.With(slog.String("service", "progress")),
		transport: transport,
		bus:       bus,
		state:     state,
		interval:  interval,
	}
	transport.OnEnded(func() {
		t.logger.Debug("song ended")
		t.bus.Publish(domain.NewSongEndedEvent())
	})
	return t
}

// Start begins publishing progress. It is a no-op when already running.
func (t *ProgressTracker) Start() {
	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		return
	}
	t.running = true
	t.stop = make(chan struct{})
	t.wg.Add(1)
	stop := t.stop
	t.mu.Unlock()

	go func() {
		defer t.wg.Done()
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				t.publishProgress()
			}
		}
	}()

	t.state.UpdateState(domain.StatePatch{ProgressTicking: lo.ToPtr(true)})
}

// publishProgress publishes a progress event if a song is playing.
func (t *ProgressTracker) publishProgress() {
	if !t.transport.IsPlaying() {
		return
	}
	duration, ok := t.transport.Duration()
	if !ok {
		return
	}
	t.bus.Publish(domain.NewProgressUpdatedEvent(t.transport.CurrentTime(), duration))
}

// Stop halts the ticker and waits for it to exit.
func (t *ProgressTracker) Stop() {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	t.running = false
	close(t.stop)
	// The ticker goroutine never takes t.mu, so waiting under it is safe
	t.wg.Wait()
	t.mu.Unlock()

	t.state.UpdateState(domain.StatePatch{ProgressTicking: lo.ToPtr(false)})
}

// IsRunning reports whether the ticker is active.
func (t *ProgressTracker) IsRunning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Shutdown stops the tracker and detaches it from the transport.
func (t *ProgressTracker) Shutdown() error {
	t.Stop()
	t.transport.OnEnded(nil)
	return nil
}
