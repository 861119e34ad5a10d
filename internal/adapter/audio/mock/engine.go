// Package mock provides a deterministic in-memory audio engine.
// It implements both ports.Transport and ports.FrequencyProvider and is used
// by tests and by the headless "mock" backend.
package mock

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tejashwikalptaru/soundscape/internal/domain"
	"github.com/tejashwikalptaru/soundscape/internal/ports"
)

// DefaultBinCount matches an analyser with an FFT size of 2048.
const DefaultBinCount = 1024

// DefaultSongLength is the simulated length of every song.
const DefaultSongLength = 3 * time.Minute

// Engine simulates playback without producing audio.
//
// Thread-safety: This implementation is thread-safe.
type Engine struct {
	logger *slog.Logger

	playlist []domain.Song
	current  int
	loaded   bool
	playing  bool
	position time.Duration
	length   time.Duration
	volume   float64
	onEnded  func()
	history  []int

	binCount int
	fixed    []uint8
	seq      atomic.Uint64

	// Behavior configuration (for testing error scenarios)
	failLoad bool
	failPlay bool
	loadGate <-chan struct{}

	mu sync.RWMutex
}

// NewEngine creates a new mock engine. binCount <= 0 selects DefaultBinCount.
func NewEngine(logger *slog.Logger, binCount int) *Engine {
	if binCount <= 0 {
		binCount = DefaultBinCount
	}
	return &Engine{
		logger:   logger.With(slog.String("adapter", "mock-audio")),
		current:  -1,
		volume:   1,
		length:   DefaultSongLength,
		binCount: binCount,
	}
}

// SetFailLoad configures the mock to fail loading songs (for testing).
func (m *Engine) SetFailLoad(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failLoad = fail
}

// SetFailPlay configures the mock to fail playback (for testing).
func (m *Engine) SetFailPlay(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failPlay = fail
}

// SetLoadGate makes SetSong wait for a receive on gate (or ctx) before it
// completes. A nil gate disables waiting.
func (m *Engine) SetLoadGate(gate <-chan struct{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadGate = gate
}

// SetSongLength changes the simulated length of songs loaded afterwards.
func (m *Engine) SetSongLength(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.length = d
}

// SetFrequencyData pins the frame returned by FrequencyData. Nil restores
// the generated pattern.
func (m *Engine) SetFrequencyData(data []uint8) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fixed = append([]uint8(nil), data...)
}

// SetPlaylist replaces the songs SetSong indexes into.
func (m *Engine) SetPlaylist(songs []domain.Song) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playlist = append([]domain.Song(nil), songs...)
}

// SetSong loads the song at index. The previous song is stopped.
func (m *Engine) SetSong(ctx context.Context, index int) error {
	m.mu.RLock()
	gate := m.loadGate
	m.mu.RUnlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if index < 0 || index >= len(m.playlist) {
		return domain.NewValidationError("index", index, "song index out of range", domain.ErrInvalidIndex)
	}
	if m.failLoad {
		return domain.NewAudioEngineError("load", m.playlist[index].Src, "mock load failed", nil)
	}

	m.current = index
	m.loaded = true
	m.playing = false
	m.position = 0
	m.history = append(m.history, index)
	m.logger.Debug("song loaded", slog.Int("index", index), slog.String("song", m.playlist[index].ID))
	return nil
}

// Play starts or resumes playback.
func (m *Engine) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.loaded {
		return domain.ErrNoTrackLoaded
	}
	if m.failPlay {
		return domain.NewAudioEngineError("play", "", "mock play failed", nil)
	}
	m.playing = true
	return nil
}

// Pause pauses playback.
func (m *Engine) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.loaded {
		return domain.ErrNoTrackLoaded
	}
	m.playing = false
	return nil
}

// Stop stops playback and rewinds.
func (m *Engine) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.loaded {
		return domain.ErrNoTrackLoaded
	}
	m.playing = false
	m.position = 0
	return nil
}

// PlayFromSecond seeks and starts playback.
func (m *Engine) PlayFromSecond(seconds float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.loaded {
		return domain.ErrNoTrackLoaded
	}
	pos := time.Duration(seconds * float64(time.Second))
	if seconds < 0 || pos > m.length {
		return domain.NewValidationError("position", seconds, "seek outside song", domain.ErrInvalidPosition)
	}
	if m.failPlay {
		return domain.NewAudioEngineError("play", "", "mock play failed", nil)
	}
	m.position = pos
	m.playing = true
	return nil
}

// SetVolume sets the output volume (0.0 to 1.0).
func (m *Engine) SetVolume(volume float64) error {
	if volume < 0 || volume > 1 {
		return domain.ErrInvalidVolume
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume = volume
	return nil
}

// Volume returns the output volume.
func (m *Engine) Volume() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.volume
}

// IsPlaying reports whether playback is running.
func (m *Engine) IsPlaying() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.playing
}

// CurrentTime returns the playback position.
func (m *Engine) CurrentTime() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.position
}

// Duration returns the length of the loaded song.
func (m *Engine) Duration() (time.Duration, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.loaded {
		return 0, false
	}
	return m.length, true
}

// OnEnded registers the end-of-song callback.
func (m *Engine) OnEnded(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onEnded = fn
}

// Current returns the loaded index, or -1.
func (m *Engine) Current() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// LoadHistory returns every index that finished loading, in order.
func (m *Engine) LoadHistory() []int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]int(nil), m.history...)
}

// Advance moves the playback position forward while playing. Reaching the end
// stops playback and fires the end callback.
func (m *Engine) Advance(delta time.Duration) {
	m.mu.Lock()
	if !m.playing {
		m.mu.Unlock()
		return
	}
	m.position += delta
	if m.position < m.length {
		m.mu.Unlock()
		return
	}
	m.position = m.length
	m.playing = false
	fn := m.onEnded
	m.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// SimulateEnd jumps to the end of the song.
func (m *Engine) SimulateEnd() {
	m.mu.Lock()
	if !m.loaded {
		m.mu.Unlock()
		return
	}
	m.playing = true
	remaining := m.length - m.position
	m.mu.Unlock()

	m.Advance(remaining)
}

// FrequencyBinCount returns the number of bins per frame.
func (m *Engine) FrequencyBinCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.binCount
}

// FrequencyData fills dst with the pinned frame, or a moving ramp while
// playing. Silence is all zeros.
func (m *Engine) FrequencyData(dst []uint8) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.fixed != nil {
		n := copy(dst, m.fixed)
		clear(dst[n:])
		return
	}
	if !m.playing {
		clear(dst)
		return
	}

	seq := m.seq.Add(1)
	limit := min(len(dst), m.binCount)
	for i := 0; i < limit; i++ {
		dst[i] = uint8((uint64(i)*7 + seq*3) % 256)
	}
	clear(dst[limit:])
}

// Verify interface implementation
var (
	_ ports.Transport         = (*Engine)(nil)
	_ ports.FrequencyProvider = (*Engine)(nil)
)
