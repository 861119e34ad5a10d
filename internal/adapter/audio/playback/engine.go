// Package playback implements the audio transport on top of gopxl/beep.
//
// Songs are decoded from disk, resampled to the output rate and played through
// a pause control and a volume effect. A tap between the volume effect and the
// control feeds every sample that reaches the speaker into the analyser, which
// is what the animation reads as frequency data.
package playback

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/wav"

	"github.com/tejashwikalptaru/soundscape/internal/adapter/audio/analyzer"
	"github.com/tejashwikalptaru/soundscape/internal/domain"
	"github.com/tejashwikalptaru/soundscape/internal/ports"
)

// SupportedExtensions lists the file types the engine can decode.
var SupportedExtensions = []string{".mp3", ".wav"}

// Config holds engine parameters.
type Config struct {
	SampleRate    int
	InitialVolume float64
}

// track bundles the resources of the loaded song.
type track struct {
	file     *os.File
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	volume   *effects.Volume
}

func (t *track) close() {
	if t.streamer != nil {
		t.streamer.Close()
	}
	if t.file != nil {
		t.file.Close()
	}
}

// Engine implements ports.Transport and ports.FrequencyProvider.
//
// Thread-safety: mu guards engine state; output.Lock guards values the
// speaker goroutine reads while streaming.
type Engine struct {
	logger   *slog.Logger
	output   Output
	analyzer *analyzer.Analyzer
	rate     beep.SampleRate

	playlist   []domain.Song
	current    *track
	volume     float64
	onEnded    func()
	generation uint64
	ready      bool

	wg sync.WaitGroup
	mu sync.Mutex
}

// NewEngine creates an engine that plays through output and feeds a.
// Pass SpeakerOutput() for real playback.
func NewEngine(logger *slog.Logger, cfg Config, output Output, a *analyzer.Analyzer) *Engine {
	rate := cfg.SampleRate
	if rate <= 0 {
		rate = 44100
	}
	vol := cfg.InitialVolume
	if vol < 0 || vol > 1 {
		vol = 1
	}
	return &Engine{
		logger:   logger.With(slog.String("adapter", "playback")),
		output:   output,
		analyzer: a,
		rate:     beep.SampleRate(rate),
		volume:   vol,
	}
}

// SetPlaylist replaces the songs SetSong indexes into.
func (e *Engine) SetPlaylist(songs []domain.Song) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.playlist = append([]domain.Song(nil), songs...)
}

// SetSong decodes the song at index and queues it paused on the output.
// The previously loaded song is released.
func (e *Engine) SetSong(ctx context.Context, index int) error {
	e.mu.Lock()
	if index < 0 || index >= len(e.playlist) {
		e.mu.Unlock()
		return domain.NewValidationError("index", index, "song index out of range", domain.ErrInvalidIndex)
	}
	song := e.playlist[index]
	e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	t, err := e.decode(song.Src)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		t.close()
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.ready {
		if err := e.output.Init(e.rate, e.rate.N(time.Second/10)); err != nil {
			t.close()
			return domain.NewAudioEngineError("init", "", "failed to initialise output", err)
		}
		e.ready = true
	}

	e.releaseLocked()
	e.generation++
	gen := e.generation

	var s beep.Streamer = t.streamer
	if t.format.SampleRate != e.rate {
		s = beep.Resample(4, t.format.SampleRate, e.rate, s)
	}
	t.volume = &effects.Volume{Streamer: s, Base: 2}
	applyVolume(t.volume, e.volume)
	t.ctrl = &beep.Ctrl{Streamer: &tap{s: t.volume, a: e.analyzer}, Paused: true}
	e.current = t

	e.analyzer.Reset()
	e.output.Play(beep.Seq(t.ctrl, beep.Callback(func() {
		// Runs on the speaker goroutine with the output locked.
		e.wg.Add(1)
		go e.ended(gen)
	})))

	e.logger.Debug("song loaded",
		slog.Int("index", index),
		slog.String("song", song.ID),
		slog.Int("sample_rate", int(t.format.SampleRate)))
	return nil
}

func (e *Engine) decode(path string) (*track, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !slices.Contains(SupportedExtensions, ext) {
		return nil, domain.NewAudioEngineError("load", path, "unsupported extension "+ext, domain.ErrUnsupportedFormat)
	}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.NewAudioEngineError("load", path, "song file is missing", fmt.Errorf("%w: %w", domain.ErrSongNotFound, err))
	}
	if err != nil {
		return nil, domain.NewAudioEngineError("load", path, "failed to open file", err)
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch ext {
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	default:
		streamer, format, err = wav.Decode(f)
	}
	if err != nil {
		f.Close()
		return nil, domain.NewAudioEngineError("load", path, "failed to decode", err)
	}
	return &track{file: f, streamer: streamer, format: format}, nil
}

func (e *Engine) ended(gen uint64) {
	defer e.wg.Done()

	e.mu.Lock()
	if gen != e.generation {
		e.mu.Unlock()
		return
	}
	fn := e.onEnded
	e.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// releaseLocked drops the current song. Caller holds mu.
func (e *Engine) releaseLocked() {
	if e.current == nil {
		return
	}
	if e.ready {
		e.output.Clear()
	}
	e.current.close()
	e.current = nil
}

func (e *Engine) setPaused(paused bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current == nil {
		return domain.ErrNoTrackLoaded
	}
	e.output.Lock()
	e.current.ctrl.Paused = paused
	e.output.Unlock()
	return nil
}

// Play starts or resumes playback.
func (e *Engine) Play() error { return e.setPaused(false) }

// Pause pauses playback.
func (e *Engine) Pause() error { return e.setPaused(true) }

// Stop pauses and rewinds to the start.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current == nil {
		return domain.ErrNoTrackLoaded
	}
	e.output.Lock()
	defer e.output.Unlock()
	e.current.ctrl.Paused = true
	return e.current.streamer.Seek(0)
}

// PlayFromSecond seeks and resumes playback.
func (e *Engine) PlayFromSecond(seconds float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current == nil {
		return domain.ErrNoTrackLoaded
	}
	t := e.current
	pos := t.format.SampleRate.N(time.Duration(seconds * float64(time.Second)))
	if seconds < 0 || pos > t.streamer.Len() {
		return domain.NewValidationError("position", seconds, "seek outside song", domain.ErrInvalidPosition)
	}

	e.output.Lock()
	defer e.output.Unlock()
	if err := t.streamer.Seek(pos); err != nil {
		return domain.NewAudioEngineError("seek", "", "seek failed", err)
	}
	t.ctrl.Paused = false
	return nil
}

// SetVolume sets the output volume (0.0 to 1.0).
func (e *Engine) SetVolume(volume float64) error {
	if volume < 0 || volume > 1 {
		return domain.ErrInvalidVolume
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.volume = volume
	if e.current != nil {
		e.output.Lock()
		applyVolume(e.current.volume, volume)
		e.output.Unlock()
	}
	return nil
}

// applyVolume maps a linear 0..1 level onto the base-2 volume effect.
func applyVolume(v *effects.Volume, level float64) {
	v.Silent = level <= 0
	if !v.Silent {
		v.Volume = math.Log2(level)
	}
}

// Volume returns the output volume.
func (e *Engine) Volume() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.volume
}

// IsPlaying reports whether the loaded song is unpaused.
func (e *Engine) IsPlaying() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current == nil {
		return false
	}
	e.output.Lock()
	defer e.output.Unlock()
	return !e.current.ctrl.Paused && e.current.streamer.Position() < e.current.streamer.Len()
}

// CurrentTime returns the playback position.
func (e *Engine) CurrentTime() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current == nil {
		return 0
	}
	e.output.Lock()
	defer e.output.Unlock()
	return e.current.format.SampleRate.D(e.current.streamer.Position())
}

// Duration returns the length of the loaded song.
func (e *Engine) Duration() (time.Duration, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current == nil {
		return 0, false
	}
	return e.current.format.SampleRate.D(e.current.streamer.Len()), true
}

// OnEnded registers the end-of-song callback. It runs on its own goroutine.
func (e *Engine) OnEnded(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onEnded = fn
}

// FrequencyBinCount returns the analyser bin count.
func (e *Engine) FrequencyBinCount() int { return e.analyzer.FrequencyBinCount() }

// FrequencyData fills dst from the analyser.
func (e *Engine) FrequencyData(dst []uint8) { e.analyzer.FrequencyData(dst) }

// Close releases the loaded song and waits for pending end callbacks.
func (e *Engine) Close() error {
	e.mu.Lock()
	e.releaseLocked()
	e.generation++
	e.mu.Unlock()

	e.wg.Wait()
	return nil
}

// Verify interface implementation
var (
	_ ports.Transport         = (*Engine)(nil)
	_ ports.FrequencyProvider = (*Engine)(nil)
)
