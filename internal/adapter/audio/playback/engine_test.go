package playback

import (
	"context"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/soundscape/internal/adapter/audio/analyzer"
	"github.com/tejashwikalptaru/soundscape/internal/domain"
	"github.com/tejashwikalptaru/soundscape/internal/logger"
	"github.com/tejashwikalptaru/soundscape/internal/testutil"
)

const testRate = beep.SampleRate(8000)

// manualOutput is an Output the test drains by hand.
type manualOutput struct {
	mixer beep.Mixer
	inits int
	mu    sync.Mutex
}

func (o *manualOutput) Init(beep.SampleRate, int) error { o.inits++; return nil }
func (o *manualOutput) Play(s ...beep.Streamer) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.mixer.Add(s...)
}
func (o *manualOutput) Clear() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.mixer.Clear()
}
func (o *manualOutput) Lock()   { o.mu.Lock() }
func (o *manualOutput) Unlock() { o.mu.Unlock() }

// pull streams n samples as the speaker would.
func (o *manualOutput) pull(n int) {
	buf := make([][2]float64, 512)
	for n > 0 {
		chunk := min(n, len(buf))
		o.mu.Lock()
		o.mixer.Stream(buf[:chunk])
		o.mu.Unlock()
		n -= chunk
	}
}

func writeSineWAV(t *testing.T, dir, name string, seconds float64) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	total := int(seconds * float64(testRate))
	i := 0
	src := beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if i >= total {
			return 0, false
		}
		n := 0
		for n < len(samples) && i < total {
			v := 0.8 * math.Sin(2*math.Pi*440*float64(i)/float64(testRate))
			samples[n] = [2]float64{v, v}
			n++
			i++
		}
		return n, true
	})
	format := beep.Format{SampleRate: testRate, NumChannels: 2, Precision: 2}
	require.NoError(t, wav.Encode(f, src, format))
	return path
}

func newTestEngine(t *testing.T, seconds float64) (*Engine, *manualOutput) {
	t.Helper()
	cfg := analyzer.DefaultConfig()
	cfg.FFTSize = 256
	cfg.Smoothing = 0
	a, err := analyzer.New(cfg)
	require.NoError(t, err)

	out := &manualOutput{}
	e := NewEngine(logger.NewTestLogger(), Config{SampleRate: int(testRate), InitialVolume: 1}, out, a)

	dir := t.TempDir()
	e.SetPlaylist([]domain.Song{
		{ID: "Test Sine", ArtistName: "Test", SongName: "Sine", Src: writeSineWAV(t, dir, "sine.wav", seconds)},
		{ID: "Test Notes", ArtistName: "Test", SongName: "Notes", Src: filepath.Join(dir, "notes.txt")},
		{ID: "Test Missing", ArtistName: "Test", SongName: "Missing", Src: filepath.Join(dir, "missing.wav")},
	})
	t.Cleanup(func() { _ = e.Close() })
	return e, out
}

func TestEngine_RequiresLoadedSong(t *testing.T) {
	e, _ := newTestEngine(t, 0.1)

	assert.ErrorIs(t, e.Play(), domain.ErrNoTrackLoaded)
	assert.ErrorIs(t, e.Stop(), domain.ErrNoTrackLoaded)
	assert.ErrorIs(t, e.PlayFromSecond(0), domain.ErrNoTrackLoaded)
	assert.False(t, e.IsPlaying())
	_, ok := e.Duration()
	assert.False(t, ok)
}

func TestEngine_LoadErrors(t *testing.T) {
	e, _ := newTestEngine(t, 0.1)
	ctx := context.Background()

	assert.ErrorIs(t, e.SetSong(ctx, 5), domain.ErrInvalidIndex)
	assert.ErrorIs(t, e.SetSong(ctx, 1), domain.ErrUnsupportedFormat)

	missing := e.SetSong(ctx, 2)
	var engineErr *domain.AudioEngineError
	require.ErrorAs(t, missing, &engineErr)
	assert.Equal(t, "load", engineErr.Op)
	assert.ErrorIs(t, missing, domain.ErrSongNotFound)
	assert.ErrorIs(t, missing, fs.ErrNotExist)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, e.SetSong(cancelled, 0), context.Canceled)
}

func TestEngine_PlaybackFeedsAnalyzer(t *testing.T) {
	e, out := newTestEngine(t, 1)

	require.NoError(t, e.SetSong(context.Background(), 0))
	assert.Equal(t, 1, out.inits)
	d, ok := e.Duration()
	require.True(t, ok)
	assert.InDelta(t, time.Second, d, float64(time.Millisecond))
	assert.False(t, e.IsPlaying(), "songs load paused")

	out.pull(1024)
	assert.Zero(t, e.CurrentTime(), "paused control does not advance")

	require.NoError(t, e.Play())
	assert.True(t, e.IsPlaying())
	out.pull(1024)
	assert.Equal(t, testRate.D(1024), e.CurrentTime())

	frame := make([]uint8, e.FrequencyBinCount())
	e.FrequencyData(frame)
	// 440 Hz at 8 kHz with 256 points lands around bin 14.
	assert.NotZero(t, frame[14])

	require.NoError(t, e.Pause())
	assert.False(t, e.IsPlaying())
}

func TestEngine_SeekAndStop(t *testing.T) {
	e, _ := newTestEngine(t, 1)
	require.NoError(t, e.SetSong(context.Background(), 0))

	require.NoError(t, e.PlayFromSecond(0.5))
	assert.True(t, e.IsPlaying())
	assert.InDelta(t, 500*time.Millisecond, e.CurrentTime(), float64(time.Millisecond))

	assert.ErrorIs(t, e.PlayFromSecond(2), domain.ErrInvalidPosition)
	assert.ErrorIs(t, e.PlayFromSecond(-1), domain.ErrInvalidPosition)

	require.NoError(t, e.Stop())
	assert.False(t, e.IsPlaying())
	assert.Zero(t, e.CurrentTime())
}

func TestEngine_Volume(t *testing.T) {
	e, out := newTestEngine(t, 1)

	assert.ErrorIs(t, e.SetVolume(2), domain.ErrInvalidVolume)
	require.NoError(t, e.SetVolume(0))
	require.NoError(t, e.SetSong(context.Background(), 0))
	require.NoError(t, e.Play())
	out.pull(512)

	frame := make([]uint8, e.FrequencyBinCount())
	e.FrequencyData(frame)
	assert.Equal(t, make([]uint8, len(frame)), frame, "muted output reaches the analyser as silence")
	assert.Equal(t, 0.0, e.Volume())
}

func TestEngine_EndedCallback(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	e, out := newTestEngine(t, 0.1)
	ended := make(chan struct{}, 1)
	e.OnEnded(func() { ended <- struct{}{} })

	require.NoError(t, e.SetSong(context.Background(), 0))
	require.NoError(t, e.Play())
	out.pull(int(testRate))

	select {
	case <-ended:
	case <-time.After(time.Second):
		t.Fatal("end callback not fired")
	}
	require.NoError(t, e.Close())
}
