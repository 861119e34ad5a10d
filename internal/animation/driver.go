// Package animation runs the per-frame loop that feeds frequency data into the
// live scene and hands flattened frames to sinks.
package animation

import (
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tejashwikalptaru/soundscape/internal/domain"
	"github.com/tejashwikalptaru/soundscape/internal/ports"
	"github.com/tejashwikalptaru/soundscape/internal/render"
)

// DefaultFPS is the tick rate used when Config.FPS is zero.
const DefaultFPS = 60

// Config holds driver settings.
type Config struct {
	FPS int
}

// DefaultConfig returns the default driver settings.
func DefaultConfig() Config {
	return Config{FPS: DefaultFPS}
}

// Animator is what the driver renders each tick. scene.Manager implements it.
type Animator interface {
	Animate(frame []uint8, elapsed float64)
	Snapshot(dst *render.Frame)
}

// Controls is a camera rig stepped once per tick.
type Controls interface {
	Update(dt float64)
	Camera() render.Camera
}

// Driver owns the frequency buffer and the output frame and steps them on a ticker.
//
// There is no frame skipping. A slow tick delays the next one and the ticker
// drops the ticks it missed.
type Driver struct {
	logger   *slog.Logger
	provider ports.FrequencyProvider
	animator Animator
	controls Controls
	sinks    []ports.FrameSink
	interval time.Duration

	// Tick state, guarded by tickMu
	tickMu    sync.Mutex
	buf       []uint8
	frame     render.Frame
	elapsed   float64
	seq       uint64
	fpsFrames int
	fpsWindow float64

	fps         atomic.Uint64 // math.Float64bits
	elapsedBits atomic.Uint64

	// Loop control; ctlMu is held across the whole of Resume and Pause
	ctlMu   sync.Mutex
	running bool
	stop    chan struct{}
	wg      sync.WaitGroup
}

// NewDriver creates a paused driver. controls may be nil.
func NewDriver(
	logger *slog.Logger,
	cfg Config,
	provider ports.FrequencyProvider,
	animator Animator,
	controls Controls,
	sinks ...ports.FrameSink,
) (*Driver, error) {
	if cfg.FPS == 0 {
		cfg.FPS = DefaultFPS
	}
	if cfg.FPS < 0 || cfg.FPS > 1000 {
		return nil, domain.NewValidationError("fps", cfg.FPS, "must be between 1 and 1000", domain.ErrInvalidFieldValue)
	}
	bins := provider.FrequencyBinCount()
	if bins <= 0 {
		return nil, domain.NewValidationError("binCount", bins, "frequency bin count must be positive", domain.ErrInvalidFieldValue)
	}

	d := &Driver{
		logger:   logger.With(slog.String("component", "animation_driver")),
		provider: provider,
		animator: animator,
		controls: controls,
		sinks:    sinks,
		interval: time.Second / time.Duration(cfg.FPS),
		buf:      make([]uint8, bins),
	}
	return d, nil
}

// Tick runs one frame: fill the buffer, advance the clock, animate, step the
// controls, snapshot and push to sinks. dt is in seconds.
func (d *Driver) Tick(dt float64) {
	d.tickMu.Lock()
	defer d.tickMu.Unlock()

	if dt < 0 || math.IsNaN(dt) {
		dt = 0
	}

	d.provider.FrequencyData(d.buf)
	d.elapsed += dt
	d.animator.Animate(d.buf, d.elapsed)
	if d.controls != nil {
		d.controls.Update(dt)
		d.frame.Camera = d.controls.Camera()
	}
	d.animator.Snapshot(&d.frame)

	d.seq++
	d.frame.Seq = d.seq
	d.frame.Elapsed = d.elapsed
	for _, sink := range d.sinks {
		sink.PushFrame(&d.frame)
	}

	d.fpsFrames++
	d.fpsWindow += dt
	if d.fpsWindow >= 1 {
		d.fps.Store(math.Float64bits(float64(d.fpsFrames) / d.fpsWindow))
		d.fpsFrames = 0
		d.fpsWindow = 0
	}
	d.elapsedBits.Store(math.Float64bits(d.elapsed))
}

// Resume starts the ticker goroutine. It is a no-op when already running.
func (d *Driver) Resume() {
	d.ctlMu.Lock()
	defer d.ctlMu.Unlock()
	if d.running {
		return
	}
	d.running = true
	d.stop = make(chan struct{})
	d.wg.Add(1)
	go d.loop(d.stop)
	d.logger.Debug("animation resumed", slog.Duration("interval", d.interval))
}

func (d *Driver) loop(stop <-chan struct{}) {
	defer d.wg.Done()
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			d.Tick(dt)
		}
	}
}

// Pause stops the ticker goroutine and waits for an in-flight tick to finish.
// It must not be called from a sink.
func (d *Driver) Pause() {
	d.ctlMu.Lock()
	defer d.ctlMu.Unlock()
	if !d.running {
		return
	}
	d.running = false
	close(d.stop)
	d.wg.Wait()
	d.logger.Debug("animation paused")
}

// IsRunning reports whether the ticker goroutine is active.
func (d *Driver) IsRunning() bool {
	d.ctlMu.Lock()
	defer d.ctlMu.Unlock()
	return d.running
}

// FPS returns the frame rate measured over the last full second of ticks.
func (d *Driver) FPS() float64 {
	return math.Float64frombits(d.fps.Load())
}

// Elapsed returns the animation clock in seconds.
func (d *Driver) Elapsed() float64 {
	return math.Float64frombits(d.elapsedBits.Load())
}

// Interval returns the configured time between ticks.
func (d *Driver) Interval() time.Duration {
	return d.interval
}

// FrequencyBinCount returns the current buffer length.
func (d *Driver) FrequencyBinCount() int {
	d.tickMu.Lock()
	defer d.tickMu.Unlock()
	return len(d.buf)
}

// SetFrequencyBinCount resizes the frequency buffer between ticks.
func (d *Driver) SetFrequencyBinCount(n int) error {
	if n <= 0 {
		return domain.NewValidationError("binCount", n, "frequency bin count must be positive", domain.ErrInvalidFieldValue)
	}
	d.tickMu.Lock()
	defer d.tickMu.Unlock()
	if n != len(d.buf) {
		d.buf = make([]uint8, n)
	}
	return nil
}

// Shutdown stops the loop.
func (d *Driver) Shutdown() error {
	d.Pause()
	d.logger.Debug("animation driver shut down")
	return nil
}

var _ ports.FrameLoop = (*Driver)(nil)
