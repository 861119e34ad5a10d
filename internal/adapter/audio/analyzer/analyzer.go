// Package analyzer turns a stream of PCM samples into byte frequency frames.
//
// The mapping follows the usual analyser-node pipeline: the newest FFTSize
// samples are Blackman windowed, transformed, normalised by the FFT size,
// smoothed over time, converted to decibels and scaled linearly from
// [MinDecibels, MaxDecibels] to [0, 255].
package analyzer

import (
	"fmt"
	"math"
	"math/cmplx"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/tejashwikalptaru/soundscape/internal/domain"
	"github.com/tejashwikalptaru/soundscape/internal/ports"
)

// Config holds analyser parameters.
type Config struct {
	FFTSize     int
	Smoothing   float64
	MinDecibels float64
	MaxDecibels float64
}

// DefaultConfig returns the browser analyser defaults.
func DefaultConfig() Config {
	return Config{
		FFTSize:     2048,
		Smoothing:   0.8,
		MinDecibels: -100,
		MaxDecibels: -30,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.FFTSize < 32 || c.FFTSize&(c.FFTSize-1) != 0 {
		return domain.NewValidationError("fft_size", c.FFTSize, "must be a power of two >= 32", domain.ErrInvalidFieldValue)
	}
	if c.Smoothing < 0 || c.Smoothing > 1 {
		return domain.NewValidationError("smoothing", c.Smoothing, "must be within 0..1", domain.ErrInvalidFieldValue)
	}
	if c.MinDecibels >= c.MaxDecibels {
		return domain.NewValidationError("min_decibels", c.MinDecibels,
			fmt.Sprintf("must be below max_decibels (%g)", c.MaxDecibels), domain.ErrInvalidFieldValue)
	}
	return nil
}

// Analyzer holds the sample ring and the pre-allocated FFT workspace.
//
// Thread-safety: Write is called from the audio goroutine and FrequencyData
// from the animation goroutine; both lock mu.
type Analyzer struct {
	cfg Config
	fft *fourier.FFT

	ring []float64
	head int

	input    []float64
	coeffs   []complex128
	smoothed []float64
	window   []float64
	scale    float64

	mu sync.Mutex
}

// New creates an analyser.
func New(cfg Config) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	n := cfg.FFTSize
	window := make([]float64, n)
	const a0, a1, a2 = 0.42, 0.5, 0.08
	for i := range window {
		x := 2 * math.Pi * float64(i) / float64(n)
		window[i] = a0 - a1*math.Cos(x) + a2*math.Cos(2*x)
	}

	return &Analyzer{
		cfg:      cfg,
		fft:      fourier.NewFFT(n),
		ring:     make([]float64, n),
		input:    make([]float64, n),
		coeffs:   make([]complex128, n/2+1),
		smoothed: make([]float64, n/2),
		window:   window,
		scale:    255 / (cfg.MaxDecibels - cfg.MinDecibels),
	}, nil
}

// Write appends stereo samples, mixed down to mono.
func (a *Analyzer) Write(samples [][2]float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, s := range samples {
		a.ring[a.head] = (s[0] + s[1]) / 2
		a.head = (a.head + 1) % len(a.ring)
	}
}

// WriteMono appends mono samples.
func (a *Analyzer) WriteMono(samples []float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, s := range samples {
		a.ring[a.head] = s
		a.head = (a.head + 1) % len(a.ring)
	}
}

// Reset clears the sample history and the smoothing state.
func (a *Analyzer) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	clear(a.ring)
	clear(a.smoothed)
	a.head = 0
}

// FrequencyBinCount returns FFTSize/2.
func (a *Analyzer) FrequencyBinCount() int {
	return a.cfg.FFTSize / 2
}

// FrequencyData computes a frame from the newest FFTSize samples into dst.
func (a *Analyzer) FrequencyData(dst []uint8) {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := len(a.ring)
	for i := 0; i < n; i++ {
		a.input[i] = a.ring[(a.head+i)%n] * a.window[i]
	}
	a.fft.Coefficients(a.coeffs, a.input)

	tau := a.cfg.Smoothing
	bins := len(a.smoothed)
	limit := min(len(dst), bins)
	for k := 0; k < bins; k++ {
		mag := cmplx.Abs(a.coeffs[k]) / float64(n)
		a.smoothed[k] = tau*a.smoothed[k] + (1-tau)*mag
		if k < limit {
			dst[k] = a.toByte(a.smoothed[k])
		}
	}
	clear(dst[limit:])
}

func (a *Analyzer) toByte(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	scaled := a.scale * (20*math.Log10(v) - a.cfg.MinDecibels)
	switch {
	case scaled <= 0:
		return 0
	case scaled >= 255:
		return 255
	default:
		return uint8(scaled)
	}
}

// Verify interface implementation
var _ ports.FrequencyProvider = (*Analyzer)(nil)
