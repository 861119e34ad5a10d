package analyzer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/soundscape/internal/domain"
)

func sine(n, bin int, amplitude float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amplitude * math.Sin(2*math.Pi*float64(bin)*float64(i)/float64(n))
	}
	return out
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name string
		mut  func(*Config)
	}{
		{"not power of two", func(c *Config) { c.FFTSize = 1000 }},
		{"too small", func(c *Config) { c.FFTSize = 16 }},
		{"smoothing above one", func(c *Config) { c.Smoothing = 1.5 }},
		{"negative smoothing", func(c *Config) { c.Smoothing = -0.1 }},
		{"inverted range", func(c *Config) { c.MinDecibels = -20 }},
	}

	require.NoError(t, DefaultConfig().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mut(&cfg)
			_, err := New(cfg)
			assert.ErrorIs(t, err, domain.ErrInvalidFieldValue)
		})
	}
}

func TestAnalyzer_SilenceIsZero(t *testing.T) {
	a, err := New(DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, 1024, a.FrequencyBinCount())

	dst := make([]uint8, a.FrequencyBinCount())
	a.FrequencyData(dst)
	assert.Equal(t, make([]uint8, len(dst)), dst)
}

func TestAnalyzer_SinePeaksAtItsBin(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FFTSize = 256
	cfg.Smoothing = 0
	a, err := New(cfg)
	require.NoError(t, err)

	a.WriteMono(sine(256, 16, 1))

	dst := make([]uint8, a.FrequencyBinCount())
	a.FrequencyData(dst)

	assert.Equal(t, uint8(255), dst[16])
	assert.Zero(t, dst[100])
	for k, v := range dst {
		assert.LessOrEqual(t, v, dst[16], "bin %d", k)
	}
}

func TestAnalyzer_StereoMixdown(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FFTSize = 256
	cfg.Smoothing = 0
	a, err := New(cfg)
	require.NoError(t, err)

	// Opposite channels cancel out.
	mono := sine(256, 8, 1)
	stereo := make([][2]float64, len(mono))
	for i, v := range mono {
		stereo[i] = [2]float64{v, -v}
	}
	a.Write(stereo)

	dst := make([]uint8, a.FrequencyBinCount())
	a.FrequencyData(dst)
	assert.Zero(t, dst[8])
}

func TestAnalyzer_SmoothingDecays(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FFTSize = 256
	cfg.Smoothing = 0.9
	cfg.MinDecibels = -60
	cfg.MaxDecibels = 0
	a, err := New(cfg)
	require.NoError(t, err)

	a.WriteMono(sine(256, 16, 1))
	dst := make([]uint8, a.FrequencyBinCount())
	a.FrequencyData(dst)
	first := dst[16]
	a.FrequencyData(dst)
	second := dst[16]
	assert.Greater(t, second, first, "smoothed value rises toward the steady level")

	a.WriteMono(make([]float64, 256))
	a.FrequencyData(dst)
	assert.Less(t, dst[16], second, "and decays after silence")
	assert.NotZero(t, dst[16])

	a.Reset()
	a.FrequencyData(dst)
	assert.Zero(t, dst[16])
}

func TestAnalyzer_ShortDestination(t *testing.T) {
	a, err := New(DefaultConfig())
	require.NoError(t, err)

	short := make([]uint8, 4)
	long := make([]uint8, 2000)
	long[1500] = 7
	assert.NotPanics(t, func() {
		a.FrequencyData(short)
		a.FrequencyData(long)
	})
	assert.Zero(t, long[1500])
}

func TestAnalyzer_FrequencyDataZeroAllocs(t *testing.T) {
	a, err := New(DefaultConfig())
	require.NoError(t, err)
	a.WriteMono(sine(2048, 40, 0.5))

	dst := make([]uint8, a.FrequencyBinCount())
	allocs := testing.AllocsPerRun(50, func() {
		a.FrequencyData(dst)
	})
	assert.Zero(t, allocs)
}
