// Package config loads the soundscape configuration.
//
// Values are resolved in order: built-in defaults, the YAML file, a .env file
// and finally SOUNDSCAPE_* environment variables. The result is validated.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/tejashwikalptaru/soundscape/internal/domain"
	"github.com/tejashwikalptaru/soundscape/internal/logger"
)

// DefaultPath is the config file looked up when no path is given.
const DefaultPath = "soundscape.yaml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SOUNDSCAPE_"

// Audio backends.
const (
	BackendMock = "mock"
	BackendBeep = "beep"
)

// Config is the root configuration document.
type Config struct {
	Log       LogConfig       `yaml:"log"`
	Audio     AudioConfig     `yaml:"audio"`
	Animation AnimationConfig `yaml:"animation"`
	Keyboard  KeyboardConfig  `yaml:"keyboard"`
	Server    ServerConfig    `yaml:"server"`
	Library   LibraryConfig   `yaml:"library"`
	Themes    ThemesConfig    `yaml:"themes"`
	UI        UIConfig        `yaml:"ui"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// AudioConfig selects the transport and tunes the analyser.
type AudioConfig struct {
	Backend       string  `yaml:"backend"`
	FFTSize       int     `yaml:"fft_size"`
	Smoothing     float64 `yaml:"smoothing"`
	MinDecibels   float64 `yaml:"min_decibels"`
	MaxDecibels   float64 `yaml:"max_decibels"`
	SampleRate    int     `yaml:"sample_rate"`
	InitialVolume float64 `yaml:"initial_volume"`
}

// BinCount is the number of frequency bins the analyser produces.
func (a AudioConfig) BinCount() int {
	return a.FFTSize / 2
}

// AnimationConfig configures the frame loop.
type AnimationConfig struct {
	FPS          int  `yaml:"fps"`
	StartRunning bool `yaml:"start_running"`
}

// KeyboardConfig configures the shortcut gate.
type KeyboardConfig struct {
	RequireModifier bool `yaml:"require_modifier"`
}

// ServerConfig configures the websocket frame stream.
type ServerConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Listen        string        `yaml:"listen"`
	FrameInterval time.Duration `yaml:"frame_interval"`
}

// LibraryConfig points at a folder scanned on startup.
type LibraryConfig struct {
	SongsDir string `yaml:"songs_dir"`
}

// ThemesConfig points at an optional YAML theme file.
type ThemesConfig struct {
	File  string `yaml:"file"`
	Watch bool   `yaml:"watch"`
}

// UIConfig configures the desktop window.
type UIConfig struct {
	Headless bool   `yaml:"headless"`
	AppID    string `yaml:"app_id"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Log: LogConfig{Level: "info", Format: "text"},
		Audio: AudioConfig{
			Backend:       BackendBeep,
			FFTSize:       2048,
			Smoothing:     0.8,
			MinDecibels:   -100,
			MaxDecibels:   -30,
			SampleRate:    44100,
			InitialVolume: 0.5,
		},
		Animation: AnimationConfig{FPS: 60, StartRunning: true},
		Keyboard:  KeyboardConfig{RequireModifier: true},
		Server: ServerConfig{
			Listen:        ":8080",
			FrameInterval: 33 * time.Millisecond,
		},
		UI: UIConfig{AppID: "com.tejashwikalptaru.soundscape"},
	}
}

// Load reads the configuration at path. An empty path means DefaultPath,
// which may be absent; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// A missing .env is normal; existing variables win over it.
	_ = godotenv.Load()

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// applyEnvOverrides applies SOUNDSCAPE_* variables on top of the file values.
func (c *Config) applyEnvOverrides() error {
	var errs []error
	str := func(name string, dst *string) {
		if val, ok := os.LookupEnv(EnvPrefix + name); ok {
			*dst = val
		}
	}
	parse := func(name string, set func(string) error) {
		if val, ok := os.LookupEnv(EnvPrefix + name); ok {
			if err := set(val); err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
			}
		}
	}
	boolean := func(name string, dst *bool) {
		parse(name, func(v string) (err error) { *dst, err = strconv.ParseBool(v); return })
	}
	integer := func(name string, dst *int) {
		parse(name, func(v string) (err error) { *dst, err = strconv.Atoi(v); return })
	}

	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("AUDIO_BACKEND", &c.Audio.Backend)
	integer("AUDIO_FFT_SIZE", &c.Audio.FFTSize)
	parse("AUDIO_SMOOTHING", func(v string) (err error) { c.Audio.Smoothing, err = strconv.ParseFloat(v, 64); return })
	parse("AUDIO_INITIAL_VOLUME", func(v string) (err error) { c.Audio.InitialVolume, err = strconv.ParseFloat(v, 64); return })
	integer("ANIMATION_FPS", &c.Animation.FPS)
	boolean("KEYBOARD_REQUIRE_MODIFIER", &c.Keyboard.RequireModifier)
	boolean("SERVER_ENABLED", &c.Server.Enabled)
	str("SERVER_LISTEN", &c.Server.Listen)
	parse("SERVER_FRAME_INTERVAL", func(v string) (err error) { c.Server.FrameInterval, err = time.ParseDuration(v); return })
	str("LIBRARY_SONGS_DIR", &c.Library.SongsDir)
	str("THEMES_FILE", &c.Themes.File)
	boolean("THEMES_WATCH", &c.Themes.Watch)
	boolean("UI_HEADLESS", &c.UI.Headless)

	return errors.Join(errs...)
}

// Validate checks every section.
func (c *Config) Validate() error {
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return domain.NewValidationError("log.level", c.Log.Level, err.Error(), domain.ErrInvalidFieldValue)
	}
	if f := strings.ToLower(c.Log.Format); f != "text" && f != "json" {
		return domain.NewValidationError("log.format", c.Log.Format, "must be text or json", domain.ErrInvalidFieldValue)
	}

	a := c.Audio
	if a.Backend != BackendMock && a.Backend != BackendBeep {
		return domain.NewValidationError("audio.backend", a.Backend, "must be mock or beep", domain.ErrInvalidFieldValue)
	}
	if a.FFTSize < 32 || a.FFTSize&(a.FFTSize-1) != 0 {
		return domain.NewValidationError("audio.fft_size", a.FFTSize, "must be a power of two >= 32", domain.ErrInvalidFieldValue)
	}
	if a.Smoothing < 0 || a.Smoothing > 1 {
		return domain.NewValidationError("audio.smoothing", a.Smoothing, "must be within 0..1", domain.ErrInvalidFieldValue)
	}
	if a.MinDecibels >= a.MaxDecibels {
		return domain.NewValidationError("audio.min_decibels", a.MinDecibels, "must be below max_decibels", domain.ErrInvalidFieldValue)
	}
	if a.SampleRate <= 0 {
		return domain.NewValidationError("audio.sample_rate", a.SampleRate, "must be positive", domain.ErrInvalidFieldValue)
	}
	if a.InitialVolume < 0 || a.InitialVolume > 1 {
		return domain.NewValidationError("audio.initial_volume", a.InitialVolume, "must be within 0..1", domain.ErrInvalidVolume)
	}

	if c.Animation.FPS < 1 || c.Animation.FPS > 1000 {
		return domain.NewValidationError("animation.fps", c.Animation.FPS, "must be within 1..1000", domain.ErrInvalidFieldValue)
	}

	if c.Server.Enabled {
		if c.Server.Listen == "" {
			return domain.NewValidationError("server.listen", c.Server.Listen, "required when the server is enabled", domain.ErrInvalidFieldValue)
		}
		if c.Server.FrameInterval <= 0 {
			return domain.NewValidationError("server.frame_interval", c.Server.FrameInterval, "must be positive", domain.ErrInvalidFieldValue)
		}
	}

	if c.Themes.Watch && c.Themes.File == "" {
		return domain.NewValidationError("themes.watch", c.Themes.Watch, "needs themes.file", domain.ErrInvalidFieldValue)
	}
	return nil
}

// LoggerConfig converts the log section for logger.NewLogger.
func (c *Config) LoggerConfig() logger.Config {
	level, _ := logger.ParseLevel(c.Log.Level)
	return logger.Config{Level: level, Format: strings.ToLower(c.Log.Format)}
}
