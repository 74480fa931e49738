// Package config loads settings from the YAML config file and the
// environment. Environment variables (KOKORO_*) win over the file,
// flags win over both; flag binding happens in the CLI layer.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/viper"

	"github.com/aparsoft/kokoro-go/internal/audio"
	"github.com/aparsoft/kokoro-go/internal/chunker"
	"github.com/aparsoft/kokoro-go/internal/engine"
	"github.com/aparsoft/kokoro-go/internal/tts"
)

// Config is the full application configuration.
type Config struct {
	// Engine selects and locates the Kokoro backend.
	EngineKind    string `mapstructure:"engine" env:"KOKORO_ENGINE"`
	EngineCommand string `mapstructure:"engine_command" env:"KOKORO_ENGINE_COMMAND"`
	EngineURL     string `mapstructure:"engine_url" env:"KOKORO_ENGINE_URL"`

	// Generation defaults.
	Voice      string  `mapstructure:"voice" env:"KOKORO_VOICE"`
	Speed      float64 `mapstructure:"speed" env:"KOKORO_SPEED"`
	Enhance    bool    `mapstructure:"enhance" env:"KOKORO_ENHANCE"`
	SampleRate int     `mapstructure:"sample_rate" env:"KOKORO_SAMPLE_RATE"`

	// Enhancement tuning.
	TrimDB       float64       `mapstructure:"trim_db" env:"KOKORO_TRIM_DB"`
	FadeDuration time.Duration `mapstructure:"fade_duration" env:"KOKORO_FADE_DURATION"`

	// Chunking thresholds.
	TokenTargetMin   int `mapstructure:"token_target_min" env:"KOKORO_TOKEN_TARGET_MIN"`
	TokenTargetMax   int `mapstructure:"token_target_max" env:"KOKORO_TOKEN_TARGET_MAX"`
	TokenAbsoluteMax int `mapstructure:"token_absolute_max" env:"KOKORO_TOKEN_ABSOLUTE_MAX"`
	TokenTailMin     int `mapstructure:"token_tail_min" env:"KOKORO_TOKEN_TAIL_MIN"`

	// Segment combination.
	ChunkGap           time.Duration `mapstructure:"chunk_gap" env:"KOKORO_CHUNK_GAP"`
	ScriptGap          time.Duration `mapstructure:"script_gap" env:"KOKORO_SCRIPT_GAP"`
	PodcastGap         time.Duration `mapstructure:"podcast_gap" env:"KOKORO_PODCAST_GAP"`
	Crossfade          time.Duration `mapstructure:"crossfade" env:"KOKORO_CROSSFADE"`
	MaxPodcastSegments int           `mapstructure:"podcast_max_segments" env:"KOKORO_PODCAST_MAX_SEGMENTS"`

	// HistoryPath locates the generation history database. Empty
	// disables history.
	HistoryPath string `mapstructure:"history_path" env:"KOKORO_HISTORY_PATH"`

	// LogLevel is debug, info, warn, or error.
	LogLevel string `mapstructure:"log_level" env:"KOKORO_LOG_LEVEL"`
}

// Default returns the Kokoro-tuned defaults.
func Default() Config {
	return Config{
		EngineKind:         string(engine.KindSubprocess),
		EngineCommand:      "kokoro-engine",
		Voice:              "am_michael",
		Speed:              1.0,
		Enhance:            true,
		SampleRate:         audio.DefaultSampleRate,
		TrimDB:             30.0,
		FadeDuration:       100 * time.Millisecond,
		TokenTargetMin:     chunker.DefaultMinTargetTokens,
		TokenTargetMax:     chunker.DefaultMaxTargetTokens,
		TokenAbsoluteMax:   chunker.DefaultAbsoluteMaxTokens,
		TokenTailMin:       chunker.DefaultTailMinTokens,
		ChunkGap:           200 * time.Millisecond,
		ScriptGap:          500 * time.Millisecond,
		PodcastGap:         600 * time.Millisecond,
		Crossfade:          100 * time.Millisecond,
		MaxPodcastSegments: 50,
		LogLevel:           "info",
	}
}

// Load merges the viper-backed config file into the defaults, then
// applies environment overrides, then validates.
func Load(v *viper.Viper) (Config, error) {
	cfg := Default()

	if v != nil {
		if err := v.Unmarshal(&cfg); err != nil {
			return cfg, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks cross-field invariants not expressible per field.
func (c Config) Validate() error {
	switch engine.Kind(c.EngineKind) {
	case engine.KindSubprocess, engine.KindServer, engine.KindMock:
	default:
		return fmt.Errorf("unknown engine kind %q", c.EngineKind)
	}
	if !engine.IsValidVoice(c.Voice) {
		return fmt.Errorf("unknown voice %q", c.Voice)
	}
	if c.Speed < tts.MinSpeed || c.Speed > tts.MaxSpeed {
		return fmt.Errorf("speed %g not in [%g, %g]", c.Speed, tts.MinSpeed, tts.MaxSpeed)
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", c.SampleRate)
	}
	return c.ChunkingPolicy().Validate()
}

// ChunkingPolicy returns the configured chunking thresholds.
func (c Config) ChunkingPolicy() chunker.Policy {
	return chunker.Policy{
		MinTargetTokens:   c.TokenTargetMin,
		MaxTargetTokens:   c.TokenTargetMax,
		AbsoluteMaxTokens: c.TokenAbsoluteMax,
		TailMinTokens:     c.TokenTailMin,
	}
}

// Options maps the configuration into facade options.
func (c Config) Options() tts.Options {
	enhance := audio.DefaultEnhanceOptions()
	enhance.TrimDB = c.TrimDB
	enhance.FadeDuration = c.FadeDuration

	return tts.Options{
		Engine: engine.Config{
			Kind:    engine.Kind(c.EngineKind),
			Command: c.EngineCommand,
			URL:     c.EngineURL,
		},
		Voice:              c.Voice,
		Speed:              c.Speed,
		Enhance:            c.Enhance,
		EnhanceOptions:     enhance,
		Chunking:           c.ChunkingPolicy(),
		SampleRate:         c.SampleRate,
		ChunkGap:           c.ChunkGap,
		ScriptGap:          c.ScriptGap,
		PodcastGap:         c.PodcastGap,
		Crossfade:          c.Crossfade,
		MaxPodcastSegments: c.MaxPodcastSegments,
	}
}
