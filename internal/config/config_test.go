package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kokoro.yml")
	data := []byte("voice: af_bella\nspeed: 1.5\nengine: mock\nchunk_gap: 300ms\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("read config: %v", err)
	}

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Voice != "af_bella" {
		t.Errorf("voice = %q, want af_bella", cfg.Voice)
	}
	if cfg.Speed != 1.5 {
		t.Errorf("speed = %g, want 1.5", cfg.Speed)
	}
	if cfg.ChunkGap != 300*time.Millisecond {
		t.Errorf("chunk gap = %v, want 300ms", cfg.ChunkGap)
	}
	// Unset fields keep their defaults.
	if cfg.TokenTargetMax != 250 {
		t.Errorf("token target max = %d, want default 250", cfg.TokenTargetMax)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	t.Setenv("KOKORO_VOICE", "bm_george")
	t.Setenv("KOKORO_SPEED", "0.8")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Voice != "bm_george" {
		t.Errorf("voice = %q, want bm_george", cfg.Voice)
	}
	if cfg.Speed != 0.8 {
		t.Errorf("speed = %g, want 0.8", cfg.Speed)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown engine", func(c *Config) { c.EngineKind = "carrier-pigeon" }},
		{"unknown voice", func(c *Config) { c.Voice = "xx_nobody" }},
		{"speed too high", func(c *Config) { c.Speed = 4.0 }},
		{"zero sample rate", func(c *Config) { c.SampleRate = 0 }},
		{"min over max", func(c *Config) { c.TokenTargetMin = 300; c.TokenTargetMax = 200 }},
		{"max over absolute", func(c *Config) { c.TokenTargetMax = 500; c.TokenAbsoluteMax = 450 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestOptionsMapping(t *testing.T) {
	cfg := Default()
	cfg.Voice = "hf_alpha"
	cfg.TrimDB = 25.0

	opts := cfg.Options()
	if opts.Voice != "hf_alpha" {
		t.Errorf("voice = %q, want hf_alpha", opts.Voice)
	}
	if opts.EnhanceOptions.TrimDB != 25.0 {
		t.Errorf("trim db = %g, want 25.0", opts.EnhanceOptions.TrimDB)
	}
	if opts.Chunking.MaxTargetTokens != cfg.TokenTargetMax {
		t.Errorf("policy max = %d, want %d", opts.Chunking.MaxTargetTokens, cfg.TokenTargetMax)
	}
}
