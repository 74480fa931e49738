package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfig = `# default voice (see 'kokoro voices')
voice: "am_michael"
# speech speed multiplier (0.5 to 2.0)
speed: 1.0
# apply audio enhancement (normalize, trim, denoise, fade)
enhance: true
# engine-native sample rate
sample_rate: 24000

# engine backend: subprocess, server, or mock
engine: "subprocess"
# command line for the subprocess backend
engine_command: "kokoro-engine"
# base URL for the server backend
# engine_url: "http://localhost:8880"

# silence-trim threshold below peak, in dB
trim_db: 30.0
# fade-in/out ramp length
fade_duration: 100ms

# token-aware chunking thresholds for long texts
token_target_min: 100
token_target_max: 250
token_absolute_max: 450
token_tail_min: 20

# silence gaps inserted between combined segments
chunk_gap: 200ms
script_gap: 500ms
podcast_gap: 600ms
# edge fade applied to each combined segment
crossfade: 100ms
# maximum segments in one podcast request
podcast_max_segments: 50

# generation history database (empty path keeps the default location)
# history_path: ""

# log level: debug, info, warn, error
log_level: "info"
`

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Create or show the configuration file",
	Args:  cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}
		fmt.Println("Config file:", configFile)
		data, err := os.ReadFile(configFile)
		if err != nil {
			return fmt.Errorf("unable to read config file: %w", err)
		}
		fmt.Print(string(data))
		return nil
	},
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
		if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil {
			return fmt.Errorf("could not write configuration file: %w", err)
		}
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil { // some other error occurred
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}
