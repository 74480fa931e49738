// Package main provides the entry point for the kokoro CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aparsoft/kokoro-go/internal/config"
	"github.com/aparsoft/kokoro-go/internal/history"
	"github.com/aparsoft/kokoro-go/internal/tts"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	debug      bool

	keyword = lipgloss.NewStyle().Foreground(lipgloss.Color("170")).Render
	subtle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render

	rootCmd = &cobra.Command{
		Use:   "kokoro",
		Short: "Neural text-to-speech on the CLI, with pizzazz!",
		Long: fmt.Sprintf(
			"\nGenerate natural speech with %s: voiceovers, scripts, batches, and multi-voice podcasts.",
			keyword("Kokoro TTS"),
		),
		SilenceErrors: false,
		SilenceUsage:  true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if debug || viper.GetBool("debug") {
				log.SetLevel(log.DebugLevel)
			}
		},
	}
)

// loadConfig merges defaults, the config file, and the environment.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return cfg, err
	}
	if cfg.HistoryPath == "" {
		if home, err := homedir.Dir(); err == nil {
			cfg.HistoryPath = filepath.Join(home, ".local", "share", "kokoro-go", "history.db")
		}
	}
	return cfg, nil
}

// newEngine builds the facade from configuration.
func newEngine(cfg config.Config) (*tts.Engine, error) {
	return tts.New(cfg.Options())
}

// openHistory opens the history store, or returns nil when history is
// unavailable. Generation never fails because reporting does.
func openHistory(ctx context.Context, cfg config.Config) *history.Store {
	if cfg.HistoryPath == "" {
		return nil
	}
	store, err := history.Open(ctx, cfg.HistoryPath)
	if err != nil {
		log.Warn("history unavailable", "path", cfg.HistoryPath, "error", err)
		return nil
	}
	return store
}

func recordHistory(ctx context.Context, store *history.Store, e history.Entry) {
	if store == nil {
		return
	}
	if err := store.Record(ctx, e); err != nil {
		log.Warn("history record failed", "error", err)
	}
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func setupLog() (func() error, error) {
	// Log to a file when requested. Mostly for debugging.
	if os.Getenv("KOKORO_LOGFILE") != "" {
		f, err := os.OpenFile(os.Getenv("KOKORO_LOGFILE"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("error setting up log file: %w", err)
		}
		log.SetOutput(f)
		log.SetLevel(log.DebugLevel)
		return f.Close, nil
	}
	log.SetOutput(os.Stderr)
	return func() error { return nil }, nil
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "verbose logging")
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))

	rootCmd.AddCommand(
		generateCmd,
		batchCmd,
		scriptCmd,
		podcastCmd,
		voicesCmd,
		historyCmd,
		dashboardCmd,
		serveCmd,
		configCmd,
		versionCmd,
		manCmd,
	)
}

func tryLoadConfigFromDefaultPlaces() {
	home, err := homedir.Dir()
	if err != nil {
		fmt.Println("Could not find the home directory.")
		os.Exit(1)
	}

	dirs := []string{filepath.Join(home, ".config", "kokoro-go")}
	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "kokoro-go")}, dirs...)
	}
	if c := os.Getenv("KOKORO_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("kokoro")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("kokoro")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", used)
		return
	}

	configFile = filepath.Join(dirs[0], "kokoro.yml")
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
