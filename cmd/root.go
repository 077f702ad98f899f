package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/atti-agent/attikb/internal/config"
)

var flagBasePath string

var rootCmd = &cobra.Command{
	Use:          "attikb",
	Short:        "attikb — segmented knowledge base manager for the Atti avatar",
	SilenceUsage: true, // don't print usage on operational errors
	Long: `attikb loads, verifies and queries the segmented knowledge base that
backs the Atti conversational avatar, and stages incoming content into a
review sandbox before it ever reaches the live packages.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagBasePath, "base", "", "Knowledge base root (overrides ATTIKB_BASE_PATH and config)")
}

// resolveBasePath picks the knowledge base root: --base flag, then
// ATTIKB_BASE_PATH (environment or ~/.attikb/.env), then attikb.yaml.
func resolveBasePath() (string, error) {
	if flagBasePath != "" {
		return config.ExpandPath(flagBasePath)
	}
	if v, err := config.GetConfigValue("ATTIKB_BASE_PATH"); err == nil && v != "" {
		return config.ExpandPath(v)
	}
	cfg, err := config.Load()
	if err != nil {
		return "", fmt.Errorf("cannot determine knowledge base root: %w\nRun 'attikb init' or pass --base.", err)
	}
	if cfg.BasePath == "" {
		return "", fmt.Errorf("base_path is empty in config\nRun 'attikb init' or pass --base.")
	}
	return cfg.BasePath, nil
}

// newLogger builds the slog logger for command internals. Level comes from
// ATTIKB_LOG_LEVEL, then the config file, defaulting to warn so normal
// command output stays clean.
func newLogger() *slog.Logger {
	level := slog.LevelWarn
	name, _ := config.GetConfigValue("ATTIKB_LOG_LEVEL")
	if name == "" {
		if cfg, err := config.Load(); err == nil {
			name = cfg.LogLevel
		}
	}
	switch strings.ToLower(name) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning", "":
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// skipIntegrityConfigured reports whether integrity checks are disabled via
// ATTIKB_SKIP_INTEGRITY or the config file.
func skipIntegrityConfigured() bool {
	if v, err := config.GetConfigValue("ATTIKB_SKIP_INTEGRITY"); err == nil && v != "" {
		return v == "1" || strings.EqualFold(v, "true")
	}
	if cfg, err := config.Load(); err == nil {
		return cfg.SkipIntegrity
	}
	return false
}

// Execute is called by main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
