package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/atti-agent/attikb/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the default config and knowledge base skeleton",
	Long: `Write ~/.attikb/attikb.yaml with defaults (unless it exists), create the
dotenv template, and lay out the knowledge base directories.`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(_ *cobra.Command, _ []string) error {
	printSection("attikb init")

	cfgPath, err := config.ConfigPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(cfgPath); err == nil {
		printSkip("", fmt.Sprintf("config exists: %s", cfgPath))
	} else {
		cfg, err := config.DefaultConfig()
		if err != nil {
			return err
		}
		if err := config.Save(cfg); err != nil {
			return err
		}
		printOK("", fmt.Sprintf("config written: %s", cfgPath))
	}

	if err := config.EnsureDotEnvTemplate(); err != nil {
		return err
	}
	dotenvPath, _ := config.DotEnvPath()
	printOK("", fmt.Sprintf("dotenv template: %s", dotenvPath))

	base, err := resolveBasePath()
	if err != nil {
		return err
	}
	for _, sub := range []string{"", "knowledge_packages", "live_content", "update_sandbox", "dynamic_updates"} {
		dir := filepath.Join(base, sub)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("cannot create %s: %w", dir, err)
		}
	}
	printOK("", fmt.Sprintf("knowledge base skeleton: %s", base))
	printInfo("", "place knowledge_manifest.json and package files under the base path")
	return nil
}
