package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/atti-agent/attikb/internal/delta"
	"github.com/atti-agent/attikb/internal/knowledge"
	"github.com/atti-agent/attikb/internal/updates"
)

var flagStatusLoad bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show knowledge base and staging pipeline health",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&flagStatusLoad, "load", false, "Load every package before reporting (exercises integrity checks)")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(_ *cobra.Command, _ []string) error {
	base, err := resolveBasePath()
	if err != nil {
		return err
	}
	logger := newLogger()

	printSection("Knowledge Base")

	loader := knowledge.NewLoader(base, knowledge.Options{
		SkipIntegrity: skipIntegrityConfigured(),
		Logger:        logger,
	})
	if flagStatusLoad {
		if _, err := loader.LoadAll(); err != nil {
			printErr("", fmt.Sprintf("load failed: %v", err))
		}
	}
	stats, err := loader.Statistics()
	if err != nil {
		printErr("", fmt.Sprintf("manifest unavailable: %v", err))
	} else {
		printOK("", fmt.Sprintf("manifest version %s", stats.ManifestVersion))
		printInfo("", fmt.Sprintf("%d segment(s) declared, %d loaded", stats.SegmentsAvailable, stats.SegmentsLoaded))
		if stats.SegmentsLoaded > 0 {
			printInfo("", fmt.Sprintf("segments in memory: %s", strings.Join(stats.SegmentsInMemory, ", ")))
			printInfo("", fmt.Sprintf("%d block(s): %d regulatory, %d vector-ready",
				stats.BlocksLoaded, stats.RegulatoryBlocks, stats.VectorReadyBlocks))
		}
	}

	printSection("Staging Pipeline")

	detector, err := delta.NewDetector(base, logger)
	if err != nil {
		printErr("", fmt.Sprintf("cannot build duplicate index: %v", err))
		detector = nil
	}
	sched := updates.NewScheduler(base, detector, logger)
	health, err := sched.CheckHealth()
	if err != nil {
		printErr("", fmt.Sprintf("schedule unreadable: %v", err))
		return nil
	}
	if health.SandboxDirExists {
		printOK("", fmt.Sprintf("sandbox present (%d staged file(s))", health.SandboxFiles))
	} else {
		printMiss("", "sandbox directory not created yet")
	}
	if health.LiveDirExists {
		printOK("", "live content directory present")
	} else {
		printMiss("", "live content directory not created yet")
	}
	printInfo("", fmt.Sprintf("schedule: %d pending, %d completed, %d failed",
		health.ScheduledUpdates, health.CompletedUpdates, health.FailedUpdates))
	if detector != nil {
		printInfo("", fmt.Sprintf("duplicate index: %d block(s)", health.IndexedBlocks))
	}
	return nil
}
