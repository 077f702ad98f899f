package cmd

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/atti-agent/attikb/internal/config"
	"github.com/atti-agent/attikb/internal/updates"
)

var (
	flagPromoteJSON     bool
	flagPromoteApply    bool
	flagPromoteRollback bool
	flagPromotePrune    bool
)

var promoteCmd = &cobra.Command{
	Use:   "promote",
	Short: "Preview what promoting the sandbox would change",
	Long: `Validate the staged sandbox content and show the promotion impact:
staged items per segment and the version bump a promotion would apply.

Promotion itself is a deliberate manual step (copy reviewed sandbox files
into packages and rebuild the manifest); --apply always refuses so a script
can never publish unreviewed content by accident.

Example:
  attikb promote
  attikb promote --rollback
  attikb promote --prune`,
	RunE: runPromote,
}

func init() {
	promoteCmd.Flags().BoolVar(&flagPromoteJSON, "json", false, "Emit the impact report as JSON")
	promoteCmd.Flags().BoolVar(&flagPromoteApply, "apply", false, "Attempt to apply the promotion (always refused)")
	promoteCmd.Flags().BoolVar(&flagPromoteRollback, "rollback", false, "Move the sandbox into a timestamped backup and start clean")
	promoteCmd.Flags().BoolVar(&flagPromotePrune, "prune", false, "Delete old sandbox backups, keeping the configured number")
	rootCmd.AddCommand(promoteCmd)
}

func runPromote(_ *cobra.Command, _ []string) error {
	base, err := resolveBasePath()
	if err != nil {
		return err
	}
	promoter := updates.NewPromoter(base, newLogger())

	if flagPromoteRollback {
		printSection("attikb promote --rollback")
		backup, err := promoter.RollbackSandbox()
		if err != nil {
			return err
		}
		if backup == "" {
			printSkip("", "no sandbox to roll back")
			return nil
		}
		printOK("", fmt.Sprintf("sandbox moved to %s", backup))
		return nil
	}

	if flagPromotePrune {
		printSection("attikb promote --prune")
		keep := 5
		if cfg, err := config.Load(); err == nil && cfg.BackupsToKeep > 0 {
			keep = cfg.BackupsToKeep
		}
		pruned, err := promoter.PruneBackups(keep)
		if err != nil {
			return err
		}
		printOK("", fmt.Sprintf("%d backup(s) removed, newest %d kept", pruned, keep))
		return nil
	}

	if flagPromoteApply {
		if err := promoter.Promote(); err != nil {
			if errors.Is(err, updates.ErrPromotionDisabled) {
				printErr("", err.Error())
				return nil
			}
			return err
		}
	}

	impact, err := promoter.PreviewPromotion()
	if err != nil {
		return err
	}
	if flagPromoteJSON {
		return printJSON(impact)
	}

	printSection("attikb promote (preview)")
	printInfo("", fmt.Sprintf("current version %s, promotion would produce %s", impact.CurrentVersion, impact.NextVersion))
	printInfo("", fmt.Sprintf("%d staged item(s)", impact.StagedItems))
	// Map iteration order is random; the report must be stable run to run.
	for _, segment := range sortedSegments(impact.ItemsBySegment) {
		printInfo(segment, fmt.Sprintf("%d item(s)", impact.ItemsBySegment[segment]))
	}
	if len(impact.Problems) > 0 {
		printBullet("Problems:")
		for _, p := range impact.Problems {
			printErr("", p)
		}
	}
	fmt.Println()
	if impact.ReadyToPromote {
		printOK("", "sandbox is valid; promote by reviewing sandbox files and rebuilding the manifest")
	} else {
		printWarn("", "sandbox is not promotable yet")
	}
	return nil
}

// sortedSegments returns the map's keys in ascending order.
func sortedSegments(counts map[string]int) []string {
	out := make([]string, 0, len(counts))
	for segment := range counts {
		out = append(out, segment)
	}
	sort.Strings(out)
	return out
}
