package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/atti-agent/attikb/internal/delta"
	"github.com/atti-agent/attikb/internal/updates"
)

var (
	flagStageID      string
	flagStageSegment string
	flagStageSource  string
)

var stageCmd = &cobra.Command{
	Use:   "stage <content-file.json>",
	Short: "Stage a content file into the review sandbox",
	Long: `Schedule and execute a staging job for one content file: the item is
normalized, validated, checked for novelty against the indexed knowledge,
and on success written to update_sandbox/<id>.json for human review.

Example:
  attikb stage scraped/article.json --id upd-2026-08-27-01 --segment legal`,
	Args: cobra.ExactArgs(1),
	RunE: runStage,
}

func init() {
	stageCmd.Flags().StringVar(&flagStageID, "id", "", "Unique id for this update (required)")
	stageCmd.Flags().StringVar(&flagStageSegment, "segment", "", "Segment hint recorded with the schedule entry")
	stageCmd.Flags().StringVar(&flagStageSource, "source", "manual", "Source label recorded with the schedule entry")
	_ = stageCmd.MarkFlagRequired("id")
	rootCmd.AddCommand(stageCmd)
}

func runStage(_ *cobra.Command, args []string) error {
	base, err := resolveBasePath()
	if err != nil {
		return err
	}
	logger := newLogger()

	item, err := readContentFile(args[0])
	if err != nil {
		return err
	}

	detector, err := delta.NewDetector(base, logger)
	if err != nil {
		return err
	}
	sched := updates.NewScheduler(base, detector, logger)

	printSection("attikb stage")

	if _, err := sched.ScheduleUpdate(flagStageID, flagStageSegment, flagStageSource); err != nil {
		return err
	}
	printOK("", fmt.Sprintf("scheduled %s", flagStageID))

	entry, err := sched.ExecuteUpdate(flagStageID, item)
	if err != nil {
		return err
	}
	switch entry.Status {
	case updates.StatusCompleted:
		printOK("", fmt.Sprintf("staged to update_sandbox/%s.json", entry.ID))
		printInfo("", "run 'attikb promote' to preview the promotion impact")
	case updates.StatusSkipped:
		printSkip("", "content duplicates indexed knowledge; nothing staged")
	default:
		printWarn("", fmt.Sprintf("staging finished with status %s", entry.Status))
	}
	return nil
}
