package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/atti-agent/attikb/internal/content"
	"github.com/atti-agent/attikb/internal/delta"
	"github.com/atti-agent/attikb/internal/normalize"
)

var (
	flagDeltaJSON    bool
	flagDeltaCompare string
)

var deltaCmd = &cobra.Command{
	Use:   "delta <content-file.json>",
	Short: "Analyze incoming content against the indexed knowledge",
	Long: `Read a content item from a JSON file, normalize it, and report whether it
is novel: exact hash match, fuzzy similarity and keyword overlap against
every indexed block.

Example:
  attikb delta scraped/article.json
  attikb delta scraped/article.json --json
  attikb delta scraped/article.json --compare legal-002`,
	Args: cobra.ExactArgs(1),
	RunE: runDelta,
}

func init() {
	deltaCmd.Flags().BoolVar(&flagDeltaJSON, "json", false, "Emit the full report as JSON")
	deltaCmd.Flags().StringVar(&flagDeltaCompare, "compare", "", "Compare against one indexed block id instead of the whole index")
	rootCmd.AddCommand(deltaCmd)
}

func runDelta(_ *cobra.Command, args []string) error {
	base, err := resolveBasePath()
	if err != nil {
		return err
	}
	logger := newLogger()

	item, err := readContentFile(args[0])
	if err != nil {
		return err
	}
	item = normalize.New(logger).Normalize(item)

	detector, err := delta.NewDetector(base, logger)
	if err != nil {
		return err
	}

	if flagDeltaCompare != "" {
		cmp, err := detector.CompareWithBlock(item.Body(), flagDeltaCompare)
		if err != nil {
			return err
		}
		if flagDeltaJSON {
			return printJSON(cmp)
		}
		printSection("attikb delta")
		printInfo("", fmt.Sprintf("compared against %s (%s)", cmp.BlockID, cmp.Segment))
		printInfo("", fmt.Sprintf("similarity %.3f, length diff %+d", cmp.Similarity, cmp.LengthDiff))
		if cmp.IsDuplicate {
			printWarn("", "content duplicates the existing block")
		} else {
			printOK("", "content differs from the existing block")
		}
		return nil
	}

	report := detector.DetectDeltaDetails(item)
	if flagDeltaJSON {
		return printJSON(report)
	}

	printSection("attikb delta")
	if report.Status == "empty" {
		printWarn("", "content is empty, nothing to analyze")
		return nil
	}
	printInfo("", fmt.Sprintf("index size: %d block(s)", detector.Size()))
	printInfo("", fmt.Sprintf("content: %d chars, segment %s", report.ContentLength, report.Segment))
	printInfo("", fmt.Sprintf("keywords (%d): %v", report.KeywordCount, report.Keywords))
	printInfo("", fmt.Sprintf("max similarity %.3f, keyword overlap %.3f", report.MaxSimilarity, report.KeywordOverlap))
	if len(report.SimilarBlocks) > 0 {
		printBullet("Most similar blocks:")
		for _, s := range report.SimilarBlocks {
			printInfo(s.BlockID, fmt.Sprintf("%.3f (%s)", s.Similarity, s.Segment))
		}
	}
	fmt.Println()
	if report.HasChanges {
		printOK("", "content is novel: significant changes detected")
	} else {
		printWarn("", "content duplicates indexed knowledge")
	}
	return nil
}

// readContentFile loads one content item from a JSON file.
func readContentFile(path string) (content.Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return content.Item{}, fmt.Errorf("cannot read content file: %w", err)
	}
	var item content.Item
	if err := json.Unmarshal(data, &item); err != nil {
		return content.Item{}, fmt.Errorf("invalid content JSON %s: %w", path, err)
	}
	return item, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
