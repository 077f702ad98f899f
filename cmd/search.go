package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/atti-agent/attikb/internal/knowledge"
)

var (
	flagSearchSegment    string
	flagSearchK          int
	flagSearchComplexity string
	flagSearchTag        string
	flagSearchPersona    string
	flagSearchRegulatory bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search knowledge blocks by keyword relevance",
	Long: `Score blocks against the query: an exact phrase match earns a fixed
bonus, each term occurrence a smaller one, scaled by the block's retrieval
weight. Filters (--complexity, --tag, --persona, --regulatory) list matching
blocks instead of scoring.

Examples:
  attikb search "alíquota do IBS"
  attikb search reforma --segment legal -k 3
  attikb search --tag ibs
  attikb search --complexity basico --segment hospital`,
	Args: cobra.ArbitraryArgs,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&flagSearchSegment, "segment", "", "Restrict to one segment (loads it lazily)")
	searchCmd.Flags().IntVar(&flagSearchK, "k", 5, "Number of results to show")
	searchCmd.Flags().StringVar(&flagSearchComplexity, "complexity", "", "Filter by complexity (basico, intermediario, avancado)")
	searchCmd.Flags().StringVar(&flagSearchTag, "tag", "", "Filter by tag (case-insensitive)")
	searchCmd.Flags().StringVar(&flagSearchPersona, "persona", "", "Filter by target persona")
	searchCmd.Flags().BoolVar(&flagSearchRegulatory, "regulatory", false, "List regulatory blocks only")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	base, err := resolveBasePath()
	if err != nil {
		return err
	}
	loader := knowledge.NewLoader(base, knowledge.Options{
		SkipIntegrity: skipIntegrityConfigured(),
		Logger:        newLogger(),
	})
	// Queries over all segments need the full cache; --segment loads lazily.
	if flagSearchSegment == "" {
		if _, err := loader.LoadAll(); err != nil {
			return err
		}
	}

	switch {
	case flagSearchComplexity != "":
		blocks, err := loader.BlocksByComplexity(flagSearchComplexity, flagSearchSegment)
		if err != nil {
			return err
		}
		printBlockList(fmt.Sprintf("complexity %s", flagSearchComplexity), blocks)
		return nil
	case flagSearchTag != "":
		blocks, err := loader.BlocksByTag(flagSearchTag, flagSearchSegment)
		if err != nil {
			return err
		}
		printBlockList(fmt.Sprintf("tag %q", flagSearchTag), blocks)
		return nil
	case flagSearchPersona != "":
		blocks, err := loader.BlocksByPersona(flagSearchPersona, flagSearchSegment)
		if err != nil {
			return err
		}
		printBlockList(fmt.Sprintf("persona %q", flagSearchPersona), blocks)
		return nil
	case flagSearchRegulatory:
		blocks, err := loader.RegulatoryBlocks(flagSearchSegment)
		if err != nil {
			return err
		}
		printBlockList("regulatory", blocks)
		return nil
	}

	if len(args) == 0 {
		return cmd.Help()
	}
	query := strings.Join(args, " ")

	results, err := loader.SearchBlocks(query, flagSearchSegment, flagSearchK)
	if err != nil {
		return err
	}

	fmt.Printf("\nattikb search %q\n\n", query)
	fmt.Printf("Results (%d found):\n", len(results))
	if len(results) == 0 {
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for i, r := range results {
		fmt.Fprintf(w, "  %d.\t[%.2f]\t%s\t%s/%s\n", i+1, r.Score, r.Block.ID, segmentLabel(r.Block), r.Block.Complexity)
		fmt.Fprintf(w, "  - %s\n", snippet(r.Block.Content, 120))
	}
	return w.Flush()
}

func printBlockList(label string, blocks []knowledge.Block) {
	fmt.Printf("\nBlocks matching %s (%d found):\n", label, len(blocks))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, b := range blocks {
		fmt.Fprintf(w, "  %s\t%s/%s\tpriority %.2f\n", b.ID, segmentLabel(b), b.Complexity, b.EmbeddingPriority)
	}
	_ = w.Flush()
}

func segmentLabel(b knowledge.Block) string {
	if b.MacroCategory != "" {
		return b.MacroCategory
	}
	return "(none)"
}

// snippet truncates s to max runes on a rune boundary.
func snippet(s string, max int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
