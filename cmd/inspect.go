package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/atti-agent/attikb/internal/knowledge"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <segment-or-block-id>",
	Short: "Show a segment's package or one knowledge block in detail",
	Long: `Display a formatted summary of a knowledge segment or a single block.

The argument can be either:
  - A segment name from the manifest (e.g. legal)
  - A block id (e.g. legal-002)

Example:
  attikb inspect legal
  attikb inspect legal-002`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(_ *cobra.Command, args []string) error {
	base, err := resolveBasePath()
	if err != nil {
		return err
	}
	loader := knowledge.NewLoader(base, knowledge.Options{
		SkipIntegrity: skipIntegrityConfigured(),
		Logger:        newLogger(),
	})

	arg := args[0]

	// Segment name first; fall back to block id across all packages.
	pkg, err := loader.LoadPackage(arg)
	if err == nil {
		printPackage(pkg)
		return nil
	}
	var unknown *knowledge.UnknownSegmentError
	if !errors.As(err, &unknown) {
		return err
	}

	if _, err := loader.LoadAll(); err != nil {
		return err
	}
	segments, err := loader.Segments()
	if err != nil {
		return err
	}
	for _, seg := range segments {
		blocks, err := loader.BlocksBySegment(seg)
		if err != nil {
			return err
		}
		for _, b := range blocks {
			if b.ID == arg {
				printBlock(seg, b)
				return nil
			}
		}
	}
	return fmt.Errorf("no segment or block named %q.\nSegments: %s", arg, strings.Join(segments, ", "))
}

func printPackage(pkg *knowledge.Package) {
	fmt.Printf("Segment:     %s\n", pkg.Segment)
	if pkg.Version != "" {
		fmt.Printf("Version:     %s\n", pkg.Version)
	}
	if pkg.Description != "" {
		fmt.Printf("Description: %s\n", pkg.Description)
	}
	fmt.Printf("Blocks:      %d\n", len(pkg.Blocks))
	printBullet("Blocks:")
	for _, b := range pkg.Blocks {
		marker := "  "
		if b.Regulatory {
			marker = "⚖ "
		}
		fmt.Printf("  %s%s  (%s, priority %.2f)\n", marker, b.ID, b.Complexity, b.EmbeddingPriority)
		fmt.Printf("      %s\n", snippet(b.Content, 100))
	}
}

func printBlock(segment string, b knowledge.Block) {
	fmt.Printf("Block:       %s\n", b.ID)
	fmt.Printf("Segment:     %s\n", segment)
	fmt.Printf("Complexity:  %s\n", b.Complexity)
	if b.Persona != "" {
		fmt.Printf("Persona:     %s\n", b.Persona)
	}
	if len(b.Tags) > 0 {
		fmt.Printf("Tags:        %s\n", strings.Join(b.Tags, ", "))
	}
	fmt.Printf("Regulatory:  %t\n", b.Regulatory)
	fmt.Printf("Priority:    %.2f\n", b.EmbeddingPriority)
	fmt.Printf("Weight:      %.2f\n", b.RetrievalWeight)
	fmt.Printf("VectorReady: %t\n", b.VectorReady)
	if len(b.CrossReferences) > 0 {
		fmt.Printf("References:  %s\n", strings.Join(b.CrossReferences, ", "))
	}
	fmt.Printf("Version:     %s\n", b.KnowledgeVersion)
	if b.MacroCategory != "" || b.Subcategory != "" {
		fmt.Printf("Category:    %s / %s\n", b.MacroCategory, b.Subcategory)
	}
	fmt.Printf("\n%s\n", b.Content)
}
