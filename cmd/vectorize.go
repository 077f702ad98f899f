package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/atti-agent/attikb/internal/knowledge"
)

var (
	flagVectorizeSegment string
	flagVectorizeOut     string
)

var vectorizeCmd = &cobra.Command{
	Use:   "vectorize",
	Short: "Export vector-ready blocks for an external embedding pipeline",
	Long: `Project every vector-ready block into the neutral document shape an
embedding pipeline consumes (id, text, retrieval metadata) and write the
result as a JSON array. No embeddings are computed here.

Example:
  attikb vectorize > docs.json
  attikb vectorize --segment legal -o legal-docs.json`,
	RunE: runVectorize,
}

func init() {
	vectorizeCmd.Flags().StringVar(&flagVectorizeSegment, "segment", "", "Restrict to one segment")
	vectorizeCmd.Flags().StringVarP(&flagVectorizeOut, "out", "o", "", "Write to a file instead of stdout")
	rootCmd.AddCommand(vectorizeCmd)
}

func runVectorize(_ *cobra.Command, _ []string) error {
	base, err := resolveBasePath()
	if err != nil {
		return err
	}
	loader := knowledge.NewLoader(base, knowledge.Options{
		SkipIntegrity: skipIntegrityConfigured(),
		Logger:        newLogger(),
	})
	if flagVectorizeSegment == "" {
		if _, err := loader.LoadAll(); err != nil {
			return err
		}
	}

	docs, err := loader.PrepareForVectorization(flagVectorizeSegment)
	if err != nil {
		return err
	}

	out := os.Stdout
	if flagVectorizeOut != "" {
		f, err := os.Create(flagVectorizeOut)
		if err != nil {
			return fmt.Errorf("cannot create %s: %w", flagVectorizeOut, err)
		}
		defer f.Close()
		out = f
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(docs); err != nil {
		return err
	}
	if flagVectorizeOut != "" {
		printOK("", fmt.Sprintf("%d document(s) written to %s", len(docs), flagVectorizeOut))
	}
	return nil
}
