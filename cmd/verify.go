package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/atti-agent/attikb/internal/knowledge"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify manifest integrity hashes against the package files",
	Long: `Check every package declared in the manifest: the file must exist, its
sha256 hash must match the manifest, and its JSON must parse. Run this
after editing packages by hand or before shipping a knowledge base.`,
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(_ *cobra.Command, _ []string) error {
	base, err := resolveBasePath()
	if err != nil {
		return err
	}

	printSection("attikb verify")

	m, err := knowledge.LoadManifest(base)
	if err != nil {
		if errors.Is(err, knowledge.ErrManifestMissing) {
			printErr("", fmt.Sprintf("no manifest at %s", filepath.Join(base, knowledge.ManifestFileName)))
			return fmt.Errorf("manifest missing")
		}
		return err
	}
	printOK("", fmt.Sprintf("manifest parsed: version %s, %d package(s), %d block(s) declared",
		m.Version, m.TotalPackages, m.TotalBlocks))

	printBullet("Packages:")
	var failures int
	var blocksSeen int
	for _, d := range m.Packages {
		path := filepath.Join(base, d.File)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			printMiss(d.Segmento, fmt.Sprintf("file missing: %s", d.File))
			failures++
			continue
		}
		actual, err := knowledge.FileSHA256(path)
		if err != nil {
			printErr(d.Segmento, fmt.Sprintf("cannot hash: %v", err))
			failures++
			continue
		}
		if actual != d.HashIntegridade {
			printErr(d.Segmento, fmt.Sprintf("hash mismatch\n      want: %s\n      got:  %s", d.HashIntegridade, actual))
			failures++
			continue
		}
		pkg, err := knowledge.ParsePackageFile(path, d.Segmento)
		if err != nil {
			printErr(d.Segmento, fmt.Sprintf("invalid package: %v", err))
			failures++
			continue
		}
		blocksSeen += len(pkg.Blocks)
		printOK(d.Segmento, fmt.Sprintf("%d block(s)", len(pkg.Blocks)))
	}

	fmt.Println()
	if m.TotalPackages != len(m.Packages) {
		printWarn("", fmt.Sprintf("manifest total_packages=%d but %d package(s) listed", m.TotalPackages, len(m.Packages)))
	}
	if failures == 0 && m.TotalBlocks != blocksSeen {
		printWarn("", fmt.Sprintf("manifest total_blocks=%d but %d block(s) found", m.TotalBlocks, blocksSeen))
	}
	if failures > 0 {
		return fmt.Errorf("%d package(s) failed verification", failures)
	}
	printOK("", "all packages verified")
	return nil
}
