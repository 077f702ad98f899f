package knowledge

import (
	"encoding/json"
	"fmt"
	"os"
)

// Package is one segment's knowledge package: package-level metadata plus an
// ordered sequence of blocks.
type Package struct {
	Segment     string
	Version     string
	Description string
	Blocks      []Block
}

// packageWire mirrors the on-disk JSON shape of a package file.
type packageWire struct {
	Segmento        string      `json:"segmento"`
	Version         string      `json:"version"`
	Descricao       string      `json:"descricao"`
	KnowledgeBlocks []blockWire `json:"knowledge_blocks"`
}

// ParsePackageFile reads and parses a package file for segment. Any invalid
// block aborts the parse; a package is loaded whole or not at all.
func ParsePackageFile(path, segment string) (*Package, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read package %s: %w", path, err)
	}
	var w packageWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("invalid package JSON %s: %w", path, err)
	}

	pkg := &Package{
		Segment:     segment,
		Version:     w.Version,
		Description: w.Descricao,
		Blocks:      make([]Block, 0, len(w.KnowledgeBlocks)),
	}
	for i, bw := range w.KnowledgeBlocks {
		b, err := parseBlock(bw, segment, i)
		if err != nil {
			return nil, err
		}
		pkg.Blocks = append(pkg.Blocks, b)
	}
	return pkg, nil
}
