package knowledge

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ManifestFileName is the fixed manifest name looked up at the base path.
const ManifestFileName = "knowledge_manifest.json"

// Manifest is the top-level index describing all knowledge packages and
// their integrity hashes. It is loaded once and never mutated at runtime.
type Manifest struct {
	Version       string              `json:"version"`
	TotalPackages int                 `json:"total_packages"`
	TotalBlocks   int                 `json:"total_blocks"`
	Packages      []PackageDescriptor `json:"packages"`
}

// PackageDescriptor points at one package file and its recorded sha256 hash.
type PackageDescriptor struct {
	Segmento        string `json:"segmento"`
	File            string `json:"file"`
	HashIntegridade string `json:"hash_integridade"`
}

// LoadManifest reads and parses the manifest at basePath.
func LoadManifest(basePath string) (*Manifest, error) {
	path := filepath.Join(basePath, ManifestFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrManifestMissing, path)
		}
		return nil, fmt.Errorf("cannot read manifest %s: %w", path, err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("invalid manifest JSON %s: %w", path, err)
	}
	return &m, nil
}

// Segments returns the declared segment names in manifest order.
func (m *Manifest) Segments() []string {
	out := make([]string, 0, len(m.Packages))
	for _, p := range m.Packages {
		out = append(out, p.Segmento)
	}
	return out
}

// descriptor returns the descriptor for segment, if declared.
func (m *Manifest) descriptor(segment string) (PackageDescriptor, bool) {
	for _, p := range m.Packages {
		if p.Segmento == segment {
			return p, true
		}
	}
	return PackageDescriptor{}, false
}
