// Package knowledge loads and queries the manifest-driven knowledge packages
// of the avatar runtime: integrity-checked JSON packages of typed blocks,
// deterministic filters and keyword search over them, and the projection
// handed to external embedding pipelines.
package knowledge

import (
	"log/slog"
	"os"
	"path/filepath"
)

// Options configures a Loader. The zero value validates integrity and
// discards log output.
type Options struct {
	// SkipIntegrity disables sha256 verification of package files.
	// Useful for fast non-validating test or dev startup.
	SkipIntegrity bool
	// Logger receives load diagnostics. Nil discards them.
	Logger *slog.Logger
}

// Loader owns the package cache for one knowledge base. It is intended for
// single-owner use; callers needing concurrent access must serialize
// externally or use one Loader per worker.
type Loader struct {
	basePath      string
	skipIntegrity bool
	logger        *slog.Logger

	manifest *Manifest
	packages map[string]*Package
	order    []string // loaded segments in insertion order

	// blocks is the derived flat cache: nil means stale, otherwise it is
	// exactly the concatenation of all loaded packages' blocks in
	// package-then-block order.
	blocks []Block
}

// NewLoader returns a Loader rooted at basePath. Nothing is read from disk
// until the manifest or a package is first needed.
func NewLoader(basePath string, opts Options) *Loader {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loader{
		basePath:      basePath,
		skipIntegrity: opts.SkipIntegrity,
		logger:        logger,
		packages:      make(map[string]*Package),
	}
}

// Manifest returns the cached manifest, loading it on first use.
func (l *Loader) Manifest() (*Manifest, error) {
	if l.manifest == nil {
		m, err := LoadManifest(l.basePath)
		if err != nil {
			return nil, err
		}
		l.logger.Info("manifest loaded",
			"version", m.Version,
			"packages", m.TotalPackages,
			"blocks", m.TotalBlocks,
		)
		l.manifest = m
	}
	return l.manifest, nil
}

// Segments returns the segment names declared in the manifest.
func (l *Loader) Segments() ([]string, error) {
	m, err := l.Manifest()
	if err != nil {
		return nil, err
	}
	return m.Segments(), nil
}

// LoadAll loads every package listed in the manifest, in manifest order,
// verifying integrity unless disabled. A missing file aborts the pass with
// PackageFileMissingError; packages already processed stay loaded (no
// rollback). The flat block cache is invalidated exactly once at the end,
// on success and failure alike.
func (l *Loader) LoadAll() (map[string]*Package, error) {
	m, err := l.Manifest()
	if err != nil {
		return nil, err
	}
	defer func() { l.blocks = nil }()

	for _, d := range m.Packages {
		pkg, err := l.readPackage(d)
		if err != nil {
			return nil, err
		}
		l.insert(d.Segmento, pkg)
		l.logger.Info("package loaded", "segment", d.Segmento, "blocks", len(pkg.Blocks))
	}
	l.logger.Info("all packages loaded", "count", len(l.packages))
	return l.packages, nil
}

// LoadPackage lazily loads a single segment, caching it for later queries.
// Segments not declared in the manifest fail with UnknownSegmentError.
func (l *Loader) LoadPackage(segment string) (*Package, error) {
	m, err := l.Manifest()
	if err != nil {
		return nil, err
	}
	if pkg, ok := l.packages[segment]; ok {
		return pkg, nil
	}
	d, ok := m.descriptor(segment)
	if !ok {
		return nil, &UnknownSegmentError{Segment: segment, Available: m.Segments()}
	}
	pkg, err := l.readPackage(d)
	if err != nil {
		return nil, err
	}
	l.insert(d.Segmento, pkg)
	l.blocks = nil
	return pkg, nil
}

// Reload clears the manifest cache, package cache, and block cache, then
// performs a full LoadAll: a cold restart without reconstructing the Loader.
func (l *Loader) Reload() error {
	l.manifest = nil
	l.packages = make(map[string]*Package)
	l.order = nil
	l.blocks = nil
	_, err := l.LoadAll()
	return err
}

// readPackage resolves, optionally verifies, and parses one package file.
// Verification happens before parsing so a tampered package is never cached.
func (l *Loader) readPackage(d PackageDescriptor) (*Package, error) {
	path := filepath.Join(l.basePath, d.File)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, &PackageFileMissingError{Segment: d.Segmento, Path: path}
	}
	if !l.skipIntegrity {
		if err := verifyIntegrity(path, d.HashIntegridade, d.Segmento); err != nil {
			return nil, err
		}
		l.logger.Debug("integrity ok", "segment", d.Segmento)
	}
	return ParsePackageFile(path, d.Segmento)
}

func (l *Loader) insert(segment string, pkg *Package) {
	if _, ok := l.packages[segment]; !ok {
		l.order = append(l.order, segment)
	}
	l.packages[segment] = pkg
}

// allBlocks returns the flat cache, rebuilding it if stale. With zero
// packages loaded the result is empty, not an error.
func (l *Loader) allBlocks() []Block {
	if l.blocks == nil {
		out := make([]Block, 0)
		for _, seg := range l.order {
			out = append(out, l.packages[seg].Blocks...)
		}
		l.blocks = out
	}
	return l.blocks
}

// Statistics summarizes the Loader's current state.
type Statistics struct {
	ManifestVersion   string
	SegmentsAvailable int
	SegmentsLoaded    int
	BlocksLoaded      int
	RegulatoryBlocks  int
	VectorReadyBlocks int
	SegmentsInMemory  []string
}

// Statistics reports manifest and cache counters without loading anything
// beyond the manifest itself.
func (l *Loader) Statistics() (Statistics, error) {
	m, err := l.Manifest()
	if err != nil {
		return Statistics{}, err
	}
	stats := Statistics{
		ManifestVersion:   m.Version,
		SegmentsAvailable: len(m.Packages),
		SegmentsLoaded:    len(l.packages),
		SegmentsInMemory:  append([]string(nil), l.order...),
	}
	for _, b := range l.allBlocks() {
		stats.BlocksLoaded++
		if b.Regulatory {
			stats.RegulatoryBlocks++
		}
		if b.VectorReady {
			stats.VectorReadyBlocks++
		}
	}
	return stats, nil
}
