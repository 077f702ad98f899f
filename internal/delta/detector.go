// Package delta decides whether incoming content duplicates existing
// knowledge, so the ingestion pipeline never re-stages paraphrased or
// identical material. The gate is a cheap, explainable three-tier filter:
// exact hash, fuzzy text similarity, keyword overlap. It only guards a
// human-reviewed sandbox, never auto-publishes.
package delta

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/atti-agent/attikb/internal/content"
)

const (
	// SimilarityThreshold is the fuzzy-ratio ceiling above which content is
	// treated as a near-duplicate.
	SimilarityThreshold = 0.85
	// KeywordOverlapThreshold is the keyword-overlap ceiling above which
	// content is treated as a probable duplicate.
	KeywordOverlapThreshold = 0.90

	// reportSimilarityFloor is the minimum ratio for a block to appear in
	// a detail report's similar-blocks list.
	reportSimilarityFloor = 0.5
	maxSimilarBlocks      = 5
)

// legacyPackagesDir holds the raw content files the detector indexes. These
// use the legacy field names (blocks/content), not the manifest-driven
// package shape consumed by the knowledge loader.
const legacyPackagesDir = "knowledge_packages"

// IndexEntry is one existing block in the detector's private index.
type IndexEntry struct {
	ID       string
	Content  string
	Title    string
	Segment  string
	Hash     string
	Keywords []string
}

// legacy wire shapes of knowledge_packages/*.json files.
type legacyPackage struct {
	Blocks []legacyBlock `json:"blocks"`
}

type legacyBlock struct {
	ID      string `json:"id"`
	Content string `json:"content"`
	Title   string `json:"title"`
	Segment string `json:"segment"`
}

// Detector holds an immutable index of existing content, built once at
// construction from disk. It is not synchronized with any Loader state and
// can go stale relative to concurrent writes; refreshing means constructing
// a new Detector. Concurrent read-only use is safe.
type Detector struct {
	basePath string
	logger   *slog.Logger

	index map[string]IndexEntry
	ids   []string // index iteration order: file order, then block order

	// indexedKeywords is the union of all indexed blocks' keywords,
	// precomputed for the overlap tier.
	indexedKeywords map[string]struct{}
}

// NewDetector scans basePath/knowledge_packages/*.json and builds the
// duplicate-detection index. Malformed files are logged and skipped; a
// partial index degrades to comparing against fewer references instead of
// failing construction.
func NewDetector(basePath string, logger *slog.Logger) (*Detector, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	d := &Detector{
		basePath:        basePath,
		logger:          logger,
		index:           make(map[string]IndexEntry),
		indexedKeywords: make(map[string]struct{}),
	}

	pattern := filepath.Join(basePath, legacyPackagesDir, "*.json")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("cannot glob %s: %w", pattern, err)
	}

	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			logger.Warn("cannot read knowledge file, skipping", "file", file, "error", err)
			continue
		}
		var pkg legacyPackage
		if err := json.Unmarshal(data, &pkg); err != nil {
			logger.Warn("invalid knowledge file, skipping", "file", file, "error", err)
			continue
		}
		for _, b := range pkg.Blocks {
			if b.ID == "" {
				continue
			}
			entry := IndexEntry{
				ID:       b.ID,
				Content:  b.Content,
				Title:    b.Title,
				Segment:  b.Segment,
				Hash:     HashText(b.Content),
				Keywords: ExtractKeywords(b.Content),
			}
			if _, dup := d.index[b.ID]; !dup {
				d.ids = append(d.ids, b.ID)
			}
			d.index[b.ID] = entry
			for _, k := range entry.Keywords {
				d.indexedKeywords[k] = struct{}{}
			}
		}
	}

	logger.Info("knowledge index built", "blocks", len(d.index))
	return d, nil
}

// Size returns the number of indexed blocks.
func (d *Detector) Size() int { return len(d.index) }

// HasSignificantChanges reports whether item is genuinely novel relative to
// the indexed corpus. Empty content is never significant. Each tier that
// fires means "duplicate": exact hash, similarity ratio above
// SimilarityThreshold, keyword overlap above KeywordOverlapThreshold.
func (d *Detector) HasSignificantChanges(item content.Item) bool {
	text := item.Body()
	if text == "" {
		d.logger.Warn("empty content, treating as not significant")
		return false
	}

	hash := HashText(text)
	for _, id := range d.ids {
		if d.index[id].Hash == hash {
			d.logger.Info("exact duplicate detected", "block", id)
			return false
		}
	}

	maxSimilarity, mostSimilar := d.maxSimilarity(text)
	if maxSimilarity > SimilarityThreshold {
		d.logger.Info("near-duplicate detected",
			"block", mostSimilar, "similarity", maxSimilarity)
		return false
	}

	overlap := keywordOverlap(ExtractKeywords(text), d.indexedKeywords)
	if overlap > KeywordOverlapThreshold {
		d.logger.Info("keyword overlap detected", "overlap", overlap)
		return false
	}

	d.logger.Info("significant changes detected", "max_similarity", maxSimilarity)
	return true
}

func (d *Detector) maxSimilarity(text string) (float64, string) {
	var maxRatio float64
	var mostSimilar string
	for _, id := range d.ids {
		if ratio := similarityRatio(text, d.index[id].Content); ratio > maxRatio {
			maxRatio = ratio
			mostSimilar = id
		}
	}
	return maxRatio, mostSimilar
}

// SimilarBlock is one indexed block scored against incoming content.
type SimilarBlock struct {
	BlockID    string  `json:"block_id"`
	Similarity float64 `json:"similarity"`
	Segment    string  `json:"segment"`
	Title      string  `json:"title"`
}

// Report is the operator-facing delta analysis returned by
// DetectDeltaDetails.
type Report struct {
	Status         string         `json:"status"` // "empty" or "analyzed"
	HasChanges     bool           `json:"has_changes"`
	ContentHash    string         `json:"content_hash,omitempty"`
	Keywords       []string       `json:"keywords,omitempty"`
	KeywordCount   int            `json:"keyword_count"`
	KeywordOverlap float64        `json:"keyword_overlap"`
	MaxSimilarity  float64        `json:"max_similarity"`
	SimilarBlocks  []SimilarBlock `json:"similar_blocks,omitempty"`
	ContentLength  int            `json:"content_length"`
	Segment        string         `json:"segment"`
}

// DetectDeltaDetails runs the same pipeline as HasSignificantChanges but
// returns full diagnostics: hash, keywords, and the most similar existing
// blocks with their scores.
func (d *Detector) DetectDeltaDetails(item content.Item) Report {
	text := item.Body()
	if text == "" {
		return Report{Status: "empty"}
	}

	keywords := ExtractKeywords(text)
	var similar []SimilarBlock
	for _, id := range d.ids {
		entry := d.index[id]
		ratio := similarityRatio(text, entry.Content)
		if ratio > reportSimilarityFloor {
			similar = append(similar, SimilarBlock{
				BlockID:    id,
				Similarity: ratio,
				Segment:    entry.Segment,
				Title:      entry.Title,
			})
		}
	}
	sort.SliceStable(similar, func(i, j int) bool {
		return similar[i].Similarity > similar[j].Similarity
	})
	if len(similar) > maxSimilarBlocks {
		similar = similar[:maxSimilarBlocks]
	}

	var maxRatio float64
	if len(similar) > 0 {
		maxRatio = similar[0].Similarity
	}

	segment := item.Segment
	if segment == "" {
		segment = "unknown"
	}

	return Report{
		Status:         "analyzed",
		HasChanges:     d.HasSignificantChanges(item),
		ContentHash:    HashText(text),
		Keywords:       keywords,
		KeywordCount:   len(keywords),
		KeywordOverlap: keywordOverlap(keywords, d.indexedKeywords),
		MaxSimilarity:  maxRatio,
		SimilarBlocks:  similar,
		ContentLength:  len(text),
		Segment:        segment,
	}
}

// Comparison is the result of comparing new text against one specific block.
type Comparison struct {
	BlockID        string  `json:"block_id"`
	Similarity     float64 `json:"similarity"`
	IsDuplicate    bool    `json:"is_duplicate"`
	Segment        string  `json:"segment"`
	Title          string  `json:"title"`
	ExistingLength int     `json:"existing_length"`
	NewLength      int     `json:"new_length"`
	LengthDiff     int     `json:"length_diff"`
}

// CompareWithBlock scores text against one indexed block by id.
func (d *Detector) CompareWithBlock(text, blockID string) (Comparison, error) {
	entry, ok := d.index[blockID]
	if !ok {
		return Comparison{}, fmt.Errorf("block %q not found in index", blockID)
	}
	ratio := similarityRatio(text, entry.Content)
	return Comparison{
		BlockID:        blockID,
		Similarity:     ratio,
		IsDuplicate:    ratio > SimilarityThreshold,
		Segment:        entry.Segment,
		Title:          entry.Title,
		ExistingLength: len(entry.Content),
		NewLength:      len(text),
		LengthDiff:     len(text) - len(entry.Content),
	}, nil
}
