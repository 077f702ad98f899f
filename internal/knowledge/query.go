package knowledge

import (
	"sort"
	"strings"
)

// Search scoring constants: an exact phrase match is worth a large fixed
// bonus; each term occurrence a small one. The block's retrieval weight then
// scales the total multiplicatively.
const (
	exactMatchBonus = 2.0
	termOccurrence  = 0.1
)

// SearchResult is one scored block returned by SearchBlocks.
type SearchResult struct {
	Block Block
	Score float64
}

// BlocksBySegment returns all blocks of one segment, lazily loading its
// package if needed.
func (l *Loader) BlocksBySegment(segment string) ([]Block, error) {
	pkg, err := l.LoadPackage(segment)
	if err != nil {
		return nil, err
	}
	return pkg.Blocks, nil
}

// source returns the block sequence a query operates over: one segment's
// blocks (lazy-loading it), or the full flat cache when segment is empty.
func (l *Loader) source(segment string) ([]Block, error) {
	if segment != "" {
		return l.BlocksBySegment(segment)
	}
	return l.allBlocks(), nil
}

// BlocksByComplexity returns blocks whose complexity matches level exactly.
// Unknown level values fail with InvalidComplexityError.
func (l *Loader) BlocksByComplexity(level, segment string) ([]Block, error) {
	complexity, err := ParseComplexity(level)
	if err != nil {
		return nil, err
	}
	src, err := l.source(segment)
	if err != nil {
		return nil, err
	}
	out := make([]Block, 0)
	for _, b := range src {
		if b.Complexity == complexity {
			out = append(out, b)
		}
	}
	return out, nil
}

// RegulatoryBlocks returns blocks flagged as regulatory.
func (l *Loader) RegulatoryBlocks(segment string) ([]Block, error) {
	src, err := l.source(segment)
	if err != nil {
		return nil, err
	}
	out := make([]Block, 0)
	for _, b := range src {
		if b.Regulatory {
			out = append(out, b)
		}
	}
	return out, nil
}

// BlocksByTag returns blocks carrying tag, matched case-insensitively.
func (l *Loader) BlocksByTag(tag, segment string) ([]Block, error) {
	src, err := l.source(segment)
	if err != nil {
		return nil, err
	}
	out := make([]Block, 0)
	for _, b := range src {
		if b.HasTag(tag) {
			out = append(out, b)
		}
	}
	return out, nil
}

// BlocksByPersona returns blocks targeting persona, matched
// case-insensitively.
func (l *Loader) BlocksByPersona(persona, segment string) ([]Block, error) {
	src, err := l.source(segment)
	if err != nil {
		return nil, err
	}
	out := make([]Block, 0)
	for _, b := range src {
		if strings.EqualFold(b.Persona, persona) {
			out = append(out, b)
		}
	}
	return out, nil
}

// TopBlocksByPriority returns up to n blocks sorted by embedding priority,
// descending. The sort is stable: equal priorities keep insertion order.
func (l *Loader) TopBlocksByPriority(n int, segment string) ([]Block, error) {
	src, err := l.source(segment)
	if err != nil {
		return nil, err
	}
	out := make([]Block, len(src))
	copy(out, src)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EmbeddingPriority > out[j].EmbeddingPriority
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// SearchBlocks runs the deterministic keyword relevance search: an exact
// substring match of the whole query earns a fixed bonus, each query term
// scores by occurrence count, and the block's retrieval weight scales the
// total. Zero-scoring blocks are dropped; results come back in descending
// score order (stable, ties keep insertion order), truncated to topK.
func (l *Loader) SearchBlocks(query, segment string, topK int) ([]SearchResult, error) {
	src, err := l.source(segment)
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []SearchResult{}, nil
	}
	// Terms are deduped into a slice so summation order is fixed: map
	// iteration would make equal blocks score bit-differently between runs.
	seen := make(map[string]struct{})
	terms := make([]string, 0)
	for _, t := range strings.Fields(q) {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		terms = append(terms, t)
	}

	scored := make([]SearchResult, 0)
	for _, b := range src {
		combined := b.searchText()
		score := 0.0
		if strings.Contains(combined, q) {
			score += exactMatchBonus
		}
		for _, term := range terms {
			score += float64(strings.Count(combined, term)) * termOccurrence
		}
		score *= b.RetrievalWeight
		if score > 0 {
			scored = append(scored, SearchResult{Block: b, Score: score})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if topK >= 0 && len(scored) > topK {
		scored = scored[:topK]
	}
	return scored, nil
}
