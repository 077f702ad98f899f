package delta

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// HashText returns the hex sha256 of text normalized to lowercase and
// trimmed, so case and surrounding whitespace never defeat exact-duplicate
// detection.
func HashText(text string) string {
	normalized := strings.ToLower(strings.TrimSpace(text))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// similarityRatio returns a sequence-similarity ratio in [0, 1] between the
// two texts, normalized the same way as HashText: 2*M/T, where M is the
// number of characters in matching diff runs and T the combined length.
// Identical texts score 1.0, disjoint texts approach 0.0.
func similarityRatio(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	t1 := strings.ToLower(strings.TrimSpace(a))
	t2 := strings.ToLower(strings.TrimSpace(b))
	if t1 == t2 {
		return 1
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(t1, t2, false)

	var matched int
	for _, d := range diffs {
		if d.Type == diffmatchpatch.DiffEqual {
			matched += utf8.RuneCountInString(d.Text)
		}
	}
	total := utf8.RuneCountInString(t1) + utf8.RuneCountInString(t2)
	if total == 0 {
		return 0
	}
	return float64(2*matched) / float64(total)
}
