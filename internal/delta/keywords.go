package delta

import (
	"strings"
	"unicode/utf8"
)

// stopwords is a small bilingual (pt/en) set excluded from keyword
// extraction.
var stopwords = map[string]struct{}{
	"o": {}, "a": {}, "de": {}, "do": {}, "da": {}, "em": {},
	"para": {}, "com": {}, "por": {}, "que": {},
	"the": {}, "is": {}, "at": {}, "which": {}, "on": {},
	"and": {}, "or": {}, "an": {}, "as": {}, "are": {},
}

const (
	minKeywordRunes = 5
	maxKeywords     = 10
)

// ExtractKeywords returns up to maxKeywords keywords from text: words are
// punctuation-trimmed first, then kept when longer than four characters and
// not stopwords. Order is first occurrence in the text, duplicates dropped.
func ExtractKeywords(text string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,!?;:")
		if utf8.RuneCountInString(w) < minKeywordRunes {
			continue
		}
		if _, stop := stopwords[w]; stop {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
		if len(out) == maxKeywords {
			break
		}
	}
	return out
}

// keywordOverlap returns the fraction of keywords already present in the
// indexed keyword set. Empty input overlaps nothing.
func keywordOverlap(keywords []string, indexed map[string]struct{}) float64 {
	if len(keywords) == 0 {
		return 0
	}
	var hits int
	for _, k := range keywords {
		if _, ok := indexed[k]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(keywords))
}
