// Package normalize cleans raw scraped content into the shape the ingestion
// pipeline expects: HTML stripped, Unicode normalized, whitespace collapsed,
// segment and tags canonicalized, language tagged.
package normalize

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/atti-agent/attikb/internal/content"
)

const (
	minTitleLen   = 3
	minContentLen = 10
	minTagLen     = 3
)

var (
	whitespaceRE = regexp.MustCompile(`\s+`)
	segmentRE    = regexp.MustCompile(`[^a-z0-9_]`)
	underscoreRE = regexp.MustCompile(`_+`)
)

// controlStripper removes control and format characters while keeping the
// whitespace the collapse step handles.
var controlStripper = runes.Remove(runes.Predicate(func(r rune) bool {
	return unicode.Is(unicode.C, r) && r != '\n' && r != '\r' && r != '\t'
}))

// Normalizer cleans content items. It is stateless and safe to share.
type Normalizer struct {
	logger *slog.Logger
}

// New returns a Normalizer. A nil logger discards diagnostics.
func New(logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Normalizer{logger: logger}
}

// Normalize returns a cleaned copy of item. Validation problems are logged,
// not fatal; use Validate when a hard gate is needed.
func (n *Normalizer) Normalize(item content.Item) content.Item {
	out := content.Item{
		Title:    NormalizeText(item.Title),
		Content:  NormalizeText(item.Body()),
		Segment:  NormalizeSegment(item.Segment),
		Category: NormalizeCategory(item.Category),
		Tags:     NormalizeTags(item.Tags),
		Metadata: item.Metadata,
		Source:   item.Source,
		Language: DetectLanguage(item.Body()),
		Encoding: "utf-8",
	}
	if out.Source == "" {
		out.Source = "unknown"
	}
	if err := Validate(out); err != nil {
		n.logger.Warn("normalized content failed validation", "error", err)
	}
	n.logger.Info("content normalized", "chars", len(out.Content))
	return out
}

// NormalizeBatch normalizes every item in order.
func (n *Normalizer) NormalizeBatch(items []content.Item) []content.Item {
	out := make([]content.Item, 0, len(items))
	for _, item := range items {
		out = append(out, n.Normalize(item))
	}
	n.logger.Info("batch normalized", "count", len(out))
	return out
}

// NormalizeText strips HTML, applies Unicode NFC, removes control
// characters, and collapses whitespace.
func NormalizeText(s string) string {
	s = StripHTML(s)
	s = norm.NFC.String(s)
	if stripped, _, err := transform.String(controlStripper, s); err == nil {
		s = stripped
	}
	s = whitespaceRE.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// StripHTML removes tags from markup, keeping text content with character
// references resolved. Plain text passes through untouched.
func StripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			b.Write(z.Text())
		}
	}
}

// NormalizeSegment canonicalizes a segment name to snake_case ASCII.
// Empty input maps to "general".
func NormalizeSegment(segment string) string {
	if segment == "" {
		return "general"
	}
	s := strings.ToLower(strings.TrimSpace(segment))
	s = segmentRE.ReplaceAllString(s, "_")
	s = underscoreRE.ReplaceAllString(s, "_")
	return s
}

// NormalizeCategory lowercases and trims a category. Empty input maps to
// "uncategorized".
func NormalizeCategory(category string) string {
	if category == "" {
		return "uncategorized"
	}
	return strings.ToLower(strings.TrimSpace(category))
}

// NormalizeTags lowercases and trims tags, drops short ones, and removes
// duplicates while preserving first-seen order.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if utf8.RuneCountInString(tag) < minTagLen {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// Common-word sets for the pt/en heuristic.
var (
	ptWords = map[string]struct{}{
		"o": {}, "a": {}, "de": {}, "do": {}, "da": {}, "em": {},
		"para": {}, "com": {}, "por": {}, "que": {}, "é": {}, "são": {},
	}
	enWords = map[string]struct{}{
		"the": {}, "is": {}, "at": {}, "which": {}, "on": {},
		"and": {}, "or": {}, "an": {}, "as": {}, "are": {},
	}
)

// DetectLanguage guesses pt-BR vs en by counting common words. This is a
// routing hint, not linguistic analysis.
func DetectLanguage(text string) string {
	if text == "" {
		return "unknown"
	}
	var pt, en int
	for _, w := range strings.Fields(strings.ToLower(text)) {
		if _, ok := ptWords[w]; ok {
			pt++
		}
		if _, ok := enWords[w]; ok {
			en++
		}
	}
	switch {
	case pt > en:
		return "pt-BR"
	case en > pt:
		return "en"
	default:
		return "unknown"
	}
}

// Validate checks the structural requirements of a normalized item.
func Validate(item content.Item) error {
	if item.Title == "" {
		return fmt.Errorf("title is empty")
	}
	if utf8.RuneCountInString(item.Title) < minTitleLen {
		return fmt.Errorf("title too short (min %d chars)", minTitleLen)
	}
	if item.Content == "" {
		return fmt.Errorf("content is empty")
	}
	if utf8.RuneCountInString(item.Content) < minContentLen {
		return fmt.Errorf("content too short (min %d chars)", minContentLen)
	}
	return nil
}

// Stats summarizes one content item.
type Stats struct {
	TitleLength   int    `json:"title_length"`
	ContentLength int    `json:"content_length"`
	TagsCount     int    `json:"tags_count"`
	Segment       string `json:"segment"`
	Language      string `json:"language"`
	HasMetadata   bool   `json:"has_metadata"`
	Encoding      string `json:"encoding"`
}

// Statistics returns counters for a (typically normalized) item.
func Statistics(item content.Item) Stats {
	segment := item.Segment
	if segment == "" {
		segment = "unknown"
	}
	language := item.Language
	if language == "" {
		language = "unknown"
	}
	encoding := item.Encoding
	if encoding == "" {
		encoding = "unknown"
	}
	return Stats{
		TitleLength:   len(item.Title),
		ContentLength: len(item.Content),
		TagsCount:     len(item.Tags),
		Segment:       segment,
		Language:      language,
		HasMetadata:   len(item.Metadata) > 0,
		Encoding:      encoding,
	}
}
