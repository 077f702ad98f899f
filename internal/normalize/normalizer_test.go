package normalize

import (
	"reflect"
	"strings"
	"testing"

	"github.com/atti-agent/attikb/internal/content"
)

func TestNormalize_HTMLAndWhitespace(t *testing.T) {
	n := New(nil)
	item := n.Normalize(content.Item{
		Title:   "  Tax   Guide  ",
		Content: "<p>The quarterly <b>tax</b> rate\n\nis   15%.</p>",
		Segment: "Finance & Tax",
		Tags:    []string{" IBS ", "ibs", "tx", "Tributos"},
	})

	if item.Title != "Tax Guide" {
		t.Errorf("title not collapsed: %q", item.Title)
	}
	if item.Content != "The quarterly tax rate is 15%." {
		t.Errorf("content not cleaned: %q", item.Content)
	}
	if item.Segment != "finance_tax" {
		t.Errorf("segment not canonicalized: %q", item.Segment)
	}
	if !reflect.DeepEqual(item.Tags, []string{"ibs", "tributos"}) {
		t.Errorf("tags not deduped/filtered: %v", item.Tags)
	}
	if item.Encoding != "utf-8" {
		t.Errorf("unexpected encoding %q", item.Encoding)
	}
	if item.Source != "unknown" {
		t.Errorf("empty source must default to unknown, got %q", item.Source)
	}
}

func TestNormalize_TextFallback(t *testing.T) {
	n := New(nil)
	item := n.Normalize(content.Item{Title: "Old shape", Text: "legacy body text here"})
	if item.Content != "legacy body text here" {
		t.Errorf("text fallback not used: %q", item.Content)
	}
}

func TestNormalizeText_ControlCharacters(t *testing.T) {
	got := NormalizeText("clean\x00 body\x1b with​ junk")
	if strings.ContainsAny(got, "\x00\x1b​") {
		t.Fatalf("control characters survived: %q", got)
	}
	if got != "clean body with junk" {
		t.Fatalf("unexpected result %q", got)
	}
}

func TestNormalizeText_NFC(t *testing.T) {
	// "é" as e + combining acute must compose to a single rune.
	decomposed := "café"
	got := NormalizeText(decomposed)
	if got != "café" {
		t.Fatalf("expected NFC composition, got %q", got)
	}
}

func TestStripHTML_EntitiesAndPlainText(t *testing.T) {
	if got := StripHTML("a &amp; b"); got != "a & b" {
		t.Errorf("entity not resolved: %q", got)
	}
	if got := StripHTML("no markup at all"); got != "no markup at all" {
		t.Errorf("plain text changed: %q", got)
	}
}

func TestNormalizeSegment(t *testing.T) {
	cases := []struct{ in, want string }{
		{"", "general"},
		{"Hospital", "hospital"},
		{"Legal / Fiscal", "legal_fiscal"},
		// Non-ASCII folds to underscore and runs collapse.
		{"já__normalizado", "j_normalizado"},
	}
	for _, c := range cases {
		if got := NormalizeSegment(c.in); got != c.want {
			t.Errorf("NormalizeSegment(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeCategory(t *testing.T) {
	if got := NormalizeCategory(""); got != "uncategorized" {
		t.Errorf("empty category: %q", got)
	}
	if got := NormalizeCategory("  Regras Fiscais "); got != "regras fiscais" {
		t.Errorf("category not lowered/trimmed: %q", got)
	}
}

func TestDetectLanguage(t *testing.T) {
	if got := DetectLanguage("a alíquota do imposto é definida em lei para que todos saibam"); got != "pt-BR" {
		t.Errorf("portuguese text detected as %q", got)
	}
	if got := DetectLanguage("the rate is defined by the law and published on the site"); got != "en" {
		t.Errorf("english text detected as %q", got)
	}
	if got := DetectLanguage(""); got != "unknown" {
		t.Errorf("empty text detected as %q", got)
	}
	if got := DetectLanguage("zzz qqq"); got != "unknown" {
		t.Errorf("tied counts detected as %q", got)
	}
}

func TestValidate(t *testing.T) {
	ok := content.Item{Title: "Valid", Content: "long enough body"}
	if err := Validate(ok); err != nil {
		t.Fatalf("valid item rejected: %v", err)
	}
	cases := []content.Item{
		{Title: "", Content: "long enough body"},
		{Title: "ab", Content: "long enough body"},
		{Title: "Valid", Content: ""},
		{Title: "Valid", Content: "short"},
	}
	for i, item := range cases {
		if err := Validate(item); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}

func TestStatistics(t *testing.T) {
	stats := Statistics(content.Item{
		Title:    "Guide",
		Content:  "body text",
		Tags:     []string{"one", "two"},
		Segment:  "finance",
		Language: "en",
		Encoding: "utf-8",
		Metadata: map[string]any{"source_id": 7},
	})
	if stats.TitleLength != 5 || stats.ContentLength != 9 || stats.TagsCount != 2 {
		t.Errorf("unexpected lengths: %+v", stats)
	}
	if !stats.HasMetadata {
		t.Error("metadata flag not set")
	}

	empty := Statistics(content.Item{})
	if empty.Segment != "unknown" || empty.Language != "unknown" || empty.Encoding != "unknown" {
		t.Errorf("missing fields must default to unknown: %+v", empty)
	}
}
