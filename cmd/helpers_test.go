package cmd

import (
	"testing"

	"github.com/atti-agent/attikb/internal/knowledge"
)

func TestSnippet(t *testing.T) {
	if got := snippet("short text", 120); got != "short text" {
		t.Errorf("short text must pass through, got %q", got)
	}
	got := snippet("alíquota alíquota alíquota", 10)
	if got != "alíquota a…" {
		t.Errorf("truncation must respect rune boundaries, got %q", got)
	}
}

func TestEmptyAsNA(t *testing.T) {
	if emptyAsNA("") != "n/a" {
		t.Error("empty must map to n/a")
	}
	if emptyAsNA("abc123") != "abc123" {
		t.Error("non-empty must pass through")
	}
}

func TestSegmentLabel(t *testing.T) {
	if got := segmentLabel(knowledge.Block{MacroCategory: "legal"}); got != "legal" {
		t.Errorf("unexpected label %q", got)
	}
	if got := segmentLabel(knowledge.Block{}); got != "(none)" {
		t.Errorf("missing category must label as (none), got %q", got)
	}
}

func TestSortedSegments(t *testing.T) {
	counts := map[string]int{"legal": 2, "finance": 1, "hospital": 3}
	for i := 0; i < 20; i++ {
		got := sortedSegments(counts)
		if len(got) != 3 || got[0] != "finance" || got[1] != "hospital" || got[2] != "legal" {
			t.Fatalf("segment order must be stable and sorted, got %v", got)
		}
	}
}

func TestResolveBasePath_FlagWins(t *testing.T) {
	old := flagBasePath
	flagBasePath = t.TempDir()
	t.Cleanup(func() { flagBasePath = old })
	t.Setenv("ATTIKB_BASE_PATH", "/should/not/win")

	got, err := resolveBasePath()
	if err != nil {
		t.Fatalf("resolveBasePath: %v", err)
	}
	if got != flagBasePath {
		t.Fatalf("flag must win over env, got %q", got)
	}
}

func TestResolveBasePath_Env(t *testing.T) {
	old := flagBasePath
	flagBasePath = ""
	t.Cleanup(func() { flagBasePath = old })
	dir := t.TempDir()
	t.Setenv("ATTIKB_BASE_PATH", dir)

	got, err := resolveBasePath()
	if err != nil {
		t.Fatalf("resolveBasePath: %v", err)
	}
	if got != dir {
		t.Fatalf("expected env value %q, got %q", dir, got)
	}
}
