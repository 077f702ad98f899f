package knowledge

import (
	"errors"
	"testing"
)

func loadedTestLoader(t *testing.T) *Loader {
	t.Helper()
	l, _ := newTestLoader(t)
	if _, err := l.LoadAll(); err != nil {
		t.Fatal(err)
	}
	return l
}

func TestBlocksByComplexity(t *testing.T) {
	l := loadedTestLoader(t)

	basic, err := l.BlocksByComplexity("basico", "")
	if err != nil {
		t.Fatalf("BlocksByComplexity: %v", err)
	}
	if len(basic) != 2 {
		t.Fatalf("expected 2 basico blocks, got %d", len(basic))
	}

	scoped, err := l.BlocksByComplexity("basico", "legal")
	if err != nil {
		t.Fatalf("BlocksByComplexity scoped: %v", err)
	}
	if len(scoped) != 1 || scoped[0].ID != "legal-001" {
		t.Fatalf("expected legal-001 only, got %+v", scoped)
	}
}

func TestBlocksByComplexity_InvalidLevel(t *testing.T) {
	l := loadedTestLoader(t)

	_, err := l.BlocksByComplexity("expert", "")
	var invalid *InvalidComplexityError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidComplexityError, got %v", err)
	}
	if invalid.Value != "expert" {
		t.Fatalf("unexpected value: %q", invalid.Value)
	}
}

func TestBlocksByTag_CaseInsensitive(t *testing.T) {
	l := loadedTestLoader(t)

	blocks, err := l.BlocksByTag("IBS", "")
	if err != nil {
		t.Fatalf("BlocksByTag: %v", err)
	}
	if len(blocks) != 1 || blocks[0].ID != "legal-002" {
		t.Fatalf("expected legal-002 for tag IBS, got %+v", blocks)
	}
}

func TestBlocksByPersona_CaseInsensitive(t *testing.T) {
	l := loadedTestLoader(t)

	blocks, err := l.BlocksByPersona("GESTOR", "")
	if err != nil {
		t.Fatalf("BlocksByPersona: %v", err)
	}
	if len(blocks) != 3 {
		t.Fatalf("expected 3 gestor blocks, got %d", len(blocks))
	}
}

func TestTopBlocksByPriority_StableTies(t *testing.T) {
	l := loadedTestLoader(t)

	// legal-002 (0.9) precedes hosp-001 (0.9) in insertion order; the tie
	// must not reorder them.
	top, err := l.TopBlocksByPriority(2, "")
	if err != nil {
		t.Fatalf("TopBlocksByPriority: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("expected 2 results, got %d", len(top))
	}
	if top[0].ID != "legal-002" || top[1].ID != "hosp-001" {
		t.Fatalf("tie broke insertion order: got %s, %s", top[0].ID, top[1].ID)
	}

	// Idempotent: a second call returns the same sequence.
	again, err := l.TopBlocksByPriority(2, "")
	if err != nil {
		t.Fatal(err)
	}
	for i := range top {
		if again[i].ID != top[i].ID {
			t.Fatalf("repeated call diverged at %d: %s vs %s", i, again[i].ID, top[i].ID)
		}
	}
}

func TestTopBlocksByPriority_TruncatesToAvailable(t *testing.T) {
	l := loadedTestLoader(t)

	top, err := l.TopBlocksByPriority(50, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(top) != 5 {
		t.Fatalf("expected all 5 blocks, got %d", len(top))
	}
	for i := 1; i < len(top); i++ {
		if top[i].EmbeddingPriority > top[i-1].EmbeddingPriority {
			t.Fatalf("priorities not non-increasing at %d", i)
		}
	}
}

func TestSearchBlocks(t *testing.T) {
	l := loadedTestLoader(t)

	// "alíquota" appears in legal-002's content, "ibs" in legal-002's
	// content and tags; no other block mentions either term.
	results, err := l.SearchBlocks("alíquota IBS", "", 2)
	if err != nil {
		t.Fatalf("SearchBlocks: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected at least one result")
	}
	if results[0].Block.ID != "legal-002" {
		t.Fatalf("expected legal-002 first, got %s", results[0].Block.ID)
	}
	for i, r := range results {
		if r.Score <= 0 {
			t.Fatalf("result %d has non-positive score %f", i, r.Score)
		}
		if i > 0 && r.Score > results[i-1].Score {
			t.Fatalf("scores not non-increasing at %d", i)
		}
	}
}

func TestSearchBlocks_IdenticalBlocksScoreEqually(t *testing.T) {
	// Two blocks with identical searchable text and weight 1 must receive
	// bit-identical scores for a multi-term query, with the tie resolved
	// by insertion order. Term summation order must not depend on map
	// iteration.
	pkg := `{
  "segmento": "games",
  "knowledge_blocks": [
    {"id": "game-first", "conteudo": "paper stone stone scissors scissors scissors", "nivel_complexidade": "basico", "retrieval_weight": 1.0},
    {"id": "game-second", "conteudo": "paper stone stone scissors scissors scissors", "nivel_complexidade": "basico", "retrieval_weight": 1.0}
  ]
}`
	dir := t.TempDir()
	writeKnowledgeBase(t, dir, []string{"games"}, map[string]string{"games": pkg})
	l := NewLoader(dir, Options{})
	if _, err := l.LoadAll(); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 50; i++ {
		results, err := l.SearchBlocks("scissors stone paper", "", -1)
		if err != nil {
			t.Fatalf("SearchBlocks: %v", err)
		}
		if len(results) != 2 {
			t.Fatalf("expected both blocks, got %d", len(results))
		}
		if results[0].Score != results[1].Score {
			t.Fatalf("identical blocks scored differently: %.20f vs %.20f",
				results[0].Score, results[1].Score)
		}
		if results[0].Block.ID != "game-first" || results[1].Block.ID != "game-second" {
			t.Fatalf("tie must keep insertion order, got %s then %s",
				results[0].Block.ID, results[1].Block.ID)
		}
	}
}

func TestSearchBlocks_TopKAndWeight(t *testing.T) {
	l := loadedTestLoader(t)

	results, err := l.SearchBlocks("de", "", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) > 1 {
		t.Fatalf("topK=1 must cap results, got %d", len(results))
	}
}

func TestSearchBlocks_EmptyQuery(t *testing.T) {
	l := loadedTestLoader(t)

	results, err := l.SearchBlocks("   ", "", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Fatalf("empty query should match nothing, got %d results", len(results))
	}
}

func TestQueries_NothingLoaded(t *testing.T) {
	l, _ := newTestLoader(t)

	// No load has happened: full-corpus queries return empty, not an error.
	reg, err := l.RegulatoryBlocks("")
	if err != nil {
		t.Fatalf("RegulatoryBlocks: %v", err)
	}
	if len(reg) != 0 {
		t.Fatalf("expected empty result, got %d", len(reg))
	}

	results, err := l.SearchBlocks("anything", "", 5)
	if err != nil {
		t.Fatalf("SearchBlocks: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected empty result, got %d", len(results))
	}
}
