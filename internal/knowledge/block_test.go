package knowledge

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writePackageFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pkg.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParsePackage_MissingRequiredFields(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{
			name: "missing id",
			body: `{"knowledge_blocks": [{"conteudo": "x", "nivel_complexidade": "basico"}]}`,
			want: `"id"`,
		},
		{
			name: "missing conteudo",
			body: `{"knowledge_blocks": [{"id": "b1", "nivel_complexidade": "basico"}]}`,
			want: `"conteudo"`,
		},
		{
			name: "missing nivel_complexidade",
			body: `{"knowledge_blocks": [{"id": "b1", "conteudo": "x"}]}`,
			want: `"nivel_complexidade"`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writePackageFile(t, tc.body)
			_, err := ParsePackageFile(path, "seg")
			if err == nil {
				t.Fatal("expected parse error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not name field %s", err, tc.want)
			}
		})
	}
}

func TestParsePackage_InvalidComplexity(t *testing.T) {
	path := writePackageFile(t,
		`{"knowledge_blocks": [{"id": "b1", "conteudo": "x", "nivel_complexidade": "trivial"}]}`)
	_, err := ParsePackageFile(path, "seg")
	var invalid *InvalidComplexityError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidComplexityError, got %v", err)
	}
}

func TestParsePackage_DefaultsApplied(t *testing.T) {
	path := writePackageFile(t,
		`{"knowledge_blocks": [{"id": "b1", "conteudo": "x", "nivel_complexidade": "basico"}]}`)
	pkg, err := ParsePackageFile(path, "seg")
	if err != nil {
		t.Fatalf("ParsePackageFile: %v", err)
	}
	b := pkg.Blocks[0]
	if b.EmbeddingPriority != 0.5 {
		t.Errorf("default priority: want 0.5, got %f", b.EmbeddingPriority)
	}
	if b.RetrievalWeight != 0.7 {
		t.Errorf("default weight: want 0.7, got %f", b.RetrievalWeight)
	}
	if b.KnowledgeVersion != "2.1.0" {
		t.Errorf("default version: want 2.1.0, got %s", b.KnowledgeVersion)
	}
}

func TestParsePackage_ExplicitZeroNotDefaulted(t *testing.T) {
	path := writePackageFile(t,
		`{"knowledge_blocks": [{"id": "b1", "conteudo": "x", "nivel_complexidade": "basico", "embedding_priority": 0, "retrieval_weight": 0}]}`)
	pkg, err := ParsePackageFile(path, "seg")
	if err != nil {
		t.Fatal(err)
	}
	b := pkg.Blocks[0]
	if b.EmbeddingPriority != 0 || b.RetrievalWeight != 0 {
		t.Fatalf("explicit zeroes must survive parsing, got %f / %f",
			b.EmbeddingPriority, b.RetrievalWeight)
	}
}

func TestParsePackage_InvalidJSON(t *testing.T) {
	path := writePackageFile(t, `{"knowledge_blocks": [`)
	if _, err := ParsePackageFile(path, "seg"); err == nil {
		t.Fatal("expected error for truncated JSON")
	}
}
