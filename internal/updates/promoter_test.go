package updates

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/atti-agent/attikb/internal/content"
)

func writeStaged(t *testing.T, dir, id string, item content.Item) {
	t.Helper()
	sandbox := filepath.Join(dir, "update_sandbox")
	if err := os.MkdirAll(sandbox, 0o755); err != nil {
		t.Fatal(err)
	}
	payload := StagedFile{ID: id, StagedAt: time.Now().UTC(), Item: item}
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sandbox, id+".json"), data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestSandboxContent_SortedAndSkipsBroken(t *testing.T) {
	dir := t.TempDir()
	writeStaged(t, dir, "b-item", content.Item{Title: "Second", Content: "second body text"})
	writeStaged(t, dir, "a-item", content.Item{Title: "First", Content: "first body text here"})
	if err := os.WriteFile(filepath.Join(dir, "update_sandbox", "broken.json"), []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}

	p := NewPromoter(dir, nil)
	staged, err := p.SandboxContent()
	if err != nil {
		t.Fatalf("SandboxContent: %v", err)
	}
	if len(staged) != 2 {
		t.Fatalf("expected 2 staged items, got %d", len(staged))
	}
	if staged[0].ID != "a-item" || staged[1].ID != "b-item" {
		t.Fatalf("staged items not sorted by id: %v, %v", staged[0].ID, staged[1].ID)
	}
}

func TestValidateSandbox(t *testing.T) {
	dir := t.TempDir()
	p := NewPromoter(dir, nil)

	problems, err := p.ValidateSandbox()
	if err != nil {
		t.Fatal(err)
	}
	if len(problems) != 1 {
		t.Fatalf("empty sandbox must report one problem, got %v", problems)
	}

	writeStaged(t, dir, "good", content.Item{Title: "Valid", Content: "long enough body"})
	writeStaged(t, dir, "bad", content.Item{Title: "x", Content: "short"})

	problems, err = p.ValidateSandbox()
	if err != nil {
		t.Fatal(err)
	}
	if len(problems) != 1 {
		t.Fatalf("expected exactly the invalid item flagged, got %v", problems)
	}
}

func TestPreviewPromotion(t *testing.T) {
	dir := t.TempDir()
	manifest := `{"version": "2.1.0", "total_packages": 0, "total_blocks": 0, "packages": []}`
	if err := os.WriteFile(filepath.Join(dir, "knowledge_manifest.json"), []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}
	writeStaged(t, dir, "fin-1", content.Item{Title: "Tax", Content: "finance body text", Segment: "finance"})
	writeStaged(t, dir, "fin-2", content.Item{Title: "Fees", Content: "more finance text", Segment: "finance"})
	writeStaged(t, dir, "hosp-1", content.Item{Title: "Codes", Content: "hospital body text", Segment: "hospital"})

	p := NewPromoter(dir, nil)
	impact, err := p.PreviewPromotion()
	if err != nil {
		t.Fatalf("PreviewPromotion: %v", err)
	}
	if impact.CurrentVersion != "2.1.0" || impact.NextVersion != "2.1.1" {
		t.Errorf("version preview wrong: %+v", impact)
	}
	if impact.StagedItems != 3 {
		t.Errorf("expected 3 staged items, got %d", impact.StagedItems)
	}
	if impact.ItemsBySegment["finance"] != 2 || impact.ItemsBySegment["hospital"] != 1 {
		t.Errorf("segment counts wrong: %v", impact.ItemsBySegment)
	}
	if !impact.ReadyToPromote {
		t.Errorf("valid sandbox must be ready: %v", impact.Problems)
	}
	if !impact.PromotionManual {
		t.Error("promotion must always be flagged manual")
	}
}

func TestCurrentVersion_MissingManifest(t *testing.T) {
	p := NewPromoter(t.TempDir(), nil)
	if got := p.CurrentVersion(); got != "2.1.0" {
		t.Fatalf("expected default version, got %q", got)
	}
}

func TestIncrementPatch(t *testing.T) {
	cases := []struct{ in, want string }{
		{"2.1.0", "2.1.1"},
		{"0.9.9", "0.9.10"},
		{"not-semver", "not-semver"},
		{"1.2", "1.2"},
	}
	for _, c := range cases {
		if got := incrementPatch(c.in); got != c.want {
			t.Errorf("incrementPatch(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestRollbackSandbox(t *testing.T) {
	dir := t.TempDir()
	writeStaged(t, dir, "item", content.Item{Title: "Valid", Content: "long enough body"})

	p := NewPromoter(dir, nil)
	backup, err := p.RollbackSandbox()
	if err != nil {
		t.Fatalf("RollbackSandbox: %v", err)
	}
	if backup == "" {
		t.Fatal("expected a backup path")
	}
	if _, err := os.Stat(filepath.Join(backup, "item.json")); err != nil {
		t.Fatalf("staged file missing from backup: %v", err)
	}
	entries, err := os.ReadDir(filepath.Join(dir, "update_sandbox"))
	if err != nil {
		t.Fatalf("sandbox dir not recreated: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("sandbox should be empty after rollback, got %d entries", len(entries))
	}
}

func TestRollbackSandbox_Nothing(t *testing.T) {
	p := NewPromoter(t.TempDir(), nil)
	backup, err := p.RollbackSandbox()
	if err != nil {
		t.Fatal(err)
	}
	if backup != "" {
		t.Fatalf("expected no backup for missing sandbox, got %q", backup)
	}
}

func TestPruneBackups(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "sandbox_backups")
	for _, name := range []string{"backup_20250101T000000", "backup_20250102T000000", "backup_20250103T000000"} {
		if err := os.MkdirAll(filepath.Join(root, name), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	p := NewPromoter(dir, nil)
	pruned, err := p.PruneBackups(1)
	if err != nil {
		t.Fatalf("PruneBackups: %v", err)
	}
	if pruned != 2 {
		t.Fatalf("expected 2 pruned, got %d", pruned)
	}
	remaining, err := filepath.Glob(filepath.Join(root, "backup_*"))
	if err != nil {
		t.Fatal(err)
	}
	if len(remaining) != 1 || filepath.Base(remaining[0]) != "backup_20250103T000000" {
		t.Fatalf("newest backup must survive, got %v", remaining)
	}
}
