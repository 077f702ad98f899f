package updates

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/atti-agent/attikb/internal/content"
	"github.com/atti-agent/attikb/internal/knowledge"
	"github.com/atti-agent/attikb/internal/normalize"
)

// ErrPromotionDisabled is returned by Promote. Moving sandbox content into
// the live knowledge base requires human review and a manifest rebuild;
// the tool refuses to do it unattended.
var ErrPromotionDisabled = errors.New("automatic promotion is disabled: review the sandbox and rebuild the manifest manually")

const backupsDir = "sandbox_backups"

// Promoter inspects the sandbox and previews what promoting it would change.
type Promoter struct {
	basePath string
	logger   *slog.Logger
}

// NewPromoter builds a Promoter rooted at basePath.
func NewPromoter(basePath string, logger *slog.Logger) *Promoter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Promoter{basePath: basePath, logger: logger}
}

func (p *Promoter) sandboxPath() string {
	return filepath.Join(p.basePath, sandboxDir)
}

// CurrentVersion reads the live manifest version. A missing manifest reports
// the default version rather than failing, so previews work on fresh trees.
func (p *Promoter) CurrentVersion() string {
	m, err := knowledge.LoadManifest(p.basePath)
	if err != nil {
		return knowledge.DefaultKnowledgeVersion
	}
	return m.Version
}

// incrementPatch bumps the patch component of a semantic version string.
// Malformed versions pass through unchanged.
func incrementPatch(version string) string {
	parts := strings.Split(version, ".")
	if len(parts) != 3 {
		return version
	}
	patch, err := strconv.Atoi(parts[2])
	if err != nil {
		return version
	}
	return fmt.Sprintf("%s.%s.%d", parts[0], parts[1], patch+1)
}

// StagedFile is the on-disk shape written by the scheduler.
type StagedFile struct {
	ID       string       `json:"id"`
	StagedAt time.Time    `json:"staged_at"`
	Item     content.Item `json:"item"`
}

// SandboxContent lists the staged items, sorted by id.
func (p *Promoter) SandboxContent() ([]StagedFile, error) {
	files, err := filepath.Glob(filepath.Join(p.sandboxPath(), "*.json"))
	if err != nil {
		return nil, err
	}
	var staged []StagedFile
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			p.logger.Warn("cannot read sandbox file, skipping", "file", file, "error", err)
			continue
		}
		var sf StagedFile
		if err := json.Unmarshal(data, &sf); err != nil {
			p.logger.Warn("invalid sandbox file, skipping", "file", file, "error", err)
			continue
		}
		staged = append(staged, sf)
	}
	sort.Slice(staged, func(i, j int) bool { return staged[i].ID < staged[j].ID })
	return staged, nil
}

// ValidateSandbox checks every staged item and returns the problems found.
// An empty slice means the sandbox is promotable.
func (p *Promoter) ValidateSandbox() ([]string, error) {
	staged, err := p.SandboxContent()
	if err != nil {
		return nil, err
	}
	var problems []string
	if len(staged) == 0 {
		problems = append(problems, "sandbox is empty, nothing to promote")
		return problems, nil
	}
	seen := make(map[string]struct{})
	for _, sf := range staged {
		if sf.ID == "" {
			problems = append(problems, "staged file with empty id")
			continue
		}
		if _, dup := seen[sf.ID]; dup {
			problems = append(problems, fmt.Sprintf("duplicate staged id %q", sf.ID))
		}
		seen[sf.ID] = struct{}{}
		if err := normalize.Validate(sf.Item); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", sf.ID, err))
		}
	}
	return problems, nil
}

// PromotionImpact is the preview of what promoting the sandbox would change.
type PromotionImpact struct {
	CurrentVersion  string         `json:"current_version"`
	NextVersion     string         `json:"next_version"`
	StagedItems     int            `json:"staged_items"`
	ItemsBySegment  map[string]int `json:"items_by_segment"`
	Problems        []string       `json:"problems,omitempty"`
	ReadyToPromote  bool           `json:"ready_to_promote"`
	PromotionManual bool           `json:"promotion_manual"`
}

// PreviewPromotion computes the impact of promoting the current sandbox
// without touching the live tree.
func (p *Promoter) PreviewPromotion() (*PromotionImpact, error) {
	staged, err := p.SandboxContent()
	if err != nil {
		return nil, err
	}
	problems, err := p.ValidateSandbox()
	if err != nil {
		return nil, err
	}
	current := p.CurrentVersion()
	impact := &PromotionImpact{
		CurrentVersion:  current,
		NextVersion:     incrementPatch(current),
		StagedItems:     len(staged),
		ItemsBySegment:  make(map[string]int),
		Problems:        problems,
		ReadyToPromote:  len(problems) == 0,
		PromotionManual: true,
	}
	for _, sf := range staged {
		segment := sf.Item.Segment
		if segment == "" {
			segment = "general"
		}
		impact.ItemsBySegment[segment]++
	}
	return impact, nil
}

// Promote always refuses. The preview is the supported surface.
func (p *Promoter) Promote() error {
	p.logger.Warn("promotion requested but disabled")
	return ErrPromotionDisabled
}

// RollbackSandbox moves the current sandbox into a timestamped backup under
// sandbox_backups/ and recreates an empty sandbox. It returns the backup
// path, or "" when there was nothing to roll back.
func (p *Promoter) RollbackSandbox() (string, error) {
	sandbox := p.sandboxPath()
	if _, err := os.Stat(sandbox); os.IsNotExist(err) {
		return "", nil
	}
	backupRoot := filepath.Join(p.basePath, backupsDir)
	if err := os.MkdirAll(backupRoot, 0o755); err != nil {
		return "", fmt.Errorf("cannot create backup directory: %w", err)
	}
	backup := filepath.Join(backupRoot, "backup_"+time.Now().UTC().Format("20060102T150405"))
	if err := os.Rename(sandbox, backup); err != nil {
		return "", fmt.Errorf("cannot move sandbox to backup: %w", err)
	}
	if err := os.MkdirAll(sandbox, 0o755); err != nil {
		return backup, fmt.Errorf("sandbox backed up but cannot recreate sandbox dir: %w", err)
	}
	p.logger.Info("sandbox rolled back", "backup", backup)
	return backup, nil
}

// PruneBackups deletes the oldest sandbox backups, keeping the newest keep
// directories. Backup names embed UTC timestamps, so lexical order is
// chronological.
func (p *Promoter) PruneBackups(keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	entries, err := filepath.Glob(filepath.Join(p.basePath, backupsDir, "backup_*"))
	if err != nil {
		return 0, err
	}
	sort.Strings(entries)
	if len(entries) <= keep {
		return 0, nil
	}
	var pruned int
	for _, backup := range entries[:len(entries)-keep] {
		if err := removeBackupDir(backup); err != nil {
			p.logger.Warn("cannot remove backup", "path", backup, "error", err)
			continue
		}
		pruned++
	}
	return pruned, nil
}
