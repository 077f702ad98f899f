// Package updates stages incoming content into a human-reviewed sandbox.
// Nothing here writes to the live knowledge base: the scheduler records and
// executes staging jobs, and the promoter only previews what a promotion
// would change.
package updates

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/atti-agent/attikb/internal/content"
	"github.com/atti-agent/attikb/internal/delta"
	"github.com/atti-agent/attikb/internal/normalize"
)

const (
	liveDir     = "live_content"
	sandboxDir  = "update_sandbox"
	scheduleDir = "dynamic_updates"

	scheduleFileName = "schedule.json"
	stagingLockName  = "staging.lock"

	lockTimeout   = 5 * time.Second
	lockRetryWait = 200 * time.Millisecond
)

// Status of a scheduled update entry.
type Status string

const (
	StatusPending   Status = "pending"
	StatusScheduled Status = "scheduled"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// Entry is one staging job in the schedule.
type Entry struct {
	ID          string    `json:"id"`
	Segment     string    `json:"segment"`
	Source      string    `json:"source"`
	Status      Status    `json:"status"`
	ScheduledAt time.Time `json:"scheduled_at"`
	ExecutedAt  time.Time `json:"executed_at,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// Schedule is the on-disk shape of dynamic_updates/schedule.json.
type Schedule struct {
	Version string  `json:"version"`
	Entries []Entry `json:"entries"`
}

// Scheduler stages normalized, novel content into the sandbox directory.
type Scheduler struct {
	basePath   string
	logger     *slog.Logger
	normalizer *normalize.Normalizer
	detector   *delta.Detector
}

// NewScheduler builds a Scheduler rooted at basePath. The detector may be
// nil, in which case the novelty gate is skipped and everything stages.
func NewScheduler(basePath string, detector *delta.Detector, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scheduler{
		basePath:   basePath,
		logger:     logger,
		normalizer: normalize.New(logger),
		detector:   detector,
	}
}

func (s *Scheduler) schedulePath() string {
	return filepath.Join(s.basePath, scheduleDir, scheduleFileName)
}

func (s *Scheduler) sandboxPath() string {
	return filepath.Join(s.basePath, sandboxDir)
}

// LoadSchedule reads the schedule file. A missing file yields an empty
// schedule, not an error.
func (s *Scheduler) LoadSchedule() (*Schedule, error) {
	data, err := os.ReadFile(s.schedulePath())
	if os.IsNotExist(err) {
		return &Schedule{Version: "1"}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read schedule: %w", err)
	}
	var sched Schedule
	if err := json.Unmarshal(data, &sched); err != nil {
		return nil, fmt.Errorf("invalid schedule file %s: %w", s.schedulePath(), err)
	}
	return &sched, nil
}

func (s *Scheduler) saveSchedule(sched *Schedule) error {
	dir := filepath.Dir(s.schedulePath())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create %s: %w", dir, err)
	}
	data, err := json.MarshalIndent(sched, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.schedulePath(), data, 0o644)
}

// ScheduleUpdate appends a pending entry for the given content id and
// segment. The id becomes the sandbox file name, so it must be unique within
// the schedule.
func (s *Scheduler) ScheduleUpdate(id, segment, source string) (*Entry, error) {
	if id == "" {
		return nil, fmt.Errorf("update id is required")
	}
	sched, err := s.LoadSchedule()
	if err != nil {
		return nil, err
	}
	for _, e := range sched.Entries {
		if e.ID == id {
			return nil, fmt.Errorf("update %q is already scheduled (status %s)", id, e.Status)
		}
	}
	entry := Entry{
		ID:          id,
		Segment:     segment,
		Source:      source,
		Status:      StatusScheduled,
		ScheduledAt: time.Now().UTC(),
	}
	sched.Entries = append(sched.Entries, entry)
	if err := s.saveSchedule(sched); err != nil {
		return nil, err
	}
	s.logger.Info("update scheduled", "id", id, "segment", segment)
	return &entry, nil
}

// ExecuteUpdate normalizes and validates item, runs the novelty gate, and on
// success writes the staged payload to update_sandbox/<id>.json. Duplicate
// content is recorded as skipped, not failed. The sandbox write is guarded by
// a file lock so concurrent stagings of the same base path serialize.
func (s *Scheduler) ExecuteUpdate(id string, item content.Item) (*Entry, error) {
	sched, err := s.LoadSchedule()
	if err != nil {
		return nil, err
	}
	idx := -1
	for i, e := range sched.Entries {
		if e.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, fmt.Errorf("update %q is not scheduled", id)
	}

	finish := func(status Status, execErr error) (*Entry, error) {
		sched.Entries[idx].Status = status
		sched.Entries[idx].ExecutedAt = time.Now().UTC()
		if execErr != nil {
			sched.Entries[idx].Error = execErr.Error()
		}
		if err := s.saveSchedule(sched); err != nil {
			return nil, err
		}
		e := sched.Entries[idx]
		return &e, execErr
	}

	normalized := s.normalizer.Normalize(item)
	if err := normalize.Validate(normalized); err != nil {
		return finish(StatusFailed, fmt.Errorf("content rejected: %w", err))
	}

	if s.detector != nil && !s.detector.HasSignificantChanges(normalized) {
		s.logger.Info("duplicate content, skipping staging", "id", id)
		return finish(StatusSkipped, nil)
	}

	unlock, err := s.acquireStagingLock()
	if err != nil {
		return finish(StatusFailed, err)
	}
	defer unlock()

	if err := s.writeSandboxFile(id, normalized); err != nil {
		return finish(StatusFailed, err)
	}
	s.logger.Info("content staged", "id", id, "segment", normalized.Segment)
	return finish(StatusCompleted, nil)
}

// writeSandboxFile stores the staged item as update_sandbox/<id>.json.
func (s *Scheduler) writeSandboxFile(id string, item content.Item) error {
	dir := s.sandboxPath()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create sandbox dir: %w", err)
	}
	payload := struct {
		ID       string       `json:"id"`
		StagedAt time.Time    `json:"staged_at"`
		Item     content.Item `json:"item"`
	}{ID: id, StagedAt: time.Now().UTC(), Item: item}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, id+".json"), data, 0o644)
}

// acquireStagingLock obtains the per-base-path staging lock, retrying until
// lockTimeout.
func (s *Scheduler) acquireStagingLock() (func(), error) {
	dir := filepath.Join(s.basePath, scheduleDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create lock directory: %w", err)
	}
	lockPath := filepath.Join(dir, stagingLockName)
	l := flock.New(lockPath)
	deadline := time.Now().Add(lockTimeout)
	for {
		locked, err := l.TryLock()
		if err != nil {
			return nil, fmt.Errorf("cannot acquire staging lock: %w", err)
		}
		if locked {
			return func() { _ = l.Unlock() }, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("another staging is in progress (lock: %s)", lockPath)
		}
		time.Sleep(lockRetryWait)
	}
}

// Health summarizes the staging pipeline state for the status command.
type Health struct {
	ScheduledUpdates int    `json:"scheduled_updates"`
	CompletedUpdates int    `json:"completed_updates"`
	FailedUpdates    int    `json:"failed_updates"`
	SandboxFiles     int    `json:"sandbox_files"`
	LiveDirExists    bool   `json:"live_dir_exists"`
	SandboxDirExists bool   `json:"sandbox_dir_exists"`
	IndexedBlocks    int    `json:"indexed_blocks"`
	BasePath         string `json:"base_path"`
}

// CheckHealth inspects the schedule and staging directories.
func (s *Scheduler) CheckHealth() (*Health, error) {
	sched, err := s.LoadSchedule()
	if err != nil {
		return nil, err
	}
	h := &Health{BasePath: s.basePath}
	for _, e := range sched.Entries {
		switch e.Status {
		case StatusScheduled, StatusPending, StatusRunning:
			h.ScheduledUpdates++
		case StatusCompleted, StatusSkipped:
			h.CompletedUpdates++
		case StatusFailed:
			h.FailedUpdates++
		}
	}
	if files, err := filepath.Glob(filepath.Join(s.sandboxPath(), "*.json")); err == nil {
		h.SandboxFiles = len(files)
	}
	if info, err := os.Stat(filepath.Join(s.basePath, liveDir)); err == nil && info.IsDir() {
		h.LiveDirExists = true
	}
	if info, err := os.Stat(s.sandboxPath()); err == nil && info.IsDir() {
		h.SandboxDirExists = true
	}
	if s.detector != nil {
		h.IndexedBlocks = s.detector.Size()
	}
	return h, nil
}
