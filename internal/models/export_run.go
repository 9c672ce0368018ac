package models

import (
	"fmt"
	"time"
)

// Run item statuses as stored in run_items.status.
const (
	RunItemExported = "exported"
	RunItemSkipped  = "skipped"
)

// ExportRun records one export invocation: the requested format, how many
// playlists it covered, and how the batch came out.
type ExportRun struct {
	id          string
	sequence    int
	format      string
	total       int
	succeeded   int
	failed      int
	startedAt   time.Time
	completedAt *time.Time
	createdAt   time.Time
	updatedAt   time.Time
	deletedAt   *time.Time
}

// NewExportRun creates an ExportRun. The sequence is assigned by the
// repository at insert time; pass 0 for new runs.
func NewExportRun(sequence int, format string, total, succeeded, failed int, startedAt time.Time) *ExportRun {
	now := time.Now()
	return &ExportRun{
		sequence:  sequence,
		format:    format,
		total:     total,
		succeeded: succeeded,
		failed:    failed,
		startedAt: startedAt,
		createdAt: now,
		updatedAt: now,
	}
}

func (r *ExportRun) ID() string { return r.id }

func (r *ExportRun) Sequence() int { return r.sequence }

func (r *ExportRun) Format() string { return r.format }

func (r *ExportRun) Total() int { return r.total }

func (r *ExportRun) Succeeded() int { return r.succeeded }

func (r *ExportRun) Failed() int { return r.failed }

func (r *ExportRun) StartedAt() time.Time { return r.startedAt }

func (r *ExportRun) CompletedAt() *time.Time { return r.completedAt }

func (r *ExportRun) CreatedAt() time.Time { return r.createdAt }

func (r *ExportRun) UpdatedAt() time.Time { return r.updatedAt }

func (r *ExportRun) DeletedAt() *time.Time { return r.deletedAt }

func (r *ExportRun) SetID(id string) { r.id = id }

func (r *ExportRun) SetCompletedAt(t time.Time) { r.completedAt = &t }

func (r *ExportRun) SetUpdatedAt(t time.Time) { r.updatedAt = t }

func (r *ExportRun) SetDeletedAt(t *time.Time) { r.deletedAt = t }

// Validate checks that the run's counts are coherent
func (r *ExportRun) Validate() error {
	if r.format == "" {
		return fmt.Errorf("format is required")
	}
	if r.total < 0 || r.succeeded < 0 || r.failed < 0 {
		return fmt.Errorf("counts must be non-negative")
	}
	if r.succeeded+r.failed > r.total {
		return fmt.Errorf("succeeded and failed exceed total")
	}
	if r.startedAt.IsZero() {
		return fmt.Errorf("started_at is required")
	}
	return nil
}

// RunItem is one playlist's outcome within an export run. Position is the
// playlist's index in the run's input, so items read back in request order.
type RunItem struct {
	id           string
	runID        string
	position     int
	playlistID   string
	playlistName string
	status       string
	bytes        int
	errMessage   string
	createdAt    time.Time
	updatedAt    time.Time
}

// NewRunItem creates a RunItem at the given position of its run's input
func NewRunItem(runID string, position int, playlistID, playlistName, status string, bytes int) *RunItem {
	now := time.Now()
	return &RunItem{
		runID:        runID,
		position:     position,
		playlistID:   playlistID,
		playlistName: playlistName,
		status:       status,
		bytes:        bytes,
		createdAt:    now,
		updatedAt:    now,
	}
}

func (i *RunItem) ID() string { return i.id }

func (i *RunItem) RunID() string { return i.runID }

func (i *RunItem) Position() int { return i.position }

func (i *RunItem) PlaylistID() string { return i.playlistID }

func (i *RunItem) PlaylistName() string { return i.playlistName }

func (i *RunItem) Status() string { return i.status }

func (i *RunItem) Bytes() int { return i.bytes }

func (i *RunItem) Error() string { return i.errMessage }

func (i *RunItem) CreatedAt() time.Time { return i.createdAt }

func (i *RunItem) UpdatedAt() time.Time { return i.updatedAt }

func (i *RunItem) SetID(id string) { i.id = id }

func (i *RunItem) SetError(msg string) { i.errMessage = msg }

func (i *RunItem) SetUpdatedAt(t time.Time) { i.updatedAt = t }

// Validate checks required fields and that the status is a known value
func (i *RunItem) Validate() error {
	if i.runID == "" {
		return fmt.Errorf("run_id is required")
	}
	if i.playlistID == "" {
		return fmt.Errorf("playlist_id is required")
	}
	if i.position < 0 {
		return fmt.Errorf("position must be non-negative")
	}
	switch i.status {
	case RunItemExported, RunItemSkipped:
	default:
		return fmt.Errorf("unknown status: %s", i.status)
	}
	if i.status == RunItemSkipped && i.errMessage == "" {
		return fmt.Errorf("skipped items must carry an error")
	}
	return nil
}
