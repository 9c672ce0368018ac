package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/services"
	"github.com/desertthunder/spx/internal/tasks"
)

// RunRecorder implements tasks.Recorder over the run, item, and snapshot repositories.
//
// Recording is best-effort bookkeeping for history views: the export engine
// logs recorder failures and carries on, so a half-recorded run can only cost
// history detail, never the export itself.
type RunRecorder struct {
	runs      *ExportRunRepository
	items     *RunItemRepository
	snapshots *PlaylistSnapshotRepository
}

// NewRunRecorder creates a RunRecorder over the given database connection
func NewRunRecorder(db *sql.DB) *RunRecorder {
	return &RunRecorder{
		runs:      NewExportRunRepository(db),
		items:     NewRunItemRepository(db),
		snapshots: NewPlaylistSnapshotRepository(db),
	}
}

// RecordRun persists one finished export run and its per-playlist items.
// Items keep their position in the run's input so history reads back in
// request order.
func (r *RunRecorder) RecordRun(ctx context.Context, run tasks.RunRecord) error {
	model := models.NewExportRun(0, run.Format, run.Total, run.Succeeded, run.Failed, run.StartedAt)
	if !run.CompletedAt.IsZero() {
		model.SetCompletedAt(run.CompletedAt)
	}

	if err := r.runs.Create(model); err != nil {
		return fmt.Errorf("failed to record export run: %w", err)
	}

	for position, item := range run.Items {
		itemModel := models.NewRunItem(model.ID(), position, item.PlaylistID, item.PlaylistName, item.Status, item.Bytes)
		if item.Error != "" {
			itemModel.SetError(item.Error)
		}
		if err := r.items.Create(itemModel); err != nil {
			return fmt.Errorf("failed to record run item %d: %w", position, err)
		}
	}

	return nil
}

// RecordSnapshots refreshes the stored listing state for each playlist
func (r *RunRecorder) RecordSnapshots(ctx context.Context, playlists []services.Playlist) error {
	seenAt := time.Now().UTC()

	for _, playlist := range playlists {
		snapshot := models.NewPlaylistSnapshot(playlist.ID, playlist.Name, playlist.TrackCount, playlist.Public, seenAt)
		if err := r.snapshots.Upsert(snapshot); err != nil {
			return fmt.Errorf("failed to snapshot playlist %s: %w", playlist.ID, err)
		}
	}

	return nil
}
