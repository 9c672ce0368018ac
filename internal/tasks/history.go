package tasks

import (
	"context"
	"time"

	"github.com/desertthunder/spx/internal/services"
)

// Run item status values persisted with each export run.
const (
	RunStatusExported = "exported"
	RunStatusSkipped  = "skipped"
)

// RunRecord describes one completed export run for persistence.
type RunRecord struct {
	Format      string
	Total       int
	Succeeded   int
	Failed      int
	StartedAt   time.Time
	CompletedAt time.Time
	Items       []RunItemRecord
}

// RunItemRecord is one playlist's outcome within a run.
type RunItemRecord struct {
	PlaylistID   string
	PlaylistName string
	Status       string
	Bytes        int
	Error        string
}

// Recorder persists run history and playlist snapshots. Implementations live
// in the repositories package; a nil Recorder disables history entirely.
type Recorder interface {
	RecordRun(ctx context.Context, run RunRecord) error
	RecordSnapshots(ctx context.Context, playlists []services.Playlist) error
}

// recordRun persists the run outcome with one item per input id, in input
// order. History failures are logged and never fail the export.
func (e *PlaylistEngine) recordRun(ctx context.Context, started time.Time, fetched []FetchResult, batch *BatchResult) {
	if e.recorder == nil {
		return
	}

	record := RunRecord{
		Format:      string(batch.Summary.Format),
		Total:       batch.Summary.Total,
		Succeeded:   batch.Summary.Succeeded,
		Failed:      batch.Summary.Failed,
		StartedAt:   started,
		CompletedAt: time.Now().UTC(),
		Items:       make([]RunItemRecord, 0, len(fetched)),
	}

	okIdx := 0
	for _, res := range fetched {
		if res.OK() {
			record.Items = append(record.Items, RunItemRecord{
				PlaylistID:   res.ID,
				PlaylistName: res.Export.Playlist.Name,
				Status:       RunStatusExported,
				Bytes:        batch.Results[okIdx].Length,
			})
			okIdx++
			continue
		}

		record.Items = append(record.Items, RunItemRecord{
			PlaylistID: res.ID,
			Status:     RunStatusSkipped,
			Error:      res.Err.Error(),
		})
	}

	if err := e.recorder.RecordRun(ctx, record); err != nil {
		e.logger.Warn("failed to record export run", "err", err)
	}
}

// recordSnapshots refreshes the playlist snapshot cache from a listing.
func (e *PlaylistEngine) recordSnapshots(ctx context.Context, playlists []services.Playlist) {
	if e.recorder == nil {
		return
	}
	if err := e.recorder.RecordSnapshots(ctx, playlists); err != nil {
		e.logger.Warn("failed to record playlist snapshots", "err", err)
	}
}
