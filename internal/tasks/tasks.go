// package tasks implements playlist export orchestration.
//
// The core abstraction is ExportEngine, which fetches playlists through a
// bounded worker pool, skips the ones whose fetch failed, and hands the
// survivors to the formatter. Operations emit progress updates via channels
// for non-blocking status reporting to CLI layers.
package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spx/internal/formatter"
	"github.com/desertthunder/spx/internal/services"
	"github.com/desertthunder/spx/internal/shared"
)

// FetchResult is the outcome of one playlist fetch. Export is non-nil
// exactly when Err is nil, so absence always carries its cause.
type FetchResult struct {
	ID     string
	Export *services.PlaylistExport
	Err    error
}

// OK reports whether the fetch produced a complete playlist.
func (r FetchResult) OK() bool { return r.Err == nil && r.Export != nil }

// RunSummary captures the outcome counts of one export run.
type RunSummary struct {
	Format    formatter.Format
	Total     int
	Succeeded int
	Failed    int
	Skipped   []FetchResult // fetch failures, in input order
}

// BatchResult pairs the encoded payloads with the run summary. Results hold
// one entry per successfully fetched playlist, preserving input order.
type BatchResult struct {
	Results []formatter.PlaylistExportResult
	Summary RunSummary
}

// ExportOpts tunes the fetch pool for one export call.
type ExportOpts struct {
	Workers   int     // Concurrent fetch workers (default 5, max 10)
	RateLimit float64 // Playlist fetches per second (default 5)
}

// ExportEngine defines the export operations consumed by the CLI and server layers.
type ExportEngine interface {
	// ExportAll exports every playlist the listing reaches.
	ExportAll(ctx context.Context, progress chan<- ProgressUpdate, format formatter.Format, opts ExportOpts) (*BatchResult, error)

	// ExportSelected exports the given playlists, skipping any whose fetch fails.
	ExportSelected(ctx context.Context, progress chan<- ProgressUpdate, ids []string, format formatter.Format, opts ExportOpts) (*BatchResult, error)

	// FetchPlaylist fetches one playlist with its complete track list.
	FetchPlaylist(ctx context.Context, id string) FetchResult
}

// PlaylistEngine implements ExportEngine against a single music service.
type PlaylistEngine struct {
	service  services.Service
	recorder Recorder
	logger   *log.Logger
}

// NewPlaylistEngine creates a PlaylistEngine. recorder may be nil to disable
// history; a nil logger falls back to the shared default.
func NewPlaylistEngine(service services.Service, recorder Recorder, logger *log.Logger) *PlaylistEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &PlaylistEngine{service: service, recorder: recorder, logger: logger}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *PlaylistEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// FetchPlaylist fetches one playlist with its full track list. Failures are
// carried in the result rather than returned so callers apply their own skip
// policy. A playlist is never returned half-paginated: any track page
// failure fails the whole fetch.
func (e *PlaylistEngine) FetchPlaylist(ctx context.Context, id string) FetchResult {
	if e.service == nil {
		return FetchResult{ID: id, Err: fmt.Errorf("%w: service not initialized", shared.ErrServiceUnavailable)}
	}

	export, err := e.service.ExportPlaylist(ctx, id)
	if err != nil {
		return FetchResult{ID: id, Err: err}
	}
	return FetchResult{ID: id, Export: export}
}

// ExportAll validates the session, discovers every playlist in listing
// order, and delegates to ExportSelected. A listing failure aborts the whole
// operation.
func (e *PlaylistEngine) ExportAll(ctx context.Context, progress chan<- ProgressUpdate, format formatter.Format, opts ExportOpts) (*BatchResult, error) {
	if e.service == nil {
		return nil, fmt.Errorf("%w: service not initialized", shared.ErrServiceUnavailable)
	}

	if _, err := e.service.GetProfile(ctx); err != nil {
		return nil, fmt.Errorf("failed to validate session: %w", err)
	}

	e.sendProgress(progress, listingPlaylistsUpdate())
	playlists, err := e.service.GetPlaylists(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list playlists: %v", shared.ErrAPIRequest, err)
	}
	e.sendProgress(progress, foundPlaylistsUpdate(len(playlists)))

	e.recordSnapshots(ctx, playlists)

	ids := make([]string, len(playlists))
	for i, pl := range playlists {
		ids[i] = pl.ID
	}

	return e.ExportSelected(ctx, progress, ids, format, opts)
}

// ExportSelected fetches each playlist through the worker pool, skips the
// ones whose fetch failed, and encodes the survivors. Surviving results keep
// the relative order of the input ids; a serialization failure aborts the
// whole call.
func (e *PlaylistEngine) ExportSelected(ctx context.Context, progress chan<- ProgressUpdate, ids []string, format formatter.Format, opts ExportOpts) (*BatchResult, error) {
	if e.service == nil {
		return nil, fmt.Errorf("%w: service not initialized", shared.ErrServiceUnavailable)
	}

	started := time.Now().UTC()
	fetched := e.fetchPool(ctx, progress, ids, opts)

	exports := make([]*services.PlaylistExport, 0, len(fetched))
	skipped := make([]FetchResult, 0)
	for _, res := range fetched {
		if res.OK() {
			exports = append(exports, res.Export)
			continue
		}
		skipped = append(skipped, res)
		e.logger.Warn("skipping playlist", "id", res.ID, "err", res.Err)
	}

	e.sendProgress(progress, dispatchingUpdate(len(exports), format))
	results, err := formatter.ExportPlaylists(exports, format)
	if err != nil {
		return nil, err
	}

	batch := &BatchResult{
		Results: results,
		Summary: RunSummary{
			Format:    format,
			Total:     len(ids),
			Succeeded: len(results),
			Failed:    len(skipped),
			Skipped:   skipped,
		},
	}

	e.recordRun(ctx, started, fetched, batch)
	return batch, nil
}
