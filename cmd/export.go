package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/desertthunder/spx/internal/formatter"
	"github.com/desertthunder/spx/internal/shared"
	"github.com/desertthunder/spx/internal/tasks"
	"github.com/desertthunder/spx/internal/ui"
	"github.com/urfave/cli/v3"
)

// ExportAll exports every playlist in the account.
func (r *Runner) ExportAll(ctx context.Context, cmd *cli.Command) error {
	return r.runExport(ctx, cmd, nil)
}

// ExportPick exports the playlists named by the id arguments.
func (r *Runner) ExportPick(ctx context.Context, cmd *cli.Command) error {
	ids := cmd.Args().Slice()
	if len(ids) == 0 {
		return fmt.Errorf("%w: at least one playlist id is required", shared.ErrMissingArgument)
	}
	return r.runExport(ctx, cmd, ids)
}

// runExport drives one export run: resolve options, run the engine with live
// progress logging, write the result files plus a manifest, print the summary.
// A nil ids slice means every playlist in the account.
func (r *Runner) runExport(ctx context.Context, cmd *cli.Command, ids []string) error {
	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}

	name := cmd.String("format")
	if name == "" {
		name = "json"
	}
	format, err := formatter.ParseFormat(name)
	if err != nil {
		return err
	}

	outputDir := cmd.String("output")
	if outputDir == "" {
		outputDir = "exports"
	}

	opts := tasks.ExportOpts{
		Workers:   cmd.Int("workers"),
		RateLimit: cmd.Float("rate"),
	}

	engine, closeEngine := r.exportEngine()
	defer closeEngine()

	progress := make(chan tasks.ProgressUpdate, 64)
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for update := range progress {
			r.logger.Info(update.Message, "phase", update.Phase.String())
		}
	}()

	var batch *tasks.BatchResult
	if ids == nil {
		r.logger.Info("exporting all playlists", "format", format)
		batch, err = engine.ExportAll(ctx, progress, format, opts)
	} else {
		r.logger.Info("exporting selected playlists", "format", format, "count", len(ids))
		batch, err = engine.ExportSelected(ctx, progress, ids, format, opts)
	}
	close(progress)
	<-drained
	if err != nil {
		return err
	}

	files, err := formatter.WriteExportFiles(batch.Results, outputDir, format)
	if err != nil {
		return err
	}

	if err := r.writeManifest(outputDir, batch, files); err != nil {
		r.logger.Warn("failed to write manifest", "error", err)
	}

	r.writePlain("%s\n", ui.ExportSummary(batch.Summary, files))
	return nil
}

// manifest is the run receipt written next to the export files.
type manifest struct {
	Format    string                 `json:"format"`
	Total     int                    `json:"total"`
	Succeeded int                    `json:"succeeded"`
	Failed    int                    `json:"failed"`
	Skipped   []manifestSkip         `json:"skipped,omitempty"`
	Files     []formatter.ExportFile `json:"files"`
}

type manifestSkip struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

func (r *Runner) writeManifest(dir string, batch *tasks.BatchResult, files []formatter.ExportFile) error {
	m := manifest{
		Format:    string(batch.Summary.Format),
		Total:     batch.Summary.Total,
		Succeeded: batch.Summary.Succeeded,
		Failed:    batch.Summary.Failed,
		Files:     files,
	}
	for _, res := range batch.Summary.Skipped {
		m.Skipped = append(m.Skipped, manifestSkip{ID: res.ID, Error: res.Err.Error()})
	}

	data, err := shared.MarshalJSON(m, true)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	return os.WriteFile(filepath.Join(dir, "manifest.json"), data, 0644)
}
