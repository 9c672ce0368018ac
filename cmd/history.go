package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/repositories"
	"github.com/desertthunder/spx/internal/ui"
	"github.com/urfave/cli/v3"
)

// runView is the JSON projection of one recorded export run.
type runView struct {
	ID          string     `json:"id"`
	Sequence    int        `json:"sequence"`
	Format      string     `json:"format"`
	Total       int        `json:"total"`
	Succeeded   int        `json:"succeeded"`
	Failed      int        `json:"failed"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// History lists past export runs recorded in the local database, newest first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	limit := cmd.Int("limit")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	db, err := r.openDatabase()
	if err != nil {
		return fmt.Errorf("no export history available: %w", err)
	}
	defer db.Close()

	runRepo := repositories.NewExportRunRepository(db)
	itemRepo := repositories.NewRunItemRepository(db)

	criteria := map[string]any{}
	if limit > 0 {
		criteria["limit"] = limit
	}
	if format := cmd.String("format"); format != "" {
		criteria["format"] = format
	}

	runs, err := runRepo.List(criteria)
	if err != nil {
		return fmt.Errorf("failed to list export runs: %w", err)
	}

	if useJSON {
		views := make([]runView, 0, len(runs))
		for _, run := range runs {
			views = append(views, runView{
				ID:          run.ID(),
				Sequence:    run.Sequence(),
				Format:      run.Format(),
				Total:       run.Total(),
				Succeeded:   run.Succeeded(),
				Failed:      run.Failed(),
				StartedAt:   run.StartedAt(),
				CompletedAt: run.CompletedAt(),
			})
		}
		return r.writeJSON(views, pretty)
	}

	items := make(map[string][]*models.RunItem, len(runs))
	for _, run := range runs {
		list, err := itemRepo.ListByRun(run.ID())
		if err != nil {
			r.logger.Warn("failed to load run items", "run", run.ID(), "error", err)
			continue
		}
		items[run.ID()] = list
	}

	r.writePlain("%s\n", ui.HistoryTable(runs, items))
	return nil
}
