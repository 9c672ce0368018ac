package ui

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/spx/internal/formatter"
	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/tasks"
)

func TestExportSummary(t *testing.T) {
	t.Run("renders counts and files", func(t *testing.T) {
		summary := tasks.RunSummary{
			Format:    formatter.FormatCSV,
			Total:     3,
			Succeeded: 2,
			Failed:    1,
			Skipped: []tasks.FetchResult{
				{ID: "bad-id", Err: fmt.Errorf("playlist not found")},
			},
		}
		files := []formatter.ExportFile{
			{PlaylistName: "Morning Mix", Path: "exports/Morning Mix.csv", Bytes: 120},
			{PlaylistName: "Workout", Path: "exports/Workout.csv", Bytes: 88},
		}

		out := ExportSummary(summary, files)

		for _, want := range []string{
			"CSV",
			"2/3 exported",
			"1 skipped",
			"Morning Mix",
			"exports/Workout.csv",
			"120 bytes",
			"bad-id",
			"playlist not found",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("expected summary to contain %q, got:\n%s", want, out)
			}
		}
	})

	t.Run("omits failure line for clean runs", func(t *testing.T) {
		summary := tasks.RunSummary{Format: formatter.FormatJSON, Total: 1, Succeeded: 1}
		files := []formatter.ExportFile{{PlaylistName: "Solo", Path: "exports/Solo.json", Bytes: 10}}

		out := ExportSummary(summary, files)

		if strings.Contains(out, "skipped") {
			t.Errorf("expected no skip line, got:\n%s", out)
		}
		if !strings.Contains(out, "1/1 exported") {
			t.Errorf("expected success count, got:\n%s", out)
		}
	})
}

func TestHistoryTable(t *testing.T) {
	t.Run("empty history", func(t *testing.T) {
		out := HistoryTable(nil, nil)

		if !strings.Contains(out, "No export runs recorded yet") {
			t.Errorf("expected empty-state message, got:\n%s", out)
		}
	})

	t.Run("renders runs with items", func(t *testing.T) {
		started := time.Date(2026, 5, 1, 12, 30, 0, 0, time.UTC)

		run := models.NewExportRun(7, "xlsx", 2, 1, 1, started)
		run.SetID("run-1")

		exported := models.NewRunItem("run-1", 0, "pl1", "Morning Mix", models.RunItemExported, 2048)
		skipped := models.NewRunItem("run-1", 1, "pl2", "", models.RunItemSkipped, 0)
		skipped.SetError("fetch failed")

		out := HistoryTable(
			[]*models.ExportRun{run},
			map[string][]*models.RunItem{"run-1": {exported, skipped}},
		)

		for _, want := range []string{
			"#7",
			"XLSX",
			"1/2 exported",
			"1 skipped",
			"Morning Mix",
			"2048 bytes",
			"pl2: fetch failed",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("expected history to contain %q, got:\n%s", want, out)
			}
		}
	})

	t.Run("runs without loaded items render counts only", func(t *testing.T) {
		run := models.NewExportRun(1, "json", 3, 3, 0, time.Now())
		run.SetID("run-2")

		out := HistoryTable([]*models.ExportRun{run}, nil)

		if !strings.Contains(out, "3/3 exported") {
			t.Errorf("expected counts, got:\n%s", out)
		}
	})
}
