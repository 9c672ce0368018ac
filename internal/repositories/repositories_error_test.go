package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/tasks"
)

func TestExportRunRepositoryErrors(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		t.Run("ValidationError", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewExportRunRepository(db)
			run := models.NewExportRun(0, "", 1, 1, 0, time.Now().UTC())

			if err := repo.Create(run); err == nil {
				t.Fatal("expected validation error for empty format")
			}
		})

		t.Run("IncoherentCounts", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewExportRunRepository(db)
			run := models.NewExportRun(0, "json", 1, 2, 1, time.Now().UTC())

			if err := repo.Create(run); err == nil {
				t.Fatal("expected validation error when succeeded+failed exceed total")
			}
		})
	})

	t.Run("Get", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewExportRunRepository(db)

			if _, err := repo.Get("nonexistent-id"); err == nil {
				t.Fatal("expected error when getting nonexistent run")
			}
		})
	})

	t.Run("Update", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewExportRunRepository(db)
			run := sampleRun()
			run.SetID("nonexistent-id")

			if err := repo.Update(run); err == nil {
				t.Fatal("expected error when updating nonexistent run")
			}
		})

		t.Run("Deleted", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewExportRunRepository(db)
			run := sampleRun()

			if err := repo.Create(run); err != nil {
				t.Fatalf("failed to create run: %v", err)
			}

			if err := repo.Delete(run.ID()); err != nil {
				t.Fatalf("failed to delete run: %v", err)
			}

			if err := repo.Update(run); err == nil {
				t.Fatal("expected error when updating deleted run")
			}
		})
	})

	t.Run("Delete", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewExportRunRepository(db)

			if err := repo.Delete("nonexistent-id"); err == nil {
				t.Fatal("expected error when deleting nonexistent run")
			}
		})

		t.Run("AlreadyDeleted", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewExportRunRepository(db)
			run := sampleRun()

			if err := repo.Create(run); err != nil {
				t.Fatalf("failed to create run: %v", err)
			}

			if err := repo.Delete(run.ID()); err != nil {
				t.Fatalf("failed to delete run: %v", err)
			}

			if err := repo.Delete(run.ID()); err == nil {
				t.Fatal("expected error when deleting already deleted run")
			}
		})
	})

	t.Run("List", func(t *testing.T) {
		t.Run("ExcludesDeleted", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewExportRunRepository(db)

			run1 := sampleRun()
			run2 := sampleRun()

			if err := repo.Create(run1); err != nil {
				t.Fatalf("failed to create run1: %v", err)
			}
			if err := repo.Create(run2); err != nil {
				t.Fatalf("failed to create run2: %v", err)
			}

			if err := repo.Delete(run1.ID()); err != nil {
				t.Fatalf("failed to delete run1: %v", err)
			}

			runs, err := repo.List(map[string]any{})
			if err != nil {
				t.Fatalf("failed to list runs: %v", err)
			}

			if len(runs) != 1 {
				t.Errorf("expected 1 run (excluding deleted), got %d", len(runs))
			}

			if len(runs) > 0 && runs[0].ID() != run2.ID() {
				t.Errorf("expected run2, got %s", runs[0].ID())
			}
		})
	})
}

func TestRunItemRepositoryErrors(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		t.Run("UnknownStatus", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			runRepo := NewExportRunRepository(db)
			run := sampleRun()
			if err := runRepo.Create(run); err != nil {
				t.Fatalf("failed to create run: %v", err)
			}

			itemRepo := NewRunItemRepository(db)
			item := models.NewRunItem(run.ID(), 0, "playlist1", "First", "partial", 0)

			if err := itemRepo.Create(item); err == nil {
				t.Fatal("expected validation error for unknown status")
			}
		})

		t.Run("SkippedWithoutError", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			runRepo := NewExportRunRepository(db)
			run := sampleRun()
			if err := runRepo.Create(run); err != nil {
				t.Fatalf("failed to create run: %v", err)
			}

			itemRepo := NewRunItemRepository(db)
			item := models.NewRunItem(run.ID(), 0, "playlist1", "First", models.RunItemSkipped, 0)

			if err := itemRepo.Create(item); err == nil {
				t.Fatal("expected validation error for skipped item without an error message")
			}
		})

		t.Run("InvalidRunID", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			itemRepo := NewRunItemRepository(db)
			item := models.NewRunItem("nonexistent-run", 0, "playlist1", "First", models.RunItemExported, 64)

			if err := itemRepo.Create(item); err == nil {
				t.Fatal("expected error when creating item with invalid run_id")
			}
		})
	})

	t.Run("Get", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			itemRepo := NewRunItemRepository(db)

			if _, err := itemRepo.Get("nonexistent-id"); err == nil {
				t.Fatal("expected error when getting nonexistent item")
			}
		})
	})
}

func TestPlaylistSnapshotRepositoryErrors(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		t.Run("DuplicateSpotifyID", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewPlaylistSnapshotRepository(db)

			first := models.NewPlaylistSnapshot("spotify123", "Summer Mix", 10, true, time.Now().UTC())
			if err := repo.Create(first); err != nil {
				t.Fatalf("failed to create first snapshot: %v", err)
			}

			second := models.NewPlaylistSnapshot("spotify123", "Summer Mix Copy", 10, true, time.Now().UTC())
			if err := repo.Create(second); err == nil {
				t.Fatal("expected error when creating snapshot with duplicate spotify_id")
			}
		})

		t.Run("ValidationError", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewPlaylistSnapshotRepository(db)
			snapshot := models.NewPlaylistSnapshot("", "Summer Mix", 10, true, time.Now().UTC())

			if err := repo.Create(snapshot); err == nil {
				t.Fatal("expected validation error for empty spotify_id")
			}
		})
	})

	t.Run("NotFound errors", func(t *testing.T) {
		t.Run("GetBySpotifyID", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewPlaylistSnapshotRepository(db)

			if _, err := repo.GetBySpotifyID("nonexistent"); err == nil {
				t.Fatal("expected error when getting nonexistent snapshot")
			}
		})

		t.Run("Update", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewPlaylistSnapshotRepository(db)
			snapshot := models.NewPlaylistSnapshot("spotify123", "Summer Mix", 10, true, time.Now().UTC())
			snapshot.SetID("nonexistent-id")

			if err := repo.Update(snapshot); err == nil {
				t.Fatal("expected error when updating nonexistent snapshot")
			}
		})

		t.Run("Delete", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewPlaylistSnapshotRepository(db)

			if err := repo.Delete("nonexistent-id"); err == nil {
				t.Fatal("expected error when deleting nonexistent snapshot")
			}
		})
	})
}

func TestRunRecorder_InvalidItem(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	recorder := NewRunRecorder(db)

	record := tasks.RunRecord{
		Format:    "json",
		Total:     1,
		Failed:    1,
		StartedAt: time.Now().UTC(),
		Items: []tasks.RunItemRecord{
			{PlaylistID: "p1", Status: "partial"},
		},
	}

	if err := recorder.RecordRun(context.Background(), record); err == nil {
		t.Fatal("expected error when recording an item with an unknown status")
	}
}
