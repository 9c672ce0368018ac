package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/shared"
)

// ExportRunRepository implements [models.Repository] for [models.ExportRun] persistence.
//
// Runs are written once when an export finishes and read back newest first for history views.
type ExportRunRepository struct {
	db *sql.DB
}

// NewExportRunRepository creates a new ExportRunRepository with the given database connection
func NewExportRunRepository(db *sql.DB) *ExportRunRepository {
	return &ExportRunRepository{db: db}
}

// Create inserts a new export run into the database with generated ID and sequence
func (r *ExportRunRepository) Create(run *models.ExportRun) error {
	sequence, err := NextSequence(r.db, "export_runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	run.SetID(id)

	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO export_runs (id, sequence, format, total, succeeded, failed, started_at, completed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		run.Format(),
		run.Total(),
		run.Succeeded(),
		run.Failed(),
		run.StartedAt(),
		run.CompletedAt(),
		run.CreatedAt(),
		run.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert export run: %w", err)
	}

	return nil
}

// Get retrieves an export run by ID, excluding soft-deleted runs
func (r *ExportRunRepository) Get(id string) (*models.ExportRun, error) {
	query := `
		SELECT id, sequence, format, total, succeeded, failed, started_at, completed_at, created_at, updated_at, deleted_at
		FROM export_runs
		WHERE id = ? AND deleted_at IS NULL
	`

	return r.scanRun(r.db.QueryRow(query, id))
}

// Update modifies an existing export run in the database
func (r *ExportRunRepository) Update(run *models.ExportRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	run.SetUpdatedAt(now)

	query := `
		UPDATE export_runs
		SET format = ?, total = ?, succeeded = ?, failed = ?, completed_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		run.Format(),
		run.Total(),
		run.Succeeded(),
		run.Failed(),
		run.CompletedAt(),
		now,
		run.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update export run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("export run not found or already deleted: %s", run.ID())
	}

	return nil
}

// Delete soft-deletes an export run by ID
func (r *ExportRunRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE export_runs
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete export run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("export run not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves export runs matching the given criteria, newest first,
// excluding soft-deleted runs
func (r *ExportRunRepository) List(criteria map[string]any) ([]*models.ExportRun, error) {
	query := `
		SELECT id, sequence, format, total, succeeded, failed, started_at, completed_at, created_at, updated_at, deleted_at
		FROM export_runs
		WHERE deleted_at IS NULL
	`

	args := []any{}

	if format, ok := criteria["format"].(string); ok && format != "" {
		query += " AND format = ?"
		args = append(args, format)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query export runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.ExportRun
	for rows.Next() {
		run, err := r.scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

// scanRun rebuilds a [models.ExportRun] from one result row
func (r *ExportRunRepository) scanRun(row rowScanner) (*models.ExportRun, error) {
	var (
		id          string
		sequence    int
		format      string
		total       int
		succeeded   int
		failed      int
		startedAt   time.Time
		completedAt sql.NullTime
		createdAt   time.Time
		updatedAt   time.Time
		deletedAt   sql.NullTime
	)

	err := row.Scan(&id, &sequence, &format, &total, &succeeded, &failed, &startedAt, &completedAt, &createdAt, &updatedAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("export run not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan export run: %w", err)
	}

	run := models.NewExportRun(sequence, format, total, succeeded, failed, startedAt)
	run.SetID(id)
	run.SetUpdatedAt(updatedAt)
	if completedAt.Valid {
		run.SetCompletedAt(completedAt.Time)
	}
	if deletedAt.Valid {
		run.SetDeletedAt(&deletedAt.Time)
	}

	return run, nil
}
