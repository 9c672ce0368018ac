package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/shared"
)

// RunItemRepository persists the per-playlist rows of an export run.
//
// Items are append-only: they are written once with their run and never
// updated or deleted on their own, so only Create, Get, and the list
// operations exist.
type RunItemRepository struct {
	db *sql.DB
}

// NewRunItemRepository creates a new RunItemRepository with the given database connection
func NewRunItemRepository(db *sql.DB) *RunItemRepository {
	return &RunItemRepository{db: db}
}

// Create inserts a new run item into the database with a generated ID
func (r *RunItemRepository) Create(item *models.RunItem) error {
	id := shared.GenerateID()
	item.SetID(id)

	if err := item.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO run_items (id, run_id, position, playlist_id, playlist_name, status, bytes, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		id,
		item.RunID(),
		item.Position(),
		item.PlaylistID(),
		item.PlaylistName(),
		item.Status(),
		item.Bytes(),
		item.Error(),
		item.CreatedAt(),
		item.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run item: %w", err)
	}

	return nil
}

// Get retrieves a run item by ID
func (r *RunItemRepository) Get(id string) (*models.RunItem, error) {
	query := `
		SELECT id, run_id, position, playlist_id, playlist_name, status, bytes, error, created_at, updated_at
		FROM run_items
		WHERE id = ?
	`

	return r.scanItem(r.db.QueryRow(query, id))
}

// ListByRun retrieves a run's items ordered by their position in the run's input
func (r *RunItemRepository) ListByRun(runID string) ([]*models.RunItem, error) {
	query := `
		SELECT id, run_id, position, playlist_id, playlist_name, status, bytes, error, created_at, updated_at
		FROM run_items
		WHERE run_id = ?
		ORDER BY position ASC
	`

	rows, err := r.db.Query(query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query run items: %w", err)
	}
	defer rows.Close()

	var items []*models.RunItem
	for rows.Next() {
		item, err := r.scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return items, nil
}

// scanItem rebuilds a [models.RunItem] from one result row
func (r *RunItemRepository) scanItem(row rowScanner) (*models.RunItem, error) {
	var (
		id           string
		runID        string
		position     int
		playlistID   string
		playlistName string
		status       string
		bytes        int
		errMessage   sql.NullString
		createdAt    time.Time
		updatedAt    time.Time
	)

	err := row.Scan(&id, &runID, &position, &playlistID, &playlistName, &status, &bytes, &errMessage, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run item not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run item: %w", err)
	}

	item := models.NewRunItem(runID, position, playlistID, playlistName, status, bytes)
	item.SetID(id)
	item.SetUpdatedAt(updatedAt)
	if errMessage.Valid && errMessage.String != "" {
		item.SetError(errMessage.String)
	}

	return item, nil
}
