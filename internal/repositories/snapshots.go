package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/shared"
)

// PlaylistSnapshotRepository implements [models.Repository] for [models.PlaylistSnapshot] persistence.
//
// Snapshots are keyed by spotify_id; Upsert refreshes the stored state for
// playlists seen in an earlier listing walk.
type PlaylistSnapshotRepository struct {
	db *sql.DB
}

// NewPlaylistSnapshotRepository creates a new PlaylistSnapshotRepository with the given database connection
func NewPlaylistSnapshotRepository(db *sql.DB) *PlaylistSnapshotRepository {
	return &PlaylistSnapshotRepository{db: db}
}

// Create inserts a new snapshot into the database with a generated ID
func (r *PlaylistSnapshotRepository) Create(snapshot *models.PlaylistSnapshot) error {
	id := shared.GenerateID()
	snapshot.SetID(id)

	if err := snapshot.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO playlist_snapshots (id, spotify_id, name, track_count, public, seen_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		id,
		snapshot.SpotifyID(),
		snapshot.Name(),
		snapshot.TrackCount(),
		snapshot.Public(),
		snapshot.SeenAt(),
		snapshot.CreatedAt(),
		snapshot.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	return nil
}

// Get retrieves a snapshot by ID, excluding soft-deleted snapshots
func (r *PlaylistSnapshotRepository) Get(id string) (*models.PlaylistSnapshot, error) {
	query := `
		SELECT id, spotify_id, name, track_count, public, seen_at, created_at, updated_at, deleted_at
		FROM playlist_snapshots
		WHERE id = ? AND deleted_at IS NULL
	`

	return r.scanSnapshot(r.db.QueryRow(query, id))
}

// GetBySpotifyID retrieves a snapshot by the playlist's Spotify id
func (r *PlaylistSnapshotRepository) GetBySpotifyID(spotifyID string) (*models.PlaylistSnapshot, error) {
	query := `
		SELECT id, spotify_id, name, track_count, public, seen_at, created_at, updated_at, deleted_at
		FROM playlist_snapshots
		WHERE spotify_id = ? AND deleted_at IS NULL
	`

	return r.scanSnapshot(r.db.QueryRow(query, spotifyID))
}

// Update modifies an existing snapshot in the database
func (r *PlaylistSnapshotRepository) Update(snapshot *models.PlaylistSnapshot) error {
	if err := snapshot.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	snapshot.SetUpdatedAt(now)

	query := `
		UPDATE playlist_snapshots
		SET name = ?, track_count = ?, public = ?, seen_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		snapshot.Name(),
		snapshot.TrackCount(),
		snapshot.Public(),
		snapshot.SeenAt(),
		now,
		snapshot.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update snapshot: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("snapshot not found or already deleted: %s", snapshot.ID())
	}

	return nil
}

// Upsert refreshes the stored listing state for the snapshot's Spotify id,
// creating the row on first sight.
// Duplicate inserts racing on the UNIQUE constraint are silently ignored.
func (r *PlaylistSnapshotRepository) Upsert(snapshot *models.PlaylistSnapshot) error {
	existing, err := r.GetBySpotifyID(snapshot.SpotifyID())
	if err == nil && existing != nil {
		existing.SetName(snapshot.Name())
		existing.SetTrackCount(snapshot.TrackCount())
		existing.SetPublic(snapshot.Public())
		existing.SetSeenAt(snapshot.SeenAt())
		return r.Update(existing)
	}

	err = r.Create(snapshot)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil
		}
		return fmt.Errorf("failed to upsert snapshot: %w", err)
	}

	return nil
}

// Delete soft-deletes a snapshot by ID
func (r *PlaylistSnapshotRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE playlist_snapshots
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("snapshot not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves all snapshots matching the given criteria, excluding
// soft-deleted snapshots
func (r *PlaylistSnapshotRepository) List(criteria map[string]any) ([]*models.PlaylistSnapshot, error) {
	query := `
		SELECT id, spotify_id, name, track_count, public, seen_at, created_at, updated_at, deleted_at
		FROM playlist_snapshots
		WHERE deleted_at IS NULL
	`

	args := []any{}

	if spotifyID, ok := criteria["spotify_id"].(string); ok && spotifyID != "" {
		query += " AND spotify_id = ?"
		args = append(args, spotifyID)
	}

	query += " ORDER BY name ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*models.PlaylistSnapshot
	for rows.Next() {
		snapshot, err := r.scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snapshot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return snapshots, nil
}

// scanSnapshot rebuilds a [models.PlaylistSnapshot] from one result row
func (r *PlaylistSnapshotRepository) scanSnapshot(row rowScanner) (*models.PlaylistSnapshot, error) {
	var (
		id         string
		spotifyID  string
		name       string
		trackCount int
		public     bool
		seenAt     time.Time
		createdAt  time.Time
		updatedAt  time.Time
		deletedAt  sql.NullTime
	)

	err := row.Scan(&id, &spotifyID, &name, &trackCount, &public, &seenAt, &createdAt, &updatedAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("snapshot not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan snapshot: %w", err)
	}

	snapshot := models.NewPlaylistSnapshot(spotifyID, name, trackCount, public, seenAt)
	snapshot.SetID(id)
	snapshot.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		snapshot.SetDeletedAt(&deletedAt.Time)
	}

	return snapshot, nil
}
