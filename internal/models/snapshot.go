package models

import (
	"fmt"
	"time"
)

// PlaylistSnapshot is the most recent listing state seen for one playlist,
// keyed by its Spotify id. Snapshots hold metadata only, never track payloads.
type PlaylistSnapshot struct {
	id         string
	spotifyID  string
	name       string
	trackCount int
	public     bool
	seenAt     time.Time
	createdAt  time.Time
	updatedAt  time.Time
	deletedAt  *time.Time
}

// NewPlaylistSnapshot creates a PlaylistSnapshot for one listing entry
func NewPlaylistSnapshot(spotifyID, name string, trackCount int, public bool, seenAt time.Time) *PlaylistSnapshot {
	now := time.Now()
	return &PlaylistSnapshot{
		spotifyID:  spotifyID,
		name:       name,
		trackCount: trackCount,
		public:     public,
		seenAt:     seenAt,
		createdAt:  now,
		updatedAt:  now,
	}
}

func (s *PlaylistSnapshot) ID() string { return s.id }

func (s *PlaylistSnapshot) SpotifyID() string { return s.spotifyID }

func (s *PlaylistSnapshot) Name() string { return s.name }

func (s *PlaylistSnapshot) TrackCount() int { return s.trackCount }

func (s *PlaylistSnapshot) Public() bool { return s.public }

func (s *PlaylistSnapshot) SeenAt() time.Time { return s.seenAt }

func (s *PlaylistSnapshot) CreatedAt() time.Time { return s.createdAt }

func (s *PlaylistSnapshot) UpdatedAt() time.Time { return s.updatedAt }

func (s *PlaylistSnapshot) DeletedAt() *time.Time { return s.deletedAt }

func (s *PlaylistSnapshot) SetID(id string) { s.id = id }

func (s *PlaylistSnapshot) SetName(name string) { s.name = name }

func (s *PlaylistSnapshot) SetTrackCount(count int) { s.trackCount = count }

func (s *PlaylistSnapshot) SetPublic(public bool) { s.public = public }

func (s *PlaylistSnapshot) SetSeenAt(t time.Time) { s.seenAt = t }

func (s *PlaylistSnapshot) SetUpdatedAt(t time.Time) { s.updatedAt = t }

func (s *PlaylistSnapshot) SetDeletedAt(t *time.Time) { s.deletedAt = t }

// Validate checks the snapshot's required fields
func (s *PlaylistSnapshot) Validate() error {
	if s.spotifyID == "" {
		return fmt.Errorf("spotify_id is required")
	}
	if s.trackCount < 0 {
		return fmt.Errorf("track_count must be non-negative")
	}
	if s.seenAt.IsZero() {
		return fmt.Errorf("seen_at is required")
	}
	return nil
}
