// package services defines interface Service for the streaming API the
// exporter consumes, plus the domain types the export pipeline works with.
package services

import (
	"context"

	"golang.org/x/oauth2"
)

// Service defines the contract for a music streaming provider that can list
// and export playlists for an authenticated user.
type Service interface {
	// Authenticate performs OAuth2 authentication with the service.
	// Expects either an "access_token" or "auth_code" in credentials.
	Authenticate(ctx context.Context, credentials map[string]string) error

	// GetProfile retrieves the authenticated user's profile.
	GetProfile(ctx context.Context) (*UserProfile, error)

	// GetProfileRaw returns the profile endpoint's response body untouched.
	GetProfileRaw(ctx context.Context) ([]byte, error)

	// GetPlaylistPageRaw returns one page of the user's playlist listing
	// untouched, at the given offset with the given page size.
	GetPlaylistPageRaw(ctx context.Context, offset, limit int) ([]byte, error)

	// GetPlaylists retrieves every playlist for the authenticated user,
	// following the listing's pagination to exhaustion.
	GetPlaylists(ctx context.Context) ([]Playlist, error)

	// ExportPlaylist retrieves a playlist and its full track listing.
	ExportPlaylist(ctx context.Context, playlistID string) (*PlaylistExport, error)

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

// OAuthService extends Service for providers whose credential comes from an
// OAuth2 authorization-code flow. The CLI runs the flow; the service only
// hands out the pieces it needs.
type OAuthService interface {
	Service

	// GetAuthURL returns the authorization URL to open in a browser.
	GetAuthURL(state string) string

	// GetOAuthConfig exposes the OAuth2 config for the callback exchange.
	GetOAuthConfig() *oauth2.Config

	// SetToken installs a previously obtained token.
	SetToken(ctx context.Context, token *oauth2.Token)

	// SetTokenRefreshCallback registers a function invoked whenever the
	// access token changes, so the caller can persist the fresh token.
	SetTokenRefreshCallback(fn func(*oauth2.Token))
}

// Playlist represents a playlist as it appears in the user's listing
type Playlist struct {
	ID          string
	Name        string
	Description string
	Owner       string
	TrackCount  int
	Public      bool
}

// PlaylistExport represents a playlist with its track list paginated to
// exhaustion, in the API's listing order
type PlaylistExport struct {
	Playlist Playlist
	Tracks   []TrackItem
}

// TrackItem is one entry in a playlist's track list. Track is nil when the
// API can no longer resolve the entry (removed or local tracks).
type TrackItem struct {
	AddedAt string
	Track   *Track
}

// Track carries the fields exports care about
type Track struct {
	Name    string
	Artists []Artist
	Album   string
}

// Artist holds an artist name. Name is empty when the upstream value is null
// or absent.
type Artist struct {
	Name string
}

// UserProfile represents the authenticated user's account
type UserProfile struct {
	ID          string
	DisplayName string
	Email       string
	Country     string
	Product     string
}
