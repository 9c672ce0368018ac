// Spotify API implementation of [Service]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/desertthunder/spx/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// page size requested when walking the full playlist listing
	listingPageSize = 50
)

type followers struct {
	Total int `json:"total"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	Email       string         `json:"email"`
	Country     string         `json:"country"`
	Product     string         `json:"product"` // premium, free, etc.
	Followers   followers      `json:"followers"`
	Images      []SpotifyImage `json:"images"`
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyArtist represents a Spotify artist. Name decodes to the empty
// string when the API sends null.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	ReleaseDate string         `json:"release_date"`
	TotalTracks int            `json:"total_tracks"`
	Images      []SpotifyImage `json:"images"`
	URI         string         `json:"uri"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	Explicit   bool            `json:"explicit"`
	URI        string          `json:"uri"`
}

// Owner identifies the user a playlist belongs to.
type Owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// SpotifyPlaylistTrack represents a track within a playlist context. Track
// is null for entries Spotify cannot resolve anymore.
type SpotifyPlaylistTrack struct {
	AddedAt string        `json:"added_at"`
	Track   *SpotifyTrack `json:"track"`
}

// page is the envelope every paginated Spotify collection uses: an item
// array plus a next reference that is null on the final page.
type page[T any] struct {
	Items    []T     `json:"items"`
	Total    int     `json:"total"`
	Limit    int     `json:"limit"`
	Offset   int     `json:"offset"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
}

// SpotifyPlaylist represents a full playlist object. Tracks holds the first
// page of the playlist's track list; its Next reference drives the rest of
// the pagination.
type SpotifyPlaylist struct {
	ID          string                     `json:"id"`
	Name        string                     `json:"name"`
	Description string                     `json:"description"`
	Owner       Owner                      `json:"owner"`
	Public      bool                       `json:"public"`
	Tracks      page[SpotifyPlaylistTrack] `json:"tracks"`
	Images      []SpotifyImage             `json:"images"`
	URI         string                     `json:"uri"`
}

type simplePlaylistTrack struct {
	Total int `json:"total"`
}

// SpotifySimplePlaylist represents a simplified playlist object (used in lists).
type SpotifySimplePlaylist struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Owner       Owner               `json:"owner"`
	Public      bool                `json:"public"`
	Tracks      simplePlaylistTrack `json:"tracks"`
	Images      []SpotifyImage      `json:"images"`
	URI         string              `json:"uri"`
}

// SpotifyService implements the Service interface for Spotify API
// interactions. Uses [oauth2] for authentication and provides playlist
// listing, playlist export, and raw endpoint passthrough.
type SpotifyService struct {
	config         *oauth2.Config
	token          *oauth2.Token
	tokenSource    *refreshableTokenSource
	httpClient     *http.Client
	credentials    map[string]string
	onTokenRefresh func(*oauth2.Token)
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = "http://127.0.0.1:3000/callback"
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"user-read-private",
			"user-read-email",
			"playlist-read-private",
			"playlist-read-collaborative",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{
		config:      config,
		httpClient:  http.DefaultClient,
		credentials: credentials,
	}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// GetOAuthConfig exposes the underlying OAuth2 config so callers can run the
// authorization-code exchange themselves (the callback server does this).
func (s *SpotifyService) GetOAuthConfig() *oauth2.Config {
	return s.config
}

// SetTokenRefreshCallback registers a function invoked whenever the access
// token changes, so the caller can persist the fresh token.
func (s *SpotifyService) SetTokenRefreshCallback(fn func(*oauth2.Token)) {
	s.onTokenRefresh = fn
	if s.tokenSource != nil {
		s.tokenSource.callback = fn
	}
}

// SetToken installs a previously obtained token, wiring up automatic refresh
// through the service's OAuth2 config.
func (s *SpotifyService) SetToken(ctx context.Context, token *oauth2.Token) {
	s.token = token
	s.tokenSource = &refreshableTokenSource{
		source:   s.config.TokenSource(ctx, token),
		callback: s.onTokenRefresh,
		last:     token.AccessToken,
	}
}

// Authenticate performs OAuth2 authentication with Spotify. Expects either an
// "access_token" or "auth_code" in credentials.
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if accessToken, ok := credentials["access_token"]; ok && accessToken != "" {
		s.token = &oauth2.Token{AccessToken: accessToken}
		return nil
	}

	if authCode, ok := credentials["auth_code"]; ok && authCode != "" {
		token, err := s.config.Exchange(ctx, authCode)
		if err != nil {
			return fmt.Errorf("%w: failed to exchange auth code: %v", shared.ErrAuthFailed, err)
		}
		s.SetToken(ctx, token)
		return nil
	}

	return fmt.Errorf("%w: missing access_token or auth_code", shared.ErrMissingCredentials)
}

// bearerToken returns the current access token, refreshing it first when a
// refreshable source is configured.
func (s *SpotifyService) bearerToken() (string, error) {
	if s.token == nil {
		return "", fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	if s.tokenSource != nil {
		token, err := s.tokenSource.Token()
		if err != nil {
			return "", fmt.Errorf("%w: token refresh: %v", shared.ErrAuthFailed, err)
		}
		s.token = token
	}

	return s.token.AccessToken, nil
}

// doRequest performs an authenticated request against the Spotify API and
// decodes the JSON response into result. Absolute URLs (pagination next
// references) pass through untouched; anything else is resolved against the
// API base URL.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, result any) error {
	body, err := s.rawRequest(ctx, method, endpoint)
	if err != nil {
		return err
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// rawRequest performs an authenticated request and returns the response body
// bytes untouched.
func (s *SpotifyService) rawRequest(ctx context.Context, method, endpoint string) ([]byte, error) {
	token, err := s.bearerToken()
	if err != nil {
		return nil, err
	}

	apiURL := endpoint
	if !strings.HasPrefix(endpoint, "http") {
		apiURL = spotifyBaseURL + endpoint
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	return body, nil
}

// collectPages walks a paginated collection starting at first, following
// each page's next reference until it is null. Items accumulate in page
// order, in-page order preserved. Any page failure aborts the whole walk and
// returns the error; no partial accumulation is ever returned.
func collectPages[T any](ctx context.Context, s *SpotifyService, first string) ([]T, error) {
	var items []T

	next := &first
	for next != nil {
		var p page[T]
		if err := s.doRequest(ctx, http.MethodGet, *next, &p); err != nil {
			return nil, err
		}
		items = append(items, p.Items...)
		next = p.Next
	}

	return items, nil
}

// GetProfile retrieves the current authenticated user's profile.
func (s *SpotifyService) GetProfile(ctx context.Context) (*UserProfile, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, http.MethodGet, "/me", &user); err != nil {
		return nil, err
	}
	return user.toProfile(), nil
}

// GetProfileRaw returns the /me response body untouched.
func (s *SpotifyService) GetProfileRaw(ctx context.Context) ([]byte, error) {
	return s.rawRequest(ctx, http.MethodGet, "/me")
}

// GetPlaylistPageRaw returns one page of the user's playlist listing
// untouched. The limit is clamped to Spotify's 1..50 range.
func (s *SpotifyService) GetPlaylistPageRaw(ctx context.Context, offset, limit int) ([]byte, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	endpoint := fmt.Sprintf("/me/playlists?limit=%d&offset=%d", limit, offset)
	return s.rawRequest(ctx, http.MethodGet, endpoint)
}

// GetPlaylists retrieves all playlists for the authenticated user by walking
// the listing to exhaustion.
func (s *SpotifyService) GetPlaylists(ctx context.Context) ([]Playlist, error) {
	first := fmt.Sprintf("/me/playlists?limit=%d", listingPageSize)
	items, err := collectPages[SpotifySimplePlaylist](ctx, s, first)
	if err != nil {
		return nil, err
	}

	playlists := make([]Playlist, 0, len(items))
	for _, sp := range items {
		playlists = append(playlists, sp.toPlaylist())
	}

	return playlists, nil
}

// ExportPlaylist retrieves a playlist with its complete track list. The
// first request returns the playlist metadata plus the first page of tracks;
// remaining pages follow the embedded next reference. A failure on any page
// fails the whole export, so a partially paginated playlist is never
// returned.
func (s *SpotifyService) ExportPlaylist(ctx context.Context, playlistID string) (*PlaylistExport, error) {
	endpoint := fmt.Sprintf("/playlists/%s", playlistID)

	var sp SpotifyPlaylist
	if err := s.doRequest(ctx, http.MethodGet, endpoint, &sp); err != nil {
		return nil, err
	}

	items := sp.Tracks.Items
	if sp.Tracks.Next != nil {
		rest, err := collectPages[SpotifyPlaylistTrack](ctx, s, *sp.Tracks.Next)
		if err != nil {
			return nil, err
		}
		items = append(items, rest...)
	}

	tracks := make([]TrackItem, 0, len(items))
	for _, item := range items {
		tracks = append(tracks, item.toTrackItem())
	}

	return &PlaylistExport{
		Playlist: sp.toPlaylist(),
		Tracks:   tracks,
	}, nil
}

func (u SpotifyUser) toProfile() *UserProfile {
	return &UserProfile{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		Country:     u.Country,
		Product:     u.Product,
	}
}

func (sp SpotifySimplePlaylist) toPlaylist() Playlist {
	return Playlist{
		ID:          sp.ID,
		Name:        sp.Name,
		Description: sp.Description,
		Owner:       sp.Owner.DisplayName,
		TrackCount:  sp.Tracks.Total,
		Public:      sp.Public,
	}
}

func (sp SpotifyPlaylist) toPlaylist() Playlist {
	return Playlist{
		ID:          sp.ID,
		Name:        sp.Name,
		Description: sp.Description,
		Owner:       sp.Owner.DisplayName,
		TrackCount:  sp.Tracks.Total,
		Public:      sp.Public,
	}
}

func (item SpotifyPlaylistTrack) toTrackItem() TrackItem {
	ti := TrackItem{AddedAt: item.AddedAt}
	if item.Track == nil {
		return ti
	}

	track := Track{
		Name:  item.Track.Name,
		Album: item.Track.Album.Name,
	}
	if len(item.Track.Artists) > 0 {
		track.Artists = make([]Artist, 0, len(item.Track.Artists))
		for _, artist := range item.Track.Artists {
			track.Artists = append(track.Artists, Artist{Name: artist.Name})
		}
	}

	ti.Track = &track
	return ti
}

// refreshableTokenSource wraps an [oauth2.TokenSource] and invokes a callback
// whenever the access token it hands out changes.
type refreshableTokenSource struct {
	source   oauth2.TokenSource
	callback func(*oauth2.Token)
	mu       sync.Mutex
	last     string
}

func (r *refreshableTokenSource) Token() (*oauth2.Token, error) {
	token, err := r.source.Token()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	changed := token.AccessToken != r.last
	r.last = token.AccessToken
	r.mu.Unlock()

	if changed && r.callback != nil {
		func() {
			defer func() { _ = recover() }()
			r.callback(token)
		}()
	}

	return token, nil
}
