package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/desertthunder/spx/internal/shared"
	"golang.org/x/oauth2"
)

func TestSpotifyService(t *testing.T) {
	t.Run("NewSpotifyService", func(t *testing.T) {
		t.Run("With Valid Credentials", func(t *testing.T) {
			credentials := map[string]string{
				"client_id":     "test_client_id",
				"client_secret": "test_client_secret",
				"redirect_uri":  "http://localhost:9999/callback",
			}

			srv, err := NewSpotifyService(credentials)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if srv == nil {
				t.Fatal("expected service to be created")
			}

			if srv.Name() != "Spotify" {
				t.Errorf("expected service name 'Spotify', got %s", srv.Name())
			}
		})

		t.Run("Missing Client ID", func(t *testing.T) {
			credentials := map[string]string{
				"client_secret": "test_client_secret",
			}

			_, err := NewSpotifyService(credentials)
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials for missing client_id, got %v", err)
			}
		})

		t.Run("Missing Client Secret", func(t *testing.T) {
			credentials := map[string]string{
				"client_id": "test_client_id",
			}

			_, err := NewSpotifyService(credentials)
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials for missing client_secret, got %v", err)
			}
		})

		t.Run("Default Redirect URI", func(t *testing.T) {
			credentials := map[string]string{
				"client_id":     "test_client_id",
				"client_secret": "test_client_secret",
			}

			srv, err := NewSpotifyService(credentials)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if srv.config.RedirectURL != "http://127.0.0.1:3000/callback" {
				t.Errorf("expected default redirect URI, got %s", srv.config.RedirectURL)
			}
		})
	})

	t.Run("Get AuthURL", func(t *testing.T) {
		credentials := map[string]string{
			"client_id":     "test_client_id",
			"client_secret": "test_client_secret",
		}

		srv, err := NewSpotifyService(credentials)
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		authURL := srv.GetAuthURL("test_state")
		if authURL == "" {
			t.Error("expected auth URL to be generated")
		}

		if !strings.Contains(authURL, "accounts.spotify.com") {
			t.Error("auth URL should contain Spotify domain")
		}
		if !strings.Contains(authURL, "test_client_id") {
			t.Error("auth URL should contain client_id")
		}
		if !strings.Contains(authURL, "test_state") {
			t.Error("auth URL should contain state")
		}
	})

	t.Run("Authenticate", func(t *testing.T) {
		credentials := map[string]string{
			"client_id":     "test_client_id",
			"client_secret": "test_client_secret",
		}

		srv, err := NewSpotifyService(credentials)
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		t.Run("WithAccessToken", func(t *testing.T) {
			authCreds := map[string]string{
				"access_token": "test_access_token",
			}

			err := srv.Authenticate(context.Background(), authCreds)
			if err != nil {
				t.Errorf("expected no error with access token, got %v", err)
			}

			if srv.token == nil {
				t.Error("expected token to be set")
			}

			if srv.token.AccessToken != "test_access_token" {
				t.Errorf("expected access token to be 'test_access_token', got %s", srv.token.AccessToken)
			}
		})

		t.Run("Missing Credentials", func(t *testing.T) {
			err := srv.Authenticate(context.Background(), map[string]string{})
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})
	})

	t.Run("Service Interface", func(t *testing.T) {
		credentials := map[string]string{
			"client_id":     "test_client_id",
			"client_secret": "test_client_secret",
		}

		srv, err := NewSpotifyService(credentials)
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		var _ Service = srv
	})

	t.Run("Not Authenticated", func(t *testing.T) {
		srv, err := NewSpotifyService(map[string]string{
			"client_id":     "test_client_id",
			"client_secret": "test_client_secret",
		})
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		_, err = srv.GetProfile(context.Background())
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("GetProfile", func(t *testing.T) {
		st := &stubTransport{responses: map[string]stubResponse{
			spotifyBaseURL + "/me": {
				status: http.StatusOK,
				body:   `{"id":"user1","display_name":"Test User","email":"user@example.com","country":"US","product":"premium"}`,
			},
		}}
		srv := newTestService(t, st)

		profile, err := srv.GetProfile(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if profile.ID != "user1" {
			t.Errorf("expected id user1, got %s", profile.ID)
		}
		if profile.DisplayName != "Test User" {
			t.Errorf("expected display name Test User, got %s", profile.DisplayName)
		}
		if profile.Product != "premium" {
			t.Errorf("expected product premium, got %s", profile.Product)
		}
	})

	t.Run("GetProfileRaw", func(t *testing.T) {
		rawBody := `{"id":"user1","display_name":"Test User"}`
		st := &stubTransport{responses: map[string]stubResponse{
			spotifyBaseURL + "/me": {status: http.StatusOK, body: rawBody},
		}}
		srv := newTestService(t, st)

		body, err := srv.GetProfileRaw(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if string(body) != rawBody {
			t.Errorf("expected raw body to pass through untouched, got %s", string(body))
		}
	})

	t.Run("GetPlaylistPageRaw", func(t *testing.T) {
		rawBody := `{"items":[],"next":null}`
		st := &stubTransport{responses: map[string]stubResponse{
			spotifyBaseURL + "/me/playlists?limit=50&offset=10": {status: http.StatusOK, body: rawBody},
			spotifyBaseURL + "/me/playlists?limit=20&offset=0":  {status: http.StatusOK, body: rawBody},
		}}
		srv := newTestService(t, st)

		t.Run("clamps limit to 50", func(t *testing.T) {
			body, err := srv.GetPlaylistPageRaw(context.Background(), 10, 200)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if string(body) != rawBody {
				t.Errorf("expected raw page body, got %s", string(body))
			}
		})

		t.Run("defaults limit and floors offset", func(t *testing.T) {
			if _, err := srv.GetPlaylistPageRaw(context.Background(), -3, 0); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			last := st.requests[len(st.requests)-1]
			if last != spotifyBaseURL+"/me/playlists?limit=20&offset=0" {
				t.Errorf("unexpected request URL %s", last)
			}
		})
	})

	t.Run("API Error Status", func(t *testing.T) {
		st := &stubTransport{responses: map[string]stubResponse{
			spotifyBaseURL + "/me": {status: http.StatusInternalServerError, body: `{"error":"boom"}`},
		}}
		srv := newTestService(t, st)

		_, err := srv.GetProfile(context.Background())
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("Request Failures", func(t *testing.T) {
		t.Run("Failed Request Creation", func(t *testing.T) {
			srv := newTestService(t, &stubTransport{})

			_, err := srv.rawRequest(context.Background(), http.MethodGet, "/me\x00")
			if err == nil || !strings.Contains(err.Error(), "failed to create request") {
				t.Errorf("expected request creation error, got %v", err)
			}
		})

		t.Run("Failed HTTP Request", func(t *testing.T) {
			srv := newTestService(t, &stubTransport{err: errors.New("connection refused")})

			_, err := srv.GetProfileRaw(context.Background())
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
		})

		t.Run("Failed Response Body Read", func(t *testing.T) {
			srv := newTestService(t, &stubTransport{
				failBody:  true,
				responses: map[string]stubResponse{spotifyBaseURL + "/me": {status: http.StatusOK, body: "ignored"}},
			})

			_, err := srv.GetProfileRaw(context.Background())
			if err == nil || !strings.Contains(err.Error(), "failed to read response") {
				t.Errorf("expected body read error, got %v", err)
			}
		})
	})

	t.Run("GetPlaylists", func(t *testing.T) {
		t.Run("walks all pages in order", func(t *testing.T) {
			page2 := spotifyBaseURL + "/me/playlists?limit=2&offset=2"
			page3 := spotifyBaseURL + "/me/playlists?limit=2&offset=4"
			st := &stubTransport{responses: map[string]stubResponse{
				spotifyBaseURL + "/me/playlists?limit=50": {
					status: http.StatusOK,
					body: `{"items":[{"id":"p1","name":"One","tracks":{"total":3}},{"id":"p2","name":"Two","tracks":{"total":1}}],` +
						`"next":"` + page2 + `"}`,
				},
				page2: {
					status: http.StatusOK,
					body: `{"items":[{"id":"p3","name":"Three","tracks":{"total":0}},{"id":"p4","name":"Four","tracks":{"total":7}}],` +
						`"next":"` + page3 + `"}`,
				},
				page3: {
					status: http.StatusOK,
					body:   `{"items":[{"id":"p5","name":"Five","tracks":{"total":2}}],"next":null}`,
				},
			}}
			srv := newTestService(t, st)

			playlists, err := srv.GetPlaylists(context.Background())
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if len(playlists) != 5 {
				t.Fatalf("expected 5 playlists across 3 pages, got %d", len(playlists))
			}

			wantIDs := []string{"p1", "p2", "p3", "p4", "p5"}
			for i, want := range wantIDs {
				if playlists[i].ID != want {
					t.Errorf("position %d: expected %s, got %s", i, want, playlists[i].ID)
				}
			}

			if playlists[3].TrackCount != 7 {
				t.Errorf("expected track count 7 for p4, got %d", playlists[3].TrackCount)
			}
		})

		t.Run("page failure aborts the walk", func(t *testing.T) {
			page2 := spotifyBaseURL + "/me/playlists?limit=2&offset=2"
			st := &stubTransport{responses: map[string]stubResponse{
				spotifyBaseURL + "/me/playlists?limit=50": {
					status: http.StatusOK,
					body:   `{"items":[{"id":"p1","name":"One","tracks":{"total":3}}],"next":"` + page2 + `"}`,
				},
				page2: {status: http.StatusBadGateway, body: `{"error":"upstream"}`},
			}}
			srv := newTestService(t, st)

			playlists, err := srv.GetPlaylists(context.Background())
			if err == nil {
				t.Fatal("expected error when a page fails")
			}
			if playlists != nil {
				t.Errorf("expected no partial results, got %d playlists", len(playlists))
			}
		})
	})

	t.Run("ExportPlaylist", func(t *testing.T) {
		t.Run("single page", func(t *testing.T) {
			st := &stubTransport{responses: map[string]stubResponse{
				spotifyBaseURL + "/playlists/pl1": {
					status: http.StatusOK,
					body: `{"id":"pl1","name":"Mix","owner":{"id":"u1","display_name":"dt"},"public":true,` +
						`"tracks":{"total":1,"items":[{"added_at":"2024-01-01T00:00:00Z",` +
						`"track":{"name":"Alpha","artists":[{"name":"A"}],"album":{"name":"First"}}}],"next":null}}`,
				},
			}}
			srv := newTestService(t, st)

			export, err := srv.ExportPlaylist(context.Background(), "pl1")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if export.Playlist.Name != "Mix" {
				t.Errorf("expected playlist name Mix, got %s", export.Playlist.Name)
			}
			if export.Playlist.Owner != "dt" {
				t.Errorf("expected owner dt, got %s", export.Playlist.Owner)
			}
			if len(export.Tracks) != 1 {
				t.Fatalf("expected 1 track, got %d", len(export.Tracks))
			}
			if export.Tracks[0].Track == nil || export.Tracks[0].Track.Name != "Alpha" {
				t.Errorf("unexpected track %+v", export.Tracks[0].Track)
			}
			if export.Tracks[0].AddedAt != "2024-01-01T00:00:00Z" {
				t.Errorf("unexpected added_at %s", export.Tracks[0].AddedAt)
			}
		})

		t.Run("continues from embedded next", func(t *testing.T) {
			tracksPage2 := spotifyBaseURL + "/playlists/pl1/tracks?offset=2"
			st := &stubTransport{responses: map[string]stubResponse{
				spotifyBaseURL + "/playlists/pl1": {
					status: http.StatusOK,
					body: `{"id":"pl1","name":"Mix","owner":{"id":"u1","display_name":"dt"},` +
						`"tracks":{"total":3,"items":[` +
						`{"added_at":"2024-01-01T00:00:00Z","track":{"name":"Alpha","artists":[{"name":"A"}],"album":{"name":"First"}}},` +
						`{"added_at":"2024-01-02T00:00:00Z","track":{"name":"Beta","artists":[{"name":"B"}],"album":{"name":"Second"}}}],` +
						`"next":"` + tracksPage2 + `"}}`,
				},
				tracksPage2: {
					status: http.StatusOK,
					body: `{"items":[{"added_at":"2024-01-03T00:00:00Z",` +
						`"track":{"name":"Gamma","artists":[{"name":"C"},{"name":"D"}],"album":{"name":"Third"}}}],"next":null}`,
				},
			}}
			srv := newTestService(t, st)

			export, err := srv.ExportPlaylist(context.Background(), "pl1")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if len(export.Tracks) != 3 {
				t.Fatalf("expected 3 tracks, got %d", len(export.Tracks))
			}

			wantNames := []string{"Alpha", "Beta", "Gamma"}
			for i, want := range wantNames {
				if export.Tracks[i].Track == nil || export.Tracks[i].Track.Name != want {
					t.Errorf("position %d: expected %s, got %+v", i, want, export.Tracks[i].Track)
				}
			}

			if len(export.Tracks[2].Track.Artists) != 2 {
				t.Errorf("expected 2 artists on Gamma, got %d", len(export.Tracks[2].Track.Artists))
			}
		})

		t.Run("null track entries keep their slot", func(t *testing.T) {
			st := &stubTransport{responses: map[string]stubResponse{
				spotifyBaseURL + "/playlists/pl1": {
					status: http.StatusOK,
					body: `{"id":"pl1","name":"Mix","owner":{"id":"u1"},` +
						`"tracks":{"total":2,"items":[` +
						`{"added_at":"2024-01-01T00:00:00Z","track":null},` +
						`{"added_at":"2024-01-02T00:00:00Z","track":{"name":"Beta","artists":[],"album":{"name":""}}}],` +
						`"next":null}}`,
				},
			}}
			srv := newTestService(t, st)

			export, err := srv.ExportPlaylist(context.Background(), "pl1")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if len(export.Tracks) != 2 {
				t.Fatalf("expected 2 track items, got %d", len(export.Tracks))
			}
			if export.Tracks[0].Track != nil {
				t.Error("expected first item's track to be nil")
			}
			if export.Tracks[1].Track == nil {
				t.Error("expected second item's track to be present")
			}
		})

		t.Run("track page failure fails the export", func(t *testing.T) {
			tracksPage2 := spotifyBaseURL + "/playlists/pl1/tracks?offset=1"
			st := &stubTransport{responses: map[string]stubResponse{
				spotifyBaseURL + "/playlists/pl1": {
					status: http.StatusOK,
					body: `{"id":"pl1","name":"Mix","owner":{"id":"u1"},` +
						`"tracks":{"total":2,"items":[{"added_at":"2024-01-01T00:00:00Z",` +
						`"track":{"name":"Alpha","artists":[{"name":"A"}],"album":{"name":"First"}}}],` +
						`"next":"` + tracksPage2 + `"}}`,
				},
				tracksPage2: {status: http.StatusInternalServerError, body: `{"error":"boom"}`},
			}}
			srv := newTestService(t, st)

			export, err := srv.ExportPlaylist(context.Background(), "pl1")
			if err == nil {
				t.Fatal("expected error when a track page fails")
			}
			if export != nil {
				t.Error("expected no partially paginated export")
			}
		})
	})

	t.Run("SetTokenRefreshCallback", func(t *testing.T) {
		srv, err := NewSpotifyService(map[string]string{
			"client_id":     "test_client_id",
			"client_secret": "test_client_secret",
		})
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		t.Run("sets callback successfully", func(t *testing.T) {
			srv.SetTokenRefreshCallback(func(token *oauth2.Token) {})

			if srv.onTokenRefresh == nil {
				t.Error("expected callback to be set")
			}
		})

		t.Run("can set nil callback", func(t *testing.T) {
			srv.SetTokenRefreshCallback(nil)
			if srv.onTokenRefresh != nil {
				t.Error("expected callback to be nil")
			}
		})

		t.Run("updates an installed token source", func(t *testing.T) {
			srv.SetToken(context.Background(), &oauth2.Token{AccessToken: "tok"})
			called := false
			srv.SetTokenRefreshCallback(func(token *oauth2.Token) { called = true })

			if srv.tokenSource == nil || srv.tokenSource.callback == nil {
				t.Fatal("expected token source callback to be updated")
			}
			_ = called
		})
	})

	t.Run("refreshableTokenSource", func(t *testing.T) {
		t.Run("calls callback on first token fetch", func(t *testing.T) {
			callbackCalled := false
			var capturedToken *oauth2.Token

			mockSource := &mockTokenSource{
				token: &oauth2.Token{AccessToken: "test_token"},
			}

			source := &refreshableTokenSource{
				source: mockSource,
				callback: func(token *oauth2.Token) {
					callbackCalled = true
					capturedToken = token
				},
			}

			token, err := source.Token()
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if !callbackCalled {
				t.Error("expected callback to be called on first fetch")
			}
			if capturedToken == nil || capturedToken.AccessToken != "test_token" {
				t.Errorf("expected captured token 'test_token', got %+v", capturedToken)
			}
			if token.AccessToken != "test_token" {
				t.Errorf("expected returned token 'test_token', got %s", token.AccessToken)
			}
		})

		t.Run("calls callback when token changes", func(t *testing.T) {
			callCount := 0

			mockSource := &mockTokenSource{
				token: &oauth2.Token{AccessToken: "token1"},
			}

			source := &refreshableTokenSource{
				source:   mockSource,
				callback: func(token *oauth2.Token) { callCount++ },
			}

			_, _ = source.Token()
			if callCount != 1 {
				t.Errorf("expected callback called once, got %d", callCount)
			}

			mockSource.token = &oauth2.Token{AccessToken: "token2"}
			token2, _ := source.Token()

			if callCount != 2 {
				t.Errorf("expected callback called twice, got %d", callCount)
			}
			if token2.AccessToken != "token2" {
				t.Errorf("expected new token, got %s", token2.AccessToken)
			}
		})

		t.Run("doesn't call callback when token unchanged", func(t *testing.T) {
			callCount := 0

			mockSource := &mockTokenSource{
				token: &oauth2.Token{AccessToken: "same_token"},
			}

			source := &refreshableTokenSource{
				source:   mockSource,
				callback: func(token *oauth2.Token) { callCount++ },
			}

			source.Token()
			source.Token()
			source.Token()

			if callCount != 1 {
				t.Errorf("expected callback called once, got %d", callCount)
			}
		})

		t.Run("handles nil callback gracefully", func(t *testing.T) {
			mockSource := &mockTokenSource{
				token: &oauth2.Token{AccessToken: "test_token"},
			}

			source := &refreshableTokenSource{source: mockSource}

			token, err := source.Token()
			if err != nil {
				t.Fatalf("expected no error with nil callback, got %v", err)
			}
			if token.AccessToken != "test_token" {
				t.Error("expected token to be returned despite nil callback")
			}
		})

		t.Run("propagates source errors", func(t *testing.T) {
			mockSource := &mockTokenSource{
				err: errors.New("token source error"),
			}

			source := &refreshableTokenSource{
				source: mockSource,
				callback: func(token *oauth2.Token) {
					t.Error("callback should not be called on error")
				},
			}

			token, err := source.Token()
			if err == nil {
				t.Fatal("expected error from source")
			}
			if !strings.Contains(err.Error(), "token source error") {
				t.Errorf("expected source error, got %v", err)
			}
			if token != nil {
				t.Error("expected nil token on error")
			}
		})

		t.Run("contains callback panics", func(t *testing.T) {
			mockSource := &mockTokenSource{
				token: &oauth2.Token{AccessToken: "test_token"},
			}

			source := &refreshableTokenSource{
				source:   mockSource,
				callback: func(token *oauth2.Token) { panic("callback panic") },
			}

			token, err := source.Token()
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if token.AccessToken != "test_token" {
				t.Error("expected token despite panicking callback")
			}
		})
	})
}

// newTestService builds an authenticated service whose HTTP client routes
// through the given stub transport.
func newTestService(t *testing.T, st *stubTransport) *SpotifyService {
	t.Helper()

	srv, err := NewSpotifyService(map[string]string{
		"client_id":     "test_client_id",
		"client_secret": "test_client_secret",
	})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}

	srv.httpClient = &http.Client{Transport: st}

	if err := srv.Authenticate(context.Background(), map[string]string{"access_token": "test_token"}); err != nil {
		t.Fatalf("failed to authenticate: %v", err)
	}

	return srv
}

// stubTransport serves canned responses keyed by full request URL. A non-nil
// err fails the round trip itself; failBody swaps in a body that errors on
// the first read.
type stubTransport struct {
	responses map[string]stubResponse
	requests  []string
	err       error
	failBody  bool
}

type stubResponse struct {
	status int
	body   string
}

func (st *stubTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	url := req.URL.String()
	st.requests = append(st.requests, url)

	if st.err != nil {
		return nil, st.err
	}

	res, ok := st.responses[url]
	if !ok {
		return &http.Response{
			StatusCode: http.StatusNotFound,
			Body:       io.NopCloser(strings.NewReader(`{"error":"no stub for ` + url + `"}`)),
			Header:     make(http.Header),
		}, nil
	}

	body := io.NopCloser(strings.NewReader(res.body))
	if st.failBody {
		body = brokenBody{}
	}

	return &http.Response{
		StatusCode: res.status,
		Body:       body,
		Header:     make(http.Header),
	}, nil
}

// brokenBody fails on the first read
type brokenBody struct{}

func (brokenBody) Read([]byte) (int, error) { return 0, errors.New("read failed") }

func (brokenBody) Close() error { return nil }

// mockTokenSource implements [oauth2.TokenSource] for testing
type mockTokenSource struct {
	token *oauth2.Token
	err   error
}

func (m *mockTokenSource) Token() (*oauth2.Token, error) {
	return m.token, m.err
}
