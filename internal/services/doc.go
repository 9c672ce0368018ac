// Package services defines the [Service] interface for music streaming
// providers and implements it for Spotify.
//
// # Service Interface
//
// The export pipeline consumes providers through a single abstraction, so
// the engine and the HTTP surface never depend on Spotify directly.
//
// # Spotify Implementation
//
// [SpotifyService] uses OAuth2 for authentication. When a token is installed
// through [SpotifyService.SetToken] or obtained via the auth-code exchange,
// requests refresh it automatically and report fresh tokens through the
// callback registered with [SpotifyService.SetTokenRefreshCallback].
//
// # Pagination
//
// Every paginated Spotify collection shares one envelope: an items array and
// a next reference that is null on the final page. collectPages walks that
// shape generically; [SpotifyService.GetPlaylists] uses it for the listing
// and [SpotifyService.ExportPlaylist] for each playlist's track pages. A
// failed page aborts the walk with no partial accumulation.
//
// # Raw Operations
//
// [SpotifyService.GetProfileRaw] and [SpotifyService.GetPlaylistPageRaw]
// return upstream response bodies untouched for callers that want the wire
// payload rather than the converted domain types.
//
// # Error Handling
//
// Services use typed errors from the shared package:
//   - [shared.ErrNotAuthenticated] : Authenticate() not called
//   - [shared.ErrAuthFailed] : code exchange or token refresh failed
//   - [shared.ErrAPIRequest] : HTTP request failed or non-2xx status
package services
