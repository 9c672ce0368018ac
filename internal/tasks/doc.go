// Package tasks orchestrates playlist exports with real-time progress reporting.
//
// # Core Operations
//
// The [ExportEngine] interface defines three operations:
//
//  1. [ExportEngine.ExportAll] : Export every playlist the account can list
//     - Validates the session, walks the full playlist listing
//     - Snapshots the listing for the history layer
//     - Delegates to ExportSelected over every id in listing order
//
//  2. [ExportEngine.ExportSelected] : Export an explicit id list
//     - Fetches playlists concurrently through an order-preserving pool
//     - Skips playlists whose fetch failed, keeping the survivors' order
//     - Encodes survivors in the requested format (fatal on encoder errors)
//
//  3. [ExportEngine.FetchPlaylist] : Fetch one playlist completely
//     - Returns an explicit [FetchResult] instead of a nullable export
//     - Never returns a half-paginated playlist
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and
// optional data for advanced rendering. Updates use select with default to
// prevent blocking.
//
// # Run History
//
// The optional [Recorder] interface enables run and snapshot persistence.
// History write failures are logged and never disrupt an export.
//
// # Implementation
//
// [PlaylistEngine] implements [ExportEngine] with dependencies on:
//   - [services.Service] : the authenticated Spotify client
//   - [Recorder] : optional persistence layer (repositories.RunRecorder)
package tasks
