// Package models defines domain entities and persistence interfaces for the spx playlist exporter.
//
// Persistent entities are database-backed models with full lifecycle management:
//   - [ExportRun] : One export invocation with its format, counts, and timing
//   - [RunItem] : Per-playlist outcome rows belonging to a run, ordered by input position
//   - [PlaylistSnapshot] : The most recent listing state seen for each playlist
//
// All persistent entities implement the Model interface providing ID generation, timestamps, and validation.
// ExportRun and PlaylistSnapshot additionally support soft deletes; run items are append-only.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
