// Package repositories implements SQLite persistence for the exporter's run history.
//
// Each repository handles CRUD operations for one entity. Runs and snapshots support
// soft deletes via deleted_at timestamps and exclude deleted records from queries by default.
//
// Key Implementations:
//   - [ExportRunRepository] : Export run rows with sequence-numbered history ordering
//   - [RunItemRepository] : Append-only per-playlist outcome rows, read back in input order
//   - [PlaylistSnapshotRepository] : Listing snapshots upserted by Spotify id
//   - [RunRecorder] : tasks.Recorder adapter composing the three repositories
//
// Sequence numbers provide stable, human-readable run ordering (e.g., run #42) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
