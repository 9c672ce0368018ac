// package formatter converts fetched playlists into export payloads (JSON, CSV, XLS, XLSX)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/spx/internal/services"
	"github.com/desertthunder/spx/internal/shared"
)

// artistSeparator joins artist names in the flattened row shape.
const artistSeparator = " && "

// Format identifies an export payload encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLS  Format = "xls"
	FormatXLSX Format = "xlsx"
)

// Formats lists every supported format in display order.
var Formats = []Format{FormatJSON, FormatCSV, FormatXLS, FormatXLSX}

// ParseFormat normalizes a user-supplied format name to a [Format].
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatXLS:
		return FormatXLS, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q (expected json, csv, xls, or xlsx)", shared.ErrInvalidFormat, s)
	}
}

// Ext returns the file extension for the format, without a leading dot.
func (f Format) Ext() string { return string(f) }

// ContentType returns the MIME type served for the format's payloads.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatXLS:
		return "application/vnd.ms-excel"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/json"
	}
}

// TrackFlattened is the export row shape, one row per playlist entry.
type TrackFlattened struct {
	AddedAt string `json:"added_at"`
	Name    string `json:"name"`
	Artists string `json:"artists"`
	Album   string `json:"album"`
}

// column pairs a header name with its value accessor so every tabular writer
// shares one declared order.
type column struct {
	header string
	value  func(TrackFlattened) string
}

var trackColumns = []column{
	{"added_at", func(t TrackFlattened) string { return t.AddedAt }},
	{"name", func(t TrackFlattened) string { return t.Name }},
	{"artists", func(t TrackFlattened) string { return t.Artists }},
	{"album", func(t TrackFlattened) string { return t.Album }},
}

// headerRow returns the column headers in declared order.
func headerRow() []string {
	headers := make([]string, len(trackColumns))
	for i, col := range trackColumns {
		headers[i] = col.header
	}
	return headers
}

// valueRow returns a track's column values in declared order.
func valueRow(track TrackFlattened) []string {
	values := make([]string, len(trackColumns))
	for i, col := range trackColumns {
		values[i] = col.value(track)
	}
	return values
}

// FlattenTracks converts playlist entries to the export row shape, one row
// per entry in playlist order. Entries with no track data flatten to a row
// carrying only the added timestamp.
func FlattenTracks(items []services.TrackItem) []TrackFlattened {
	flattened := make([]TrackFlattened, len(items))
	for i, item := range items {
		flattened[i] = flattenTrack(item)
	}
	return flattened
}

func flattenTrack(item services.TrackItem) TrackFlattened {
	row := TrackFlattened{AddedAt: item.AddedAt}
	if item.Track == nil {
		return row
	}

	row.Name = item.Track.Name
	row.Artists = joinArtists(item.Track.Artists)
	row.Album = item.Track.Album
	return row
}

// joinArtists concatenates artist names with " && ", skipping artists whose
// name is empty without inserting an extra separator.
func joinArtists(artists []services.Artist) string {
	names := make([]string, 0, len(artists))
	for _, artist := range artists {
		if artist.Name == "" {
			continue
		}
		names = append(names, artist.Name)
	}
	return strings.Join(names, artistSeparator)
}

// PlaylistExportResult holds one produced payload: the playlist's display
// name, the encoded bytes, and their length.
type PlaylistExportResult struct {
	PlaylistName string
	Data         []byte
	Length       int
}

// ExportPlaylists encodes each playlist in the requested format and returns
// one result per playlist in input order. A serialization failure aborts the
// whole batch.
func ExportPlaylists(exports []*services.PlaylistExport, format Format) ([]PlaylistExportResult, error) {
	results := make([]PlaylistExportResult, 0, len(exports))
	for _, export := range exports {
		data, err := ExportPlaylist(export, format)
		if err != nil {
			return nil, fmt.Errorf("failed to export %q: %w", export.Playlist.Name, err)
		}
		results = append(results, PlaylistExportResult{
			PlaylistName: export.Playlist.Name,
			Data:         data,
			Length:       len(data),
		})
	}
	return results, nil
}

// ExportPlaylist flattens a playlist's tracks and encodes them in the
// requested format.
func ExportPlaylist(export *services.PlaylistExport, format Format) ([]byte, error) {
	tracks := FlattenTracks(export.Tracks)

	switch format {
	case FormatJSON:
		return ExportToJSON(tracks)
	case FormatCSV:
		return ExportToCSV(tracks)
	case FormatXLS:
		return ExportToXLS(tracks)
	case FormatXLSX:
		return ExportToXLSX(tracks)
	default:
		return nil, fmt.Errorf("%w: %q", shared.ErrInvalidFormat, format)
	}
}

// ExportFile records one payload written to disk.
type ExportFile struct {
	PlaylistName string `json:"playlist"`
	Path         string `json:"path"`
	Bytes        int    `json:"bytes"`
}

// WriteExportFiles persists each result under dir, deriving file names from
// sanitized playlist names. Colliding names get a numeric suffix.
func WriteExportFiles(results []PlaylistExportResult, dir string, format Format) ([]ExportFile, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	files := make([]ExportFile, 0, len(results))
	seen := map[string]int{}

	for _, result := range results {
		base := shared.SanitizeFilename(result.PlaylistName)
		n := seen[base]
		seen[base] = n + 1
		if n > 0 {
			base = fmt.Sprintf("%s_%d", base, n)
		}

		path := filepath.Join(dir, base+"."+format.Ext())
		if err := os.WriteFile(path, result.Data, 0644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", path, err)
		}

		files = append(files, ExportFile{
			PlaylistName: result.PlaylistName,
			Path:         path,
			Bytes:        result.Length,
		})
	}

	return files, nil
}

// ExportToJSON serializes flattened tracks as pretty-printed JSON.
func ExportToJSON(tracks []TrackFlattened) ([]byte, error) {
	data, err := shared.MarshalJSON(tracks, true)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tracks: %w", err)
	}
	return data, nil
}

// ExportToCSV serializes flattened tracks as CSV with a header row of the
// column names in declared order: added_at, name, artists, album.
func ExportToCSV(tracks []TrackFlattened) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(headerRow()); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range tracks {
		if err := writer.Write(valueRow(track)); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}
