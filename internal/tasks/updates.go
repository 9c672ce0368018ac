package tasks

import (
	"fmt"
	"strings"

	"github.com/desertthunder/spx/internal/formatter"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	ListPlaylists Phase = iota
	FetchPlaylists
	Dispatch
)

func (p Phase) String() string {
	switch p {
	case ListPlaylists:
		return "list_playlists"
	case FetchPlaylists:
		return "fetch_playlists"
	case Dispatch:
		return "dispatch"
	default:
		return ""
	}
}

func listingPlaylistsUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   ListPlaylists,
		Step:    1,
		Total:   1,
		Message: "Listing playlists...",
	}
}

func foundPlaylistsUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ListPlaylists,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d playlists", count),
		Data:    count,
	}
}

func fetchedPlaylistUpdate(step, total int, res FetchResult) ProgressUpdate {
	if res.OK() {
		return ProgressUpdate{
			Phase:   FetchPlaylists,
			Step:    step,
			Total:   total,
			Message: fmt.Sprintf("[%d/%d] ✓ %s (%d tracks)", step, total, res.Export.Playlist.Name, len(res.Export.Tracks)),
			Data:    res,
		}
	}
	return ProgressUpdate{
		Phase:   FetchPlaylists,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, res.ID, res.Err),
		Data:    res,
	}
}

func dispatchingUpdate(count int, format formatter.Format) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Dispatch,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Encoding %d playlists as %s...", count, strings.ToUpper(string(format))),
	}
}
