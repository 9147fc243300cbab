package tasks

import (
	"fmt"

	"github.com/desertthunder/playlistify/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or server layer for display.
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
	FetchTracks Phase = iota
	ResolveClean
	EnrichArtists
	Reorder
	Group
	CreatePlaylist
	WriteTracks
)

func (p Phase) String() string {
	switch p {
	case FetchTracks:
		return "fetch_tracks"
	case ResolveClean:
		return "resolve_clean"
	case EnrichArtists:
		return "enrich_artists"
	case Reorder:
		return "reorder"
	case Group:
		return "group"
	case CreatePlaylist:
		return "create_playlist"
	case WriteTracks:
		return "write_tracks"
	default:
		return ""
	}
}

func fetchTracksUpdate(step, total int, ref models.PlaylistRef) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Fetching tracks from %s...", displayName(ref)),
	}
}

func fetchedTracksUpdate(step, total int, ref models.PlaylistRef, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Found %d tracks in %s", count, displayName(ref)),
	}
}

func resolveBatchUpdate(step, total, resolved int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveClean,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Searching for clean versions (%d kept so far)...", step, total, resolved),
	}
}

func enrichArtistsUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   EnrichArtists,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Looking up artist genres...", step, total),
	}
}

func reorderUpdate(c models.Criterion, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Reorder,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Sorting %d tracks by %s...", count, c.Display()),
	}
}

func groupUpdate(buckets []models.Bucket, kept int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Group,
		Step:    kept,
		Total:   len(buckets),
		Message: fmt.Sprintf("Grouped tracks into %d buckets, %d large enough to keep", len(buckets), kept),
		Data:    buckets,
	}
}

func createPlaylistUpdate(step, total int, pl *models.Playlist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Playlist created: %s (ID: %s)", pl.Name, pl.ID),
		Data:    pl,
	}
}

func writeBatchUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Adding tracks to %s...", step, total, name),
	}
}

func displayName(ref models.PlaylistRef) string {
	if ref.Name != "" {
		return ref.Name
	}
	return ref.ID
}
