// package formatter renders transformation results for the terminal, as JSON or as CSV
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/playlistify/internal/models"
	"github.com/desertthunder/playlistify/internal/shared"
)

// Playlists returns every playlist a result created, in creation order.
func Playlists(result any) []models.Playlist {
	switch r := result.(type) {
	case *models.Playlist:
		return []models.Playlist{*r}
	case *models.MergeResult:
		return []models.Playlist{r.Playlist}
	case *models.CleanResult:
		return []models.Playlist{r.Playlist}
	case *models.SplitResult:
		return r.NewPlaylists
	default:
		return nil
	}
}

// RenderText writes a human-readable summary of result.
func RenderText(result any, p *Palette) (string, error) {
	if p == nil {
		p = PlainPalette()
	}

	var b strings.Builder
	switch r := result.(type) {
	case *models.Playlist:
		b.WriteString(p.Title("Sorted playlist created") + "\n")
		writePlaylist(&b, p, *r)
	case *models.MergeResult:
		b.WriteString(p.Title(fmt.Sprintf("Merged %d playlists", len(r.Sources))) + "\n")
		writePlaylist(&b, p, r.Playlist)
		b.WriteString(p.Help("  from: "+strings.Join(r.Sources, ", ")) + "\n")
	case *models.CleanResult:
		b.WriteString(p.Title("Clean playlist created") + "\n")
		writePlaylist(&b, p, r.Playlist)
		fmt.Fprintf(&b, "  explicit: %d  replaced: %s  dropped: %s  local skipped: %d\n",
			r.ExplicitCount, p.OK(strconv.Itoa(r.Replaced)), p.Warn(strconv.Itoa(r.Dropped)), r.LocalSkipped)
	case *models.SplitResult:
		b.WriteString(p.Title(fmt.Sprintf("Split %s into %d playlists", r.OriginalPlaylist, r.SplitCount)) + "\n")
		for _, pl := range r.NewPlaylists {
			writePlaylist(&b, p, pl)
		}
	default:
		return "", fmt.Errorf("%w: cannot render %T", shared.ErrInvalidArgument, result)
	}
	return b.String(), nil
}

func writePlaylist(b *strings.Builder, p *Palette, pl models.Playlist) {
	fmt.Fprintf(b, "%s %s (%d tracks)\n", p.OK("✓"), pl.Name, pl.TrackCount)
	b.WriteString(p.Help("  "+shared.PlaylistURL(pl.ID)) + "\n")
}

// RenderJSON renders result as indented JSON.
func RenderJSON(result any) ([]byte, error) {
	return shared.MarshalJSON(result, true)
}

// ExportToCSV lists the created playlists with columns: ID, Name, Tracks, URL.
func ExportToCSV(result any) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"ID", "Name", "Tracks", "URL"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, pl := range Playlists(result) {
		record := []string{pl.ID, pl.Name, strconv.Itoa(pl.TrackCount), shared.PlaylistURL(pl.ID)}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}
