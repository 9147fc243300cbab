package tasks

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playlistify/internal/models"
	"github.com/desertthunder/playlistify/internal/services"
	"github.com/desertthunder/playlistify/internal/shared"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// UnknownGenre is the primary genre of tracks whose artist has none.
const UnknownGenre = "Unknown"

var releaseDateLayouts = []string{"2006-01-02", "2006-01", "2006"}

// Sort copies the first playlist in the order given by criterion.
//
// The new playlist is named "<name> (Sorted by <Criterion>)" where name is options.name or the source's name.
func (e *PlaylistEngine) Sort(ctx context.Context, progress chan<- ProgressUpdate, playlists []models.PlaylistRef, c models.Criterion, opts models.PlaylistOptions) (*models.Playlist, error) {
	src, tracks, err := e.fetchSource(ctx, progress, playlists)
	if err != nil {
		return nil, err
	}

	logger := shared.WithLogger(e.logger, "function", models.FunctionSort, "playlist", src.ID, "criterion", c)

	if c == models.CriterionGenre {
		if tracks, err = e.enrichGenres(ctx, progress, logger, tracks); err != nil {
			return nil, err
		}
	}

	e.sendProgress(progress, reorderUpdate(c, len(tracks)))
	sorted := SortTracks(tracks, c)

	np := services.NewPlaylist{
		Name:        fmt.Sprintf("%s (Sorted by %s)", opts.NameOr(src.Name), c.Display()),
		Description: fmt.Sprintf("Sorted with Playlistify by %s", c.Display()),
		Public:      opts.IsPublic(),
	}
	playlist, err := e.newWriter(progress, logger).CreateAndFill(ctx, np, models.URIs(sorted), opts.Shuffle)
	if err != nil {
		return nil, err
	}

	logger.Info("sorted playlist", "tracks", playlist.TrackCount)
	return playlist, nil
}

// SortTracks returns a stably sorted copy of tracks.
func SortTracks(tracks []models.Track, c models.Criterion) []models.Track {
	sorted := slices.Clone(tracks)
	slices.SortStableFunc(sorted, comparatorFor(c))
	return sorted
}

// comparatorFor returns the ordering for a criterion. Text is compared with a collator so case and accents
// order the way a listener expects.
func comparatorFor(c models.Criterion) func(a, b models.Track) int {
	col := collate.New(language.English)

	switch c {
	case models.CriterionArtist, models.CriterionLanguage:
		return func(a, b models.Track) int {
			return col.CompareString(artistKey(a), artistKey(b))
		}
	case models.CriterionGenre:
		return func(a, b models.Track) int {
			return col.CompareString(a.PrimaryGenre(UnknownGenre), b.PrimaryGenre(UnknownGenre))
		}
	case models.CriterionPopularity:
		return func(a, b models.Track) int {
			return cmp.Compare(b.Popularity, a.Popularity)
		}
	case models.CriterionDate:
		return compareReleaseDesc
	default:
		return func(a, b models.Track) int {
			return col.CompareString(a.Name, b.Name)
		}
	}
}

func artistKey(t models.Track) string {
	if t.Artist != "" {
		return t.Artist
	}
	return t.ArtistID
}

// compareReleaseDesc orders newest first with undated tracks last.
func compareReleaseDesc(a, b models.Track) int {
	da, okA := parseReleaseDate(a.ReleaseDate)
	db, okB := parseReleaseDate(b.ReleaseDate)
	switch {
	case !okA && !okB:
		return 0
	case !okA:
		return 1
	case !okB:
		return -1
	default:
		return db.Compare(da)
	}
}

func parseReleaseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range releaseDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// enrichGenres attaches artist genres to each track, looking artists up in batches of up to 50 ids.
//
// Batches run concurrently. A batch that fails leaves its artists without genres so their tracks sort as
// [UnknownGenre].
func (e *PlaylistEngine) enrichGenres(ctx context.Context, progress chan<- ProgressUpdate, logger *log.Logger, tracks []models.Track) ([]models.Track, error) {
	ids := distinctArtistIDs(tracks)
	if len(ids) == 0 {
		return tracks, nil
	}

	size := e.limits.ArtistBatchSize
	batches := slices.Collect(slices.Chunk(ids, size))

	var mu sync.Mutex
	genres := make(map[string][]string, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.limits.ArtistConcurrency)
	for i, batch := range batches {
		g.Go(func() error {
			e.sendProgress(progress, enrichArtistsUpdate(i+1, len(batches)))

			artists, err := e.spotify.SeveralArtists(gctx, batch)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				logger.Warn("artist lookup failed", "batch", i+1, "ids", len(batch), "error", err)
				return nil
			}

			mu.Lock()
			defer mu.Unlock()
			for _, a := range artists {
				genres[a.ID] = a.Genres
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	enriched := make([]models.Track, len(tracks))
	for i, t := range tracks {
		enriched[i] = t.WithGenres(genres[t.ArtistID])
	}
	return enriched, nil
}

func distinctArtistIDs(tracks []models.Track) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, t := range tracks {
		if t.ArtistID == "" || seen[t.ArtistID] {
			continue
		}
		seen[t.ArtistID] = true
		ids = append(ids, t.ArtistID)
	}
	return ids
}
