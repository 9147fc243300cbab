package tasks

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playlistify/internal/models"
	"github.com/desertthunder/playlistify/internal/services"
	"github.com/desertthunder/playlistify/internal/shared"
	"golang.org/x/sync/errgroup"
)

// Bucket names produced by [PlaylistEngine.Split] outside of the artist and genre values themselves.
const (
	BucketUnknownArtist   = models.UnknownArtist
	BucketUnknownGenre    = "Unknown Genre"
	BucketUnknownLanguage = "Unknown Language"
	BucketUnknownYear     = "Unknown Year"
	BucketUnsorted        = "Unsorted"

	BucketSpanish      = "Spanish"
	BucketKorean       = "Korean"
	BucketJapanese     = "Japanese"
	BucketEnglishOther = "English/Other"
)

// popularityBands are checked top-down; the first band whose floor is reached wins.
var popularityBands = []struct {
	floor int
	name  string
}{
	{80, "Very Popular (80-100)"},
	{60, "Popular (60-79)"},
	{40, "Moderate (40-59)"},
	{20, "Less Popular (20-39)"},
	{0, "Rare (0-19)"},
}

// bucketKey derives the bucket a track belongs to.
type bucketKey func(t models.Track) string

// artistInfo holds the outcome of one artist lookup. found is false when the API reported an error status.
type artistInfo struct {
	genres []string
	found  bool
}

// Split groups the first playlist's tracks by criterion and writes each qualifying bucket to its own playlist.
//
// Buckets for unknown genres or languages are discarded, as are buckets smaller than min_bucket_size.
func (e *PlaylistEngine) Split(ctx context.Context, progress chan<- ProgressUpdate, playlists []models.PlaylistRef, c models.Criterion, opts models.PlaylistOptions) (*models.SplitResult, error) {
	src, tracks, err := e.fetchSource(ctx, progress, playlists)
	if err != nil {
		return nil, err
	}

	logger := shared.WithLogger(e.logger, "function", models.FunctionSplit, "playlist", src.ID, "criterion", c)

	writable := make([]models.Track, 0, len(tracks))
	for _, t := range tracks {
		if t.Writable() {
			writable = append(writable, t)
		}
	}

	key, err := e.bucketKeyFor(ctx, progress, logger, c, writable)
	if err != nil {
		return nil, err
	}

	buckets := GroupTracks(writable, key)
	kept := FilterBuckets(buckets, e.limits.MinBucketSize)
	e.sendProgress(progress, groupUpdate(buckets, len(kept)))

	if len(kept) == 0 {
		return nil, fmt.Errorf("%w: all groups had fewer than %d tracks or were unknown categories", shared.ErrNoPlaylistsCreated, e.limits.MinBucketSize)
	}

	base := opts.NameOr(src.Name)
	writer := e.newWriter(progress, logger)
	result := &models.SplitResult{OriginalPlaylist: src.Name}

	for _, b := range kept {
		np := services.NewPlaylist{
			Name:        fmt.Sprintf("%s - %s", base, b.Name),
			Description: fmt.Sprintf("Split from %s by %s", src.Name, b.Name),
			Public:      opts.IsPublic(),
		}
		playlist, err := writer.CreateAndFill(ctx, np, models.URIs(b.Tracks), opts.Shuffle)
		if err != nil {
			return nil, err
		}
		result.NewPlaylists = append(result.NewPlaylists, *playlist)
	}

	result.SplitCount = len(result.NewPlaylists)
	logger.Info("split playlist", "buckets", len(buckets), "created", result.SplitCount)
	return result, nil
}

// GroupTracks buckets tracks by key. Buckets appear in the order their first track was seen and keep source order.
func GroupTracks(tracks []models.Track, key bucketKey) []models.Bucket {
	index := map[string]int{}
	var buckets []models.Bucket

	for _, t := range tracks {
		name := key(t)
		i, ok := index[name]
		if !ok {
			i = len(buckets)
			index[name] = i
			buckets = append(buckets, models.Bucket{Name: name})
		}
		buckets[i].Tracks = append(buckets[i].Tracks, t)
	}

	return buckets
}

// FilterBuckets drops unknown genre/language buckets and buckets with fewer than minSize tracks.
func FilterBuckets(buckets []models.Bucket, minSize int) []models.Bucket {
	var kept []models.Bucket
	for _, b := range buckets {
		if b.Name == BucketUnknownGenre || b.Name == BucketUnknownLanguage {
			continue
		}
		if len(b.Tracks) < minSize {
			continue
		}
		kept = append(kept, b)
	}
	return kept
}

// bucketKeyFor returns the key function for c, performing the artist lookups genre and language need first.
func (e *PlaylistEngine) bucketKeyFor(ctx context.Context, progress chan<- ProgressUpdate, logger *log.Logger, c models.Criterion, tracks []models.Track) (bucketKey, error) {
	switch c {
	case models.CriterionArtist:
		return ArtistBucket, nil
	case models.CriterionPopularity:
		return PopularityBucket, nil
	case models.CriterionDate:
		return DecadeBucket, nil
	case models.CriterionGenre, models.CriterionLanguage:
		artists, err := e.lookupArtists(ctx, progress, logger, distinctArtistIDs(tracks))
		if err != nil {
			return nil, err
		}
		if c == models.CriterionGenre {
			return func(t models.Track) string { return genreBucket(artists[t.ArtistID]) }, nil
		}
		return func(t models.Track) string { return languageBucket(artists[t.ArtistID]) }, nil
	default:
		return func(models.Track) string { return BucketUnsorted }, nil
	}
}

// ArtistBucket groups by primary artist name.
func ArtistBucket(t models.Track) string {
	if t.Artist == "" {
		return BucketUnknownArtist
	}
	return t.Artist
}

// PopularityBucket places a track in one of five fixed popularity bands.
func PopularityBucket(t models.Track) string {
	for _, band := range popularityBands {
		if t.Popularity >= band.floor {
			return band.name
		}
	}
	return popularityBands[len(popularityBands)-1].name
}

// DecadeBucket groups by release decade, e.g. "1990s".
func DecadeBucket(t models.Track) string {
	year, _, _ := strings.Cut(strings.TrimSpace(t.ReleaseDate), "-")
	y, err := strconv.Atoi(year)
	if err != nil {
		return BucketUnknownYear
	}
	return fmt.Sprintf("%ds", y/10*10)
}

func genreBucket(a artistInfo) string {
	if !a.found || len(a.genres) == 0 || a.genres[0] == "" {
		return BucketUnknownGenre
	}
	return a.genres[0]
}

// languageBucket approximates a language from genre tags. It is a substring heuristic, not language detection.
func languageBucket(a artistInfo) string {
	if !a.found {
		return BucketUnknownLanguage
	}
	anyGenre := func(subs ...string) bool {
		for _, g := range a.genres {
			for _, s := range subs {
				if strings.Contains(g, s) {
					return true
				}
			}
		}
		return false
	}

	switch {
	case anyGenre("latin", "spanish"):
		return BucketSpanish
	case anyGenre("k-pop"):
		return BucketKorean
	case anyGenre("j-pop"):
		return BucketJapanese
	default:
		return BucketEnglishOther
	}
}

// lookupArtists fetches each distinct artist once through the single-artist endpoint.
//
// An error status from the API marks the artist as not found; transport failures and cancellation abort.
func (e *PlaylistEngine) lookupArtists(ctx context.Context, progress chan<- ProgressUpdate, logger *log.Logger, ids []string) (map[string]artistInfo, error) {
	var mu sync.Mutex
	artists := make(map[string]artistInfo, len(ids))
	done := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.limits.ArtistConcurrency)
	for _, id := range ids {
		g.Go(func() error {
			artist, err := e.spotify.Artist(gctx, id)
			info := artistInfo{}
			switch {
			case err == nil:
				info = artistInfo{genres: artist.Genres, found: true}
			case errors.Is(err, shared.ErrRequestFailed):
				return err
			case errors.Is(err, shared.ErrAPIRequest):
				logger.Warn("artist lookup failed", "artist", id, "status", shared.StatusOf(err))
			default:
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			artists[id] = info
			done++
			e.sendProgress(progress, enrichArtistsUpdate(done, len(ids)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return artists, nil
}
