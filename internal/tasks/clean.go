package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playlistify/internal/models"
	"github.com/desertthunder/playlistify/internal/services"
	"github.com/desertthunder/playlistify/internal/shared"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// CleanDescription is set on every playlist produced by [PlaylistEngine.Clean].
const CleanDescription = "Clean version created with Playlistify"

// cleanCache remembers search outcomes for one clean run, keyed by "name-artist". An empty URI is a cached miss.
type cleanCache struct {
	mu      sync.Mutex
	entries map[string]string
	group   singleflight.Group
}

func newCleanCache() *cleanCache {
	return &cleanCache{entries: map[string]string{}}
}

func (c *cleanCache) get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	uri, ok := c.entries[key]
	return uri, ok
}

func (c *cleanCache) set(key, uri string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = uri
}

// cleanStats counts what happened to each source track.
type cleanStats struct {
	explicit int
	replaced int
	dropped  int
	local    int
}

// cleanResolver resolves explicit tracks to clean versions for one operation.
type cleanResolver struct {
	engine   *PlaylistEngine
	queue    *services.RequestQueue
	cache    *cleanCache
	logger   *log.Logger
	progress chan<- ProgressUpdate
}

// Clean copies the first playlist, replacing explicit tracks with non-explicit equivalents.
//
// Explicit tracks without an acceptable match are dropped rather than failing the operation.
func (e *PlaylistEngine) Clean(ctx context.Context, progress chan<- ProgressUpdate, playlists []models.PlaylistRef, opts models.PlaylistOptions) (*models.CleanResult, error) {
	src, tracks, err := e.fetchSource(ctx, progress, playlists)
	if err != nil {
		return nil, err
	}

	logger := shared.WithLogger(e.logger, "function", models.FunctionClean, "playlist", src.ID)
	r := &cleanResolver{
		engine:   e,
		queue:    services.NewRequestQueue(e.limits.QueueDelay.Duration, logger),
		cache:    newCleanCache(),
		logger:   logger,
		progress: progress,
	}

	uris, stats, err := r.resolve(ctx, tracks)
	if err != nil {
		return nil, err
	}
	if len(uris) == 0 {
		return nil, fmt.Errorf("%w in %s", shared.ErrNoCleanTracks, displayName(src))
	}

	np := services.NewPlaylist{
		Name:        opts.NameOr(src.Name + " (Clean)"),
		Description: CleanDescription,
		Public:      opts.IsPublic(),
	}
	playlist, err := e.newWriter(progress, logger).CreateAndFill(ctx, np, uris, opts.Shuffle)
	if err != nil {
		return nil, err
	}

	logger.Info("cleaned playlist", "explicit", stats.explicit, "replaced", stats.replaced, "dropped", stats.dropped, "local", stats.local)
	return &models.CleanResult{
		Playlist:      *playlist,
		ExplicitCount: stats.explicit,
		Replaced:      stats.replaced,
		Dropped:       stats.dropped,
		LocalSkipped:  stats.local,
	}, nil
}

// ResolveCleanVersions returns the URIs to write for tracks: non-explicit tracks as-is, explicit tracks replaced
// by their clean version, local and unresolved tracks left out. Source order is preserved.
func (e *PlaylistEngine) ResolveCleanVersions(ctx context.Context, tracks []models.Track) ([]string, error) {
	r := &cleanResolver{
		engine: e,
		queue:  services.NewRequestQueue(e.limits.QueueDelay.Duration, e.logger),
		cache:  newCleanCache(),
		logger: e.logger,
	}
	uris, _, err := r.resolve(ctx, tracks)
	return uris, err
}

// resolve walks tracks in fixed-size batches. Lookups within a batch run concurrently; batches are separated
// by the configured pause.
func (r *cleanResolver) resolve(ctx context.Context, tracks []models.Track) ([]string, cleanStats, error) {
	e := r.engine
	size := e.limits.CleanBatchSize
	batches := (len(tracks) + size - 1) / size

	var stats cleanStats
	uris := make([]string, 0, len(tracks))

	for start := 0; start < len(tracks); start += size {
		batch := tracks[start:min(start+size, len(tracks))]
		results := make([]string, len(batch))

		g, gctx := errgroup.WithContext(ctx)
		for i, t := range batch {
			switch {
			case t.IsLocal:
				stats.local++
			case !t.Explicit:
				results[i] = t.URI
			default:
				stats.explicit++
				g.Go(func() error {
					uri, err := r.lookup(gctx, t)
					results[i] = uri
					return err
				})
			}
		}
		if err := g.Wait(); err != nil {
			return nil, stats, err
		}

		for i, t := range batch {
			if t.IsLocal {
				continue
			}
			if results[i] == "" {
				stats.dropped++
				continue
			}
			if t.Explicit {
				stats.replaced++
			}
			uris = append(uris, results[i])
		}

		step := start/size + 1
		e.sendProgress(r.progress, resolveBatchUpdate(step, batches, len(uris)))

		if start+size < len(tracks) {
			if err := e.sleep(ctx, e.limits.CleanBatchPause.Duration); err != nil {
				return nil, stats, err
			}
		}
	}

	return uris, stats, nil
}

// lookup returns the clean URI for an explicit track, or "" when none matches.
//
// Concurrent lookups of the same key share one search. Search failures other than cancellation are treated as
// a miss.
func (r *cleanResolver) lookup(ctx context.Context, t models.Track) (string, error) {
	key := t.Name + "-" + t.Artist
	if uri, ok := r.cache.get(key); ok {
		return uri, nil
	}

	v, err, _ := r.cache.group.Do(key, func() (any, error) {
		if uri, ok := r.cache.get(key); ok {
			return uri, nil
		}

		uri, err := services.Enqueue(ctx, r.queue, func(ctx context.Context) (string, error) {
			return r.search(ctx, t)
		})
		if err != nil {
			return "", err
		}
		r.cache.set(key, uri)
		return uri, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (r *cleanResolver) search(ctx context.Context, t models.Track) (string, error) {
	query := fmt.Sprintf(`track:"%s" artist:"%s"`, t.Name, t.Artist)
	results, err := r.engine.spotify.SearchTracks(ctx, query, r.engine.limits.SearchLimit)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil || errors.Is(err, context.Canceled) {
			return "", err
		}
		r.logger.Warn("search failed, dropping track", "track", t.Name, "artist", t.Artist, "error", err)
		return "", nil
	}

	match, ok := MatchCleanVersion(t, results)
	if !ok {
		r.logger.Debug("no clean version", "track", t.Name, "artist", t.Artist, "candidates", len(results))
		return "", nil
	}
	return match.URI, nil
}

// MatchCleanVersion picks the first non-explicit candidate by descending match strength:
// exact title and artist, then similar title with an exact artist, then similar title and artist.
func MatchCleanVersion(t models.Track, candidates []models.Track) (models.Track, bool) {
	tiers := []func(c models.Track) bool{
		func(c models.Track) bool { return c.Name == t.Name && hasArtist(c, t.Artist, false) },
		func(c models.Track) bool { return IsSimilar(c.Name, t.Name) && hasArtist(c, t.Artist, false) },
		func(c models.Track) bool { return IsSimilar(c.Name, t.Name) && hasArtist(c, t.Artist, true) },
	}

	for _, matches := range tiers {
		for _, c := range candidates {
			if !c.Explicit && !c.IsLocal && c.URI != "" && matches(c) {
				return c, true
			}
		}
	}
	return models.Track{}, false
}

func hasArtist(c models.Track, artist string, fuzzy bool) bool {
	for _, name := range c.ArtistNames() {
		if name == artist || (fuzzy && IsSimilar(name, artist)) {
			return true
		}
	}
	return false
}
