// package tasks implements the playlist transformation engine.
//
// The core abstraction is Transformer, which merges, cleans, sorts and splits playlists and writes the results
// back as new playlists. Operations emit progress updates via channels for non-blocking status reporting to
// CLI/server layers.
package tasks

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playlistify/internal/models"
	"github.com/desertthunder/playlistify/internal/services"
	"github.com/desertthunder/playlistify/internal/shared"
)

// Transformer defines the four playlist transformations and the dispatcher in front of them.
type Transformer interface {
	// Merge concatenates the tracks of every playlist, in order, into one new playlist.
	Merge(ctx context.Context, progress chan<- ProgressUpdate, playlists []models.PlaylistRef, opts models.PlaylistOptions) (*models.MergeResult, error)

	// Clean writes a copy of the first playlist with explicit tracks swapped for clean versions.
	Clean(ctx context.Context, progress chan<- ProgressUpdate, playlists []models.PlaylistRef, opts models.PlaylistOptions) (*models.CleanResult, error)

	// Sort writes a copy of the first playlist ordered by criterion.
	Sort(ctx context.Context, progress chan<- ProgressUpdate, playlists []models.PlaylistRef, c models.Criterion, opts models.PlaylistOptions) (*models.Playlist, error)

	// Split writes one playlist per qualifying bucket of the first playlist.
	Split(ctx context.Context, progress chan<- ProgressUpdate, playlists []models.PlaylistRef, c models.Criterion, opts models.PlaylistOptions) (*models.SplitResult, error)

	// Dispatch routes a request to one of the transformations.
	Dispatch(ctx context.Context, progress chan<- ProgressUpdate, req models.Request) (any, error)
}

// LinkResolver turns an external playlist link into a reference.
type LinkResolver interface {
	Resolve(ctx context.Context, link string) (models.PlaylistRef, error)
}

// PlaylistEngine implements Transformer against a single user's [services.Service].
type PlaylistEngine struct {
	spotify  services.Service
	resolver LinkResolver
	limits   shared.LimitsConfig
	logger   *log.Logger
	sleep    services.Sleeper
	shuffle  func([]string)
}

// Option configures a [PlaylistEngine].
type Option func(*PlaylistEngine)

// WithLogger sets the engine's logger.
func WithLogger(l *log.Logger) Option {
	return func(e *PlaylistEngine) { e.logger = l }
}

// WithResolver enables external playlist links in [PlaylistEngine.Dispatch].
func WithResolver(r LinkResolver) Option {
	return func(e *PlaylistEngine) { e.resolver = r }
}

// WithSleeper replaces the pacing wait used between batches.
func WithSleeper(s services.Sleeper) Option {
	return func(e *PlaylistEngine) { e.sleep = s }
}

// WithShuffler replaces the in-place shuffle applied when options.shuffle is set.
func WithShuffler(fn func([]string)) Option {
	return func(e *PlaylistEngine) { e.shuffle = fn }
}

// NewPlaylistEngine creates a new PlaylistEngine with the provided service and limits.
func NewPlaylistEngine(spotify services.Service, limits shared.LimitsConfig, opts ...Option) *PlaylistEngine {
	e := &PlaylistEngine{
		spotify: spotify,
		limits:  withLimitDefaults(limits),
		logger:  shared.NewLogger(io.Discard),
		sleep:   services.SleepWithContext,
		shuffle: Shuffle,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// withLimitDefaults fills unset limits from the default config. A zero LimitsConfig means "use every default",
// including pacing; otherwise zero delays are kept so callers can turn pacing off.
func withLimitDefaults(l shared.LimitsConfig) shared.LimitsConfig {
	d := shared.DefaultConfig().Limits
	if l == (shared.LimitsConfig{}) {
		return d
	}
	if l.SearchLimit <= 0 {
		l.SearchLimit = d.SearchLimit
	}
	if l.CleanBatchSize <= 0 {
		l.CleanBatchSize = d.CleanBatchSize
	}
	if l.ArtistBatchSize <= 0 || l.ArtistBatchSize > services.MaxArtistBatch {
		l.ArtistBatchSize = d.ArtistBatchSize
	}
	if l.ArtistConcurrency <= 0 {
		l.ArtistConcurrency = d.ArtistConcurrency
	}
	if l.WriteBatchSize <= 0 || l.WriteBatchSize > services.MaxAddBatch {
		l.WriteBatchSize = d.WriteBatchSize
	}
	if l.MinBucketSize <= 0 {
		l.MinBucketSize = d.MinBucketSize
	}
	return l
}

// Shuffle performs an in-place Fisher–Yates shuffle.
func Shuffle(uris []string) {
	for i := len(uris) - 1; i > 0; i-- {
		j := rand.IntN(i + 1)
		uris[i], uris[j] = uris[j], uris[i]
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *PlaylistEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func (e *PlaylistEngine) ready() error {
	if e.spotify == nil {
		return fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}
	return nil
}

// fetchSource loads the first selected playlist, which is what clean, sort and split operate on.
func (e *PlaylistEngine) fetchSource(ctx context.Context, progress chan<- ProgressUpdate, playlists []models.PlaylistRef) (models.PlaylistRef, []models.Track, error) {
	if err := e.ready(); err != nil {
		return models.PlaylistRef{}, nil, err
	}
	if len(playlists) == 0 {
		return models.PlaylistRef{}, nil, fmt.Errorf("%w: no playlists selected", shared.ErrInvalidInput)
	}

	src := playlists[0]
	if len(playlists) > 1 {
		e.logger.Warn("only the first playlist is used", "playlist", src.ID, "ignored", len(playlists)-1)
	}

	e.sendProgress(progress, fetchTracksUpdate(1, 1, src))
	tracks, err := e.spotify.FetchAllTracks(ctx, src.ID)
	if err != nil {
		return src, nil, err
	}
	if len(tracks) == 0 {
		return src, nil, fmt.Errorf("%w: no tracks found in the playlist %s", shared.ErrInvalidInput, displayName(src))
	}
	e.sendProgress(progress, fetchedTracksUpdate(1, 1, src, len(tracks)))

	return src, tracks, nil
}
