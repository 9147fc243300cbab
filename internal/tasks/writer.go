package tasks

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playlistify/internal/models"
	"github.com/desertthunder/playlistify/internal/services"
	"github.com/desertthunder/playlistify/internal/shared"
)

// playlistWriter creates destination playlists and fills them in paced batches.
//
// One writer lives for one operation and caches the current user's id across the playlists it creates.
type playlistWriter struct {
	engine   *PlaylistEngine
	progress chan<- ProgressUpdate
	logger   *log.Logger
	userID   string
}

func (e *PlaylistEngine) newWriter(progress chan<- ProgressUpdate, logger *log.Logger) *playlistWriter {
	return &playlistWriter{engine: e, progress: progress, logger: logger}
}

func (w *playlistWriter) currentUser(ctx context.Context) (string, error) {
	if w.userID != "" {
		return w.userID, nil
	}
	user, err := w.engine.spotify.CurrentUser(ctx)
	if err != nil {
		return "", err
	}
	w.userID = user.ID
	return w.userID, nil
}

// CreateAndFill creates a playlist and appends uris to it.
//
// Local and empty URIs must already be filtered out. When shuffle is set the URIs are shuffled on a copy just
// before writing. The first failing batch aborts with a [*shared.WriteError]; the partially filled playlist is
// unfollowed first if rollback_partial_writes is enabled.
func (w *playlistWriter) CreateAndFill(ctx context.Context, np services.NewPlaylist, uris []string, shuffle bool) (*models.Playlist, error) {
	e := w.engine

	userID, err := w.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	created, err := e.spotify.CreatePlaylist(ctx, userID, np)
	if err != nil {
		return nil, err
	}

	playlist := &models.Playlist{Name: np.Name, ID: created.ID, TrackCount: len(uris)}
	e.sendProgress(w.progress, createPlaylistUpdate(1, 1, playlist))

	uris = append([]string(nil), uris...)
	if shuffle {
		e.shuffle(uris)
	}

	size := e.limits.WriteBatchSize
	batches := (len(uris) + size - 1) / size
	for i := 0; i < len(uris); i += size {
		if i > 0 {
			if err := e.sleep(ctx, e.limits.WritePacing.Duration); err != nil {
				return nil, err
			}
		}

		batch := uris[i:min(i+size, len(uris))]
		e.sendProgress(w.progress, writeBatchUpdate(i/size+1, batches, np.Name))
		w.logger.Debug("adding batch", "playlist", created.ID, "offset", i, "size", len(batch))

		if err := e.spotify.AddTracks(ctx, created.ID, batch); err != nil {
			werr := &shared.WriteError{PlaylistID: created.ID, Offset: i, Written: i, Err: err}
			if e.limits.RollbackPartialWrites {
				w.rollback(ctx, created.ID)
			}
			return nil, werr
		}
	}

	w.logger.Info("playlist written", "playlist", created.ID, "name", np.Name, "tracks", len(uris))
	return playlist, nil
}

func (w *playlistWriter) rollback(ctx context.Context, playlistID string) {
	if err := w.engine.spotify.UnfollowPlaylist(ctx, playlistID); err != nil {
		w.logger.Error("rollback failed, partial playlist left behind", "playlist", playlistID, "error", err)
		return
	}
	w.logger.Warn("rolled back partially written playlist", "playlist", playlistID)
}
