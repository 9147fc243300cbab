package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/playlistify/internal/models"
	"github.com/desertthunder/playlistify/internal/services"
	"github.com/desertthunder/playlistify/internal/shared"
)

// DefaultMergeName is used when the caller does not name the merged playlist.
const DefaultMergeName = "Merged Playlist"

// Merge concatenates every playlist's tracks in input order and writes them to one new playlist.
//
// Duplicates are kept. Local tracks are skipped since they cannot be added through the API.
func (e *PlaylistEngine) Merge(ctx context.Context, progress chan<- ProgressUpdate, playlists []models.PlaylistRef, opts models.PlaylistOptions) (*models.MergeResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if len(playlists) < 2 {
		return nil, fmt.Errorf("%w: select at least two playlists to merge", shared.ErrInvalidInput)
	}

	logger := shared.WithLogger(e.logger, "function", models.FunctionMerge)

	var uris []string
	sources := make([]string, 0, len(playlists))
	for i, ref := range playlists {
		e.sendProgress(progress, fetchTracksUpdate(i+1, len(playlists), ref))

		tracks, err := e.spotify.FetchAllTracks(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		uris = append(uris, models.URIs(tracks)...)
		sources = append(sources, displayName(ref))

		e.sendProgress(progress, fetchedTracksUpdate(i+1, len(playlists), ref, len(tracks)))
		logger.Debug("collected tracks", "playlist", ref.ID, "tracks", len(tracks))
	}

	if len(uris) == 0 {
		return nil, fmt.Errorf("%w: the selected playlists have no tracks to merge", shared.ErrInvalidInput)
	}

	np := services.NewPlaylist{
		Name:        opts.NameOr(DefaultMergeName),
		Description: fmt.Sprintf("Merged with Playlistify from %d playlists", len(playlists)),
		Public:      opts.IsPublic(),
	}
	playlist, err := e.newWriter(progress, logger).CreateAndFill(ctx, np, uris, opts.Shuffle)
	if err != nil {
		return nil, err
	}

	logger.Info("merged playlists", "sources", len(playlists), "tracks", playlist.TrackCount)
	return &models.MergeResult{Playlist: *playlist, Sources: sources}, nil
}
