package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/playlistify/internal/models"
	"github.com/desertthunder/playlistify/internal/shared"
	"github.com/zmb3/spotify/v2"
)

// PlaylistResolver turns share links, spotify URIs and bare ids into [models.PlaylistRef] values.
type PlaylistResolver struct {
	client *spotify.Client
}

// NewPlaylistResolver creates a resolver using an authenticated httpClient against baseURL.
//
// Pass a client from [Retrier.HTTPClient] so lookups are retried like every other request.
func NewPlaylistResolver(httpClient *http.Client, baseURL string) *PlaylistResolver {
	if baseURL == "" {
		baseURL = spotifyBaseURL
	}
	client := spotify.New(httpClient, spotify.WithBaseURL(strings.TrimSuffix(baseURL, "/")+"/"))
	return &PlaylistResolver{client: client}
}

// Resolve looks up the playlist a link points at.
func (r *PlaylistResolver) Resolve(ctx context.Context, link string) (models.PlaylistRef, error) {
	id, err := shared.ExtractPlaylistID(link)
	if err != nil {
		return models.PlaylistRef{}, err
	}

	playlist, err := r.client.GetPlaylist(ctx, spotify.ID(id), spotify.Fields("id,name"))
	if err != nil {
		var se spotify.Error
		if errors.As(err, &se) {
			if se.Status == http.StatusNotFound {
				return models.PlaylistRef{}, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)
			}
			return models.PlaylistRef{}, fmt.Errorf("failed to get playlist: %w", &shared.APIError{Status: se.Status, Message: se.Message})
		}
		return models.PlaylistRef{}, fmt.Errorf("failed to get playlist: %w", err)
	}

	return models.PlaylistRef{ID: string(playlist.ID), Name: playlist.Name}, nil
}

// ResolveAll resolves each link in order.
func (r *PlaylistResolver) ResolveAll(ctx context.Context, links []string) ([]models.PlaylistRef, error) {
	refs := make([]models.PlaylistRef, 0, len(links))
	for _, link := range links {
		ref, err := r.Resolve(ctx, link)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}
