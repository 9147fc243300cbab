// package services defines interface Service for the Spotify Web API calls the transformation engine makes
package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playlistify/internal/models"
	"github.com/desertthunder/playlistify/internal/shared"
	"golang.org/x/oauth2"
)

// Service is the slice of the Spotify Web API that merge, clean, sort and split depend on.
type Service interface {
	// FetchAllTracks returns every non-null item of a playlist in source order.
	FetchAllTracks(ctx context.Context, playlistID string) ([]models.Track, error)

	// CurrentUser returns the profile of the token's owner.
	CurrentUser(ctx context.Context) (*SpotifyUser, error)

	// CreatePlaylist creates an empty playlist for userID.
	CreatePlaylist(ctx context.Context, userID string, p NewPlaylist) (*SpotifySimplePlaylist, error)

	// AddTracks appends at most [MaxAddBatch] URIs to a playlist.
	AddTracks(ctx context.Context, playlistID string, uris []string) error

	// UnfollowPlaylist removes a playlist from the user's library.
	UnfollowPlaylist(ctx context.Context, playlistID string) error

	// SearchTracks runs a track search query.
	SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error)

	// Artist looks up one artist.
	Artist(ctx context.Context, artistID string) (*SpotifyArtist, error)

	// SeveralArtists looks up at most [MaxArtistBatch] artists.
	SeveralArtists(ctx context.Context, artistIDs []string) ([]SpotifyArtist, error)
}

// NewPlaylist describes a playlist to create.
type NewPlaylist struct {
	Name        string
	Description string
	Public      bool
}

// NewHTTPClient returns an [http.Client] that attaches the bearer token to every request.
//
// The token is used as-is; it is never refreshed, so an expired token surfaces as HTTP 401.
func NewHTTPClient(ctx context.Context, accessToken string) (*http.Client, error) {
	accessToken = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(accessToken), "Bearer "))
	if accessToken == "" {
		return nil, fmt.Errorf("%w: spotify access token", shared.ErrMissingCredentials)
	}

	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	return oauth2.NewClient(ctx, src), nil
}

// NewSpotifyService wires a [SpotifyClient] for one bearer token using the retry settings in cfg.
//
// The returned [http.Client] shares the client's [Retrier] so other callers get the same backoff and 429 handling.
func NewSpotifyService(ctx context.Context, cfg *shared.Config, accessToken string, logger *log.Logger) (*SpotifyClient, *http.Client, error) {
	httpClient, err := NewHTTPClient(ctx, accessToken)
	if err != nil {
		return nil, nil, err
	}

	retrier := NewRetrier(httpClient, cfg.Retry, shared.WithLogger(logger, "component", "retry"))
	return NewSpotifyClient(cfg.Spotify.APIURL, retrier, logger), retrier.HTTPClient(), nil
}
