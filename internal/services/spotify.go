// Spotify Web API client used by the transformation engine
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playlistify/internal/models"
	"github.com/desertthunder/playlistify/internal/shared"
)

const (
	spotifyBaseURL = "https://api.spotify.com/v1"

	// PageSize is the playlist-items page size requested by [SpotifyClient.FetchAllTracks].
	PageSize = 100
	// MaxAddBatch is the most URIs the add-items endpoint accepts per call.
	MaxAddBatch = 100
	// MaxArtistBatch is the most ids the several-artists endpoint accepts per call.
	MaxArtistBatch = 50
)

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// SpotifyArtist represents a Spotify artist. Genres is only populated by the artist endpoints.
type SpotifyArtist struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Genres []string `json:"genres"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ReleaseDate string `json:"release_date"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	Explicit   bool            `json:"explicit"`
	IsLocal    bool            `json:"is_local"`
	Popularity int             `json:"popularity"`
	URI        string          `json:"uri"`
}

// SpotifyPlaylistTrack represents a track within a playlist context. Track is null for removed or unavailable items.
type SpotifyPlaylistTrack struct {
	AddedAt string        `json:"added_at"`
	Track   *SpotifyTrack `json:"track"`
}

// SpotifyPlaylistTracksPage represents one page of playlist items.
//
// Items is a pointer so a payload without the array can be told apart from an empty page.
type SpotifyPlaylistTracksPage struct {
	Items  *[]SpotifyPlaylistTrack `json:"items"`
	Total  int                     `json:"total"`
	Limit  int                     `json:"limit"`
	Offset int                     `json:"offset"`
	Next   *string                 `json:"next"`
}

// SpotifySimplePlaylist represents a simplified playlist object.
type SpotifySimplePlaylist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Public      bool   `json:"public"`
	URI         string `json:"uri"`
}

type createPlaylistBody struct {
	Name        string `json:"name"`
	Public      bool   `json:"public"`
	Description string `json:"description"`
}

type addTracksBody struct {
	URIs []string `json:"uris"`
}

type errorEnvelope struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

// SpotifyClient implements [Service] over the Spotify Web API.
//
// Every request goes through a [Retrier]. The client carries no per-user state beyond the authenticated
// [http.Client] inside that retrier, so one instance serves exactly one bearer token.
type SpotifyClient struct {
	baseURL string
	retrier *Retrier
	logger  *log.Logger
}

// NewSpotifyClient creates a client rooted at baseURL (defaults to the public API).
func NewSpotifyClient(baseURL string, retrier *Retrier, logger *log.Logger) *SpotifyClient {
	if baseURL == "" {
		baseURL = spotifyBaseURL
	}
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	if retrier == nil {
		retrier = NewRetrier(nil, shared.RetryConfig{}, logger)
	}
	return &SpotifyClient{baseURL: strings.TrimSuffix(baseURL, "/"), retrier: retrier, logger: logger}
}

func (s *SpotifyClient) resolve(endpoint string) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	return s.baseURL + endpoint
}

// doRequest performs a retried request and decodes a JSON response into result when non-nil.
//
// Non-2xx responses become a [*shared.APIError].
func (s *SpotifyClient) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.resolve(endpoint), reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.retrier.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &shared.APIError{Status: resp.StatusCode}

	var env errorEnvelope
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err := json.Unmarshal(data, &env); err == nil && env.Error.Message != "" {
		apiErr.Message = env.Error.Message
	} else {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}

	return apiErr
}

// FetchAllTracks pages through a playlist's items and returns them in source order.
//
// Items with a null track are skipped. A failed page, a payload without items, or a next cursor that does not
// advance all fail with [shared.ErrFetch].
func (s *SpotifyClient) FetchAllTracks(ctx context.Context, playlistID string) ([]models.Track, error) {
	next := fmt.Sprintf("/playlists/%s/tracks?limit=%d", url.PathEscape(playlistID), PageSize)
	seen := map[string]bool{}
	var tracks []models.Track

	for page := 1; next != ""; page++ {
		seen[s.resolve(next)] = true

		var resp SpotifyPlaylistTracksPage
		if err := s.doRequest(ctx, http.MethodGet, next, nil, &resp); err != nil {
			return nil, fmt.Errorf("%w: playlist %s page %d: %w", shared.ErrFetch, playlistID, page, err)
		}
		if resp.Items == nil {
			return nil, fmt.Errorf("%w: playlist %s page %d: malformed payload without items", shared.ErrFetch, playlistID, page)
		}

		for _, item := range *resp.Items {
			if item.Track == nil {
				continue
			}
			tracks = append(tracks, toTrack(*item.Track))
		}
		s.logger.Debug("fetched page", "playlist", playlistID, "page", page, "tracks", len(tracks), "total", resp.Total)

		next = ""
		if resp.Next != nil && *resp.Next != "" {
			next = *resp.Next
			if seen[s.resolve(next)] {
				return nil, fmt.Errorf("%w: playlist %s: pagination cursor repeated at page %d", shared.ErrFetch, playlistID, page)
			}
		}
	}

	return tracks, nil
}

func toTrack(st SpotifyTrack) models.Track {
	t := models.Track{
		URI:         st.URI,
		ID:          st.ID,
		Name:        st.Name,
		Explicit:    st.Explicit,
		IsLocal:     st.IsLocal,
		Album:       st.Album.Name,
		Popularity:  st.Popularity,
		ReleaseDate: st.Album.ReleaseDate,
	}
	if len(st.Artists) > 0 {
		t.Artist = st.Artists[0].Name
		t.ArtistID = st.Artists[0].ID
	}
	if t.Artist == "" {
		t.Artist = models.UnknownArtist
	}
	for _, a := range st.Artists {
		t.Artists = append(t.Artists, a.Name)
	}
	return t
}

// CurrentUser retrieves the current authenticated user's profile.
func (s *SpotifyClient) CurrentUser(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, fmt.Errorf("failed to fetch user information: %w", err)
	}
	if user.ID == "" {
		return nil, fmt.Errorf("%w: profile without id", shared.ErrAPIRequest)
	}
	return &user, nil
}

// CreatePlaylist creates an empty playlist owned by userID.
func (s *SpotifyClient) CreatePlaylist(ctx context.Context, userID string, p NewPlaylist) (*SpotifySimplePlaylist, error) {
	body := createPlaylistBody{Name: p.Name, Public: p.Public, Description: p.Description}
	endpoint := fmt.Sprintf("/users/%s/playlists", url.PathEscape(userID))

	var playlist SpotifySimplePlaylist
	if err := s.doRequest(ctx, http.MethodPost, endpoint, body, &playlist); err != nil {
		return nil, fmt.Errorf("failed to create playlist %q: %w", p.Name, err)
	}
	if playlist.ID == "" {
		return nil, fmt.Errorf("%w: created playlist without id", shared.ErrAPIRequest)
	}
	return &playlist, nil
}

// AddTracks appends up to [MaxAddBatch] URIs to a playlist.
func (s *SpotifyClient) AddTracks(ctx context.Context, playlistID string, uris []string) error {
	if len(uris) == 0 {
		return nil
	}
	if len(uris) > MaxAddBatch {
		return fmt.Errorf("%w: maximum %d URIs per call, got %d", shared.ErrInvalidArgument, MaxAddBatch, len(uris))
	}

	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))
	return s.doRequest(ctx, http.MethodPost, endpoint, addTracksBody{URIs: uris}, nil)
}

// UnfollowPlaylist removes a playlist from the current user's library, which is how the API deletes one.
func (s *SpotifyClient) UnfollowPlaylist(ctx context.Context, playlistID string) error {
	endpoint := fmt.Sprintf("/playlists/%s/followers", url.PathEscape(playlistID))
	return s.doRequest(ctx, http.MethodDelete, endpoint, nil, nil)
}

// SearchTracks runs a track search and returns at most limit results.
func (s *SpotifyClient) SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error) {
	if limit <= 0 || limit > 50 {
		limit = 15
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "track")
	params.Set("limit", fmt.Sprintf("%d", limit))

	var response struct {
		Tracks struct {
			Items []SpotifyTrack `json:"items"`
		} `json:"tracks"`
	}
	if err := s.doRequest(ctx, http.MethodGet, "/search?"+params.Encode(), nil, &response); err != nil {
		return nil, err
	}

	results := make([]models.Track, 0, len(response.Tracks.Items))
	for _, item := range response.Tracks.Items {
		results = append(results, toTrack(item))
	}
	return results, nil
}

// Artist retrieves a single artist by ID.
func (s *SpotifyClient) Artist(ctx context.Context, artistID string) (*SpotifyArtist, error) {
	var artist SpotifyArtist
	endpoint := fmt.Sprintf("/artists/%s", url.PathEscape(artistID))
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &artist); err != nil {
		return nil, err
	}
	return &artist, nil
}

// SeveralArtists retrieves up to [MaxArtistBatch] artists by their IDs. Unknown IDs are omitted from the result.
func (s *SpotifyClient) SeveralArtists(ctx context.Context, artistIDs []string) ([]SpotifyArtist, error) {
	if len(artistIDs) == 0 {
		return nil, fmt.Errorf("%w: no artist IDs provided", shared.ErrInvalidArgument)
	}
	if len(artistIDs) > MaxArtistBatch {
		return nil, fmt.Errorf("%w: maximum %d artist IDs allowed", shared.ErrInvalidArgument, MaxArtistBatch)
	}

	endpoint := "/artists?ids=" + url.QueryEscape(strings.Join(artistIDs, ","))

	var response struct {
		Artists []*SpotifyArtist `json:"artists"`
	}
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	artists := make([]SpotifyArtist, 0, len(response.Artists))
	for _, a := range response.Artists {
		if a != nil {
			artists = append(artists, *a)
		}
	}
	return artists, nil
}
