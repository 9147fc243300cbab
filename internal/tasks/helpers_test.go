package tasks

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/playlistify/internal/models"
	"github.com/desertthunder/playlistify/internal/services"
	"github.com/desertthunder/playlistify/internal/shared"
	tu "github.com/desertthunder/playlistify/internal/testing"
)

type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	return ctx.Err()
}

func (s *sleepRecorder) recorded() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

type mockService struct {
	mu sync.Mutex

	userID     string
	tracks     map[string][]models.Track
	fetchErr   error
	userCalls  int
	created    []services.NewPlaylist
	batches    map[string][][]string
	addCalls   int
	addErrAt   int
	unfollowed []string

	artists      map[string]services.SpotifyArtist
	artistErr    map[string]error
	artistCalls  map[string]int
	severalCalls [][]string
}

func newMockService() *mockService {
	return &mockService{
		userID:      "user-1",
		tracks:      map[string][]models.Track{},
		batches:     map[string][][]string{},
		artists:     map[string]services.SpotifyArtist{},
		artistErr:   map[string]error{},
		artistCalls: map[string]int{},
	}
}

func (m *mockService) FetchAllTracks(ctx context.Context, playlistID string) ([]models.Track, error) {
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	return append([]models.Track(nil), m.tracks[playlistID]...), nil
}

func (m *mockService) CurrentUser(ctx context.Context) (*services.SpotifyUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.userCalls++
	return &services.SpotifyUser{ID: m.userID}, nil
}

func (m *mockService) CreatePlaylist(ctx context.Context, userID string, p services.NewPlaylist) (*services.SpotifySimplePlaylist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, p)
	return &services.SpotifySimplePlaylist{ID: fmt.Sprintf("new%d", len(m.created)), Name: p.Name, Public: p.Public}, nil
}

func (m *mockService) AddTracks(ctx context.Context, playlistID string, uris []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addCalls++
	if m.addErrAt > 0 && m.addCalls == m.addErrAt {
		return &shared.APIError{Status: http.StatusBadGateway, Message: "upstream"}
	}
	m.batches[playlistID] = append(m.batches[playlistID], append([]string(nil), uris...))
	return nil
}

func (m *mockService) UnfollowPlaylist(ctx context.Context, playlistID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unfollowed = append(m.unfollowed, playlistID)
	return nil
}

func (m *mockService) SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error) {
	return nil, nil
}

func (m *mockService) Artist(ctx context.Context, artistID string) (*services.SpotifyArtist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.artistCalls[artistID]++
	if err, ok := m.artistErr[artistID]; ok {
		return nil, err
	}
	a, ok := m.artists[artistID]
	if !ok {
		return nil, &shared.APIError{Status: http.StatusNotFound}
	}
	return &a, nil
}

func (m *mockService) SeveralArtists(ctx context.Context, artistIDs []string) ([]services.SpotifyArtist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.severalCalls = append(m.severalCalls, append([]string(nil), artistIDs...))
	var out []services.SpotifyArtist
	for _, id := range artistIDs {
		if a, ok := m.artists[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockService) written(playlistID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var uris []string
	for _, b := range m.batches[playlistID] {
		uris = append(uris, b...)
	}
	return uris
}

func testLimits() shared.LimitsConfig {
	limits := shared.DefaultConfig().Limits
	limits.QueueDelay = shared.Duration{}
	return limits
}

func newMockEngine(svc *mockService, limits shared.LimitsConfig) (*PlaylistEngine, *sleepRecorder) {
	rec := &sleepRecorder{}
	return NewPlaylistEngine(svc, limits, WithSleeper(rec.sleep)), rec
}

// newFakeEngine wires the real client against the fake API with recorded sleeps.
func newFakeEngine(t *testing.T, fake *tu.FakeSpotify, limits shared.LimitsConfig, opts ...Option) (*PlaylistEngine, *sleepRecorder) {
	t.Helper()
	rec := &sleepRecorder{}
	retrier := services.NewRetrier(http.DefaultClient, shared.DefaultConfig().Retry, nil).WithSleeper(rec.sleep)
	client := services.NewSpotifyClient(fake.URL(), retrier, nil)
	opts = append([]Option{WithSleeper(rec.sleep)}, opts...)
	return NewPlaylistEngine(client, limits, opts...), rec
}

func tracksWith(n int, fn func(i int, t *models.Track)) []models.Track {
	tracks := make([]models.Track, n)
	for i := range tracks {
		tracks[i] = models.Track{
			URI:    fmt.Sprintf("spotify:track:%03d", i),
			ID:     fmt.Sprintf("%03d", i),
			Name:   fmt.Sprintf("Song %03d", i),
			Artist: "Artist",
		}
		if fn != nil {
			fn(i, &tracks[i])
		}
	}
	return tracks
}

func uriList(n int) []string {
	uris := make([]string, n)
	for i := range uris {
		uris[i] = fmt.Sprintf("spotify:track:%03d", i)
	}
	return uris
}

func countDelays(delays []time.Duration, d time.Duration) int {
	n := 0
	for _, got := range delays {
		if got == d {
			n++
		}
	}
	return n
}
