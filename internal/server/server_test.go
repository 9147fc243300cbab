package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/playlistify/internal/shared"
	"github.com/desertthunder/playlistify/internal/tasks"
	tu "github.com/desertthunder/playlistify/internal/testing"
)

func newTestServer(t *testing.T, fake *tu.FakeSpotify, opts ...FunctionsOption) *httptest.Server {
	t.Helper()
	cfg := shared.DefaultConfig()
	cfg.Spotify.APIURL = fake.URL()
	cfg.Limits.QueueDelay = shared.Duration{}

	srv := httptest.NewServer(NewRouter(cfg, shared.NewLogger(io.Discard), opts...))
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, srv *httptest.Server, token, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/functions", strings.NewReader(body))
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp, decoded
}

func seed(fake *tu.FakeSpotify, id, name string, popularity ...int) {
	var items []*tu.FakeTrack
	for i, p := range popularity {
		items = append(items, &tu.FakeTrack{ID: fmt.Sprintf("%s%02d", id, i), Name: fmt.Sprintf("Track %d", i), Artist: "Band", Popularity: p})
	}
	fake.AddPlaylist(id, name, items...)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, tu.NewFakeSpotify(t))

	t.Run("reports ok with a request id", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/health")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected 200, got %d", resp.StatusCode)
		}
		body, _ := io.ReadAll(resp.Body)
		if strings.TrimSpace(string(body)) != `{"status":"ok"}` {
			t.Errorf("unexpected body %s", body)
		}
		if resp.Header.Get(RequestIDHeader) == "" {
			t.Error("expected a generated request id")
		}
	})

	t.Run("echoes an incoming request id", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, srv.URL+"/health", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()

		if got := resp.Header.Get(RequestIDHeader); got != "abc-123" {
			t.Errorf("expected abc-123, got %q", got)
		}
	})

	t.Run("wrong method", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/functions")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", resp.StatusCode)
		}
	})
}

func TestFunctions(t *testing.T) {
	t.Run("sort succeeds", func(t *testing.T) {
		fake := tu.NewFakeSpotify(t)
		seed(fake, "road", "Road Trip", 10, 90, 50)
		srv := newTestServer(t, fake)

		resp, body := post(t, srv, "token", `{
			"functionType": "sort",
			"selectedPlaylists": [{"id": "road", "name": "Road Trip"}],
			"selectedCriteria": "popularity"
		}`)

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d: %v", resp.StatusCode, body)
		}
		if body["message"] != "success" {
			t.Errorf("expected success message, got %v", body["message"])
		}
		result, _ := body["result"].(map[string]any)
		if result["name"] != "Road Trip (Sorted by Popularity)" || result["trackCount"] != float64(3) {
			t.Errorf("unexpected result %v", result)
		}

		want := []string{"spotify:track:road01", "spotify:track:road02", "spotify:track:road00"}
		got := fake.Created()[0].URIs
		if strings.Join(got, ",") != strings.Join(want, ",") {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("merge with an external link", func(t *testing.T) {
		fake := tu.NewFakeSpotify(t)
		seed(fake, "mine", "Mine", 1, 2)
		seed(fake, "sharedList0001", "Shared", 3)
		srv := newTestServer(t, fake)

		resp, body := post(t, srv, "token", `{
			"functionType": "merge",
			"selectedPlaylists": [{"id": "mine", "name": "Mine"}],
			"externalPlaylistLink": "https://open.spotify.com/playlist/sharedList0001",
			"playlistOptions": {"name": "Together", "public": true}
		}`)

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d: %v", resp.StatusCode, body)
		}
		created := fake.Created()[0]
		if created.Name != "Together" || !created.Public || len(created.URIs) != 3 {
			t.Errorf("unexpected playlist %+v", created)
		}
	})

	tests := []struct {
		name   string
		token  string
		body   string
		status int
	}{
		{"missing token", "", `{"functionType":"sort","selectedPlaylists":[{"id":"road"}]}`, http.StatusUnauthorized},
		{"malformed body", "token", `{"functionType":`, http.StatusBadRequest},
		{"unknown function", "token", `{"functionType":"shuffle","selectedPlaylists":[{"id":"road"}]}`, http.StatusBadRequest},
		{"unknown criterion", "token", `{"functionType":"sort","selectedCriteria":"mood"}`, http.StatusBadRequest},
		{"missing function", "token", `{"selectedPlaylists":[{"id":"road"}]}`, http.StatusBadRequest},
		{"no playlists", "token", `{"functionType":"clean","selectedPlaylists":[]}`, http.StatusBadRequest},
		{"buckets too small", "token", `{"functionType":"split","selectedPlaylists":[{"id":"road"}],"selectedCriteria":"popularity"}`, http.StatusUnprocessableEntity},
		{"unknown playlist", "token", `{"functionType":"sort","selectedPlaylists":[{"id":"nope"}]}`, http.StatusBadGateway},
		{"unknown external link", "token", `{"functionType":"sort","externalPlaylistLink":"spotify:playlist:missingList0001"}`, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := tu.NewFakeSpotify(t)
			seed(fake, "road", "Road Trip", 5, 25, 85)
			srv := newTestServer(t, fake)

			resp, body := post(t, srv, tt.token, tt.body)
			if resp.StatusCode != tt.status {
				t.Errorf("expected %d, got %d: %v", tt.status, resp.StatusCode, body)
			}
			if msg, _ := body["message"].(string); msg == "" {
				t.Errorf("expected a message, got %v", body)
			}
			if len(fake.Created()) != 0 {
				t.Error("expected nothing to be created")
			}
		})
	}

	t.Run("provider rejects the token", func(t *testing.T) {
		srv := newTestServer(t, tu.NewFakeSpotify(t), WithEngineFactory(func(ctx context.Context, token string) (tasks.Transformer, error) {
			return nil, fmt.Errorf("failed to fetch user information: %w", &shared.APIError{Status: http.StatusUnauthorized, Message: "The access token expired"})
		}))

		resp, body := post(t, srv, "expired", `{"functionType":"merge"}`)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", resp.StatusCode)
		}
		if msg, _ := body["message"].(string); !strings.Contains(msg, "access token expired") {
			t.Errorf("unexpected message %q", msg)
		}
	})

	t.Run("panics become 500", func(t *testing.T) {
		srv := newTestServer(t, tu.NewFakeSpotify(t), WithEngineFactory(func(ctx context.Context, token string) (tasks.Transformer, error) {
			panic("boom")
		}))

		resp, body := post(t, srv, "token", `{"functionType":"merge"}`)
		if resp.StatusCode != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", resp.StatusCode)
		}
		if body["message"] != "internal server error" {
			t.Errorf("unexpected body %v", body)
		}
	})
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: bad", shared.ErrInvalidInput), http.StatusBadRequest},
		{fmt.Errorf("%w: no token", shared.ErrMissingCredentials), http.StatusUnauthorized},
		{&shared.APIError{Status: http.StatusUnauthorized}, http.StatusUnauthorized},
		{fmt.Errorf("%w: small", shared.ErrNoPlaylistsCreated), http.StatusUnprocessableEntity},
		{fmt.Errorf("%w in Mix", shared.ErrNoCleanTracks), http.StatusUnprocessableEntity},
		{&shared.WriteError{PlaylistID: "p", Err: &shared.APIError{Status: http.StatusInternalServerError}}, http.StatusBadGateway},
		{&shared.RequestFailedError{Attempts: 3}, http.StatusBadGateway},
		{fmt.Errorf("failed to fetch external playlist: %w", shared.ErrPlaylistNotFound), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := StatusFor(tt.err); got != tt.want {
				t.Errorf("StatusFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	tests := map[string]string{
		"Bearer abc":   "abc",
		"bearer  abc ": "abc",
		"Basic abc":    "",
		"":             "",
		"abc":          "",
	}
	for header, want := range tests {
		if got := bearerToken(header); got != want {
			t.Errorf("bearerToken(%q) = %q, want %q", header, got, want)
		}
	}
}
