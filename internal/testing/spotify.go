package testing

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// FakeTrack is a track served by [FakeSpotify].
type FakeTrack struct {
	ID          string
	Name        string
	Artist      string
	ArtistID    string
	Explicit    bool
	IsLocal     bool
	Album       string
	ReleaseDate string
	Popularity  int
}

// URI returns the track's spotify URI, or a local-file URI for local tracks.
func (f FakeTrack) URI() string {
	if f.IsLocal {
		return "spotify:local:" + f.Artist + ":" + f.Album + ":" + f.Name
	}
	return "spotify:track:" + f.ID
}

// FakeArtist is an artist served by [FakeSpotify].
type FakeArtist struct {
	ID     string
	Name   string
	Genres []string
}

// FakePlaylist is a playlist held by [FakeSpotify]. A nil entry in Items is served as a null track.
type FakePlaylist struct {
	ID          string
	Name        string
	Description string
	Public      bool
	Owner       string
	Items       []*FakeTrack
	URIs        []string
}

// Call records one request received by [FakeSpotify].
type Call struct {
	Method string
	Path   string
	Query  string
}

// FakeSpotify is an in-memory Spotify Web API served over [httptest.Server].
//
// Source playlists are seeded with [FakeSpotify.AddPlaylist]; playlists created through the API record the URIs
// added to them.
type FakeSpotify struct {
	Server *httptest.Server
	UserID string

	mu        sync.Mutex
	playlists map[string]*FakePlaylist
	artists   map[string]FakeArtist
	search    map[string][]FakeTrack
	calls     []Call
	created   int

	// FailAddTracksOn makes the nth (1-based) add-tracks call answer 500. Zero disables it.
	FailAddTracksOn int
	// ArtistStatus forces a status for the single-artist endpoint.
	ArtistStatus map[string]int
	// RateLimitSearch answers the first n search calls with 429 and Retry-After: 2.
	RateLimitSearch int
	// BrokenCursor makes every page's next link point at the first page again.
	BrokenCursor bool
}

// NewFakeSpotify starts a fake API that is closed when the test ends.
func NewFakeSpotify(t *testing.T) *FakeSpotify {
	t.Helper()

	f := &FakeSpotify{
		UserID:       "fake-user",
		playlists:    map[string]*FakePlaylist{},
		artists:      map[string]FakeArtist{},
		search:       map[string][]FakeTrack{},
		ArtistStatus: map[string]int{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/me", f.handleMe)
	mux.HandleFunc("GET /v1/playlists/{id}", f.handleGetPlaylist)
	mux.HandleFunc("GET /v1/playlists/{id}/tracks", f.handleGetTracks)
	mux.HandleFunc("POST /v1/playlists/{id}/tracks", f.handleAddTracks)
	mux.HandleFunc("DELETE /v1/playlists/{id}/followers", f.handleUnfollow)
	mux.HandleFunc("POST /v1/users/{user}/playlists", f.handleCreate)
	mux.HandleFunc("GET /v1/search", f.handleSearch)
	mux.HandleFunc("GET /v1/artists", f.handleSeveralArtists)
	mux.HandleFunc("GET /v1/artists/{id}", f.handleArtist)

	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.calls = append(f.calls, Call{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery})
		f.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(f.Server.Close)

	return f
}

// URL returns the API base URL (including /v1).
func (f *FakeSpotify) URL() string {
	return f.Server.URL + "/v1"
}

// AddPlaylist seeds a source playlist.
func (f *FakeSpotify) AddPlaylist(id, name string, items ...*FakeTrack) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playlists[id] = &FakePlaylist{ID: id, Name: name, Owner: "someone", Items: items}
}

// AddArtist seeds an artist.
func (f *FakeSpotify) AddArtist(a FakeArtist) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.artists[a.ID] = a
}

// SetSearchResults registers the results returned for an exact query string.
func (f *FakeSpotify) SetSearchResults(query string, results ...FakeTrack) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.search[query] = results
}

// Playlist returns a copy of a playlist, or nil.
func (f *FakeSpotify) Playlist(id string) *FakePlaylist {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.playlists[id]
	if !ok {
		return nil
	}
	cp := *p
	cp.URIs = append([]string(nil), p.URIs...)
	return &cp
}

// Created returns the playlists created through the API, in creation order.
func (f *FakeSpotify) Created() []*FakePlaylist {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*FakePlaylist
	for i := 1; i <= f.created; i++ {
		if p, ok := f.playlists[createdID(i)]; ok {
			cp := *p
			cp.URIs = append([]string(nil), p.URIs...)
			out = append(out, &cp)
		}
	}
	return out
}

// Calls returns every recorded request.
func (f *FakeSpotify) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CountCalls counts requests with method whose path starts with prefix and ends with suffix.
func (f *FakeSpotify) CountCalls(method, prefix, suffix string) int {
	n := 0
	for _, c := range f.Calls() {
		if c.Method == method && strings.HasPrefix(c.Path, prefix) && strings.HasSuffix(c.Path, suffix) {
			n++
		}
	}
	return n
}

func createdID(n int) string {
	return fmt.Sprintf("created%04d", n)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": map[string]any{"status": status, "message": msg}})
}

func trackJSON(t FakeTrack) map[string]any {
	var id any = t.ID
	if t.IsLocal {
		id = nil
	}
	artists := []map[string]any{}
	if t.Artist != "" || t.ArtistID != "" {
		artists = append(artists, map[string]any{"id": t.ArtistID, "name": t.Artist})
	}
	return map[string]any{
		"id":         id,
		"uri":        t.URI(),
		"name":       t.Name,
		"explicit":   t.Explicit,
		"is_local":   t.IsLocal,
		"popularity": t.Popularity,
		"artists":    artists,
		"album":      map[string]any{"name": t.Album, "release_date": t.ReleaseDate},
	}
}

func (f *FakeSpotify) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"id": f.UserID, "display_name": "Fake User"})
}

func (f *FakeSpotify) handleGetPlaylist(w http.ResponseWriter, r *http.Request) {
	p := f.Playlist(r.PathValue("id"))
	if p == nil {
		writeError(w, http.StatusNotFound, "Resource not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": p.ID, "name": p.Name, "public": p.Public, "description": p.Description})
}

func (f *FakeSpotify) handleGetTracks(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	p := f.Playlist(id)
	if p == nil {
		writeError(w, http.StatusNotFound, "Resource not found")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	end := min(offset+limit, len(p.Items))
	items := []map[string]any{}
	for i := offset; i < end; i++ {
		if p.Items[i] == nil {
			items = append(items, map[string]any{"added_at": "2024-01-01T00:00:00Z", "track": nil})
			continue
		}
		items = append(items, map[string]any{"added_at": "2024-01-01T00:00:00Z", "track": trackJSON(*p.Items[i])})
	}

	var next any
	if end < len(p.Items) {
		nextOffset := end
		if f.BrokenCursor {
			nextOffset = 0
		}
		next = fmt.Sprintf("%s/v1/playlists/%s/tracks?offset=%d&limit=%d", f.Server.URL, id, nextOffset, limit)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items":  items,
		"total":  len(p.Items),
		"limit":  limit,
		"offset": offset,
		"next":   next,
	})
}

func (f *FakeSpotify) handleCreate(w http.ResponseWriter, r *http.Request) {
	if r.PathValue("user") != f.UserID {
		writeError(w, http.StatusForbidden, "You cannot create a playlist for another user")
		return
	}

	var body struct {
		Name        string `json:"name"`
		Public      bool   `json:"public"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Name == "" {
		writeError(w, http.StatusBadRequest, "Missing playlist name")
		return
	}

	f.mu.Lock()
	f.created++
	id := createdID(f.created)
	f.playlists[id] = &FakePlaylist{ID: id, Name: body.Name, Description: body.Description, Public: body.Public, Owner: f.UserID}
	f.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]any{"id": id, "name": body.Name, "public": body.Public, "description": body.Description})
}

func (f *FakeSpotify) handleAddTracks(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URIs []string `json:"uris"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if len(body.URIs) > 100 {
		writeError(w, http.StatusBadRequest, "Too many ids requested")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	calls := 0
	for _, c := range f.calls {
		if c.Method == http.MethodPost && strings.HasSuffix(c.Path, "/tracks") {
			calls++
		}
	}
	if f.FailAddTracksOn > 0 && calls == f.FailAddTracksOn {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	p, ok := f.playlists[r.PathValue("id")]
	if !ok {
		writeError(w, http.StatusNotFound, "Resource not found")
		return
	}
	p.URIs = append(p.URIs, body.URIs...)
	writeJSON(w, http.StatusCreated, map[string]any{"snapshot_id": fmt.Sprintf("snap-%d", len(p.URIs))})
}

func (f *FakeSpotify) handleUnfollow(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.playlists[r.PathValue("id")]; !ok {
		writeError(w, http.StatusNotFound, "Resource not found")
		return
	}
	delete(f.playlists, r.PathValue("id"))
	w.WriteHeader(http.StatusOK)
}

func (f *FakeSpotify) handleSearch(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	limited := f.RateLimitSearch > 0
	if limited {
		f.RateLimitSearch--
	}
	results := f.search[r.URL.Query().Get("q")]
	f.mu.Unlock()

	if limited {
		w.Header().Set("Retry-After", "2")
		writeError(w, http.StatusTooManyRequests, "API rate limit exceeded")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	items := []map[string]any{}
	for _, t := range results {
		items = append(items, trackJSON(t))
	}
	writeJSON(w, http.StatusOK, map[string]any{"tracks": map[string]any{"items": items, "total": len(items)}})
}

func artistJSON(a FakeArtist) map[string]any {
	genres := a.Genres
	if genres == nil {
		genres = []string{}
	}
	return map[string]any{"id": a.ID, "name": a.Name, "genres": genres, "type": "artist"}
}

func (f *FakeSpotify) handleSeveralArtists(w http.ResponseWriter, r *http.Request) {
	ids := strings.Split(r.URL.Query().Get("ids"), ",")
	if len(ids) > 50 {
		writeError(w, http.StatusBadRequest, "Too many ids requested")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	artists := []any{}
	for _, id := range ids {
		if a, ok := f.artists[id]; ok {
			artists = append(artists, artistJSON(a))
		} else {
			artists = append(artists, nil)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"artists": artists})
}

func (f *FakeSpotify) handleArtist(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	f.mu.Lock()
	status, forced := f.ArtistStatus[id]
	a, ok := f.artists[id]
	f.mu.Unlock()

	if forced {
		writeError(w, status, http.StatusText(status))
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "Resource not found")
		return
	}
	writeJSON(w, http.StatusOK, artistJSON(a))
}
