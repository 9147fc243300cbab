// package models defines the data model for the playlist transformation engine
package models

// PlaylistRef is a source playlist selected by the caller.
type PlaylistRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PlaylistOptions is applied uniformly when a destination playlist is created.
//
// A nil Public means the default visibility (private).
type PlaylistOptions struct {
	Name    string `json:"name,omitempty"`
	Public  *bool  `json:"public,omitempty"`
	Shuffle bool   `json:"shuffle,omitempty"`
}

// IsPublic resolves the visibility flag.
func (o PlaylistOptions) IsPublic() bool {
	return o.Public != nil && *o.Public
}

// NameOr returns the name override, or fallback when none was given.
func (o PlaylistOptions) NameOr(fallback string) string {
	if o.Name != "" {
		return o.Name
	}
	return fallback
}

// UnknownArtist stands in for the primary artist of a track the provider returned without one.
const UnknownArtist = "Unknown Artist"

// Track is one playable playlist item.
//
// Artist is the primary artist's name, or [UnknownArtist], and ArtistID its id; Artists lists every credited name.
// Popularity is 0 when the provider omitted it.
type Track struct {
	URI         string   `json:"uri"`
	ID          string   `json:"id,omitempty"`
	Name        string   `json:"name"`
	Artist      string   `json:"artist"`
	ArtistID    string   `json:"artistId,omitempty"`
	Artists     []string `json:"artists,omitempty"`
	Explicit    bool     `json:"explicit"`
	IsLocal     bool     `json:"isLocal"`
	Album       string   `json:"album,omitempty"`
	Popularity  int      `json:"popularity"`
	ReleaseDate string   `json:"releaseDate,omitempty"`
	Genres      []string `json:"genres,omitempty"`
}

// WithGenres returns a copy of t carrying genres.
func (t Track) WithGenres(genres []string) Track {
	t.Genres = append([]string(nil), genres...)
	return t
}

// PrimaryGenre returns the first genre, or fallback when there is none.
func (t Track) PrimaryGenre(fallback string) string {
	if len(t.Genres) == 0 || t.Genres[0] == "" {
		return fallback
	}
	return t.Genres[0]
}

// ArtistNames returns every credited artist, falling back to the primary artist.
func (t Track) ArtistNames() []string {
	if len(t.Artists) > 0 {
		return t.Artists
	}
	if t.Artist != "" {
		return []string{t.Artist}
	}
	return nil
}

// Writable reports whether the track can be added to a destination playlist.
func (t Track) Writable() bool {
	return !t.IsLocal && t.URI != ""
}

// URIs collects the URIs of every writable track, preserving order.
func URIs(tracks []Track) []string {
	uris := make([]string, 0, len(tracks))
	for _, t := range tracks {
		if t.Writable() {
			uris = append(uris, t.URI)
		}
	}
	return uris
}

// Bucket is a named group of tracks produced by a split.
type Bucket struct {
	Name   string
	Tracks []Track
}

// Playlist summarizes a destination playlist after it was written.
type Playlist struct {
	Name       string `json:"name"`
	ID         string `json:"id"`
	TrackCount int    `json:"trackCount"`
}

// CleanResult reports a clean run.
type CleanResult struct {
	Playlist
	ExplicitCount int `json:"explicitCount"`
	Replaced      int `json:"replaced"`
	Dropped       int `json:"dropped"`
	LocalSkipped  int `json:"localSkipped"`
}

// SplitResult reports a split run.
type SplitResult struct {
	OriginalPlaylist string     `json:"originalPlaylist"`
	SplitCount       int        `json:"splitCount"`
	NewPlaylists     []Playlist `json:"newPlaylists"`
}

// MergeResult reports a merge run.
type MergeResult struct {
	Playlist
	Sources []string `json:"sources"`
}

// Request is a single dispatcher invocation.
type Request struct {
	Function     Function        `json:"functionType"`
	Playlists    []PlaylistRef   `json:"selectedPlaylists"`
	ExternalLink string          `json:"externalPlaylistLink,omitempty"`
	Criterion    Criterion       `json:"selectedCriteria,omitempty"`
	Options      PlaylistOptions `json:"playlistOptions"`
}
