package shared

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

const playlistWebBase = "https://open.spotify.com/playlist/"

var playlistIDPattern = regexp.MustCompile(`^[A-Za-z0-9]{10,40}$`)

// ExtractPlaylistID pulls the playlist id out of a share link, a spotify URI or a bare id.
//
// Accepted forms:
//
//	https://open.spotify.com/playlist/<id>?si=...
//	https://open.spotify.com/intl-de/playlist/<id>
//	spotify:playlist:<id>
//	<id>
func ExtractPlaylistID(link string) (string, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return "", fmt.Errorf("%w: empty playlist link", ErrInvalidInput)
	}

	if rest, ok := strings.CutPrefix(link, "spotify:playlist:"); ok {
		return checkPlaylistID(rest, link)
	}

	if strings.Contains(link, "://") {
		u, err := url.Parse(link)
		if err != nil {
			return "", fmt.Errorf("%w: malformed playlist link %q", ErrInvalidInput, link)
		}
		if !strings.HasSuffix(u.Hostname(), "spotify.com") {
			return "", fmt.Errorf("%w: not a spotify link %q", ErrInvalidInput, link)
		}

		segments := strings.Split(strings.Trim(u.Path, "/"), "/")
		for i, seg := range segments {
			if seg == "playlist" && i+1 < len(segments) {
				return checkPlaylistID(segments[i+1], link)
			}
		}
		return "", fmt.Errorf("%w: no playlist id in %q", ErrInvalidInput, link)
	}

	return checkPlaylistID(link, link)
}

func checkPlaylistID(id, link string) (string, error) {
	if !playlistIDPattern.MatchString(id) {
		return "", fmt.Errorf("%w: invalid playlist id in %q", ErrInvalidInput, link)
	}
	return id, nil
}

// PlaylistURL returns the open.spotify.com page for a playlist id.
func PlaylistURL(id string) string {
	return playlistWebBase + id
}
