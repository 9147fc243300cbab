package shared

import (
	"errors"
	"fmt"
)

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrRequestFailed      = fmt.Errorf("request failed")
	ErrFetch              = fmt.Errorf("failed to fetch tracks")
	ErrWrite              = fmt.Errorf("failed to write tracks")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrPlaylistNotFound   = fmt.Errorf("playlist not found")

	// Transformation outcomes
	ErrNoPlaylistsCreated = fmt.Errorf("no playlists were created")
	ErrNoCleanTracks      = fmt.Errorf("no clean tracks found after processing")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// RequestFailedError is returned by the retry layer once every attempt has been used.
//
// It matches [ErrRequestFailed] and unwraps to the last transport error.
type RequestFailedError struct {
	Attempts int
	Err      error
}

func (e *RequestFailedError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%v after %d attempts", ErrRequestFailed, e.Attempts)
	}
	return fmt.Sprintf("%v after %d attempts: %v", ErrRequestFailed, e.Attempts, e.Err)
}

func (e *RequestFailedError) Unwrap() error { return e.Err }

func (e *RequestFailedError) Is(target error) bool { return target == ErrRequestFailed }

// WriteError reports a failed batch insert into a destination playlist.
//
// Offset is the index of the first URI in the failing batch and Written is the number of URIs already committed,
// so callers can tell how much of the playlist survived.
type WriteError struct {
	PlaylistID string
	Offset     int
	Written    int
	Err        error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%v: batch starting at index %d of playlist %s: %v", ErrWrite, e.Offset, e.PlaylistID, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

func (e *WriteError) Is(target error) bool { return target == ErrWrite }

// APIError is a non-2xx response from the Spotify Web API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("spotify API error: status %d", e.Status)
	}
	return fmt.Sprintf("spotify API error: status %d: %s", e.Status, e.Message)
}

func (e *APIError) Is(target error) bool { return target == ErrAPIRequest }

// StatusOf returns the HTTP status carried by an [APIError] anywhere in err's chain, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
