package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/desertthunder/playlistify/internal/shared"
)

// MessageResponse is the body of every failed request.
type MessageResponse struct {
	Message string `json:"message"`
}

// ResultResponse is the body of a successful dispatch.
type ResultResponse struct {
	Message string `json:"message"`
	Result  any    `json:"result"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageResponse{Message: msg})
}

// StatusFor maps an engine error to the HTTP status returned to the caller.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrPlaylistNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrMissingCredentials), shared.StatusOf(err) == http.StatusUnauthorized:
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrNoPlaylistsCreated), errors.Is(err, shared.ErrNoCleanTracks):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}
