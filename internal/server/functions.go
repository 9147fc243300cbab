package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playlistify/internal/models"
	"github.com/desertthunder/playlistify/internal/services"
	"github.com/desertthunder/playlistify/internal/shared"
	"github.com/desertthunder/playlistify/internal/tasks"
)

const maxRequestBody = 1 << 20

// EngineFactory builds a transformer acting on behalf of the holder of token.
type EngineFactory func(ctx context.Context, token string) (tasks.Transformer, error)

// FunctionsOption configures a [FunctionsHandler].
type FunctionsOption func(*FunctionsHandler)

// WithEngineFactory replaces how engines are built per request.
func WithEngineFactory(f EngineFactory) FunctionsOption {
	return func(h *FunctionsHandler) { h.newEngine = f }
}

// FunctionsHandler runs one transformation per request with the caller's bearer token.
type FunctionsHandler struct {
	logger    *log.Logger
	newEngine EngineFactory
}

// NewFunctionsHandler creates a handler that talks to cfg.Spotify.APIURL.
func NewFunctionsHandler(cfg *shared.Config, logger *log.Logger, opts ...FunctionsOption) *FunctionsHandler {
	h := &FunctionsHandler{logger: logger, newEngine: SpotifyEngineFactory(cfg, logger)}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// SpotifyEngineFactory builds an engine backed by the Spotify Web API, with external link support.
func SpotifyEngineFactory(cfg *shared.Config, logger *log.Logger) EngineFactory {
	return func(ctx context.Context, token string) (tasks.Transformer, error) {
		client, httpClient, err := services.NewSpotifyService(ctx, cfg, token, logger)
		if err != nil {
			return nil, err
		}
		resolver := services.NewPlaylistResolver(httpClient, cfg.Spotify.APIURL)
		return tasks.NewPlaylistEngine(client, cfg.Limits, tasks.WithLogger(logger), tasks.WithResolver(resolver)), nil
	}
}

func (h *FunctionsHandler) Routes() []string {
	return []string{"POST /api/functions"}
}

// ServeHTTP decodes the request, dispatches it and writes the result.
func (h *FunctionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := shared.WithLogger(h.logger, "request_id", RequestIDFrom(r.Context()))

	var req models.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(&req); err != nil {
		h.fail(w, logger, fmt.Errorf("%w: malformed request body: %v", shared.ErrInvalidInput, err))
		return
	}

	token := bearerToken(r.Header.Get("Authorization"))
	engine, err := h.newEngine(r.Context(), token)
	if err != nil {
		h.fail(w, logger, err)
		return
	}

	result, err := engine.Dispatch(r.Context(), nil, req)
	if err != nil {
		h.fail(w, logger, err)
		return
	}

	writeJSON(w, http.StatusOK, ResultResponse{Message: "success", Result: result})
}

func (h *FunctionsHandler) fail(w http.ResponseWriter, logger *log.Logger, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("function failed", "status", status, "error", err)
	} else {
		logger.Warn("function rejected", "status", status, "error", err)
	}
	writeMessage(w, status, err.Error())
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
