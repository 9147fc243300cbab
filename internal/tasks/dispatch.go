package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/playlistify/internal/models"
	"github.com/desertthunder/playlistify/internal/shared"
)

// Dispatch runs the transformation named by req and returns its result.
//
// An external playlist link replaces the selection for clean, sort and split, and is appended to it for merge.
// Each call gets its own operation id in the log context.
func (e *PlaylistEngine) Dispatch(ctx context.Context, progress chan<- ProgressUpdate, req models.Request) (any, error) {
	op := *e
	op.logger = shared.WithLogger(e.logger, "op", shared.GenerateID())
	op.logger.Info("dispatching", "function", req.Function, "playlists", len(req.Playlists), "criterion", req.Criterion)

	playlists := req.Playlists
	if req.ExternalLink != "" {
		if e.resolver == nil {
			return nil, fmt.Errorf("%w: external playlist links are not supported here", shared.ErrServiceUnavailable)
		}
		ref, err := e.resolver.Resolve(ctx, req.ExternalLink)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch external playlist: %w", err)
		}

		if req.Function == models.FunctionMerge {
			playlists = append(append([]models.PlaylistRef(nil), playlists...), ref)
		} else {
			playlists = []models.PlaylistRef{ref}
		}
	}

	switch req.Function {
	case models.FunctionMerge:
		return asResult(op.Merge(ctx, progress, playlists, req.Options))
	case models.FunctionClean:
		return asResult(op.Clean(ctx, progress, playlists, req.Options))
	case models.FunctionSort:
		return asResult(op.Sort(ctx, progress, playlists, req.Criterion, req.Options))
	case models.FunctionSplit:
		return asResult(op.Split(ctx, progress, playlists, req.Criterion, req.Options))
	default:
		return nil, fmt.Errorf("%w: invalid function type", shared.ErrInvalidInput)
	}
}

// asResult keeps a failed operation from returning a typed nil inside a non-nil interface.
func asResult[T any](v *T, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	return v, nil
}
