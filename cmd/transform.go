package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/playlistify/internal/formatter"
	"github.com/desertthunder/playlistify/internal/models"
	"github.com/desertthunder/playlistify/internal/shared"
	"github.com/desertthunder/playlistify/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Transform returns the action for one transformation command.
func (r *Runner) Transform(fn models.Function) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		if err := r.setup(cmd); err != nil {
			return err
		}

		links := cmd.StringSlice("playlist")
		if len(links) == 0 {
			return fmt.Errorf("%w: at least one --playlist is required", shared.ErrMissingArgument)
		}

		criterion, err := models.ParseCriterion(cmd.String("criterion"))
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
		}

		engine, resolver, err := r.connect(ctx)
		if err != nil {
			return err
		}

		refs, err := resolveAll(ctx, resolver, links)
		if err != nil {
			return err
		}

		req := models.Request{
			Function:  fn,
			Playlists: refs,
			Criterion: criterion,
			Options:   playlistOptions(cmd),
		}

		quiet := cmd.Bool("json") || cmd.Bool("csv")
		r.logger.Info("running", "function", fn, "playlists", len(refs), "criterion", criterion)

		result, err := r.dispatch(ctx, engine, req, quiet)
		if err != nil {
			return err
		}

		if err := r.render(result, cmd); err != nil {
			return err
		}

		if cmd.Bool("open") {
			for _, pl := range formatter.Playlists(result) {
				if err := r.openPlaylist(pl.ID); err != nil {
					r.logger.Warn("failed to open browser", "playlist", pl.ID, "error", err)
				}
			}
		}
		return nil
	}
}

func resolveAll(ctx context.Context, resolver tasks.LinkResolver, links []string) ([]models.PlaylistRef, error) {
	refs := make([]models.PlaylistRef, 0, len(links))
	for _, link := range links {
		ref, err := resolver.Resolve(ctx, link)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve playlist %q: %w", link, err)
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func playlistOptions(cmd *cli.Command) models.PlaylistOptions {
	opts := models.PlaylistOptions{Name: cmd.String("name"), Shuffle: cmd.Bool("shuffle")}
	if cmd.IsSet("public") {
		public := cmd.Bool("public")
		opts.Public = &public
	}
	return opts
}

// dispatch runs the request while printing progress updates unless quiet is set.
func (r *Runner) dispatch(ctx context.Context, engine tasks.Transformer, req models.Request, quiet bool) (any, error) {
	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for update := range progressCh {
			if quiet {
				continue
			}
			r.printProgress(update)
		}
	}()

	result, err := engine.Dispatch(ctx, progressCh, req)
	close(progressCh)
	<-done

	return result, err
}

func (r *Runner) printProgress(update tasks.ProgressUpdate) {
	switch update.Phase {
	case tasks.FetchTracks:
		r.writePlain("📥 %s\n", update.Message)
	case tasks.ResolveClean, tasks.EnrichArtists, tasks.WriteTracks:
		r.writePlain("   %s\n", update.Message)
	case tasks.CreatePlaylist:
		r.writePlain("\n📝 %s\n", update.Message)
	default:
		r.writePlain("%s\n", update.Message)
	}
}

func (r *Runner) render(result any, cmd *cli.Command) error {
	switch {
	case cmd.Bool("json"):
		return r.writeJSON(result, true)
	case cmd.Bool("csv"):
		data, err := formatter.ExportToCSV(result)
		if err != nil {
			return err
		}
		return r.writePlain("%s", data)
	default:
		text, err := formatter.RenderText(result, r.palette)
		if err != nil {
			return err
		}
		return r.writePlain("\n%s", text)
	}
}
