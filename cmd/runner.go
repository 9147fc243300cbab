package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playlistify/internal/formatter"
	"github.com/desertthunder/playlistify/internal/services"
	"github.com/desertthunder/playlistify/internal/shared"
	"github.com/desertthunder/playlistify/internal/tasks"
	"github.com/urfave/cli/v3"
)

const defaultConfigPath = "config.toml"

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config       *shared.Config
	logger       *log.Logger
	output       io.Writer
	palette      *formatter.Palette
	openPlaylist func(id string) error
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config       *shared.Config
	Logger       *log.Logger
	Output       io.Writer
	Palette      *formatter.Palette
	OpenPlaylist func(id string) error
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Palette == nil {
		opts.Palette = formatter.DefaultPalette()
	}
	if opts.OpenPlaylist == nil {
		opts.OpenPlaylist = shared.OpenPlaylist
	}

	return &Runner{
		config:       opts.Config,
		logger:       opts.Logger,
		output:       opts.Output,
		palette:      opts.Palette,
		openPlaylist: opts.OpenPlaylist,
	}
}

func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:     "playlistify",
		Usage:    "Merge, clean, sort and split Spotify playlists",
		Version:  "0.1.0",
		Commands: r.register(),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		mergeCommand, cleanCommand, sortCommand, splitCommand, serveCommand, configCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// setup loads the config named by --config, applies .env and environment overrides and sets the log level.
//
// A missing file is only an error when --config was given explicitly.
func (r *Runner) setup(cmd *cli.Command) error {
	path := cmd.String("config")
	if _, err := os.Stat(path); err == nil {
		config, err := shared.LoadConfig(path)
		if err != nil {
			return err
		}
		r.config = config
	} else if cmd.IsSet("config") {
		return fmt.Errorf("%w: %s", shared.ErrMissingConfig, path)
	}

	if err := r.config.LoadEnv(); err != nil {
		return err
	}
	if err := r.config.Validate(); err != nil {
		return err
	}

	level, err := shared.ParseLogLevel(r.config.Log.Level)
	if err != nil {
		return err
	}
	shared.SetLogLevel(r.logger, level)
	return nil
}

// connect builds the engine and link resolver for the configured access token.
func (r *Runner) connect(ctx context.Context) (tasks.Transformer, tasks.LinkResolver, error) {
	client, httpClient, err := services.NewSpotifyService(ctx, r.config, r.config.Spotify.AccessToken, r.logger)
	if err != nil {
		return nil, nil, err
	}

	resolver := services.NewPlaylistResolver(httpClient, r.config.Spotify.APIURL)
	engine := tasks.NewPlaylistEngine(client, r.config.Limits, tasks.WithLogger(r.logger), tasks.WithResolver(resolver))
	return engine, resolver, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(append(output, '\n')); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
