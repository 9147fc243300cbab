// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/playlistify/internal/models"
	"github.com/urfave/cli/v3"
)

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   defaultConfigPath,
	}
}

// transformFlags are shared by every transformation command.
func transformFlags(withCriterion bool) []cli.Flag {
	flags := []cli.Flag{
		configFlag(),
		&cli.StringSliceFlag{
			Name:    "playlist",
			Aliases: []string{"p"},
			Usage:   "Source playlist ID, URI or open.spotify.com link (repeatable)",
		},
		&cli.StringFlag{
			Name:    "name",
			Aliases: []string{"n"},
			Usage:   "Name for the new playlist",
		},
		&cli.BoolFlag{
			Name:  "public",
			Usage: "Make the new playlist public",
		},
		&cli.BoolFlag{
			Name:  "shuffle",
			Usage: "Shuffle tracks before writing",
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output the result as JSON",
		},
		&cli.BoolFlag{
			Name:  "csv",
			Usage: "Output created playlists as CSV",
		},
		&cli.BoolFlag{
			Name:  "open",
			Usage: "Open created playlists in the browser",
		},
	}
	if withCriterion {
		flags = append(flags, &cli.StringFlag{
			Name:  "criterion",
			Usage: "One of artist, genre, popularity, date or language",
		})
	}
	return flags
}

// mergeCommand concatenates playlists
func mergeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "merge",
		Usage:  "Merge two or more playlists into a new one",
		Flags:  transformFlags(false),
		Action: r.Transform(models.FunctionMerge),
	}
}

// cleanCommand swaps explicit tracks for clean versions
func cleanCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "clean",
		Usage:  "Copy a playlist with explicit tracks replaced by clean versions",
		Flags:  transformFlags(false),
		Action: r.Transform(models.FunctionClean),
	}
}

// sortCommand reorders a playlist
func sortCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "sort",
		Usage:  "Copy a playlist sorted by a criterion",
		Flags:  transformFlags(true),
		Action: r.Transform(models.FunctionSort),
	}
}

// splitCommand buckets a playlist
func splitCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "split",
		Usage:  "Split a playlist into one playlist per group",
		Flags:  transformFlags(true),
		Action: r.Transform(models.FunctionSplit),
	}
}

// serveCommand runs the HTTP dispatcher
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the transformation API over HTTP",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "host",
				Usage: "Address to listen on (overrides config)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Port to listen on (overrides config)",
			},
		},
		Action: r.Serve,
	}
}

// configCommand manages the configuration file
func configCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Write the example configuration file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Path to write",
						Value:   defaultConfigPath,
					},
				},
				Action: r.ConfigInit,
			},
		},
	}
}
