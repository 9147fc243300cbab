package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/playlistify/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	if err := runner.app().Run(context.Background(), os.Args); err != nil {
		var werr *shared.WriteError
		if errors.As(err, &werr) {
			logger.Error("playlist was only partially written", "playlist", werr.PlaylistID, "written", werr.Written)
		}
		logger.Fatalf("application error: %v", err)
	}
}
