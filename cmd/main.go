package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/oneplusone/internal/shared"
	"github.com/desertthunder/oneplusone/internal/tasks"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	if err := runner.app().Run(context.Background(), os.Args); err != nil {
		var storageErr *tasks.StorageError
		var formatErr *tasks.LoadFormatError
		switch {
		case errors.As(err, &storageErr):
			logger.Error("save failed", "batch", storageErr.BatchID, "intents", storageErr.Size, "error", storageErr.Err)
		case errors.As(err, &formatErr):
			logger.Error("load stopped", "line", formatErr.Line, "text", formatErr.Text, "error", formatErr.Err)
		case errors.Is(err, shared.ErrValidation):
			logger.Error(err.Error())
			os.Exit(2)
		default:
			logger.Fatalf("application error: %v", err)
		}
		os.Exit(1)
	}
}
