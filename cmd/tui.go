package main

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/oneplusone/internal/shared"
	"github.com/desertthunder/oneplusone/internal/tasks"
	"github.com/desertthunder/oneplusone/internal/ui"
)

// TUI launches the interactive terminal UI for browsing the roster and generating rounds.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	if level, err := shared.ParseLevel(r.config.Logging.Level); err == nil {
		shared.SetLogLevel(fileLogger, level)
	}
	r.SetLogger(fileLogger)

	r.progress = make(chan tasks.ProgressUpdate, 16)
	e, err := r.Engine(ctx)
	if err != nil {
		return err
	}

	autosaveCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if r.config.Storage.Autosave {
		go func() {
			err := e.RunAutosave(autosaveCtx, r.config.Storage.AutosaveInterval.Duration)
			if err != nil && !errors.Is(err, context.Canceled) {
				r.logger.Error("autosave stopped", "error", err)
			}
		}()
	}

	model := ui.NewModel(ctx, e, r.progress)
	p := tea.NewProgram(model, tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
