package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
	"go.uber.org/multierr"

	"github.com/desertthunder/oneplusone/internal/shared"
	"github.com/desertthunder/oneplusone/internal/tasks"
)

// Generate selects a new round, saves the updated counts and writes the round out.
func (r *Runner) Generate(ctx context.Context, cmd *cli.Command) error {
	e, err := r.Engine(ctx)
	if err != nil {
		return err
	}

	round, err := e.Generate()
	if err != nil {
		return err
	}
	if len(round.Pairs) == 0 {
		r.logger.Warn("no eligible pairs; add people to teams first")
	}
	if err := r.commit(ctx, cmd); err != nil {
		return err
	}

	path := cmd.String("output")
	if path == "" {
		path = r.config.Output.File
	}
	return r.writeRound(round, path)
}

// Load applies a bulk-load file. Lines applied before a malformed line are kept and saved.
func (r *Runner) Load(ctx context.Context, cmd *cli.Command) error {
	args, err := requireArgs(cmd, "path")
	if err != nil {
		return err
	}
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open load file: %w", err)
	}
	defer f.Close()

	e, err := r.Engine(ctx)
	if err != nil {
		return err
	}

	verbose := cmd.Bool("verbose")
	progressCh := make(chan tasks.ProgressUpdate, 64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.ImportLine:
				if verbose {
					r.writePlain("   %s\n", update.Message)
				}
			case tasks.ImportDone:
				r.writePlain("✓ %s\n", update.Message)
			}
		}
	}()

	_, loadErr := e.Import(ctx, f, progressCh)
	close(progressCh)
	<-done

	return multierr.Append(loadErr, r.commit(ctx, cmd))
}

// Reset deletes every stored team, person and pairing.
func (r *Runner) Reset(ctx context.Context, cmd *cli.Command) error {
	if !cmd.Bool("yes") {
		return fmt.Errorf("%w: reset deletes everything; pass --yes to confirm", shared.ErrMissingArgument)
	}
	e, err := r.Engine(ctx)
	if err != nil {
		return err
	}

	if err := e.Reset(ctx); err != nil {
		return err
	}
	return r.writePlain("✓ Roster reset\n")
}

// Save loads the roster, which may schedule repairs, and saves whatever is pending.
func (r *Runner) Save(ctx context.Context, cmd *cli.Command) error {
	e, err := r.Engine(ctx)
	if err != nil {
		return err
	}

	n, err := e.Save(ctx)
	for err != nil && cmd.Bool("skip-failed") {
		skipped, ok := e.SkipFailedIntent(err)
		if !ok {
			break
		}
		if werr := r.writePlain("! Skipped %s\n", skipped); werr != nil {
			return werr
		}
		n, err = e.Save(ctx)
	}
	if err != nil {
		return err
	}
	return r.writePlain("✓ Saved %d changes\n", n)
}
