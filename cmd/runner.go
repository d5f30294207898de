package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
	"go.uber.org/multierr"

	"github.com/desertthunder/oneplusone/internal/formatter"
	"github.com/desertthunder/oneplusone/internal/models"
	"github.com/desertthunder/oneplusone/internal/repositories"
	"github.com/desertthunder/oneplusone/internal/shared"
	"github.com/desertthunder/oneplusone/internal/tasks"
)

const version = "0.1.0"

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config   *shared.Config
	logger   *log.Logger
	output   io.Writer
	storage  tasks.Storage
	engine   *tasks.PairingEngine
	progress chan tasks.ProgressUpdate
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config  *shared.Config
	Logger  *log.Logger
	Output  io.Writer
	Storage tasks.Storage // Used instead of the configured database when set
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

	return &Runner{
		config:  opts.Config,
		logger:  opts.Logger,
		output:  opts.Output,
		storage: opts.Storage,
	}
}

func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:    "oneplusone",
		Usage:   "Generate fair one-to-one pairings across teams",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Path to a dotenv file with ONEPLUSONE_* overrides",
				Value: ".env",
			},
		},
		Before:   r.Configure,
		After:    r.Close,
		Commands: r.register(),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, teamCommand, personCommand, listCommand, pairingsCommand,
		generateCommand, loadCommand, resetCommand, saveCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Configure loads the config file and environment overrides before any command runs.
//
// A missing config file falls back to the defaults unless --config was given explicitly.
func (r *Runner) Configure(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := cmd.String("config")
	if _, err := os.Stat(path); err == nil {
		config, err := shared.LoadConfig(path)
		if err != nil {
			return ctx, err
		}
		r.config = config
	} else if cmd.IsSet("config") {
		return ctx, fmt.Errorf("%w: %s", shared.ErrMissingConfig, path)
	}

	if err := shared.ApplyEnv(r.config, cmd.String("env-file")); err != nil {
		return ctx, err
	}

	level, err := shared.ParseLevel(r.config.Logging.Level)
	if err != nil {
		return ctx, err
	}
	shared.SetLogLevel(r.logger, level)
	return ctx, nil
}

// SetLogger replaces the logger used by the runner and any engine it opens afterwards.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// Engine opens storage and loads the roster on first use.
func (r *Runner) Engine(ctx context.Context) (*tasks.PairingEngine, error) {
	if r.engine != nil {
		return r.engine, nil
	}

	if r.storage == nil {
		db, err := shared.OpenDatabase(ctx, r.config.Database)
		if err != nil {
			return nil, err
		}
		r.storage = repositories.NewSQLStore(db, shared.WithLogger(r.logger, "component", "store"))
	}

	engine := tasks.NewPairingEngine(r.storage, tasks.EngineOpts{
		Logger:       shared.WithLogger(r.logger, "component", "engine"),
		FlushRetries: r.config.Storage.FlushRetries,
		RetryRate:    r.config.Storage.RetryRate,
		Progress:     r.progress,
	})

	report, err := engine.LoadAll(ctx)
	if err != nil {
		err = multierr.Append(err, r.storage.Close())
		r.storage = nil
		return nil, err
	}
	if !report.Empty() {
		r.writePlain("Repaired stored roster: %d missing pairings, %d team counts\n",
			len(report.MissingPairings), len(report.TeamCountRepairs))
	}

	r.engine = engine
	return engine, nil
}

// commit saves pending changes after a mutating command when autosave is on or --save was given.
// Otherwise the changes are dropped with a warning.
func (r *Runner) commit(ctx context.Context, cmd *cli.Command) error {
	if r.engine == nil {
		return nil
	}
	if !r.config.Storage.Autosave && !cmd.Bool("save") {
		if n := r.engine.Discard(); n > 0 {
			r.logger.Warn("changes not saved; rerun with --save or enable storage.autosave", "intents", n)
		}
		return nil
	}

	n, err := r.engine.Save(ctx)
	if err != nil {
		return err
	}
	r.logger.Debug("saved", "intents", n)
	return nil
}

// Close releases storage after the command finished.
func (r *Runner) Close(ctx context.Context, cmd *cli.Command) error {
	if r.engine != nil {
		err := r.engine.Close(ctx, false)
		r.engine = nil
		r.storage = nil
		return err
	}
	if r.storage != nil {
		return r.storage.Close()
	}
	return nil
}

func (r *Runner) writeRound(round models.Round, path string) error {
	if path == "" {
		return formatter.WriteRound(r.output, round)
	}
	if err := formatter.AppendRound(path, round); err != nil {
		return err
	}
	r.writePlain("Round appended to %s\n", path)
	return nil
}

func (r *Runner) writeBytes(data []byte) error {
	if _, err := r.output.Write(data); err != nil {
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

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
