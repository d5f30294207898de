// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func saveFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "save",
		Usage: "Save changes even when storage.autosave is off",
	}
}

// setupCommand handles setup operations for the database and config file.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:  "config",
				Usage: "Write a config file from the built-in template",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Where to write the config file (default: the --config path)",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent migration",
				Action: r.SetupRollback,
			},
		},
	}
}

// teamCommand handles team operations
func teamCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "team",
		Usage: "Create and remove teams",
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Create a team",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Flags:     []cli.Flag{saveFlag()},
				Action:    r.TeamAdd,
			},
			{
				Name:      "remove",
				Aliases:   []string{"rm"},
				Usage:     "Remove a team; its members stay in their other teams",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Flags:     []cli.Flag{saveFlag()},
				Action:    r.TeamRemove,
			},
		},
	}
}

// personCommand handles people and memberships
func personCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "person",
		Usage: "Manage people and team memberships",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Add a person to a team, creating the person when new",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "email"},
					&cli.StringArg{Name: "team"},
				},
				Flags:  []cli.Flag{saveFlag()},
				Action: r.PersonAdd,
			},
			{
				Name:      "remove",
				Aliases:   []string{"rm"},
				Usage:     "Remove a person from every team",
				Arguments: []cli.Argument{&cli.StringArg{Name: "email"}},
				Flags:     []cli.Flag{saveFlag()},
				Action:    r.PersonRemove,
			},
			{
				Name:  "leave",
				Usage: "Remove a person from one team",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "email"},
					&cli.StringArg{Name: "team"},
				},
				Flags:  []cli.Flag{saveFlag()},
				Action: r.PersonLeave,
			},
		},
	}
}

// listCommand prints the organization
func listCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List teams and their members",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "markdown",
				Usage: "Render as Markdown",
			},
		},
		Action: r.List,
	}
}

// pairingsCommand prints pairing statistics
func pairingsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "pairings",
		Usage: "Show how often each pair has met",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "csv",
				Usage: "Output CSV",
			},
			&cli.BoolFlag{
				Name:  "all",
				Usage: "Include pairs who share no team",
			},
		},
		Action: r.Pairings,
	}
}

// generateCommand produces a round
func generateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "generate",
		Aliases: []string{"gen"},
		Usage:   "Generate a new round of pairings",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Append the round to this file (default: output.file from config, else stdout)",
			},
			saveFlag(),
		},
		Action: r.Generate,
	}
}

// loadCommand bulk-loads teams and memberships
func loadCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "load",
		Usage:     "Load 'team <name>' and 'add <email> <team>' lines from a file",
		Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Print every applied line",
			},
			saveFlag(),
		},
		Action: r.Load,
	}
}

// resetCommand clears everything
func resetCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "reset",
		Usage: "Delete all teams, people and pairings",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "yes",
				Usage: "Confirm the reset",
			},
		},
		Action: r.Reset,
	}
}

// saveCommand flushes repairs found while loading
func saveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "save",
		Usage:  "Load the roster and save any repairs",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "skip-failed",
				Usage: "Drop each change storage rejects and save the rest",
			},
		},
		Action: r.Save,
	}
}

// tuiCommand returns the top-level TUI command for interactive roster browsing.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive TUI",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where logs go while the TUI runs",
				Value: "./tmp/oneplusone-tui.log",
			},
		},
		Action: r.TUI,
	}
}
