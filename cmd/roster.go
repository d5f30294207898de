package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/oneplusone/internal/formatter"
	"github.com/desertthunder/oneplusone/internal/shared"
)

func requireArgs(cmd *cli.Command, names ...string) ([]string, error) {
	values := make([]string, len(names))
	for i, name := range names {
		values[i] = strings.TrimSpace(cmd.StringArg(name))
		if values[i] == "" {
			return nil, fmt.Errorf("%w: %s", shared.ErrMissingArgument, name)
		}
	}
	return values, nil
}

// TeamAdd creates a team.
func (r *Runner) TeamAdd(ctx context.Context, cmd *cli.Command) error {
	args, err := requireArgs(cmd, "name")
	if err != nil {
		return err
	}
	e, err := r.Engine(ctx)
	if err != nil {
		return err
	}

	team, err := e.AddTeam(args[0])
	if err != nil {
		return err
	}
	r.writePlain("✓ Team %q created\n", team.Name)
	return r.commit(ctx, cmd)
}

// TeamRemove deletes a team and its memberships.
func (r *Runner) TeamRemove(ctx context.Context, cmd *cli.Command) error {
	args, err := requireArgs(cmd, "name")
	if err != nil {
		return err
	}
	e, err := r.Engine(ctx)
	if err != nil {
		return err
	}

	if err := e.RemoveTeam(args[0]); err != nil {
		return err
	}
	r.writePlain("✓ Team %q removed\n", args[0])
	return r.commit(ctx, cmd)
}

// PersonAdd adds a person to a team, creating the person first when needed.
func (r *Runner) PersonAdd(ctx context.Context, cmd *cli.Command) error {
	args, err := requireArgs(cmd, "email", "team")
	if err != nil {
		return err
	}
	e, err := r.Engine(ctx)
	if err != nil {
		return err
	}

	res, err := e.AddPersonToTeam(args[0], args[1])
	if err != nil {
		return err
	}
	if res.PersonCreated {
		r.writePlain("✓ Person %s created\n", res.Person.Email)
	}
	r.writePlain("✓ %s added to %q\n", res.Person.Email, res.Team.Name)
	return r.commit(ctx, cmd)
}

// PersonRemove removes a person from every team they belong to.
func (r *Runner) PersonRemove(ctx context.Context, cmd *cli.Command) error {
	args, err := requireArgs(cmd, "email")
	if err != nil {
		return err
	}
	e, err := r.Engine(ctx)
	if err != nil {
		return err
	}

	left, err := e.RemovePersonFromAllTeams(args[0])
	if err != nil {
		return err
	}
	if len(left) == 0 {
		r.writePlain("%s is not in any team\n", args[0])
		return nil
	}
	names := make([]string, len(left))
	for i, team := range left {
		names[i] = team.Name
	}
	r.writePlain("✓ %s removed from %s\n", args[0], strings.Join(names, ", "))
	return r.commit(ctx, cmd)
}

// PersonLeave removes a person from one team.
func (r *Runner) PersonLeave(ctx context.Context, cmd *cli.Command) error {
	args, err := requireArgs(cmd, "email", "team")
	if err != nil {
		return err
	}
	e, err := r.Engine(ctx)
	if err != nil {
		return err
	}

	if err := e.RemovePersonFromTeam(args[0], args[1]); err != nil {
		return err
	}
	r.writePlain("✓ %s left %q\n", args[0], args[1])
	return r.commit(ctx, cmd)
}

// List prints every team with its members.
func (r *Runner) List(ctx context.Context, cmd *cli.Command) error {
	e, err := r.Engine(ctx)
	if err != nil {
		return err
	}

	org := e.Organization()
	if cmd.Bool("markdown") {
		return r.writeBytes(formatter.ExportOrganizationToMarkdown(org))
	}
	return r.writeBytes(formatter.ExportOrganizationToText(org))
}

// Pairings prints how often each pair has been selected.
func (r *Runner) Pairings(ctx context.Context, cmd *cli.Command) error {
	e, err := r.Engine(ctx)
	if err != nil {
		return err
	}

	rows := e.Pairings(!cmd.Bool("all"))
	if cmd.Bool("csv") {
		data, err := formatter.ExportPairingsToCSV(rows)
		if err != nil {
			return err
		}
		return r.writeBytes(data)
	}
	r.writePlainHeader("Pairings")
	return r.writeBytes(formatter.ExportPairingsToText(rows))
}
