package tasks

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/desertthunder/oneplusone/internal/roster"
	"github.com/desertthunder/oneplusone/internal/shared"
)

const sampleImport = `
TEAM Alpha
team Beta

add a@x.com Alpha
ADD b@x.com alpha
add c@x.com Alpha
add a@x.com Beta
team alpha
add a@x.com ALPHA
`

func TestImport(t *testing.T) {
	ctx := context.Background()

	t.Run("applies teams and memberships", func(t *testing.T) {
		e, _ := newTestEngine(t)
		progress := make(chan ProgressUpdate, 32)

		result, err := e.Import(ctx, strings.NewReader(sampleImport), progress)
		if err != nil {
			t.Fatalf("Import failed: %v", err)
		}

		want := ImportResult{Lines: 8, TeamsCreated: 2, PeopleCreated: 3, MembershipsAdded: 4, Skipped: 2}
		if *result != want {
			t.Errorf("expected %+v, got %+v", want, *result)
		}

		org := e.Organization()
		if len(org) != 2 || len(org[0].Members) != 3 || len(org[1].Members) != 1 {
			t.Errorf("unexpected organization %+v", org)
		}

		close(progress)
		var last ProgressUpdate
		count := 0
		for u := range progress {
			count++
			last = u
		}
		if count != 9 || last.Phase != ImportDone {
			t.Errorf("expected 8 line updates and a final one, got %d ending in %s", count, last.Phase)
		}
	})

	t.Run("bad line stops the import and keeps earlier lines", func(t *testing.T) {
		e, _ := newTestEngine(t)
		input := "team Alpha\nadd a@x.com Alpha\nremove a@x.com\nteam Beta\n"

		result, err := e.Import(ctx, strings.NewReader(input), nil)
		var lerr *LoadFormatError
		if !errors.As(err, &lerr) {
			t.Fatalf("expected *LoadFormatError, got %v", err)
		}
		if !errors.Is(err, shared.ErrLoadFormat) {
			t.Errorf("expected load format class, got %v", err)
		}
		if lerr.Line != 3 || lerr.Text != "remove a@x.com" {
			t.Errorf("unexpected error position %+v", lerr)
		}
		if result.Lines != 2 {
			t.Errorf("expected 2 applied lines, got %d", result.Lines)
		}
		if _, ok := e.TeamByName("Beta"); ok {
			t.Errorf("lines after the bad one must not be applied")
		}
		if _, ok := e.PersonByEmail("a@x.com"); !ok {
			t.Errorf("lines before the bad one must stay applied")
		}
	})

	t.Run("line errors carry the cause", func(t *testing.T) {
		tc := []struct {
			name  string
			input string
			want  error
		}{
			{"unknown team", "add a@x.com Gamma", roster.ErrTeamNotFound},
			{"invalid email", "team Alpha\nadd not-an-email Alpha", roster.ErrInvalidEmail},
		}

		for _, c := range tc {
			t.Run(c.name, func(t *testing.T) {
				e, _ := newTestEngine(t)
				_, err := e.Import(ctx, strings.NewReader(c.input), nil)
				if !errors.Is(err, c.want) || !errors.Is(err, shared.ErrLoadFormat) {
					t.Errorf("expected %v inside a load format error, got %v", c.want, err)
				}
			})
		}
	})

	t.Run("replay after reset reproduces the roster", func(t *testing.T) {
		e, _ := newTestEngine(t)
		if _, err := e.Import(ctx, strings.NewReader(sampleImport), nil); err != nil {
			t.Fatalf("Import failed: %v", err)
		}
		if _, err := e.Save(ctx); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		before := e.Organization()

		if err := e.Reset(ctx); err != nil {
			t.Fatalf("Reset failed: %v", err)
		}
		if _, err := e.LoadAll(ctx); err != nil {
			t.Fatalf("LoadAll failed: %v", err)
		}
		if len(e.Organization()) != 0 {
			t.Fatalf("expected an empty roster after reset")
		}

		if _, err := e.Import(ctx, strings.NewReader(sampleImport), nil); err != nil {
			t.Fatalf("second Import failed: %v", err)
		}
		after := e.Organization()
		if len(before) != len(after) {
			t.Fatalf("expected %d teams, got %d", len(before), len(after))
		}
		for i := range before {
			if before[i].Team.Name != after[i].Team.Name || len(before[i].Members) != len(after[i].Members) {
				t.Errorf("team %d differs: %+v vs %+v", i, before[i], after[i])
			}
			for j := range before[i].Members {
				if before[i].Members[j].Email != after[i].Members[j].Email {
					t.Errorf("member %d of %s differs", j, before[i].Team.Name)
				}
			}
		}
	})
}
