package formatter

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/oneplusone/internal/models"
	tu "github.com/desertthunder/oneplusone/internal/testing"
)

func testRound() models.Round {
	a := models.Person{ID: 1, Email: "a@x.com"}
	b := models.Person{ID: 2, Email: "b@x.com"}
	c := models.Person{ID: 3, Email: "c@x.com"}
	d := models.Person{ID: 4, Email: "d@x.com"}
	return models.Round{
		At:       time.Date(2024, 3, 1, 9, 5, 7, 0, time.UTC),
		Pairs:    []models.RoundPair{{First: c, Second: d, PairingCount: 1}, {First: a, Second: b, PairingCount: 2}},
		Unpaired: nil,
	}
}

func TestRound(t *testing.T) {
	t.Run("FormatRound", func(t *testing.T) {
		got := string(FormatRound(testRound()))
		want := "Generating new pairing :\n" +
			"2024-03-01 09:05:07\n" +
			"c@x.com with d@x.com\n" +
			"a@x.com with b@x.com\n" +
			"---\n"
		if got != want {
			t.Errorf("unexpected round output:\n%s\nwant:\n%s", got, want)
		}
	})

	t.Run("empty round keeps the frame", func(t *testing.T) {
		got := string(FormatRound(models.Round{At: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}))
		if got != "Generating new pairing :\n2024-01-01 00:00:00\n---\n" {
			t.Errorf("unexpected output %q", got)
		}
	})

	t.Run("WriteRound error", func(t *testing.T) {
		if err := WriteRound(&tu.FWriter{}, testRound()); err == nil {
			t.Error("expected write error")
		}
	})

	t.Run("AppendRound appends", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rounds.txt")
		for range 2 {
			if err := AppendRound(path, testRound()); err != nil {
				t.Fatalf("AppendRound failed: %v", err)
			}
		}
		content := tu.MustReadFile(t, path)
		if strings.Count(content, RoundHeader) != 2 || strings.Count(content, RoundSeparator+"\n") != 2 {
			t.Errorf("expected two rounds, got:\n%s", content)
		}
	})

	t.Run("AppendRound bad path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing", "rounds.txt")
		if err := AppendRound(path, testRound()); err == nil {
			t.Error("expected error for a missing directory")
		}
	})
}

func TestExporters(t *testing.T) {
	rows := []models.PairingRow{
		{First: models.Person{Email: "a@x.com"}, Second: models.Person{Email: "b@x.com"}, PairingCount: 2, TeamCount: 1},
		{First: models.Person{Email: "a@x.com"}, Second: models.Person{Email: "long.name@x.com"}, PairingCount: 0, TeamCount: 0},
	}
	org := []models.TeamRoster{
		{Team: models.Team{Name: "Alpha"}, Members: []models.Person{{Email: "a@x.com"}, {Email: "b@x.com"}}},
		{Team: models.Team{Name: "Empty"}},
	}

	t.Run("ExportPairingsToCSV", func(t *testing.T) {
		data, err := ExportPairingsToCSV(rows)
		if err != nil {
			t.Fatalf("ExportPairingsToCSV failed: %v", err)
		}
		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) != 3 {
			t.Fatalf("expected header and 2 rows, got %q", data)
		}
		if lines[0] != "First,Second,PairingCount,TeamCount" {
			t.Errorf("CSV missing headers, got: %s", lines[0])
		}
		if lines[1] != "a@x.com,b@x.com,2,1" {
			t.Errorf("unexpected row %q", lines[1])
		}
	})

	t.Run("ExportPairingsToText", func(t *testing.T) {
		out := string(ExportPairingsToText(rows))
		if !strings.Contains(out, "a@x.com with b@x.com") || !strings.Contains(out, "paired 2, shared teams 1") {
			t.Errorf("unexpected text export:\n%s", out)
		}
		lines := strings.Split(strings.TrimSpace(out), "\n")
		if strings.Index(lines[0], "paired") != strings.Index(lines[1], "paired") {
			t.Errorf("columns are not aligned:\n%s", out)
		}
		if got := string(ExportPairingsToText(nil)); got != "No pairings.\n" {
			t.Errorf("unexpected empty export %q", got)
		}
	})

	t.Run("ExportOrganizationToText", func(t *testing.T) {
		out := string(ExportOrganizationToText(org))
		want := "Alpha (2)\n  a@x.com\n  b@x.com\nEmpty (0)\n"
		if out != want {
			t.Errorf("expected %q, got %q", want, out)
		}
	})

	t.Run("ExportOrganizationToMarkdown", func(t *testing.T) {
		out := ExportOrganizationToMarkdown(org)
		for _, s := range []string{"# Organization", "**Teams**: 2", "## Alpha", "1. a@x.com", "_No members_"} {
			if !bytes.Contains(out, []byte(s)) {
				t.Errorf("markdown missing %q", s)
			}
		}
	})
}
