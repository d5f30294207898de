package tasks

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/desertthunder/oneplusone/internal/roster"
	"github.com/desertthunder/oneplusone/internal/shared"
)

var (
	teamLine = regexp.MustCompile(`(?i)^team\s+(.+)$`)
	addLine  = regexp.MustCompile(`(?i)^add\s+(\S+)\s+(.+)$`)
)

// LoadFormatError reports the import line that stopped a load. Lines before it stay applied.
type LoadFormatError struct {
	Line int
	Text string
	Err  error
}

func (e *LoadFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("line %d %q: %v", e.Line, e.Text, e.Err)
	}
	return fmt.Sprintf("line %d %q: expected \"team <name>\" or \"add <email> <team>\"", e.Line, e.Text)
}

// Unwrap exposes [shared.ErrLoadFormat] and the cause, if any.
func (e *LoadFormatError) Unwrap() []error {
	if e.Err == nil {
		return []error{shared.ErrLoadFormat}
	}
	return []error{shared.ErrLoadFormat, e.Err}
}

// LineOutcome says what one import line did.
type LineOutcome int

const (
	TeamCreated LineOutcome = iota
	TeamExists
	MemberAdded
	MemberExists
)

func (o LineOutcome) String() string {
	switch o {
	case TeamCreated:
		return "team created"
	case TeamExists:
		return "team exists"
	case MemberAdded:
		return "member added"
	case MemberExists:
		return "already a member"
	default:
		return ""
	}
}

// ImportResult counts what an import applied.
type ImportResult struct {
	Lines            int // Non-blank lines applied
	TeamsCreated     int
	PeopleCreated    int
	MembershipsAdded int
	Skipped          int // Lines naming a team or membership that already existed
}

// Import reads "team <name>" and "add <email> <team>" lines from r and applies them in order.
//
// Keywords and names are case-insensitive; blank lines are ignored. The first line that cannot
// be applied stops the import with a [*LoadFormatError]. Lines before it are not rolled back.
func (e *PairingEngine) Import(ctx context.Context, r io.Reader, progress chan<- ProgressUpdate) (*ImportResult, error) {
	result := &ImportResult{}
	scanner := bufio.NewScanner(r)

	n := 0
	for scanner.Scan() {
		n++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		outcome, ok, err := e.importLine(text, result)
		if err != nil || !ok {
			return result, &LoadFormatError{Line: n, Text: text, Err: err}
		}
		result.Lines++
		sendProgress(progress, importLineUpdate(n, text, outcome))
	}

	if err := scanner.Err(); err != nil {
		return result, fmt.Errorf("failed to read import: %w", err)
	}

	sendProgress(progress, importDoneUpdate(result))
	e.logger.Info("imported roster", "lines", result.Lines, "teams", result.TeamsCreated,
		"people", result.PeopleCreated, "memberships", result.MembershipsAdded, "skipped", result.Skipped)
	return result, nil
}

// importLine applies one line. ok is false when the line matches neither form.
func (e *PairingEngine) importLine(text string, result *ImportResult) (outcome LineOutcome, ok bool, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if m := teamLine.FindStringSubmatch(text); m != nil {
		if _, exists := e.store.TeamByName(m[1]); exists {
			result.Skipped++
			return TeamExists, true, nil
		}
		if _, err := e.store.CreateTeam(m[1]); err != nil {
			return 0, true, err
		}
		result.TeamsCreated++
		return TeamCreated, true, nil
	}

	if m := addLine.FindStringSubmatch(text); m != nil {
		email, teamName := m[1], m[2]
		err = e.store.CanAddMembership(email, teamName)
		if errors.Is(err, roster.ErrAlreadyMember) {
			result.Skipped++
			return MemberExists, true, nil
		}
		if err != nil {
			return 0, true, err
		}

		var res MembershipResult
		if res, err = e.addPersonToTeam(email, teamName); err != nil {
			return 0, true, err
		}
		if res.PersonCreated {
			result.PeopleCreated++
		}
		result.MembershipsAdded++
		return MemberAdded, true, nil
	}

	return 0, false, nil
}
