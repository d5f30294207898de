package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase, 0 when unknown
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	ImportLine Phase = iota
	ImportDone
	SaveRoster
	LoadRoster
)

func (p Phase) String() string {
	switch p {
	case ImportLine:
		return "import_line"
	case ImportDone:
		return "import_done"
	case SaveRoster:
		return "save_roster"
	case LoadRoster:
		return "load_roster"
	default:
		return ""
	}
}

// sendProgress sends an update without blocking; it is dropped when nobody is ready to receive it.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func importLineUpdate(line int, text string, outcome LineOutcome) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ImportLine,
		Step:    line,
		Message: fmt.Sprintf("[%d] %s: %s", line, outcome, text),
		Data:    outcome,
	}
}

func importDoneUpdate(result *ImportResult) ProgressUpdate {
	return ProgressUpdate{
		Phase: ImportDone,
		Step:  result.Lines,
		Total: result.Lines,
		Message: fmt.Sprintf("Imported %d lines: %d teams, %d people, %d memberships (%d skipped)",
			result.Lines, result.TeamsCreated, result.PeopleCreated, result.MembershipsAdded, result.Skipped),
		Data: result,
	}
}

func saveUpdate(n int) ProgressUpdate {
	return ProgressUpdate{Phase: SaveRoster, Step: n, Total: n, Message: fmt.Sprintf("Saved %d changes", n)}
}

func loadUpdate(teams, people int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadRoster,
		Message: fmt.Sprintf("Loaded %d teams and %d people", teams, people),
	}
}
