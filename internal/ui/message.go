package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/oneplusone/internal/models"
	"github.com/desertthunder/oneplusone/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgRosterLoaded MsgKind = iota
	MsgRoundGenerated
	MsgSaved
	MsgProgressUpdate
)

type rosterData struct {
	org  []models.TeamRoster
	rows []models.PairingRow
}

type roundData struct {
	round models.Round
	err   error
}

type savedData struct {
	n   int
	err error
}

// rosterLoadedMsg is the constructor for [MsgRosterLoaded]
func rosterLoadedMsg(org []models.TeamRoster, rows []models.PairingRow) Msg {
	return Msg{kind: MsgRosterLoaded, data: rosterData{org: org, rows: rows}}
}

// roundGeneratedMsg is the constructor for [MsgRoundGenerated]
func roundGeneratedMsg(round models.Round, err error) Msg {
	return Msg{kind: MsgRoundGenerated, data: roundData{round: round, err: err}}
}

// savedMsg is the constructor for [MsgSaved]
func savedMsg(n int, err error) Msg {
	return Msg{kind: MsgSaved, data: savedData{n: n, err: err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}
