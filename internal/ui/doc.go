// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI browses the roster and drives rounds:
//  1. [TeamListView] : Browse teams and their sizes
//  2. [MemberView] : Members of one team with how often each pair has met
//  3. [RoundView] : The most recently generated round
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Saves and generated rounds run as commands against a [Roster], normally a [tasks.PairingEngine].
// Quitting flushes pending changes first.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, g, s, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
