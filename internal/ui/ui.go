package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/oneplusone/internal/formatter"
	"github.com/desertthunder/oneplusone/internal/models"
	"github.com/desertthunder/oneplusone/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	TeamListView ViewState = iota
	MemberView
	RoundView
)

// Roster is the part of [tasks.PairingEngine] the TUI drives.
type Roster interface {
	Organization() []models.TeamRoster
	Pairings(validOnly bool) []models.PairingRow
	Generate() (models.Round, error)
	Save(ctx context.Context) (int, error)
	Pending() int
}

var _ Roster = (*tasks.PairingEngine)(nil)

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	view      ViewState
	engine    Roster
	width     int
	height    int
	teamList  list.Model
	org       []models.TeamRoster
	rows      []models.PairingRow
	members   list.Model
	selected  string
	round     *models.Round
	progress  <-chan tasks.ProgressUpdate
	status    string
	err       error
	quitting  bool
	forceQuit bool
	help      help.Model
	keys      keyMap
}

// NewModel creates a new TUI model. progress may be nil; otherwise its updates are shown in the
// status line.
func NewModel(ctx context.Context, engine Roster, progress <-chan tasks.ProgressUpdate) *Model {
	teams := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	teams.Title = "Teams"
	members := list.New(nil, list.NewDefaultDelegate(), 0, 0)

	return &Model{
		ctx:      ctx,
		view:     TeamListView,
		engine:   engine,
		teamList: teams,
		members:  members,
		progress: progress,
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Init loads the roster and starts listening for progress updates.
func (m *Model) Init() tea.Cmd {
	if m.progress == nil {
		return m.loadRoster()
	}
	return tea.Batch(m.loadRoster(), m.waitForProgress())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.teamList.SetSize(msg.Width-4, msg.Height-8)
		m.members.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgRosterLoaded:
		data := msg.data.(rosterData)
		m.org = data.org
		m.rows = data.rows
		items := make([]list.Item, len(data.org))
		for i, r := range data.org {
			items[i] = teamItem{roster: r}
		}
		cmd := m.teamList.SetItems(items)
		if m.view == MemberView {
			m.showMembers(m.selected)
		}
		return m, cmd

	case MsgRoundGenerated:
		data := msg.data.(roundData)
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.err = nil
		m.round = &data.round
		m.view = RoundView
		m.status = fmt.Sprintf("Generated %d pairs", len(data.round.Pairs))
		return m, m.loadRoster()

	case MsgSaved:
		data := msg.data.(savedData)
		if data.err != nil {
			m.err = data.err
			if m.quitting {
				m.quitting = false
				m.forceQuit = true
				m.status = "Save failed; press q again to quit without saving"
			}
			return m, nil
		}
		m.err = nil
		if m.quitting {
			return m, tea.Quit
		}
		m.status = fmt.Sprintf("Saved %d changes", data.n)
		return m, nil

	case MsgProgressUpdate:
		m.status = msg.data.(tasks.ProgressUpdate).Message
		return m, m.waitForProgress()
	}
	return m, nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.filtering() {
		return m.updateLists(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		if m.forceQuit {
			return m, tea.Quit
		}
		m.quitting = true
		m.status = "Saving before exit..."
		return m, m.save()
	case key.Matches(msg, m.keys.generate):
		return m, m.generate()
	case key.Matches(msg, m.keys.save):
		return m, m.save()
	case key.Matches(msg, m.keys.back):
		if m.view != TeamListView {
			m.view = TeamListView
			return m, nil
		}
	case key.Matches(msg, m.keys.enter):
		if m.view == TeamListView {
			if item, ok := m.teamList.SelectedItem().(teamItem); ok {
				m.showMembers(item.roster.Team.Name)
				m.view = MemberView
			}
			return m, nil
		}
	}

	return m.updateLists(msg)
}

func (m *Model) filtering() bool {
	switch m.view {
	case TeamListView:
		return m.teamList.FilterState() == list.Filtering
	case MemberView:
		return m.members.FilterState() == list.Filtering
	}
	return false
}

func (m *Model) showMembers(teamName string) {
	m.selected = teamName
	for _, r := range m.org {
		if r.Team.Name == teamName {
			m.members.SetItems(memberItems(r, m.rows))
			m.members.Title = fmt.Sprintf("Members of '%s'", r.Team.Name)
			return
		}
	}
	m.members.SetItems(nil)
	m.members.Title = fmt.Sprintf("'%s' no longer exists", teamName)
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case TeamListView:
		m.teamList, cmd = m.teamList.Update(msg)
	case MemberView:
		m.members, cmd = m.members.Update(msg)
	}
	return m, cmd
}

func (m *Model) loadRoster() tea.Cmd {
	return func() tea.Msg {
		return rosterLoadedMsg(m.engine.Organization(), m.engine.Pairings(false))
	}
}

func (m *Model) generate() tea.Cmd {
	return func() tea.Msg {
		round, err := m.engine.Generate()
		return roundGeneratedMsg(round, err)
	}
}

func (m *Model) save() tea.Cmd {
	return func() tea.Msg {
		n, err := m.engine.Save(m.ctx)
		return savedMsg(n, err)
	}
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		update, ok := <-m.progress
		if !ok {
			return nil
		}
		return progressUpdateMsg(update)
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var body string
	switch m.view {
	case TeamListView:
		body = m.renderList(m.teamList, m.keys.enter, m.keys.generate, m.keys.save, m.keys.quit)
	case MemberView:
		body = m.renderList(m.members, m.keys.back, m.keys.generate, m.keys.save, m.keys.quit)
	case RoundView:
		body = m.renderRound()
	}
	return body + "\n" + m.renderStatus()
}

func (m *Model) renderList(l list.Model, keys ...key.Binding) string {
	return fmt.Sprintf("%s\n\n%s", l.View(), m.help.ShortHelpView(keys))
}

func (m *Model) renderRound() string {
	if m.round == nil {
		return styles.warn.Render("No round generated yet")
	}

	var b strings.Builder
	b.WriteString(styles.title.Render("New pairing"))
	b.WriteString("\n")
	if len(m.round.Pairs) == 0 {
		b.WriteString(styles.warn.Render("No eligible pairs"))
		b.WriteString("\n")
	}
	for _, line := range strings.Split(strings.TrimRight(string(formatter.FormatRound(*m.round)), "\n"), "\n") {
		b.WriteString(styles.pair.Render(line))
		b.WriteString("\n")
	}
	if len(m.round.Unpaired) > 0 {
		emails := make([]string, len(m.round.Unpaired))
		for i, p := range m.round.Unpaired {
			emails[i] = p.Email
		}
		b.WriteString(styles.warn.Render("Unpaired: " + strings.Join(emails, ", ")))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.generate, m.keys.save, m.keys.quit}))
	return b.String()
}

func (m *Model) renderStatus() string {
	var parts []string
	if n := m.engine.Pending(); n > 0 {
		parts = append(parts, styles.warn.Render(fmt.Sprintf("%d unsaved changes", n)))
	}
	if m.err != nil {
		parts = append(parts, styles.err.Render(fmt.Sprintf("Error: %v", m.err)))
	} else if m.status != "" {
		parts = append(parts, styles.ok.Render(m.status))
	}
	return styles.help.Render(strings.Join(parts, "  "))
}
