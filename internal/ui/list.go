package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/oneplusone/internal/models"
)

var (
	_ list.Item = teamItem{}
	_ list.Item = memberItem{}
)

// teamItem wraps [models.TeamRoster] to implement [list.Item].
type teamItem struct {
	roster models.TeamRoster
}

func (i teamItem) FilterValue() string { return i.roster.Team.Name }
func (i teamItem) Title() string       { return i.roster.Team.Name }
func (i teamItem) Description() string {
	switch n := len(i.roster.Members); n {
	case 0:
		return "no members"
	case 1:
		return "1 member"
	default:
		return fmt.Sprintf("%d members", n)
	}
}

// memberItem wraps a [models.Person] with their pairing counts against the rest of the team.
type memberItem struct {
	person models.Person
	counts []pairCount
}

type pairCount struct {
	email string
	count uint
}

func (i memberItem) FilterValue() string { return i.person.Email }
func (i memberItem) Title() string       { return i.person.Email }
func (i memberItem) Description() string {
	if len(i.counts) == 0 {
		return "no teammates"
	}
	parts := make([]string, 0, len(i.counts))
	for _, c := range i.counts {
		parts = append(parts, fmt.Sprintf("%s ×%d", c.email, c.count))
	}
	return strings.Join(parts, " • ")
}

// memberItems builds one item per member of r with counts taken from rows.
func memberItems(r models.TeamRoster, rows []models.PairingRow) []list.Item {
	counts := make(map[[2]models.PersonID]uint, len(rows))
	for _, row := range rows {
		counts[[2]models.PersonID{row.First.ID, row.Second.ID}] = row.PairingCount
		counts[[2]models.PersonID{row.Second.ID, row.First.ID}] = row.PairingCount
	}

	items := make([]list.Item, 0, len(r.Members))
	for _, p := range r.Members {
		item := memberItem{person: p}
		for _, q := range r.Members {
			if q.ID == p.ID {
				continue
			}
			item.counts = append(item.counts, pairCount{email: q.Email, count: counts[[2]models.PersonID{p.ID, q.ID}]})
		}
		items = append(items, item)
	}
	return items
}
