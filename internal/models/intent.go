package models

import "fmt"

// IntentKind names the kind of durable write an [Intent] performs.
type IntentKind int

const (
	KindInsertTeam IntentKind = iota
	KindDeleteTeam
	KindInsertPerson
	KindInsertMembership
	KindDeleteMembership
	KindInsertPairing
	KindUpdatePairing
	KindAdvanceSequence
)

func (k IntentKind) String() string {
	switch k {
	case KindInsertTeam:
		return "insert_team"
	case KindDeleteTeam:
		return "delete_team"
	case KindInsertPerson:
		return "insert_person"
	case KindInsertMembership:
		return "insert_membership"
	case KindDeleteMembership:
		return "delete_membership"
	case KindInsertPairing:
		return "insert_pairing"
	case KindUpdatePairing:
		return "update_pairing"
	case KindAdvanceSequence:
		return "advance_sequence"
	default:
		return ""
	}
}

// Intent is a queued durable write. Implementations hold value copies taken when the intent was scheduled.
type Intent interface {
	Kind() IntentKind
	String() string
}

// Sequence names an id counter persisted as a high-water mark.
type Sequence string

const (
	SeqTeam       Sequence = "team"
	SeqPerson     Sequence = "person"
	SeqMembership Sequence = "team_person_connection"
	SeqPairing    Sequence = "pairing"
)

type (
	// InsertTeam persists a new team.
	InsertTeam struct {
		ID   TeamID
		Name string
	}

	// DeleteTeam removes a team row. Memberships are deleted by their own intents first.
	DeleteTeam struct {
		ID TeamID
	}

	// InsertPerson persists a new person.
	InsertPerson struct {
		ID    PersonID
		Email string
	}

	// InsertMembership persists a team_person_connection edge.
	InsertMembership struct {
		ID       int64
		TeamID   TeamID
		PersonID PersonID
	}

	// DeleteMembership removes a team_person_connection edge.
	DeleteMembership struct {
		TeamID   TeamID
		PersonID PersonID
	}

	// InsertPairing persists a new pairing with zero counts.
	InsertPairing struct {
		ID  int64
		Key PairKey
	}

	// UpdatePairing writes both counters of a pairing.
	UpdatePairing struct {
		Key          PairKey
		PairingCount uint
		TeamCount    uint
	}

	// AdvanceSequence raises a persisted id high-water mark. It never lowers one.
	AdvanceSequence struct {
		Name  Sequence
		Value int64
	}
)

func (InsertTeam) Kind() IntentKind       { return KindInsertTeam }
func (DeleteTeam) Kind() IntentKind       { return KindDeleteTeam }
func (InsertPerson) Kind() IntentKind     { return KindInsertPerson }
func (InsertMembership) Kind() IntentKind { return KindInsertMembership }
func (DeleteMembership) Kind() IntentKind { return KindDeleteMembership }
func (InsertPairing) Kind() IntentKind    { return KindInsertPairing }
func (UpdatePairing) Kind() IntentKind    { return KindUpdatePairing }
func (AdvanceSequence) Kind() IntentKind  { return KindAdvanceSequence }

func (i InsertTeam) String() string { return fmt.Sprintf("insert team %d %q", i.ID, i.Name) }
func (i DeleteTeam) String() string { return fmt.Sprintf("delete team %d", i.ID) }
func (i InsertPerson) String() string {
	return fmt.Sprintf("insert person %d %q", i.ID, i.Email)
}
func (i InsertMembership) String() string {
	return fmt.Sprintf("insert membership %d (team %d, person %d)", i.ID, i.TeamID, i.PersonID)
}
func (i DeleteMembership) String() string {
	return fmt.Sprintf("delete membership (team %d, person %d)", i.TeamID, i.PersonID)
}
func (i InsertPairing) String() string { return fmt.Sprintf("insert pairing %d %s", i.ID, i.Key) }
func (i UpdatePairing) String() string {
	return fmt.Sprintf("update pairing %s pairing_count=%d team_count=%d", i.Key, i.PairingCount, i.TeamCount)
}
func (i AdvanceSequence) String() string {
	return fmt.Sprintf("advance sequence %s to %d", i.Name, i.Value)
}

// TeamRecord is a stored team row.
type TeamRecord struct {
	ID   TeamID
	Name string
}

// PersonRecord is a stored person row.
type PersonRecord struct {
	ID    PersonID
	Email string
}

// MembershipRecord is a stored team_person_connection row.
type MembershipRecord struct {
	ID       int64
	TeamID   TeamID
	PersonID PersonID
}

// Snapshot is everything read back from durable storage, each slice ordered by id.
type Snapshot struct {
	Teams       []TeamRecord
	People      []PersonRecord
	Memberships []MembershipRecord
	Pairings    []Pairing
	Sequences   map[Sequence]int64
}

// Empty reports whether the snapshot holds no roster rows.
func (s *Snapshot) Empty() bool {
	return len(s.Teams) == 0 && len(s.People) == 0 && len(s.Memberships) == 0 && len(s.Pairings) == 0
}
