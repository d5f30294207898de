package roster

import (
	"fmt"

	"github.com/desertthunder/oneplusone/internal/shared"
)

var (
	// Validation errors
	ErrInvalidEmail    = shared.ErrInvalidEmail
	ErrInvalidTeamName = shared.ErrInvalidName
	ErrDuplicateTeam   = fmt.Errorf("%w: team already exists", shared.ErrValidation)
	ErrDuplicatePerson = fmt.Errorf("%w: person already exists", shared.ErrValidation)
	ErrTeamNotFound    = fmt.Errorf("%w: team not found", shared.ErrValidation)
	ErrPersonNotFound  = fmt.Errorf("%w: person not found", shared.ErrValidation)
	ErrAlreadyMember   = fmt.Errorf("%w: person is already a member of the team", shared.ErrValidation)
	ErrNotMember       = fmt.Errorf("%w: person is not a member of the team", shared.ErrValidation)

	// Invariant violations
	ErrTeamCountUnderflow = fmt.Errorf("%w: team count is 0", shared.ErrInvariant)
	ErrMissingPairing     = fmt.Errorf("%w: no pairing for known people", shared.ErrInvariant)
	ErrIneligiblePairing  = fmt.Errorf("%w: pairing is not valid for selection", shared.ErrInvariant)
	ErrCorruptSnapshot    = fmt.Errorf("%w: stored roster is inconsistent", shared.ErrInvariant)
)
