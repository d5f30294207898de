package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Error classes. Package-level sentinels wrap one of these so callers can
	// branch on the class with errors.Is.
	ErrValidation = fmt.Errorf("validation failed")
	ErrInvariant  = fmt.Errorf("invariant violation")
	ErrStorage    = fmt.Errorf("storage failure")
	ErrLoadFormat = fmt.Errorf("malformed import line")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("%w: invalid input", ErrValidation)
	ErrMissingArgument = fmt.Errorf("%w: missing required argument", ErrValidation)
	ErrInvalidArgument = fmt.Errorf("%w: invalid argument", ErrValidation)
	ErrInvalidEmail    = fmt.Errorf("%w: invalid email", ErrValidation)
	ErrInvalidName     = fmt.Errorf("%w: invalid name", ErrValidation)

	// Database errors
	ErrDatabaseClosed = fmt.Errorf("%w: database is closed", ErrStorage)
)
