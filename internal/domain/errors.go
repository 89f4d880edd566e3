package domain

import "errors"

// Error kinds. Callers wrap these with fmt.Errorf("...: %w", kind) so the
// transport layer can classify failures with errors.Is without depending on
// message text.
var (
	// ErrNotFound is returned when a referenced session, question, or
	// student does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState is returned when an operation is illegal for the
	// current session or quiz status.
	ErrInvalidState = errors.New("invalid state")
	// ErrValidation is returned for malformed input (wrong option count,
	// code not 4 digits, empty required field).
	ErrValidation = errors.New("validation failed")
	// ErrDuplicateCode signals a join-code collision among active sessions.
	// The engine retries code generation instead of surfacing it.
	ErrDuplicateCode = errors.New("duplicate session code")
)
