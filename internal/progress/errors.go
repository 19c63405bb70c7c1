package progress

import "errors"

// Error kinds. Every failure returns control to an interactive state; none
// of these is fatal.
var (
	// ErrInputMismatch: wrong answer, recovered locally.
	ErrInputMismatch = errors.New("input mismatch")
	// ErrInvariantViolation: illegal transition, rejected with state unchanged.
	ErrInvariantViolation = errors.New("invariant violation")
	// ErrPersistenceCorrupt: a stored field could not be decoded and fell
	// back to its default. Logged, never shown to the player.
	ErrPersistenceCorrupt = errors.New("persistence corrupt")
)

// TransitionError describes a rejected or failed intent.
type TransitionError struct {
	Op     string // intent name, e.g. "advance"
	Kind   error  // one of the Err* kinds above
	Reason string
}

func (e *TransitionError) Error() string {
	return e.Op + ": " + e.Kind.Error() + ": " + e.Reason
}

func (e *TransitionError) Unwrap() error { return e.Kind }

func mismatch(op, reason string) *TransitionError {
	return &TransitionError{Op: op, Kind: ErrInputMismatch, Reason: reason}
}

func violation(op, reason string) *TransitionError {
	return &TransitionError{Op: op, Kind: ErrInvariantViolation, Reason: reason}
}

func corrupt(field, reason string) error {
	return &TransitionError{Op: "decode " + field, Kind: ErrPersistenceCorrupt, Reason: reason}
}
