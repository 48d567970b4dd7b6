/*
errors.go - Centralized error types for the commission engine

PURPOSE:
  All engine error types in one place. The engine itself is pure and can
  only fail on malformed input shape; store-facing errors are defined here
  too so callers classify everything with errors.Is.

SEE ALSO:
  - engine.go: Validates input and returns these errors
  - donation/store.go: Store contracts that surface them
*/
package commission

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidClosingDay is returned when the closing day is outside [1, 28].
	// Configuration boundaries should reject such values before they reach
	// the engine; the engine still fails fast rather than emit corrupt entries.
	ErrInvalidClosingDay = errors.New("closing day must be between 1 and 28")

	// ErrEntryNotFound is returned when marking an entry id that the current
	// donation snapshot does not produce.
	ErrEntryNotFound = errors.New("commission entry not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ClosingDayError reports the offending value alongside the sentinel.
type ClosingDayError struct {
	Day int
}

func (e *ClosingDayError) Error() string {
	return fmt.Sprintf("invalid closing day %d: must be between %d and %d", e.Day, MinClosingDay, MaxClosingDay)
}

func (e *ClosingDayError) Unwrap() error { return ErrInvalidClosingDay }

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidClosingDay)
}

// IsNotFound returns true if the error indicates a missing entry.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEntryNotFound)
}
