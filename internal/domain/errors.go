package domain

import "fmt"

// ValidationError reports invalid engine input (allocation weights not
// summing to 1.0, negative shares or prices). It is raised immediately,
// never normalized silently.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid input %s: %s", e.Field, e.Reason)
}

// NewValidationError creates a ValidationError for a field
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// InsufficientLotSharesError reports a sale request that exceeds the total
// shares available across a ticker's tax lots. Sales are never silently
// partial-filled.
type InsufficientLotSharesError struct {
	Ticker    string
	Requested float64
	Available float64
}

func (e *InsufficientLotSharesError) Error() string {
	return fmt.Sprintf("insufficient lot shares for %s: requested %.4f, available %.4f",
		e.Ticker, e.Requested, e.Available)
}
