package window

import (
	"errors"
	"fmt"
)

var (
	// ErrIncompleteWindow is returned when a prediction is requested while
	// at least one slot is empty.
	ErrIncompleteWindow = errors.New("predictions require all 15 numbers to be filled in")
	// ErrMissingActual is returned by Shift when no actual value is staged.
	ErrMissingActual = errors.New("enter the actual 16th number before shifting")
	// ErrNoPrediction is returned by Shift when there is no prediction to confirm.
	ErrNoPrediction = errors.New("predict the next number before shifting")
	// ErrBusy is returned when a prediction is requested while another one
	// is still in flight.
	ErrBusy = errors.New("a prediction is already in progress")
	// ErrWindowChanged is returned when the window was edited while its
	// prediction was in flight; the stale result is discarded.
	ErrWindowChanged = errors.New("the numbers changed while predicting; predict again")
)

// ValidationError reports a value or index rejected at the boundary.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is, or wraps, a *ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}
