package domain

import "errors"

var (
	// Common domain errors
	ErrStaleSession       = errors.New("session missing or expired")
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrNoUsername         = errors.New("telegram username required")
)

// ValidationError carries a user-facing re-prompt. It never transitions the
// workflow; the current step stays as it is and the user may retry.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// NewValidationError wraps a human-readable rejection reason.
func NewValidationError(reason string) *ValidationError {
	return &ValidationError{Reason: reason}
}

// AsValidation reports whether err is a validation rejection and returns it.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
