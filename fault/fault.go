// Package fault defines the typed failure taxonomy shared across services.
// Business-rule failures are sentinel errors callers test with errors.Is;
// validation failures carry the full accumulated message list.
package fault

import (
	"errors"
	"strings"
)

var (
	ErrNotFound                = errors.New("not found")
	ErrAccessDenied            = errors.New("access denied")
	ErrNotAcceptingSubmissions = errors.New("form is not accepting submissions")
	ErrSubmissionWindowClosed  = errors.New("submission window is closed")
	ErrDuplicateSubmission     = errors.New("duplicate submission")
	ErrConflict                = errors.New("conflicting concurrent edit")
	ErrPersistenceUnavailable  = errors.New("persistent store unavailable")
)

// ValidationError carries every field-labeled problem found in a submission.
// It is always a complete batch, never truncated at the first error.
type ValidationError struct {
	Errors []string
}

func Validation(errs []string) *ValidationError {
	return &ValidationError{Errors: errs}
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Errors, "; ")
}

// AsValidation unwraps err into a ValidationError if it is one.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
