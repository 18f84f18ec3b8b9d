package archive

import "errors"

var (
	// ErrValidation is the class of user-correctable input errors.
	ErrValidation = errors.New("validation failed")
	// ErrProcessNotFound indicates the process doesn't exist.
	ErrProcessNotFound = errors.New("process not found")
	// ErrSummaryFailed indicates the summary collaborator failed during save.
	ErrSummaryFailed = errors.New("process summary failed")
)

// ValidationError describes which input was rejected.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

// Is makes every ValidationError match ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
