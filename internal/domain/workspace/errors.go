package workspace

import (
	"errors"
	"fmt"

	"github.com/rpggio/riskdraft/internal/domain/archive"
)

// Stage names the external call that failed.
type Stage string

const (
	StageDraft       Stage = "draft"
	StageSupplement  Stage = "supplement"
	StageSaveSummary Stage = "save-summary"
)

var (
	// ErrBusy indicates a call of the same kind is already in flight.
	ErrBusy = errors.New("operation already in progress")
	// ErrExternalCall is the class of analyzer and summarizer failures.
	ErrExternalCall = errors.New("external call failed")
	// ErrValidation is shared with the archive so callers map one class.
	ErrValidation = archive.ErrValidation
	// ErrProcessNotFound indicates an edit of an unknown process.
	ErrProcessNotFound = archive.ErrProcessNotFound
)

// ValidationError names the rejected input.
type ValidationError = archive.ValidationError

// ExternalCallError wraps a collaborator failure with the stage it hit.
type ExternalCallError struct {
	Stage Stage
	Err   error
}

func (e *ExternalCallError) Error() string {
	return fmt.Sprintf("%s call failed: %v", e.Stage, e.Err)
}

func (e *ExternalCallError) Unwrap() error { return e.Err }

// Is makes every ExternalCallError match ErrExternalCall.
func (e *ExternalCallError) Is(target error) bool {
	return target == ErrExternalCall
}
