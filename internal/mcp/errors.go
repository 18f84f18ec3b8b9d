package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/riskdraft/internal/domain/table"
	"github.com/rpggio/riskdraft/internal/domain/workspace"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	if e.RecoveryHint != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.RecoveryHint)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain errors to MCP error codes. Unknown errors pass
// through unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	var validation *workspace.ValidationError
	var external *workspace.ExternalCallError

	switch {
	case errors.As(err, &validation):
		return &APIError{
			Code:         "VALIDATION",
			Message:      validation.Reason,
			Details:      map[string]string{"field": validation.Field},
			RecoveryHint: validationHint(validation.Field),
		}
	case errors.As(err, &external):
		return &APIError{
			Code:         "EXTERNAL_CALL_FAILED",
			Message:      fmt.Sprintf("%s call failed", external.Stage),
			Details:      map[string]string{"stage": string(external.Stage)},
			RecoveryHint: "The workspace is unchanged; try again",
		}
	case errors.Is(err, workspace.ErrBusy):
		return &APIError{Code: "BUSY", Message: "the same operation is already running", RecoveryHint: "Wait for it to finish"}
	case errors.Is(err, workspace.ErrProcessNotFound):
		return &APIError{Code: "PROCESS_NOT_FOUND", Message: "process not found", RecoveryHint: "Call list_processes for valid ids"}
	case errors.Is(err, table.ErrUnknownField):
		return &APIError{Code: "UNKNOWN_FIELD", Message: err.Error(), RecoveryHint: "Use unitTask, potentialHazard, safetyMeasure or reflectedItems"}
	case errors.Is(err, table.ErrUnknownDirection):
		return &APIError{Code: "UNKNOWN_DIRECTION", Message: err.Error(), RecoveryHint: "Use up or down"}
	default:
		return err
	}
}

func validationHint(field string) string {
	switch field {
	case "title":
		return "Call set_title first"
	case "rows":
		return "Fill in at least one unit task"
	case "archive":
		return "Save a process first"
	default:
		return ""
	}
}
