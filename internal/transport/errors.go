package transport

import (
	"errors"
	"net/http"

	"github.com/rpggio/riskdraft/internal/domain/table"
	"github.com/rpggio/riskdraft/internal/domain/workspace"
)

// MapError maps domain errors to an HTTP status and error body.
func MapError(err error) (int, ErrorResponse) {
	var validation *workspace.ValidationError
	var external *workspace.ExternalCallError

	switch {
	case errors.As(err, &validation):
		return http.StatusUnprocessableEntity, ErrorResponse{
			Code:    "VALIDATION",
			Message: validation.Reason,
			Field:   validation.Field,
		}
	case errors.Is(err, workspace.ErrValidation):
		return http.StatusUnprocessableEntity, ErrorResponse{Code: "VALIDATION", Message: err.Error()}
	case errors.As(err, &external):
		return http.StatusBadGateway, ErrorResponse{
			Code:    "EXTERNAL_CALL_FAILED",
			Message: "the analysis service call failed",
			Stage:   string(external.Stage),
		}
	case errors.Is(err, workspace.ErrBusy):
		return http.StatusConflict, ErrorResponse{Code: "BUSY", Message: "the same operation is already running"}
	case errors.Is(err, workspace.ErrProcessNotFound):
		return http.StatusNotFound, ErrorResponse{Code: "PROCESS_NOT_FOUND", Message: "process not found"}
	case errors.Is(err, table.ErrUnknownField), errors.Is(err, table.ErrUnknownDirection):
		return http.StatusBadRequest, ErrorResponse{Code: "BAD_REQUEST", Message: err.Error()}
	default:
		return http.StatusInternalServerError, ErrorResponse{Code: "INTERNAL", Message: "internal error"}
	}
}
