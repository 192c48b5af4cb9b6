package httpx

import (
	"errors"
	"net/http"

	"github.com/portal-agile/portal-agile/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrPrincipalNotFound),
		errors.Is(err, shared.ErrRoleNotFound),
		errors.Is(err, shared.ErrPermissionNotFound),
		errors.Is(err, shared.ErrTenantNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrInvalidIdentifier):
		Problem(w, http.StatusBadRequest, "Invalid Identifier", err.Error())
	case errors.Is(err, shared.ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, shared.ErrForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
