package httpx

import (
	"errors"
	"net/http"

	"github.com/meridian-crm/meridian-crm/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807.
// Authentication failures share one body per error class so responses never
// reveal which specific check failed.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrInvalidCredentials):
		Problem(w, http.StatusUnauthorized, "Invalid Credentials", "email or password is incorrect")
	case errors.Is(err, shared.ErrTokenInvalid):
		Problem(w, http.StatusUnauthorized, "Session Invalid", "session is expired or invalid, log in again")
	case errors.Is(err, shared.ErrPrincipalRevoked):
		Problem(w, http.StatusUnauthorized, "Account Revoked", "account is no longer eligible for this session")
	case errors.Is(err, shared.ErrPermissionDenied):
		Problem(w, http.StatusForbidden, "Permission Denied", "missing required permission")
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, shared.ErrCatalogIntegrity):
		Problem(w, http.StatusInternalServerError, "Catalog Integrity", "authorization catalog is inconsistent")
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
