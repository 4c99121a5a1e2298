package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate indicates a uniqueness conflict (email already registered).
	ErrDuplicate = errors.New("duplicate entry")
	// ErrInvalidCredentials indicates login failure. Unknown identifier,
	// deactivated account and wrong password all map here so callers cannot
	// probe which accounts exist.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrTokenInvalid covers bad signature, malformed payload, elapsed TTL
	// and revoked tokens alike.
	ErrTokenInvalid = errors.New("token expired or invalid")
	// ErrPrincipalRevoked means the token verified but the account behind it
	// is no longer eligible (deactivated, or its role was removed).
	ErrPrincipalRevoked = errors.New("principal revoked")
	// ErrPermissionDenied means the principal lacks the required grant.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrCatalogIntegrity signals a role/permission mapping the catalog cannot
	// resolve. Fatal for the operation; never degrades to allow.
	ErrCatalogIntegrity = errors.New("rbac catalog integrity violation")
)
