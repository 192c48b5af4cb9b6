package shared

import "errors"

// Error taxonomy shared across the permission engine and its HTTP surface.
var (
	// ErrPrincipalNotFound indicates the referenced user does not exist.
	ErrPrincipalNotFound = errors.New("principal not found")
	// ErrRoleNotFound indicates the referenced role does not exist.
	ErrRoleNotFound = errors.New("role not found")
	// ErrPermissionNotFound indicates a referenced permission id is unknown.
	ErrPermissionNotFound = errors.New("permission not found")
	// ErrTenantNotFound indicates the tenant could not be resolved.
	ErrTenantNotFound = errors.New("tenant not found")
	// ErrInvalidIdentifier indicates a malformed principal/role/tenant key.
	ErrInvalidIdentifier = errors.New("invalid identifier")
	// ErrDuplicate indicates a uniqueness conflict.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrValidation indicates request validation failure.
	ErrValidation = errors.New("validation failed")
	// ErrForbidden indicates the actor lacks a required permission.
	ErrForbidden = errors.New("forbidden")
)
