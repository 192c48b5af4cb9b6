// Package rbac implements permission resolution and grant assignment for the
// portal. Roles and grants are tenant-scoped; the permission catalog is global.
package rbac

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Permission represents an atomic capability. Equality is by ID only; two
// records with the same ID are the same permission regardless of other fields.
type Permission struct {
	ID          int64
	Code        string
	Name        string
	Module      string
	Description string
	IsActive    bool
	IsDeleted   bool
}

// Role represents a named permission grouping within a tenant.
type Role struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	Name         string
	Description  string
	IsSystemRole bool
	IsDeleted    bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RoleGrant ties a permission to a role.
type RoleGrant struct {
	RoleID       uuid.UUID
	PermissionID int64
	CreatedAt    time.Time
	CreatedBy    string
}

// DirectGrant ties a permission to a user outside any role.
type DirectGrant struct {
	UserID       uuid.UUID
	PermissionID int64
	CreatedAt    time.Time
	CreatedBy    string
}

// RoleAssignment links a user to a role.
type RoleAssignment struct {
	UserID    uuid.UUID
	RoleID    uuid.UUID
	CreatedAt time.Time
	CreatedBy string
}

// Claim is an authorization token entry embedded into session credentials by
// the credential-issuance layer.
type Claim struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// ClaimTypePermission is the claim type carried for each effective permission.
const ClaimTypePermission = "Permission"

// RoleClass partitions roles by the grant policy that applies to them.
type RoleClass int

const (
	// ClassOrdinary roles hold exactly the granted permission set.
	ClassOrdinary RoleClass = iota
	// ClassUniversalAccess roles bypass permission checks entirely.
	ClassUniversalAccess
	// ClassBaselineNonSystem roles always hold every non-system permission.
	ClassBaselineNonSystem
)

// Classify maps a role to its grant policy class. Only system roles carry
// reserved semantics; tenant-created roles are always ordinary no matter how
// they are named.
func Classify(r Role) RoleClass {
	if !r.IsSystemRole {
		return ClassOrdinary
	}
	switch normalizeRoleName(r.Name) {
	case "SUPERADMIN":
		return ClassUniversalAccess
	case "ADMIN", "ADMINISTRATOR":
		return ClassBaselineNonSystem
	}
	return ClassOrdinary
}

func normalizeRoleName(name string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(name), " ", ""))
}
