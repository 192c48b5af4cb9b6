// Package roles manages tenant role definitions.
package roles

import (
	"time"

	"github.com/google/uuid"
)

// Role is a named permission bundle within one tenant. System roles carry
// reserved assignment semantics and cannot be deleted.
type Role struct {
	ID           uuid.UUID `json:"id"`
	TenantID     uuid.UUID `json:"tenantId"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	IsSystemRole bool      `json:"isSystemRole"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// GrantView is one permission currently granted to a role.
type GrantView struct {
	PermissionID   int64     `json:"permissionId"`
	PermissionCode string    `json:"permissionCode"`
	PermissionName string    `json:"permissionName"`
	Module         string    `json:"module"`
	GrantedAt      time.Time `json:"grantedAt"`
	GrantedBy      string    `json:"grantedBy"`
}
