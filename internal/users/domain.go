// Package users manages portal accounts and their role assignments.
package users

import (
	"time"

	"github.com/google/uuid"
)

// User is a portal account, always scoped to one tenant.
type User struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenantId"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FullName joins first and last name for display.
func (u User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// RoleAssignment links a user to one role within the tenant.
type RoleAssignment struct {
	UserID     uuid.UUID `json:"userId"`
	RoleID     uuid.UUID `json:"roleId"`
	RoleName   string    `json:"roleName"`
	AssignedAt time.Time `json:"assignedAt"`
	AssignedBy string    `json:"assignedBy"`
}
