// Package tenant provides the isolation boundary every scoped query carries.
package tenant

import (
	"time"

	"github.com/google/uuid"
)

// Tenant is the isolation boundary for all scoped entities.
type Tenant struct {
	ID        uuid.UUID
	Name      string
	Subdomain string
	IsActive  bool
	IsSystem  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CoreSubdomain is the subdomain reserved for the single system tenant.
const CoreSubdomain = "core"
