package roles

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/portal-agile/portal-agile/internal/shared"
)

// RepositoryPort defines data access methods for roles.
type RepositoryPort interface {
	ListRoles(ctx context.Context, tenantID uuid.UUID) ([]Role, error)
	GetRole(ctx context.Context, tenantID, roleID uuid.UUID) (*Role, error)
	CreateRole(ctx context.Context, role Role) error
	UpdateRole(ctx context.Context, tenantID, roleID uuid.UUID, name, description string) error
	DeleteRole(ctx context.Context, tenantID, roleID uuid.UUID) error
	ListGrants(ctx context.Context, tenantID, roleID uuid.UUID) ([]GrantView, error)
}

// Service handles role business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListRoles returns the tenant's roles.
func (s *Service) ListRoles(ctx context.Context, tenantID uuid.UUID) ([]Role, error) {
	return s.repo.ListRoles(ctx, tenantID)
}

// GetRole returns one role.
func (s *Service) GetRole(ctx context.Context, tenantID, roleID uuid.UUID) (*Role, error) {
	return s.repo.GetRole(ctx, tenantID, roleID)
}

// CreateRole registers a new ordinary role. Reserved names are refused so a
// tenant cannot mint a second role with universal or baseline semantics.
func (s *Service) CreateRole(ctx context.Context, tenantID uuid.UUID, name, description string) (*Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: role name is required", shared.ErrValidation)
	}
	if isReservedName(name) {
		return nil, fmt.Errorf("%w: %q is a reserved role name", shared.ErrValidation, name)
	}
	role := Role{
		ID:          uuid.New(),
		TenantID:    tenantID,
		Name:        name,
		Description: strings.TrimSpace(description),
	}
	if err := s.repo.CreateRole(ctx, role); err != nil {
		return nil, err
	}
	return &role, nil
}

// UpdateRole renames a role. System roles keep their name; only the
// description may change.
func (s *Service) UpdateRole(ctx context.Context, tenantID, roleID uuid.UUID, name, description string) error {
	role, err := s.repo.GetRole(ctx, tenantID, roleID)
	if err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if role.IsSystemRole {
		name = role.Name
	} else {
		if name == "" {
			return fmt.Errorf("%w: role name is required", shared.ErrValidation)
		}
		if isReservedName(name) {
			return fmt.Errorf("%w: %q is a reserved role name", shared.ErrValidation, name)
		}
	}
	return s.repo.UpdateRole(ctx, tenantID, roleID, name, strings.TrimSpace(description))
}

// DeleteRole soft-deletes a role.
func (s *Service) DeleteRole(ctx context.Context, tenantID, roleID uuid.UUID) error {
	return s.repo.DeleteRole(ctx, tenantID, roleID)
}

// ListGrants returns the role's current grant set.
func (s *Service) ListGrants(ctx context.Context, tenantID, roleID uuid.UUID) ([]GrantView, error) {
	if _, err := s.repo.GetRole(ctx, tenantID, roleID); err != nil {
		return nil, err
	}
	return s.repo.ListGrants(ctx, tenantID, roleID)
}

func isReservedName(name string) bool {
	normalized := strings.ToUpper(strings.ReplaceAll(name, " ", ""))
	switch normalized {
	case "SUPERADMIN", "ADMIN", "ADMINISTRATOR", "SUPPORT":
		return true
	}
	return false
}
