package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/portal-agile/portal-agile/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	List(ctx context.Context, tenantID uuid.UUID) ([]User, error)
	GetByID(ctx context.Context, tenantID, userID uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*User, error)
	Create(ctx context.Context, u User) error
	Deactivate(ctx context.Context, tenantID, userID uuid.UUID) error
	AssignRole(ctx context.Context, tenantID, userID, roleID uuid.UUID, actor string) error
	RemoveRole(ctx context.Context, tenantID, userID, roleID uuid.UUID) error
	ListRoleAssignments(ctx context.Context, tenantID, userID uuid.UUID) ([]RoleAssignment, error)
}

// Service handles user business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListUsers returns the tenant's users.
func (s *Service) ListUsers(ctx context.Context, tenantID uuid.UUID) ([]User, error) {
	return s.repo.List(ctx, tenantID)
}

// GetUser returns one user.
func (s *Service) GetUser(ctx context.Context, tenantID, userID uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, tenantID, userID)
}

// GetUserByEmail returns one user by email, matching case-insensitively.
func (s *Service) GetUserByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*User, error) {
	return s.repo.GetByEmail(ctx, tenantID, strings.ToLower(strings.TrimSpace(email)))
}

// CreateUser registers a new active account. Emails are stored lowercased.
func (s *Service) CreateUser(ctx context.Context, tenantID uuid.UUID, email, firstName, lastName string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", shared.ErrValidation)
	}
	u := User{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Email:     email,
		FirstName: strings.TrimSpace(firstName),
		LastName:  strings.TrimSpace(lastName),
		IsActive:  true,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return &u, nil
}

// DeactivateUser disables the account. Grants and assignments are kept so
// reactivation restores the previous access.
func (s *Service) DeactivateUser(ctx context.Context, tenantID, userID uuid.UUID) error {
	return s.repo.Deactivate(ctx, tenantID, userID)
}

// AssignRole links the user to a role in the same tenant.
func (s *Service) AssignRole(ctx context.Context, tenantID, userID, roleID uuid.UUID, actor string) error {
	return s.repo.AssignRole(ctx, tenantID, userID, roleID, actor)
}

// RemoveRole unlinks the user from a role.
func (s *Service) RemoveRole(ctx context.Context, tenantID, userID, roleID uuid.UUID) error {
	return s.repo.RemoveRole(ctx, tenantID, userID, roleID)
}

// ListRoleAssignments returns the user's role links.
func (s *Service) ListRoleAssignments(ctx context.Context, tenantID, userID uuid.UUID) ([]RoleAssignment, error) {
	return s.repo.ListRoleAssignments(ctx, tenantID, userID)
}
