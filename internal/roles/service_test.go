package roles

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portal-agile/portal-agile/internal/shared"
)

type mockRepo struct {
	tenantID uuid.UUID
	roles    map[uuid.UUID]*Role
	grants   map[uuid.UUID][]GrantView
}

func newMockRepo(tenantID uuid.UUID) *mockRepo {
	return &mockRepo{
		tenantID: tenantID,
		roles:    make(map[uuid.UUID]*Role),
		grants:   make(map[uuid.UUID][]GrantView),
	}
}

func (m *mockRepo) addRole(name string, system bool) uuid.UUID {
	id := uuid.New()
	m.roles[id] = &Role{ID: id, TenantID: m.tenantID, Name: name, IsSystemRole: system}
	return id
}

func (m *mockRepo) ListRoles(ctx context.Context, tenantID uuid.UUID) ([]Role, error) {
	var list []Role
	for _, role := range m.roles {
		if role.TenantID == tenantID {
			list = append(list, *role)
		}
	}
	return list, nil
}

func (m *mockRepo) GetRole(ctx context.Context, tenantID, roleID uuid.UUID) (*Role, error) {
	role, ok := m.roles[roleID]
	if !ok || role.TenantID != tenantID {
		return nil, shared.ErrRoleNotFound
	}
	copied := *role
	return &copied, nil
}

func (m *mockRepo) CreateRole(ctx context.Context, role Role) error {
	for _, existing := range m.roles {
		if existing.TenantID == role.TenantID && existing.Name == role.Name {
			return shared.ErrDuplicate
		}
	}
	stored := role
	m.roles[role.ID] = &stored
	return nil
}

func (m *mockRepo) UpdateRole(ctx context.Context, tenantID, roleID uuid.UUID, name, description string) error {
	role, ok := m.roles[roleID]
	if !ok || role.TenantID != tenantID {
		return shared.ErrRoleNotFound
	}
	role.Name = name
	role.Description = description
	return nil
}

func (m *mockRepo) DeleteRole(ctx context.Context, tenantID, roleID uuid.UUID) error {
	role, ok := m.roles[roleID]
	if !ok || role.TenantID != tenantID {
		return shared.ErrRoleNotFound
	}
	if role.IsSystemRole {
		return shared.ErrForbidden
	}
	delete(m.roles, roleID)
	return nil
}

func (m *mockRepo) ListGrants(ctx context.Context, tenantID, roleID uuid.UUID) ([]GrantView, error) {
	return m.grants[roleID], nil
}

func TestCreateRoleRejectsReservedNames(t *testing.T) {
	tenantID := uuid.New()
	svc := NewService(newMockRepo(tenantID))

	for _, name := range []string{"SuperAdmin", "super admin", "ADMIN", "Administrator", "Support"} {
		_, err := svc.CreateRole(context.Background(), tenantID, name, "")
		assert.ErrorIs(t, err, shared.ErrValidation, "name %q must be reserved", name)
	}
}

func TestCreateRoleTrimsAndStores(t *testing.T) {
	tenantID := uuid.New()
	repo := newMockRepo(tenantID)
	svc := NewService(repo)

	role, err := svc.CreateRole(context.Background(), tenantID, "  Payroll Clerks ", " handles payroll ")
	require.NoError(t, err)
	assert.Equal(t, "Payroll Clerks", role.Name)
	assert.Equal(t, "handles payroll", role.Description)
	assert.False(t, role.IsSystemRole)
}

func TestCreateRoleDuplicateName(t *testing.T) {
	tenantID := uuid.New()
	repo := newMockRepo(tenantID)
	repo.addRole("Editors", false)
	svc := NewService(repo)

	_, err := svc.CreateRole(context.Background(), tenantID, "Editors", "")
	assert.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestUpdateSystemRoleKeepsName(t *testing.T) {
	tenantID := uuid.New()
	repo := newMockRepo(tenantID)
	roleID := repo.addRole("Admin", true)
	svc := NewService(repo)

	require.NoError(t, svc.UpdateRole(context.Background(), tenantID, roleID, "Renamed", "tenant administrators"))

	role, err := svc.GetRole(context.Background(), tenantID, roleID)
	require.NoError(t, err)
	assert.Equal(t, "Admin", role.Name)
	assert.Equal(t, "tenant administrators", role.Description)
}

func TestUpdateOrdinaryRoleRejectsReservedName(t *testing.T) {
	tenantID := uuid.New()
	repo := newMockRepo(tenantID)
	roleID := repo.addRole("Editors", false)
	svc := NewService(repo)

	err := svc.UpdateRole(context.Background(), tenantID, roleID, "SuperAdmin", "")
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestDeleteSystemRoleForbidden(t *testing.T) {
	tenantID := uuid.New()
	repo := newMockRepo(tenantID)
	roleID := repo.addRole("SuperAdmin", true)
	svc := NewService(repo)

	err := svc.DeleteRole(context.Background(), tenantID, roleID)
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestListGrantsUnknownRole(t *testing.T) {
	tenantID := uuid.New()
	svc := NewService(newMockRepo(tenantID))

	_, err := svc.ListGrants(context.Background(), tenantID, uuid.New())
	assert.ErrorIs(t, err, shared.ErrRoleNotFound)
}
