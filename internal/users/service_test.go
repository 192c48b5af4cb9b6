package users

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
	users    map[uuid.UUID]*User
	byEmail  map[string]uuid.UUID
	roles    map[uuid.UUID]string
	assigned map[uuid.UUID]map[uuid.UUID]bool

	createErr error
}

func newMockRepo(tenantID uuid.UUID) *mockRepo {
	return &mockRepo{
		tenantID: tenantID,
		users:    make(map[uuid.UUID]*User),
		byEmail:  make(map[string]uuid.UUID),
		roles:    make(map[uuid.UUID]string),
		assigned: make(map[uuid.UUID]map[uuid.UUID]bool),
	}
}

func (m *mockRepo) addUser(email string) uuid.UUID {
	id := uuid.New()
	m.users[id] = &User{ID: id, TenantID: m.tenantID, Email: email, IsActive: true}
	m.byEmail[email] = id
	return id
}

func (m *mockRepo) addRole(name string) uuid.UUID {
	id := uuid.New()
	m.roles[id] = name
	return id
}

func (m *mockRepo) List(ctx context.Context, tenantID uuid.UUID) ([]User, error) {
	var list []User
	for _, u := range m.users {
		if u.TenantID == tenantID {
			list = append(list, *u)
		}
	}
	return list, nil
}

func (m *mockRepo) GetByID(ctx context.Context, tenantID, userID uuid.UUID) (*User, error) {
	u, ok := m.users[userID]
	if !ok || u.TenantID != tenantID {
		return nil, shared.ErrPrincipalNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *mockRepo) GetByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*User, error) {
	id, ok := m.byEmail[email]
	if !ok {
		return nil, shared.ErrPrincipalNotFound
	}
	return m.GetByID(ctx, tenantID, id)
}

func (m *mockRepo) Create(ctx context.Context, u User) error {
	if m.createErr != nil {
		return m.createErr
	}
	if _, dup := m.byEmail[u.Email]; dup {
		return shared.ErrDuplicate
	}
	stored := u
	m.users[u.ID] = &stored
	m.byEmail[u.Email] = u.ID
	return nil
}

func (m *mockRepo) Deactivate(ctx context.Context, tenantID, userID uuid.UUID) error {
	u, ok := m.users[userID]
	if !ok || u.TenantID != tenantID {
		return shared.ErrPrincipalNotFound
	}
	u.IsActive = false
	return nil
}

func (m *mockRepo) AssignRole(ctx context.Context, tenantID, userID, roleID uuid.UUID, actor string) error {
	u, ok := m.users[userID]
	if !ok || u.TenantID != tenantID {
		return shared.ErrPrincipalNotFound
	}
	if _, ok := m.roles[roleID]; !ok {
		return shared.ErrRoleNotFound
	}
	if m.assigned[userID] == nil {
		m.assigned[userID] = make(map[uuid.UUID]bool)
	}
	m.assigned[userID][roleID] = true
	return nil
}

func (m *mockRepo) RemoveRole(ctx context.Context, tenantID, userID, roleID uuid.UUID) error {
	delete(m.assigned[userID], roleID)
	return nil
}

func (m *mockRepo) ListRoleAssignments(ctx context.Context, tenantID, userID uuid.UUID) ([]RoleAssignment, error) {
	var list []RoleAssignment
	for roleID := range m.assigned[userID] {
		list = append(list, RoleAssignment{UserID: userID, RoleID: roleID, RoleName: m.roles[roleID]})
	}
	return list, nil
}

func TestCreateUserNormalizesEmail(t *testing.T) {
	tenantID := uuid.New()
	repo := newMockRepo(tenantID)
	svc := NewService(repo)

	u, err := svc.CreateUser(context.Background(), tenantID, "  Ada.Lovelace@Example.COM ", " Ada ", " Lovelace ")
	require.NoError(t, err)

	assert.Equal(t, "ada.lovelace@example.com", u.Email)
	assert.Equal(t, "Ada", u.FirstName)
	assert.Equal(t, "Lovelace", u.LastName)
	assert.True(t, u.IsActive)
}

func TestCreateUserRejectsEmptyEmail(t *testing.T) {
	tenantID := uuid.New()
	svc := NewService(newMockRepo(tenantID))

	_, err := svc.CreateUser(context.Background(), tenantID, "   ", "", "")
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	tenantID := uuid.New()
	repo := newMockRepo(tenantID)
	repo.addUser("taken@example.com")
	svc := NewService(repo)

	_, err := svc.CreateUser(context.Background(), tenantID, "taken@example.com", "", "")
	assert.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestAssignRoleUnknownRole(t *testing.T) {
	tenantID := uuid.New()
	repo := newMockRepo(tenantID)
	userID := repo.addUser("a@example.com")
	svc := NewService(repo)

	err := svc.AssignRole(context.Background(), tenantID, userID, uuid.New(), "tester")
	assert.ErrorIs(t, err, shared.ErrRoleNotFound)
}

func TestAssignAndRemoveRole(t *testing.T) {
	tenantID := uuid.New()
	repo := newMockRepo(tenantID)
	userID := repo.addUser("a@example.com")
	roleID := repo.addRole("Editors")
	svc := NewService(repo)

	require.NoError(t, svc.AssignRole(context.Background(), tenantID, userID, roleID, "tester"))

	list, err := svc.ListRoleAssignments(context.Background(), tenantID, userID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Editors", list[0].RoleName)

	require.NoError(t, svc.RemoveRole(context.Background(), tenantID, userID, roleID))
	list, err = svc.ListRoleAssignments(context.Background(), tenantID, userID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDeactivateUnknownUser(t *testing.T) {
	tenantID := uuid.New()
	svc := NewService(newMockRepo(tenantID))

	err := svc.DeactivateUser(context.Background(), tenantID, uuid.New())
	assert.ErrorIs(t, err, shared.ErrPrincipalNotFound)
}

func TestDeactivateKeepsUserVisible(t *testing.T) {
	tenantID := uuid.New()
	repo := newMockRepo(tenantID)
	userID := repo.addUser("a@example.com")
	svc := NewService(repo)

	require.NoError(t, svc.DeactivateUser(context.Background(), tenantID, userID))

	u, err := svc.GetUser(context.Background(), tenantID, userID)
	require.NoError(t, err)
	assert.False(t, u.IsActive)
}
