package rbac

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"

	"github.com/portal-agile/portal-agile/internal/shared"
)

var errInjected = errors.New("injected store failure")

// ============================================================================
// MOCK GRANT STORE
// ============================================================================

type mockStore struct {
	tenantID uuid.UUID

	users        map[uuid.UUID]bool
	roles        map[uuid.UUID]Role
	userRoles    map[uuid.UUID][]uuid.UUID
	roleGrants   map[uuid.UUID][]int64
	directGrants map[uuid.UUID][]int64
	catalog      map[int64]Permission

	// Error injection
	listUserRolesErr   error
	replaceTxBeginErr  error
	failInsertOnCall   int // fail the Nth InsertRoleGrant inside a tx (1-based)
	insertCalls        int
	directoryErr       error
	insertDirectErr    error
	beforeReplace      func() // runs after the pre-checks, before the tx body
}

func newMockStore() *mockStore {
	return &mockStore{
		tenantID:     uuid.New(),
		users:        make(map[uuid.UUID]bool),
		roles:        make(map[uuid.UUID]Role),
		userRoles:    make(map[uuid.UUID][]uuid.UUID),
		roleGrants:   make(map[uuid.UUID][]int64),
		directGrants: make(map[uuid.UUID][]int64),
		catalog:      make(map[int64]Permission),
	}
}

func (m *mockStore) addUser() uuid.UUID {
	id := uuid.New()
	m.users[id] = true
	return id
}

func (m *mockStore) addRole(name string, system bool) uuid.UUID {
	id := uuid.New()
	m.roles[id] = Role{ID: id, TenantID: m.tenantID, Name: name, IsSystemRole: system}
	return id
}

func (m *mockStore) addPermission(p Permission) Permission {
	m.catalog[p.ID] = p
	return p
}

func (m *mockStore) assign(userID, roleID uuid.UUID) {
	m.userRoles[userID] = append(m.userRoles[userID], roleID)
}

func (m *mockStore) GetRole(_ context.Context, tenantID, roleID uuid.UUID) (*Role, error) {
	role, ok := m.roles[roleID]
	if !ok || role.TenantID != tenantID || role.IsDeleted {
		return nil, shared.ErrRoleNotFound
	}
	return &role, nil
}

func (m *mockStore) ListUserRoles(_ context.Context, tenantID, userID uuid.UUID) ([]Role, error) {
	if m.listUserRolesErr != nil {
		return nil, m.listUserRolesErr
	}
	var roles []Role
	for _, roleID := range m.userRoles[userID] {
		role, ok := m.roles[roleID]
		if ok && role.TenantID == tenantID && !role.IsDeleted {
			roles = append(roles, role)
		}
	}
	return roles, nil
}

func (m *mockStore) ListRolePermissions(_ context.Context, roleID uuid.UUID) ([]Permission, error) {
	return m.activePermissions(m.roleGrants[roleID]), nil
}

func (m *mockStore) ListDirectPermissions(_ context.Context, _, userID uuid.UUID) ([]Permission, error) {
	return m.activePermissions(m.directGrants[userID]), nil
}

func (m *mockStore) ListActivePermissions(_ context.Context) ([]Permission, error) {
	ids := make([]int64, 0, len(m.catalog))
	for id := range m.catalog {
		ids = append(ids, id)
	}
	perms := m.activePermissions(ids)
	sort.Slice(perms, func(i, j int) bool {
		if perms[i].Module != perms[j].Module {
			return perms[i].Module < perms[j].Module
		}
		return perms[i].Name < perms[j].Name
	})
	return perms, nil
}

func (m *mockStore) UserHoldsPermission(ctx context.Context, tenantID, userID uuid.UUID, code string) (bool, error) {
	for _, roleID := range m.userRoles[userID] {
		for _, p := range m.activePermissions(m.roleGrants[roleID]) {
			if p.Code == code {
				return true, nil
			}
		}
	}
	for _, p := range m.activePermissions(m.directGrants[userID]) {
		if p.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockStore) DirectGrantExists(_ context.Context, userID uuid.UUID, permissionID int64) (bool, error) {
	for _, id := range m.directGrants[userID] {
		if id == permissionID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockStore) InsertDirectGrant(_ context.Context, userID uuid.UUID, permissionID int64, _ string) error {
	if m.insertDirectErr != nil {
		return m.insertDirectErr
	}
	m.directGrants[userID] = append(m.directGrants[userID], permissionID)
	return nil
}

func (m *mockStore) DeleteDirectGrants(_ context.Context, userID uuid.UUID, permissionIDs []int64) error {
	drop := make(map[int64]struct{}, len(permissionIDs))
	for _, id := range permissionIDs {
		drop[id] = struct{}{}
	}
	var kept []int64
	for _, id := range m.directGrants[userID] {
		if _, ok := drop[id]; !ok {
			kept = append(kept, id)
		}
	}
	m.directGrants[userID] = kept
	return nil
}

// ReplaceTx stages mutations on copies and commits them only when fn
// succeeds, mirroring the rollback guarantee of the real store.
func (m *mockStore) ReplaceTx(_ context.Context, fn func(TxStore) error) error {
	if m.replaceTxBeginErr != nil {
		return m.replaceTxBeginErr
	}
	if m.beforeReplace != nil {
		m.beforeReplace()
	}
	tx := &mockTxStore{
		store:        m,
		roleGrants:   cloneGrants(m.roleGrants),
		directGrants: cloneGrants(m.directGrants),
	}
	if err := fn(tx); err != nil {
		return err
	}
	m.roleGrants = tx.roleGrants
	m.directGrants = tx.directGrants
	return nil
}

func (m *mockStore) activePermissions(ids []int64) []Permission {
	var perms []Permission
	for _, id := range ids {
		p, ok := m.catalog[id]
		if ok && p.IsActive && !p.IsDeleted {
			perms = append(perms, p)
		}
	}
	return perms
}

type mockTxStore struct {
	store        *mockStore
	roleGrants   map[uuid.UUID][]int64
	directGrants map[uuid.UUID][]int64
}

func (t *mockTxStore) LockRole(_ context.Context, tenantID, roleID uuid.UUID) error {
	role, ok := t.store.roles[roleID]
	if !ok || role.TenantID != tenantID || role.IsDeleted {
		return shared.ErrRoleNotFound
	}
	return nil
}

func (t *mockTxStore) LockUser(_ context.Context, _, userID uuid.UUID) error {
	if !t.store.users[userID] {
		return shared.ErrPrincipalNotFound
	}
	return nil
}

func (t *mockTxStore) DeleteRoleGrants(_ context.Context, roleID uuid.UUID) error {
	delete(t.roleGrants, roleID)
	return nil
}

func (t *mockTxStore) InsertRoleGrant(_ context.Context, roleID uuid.UUID, permissionID int64, _ string) error {
	t.store.insertCalls++
	if t.store.failInsertOnCall > 0 && t.store.insertCalls >= t.store.failInsertOnCall {
		return errInjected
	}
	t.roleGrants[roleID] = append(t.roleGrants[roleID], permissionID)
	return nil
}

func (t *mockTxStore) DeleteAllDirectGrants(_ context.Context, userID uuid.UUID) error {
	delete(t.directGrants, userID)
	return nil
}

func (t *mockTxStore) InsertDirectGrant(_ context.Context, userID uuid.UUID, permissionID int64, _ string) error {
	t.directGrants[userID] = append(t.directGrants[userID], permissionID)
	return nil
}

func cloneGrants(src map[uuid.UUID][]int64) map[uuid.UUID][]int64 {
	dst := make(map[uuid.UUID][]int64, len(src))
	for k, v := range src {
		dst[k] = append([]int64(nil), v...)
	}
	return dst
}

// mockDirectory validates principals against the mock store's user set.
type mockDirectory struct {
	store *mockStore
}

func (d *mockDirectory) PrincipalExists(_ context.Context, _, userID uuid.UUID) (bool, error) {
	if d.store.directoryErr != nil {
		return false, d.store.directoryErr
	}
	return d.store.users[userID], nil
}
