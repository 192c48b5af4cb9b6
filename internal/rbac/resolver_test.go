package rbac

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portal-agile/portal-agile/internal/shared"
)

func fixturePermissions(store *mockStore) (view, edit, rolesView, sysAdmin, inactive Permission) {
	view = store.addPermission(Permission{ID: 1, Code: shared.PermUsersView, Name: "View Users", Module: shared.ModuleUserManagement, IsActive: true})
	edit = store.addPermission(Permission{ID: 2, Code: shared.PermUsersEdit, Name: "Edit Users", Module: shared.ModuleUserManagement, IsActive: true})
	rolesView = store.addPermission(Permission{ID: 3, Code: shared.PermRolesView, Name: "View Roles", Module: shared.ModuleRoleManagement, IsActive: true})
	sysAdmin = store.addPermission(Permission{ID: 9, Code: shared.PermSystemAdmin, Name: "System Administration", Module: shared.ModuleSystemAdministration, IsActive: true})
	inactive = store.addPermission(Permission{ID: 8, Code: "REPORTS.VIEW", Name: "View Reports", Module: "Reports", IsActive: false})
	return view, edit, rolesView, sysAdmin, inactive
}

func TestResolveUnknownPrincipal(t *testing.T) {
	store := newMockStore()
	resolver := NewResolver(store, &mockDirectory{store: store})

	_, err := resolver.ResolveEffectivePermissions(context.Background(), store.tenantID, uuid.New())
	require.ErrorIs(t, err, shared.ErrPrincipalNotFound)

	_, err = resolver.HasPermission(context.Background(), store.tenantID, uuid.New(), shared.PermUsersView)
	require.ErrorIs(t, err, shared.ErrPrincipalNotFound)
}

func TestResolveNoGrantsReturnsEmptySet(t *testing.T) {
	store := newMockStore()
	fixturePermissions(store)
	userID := store.addUser()
	resolver := NewResolver(store, &mockDirectory{store: store})

	perms, err := resolver.ResolveEffectivePermissions(context.Background(), store.tenantID, userID)
	require.NoError(t, err)
	assert.Empty(t, perms)
}

func TestResolveUnionDeduplicates(t *testing.T) {
	store := newMockStore()
	view, edit, rolesView, _, _ := fixturePermissions(store)
	userID := store.addUser()
	roleID := store.addRole("HR Manager", false)
	store.assign(userID, roleID)
	// Role grants {view, edit}; direct grants {edit, rolesView}.
	store.roleGrants[roleID] = []int64{view.ID, edit.ID}
	store.directGrants[userID] = []int64{edit.ID, rolesView.ID}

	resolver := NewResolver(store, &mockDirectory{store: store})
	perms, err := resolver.ResolveEffectivePermissions(context.Background(), store.tenantID, userID)
	require.NoError(t, err)

	ids := permissionIDs(perms)
	assert.ElementsMatch(t, []int64{view.ID, edit.ID, rolesView.ID}, ids)
	assert.Len(t, ids, 3, "shared grant must not be duplicated")
}

func TestResolveSortsByModuleThenName(t *testing.T) {
	store := newMockStore()
	view, edit, rolesView, _, _ := fixturePermissions(store)
	userID := store.addUser()
	store.directGrants[userID] = []int64{rolesView.ID, edit.ID, view.ID}

	resolver := NewResolver(store, &mockDirectory{store: store})
	perms, err := resolver.ResolveEffectivePermissions(context.Background(), store.tenantID, userID)
	require.NoError(t, err)
	require.Len(t, perms, 3)
	// "RoleManagement" sorts before "UserManagement"; names break the tie.
	assert.Equal(t, []int64{rolesView.ID, edit.ID, view.ID}, permissionIDs(perms))
}

func TestResolveExcludesInactivePermissions(t *testing.T) {
	store := newMockStore()
	view, _, _, _, inactive := fixturePermissions(store)
	userID := store.addUser()
	roleID := store.addRole("Reporter", false)
	store.assign(userID, roleID)
	store.roleGrants[roleID] = []int64{view.ID, inactive.ID}

	resolver := NewResolver(store, &mockDirectory{store: store})
	perms, err := resolver.ResolveEffectivePermissions(context.Background(), store.tenantID, userID)
	require.NoError(t, err)
	assert.Equal(t, []int64{view.ID}, permissionIDs(perms))
}

func TestUniversalRoleShortCircuitsHasPermission(t *testing.T) {
	store := newMockStore()
	fixturePermissions(store)
	userID := store.addUser()
	roleID := store.addRole("SuperAdmin", true)
	store.assign(userID, roleID)
	// Deliberately zero explicit grants.

	resolver := NewResolver(store, &mockDirectory{store: store})
	for _, code := range []string{shared.PermUsersView, shared.PermSystemAdmin, "ANY.CODE"} {
		holds, err := resolver.HasPermission(context.Background(), store.tenantID, userID, code)
		require.NoError(t, err)
		assert.True(t, holds, code)
	}
}

func TestUniversalRoleResolvesFullCatalog(t *testing.T) {
	store := newMockStore()
	fixturePermissions(store)
	userID := store.addUser()
	roleID := store.addRole("Super Admin", true)
	store.assign(userID, roleID)

	resolver := NewResolver(store, &mockDirectory{store: store})
	perms, err := resolver.ResolveEffectivePermissions(context.Background(), store.tenantID, userID)
	require.NoError(t, err)
	// Full active catalog (the inactive permission is excluded).
	assert.Len(t, perms, 4)
}

func TestHasPermissionAgreesWithResolvedSet(t *testing.T) {
	store := newMockStore()
	view, edit, rolesView, _, _ := fixturePermissions(store)
	userID := store.addUser()
	roleID := store.addRole("HR Manager", false)
	store.assign(userID, roleID)
	store.roleGrants[roleID] = []int64{view.ID}
	store.directGrants[userID] = []int64{edit.ID}

	resolver := NewResolver(store, &mockDirectory{store: store})
	perms, err := resolver.ResolveEffectivePermissions(context.Background(), store.tenantID, userID)
	require.NoError(t, err)

	resolved := make(map[string]bool)
	for _, p := range perms {
		resolved[p.Code] = true
	}
	for _, code := range []string{view.Code, edit.Code, rolesView.Code} {
		holds, err := resolver.HasPermission(context.Background(), store.tenantID, userID, code)
		require.NoError(t, err)
		assert.Equal(t, resolved[code], holds, code)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		role   Role
		expect RoleClass
	}{
		{"system superadmin", Role{Name: "SuperAdmin", IsSystemRole: true}, ClassUniversalAccess},
		{"system super admin spaced", Role{Name: "Super Admin", IsSystemRole: true}, ClassUniversalAccess},
		{"system admin", Role{Name: "Admin", IsSystemRole: true}, ClassBaselineNonSystem},
		{"system administrator", Role{Name: "Administrator", IsSystemRole: true}, ClassBaselineNonSystem},
		{"system support", Role{Name: "Support", IsSystemRole: true}, ClassOrdinary},
		{"tenant role named superadmin", Role{Name: "SuperAdmin", IsSystemRole: false}, ClassOrdinary},
		{"ordinary tenant role", Role{Name: "HR Manager", IsSystemRole: false}, ClassOrdinary},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expect, Classify(tc.role))
		})
	}
}

func permissionIDs(perms []Permission) []int64 {
	ids := make([]int64, 0, len(perms))
	for _, p := range perms {
		ids = append(ids, p.ID)
	}
	return ids
}
