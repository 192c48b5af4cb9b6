// Package bootstrap seeds the minimum data the portal needs on first start:
// the core tenant, the permission catalog, the system roles and their grants,
// the navigation tree and the initial superadmin account. Every step is
// idempotent so running it on each startup is safe.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/portal-agile/portal-agile/internal/rbac"
	"github.com/portal-agile/portal-agile/internal/shared"
	"github.com/portal-agile/portal-agile/internal/tenant"
)

// Seeder provisions baseline data.
type Seeder struct {
	pool    *pgxpool.Pool
	tenants *tenant.Repository
	grants  *rbac.Engine
	logger  *slog.Logger

	superadminEmail    string
	superadminPassword string
}

// NewSeeder builds Seeder instance.
func NewSeeder(pool *pgxpool.Pool, tenants *tenant.Repository, grants *rbac.Engine, logger *slog.Logger, superadminEmail, superadminPassword string) *Seeder {
	return &Seeder{
		pool:               pool,
		tenants:            tenants,
		grants:             grants,
		logger:             logger,
		superadminEmail:    superadminEmail,
		superadminPassword: superadminPassword,
	}
}

// Run executes every seeding step in order.
func (s *Seeder) Run(ctx context.Context) error {
	core, err := s.tenants.EnsureCore(ctx)
	if err != nil {
		return fmt.Errorf("bootstrap: ensure core tenant: %w", err)
	}
	s.logger.Info("core tenant ready", slog.String("tenant_id", core.ID.String()))

	if err := s.seedPermissions(ctx); err != nil {
		return fmt.Errorf("bootstrap: seed permissions: %w", err)
	}
	roleIDs, err := s.seedSystemRoles(ctx, core.ID)
	if err != nil {
		return fmt.Errorf("bootstrap: seed system roles: %w", err)
	}
	if err := s.seedSystemRoleGrants(ctx, core.ID, roleIDs); err != nil {
		return fmt.Errorf("bootstrap: seed system role grants: %w", err)
	}
	if err := s.seedMenu(ctx); err != nil {
		return fmt.Errorf("bootstrap: seed menu: %w", err)
	}
	if err := s.seedSuperadmin(ctx, core.ID, roleIDs[shared.RoleNameSuperAdmin]); err != nil {
		return fmt.Errorf("bootstrap: seed superadmin: %w", err)
	}
	return nil
}

type permissionSeed struct {
	code   string
	name   string
	module string
}

func permissionCatalog() []permissionSeed {
	return []permissionSeed{
		{shared.PermUsersView, "View Users", shared.ModuleUserManagement},
		{shared.PermUsersCreate, "Create Users", shared.ModuleUserManagement},
		{shared.PermUsersEdit, "Edit Users", shared.ModuleUserManagement},
		{shared.PermUsersDelete, "Delete Users", shared.ModuleUserManagement},

		{shared.PermRolesView, "View Roles", shared.ModuleRoleManagement},
		{shared.PermRolesCreate, "Create Roles", shared.ModuleRoleManagement},
		{shared.PermRolesEdit, "Edit Roles", shared.ModuleRoleManagement},
		{shared.PermRolesDelete, "Delete Roles", shared.ModuleRoleManagement},
		{shared.PermRolesAssign, "Assign Roles", shared.ModuleRoleManagement},

		{shared.PermPermissionsView, "View Permissions", shared.ModulePermissionManagement},
		{shared.PermPermissionsAssign, "Assign Permissions", shared.ModulePermissionManagement},

		{shared.PermEmployeesView, "View Employees", shared.ModuleEmployeeManagement},
		{shared.PermEmployeesEdit, "Edit Employees", shared.ModuleEmployeeManagement},

		{shared.PermDepartmentsView, "View Departments", shared.ModuleDepartmentManagement},
		{shared.PermDepartmentsEdit, "Edit Departments", shared.ModuleDepartmentManagement},

		{shared.PermSystemAdmin, "System Administration", shared.ModuleSystemAdministration},
		{shared.PermSystemAudit, "View Audit Trail", shared.ModuleSystemAdministration},
	}
}

func (s *Seeder) seedPermissions(ctx context.Context) error {
	for _, p := range permissionCatalog() {
		_, err := s.pool.Exec(ctx, `
			INSERT INTO permissions (code, name, module, is_active)
			VALUES ($1, $2, $3, TRUE)
			ON CONFLICT (code) DO NOTHING`,
			p.code, p.name, p.module)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) seedSystemRoles(ctx context.Context, tenantID uuid.UUID) (map[string]uuid.UUID, error) {
	roles := []struct {
		name        string
		description string
	}{
		{shared.RoleNameSuperAdmin, "Unlimited access across every module"},
		{shared.RoleNameAdmin, "Tenant administration with every non-system permission"},
		{shared.RoleNameSupport, "Read access for support staff"},
	}

	ids := make(map[string]uuid.UUID, len(roles))
	for _, role := range roles {
		_, err := s.pool.Exec(ctx, `
			INSERT INTO roles (id, tenant_id, name, description, is_system_role)
			VALUES ($1, $2, $3, $4, TRUE)
			ON CONFLICT (tenant_id, name) DO NOTHING`,
			uuid.New(), tenantID, role.name, role.description)
		if err != nil {
			return nil, err
		}
		var id uuid.UUID
		err = s.pool.QueryRow(ctx, `
			SELECT id FROM roles WHERE tenant_id = $1 AND name = $2`, tenantID, role.name).Scan(&id)
		if err != nil {
			return nil, err
		}
		ids[role.name] = id
	}
	return ids, nil
}

// seedSystemRoleGrants fills empty system roles through the assignment engine
// so the role-class policy decides the stored set. Roles that already hold
// grants are left untouched.
func (s *Seeder) seedSystemRoleGrants(ctx context.Context, tenantID uuid.UUID, roleIDs map[string]uuid.UUID) error {
	viewOnly, err := s.viewPermissionIDs(ctx)
	if err != nil {
		return err
	}

	seeds := map[string][]int64{
		shared.RoleNameSuperAdmin: nil, // policy stores the full catalog
		shared.RoleNameAdmin:      nil, // policy stores every non-system permission
		shared.RoleNameSupport:    viewOnly,
	}

	for name, requested := range seeds {
		roleID, ok := roleIDs[name]
		if !ok {
			continue
		}
		var count int
		err := s.pool.QueryRow(ctx, `
			SELECT count(*) FROM role_grants WHERE role_id = $1 AND NOT is_deleted`, roleID).Scan(&count)
		if err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		if err := s.grants.ReplaceRoleGrants(ctx, tenantID, roleID, requested, "bootstrap"); err != nil {
			return fmt.Errorf("grant role %s: %w", name, err)
		}
	}
	return nil
}

func (s *Seeder) viewPermissionIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id FROM permissions
		WHERE code LIKE '%.VIEW' AND module <> $1 AND is_active AND NOT is_deleted`,
		shared.ModuleSystemAdministration)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type menuSeed struct {
	id       int64
	parentID *int64
	label    string
	route    string
	icon     string
	module   string
	required string
	level    int
	order    int
}

func menuTree() []menuSeed {
	parent := func(v int64) *int64 { return &v }
	return []menuSeed{
		{id: 1, label: "Dashboard", route: "/", icon: "home", level: 0, order: 0},
		{id: 10, label: "Administration", icon: "settings", level: 0, order: 10},
		{id: 11, parentID: parent(10), label: "Users", route: "/users", module: shared.ModuleUserManagement, required: shared.PermUsersView, level: 1, order: 1},
		{id: 12, parentID: parent(10), label: "Roles", route: "/roles", module: shared.ModuleRoleManagement, required: shared.PermRolesView, level: 1, order: 2},
		{id: 13, parentID: parent(10), label: "Permissions", route: "/permissions", module: shared.ModulePermissionManagement, required: shared.PermPermissionsView, level: 1, order: 3},
		{id: 20, label: "Organization", icon: "building", level: 0, order: 20},
		{id: 21, parentID: parent(20), label: "Employees", route: "/employees", module: shared.ModuleEmployeeManagement, required: shared.PermEmployeesView, level: 1, order: 1},
		{id: 22, parentID: parent(20), label: "Departments", route: "/departments", module: shared.ModuleDepartmentManagement, required: shared.PermDepartmentsView, level: 1, order: 2},
		{id: 30, label: "System", icon: "shield", module: shared.ModuleSystemAdministration, required: shared.PermSystemAdmin, level: 0, order: 30},
		{id: 31, parentID: parent(30), label: "Audit Trail", route: "/system/audit", module: shared.ModuleSystemAdministration, required: shared.PermSystemAudit, level: 1, order: 1},
	}
}

func (s *Seeder) seedMenu(ctx context.Context) error {
	for _, n := range menuTree() {
		_, err := s.pool.Exec(ctx, `
			INSERT INTO menu_nodes (id, parent_id, label, route, icon, module, required_permission, menu_level, sort_order, is_active, is_visible)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, TRUE, TRUE)
			ON CONFLICT (id) DO NOTHING`,
			n.id, n.parentID, n.label, n.route, n.icon, n.module, n.required, n.level, n.order)
		if err != nil {
			return err
		}
		if n.module == "" || n.required == "" {
			continue
		}
		_, err = s.pool.Exec(ctx, `
			INSERT INTO menu_grants (menu_node_id, permission_id)
			SELECT $1, p.id FROM permissions p WHERE p.code = $2
			ON CONFLICT (menu_node_id, permission_id) DO NOTHING`,
			n.id, n.required)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) seedSuperadmin(ctx context.Context, tenantID, superAdminRoleID uuid.UUID) error {
	if s.superadminEmail == "" || s.superadminPassword == "" {
		s.logger.Info("superadmin seed skipped, no credentials configured")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(s.superadminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	userID := uuid.New()
	_, err = s.pool.Exec(ctx, `
		INSERT INTO users (id, tenant_id, email, first_name, last_name, password_hash, is_active)
		VALUES ($1, $2, $3, 'Super', 'Admin', $4, TRUE)
		ON CONFLICT (tenant_id, email) DO NOTHING`,
		userID, tenantID, s.superadminEmail, string(hash))
	if err != nil {
		return err
	}
	err = s.pool.QueryRow(ctx, `
		SELECT id FROM users WHERE tenant_id = $1 AND email = $2`, tenantID, s.superadminEmail).Scan(&userID)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO role_assignments (user_id, role_id, assigned_by)
		VALUES ($1, $2, 'bootstrap')
		ON CONFLICT (user_id, role_id) DO NOTHING`,
		userID, superAdminRoleID)
	return err
}
