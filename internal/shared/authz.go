package shared

// Module tags attached to permissions and menu entries.
const (
	ModuleUserManagement       = "UserManagement"
	ModuleRoleManagement       = "RoleManagement"
	ModuleEmployeeManagement   = "EmployeeManagement"
	ModuleDepartmentManagement = "DepartmentManagement"
	ModulePermissionManagement = "PermissionManagement"
	ModuleSystemAdministration = "SystemAdministration"
)

// Core permission codes. Codes are stable machine-readable keys; they are the
// only identifier referenced outside the store.
const (
	PermUsersView   = "USERS.VIEW"
	PermUsersCreate = "USERS.CREATE"
	PermUsersEdit   = "USERS.EDIT"
	PermUsersDelete = "USERS.DELETE"

	PermRolesView   = "ROLES.VIEW"
	PermRolesCreate = "ROLES.CREATE"
	PermRolesEdit   = "ROLES.EDIT"
	PermRolesDelete = "ROLES.DELETE"
	PermRolesAssign = "ROLES.ASSIGN"

	PermPermissionsView   = "PERMISSIONS.VIEW"
	PermPermissionsAssign = "PERMISSIONS.ASSIGN"

	PermEmployeesView = "EMPLOYEES.VIEW"
	PermEmployeesEdit = "EMPLOYEES.EDIT"

	PermDepartmentsView = "DEPARTMENTS.VIEW"
	PermDepartmentsEdit = "DEPARTMENTS.EDIT"

	PermSystemAdmin = "SYSTEM.ADMIN"
	PermSystemAudit = "SYSTEM.AUDIT"
)

// Reserved role names recognised by the assignment policy.
const (
	RoleNameSuperAdmin = "SuperAdmin"
	RoleNameAdmin      = "Admin"
	RoleNameSupport    = "Support"
)
