package rbac

import (
	"context"

	"github.com/google/uuid"
)

// Store is the grant store: pure data access over the role/permission join
// relations. Tenant scope is an explicit argument on every scoped call.
type Store interface {
	GetRole(ctx context.Context, tenantID, roleID uuid.UUID) (*Role, error)
	ListUserRoles(ctx context.Context, tenantID, userID uuid.UUID) ([]Role, error)
	ListRolePermissions(ctx context.Context, roleID uuid.UUID) ([]Permission, error)
	ListDirectPermissions(ctx context.Context, tenantID, userID uuid.UUID) ([]Permission, error)
	ListActivePermissions(ctx context.Context) ([]Permission, error)

	// UserHoldsPermission checks membership across role grants and direct
	// grants without materializing the full effective set.
	UserHoldsPermission(ctx context.Context, tenantID, userID uuid.UUID, code string) (bool, error)

	DirectGrantExists(ctx context.Context, userID uuid.UUID, permissionID int64) (bool, error)
	InsertDirectGrant(ctx context.Context, userID uuid.UUID, permissionID int64, actor string) error
	DeleteDirectGrants(ctx context.Context, userID uuid.UUID, permissionIDs []int64) error

	// ReplaceTx runs fn inside one transaction; any error rolls back every
	// mutation fn performed.
	ReplaceTx(ctx context.Context, fn func(TxStore) error) error
}

// TxStore exposes the mutations allowed inside a replace transaction.
type TxStore interface {
	// LockRole takes a row lock on the role so concurrent replacements of the
	// same grant set serialize instead of interleaving delete/insert.
	LockRole(ctx context.Context, tenantID, roleID uuid.UUID) error
	LockUser(ctx context.Context, tenantID, userID uuid.UUID) error

	// DeleteRoleGrants retires the role's live grant rows. Rows are
	// soft-deleted, like direct revocations, so the audit trail stays
	// resolvable until the retention sweep purges them.
	DeleteRoleGrants(ctx context.Context, roleID uuid.UUID) error
	InsertRoleGrant(ctx context.Context, roleID uuid.UUID, permissionID int64, actor string) error
	DeleteAllDirectGrants(ctx context.Context, userID uuid.UUID) error
	InsertDirectGrant(ctx context.Context, userID uuid.UUID, permissionID int64, actor string) error
}

// PrincipalDirectory validates principal existence. Implemented by the users
// repository; the resolver never authenticates, it only checks existence.
type PrincipalDirectory interface {
	PrincipalExists(ctx context.Context, tenantID, userID uuid.UUID) (bool, error)
}
