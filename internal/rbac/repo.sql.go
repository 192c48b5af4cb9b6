package rbac

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/portal-agile/portal-agile/internal/platform/db"
	"github.com/portal-agile/portal-agile/internal/shared"
)

const permissionColumns = `p.id, p.code, p.name, p.module, p.description, p.is_active, p.is_deleted`

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore constructs a PostgreSQL grant store.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

var _ Store = (*PGStore)(nil)

// GetRole fetches a non-deleted role scoped to the tenant.
func (s *PGStore) GetRole(ctx context.Context, tenantID, roleID uuid.UUID) (*Role, error) {
	var r Role
	err := s.pool.QueryRow(ctx, `
		SELECT id, tenant_id, name, description, is_system_role, is_deleted, created_at, updated_at
		FROM roles
		WHERE id = $1 AND tenant_id = $2 AND NOT is_deleted`,
		roleID, tenantID,
	).Scan(&r.ID, &r.TenantID, &r.Name, &r.Description, &r.IsSystemRole, &r.IsDeleted, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrRoleNotFound
		}
		return nil, err
	}
	return &r, nil
}

// ListUserRoles returns the roles assigned to a user within the tenant.
func (s *PGStore) ListUserRoles(ctx context.Context, tenantID, userID uuid.UUID) ([]Role, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT r.id, r.tenant_id, r.name, r.description, r.is_system_role, r.is_deleted, r.created_at, r.updated_at
		FROM roles r
		JOIN role_assignments ra ON ra.role_id = r.id
		WHERE ra.user_id = $1 AND r.tenant_id = $2 AND NOT r.is_deleted
		ORDER BY r.name`,
		userID, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []Role
	for rows.Next() {
		var r Role
		if err := rows.Scan(&r.ID, &r.TenantID, &r.Name, &r.Description, &r.IsSystemRole, &r.IsDeleted, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		roles = append(roles, r)
	}
	return roles, rows.Err()
}

// ListRolePermissions returns the active permissions granted to a role.
func (s *PGStore) ListRolePermissions(ctx context.Context, roleID uuid.UUID) ([]Permission, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+permissionColumns+`
		FROM permissions p
		JOIN role_grants rg ON rg.permission_id = p.id AND NOT rg.is_deleted
		WHERE rg.role_id = $1 AND p.is_active AND NOT p.is_deleted
		ORDER BY p.module, p.name`,
		roleID)
	if err != nil {
		return nil, err
	}
	return collectPermissions(rows)
}

// ListDirectPermissions returns the active permissions granted to a user
// outside any role.
func (s *PGStore) ListDirectPermissions(ctx context.Context, tenantID, userID uuid.UUID) ([]Permission, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+permissionColumns+`
		FROM permissions p
		JOIN direct_grants dg ON dg.permission_id = p.id AND NOT dg.is_deleted
		JOIN users u ON u.id = dg.user_id
		WHERE dg.user_id = $1 AND u.tenant_id = $2 AND p.is_active AND NOT p.is_deleted
		ORDER BY p.module, p.name`,
		userID, tenantID)
	if err != nil {
		return nil, err
	}
	return collectPermissions(rows)
}

// ListActivePermissions returns the full active catalog.
func (s *PGStore) ListActivePermissions(ctx context.Context) ([]Permission, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+permissionColumns+`
		FROM permissions p
		WHERE p.is_active AND NOT p.is_deleted
		ORDER BY p.module, p.name`)
	if err != nil {
		return nil, err
	}
	return collectPermissions(rows)
}

// UserHoldsPermission checks grant membership without building the union.
func (s *PGStore) UserHoldsPermission(ctx context.Context, tenantID, userID uuid.UUID, code string) (bool, error) {
	var holds bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM permissions p
			JOIN role_grants rg ON rg.permission_id = p.id AND NOT rg.is_deleted
			JOIN role_assignments ra ON ra.role_id = rg.role_id
			JOIN roles r ON r.id = rg.role_id AND r.tenant_id = $2 AND NOT r.is_deleted
			WHERE ra.user_id = $1 AND p.code = $3 AND p.is_active AND NOT p.is_deleted
			UNION ALL
			SELECT 1
			FROM permissions p
			JOIN direct_grants dg ON dg.permission_id = p.id AND NOT dg.is_deleted
			WHERE dg.user_id = $1 AND p.code = $3 AND p.is_active AND NOT p.is_deleted
		)`,
		userID, tenantID, code).Scan(&holds)
	return holds, err
}

// DirectGrantExists reports whether a live (user, permission) grant exists.
func (s *PGStore) DirectGrantExists(ctx context.Context, userID uuid.UUID, permissionID int64) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM direct_grants
			WHERE user_id = $1 AND permission_id = $2 AND NOT is_deleted
		)`,
		userID, permissionID).Scan(&exists)
	return exists, err
}

// InsertDirectGrant inserts one direct grant row. A concurrent duplicate
// surfaces as shared.ErrDuplicate for the engine to treat as idempotent.
func (s *PGStore) InsertDirectGrant(ctx context.Context, userID uuid.UUID, permissionID int64, actor string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO direct_grants (user_id, permission_id, created_at, created_by)
		VALUES ($1, $2, NOW(), $3)`,
		userID, permissionID, actor)
	if isUniqueViolation(err) {
		return shared.ErrDuplicate
	}
	return err
}

// DeleteDirectGrants soft-deletes matching rows; missing rows are a no-op.
// deleted_at stamps the revocation so the retention sweep measures from it.
func (s *PGStore) DeleteDirectGrants(ctx context.Context, userID uuid.UUID, permissionIDs []int64) error {
	if len(permissionIDs) == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx, `
		UPDATE direct_grants SET is_deleted = TRUE, deleted_at = NOW()
		WHERE user_id = $1 AND permission_id = ANY($2) AND NOT is_deleted`,
		userID, permissionIDs)
	return err
}

// PurgeRevokedGrants hard-deletes grant rows whose revocation happened before
// cutoff. The window is measured from deleted_at, never from created_at: a
// long-lived grant revoked yesterday must survive the full retention period.
func (s *PGStore) PurgeRevokedGrants(ctx context.Context, cutoff time.Time) (direct, role int64, err error) {
	d, err := s.pool.Exec(ctx, `
		DELETE FROM direct_grants WHERE is_deleted AND deleted_at < $1`, cutoff)
	if err != nil {
		return 0, 0, err
	}
	r, err := s.pool.Exec(ctx, `
		DELETE FROM role_grants WHERE is_deleted AND deleted_at < $1`, cutoff)
	if err != nil {
		return d.RowsAffected(), 0, err
	}
	return d.RowsAffected(), r.RowsAffected(), nil
}

// ReplaceTx runs fn inside a repeatable-read transaction.
func (s *PGStore) ReplaceTx(ctx context.Context, fn func(TxStore) error) error {
	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&pgTxStore{tx: tx})
	})
}

type pgTxStore struct {
	tx pgx.Tx
}

var _ TxStore = (*pgTxStore)(nil)

func (t *pgTxStore) LockRole(ctx context.Context, tenantID, roleID uuid.UUID) error {
	var id uuid.UUID
	err := t.tx.QueryRow(ctx, `SELECT id FROM roles WHERE id = $1 AND tenant_id = $2 AND NOT is_deleted FOR UPDATE`, roleID, tenantID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return shared.ErrRoleNotFound
	}
	return err
}

func (t *pgTxStore) LockUser(ctx context.Context, tenantID, userID uuid.UUID) error {
	var id uuid.UUID
	err := t.tx.QueryRow(ctx, `SELECT id FROM users WHERE id = $1 AND tenant_id = $2 AND is_active FOR UPDATE`, userID, tenantID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return shared.ErrPrincipalNotFound
	}
	return err
}

func (t *pgTxStore) DeleteRoleGrants(ctx context.Context, roleID uuid.UUID) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE role_grants SET is_deleted = TRUE, deleted_at = NOW()
		WHERE role_id = $1 AND NOT is_deleted`, roleID)
	return err
}

func (t *pgTxStore) InsertRoleGrant(ctx context.Context, roleID uuid.UUID, permissionID int64, actor string) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO role_grants (role_id, permission_id, created_at, created_by)
		VALUES ($1, $2, NOW(), $3)`,
		roleID, permissionID, actor)
	return err
}

func (t *pgTxStore) DeleteAllDirectGrants(ctx context.Context, userID uuid.UUID) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE direct_grants SET is_deleted = TRUE, deleted_at = NOW()
		WHERE user_id = $1 AND NOT is_deleted`, userID)
	return err
}

func (t *pgTxStore) InsertDirectGrant(ctx context.Context, userID uuid.UUID, permissionID int64, actor string) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO direct_grants (user_id, permission_id, created_at, created_by)
		VALUES ($1, $2, NOW(), $3)`,
		userID, permissionID, actor)
	return err
}

func collectPermissions(rows pgx.Rows) ([]Permission, error) {
	defer rows.Close()
	var perms []Permission
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.ID, &p.Code, &p.Name, &p.Module, &p.Description, &p.IsActive, &p.IsDeleted); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
