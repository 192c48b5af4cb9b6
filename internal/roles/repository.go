package roles

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/portal-agile/portal-agile/internal/shared"
)

const roleColumns = `id, tenant_id, name, description, is_system_role, created_at, updated_at`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListRoles returns the tenant's roles ordered by name. Deleted roles are
// excluded.
func (r *Repository) ListRoles(ctx context.Context, tenantID uuid.UUID) ([]Role, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+roleColumns+` FROM roles
		WHERE tenant_id = $1 AND NOT is_deleted
		ORDER BY name`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, role)
	}
	return list, rows.Err()
}

// GetRole returns one role within the tenant.
func (r *Repository) GetRole(ctx context.Context, tenantID, roleID uuid.UUID) (*Role, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+roleColumns+` FROM roles
		WHERE tenant_id = $1 AND id = $2 AND NOT is_deleted`, tenantID, roleID)
	role, err := scanRole(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrRoleNotFound
	}
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// CreateRole inserts a role. A duplicate name within the tenant maps to
// shared.ErrDuplicate.
func (r *Repository) CreateRole(ctx context.Context, role Role) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO roles (id, tenant_id, name, description, is_system_role)
		VALUES ($1, $2, $3, $4, $5)`,
		role.ID, role.TenantID, role.Name, role.Description, role.IsSystemRole)
	if isUniqueViolation(err) {
		return shared.ErrDuplicate
	}
	return err
}

// UpdateRole changes name and description.
func (r *Repository) UpdateRole(ctx context.Context, tenantID, roleID uuid.UUID, name, description string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE roles SET name = $3, description = $4, updated_at = now()
		WHERE tenant_id = $1 AND id = $2 AND NOT is_deleted`,
		tenantID, roleID, name, description)
	if isUniqueViolation(err) {
		return shared.ErrDuplicate
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrRoleNotFound
	}
	return nil
}

// DeleteRole soft-deletes a non-system role. System roles refuse deletion.
func (r *Repository) DeleteRole(ctx context.Context, tenantID, roleID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE roles SET is_deleted = true, updated_at = now()
		WHERE tenant_id = $1 AND id = $2 AND NOT is_deleted AND NOT is_system_role`,
		tenantID, roleID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		role, err := r.GetRole(ctx, tenantID, roleID)
		if err != nil {
			return err
		}
		if role.IsSystemRole {
			return shared.ErrForbidden
		}
		return shared.ErrRoleNotFound
	}
	return nil
}

// ListGrants returns the permissions currently granted to a role.
func (r *Repository) ListGrants(ctx context.Context, tenantID, roleID uuid.UUID) ([]GrantView, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.code, p.name, p.module, rg.created_at, rg.created_by
		FROM role_grants rg
		JOIN roles ro ON ro.id = rg.role_id AND ro.tenant_id = $1 AND NOT ro.is_deleted
		JOIN permissions p ON p.id = rg.permission_id AND p.is_active AND NOT p.is_deleted
		WHERE rg.role_id = $2 AND NOT rg.is_deleted
		ORDER BY p.module, p.name`, tenantID, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var grants []GrantView
	for rows.Next() {
		var g GrantView
		if err := rows.Scan(&g.PermissionID, &g.PermissionCode, &g.PermissionName, &g.Module, &g.GrantedAt, &g.GrantedBy); err != nil {
			return nil, err
		}
		grants = append(grants, g)
	}
	return grants, rows.Err()
}

func scanRole(row pgx.Row) (Role, error) {
	var role Role
	err := row.Scan(&role.ID, &role.TenantID, &role.Name, &role.Description, &role.IsSystemRole, &role.CreatedAt, &role.UpdatedAt)
	return role, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
