package users

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/portal-agile/portal-agile/internal/shared"
)

const userColumns = `id, tenant_id, email, first_name, last_name, is_active, created_at, updated_at`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns the tenant's users ordered by email.
func (r *Repository) List(ctx context.Context, tenantID uuid.UUID) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users WHERE tenant_id = $1 ORDER BY email`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

// GetByID returns one user within the tenant.
func (r *Repository) GetByID(ctx context.Context, tenantID, userID uuid.UUID) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE tenant_id = $1 AND id = $2`, tenantID, userID)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrPrincipalNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail returns one user by email within the tenant.
func (r *Repository) GetByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE tenant_id = $1 AND email = $2`, tenantID, email)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrPrincipalNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a user. A duplicate email within the tenant maps to
// shared.ErrDuplicate.
func (r *Repository) Create(ctx context.Context, u User) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, tenant_id, email, first_name, last_name, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.TenantID, u.Email, u.FirstName, u.LastName, u.IsActive)
	if isUniqueViolation(err) {
		return shared.ErrDuplicate
	}
	return err
}

// Deactivate disables a user account without deleting its grant history.
func (r *Repository) Deactivate(ctx context.Context, tenantID, userID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET is_active = false, updated_at = now()
		WHERE tenant_id = $1 AND id = $2`, tenantID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrPrincipalNotFound
	}
	return nil
}

// PrincipalExists reports whether an active user exists within the tenant.
func (r *Repository) PrincipalExists(ctx context.Context, tenantID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM users WHERE tenant_id = $1 AND id = $2 AND is_active
		)`, tenantID, userID).Scan(&exists)
	return exists, err
}

// AssignRole links a user to a role. Re-assigning an existing pair is a
// no-op success.
func (r *Repository) AssignRole(ctx context.Context, tenantID, userID, roleID uuid.UUID, actor string) error {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO role_assignments (user_id, role_id, assigned_by)
		SELECT u.id, ro.id, $4
		FROM users u
		JOIN roles ro ON ro.id = $3 AND ro.tenant_id = u.tenant_id AND NOT ro.is_deleted
		WHERE u.tenant_id = $1 AND u.id = $2
		ON CONFLICT (user_id, role_id) DO NOTHING`,
		tenantID, userID, roleID, actor)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// Either the pair already exists or user/role is missing; distinguish.
		exists, err := r.assignmentExists(ctx, userID, roleID)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}
		held, err := r.PrincipalExists(ctx, tenantID, userID)
		if err != nil {
			return err
		}
		if !held {
			return shared.ErrPrincipalNotFound
		}
		return shared.ErrRoleNotFound
	}
	return nil
}

// RemoveRole unlinks a user from a role. Removing an absent pair is a no-op.
func (r *Repository) RemoveRole(ctx context.Context, tenantID, userID, roleID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM role_assignments ra
		USING users u
		WHERE ra.user_id = u.id AND u.tenant_id = $1 AND ra.user_id = $2 AND ra.role_id = $3`,
		tenantID, userID, roleID)
	return err
}

// ListRoleAssignments returns the user's role links with role names.
func (r *Repository) ListRoleAssignments(ctx context.Context, tenantID, userID uuid.UUID) ([]RoleAssignment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT ra.user_id, ra.role_id, ro.name, ra.assigned_at, ra.assigned_by
		FROM role_assignments ra
		JOIN roles ro ON ro.id = ra.role_id AND NOT ro.is_deleted
		JOIN users u ON u.id = ra.user_id
		WHERE u.tenant_id = $1 AND ra.user_id = $2
		ORDER BY ro.name`, tenantID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []RoleAssignment
	for rows.Next() {
		var a RoleAssignment
		if err := rows.Scan(&a.UserID, &a.RoleID, &a.RoleName, &a.AssignedAt, &a.AssignedBy); err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

func (r *Repository) assignmentExists(ctx context.Context, userID, roleID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM role_assignments WHERE user_id = $1 AND role_id = $2
		)`, userID, roleID).Scan(&exists)
	return exists, err
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.TenantID, &u.Email, &u.FirstName, &u.LastName, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
