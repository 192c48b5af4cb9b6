package tenant

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/portal-agile/portal-agile/internal/shared"
)

// Repository provides PostgreSQL backed persistence for tenants.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByID fetches a tenant by id.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	return r.get(ctx, `SELECT id, name, subdomain, is_active, is_system, created_at, updated_at FROM tenants WHERE id = $1`, id)
}

// GetBySubdomain fetches a tenant by its unique subdomain.
func (r *Repository) GetBySubdomain(ctx context.Context, subdomain string) (*Tenant, error) {
	subdomain = strings.ToLower(strings.TrimSpace(subdomain))
	if subdomain == "" {
		return nil, shared.ErrTenantNotFound
	}
	return r.get(ctx, `SELECT id, name, subdomain, is_active, is_system, created_at, updated_at FROM tenants WHERE subdomain = $1`, subdomain)
}

func (r *Repository) get(ctx context.Context, query string, arg any) (*Tenant, error) {
	var t Tenant
	err := r.pool.QueryRow(ctx, query, arg).Scan(&t.ID, &t.Name, &t.Subdomain, &t.IsActive, &t.IsSystem, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrTenantNotFound
		}
		return nil, err
	}
	return &t, nil
}

// EnsureCore inserts the single system tenant when absent and returns it.
// Safe to call on every startup.
func (r *Repository) EnsureCore(ctx context.Context) (*Tenant, error) {
	existing, err := r.GetBySubdomain(ctx, CoreSubdomain)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, shared.ErrTenantNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	t := &Tenant{
		ID:        uuid.New(),
		Name:      "Core",
		Subdomain: CoreSubdomain,
		IsActive:  true,
		IsSystem:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO tenants (id, name, subdomain, is_active, is_system, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (subdomain) DO NOTHING`,
		t.ID, t.Name, t.Subdomain, t.IsActive, t.IsSystem, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	// Re-read so a concurrent bootstrap winner is returned verbatim.
	return r.GetBySubdomain(ctx, CoreSubdomain)
}
