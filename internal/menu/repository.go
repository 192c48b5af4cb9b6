package menu

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for menu configuration.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListActiveNodes returns all active, visible nodes ordered by level then
// sort order, so parents always precede their children.
func (r *Repository) ListActiveNodes(ctx context.Context) ([]Node, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, parent_id, label, route, icon, module, required_permission, tooltip, menu_level, sort_order
		FROM menu_nodes
		WHERE is_active AND is_visible
		ORDER BY menu_level, sort_order, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var nodes []Node
	for rows.Next() {
		var n Node
		if err := rows.Scan(&n.ID, &n.ParentID, &n.Label, &n.Route, &n.Icon, &n.Module, &n.RequiredPermission, &n.Tooltip, &n.Level, &n.SortOrder); err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

// ListModuleGrants returns every (module, permission) pair registered through
// menu grants under active, visible nodes.
func (r *Repository) ListModuleGrants(ctx context.Context) ([]ModuleGrant, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT n.module, p.id, p.code, p.name
		FROM menu_grants mg
		JOIN menu_nodes n ON n.id = mg.menu_node_id AND n.is_active AND n.is_visible
		JOIN permissions p ON p.id = mg.permission_id AND p.is_active AND NOT p.is_deleted
		WHERE n.module <> ''
		ORDER BY n.module, p.code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var grants []ModuleGrant
	for rows.Next() {
		var g ModuleGrant
		if err := rows.Scan(&g.Module, &g.PermissionID, &g.PermissionCode, &g.PermissionName); err != nil {
			return nil, err
		}
		grants = append(grants, g)
	}
	return grants, rows.Err()
}
