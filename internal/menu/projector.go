package menu

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NodeSource loads menu configuration.
type NodeSource interface {
	ListActiveNodes(ctx context.Context) ([]Node, error)
	ListModuleGrants(ctx context.Context) ([]ModuleGrant, error)
}

// PermissionResolver supplies the principal's effective permission codes.
type PermissionResolver interface {
	ResolveEffectiveCodes(ctx context.Context, tenantID, userID uuid.UUID) (map[string]struct{}, error)
}

// Projector filters the navigation tree down to what a principal may see.
type Projector struct {
	source   NodeSource
	resolver PermissionResolver
	cache    *Cache
}

// NewProjector constructs a Projector. cache may be nil.
func NewProjector(source NodeSource, resolver PermissionResolver, cache *Cache) *Projector {
	return &Projector{source: source, resolver: resolver, cache: cache}
}

var moduleDisplayNames = map[string]string{
	"UserManagement":       "User Management",
	"RoleManagement":       "Role Management",
	"EmployeeManagement":   "Employee Management",
	"DepartmentManagement": "Department Management",
	"PermissionManagement": "Permission Management",
	"SystemAdministration": "System Administration",
}

var moduleRoutes = map[string]string{
	"UserManagement":       "/users",
	"RoleManagement":       "/roles",
	"EmployeeManagement":   "/employees",
	"DepartmentManagement": "/departments",
	"PermissionManagement": "/permissions",
	"SystemAdministration": "/system",
}

var titleCaser = cases.Title(language.English)

// ProjectMenu returns the filtered tree for the principal. A leaf survives
// iff it has no required permission code or the principal holds it. A parent
// survives iff at least one child survives, or it carries its own gate and
// the principal passes it; a gateless parent whose children were all filtered
// out is pruned. Sibling order follows sort order.
func (p *Projector) ProjectMenu(ctx context.Context, tenantID, userID uuid.UUID) ([]*NodeView, error) {
	codes, err := p.resolver.ResolveEffectiveCodes(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}

	nodes, err := p.loadNodes(ctx)
	if err != nil {
		return nil, err
	}

	roots := buildTree(nodes)
	return filterTree(roots, codes), nil
}

// AccessibleModules lists the modules for which the principal holds at least
// one gated permission. A module with no registered gating permissions is
// never listed.
func (p *Projector) AccessibleModules(ctx context.Context, tenantID, userID uuid.UUID) ([]ModuleView, error) {
	codes, err := p.resolver.ResolveEffectiveCodes(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}

	grants, err := p.loadModuleGrants(ctx)
	if err != nil {
		return nil, err
	}

	held := make(map[string][]ModulePermissionView)
	seen := make(map[string]map[int64]struct{})
	for _, g := range grants {
		if _, ok := codes[g.PermissionCode]; !ok {
			continue
		}
		if seen[g.Module] == nil {
			seen[g.Module] = make(map[int64]struct{})
		}
		if _, dup := seen[g.Module][g.PermissionID]; dup {
			continue
		}
		seen[g.Module][g.PermissionID] = struct{}{}
		held[g.Module] = append(held[g.Module], ModulePermissionView{
			ID:   g.PermissionID,
			Code: g.PermissionCode,
			Name: g.PermissionName,
		})
	}

	modules := make([]ModuleView, 0, len(held))
	for module, perms := range held {
		modules = append(modules, ModuleView{
			Module:      module,
			DisplayName: moduleDisplayName(module),
			Route:       moduleRoute(module),
			Permissions: perms,
		})
	}
	sort.Slice(modules, func(i, j int) bool { return modules[i].Module < modules[j].Module })
	return modules, nil
}

func (p *Projector) loadNodes(ctx context.Context) ([]Node, error) {
	if p.cache != nil {
		return p.cache.FetchNodes(ctx, p.source.ListActiveNodes)
	}
	return p.source.ListActiveNodes(ctx)
}

func (p *Projector) loadModuleGrants(ctx context.Context) ([]ModuleGrant, error) {
	if p.cache != nil {
		return p.cache.FetchModuleGrants(ctx, p.source.ListModuleGrants)
	}
	return p.source.ListModuleGrants(ctx)
}

// buildTree links nodes by parent id. Nodes whose parent is absent from the
// loaded set are treated as roots.
func buildTree(nodes []Node) []*NodeView {
	views := make(map[int64]*NodeView, len(nodes))
	for _, n := range nodes {
		views[n.ID] = &NodeView{
			ID:                 n.ID,
			Label:              n.Label,
			Route:              n.Route,
			Icon:               n.Icon,
			Module:             n.Module,
			RequiredPermission: n.RequiredPermission,
			Tooltip:            n.Tooltip,
			SortOrder:          n.SortOrder,
			Children:           []*NodeView{},
		}
	}

	var roots []*NodeView
	for _, n := range nodes {
		view := views[n.ID]
		if n.ParentID != nil {
			if parent, ok := views[*n.ParentID]; ok {
				parent.Children = append(parent.Children, view)
				continue
			}
		}
		roots = append(roots, view)
	}
	sortSiblings(roots)
	for _, view := range views {
		sortSiblings(view.Children)
	}
	return roots
}

// filterTree prunes depth-first, post-order: children are decided before the
// parent's keep/drop decision.
func filterTree(items []*NodeView, codes map[string]struct{}) []*NodeView {
	result := make([]*NodeView, 0, len(items))
	for _, item := range items {
		hadChildren := len(item.Children) > 0
		item.Children = filterTree(item.Children, codes)
		pass := passesGate(item.RequiredPermission, codes)
		if hadChildren {
			selfGate := strings.TrimSpace(item.RequiredPermission) != "" && pass
			if len(item.Children) > 0 || selfGate {
				result = append(result, item)
			}
			continue
		}
		if pass {
			result = append(result, item)
		}
	}
	return result
}

func passesGate(required string, codes map[string]struct{}) bool {
	required = strings.TrimSpace(required)
	if required == "" {
		return true
	}
	_, ok := codes[required]
	return ok
}

func sortSiblings(items []*NodeView) {
	sort.SliceStable(items, func(i, j int) bool { return items[i].SortOrder < items[j].SortOrder })
}

func moduleDisplayName(module string) string {
	if name, ok := moduleDisplayNames[module]; ok {
		return name
	}
	return titleCaser.String(strings.ToLower(module))
}

func moduleRoute(module string) string {
	if route, ok := moduleRoutes[module]; ok {
		return route
	}
	return "/" + strings.ToLower(module)
}
