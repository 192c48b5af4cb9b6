package rbac

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/portal-agile/portal-agile/internal/shared"
)

// Resolver computes a principal's effective permission set. It only reads the
// grant store; every call re-reads so results are always fresh.
type Resolver struct {
	store     Store
	directory PrincipalDirectory
}

// NewResolver constructs a Resolver.
func NewResolver(store Store, directory PrincipalDirectory) *Resolver {
	return &Resolver{store: store, directory: directory}
}

// ResolveEffectivePermissions returns the deduplicated union of role-derived
// and direct grants, sorted by module then name. A principal with no grants
// gets an empty set; an unknown principal gets shared.ErrPrincipalNotFound.
// Holders of the universal-access role get the entire active catalog.
func (r *Resolver) ResolveEffectivePermissions(ctx context.Context, tenantID, userID uuid.UUID) ([]Permission, error) {
	if err := r.requirePrincipal(ctx, tenantID, userID); err != nil {
		return nil, err
	}

	roles, err := r.store.ListUserRoles(ctx, tenantID, userID)
	if err != nil {
		return nil, fmt.Errorf("rbac: list user roles: %w", err)
	}

	for _, role := range roles {
		if Classify(role) == ClassUniversalAccess {
			return r.store.ListActivePermissions(ctx)
		}
	}

	// Union by permission id; later duplicates are dropped even when other
	// fields differ.
	effective := make(map[int64]Permission)
	for _, role := range roles {
		perms, err := r.store.ListRolePermissions(ctx, role.ID)
		if err != nil {
			return nil, fmt.Errorf("rbac: list role permissions: %w", err)
		}
		for _, p := range perms {
			if _, ok := effective[p.ID]; !ok {
				effective[p.ID] = p
			}
		}
	}

	direct, err := r.store.ListDirectPermissions(ctx, tenantID, userID)
	if err != nil {
		return nil, fmt.Errorf("rbac: list direct permissions: %w", err)
	}
	for _, p := range direct {
		if _, ok := effective[p.ID]; !ok {
			effective[p.ID] = p
		}
	}

	result := make([]Permission, 0, len(effective))
	for _, p := range effective {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Module != result[j].Module {
			return result[i].Module < result[j].Module
		}
		return result[i].Name < result[j].Name
	})
	return result, nil
}

// ResolveEffectiveCodes returns the effective permission codes as a set.
func (r *Resolver) ResolveEffectiveCodes(ctx context.Context, tenantID, userID uuid.UUID) (map[string]struct{}, error) {
	perms, err := r.ResolveEffectivePermissions(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	codes := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		codes[p.Code] = struct{}{}
	}
	return codes, nil
}

// HasPermission reports whether the principal holds the permission code.
// Universal-access role holders pass every check without enumeration.
func (r *Resolver) HasPermission(ctx context.Context, tenantID, userID uuid.UUID, code string) (bool, error) {
	if err := r.requirePrincipal(ctx, tenantID, userID); err != nil {
		return false, err
	}

	roles, err := r.store.ListUserRoles(ctx, tenantID, userID)
	if err != nil {
		return false, fmt.Errorf("rbac: list user roles: %w", err)
	}
	for _, role := range roles {
		if Classify(role) == ClassUniversalAccess {
			return true, nil
		}
	}

	return r.store.UserHoldsPermission(ctx, tenantID, userID, code)
}

func (r *Resolver) requirePrincipal(ctx context.Context, tenantID, userID uuid.UUID) error {
	exists, err := r.directory.PrincipalExists(ctx, tenantID, userID)
	if err != nil {
		return fmt.Errorf("rbac: principal lookup: %w", err)
	}
	if !exists {
		return shared.ErrPrincipalNotFound
	}
	return nil
}
