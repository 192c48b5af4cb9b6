package rbac

import "github.com/portal-agile/portal-agile/internal/shared"

// GrantPolicy computes the permission id set actually stored by a role-grant
// replacement, given the caller-requested ids and the active catalog.
type GrantPolicy func(requested []int64, catalog []Permission) []int64

var grantPolicies = map[RoleClass]GrantPolicy{
	ClassOrdinary:          ordinaryGrantPolicy,
	ClassUniversalAccess:   universalGrantPolicy,
	ClassBaselineNonSystem: baselineGrantPolicy,
}

// PolicyFor returns the grant policy for a role class.
func PolicyFor(class RoleClass) GrantPolicy {
	if policy, ok := grantPolicies[class]; ok {
		return policy
	}
	return ordinaryGrantPolicy
}

// ordinaryGrantPolicy stores the requested set verbatim, deduplicated.
func ordinaryGrantPolicy(requested []int64, _ []Permission) []int64 {
	return dedupeIDs(requested)
}

// universalGrantPolicy ignores the request: a universal-access role always
// holds the entire active catalog and cannot be reduced.
func universalGrantPolicy(_ []int64, catalog []Permission) []int64 {
	ids := make([]int64, 0, len(catalog))
	for _, p := range catalog {
		ids = append(ids, p.ID)
	}
	return ids
}

// baselineGrantPolicy keeps every non-system permission regardless of the
// request and adds only the requested system-administration permissions.
// Omitting a non-system id from the request does not revoke it.
func baselineGrantPolicy(requested []int64, catalog []Permission) []int64 {
	system := make(map[int64]struct{})
	ids := make([]int64, 0, len(catalog))
	for _, p := range catalog {
		if p.Module == shared.ModuleSystemAdministration {
			system[p.ID] = struct{}{}
			continue
		}
		ids = append(ids, p.ID)
	}
	for _, id := range dedupeIDs(requested) {
		if _, ok := system[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
