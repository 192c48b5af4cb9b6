package rbac

import (
	"context"

	"github.com/google/uuid"
)

// ClaimsProjector turns an effective permission set into the flat claim list
// embedded by the credential-issuance layer. No signing or serialization
// happens here.
type ClaimsProjector struct {
	resolver *Resolver
}

// NewClaimsProjector builds ClaimsProjector instance.
func NewClaimsProjector(resolver *Resolver) *ClaimsProjector {
	return &ClaimsProjector{resolver: resolver}
}

// ProjectClaims maps each effective permission to a "Permission" claim
// carrying its code. An empty effective set yields an empty list, not an error.
func (p *ClaimsProjector) ProjectClaims(ctx context.Context, tenantID, userID uuid.UUID) ([]Claim, error) {
	perms, err := p.resolver.ResolveEffectivePermissions(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	claims := make([]Claim, 0, len(perms))
	for _, perm := range perms {
		claims = append(claims, Claim{Type: ClaimTypePermission, Value: perm.Code})
	}
	return claims, nil
}
