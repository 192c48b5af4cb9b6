package shared

import (
	"context"

	"github.com/google/uuid"
)

type principalContextKey struct{}

// ContextWithPrincipalID stores the authenticated principal id in context.
// The identity gateway in front of the portal authenticates the caller; the
// portal only carries the asserted id.
func ContextWithPrincipalID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, principalContextKey{}, id)
}

// PrincipalIDFromContext extracts the principal id from context.
func PrincipalIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(principalContextKey{}).(uuid.UUID)
	return id, ok
}
