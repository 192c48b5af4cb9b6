package tenant

import (
	"context"

	"github.com/google/uuid"
)

type tenantContextKey struct{}

// ContextWithID stores the current tenant id in context. The HTTP layer sets
// it once per request; services extract it and pass it explicitly to stores.
func ContextWithID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, tenantContextKey{}, id)
}

// IDFromContext extracts the current tenant id from context.
func IDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(tenantContextKey{}).(uuid.UUID)
	return id, ok
}
