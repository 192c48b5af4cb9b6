package rbac

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/portal-agile/portal-agile/internal/shared"
)

// AuditRecorder persists grant-change audit records.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Engine performs bulk grant assignment. It is the only writer of the grant
// store; every replace runs inside one transaction and rolls back fully on
// failure so a half-replaced grant set is never observable.
type Engine struct {
	store     Store
	directory PrincipalDirectory
	audit     AuditRecorder
	logger    *slog.Logger
}

// NewEngine constructs an Engine. audit may be nil.
func NewEngine(store Store, directory PrincipalDirectory, audit AuditRecorder, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, directory: directory, audit: audit, logger: logger}
}

// ReplaceRoleGrants atomically replaces the role's grant set with the
// requested permission ids, after applying the role-class policy: universal
// roles always receive the whole active catalog, baseline roles keep every
// non-system permission no matter what the caller sent. The override is
// silent; callers must not assume the submitted ids were stored verbatim.
func (e *Engine) ReplaceRoleGrants(ctx context.Context, tenantID, roleID uuid.UUID, permissionIDs []int64, actor string) error {
	role, err := e.store.GetRole(ctx, tenantID, roleID)
	if err != nil {
		return err
	}

	catalog, err := e.store.ListActivePermissions(ctx)
	if err != nil {
		return fmt.Errorf("rbac: load permission catalog: %w", err)
	}
	if err := validateRequested(permissionIDs, catalog); err != nil {
		return err
	}

	final := PolicyFor(Classify(*role))(permissionIDs, catalog)

	err = e.store.ReplaceTx(ctx, func(tx TxStore) error {
		if err := tx.LockRole(ctx, tenantID, roleID); err != nil {
			return err
		}
		if err := tx.DeleteRoleGrants(ctx, roleID); err != nil {
			return err
		}
		for _, id := range final {
			if err := tx.InsertRoleGrant(ctx, roleID, id, actor); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	e.record(ctx, tenantID, actor, "rbac.role_grants.replace", "role", roleID.String(), map[string]any{
		"requested": len(permissionIDs),
		"stored":    len(final),
	})
	return nil
}

// ReplaceDirectGrants atomically replaces a user's direct grant set. No role
// policy applies; the requested set is stored verbatim.
func (e *Engine) ReplaceDirectGrants(ctx context.Context, tenantID, userID uuid.UUID, permissionIDs []int64, actor string) error {
	if err := e.requirePrincipal(ctx, tenantID, userID); err != nil {
		return err
	}

	catalog, err := e.store.ListActivePermissions(ctx)
	if err != nil {
		return fmt.Errorf("rbac: load permission catalog: %w", err)
	}
	if err := validateRequested(permissionIDs, catalog); err != nil {
		return err
	}

	final := dedupeIDs(permissionIDs)

	err = e.store.ReplaceTx(ctx, func(tx TxStore) error {
		if err := tx.LockUser(ctx, tenantID, userID); err != nil {
			return err
		}
		if err := tx.DeleteAllDirectGrants(ctx, userID); err != nil {
			return err
		}
		for _, id := range final {
			if err := tx.InsertDirectGrant(ctx, userID, id, actor); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	e.record(ctx, tenantID, actor, "rbac.direct_grants.replace", "user", userID.String(), map[string]any{
		"stored": len(final),
	})
	return nil
}

// AddDirectGrant grants a single permission directly to a user. Granting an
// already-held permission succeeds without duplicating.
func (e *Engine) AddDirectGrant(ctx context.Context, tenantID, userID uuid.UUID, permissionID int64, actor string) error {
	if err := e.requirePrincipal(ctx, tenantID, userID); err != nil {
		return err
	}

	catalog, err := e.store.ListActivePermissions(ctx)
	if err != nil {
		return fmt.Errorf("rbac: load permission catalog: %w", err)
	}
	if err := validateRequested([]int64{permissionID}, catalog); err != nil {
		return err
	}

	exists, err := e.store.DirectGrantExists(ctx, userID, permissionID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	if err := e.store.InsertDirectGrant(ctx, userID, permissionID, actor); err != nil {
		if errors.Is(err, shared.ErrDuplicate) {
			// Lost a race with a concurrent identical grant.
			return nil
		}
		return err
	}

	e.record(ctx, tenantID, actor, "rbac.direct_grants.add", "user", userID.String(), map[string]any{
		"permission_id": permissionID,
	})
	return nil
}

// RevokeDirectGrants removes the listed direct grants. Revoking a permission
// the user does not hold is a no-op success.
func (e *Engine) RevokeDirectGrants(ctx context.Context, tenantID, userID uuid.UUID, permissionIDs []int64, actor string) error {
	if err := e.requirePrincipal(ctx, tenantID, userID); err != nil {
		return err
	}

	if err := e.store.DeleteDirectGrants(ctx, userID, dedupeIDs(permissionIDs)); err != nil {
		return err
	}

	e.record(ctx, tenantID, actor, "rbac.direct_grants.revoke", "user", userID.String(), map[string]any{
		"requested": len(permissionIDs),
	})
	return nil
}

func (e *Engine) requirePrincipal(ctx context.Context, tenantID, userID uuid.UUID) error {
	exists, err := e.directory.PrincipalExists(ctx, tenantID, userID)
	if err != nil {
		return fmt.Errorf("rbac: principal lookup: %w", err)
	}
	if !exists {
		return shared.ErrPrincipalNotFound
	}
	return nil
}

func (e *Engine) record(ctx context.Context, tenantID uuid.UUID, actor, action, entity, entityID string, meta map[string]any) {
	if e.audit == nil {
		return
	}
	err := e.audit.Record(ctx, shared.AuditLog{
		TenantID: tenantID.String(),
		ActorID:  actor,
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
		Meta:     meta,
	})
	if err != nil {
		e.logger.Warn("record grant audit", slog.String("action", action), slog.Any("error", err))
	}
}

func validateRequested(requested []int64, catalog []Permission) error {
	known := make(map[int64]struct{}, len(catalog))
	for _, p := range catalog {
		known[p.ID] = struct{}{}
	}
	for _, id := range requested {
		if _, ok := known[id]; !ok {
			return fmt.Errorf("%w: permission id %d", shared.ErrPermissionNotFound, id)
		}
	}
	return nil
}
