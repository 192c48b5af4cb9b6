package rbac

import (
	"net/http"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/portal-agile/portal-agile/internal/platform/httpx"
	"github.com/portal-agile/portal-agile/internal/shared"
	"github.com/portal-agile/portal-agile/internal/tenant"
)

// PermissionsHandler exposes the permission catalog and per-principal views.
type PermissionsHandler struct {
	logger    *slog.Logger
	store     Store
	resolver  *Resolver
	claims    *ClaimsProjector
	authorize Middleware
}

// NewPermissionsHandler builds PermissionsHandler instance.
func NewPermissionsHandler(logger *slog.Logger, store Store, resolver *Resolver, claims *ClaimsProjector, authorize Middleware) *PermissionsHandler {
	return &PermissionsHandler{logger: logger, store: store, resolver: resolver, claims: claims, authorize: authorize}
}

// MountRoutes registers permission routes.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authorize.RequireAny(shared.PermPermissionsView))
		r.Get("/", h.listPermissions)
	})
	// Every authenticated principal may read its own effective set.
	r.Get("/effective", h.myEffectivePermissions)
	r.Get("/claims", h.myClaims)
}

type permissionResponse struct {
	ID     int64  `json:"id"`
	Code   string `json:"code"`
	Name   string `json:"name"`
	Module string `json:"module"`
}

func (h *PermissionsHandler) listPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.store.ListActivePermissions(r.Context())
	if err != nil {
		h.logger.Error("list permissions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if module := r.URL.Query().Get("module"); module != "" {
		filtered := perms[:0]
		for _, p := range perms {
			if p.Module == module {
				filtered = append(filtered, p)
			}
		}
		perms = filtered
	}
	httpx.JSON(w, http.StatusOK, toPermissionResponses(perms))
}

func (h *PermissionsHandler) myEffectivePermissions(w http.ResponseWriter, r *http.Request) {
	tenantID, principalID, ok := scopeFromRequest(w, r)
	if !ok {
		return
	}
	perms, err := h.resolver.ResolveEffectivePermissions(r.Context(), tenantID, principalID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPermissionResponses(perms))
}

func (h *PermissionsHandler) myClaims(w http.ResponseWriter, r *http.Request) {
	tenantID, principalID, ok := scopeFromRequest(w, r)
	if !ok {
		return
	}
	claims, err := h.claims.ProjectClaims(r.Context(), tenantID, principalID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, claims)
}

func toPermissionResponses(perms []Permission) []permissionResponse {
	out := make([]permissionResponse, 0, len(perms))
	for _, p := range perms {
		out = append(out, permissionResponse{ID: p.ID, Code: p.Code, Name: p.Name, Module: p.Module})
	}
	return out
}

func scopeFromRequest(w http.ResponseWriter, r *http.Request) (tenantID, principalID uuid.UUID, ok bool) {
	tid, tok := tenant.IDFromContext(r.Context())
	pid, pok := shared.PrincipalIDFromContext(r.Context())
	if !tok || !pok {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "missing tenant or principal scope")
		return uuid.Nil, uuid.Nil, false
	}
	return tid, pid, true
}
