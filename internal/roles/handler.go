package roles

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/portal-agile/portal-agile/internal/platform/httpx"
	"github.com/portal-agile/portal-agile/internal/rbac"
	"github.com/portal-agile/portal-agile/internal/shared"
	"github.com/portal-agile/portal-agile/internal/tenant"
)

// Handler manages role management endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	grants    *rbac.Engine
	authorize rbac.Middleware
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, grants *rbac.Engine, authorize rbac.Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		grants:    grants,
		authorize: authorize,
		validator: validator.New(),
	}
}

// MountRoutes registers role routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authorize.RequireAny(shared.PermRolesView))
		r.Get("/", h.listRoles)
		r.Get("/{roleID}", h.getRole)
		r.Get("/{roleID}/grants", h.listGrants)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authorize.RequireAny(shared.PermRolesCreate))
		r.Post("/", h.createRole)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authorize.RequireAny(shared.PermRolesEdit))
		r.Put("/{roleID}", h.updateRole)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authorize.RequireAny(shared.PermRolesDelete))
		r.Delete("/{roleID}", h.deleteRole)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authorize.RequireAny(shared.PermPermissionsAssign))
		r.Put("/{roleID}/grants", h.replaceGrants)
	})
}

type roleRequest struct {
	Name        string `json:"name" validate:"required,max=150"`
	Description string `json:"description" validate:"max=500"`
}

type grantSetRequest struct {
	PermissionIDs []int64 `json:"permissionIds"`
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenant.IDFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "missing tenant scope")
		return
	}
	list, err := h.service.ListRoles(r.Context(), tenantID)
	if err != nil {
		h.logger.Error("list roles", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) getRole(w http.ResponseWriter, r *http.Request) {
	tenantID, roleID, ok := h.pathScope(w, r)
	if !ok {
		return
	}
	role, err := h.service.GetRole(r.Context(), tenantID, roleID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, role)
}

func (h *Handler) createRole(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenant.IDFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "missing tenant scope")
		return
	}
	var req roleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	role, err := h.service.CreateRole(r.Context(), tenantID, req.Name, req.Description)
	if err != nil {
		h.logger.Error("create role", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, role)
}

func (h *Handler) updateRole(w http.ResponseWriter, r *http.Request) {
	tenantID, roleID, ok := h.pathScope(w, r)
	if !ok {
		return
	}
	var req roleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.service.UpdateRole(r.Context(), tenantID, roleID, req.Name, req.Description); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteRole(w http.ResponseWriter, r *http.Request) {
	tenantID, roleID, ok := h.pathScope(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteRole(r.Context(), tenantID, roleID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listGrants(w http.ResponseWriter, r *http.Request) {
	tenantID, roleID, ok := h.pathScope(w, r)
	if !ok {
		return
	}
	grants, err := h.service.ListGrants(r.Context(), tenantID, roleID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, grants)
}

func (h *Handler) replaceGrants(w http.ResponseWriter, r *http.Request) {
	tenantID, roleID, ok := h.pathScope(w, r)
	if !ok {
		return
	}
	var req grantSetRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.grants.ReplaceRoleGrants(r.Context(), tenantID, roleID, req.PermissionIDs, h.actor(r)); err != nil {
		h.logger.Error("replace role grants", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) pathScope(w http.ResponseWriter, r *http.Request) (tenantID, roleID uuid.UUID, ok bool) {
	tenantID, tok := tenant.IDFromContext(r.Context())
	if !tok {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "missing tenant scope")
		return uuid.Nil, uuid.Nil, false
	}
	roleID, err := uuid.Parse(chi.URLParam(r, "roleID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "role id must be a UUID")
		return uuid.Nil, uuid.Nil, false
	}
	return tenantID, roleID, true
}

func (h *Handler) actor(r *http.Request) string {
	if id, ok := shared.PrincipalIDFromContext(r.Context()); ok {
		return id.String()
	}
	return "system"
}
