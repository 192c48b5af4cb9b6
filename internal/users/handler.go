package users

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

// Handler manages user management endpoints.
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

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authorize.RequireAny(shared.PermUsersView))
		r.Get("/", h.listUsers)
		r.Get("/{userID}", h.getUser)
		r.Get("/{userID}/roles", h.listRoleAssignments)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authorize.RequireAny(shared.PermUsersCreate))
		r.Post("/", h.createUser)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authorize.RequireAny(shared.PermUsersDelete))
		r.Post("/{userID}/deactivate", h.deactivateUser)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authorize.RequireAny(shared.PermRolesAssign))
		r.Post("/{userID}/roles", h.assignRole)
		r.Delete("/{userID}/roles/{roleID}", h.removeRole)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authorize.RequireAny(shared.PermPermissionsAssign))
		r.Put("/{userID}/grants", h.replaceDirectGrants)
		r.Post("/{userID}/grants", h.addDirectGrant)
		r.Delete("/{userID}/grants", h.revokeDirectGrants)
	})
}

type createUserRequest struct {
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"firstName" validate:"max=100"`
	LastName  string `json:"lastName" validate:"max=100"`
}

type assignRoleRequest struct {
	RoleID string `json:"roleId"`
}

type grantSetRequest struct {
	PermissionIDs []int64 `json:"permissionIds"`
}

type singleGrantRequest struct {
	PermissionID int64 `json:"permissionId" validate:"required"`
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenant.IDFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "missing tenant scope")
		return
	}
	if email := r.URL.Query().Get("email"); email != "" {
		u, err := h.service.GetUserByEmail(r.Context(), tenantID, email)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, []User{*u})
		return
	}
	list, err := h.service.ListUsers(r.Context(), tenantID)
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	tenantID, userID, ok := h.pathScope(w, r)
	if !ok {
		return
	}
	u, err := h.service.GetUser(r.Context(), tenantID, userID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, u)
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenant.IDFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "missing tenant scope")
		return
	}
	var req createUserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	u, err := h.service.CreateUser(r.Context(), tenantID, req.Email, req.FirstName, req.LastName)
	if err != nil {
		h.logger.Error("create user", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, u)
}

func (h *Handler) deactivateUser(w http.ResponseWriter, r *http.Request) {
	tenantID, userID, ok := h.pathScope(w, r)
	if !ok {
		return
	}
	if err := h.service.DeactivateUser(r.Context(), tenantID, userID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listRoleAssignments(w http.ResponseWriter, r *http.Request) {
	tenantID, userID, ok := h.pathScope(w, r)
	if !ok {
		return
	}
	list, err := h.service.ListRoleAssignments(r.Context(), tenantID, userID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) assignRole(w http.ResponseWriter, r *http.Request) {
	tenantID, userID, ok := h.pathScope(w, r)
	if !ok {
		return
	}
	var req assignRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	roleID, err := uuid.Parse(req.RoleID)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "roleId must be a UUID")
		return
	}
	if err := h.service.AssignRole(r.Context(), tenantID, userID, roleID, h.actor(r)); err != nil {
		h.logger.Error("assign role", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) removeRole(w http.ResponseWriter, r *http.Request) {
	tenantID, userID, ok := h.pathScope(w, r)
	if !ok {
		return
	}
	roleID, err := uuid.Parse(chi.URLParam(r, "roleID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "role id must be a UUID")
		return
	}
	if err := h.service.RemoveRole(r.Context(), tenantID, userID, roleID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) replaceDirectGrants(w http.ResponseWriter, r *http.Request) {
	tenantID, userID, ok := h.pathScope(w, r)
	if !ok {
		return
	}
	var req grantSetRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.grants.ReplaceDirectGrants(r.Context(), tenantID, userID, req.PermissionIDs, h.actor(r)); err != nil {
		h.logger.Error("replace direct grants", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) addDirectGrant(w http.ResponseWriter, r *http.Request) {
	tenantID, userID, ok := h.pathScope(w, r)
	if !ok {
		return
	}
	var req singleGrantRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	if err := h.grants.AddDirectGrant(r.Context(), tenantID, userID, req.PermissionID, h.actor(r)); err != nil {
		h.logger.Error("add direct grant", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) revokeDirectGrants(w http.ResponseWriter, r *http.Request) {
	tenantID, userID, ok := h.pathScope(w, r)
	if !ok {
		return
	}
	var req grantSetRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.grants.RevokeDirectGrants(r.Context(), tenantID, userID, req.PermissionIDs, h.actor(r)); err != nil {
		h.logger.Error("revoke direct grants", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) pathScope(w http.ResponseWriter, r *http.Request) (tenantID, userID uuid.UUID, ok bool) {
	tenantID, tok := tenant.IDFromContext(r.Context())
	if !tok {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "missing tenant scope")
		return uuid.Nil, uuid.Nil, false
	}
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "user id must be a UUID")
		return uuid.Nil, uuid.Nil, false
	}
	return tenantID, userID, true
}

func (h *Handler) actor(r *http.Request) string {
	if id, ok := shared.PrincipalIDFromContext(r.Context()); ok {
		return id.String()
	}
	return "system"
}
