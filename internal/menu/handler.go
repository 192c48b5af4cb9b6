package menu

import (
	"net/http"

	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/portal-agile/portal-agile/internal/platform/httpx"
	"github.com/portal-agile/portal-agile/internal/shared"
	"github.com/portal-agile/portal-agile/internal/tenant"
)

// Handler serves the principal-scoped navigation endpoints.
type Handler struct {
	logger    *slog.Logger
	projector *Projector
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, projector *Projector) *Handler {
	return &Handler{logger: logger, projector: projector}
}

// MountRoutes registers menu routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.myMenu)
	r.Get("/modules", h.myModules)
}

func (h *Handler) myMenu(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenant.IDFromContext(r.Context())
	principalID, pok := shared.PrincipalIDFromContext(r.Context())
	if !ok || !pok {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "missing tenant or principal scope")
		return
	}
	tree, err := h.projector.ProjectMenu(r.Context(), tenantID, principalID)
	if err != nil {
		h.logger.Error("project menu", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tree)
}

func (h *Handler) myModules(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenant.IDFromContext(r.Context())
	principalID, pok := shared.PrincipalIDFromContext(r.Context())
	if !ok || !pok {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "missing tenant or principal scope")
		return
	}
	modules, err := h.projector.AccessibleModules(r.Context(), tenantID, principalID)
	if err != nil {
		h.logger.Error("list accessible modules", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, modules)
}
