package app

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"
	"github.com/unrolled/secure"

	"github.com/portal-agile/portal-agile/internal/platform/httpx"
	"github.com/portal-agile/portal-agile/internal/shared"
	"github.com/portal-agile/portal-agile/internal/tenant"
)

// TenantDirectory resolves tenants for scoping incoming requests.
type TenantDirectory interface {
	GetBySubdomain(ctx context.Context, subdomain string) (*tenant.Tenant, error)
	GetByID(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error)
}

// MiddlewareConfig aggregates dependencies shared by the middleware stack.
type MiddlewareConfig struct {
	Logger  *slog.Logger
	Config  *Config
	Tenants TenantDirectory
}

// MiddlewareStack installs the portal middleware chain.
func MiddlewareStack(cfg MiddlewareConfig) []func(http.Handler) http.Handler {
	secureMiddleware := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		SSLRedirect:        cfg.Config != nil && cfg.Config.IsProduction(),
		SSLProxyHeaders:    map[string]string{"X-Forwarded-Proto": "https"},
	})

	timeout := 30 * time.Second
	limit, window := 120, time.Minute
	if cfg.Config != nil {
		if cfg.Config.AppRequestTimeout > 0 {
			timeout = cfg.Config.AppRequestTimeout
		}
		if cfg.Config.RateLimit > 0 {
			limit = cfg.Config.RateLimit
		}
		if cfg.Config.RateLimitWindow > 0 {
			window = cfg.Config.RateLimitWindow
		}
	}

	return []func(http.Handler) http.Handler{
		middleware.RealIP,
		middleware.RequestID,
		middleware.Recoverer,
		middleware.Timeout(timeout),
		func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if err := secureMiddleware.Process(w, r); err != nil {
					cfg.Logger.Warn("secure headers blocked request", slog.Any("error", err))
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					return
				}
				next.ServeHTTP(w, r)
			})
		},
		middleware.Compress(5),
		httprate.Limit(limit, window, httprate.WithKeyFuncs(httprate.KeyByIP)),
	}
}

// TenantScope resolves the tenant for each request, either from the
// X-Tenant-ID header or from the host subdomain, and stores its id in the
// request context. Requests without a resolvable active tenant are refused.
func TenantScope(tenants TenantDirectory, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t, err := resolveTenant(r, tenants)
			if err != nil {
				httpx.RespondError(w, err)
				return
			}
			if !t.IsActive {
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "tenant is deactivated")
				return
			}
			ctx := tenant.ContextWithID(r.Context(), t.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PrincipalScope carries the authenticated principal id asserted by the
// identity gateway in the X-Principal-ID header into the request context.
// Requests without the header pass through unscoped; authorization
// middleware downstream rejects them where a principal is required.
func PrincipalScope() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("X-Principal-ID"))
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}
			id, err := uuid.Parse(raw)
			if err != nil {
				httpx.Problem(w, http.StatusBadRequest, "Bad Request", "X-Principal-ID must be a UUID")
				return
			}
			ctx := shared.ContextWithPrincipalID(r.Context(), id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func resolveTenant(r *http.Request, tenants TenantDirectory) (*tenant.Tenant, error) {
	if raw := strings.TrimSpace(r.Header.Get("X-Tenant-ID")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, shared.ErrInvalidIdentifier
		}
		return tenants.GetByID(r.Context(), id)
	}
	return tenants.GetBySubdomain(r.Context(), hostSubdomain(r.Host))
}

// hostSubdomain extracts the first label of the host. A bare or two-label
// host maps to the core subdomain.
func hostSubdomain(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	parts := strings.Split(host, ".")
	if len(parts) < 3 {
		return tenant.CoreSubdomain
	}
	return strings.ToLower(parts[0])
}
