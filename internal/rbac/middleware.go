package rbac

import (
	"errors"
	"net/http"
	"strings"

	"log/slog"

	"github.com/portal-agile/portal-agile/internal/shared"
	"github.com/portal-agile/portal-agile/internal/tenant"
)

// Middleware wires authorization helpers for HTTP handlers.
type Middleware struct {
	Resolver *Resolver
	Logger   *slog.Logger
}

// RequireAny ensures the current principal holds at least one of the required
// permission codes. Universal-access role holders always pass.
func (m Middleware) RequireAny(codes ...string) func(http.Handler) http.Handler {
	normalized := normalizeCodes(codes)
	return m.require(normalized, func(granted map[string]struct{}) bool {
		for _, code := range normalized {
			if _, ok := granted[code]; ok {
				return true
			}
		}
		return false
	})
}

// RequireAll ensures the current principal holds all required permission codes.
func (m Middleware) RequireAll(codes ...string) func(http.Handler) http.Handler {
	normalized := normalizeCodes(codes)
	return m.require(normalized, func(granted map[string]struct{}) bool {
		for _, code := range normalized {
			if _, ok := granted[code]; !ok {
				return false
			}
		}
		return true
	})
}

func (m Middleware) require(normalized []string, pass func(map[string]struct{}) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(normalized) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			tenantID, ok := tenant.IDFromContext(r.Context())
			if !ok {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			principalID, ok := shared.PrincipalIDFromContext(r.Context())
			if !ok {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}

			// One-code checks go through the cheap membership path so the
			// universal-role short-circuit skips enumeration.
			if len(normalized) == 1 {
				holds, err := m.Resolver.HasPermission(r.Context(), tenantID, principalID, normalized[0])
				if err != nil {
					m.fail(w, err)
					return
				}
				if holds {
					next.ServeHTTP(w, r)
					return
				}
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}

			granted, err := m.Resolver.ResolveEffectiveCodes(r.Context(), tenantID, principalID)
			if err != nil {
				m.fail(w, err)
				return
			}
			if pass(granted) {
				next.ServeHTTP(w, r)
				return
			}
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		})
	}
}

func (m Middleware) fail(w http.ResponseWriter, err error) {
	if m.Logger != nil {
		m.Logger.Error("rbac authorize", slog.Any("error", err))
	}
	if errors.Is(err, shared.ErrPrincipalNotFound) {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func normalizeCodes(codes []string) []string {
	unique := make(map[string]struct{}, len(codes))
	normalized := make([]string, 0, len(codes))
	for _, code := range codes {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" {
			continue
		}
		if _, ok := unique[code]; ok {
			continue
		}
		unique[code] = struct{}{}
		normalized = append(normalized, code)
	}
	return normalized
}
