package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portal-agile/portal-agile/internal/shared"
	"github.com/portal-agile/portal-agile/internal/tenant"
)

type stubTenants struct {
	bySubdomain map[string]*tenant.Tenant
	byID        map[uuid.UUID]*tenant.Tenant
}

func (s *stubTenants) GetBySubdomain(ctx context.Context, subdomain string) (*tenant.Tenant, error) {
	if t, ok := s.bySubdomain[subdomain]; ok {
		return t, nil
	}
	return nil, shared.ErrTenantNotFound
}

func (s *stubTenants) GetByID(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	if t, ok := s.byID[id]; ok {
		return t, nil
	}
	return nil, shared.ErrTenantNotFound
}

func TestHostSubdomain(t *testing.T) {
	cases := map[string]string{
		"acme.portal.example.com":      "acme",
		"ACME.portal.example.com:8080": "acme",
		"portal.example":               tenant.CoreSubdomain,
		"localhost:8080":               tenant.CoreSubdomain,
	}
	for host, want := range cases {
		assert.Equal(t, want, hostSubdomain(host), "host %q", host)
	}
}

func TestTenantScopeFromHeader(t *testing.T) {
	id := uuid.New()
	tenants := &stubTenants{byID: map[uuid.UUID]*tenant.Tenant{
		id: {ID: id, Name: "Acme", Subdomain: "acme", IsActive: true},
	}}

	var got uuid.UUID
	handler := TenantScope(tenants, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = tenant.IDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	req.Header.Set("X-Tenant-ID", id.String())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, got)
}

func TestTenantScopeRejectsInactiveTenant(t *testing.T) {
	id := uuid.New()
	tenants := &stubTenants{byID: map[uuid.UUID]*tenant.Tenant{
		id: {ID: id, Subdomain: "acme", IsActive: false},
	}}

	handler := TenantScope(tenants, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run for an inactive tenant")
	}))

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	req.Header.Set("X-Tenant-ID", id.String())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestTenantScopeRejectsMalformedHeader(t *testing.T) {
	handler := TenantScope(&stubTenants{}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run for a malformed tenant id")
	}))

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	req.Header.Set("X-Tenant-ID", "not-a-uuid")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTenantScopeUnknownTenant(t *testing.T) {
	handler := TenantScope(&stubTenants{}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run for an unknown tenant")
	}))

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	req.Host = "ghost.portal.example.com"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPrincipalScopeHeader(t *testing.T) {
	id := uuid.New()
	var got uuid.UUID
	var present bool
	handler := PrincipalScope()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, present = shared.PrincipalIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/menu", nil)
	req.Header.Set("X-Principal-ID", id.String())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.True(t, present)
	assert.Equal(t, id, got)
}

func TestPrincipalScopeMissingHeaderPassesThrough(t *testing.T) {
	var present bool
	handler := PrincipalScope()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, present = shared.PrincipalIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, present)
}

func TestPrincipalScopeMalformedHeader(t *testing.T) {
	handler := PrincipalScope()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run for a malformed principal id")
	}))

	req := httptest.NewRequest(http.MethodGet, "/menu", nil)
	req.Header.Set("X-Principal-ID", "nope")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
