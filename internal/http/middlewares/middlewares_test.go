package middlewares

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kobecorporation/kbsaas/internal/authz"
	"github.com/kobecorporation/kbsaas/internal/cache"
	"github.com/kobecorporation/kbsaas/internal/domain/repository"
	"github.com/kobecorporation/kbsaas/internal/domain/types"
	"github.com/kobecorporation/kbsaas/internal/http/helpers"
	svc "github.com/kobecorporation/kbsaas/internal/http/services/tenant"
	jwtx "github.com/kobecorporation/kbsaas/internal/jwt"
	"github.com/kobecorporation/kbsaas/internal/metrics"
	"github.com/kobecorporation/kbsaas/internal/rate"
	"github.com/kobecorporation/kbsaas/internal/store/memory"
)

const secret = "0123456789abcdef0123456789abcdef"

func ok(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Success bool   `json:"success"`
		Code    string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	return body.Code
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { order = append(order, "h") }), mw("a"), mw("b"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, []string{"a", "b", "h"}, order)
}

func TestRequestIDPropagatesOrGenerates(t *testing.T) {
	var seen string
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = helpers.RequestID(r.Context())
	}), WithRequestID())

	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	assert.Len(t, seen, 36)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))
}

func TestRecoverWritesInternalError(t *testing.T) {
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }), WithLogging(false), WithRecover())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL_SERVER_ERROR", errorCode(t, rec))
}

func TestCORS(t *testing.T) {
	h := Chain(http.HandlerFunc(ok), WithCORS([]string{"https://app.example.com/"}, "X-Tenant-ID"))

	r := httptest.NewRequest("OPTIONS", "/api/auth/login", nil)
	r.Header.Set("Origin", "https://app.example.com")
	r.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), "X-Tenant-Error")

	r = httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

type tenantFixture struct {
	store    *memory.Store
	resolver *svc.Resolver
	acme     *repository.Tenant
}

func newTenantFixture(t *testing.T) *tenantFixture {
	t.Helper()
	ctx := context.Background()
	st := memory.New()
	domain := "login.acme.fr"
	acme := &repository.Tenant{ID: "t-acme", Name: "Acme", Slug: "acme", Plan: types.PlanPro,
		Status: types.TenantStatusActive, CustomDomain: &domain, Settings: repository.DefaultTenantSettings()}
	require.NoError(t, st.Tenants().Create(ctx, acme))
	require.NoError(t, st.Tenants().Create(ctx, &repository.Tenant{ID: "t-gone", Name: "Gone", Slug: "gone",
		Plan: types.PlanFree, Status: types.TenantStatusSuspended, Settings: repository.DefaultTenantSettings()}))
	res := svc.NewResolver(st.Tenants(), cache.NewMemory("test", 0, time.Minute), svc.ResolverConfig{}, nil)
	return &tenantFixture{store: st, resolver: res, acme: acme}
}

func (f *tenantFixture) handler(seen **repository.Tenant) http.Handler {
	return Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*seen = helpers.TenantFrom(r.Context())
	}), WithTenantResolution(TenantConfig{Resolver: f.resolver, ExcludedPaths: []string{"/api/platform", "/health"}}))
}

func TestTenantResolution(t *testing.T) {
	f := newTenantFixture(t)

	cases := []struct {
		name     string
		host     string
		header   string
		path     string
		status   int
		slug     string
		tenantEr string
	}{
		{name: "subdomain", host: "kb-saas-acme.kobecorporation.com:443", path: "/api/auth/login", status: 200, slug: "acme"},
		{name: "header", host: "localhost:8080", header: "acme", path: "/api/auth/login", status: 200, slug: "acme"},
		{name: "custom domain", host: "login.acme.fr", path: "/api/auth/me", status: 200, slug: "acme"},
		{name: "platform host", host: "kobecorporation.com", path: "/api/auth/login", status: 200},
		{name: "localhost", host: "localhost", path: "/api/auth/login", status: 200},
		{name: "unknown domain", host: "app.client.fr", path: "/api/auth/login", status: 404, tenantEr: "TENANT_NOT_FOUND"},
		{name: "unknown header", host: "localhost", header: "nope", path: "/api/auth/login", status: 404, tenantEr: "TENANT_NOT_FOUND"},
		{name: "suspended", host: "kb-saas-gone.kobecorporation.com", path: "/api/auth/login", status: 403, tenantEr: "TENANT_NOT_ACCESSIBLE"},
		{name: "excluded path", host: "app.client.fr", path: "/api/platform/admin/stats", status: 200},
		{name: "excluded prefix only", host: "app.client.fr", path: "/healthcheck", status: 404, tenantEr: "TENANT_NOT_FOUND"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var seen *repository.Tenant
			r := httptest.NewRequest("GET", tc.path, nil)
			r.Host = tc.host
			if tc.header != "" {
				r.Header.Set("X-Tenant-ID", tc.header)
			}
			rec := httptest.NewRecorder()
			f.handler(&seen).ServeHTTP(rec, r)

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.tenantEr, rec.Header().Get(TenantErrorHeader))
			if tc.slug == "" {
				assert.Nil(t, seen)
				return
			}
			require.NotNil(t, seen)
			assert.Equal(t, tc.slug, seen.Slug)
			assert.Equal(t, tc.slug, rec.Header().Get("X-Tenant-ID"))
		})
	}
}

func TestTenantResolutionTouchesActivity(t *testing.T) {
	f := newTenantFixture(t)
	var seen *repository.Tenant
	r := httptest.NewRequest("GET", "/api/auth/me", nil)
	r.Host = "kb-saas-acme.kobecorporation.com"
	f.handler(&seen).ServeHTTP(httptest.NewRecorder(), r)

	got, err := f.store.Tenants().GetByID(context.Background(), f.acme.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.LastActivityAt)
}

func issue(t *testing.T, codec *jwtx.Codec, sub jwtx.AccessSubject) string {
	t.Helper()
	tok, _, err := codec.IssueAccess(sub)
	require.NoError(t, err)
	return tok
}

func TestRequireAuth(t *testing.T) {
	codec, err := jwtx.NewCodec(jwtx.Config{Secret: secret, Issuer: "kbsaas"})
	require.NoError(t, err)

	var p authz.Principal
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, _ = authz.PrincipalFrom(r.Context())
	}), RequireAuth(codec))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/auth/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "TOKEN_MISSING", errorCode(t, rec))

	refresh, _, err := codec.IssueRefresh("u1", nil, false)
	require.NoError(t, err)
	r := httptest.NewRequest("GET", "/api/auth/me", nil)
	r.Header.Set("Authorization", "Bearer "+refresh)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.Equal(t, "WRONG_TOKEN_TYPE", errorCode(t, rec))

	r = httptest.NewRequest("GET", "/api/auth/me", nil)
	r.Header.Set("Authorization", "Bearer not.a.token")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.Equal(t, "TOKEN_INVALID", errorCode(t, rec))

	tid := "t-acme"
	r = httptest.NewRequest("GET", "/api/auth/me", nil)
	r.Header.Set("Authorization", "bearer "+issue(t, codec, jwtx.AccessSubject{
		UserID: "u1", Email: "u1@acme.com", Role: types.RoleUser, TenantRole: types.TenantRoleAdmin, TenantID: &tid,
	}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", p.UserID)
	assert.True(t, p.BelongsTo("t-acme"))
}

func TestRBAC(t *testing.T) {
	acme := &repository.Tenant{ID: "t-acme", Slug: "acme"}
	tid := acme.ID
	other := "t-other"
	member := authz.Principal{UserID: "m", TenantRole: types.TenantRoleMember, TenantID: &tid}
	admin := authz.Principal{UserID: "a", TenantRole: types.TenantRoleAdmin, TenantID: &tid}
	stranger := authz.Principal{UserID: "s", TenantRole: types.TenantRoleOwner, TenantID: &other}
	root := authz.Principal{UserID: "root", Role: types.RolePlatformAdmin, TenantRole: types.TenantRoleOwner}

	serve := func(mw Middleware, p *authz.Principal, tenant *repository.Tenant) *httptest.ResponseRecorder {
		r := httptest.NewRequest("GET", "/", nil)
		ctx := helpers.WithTenant(r.Context(), tenant)
		if p != nil {
			ctx = authz.WithPrincipal(ctx, *p)
		}
		rec := httptest.NewRecorder()
		Chain(http.HandlerFunc(ok), mw).ServeHTTP(rec, r.WithContext(ctx))
		return rec
	}

	assert.Equal(t, "TENANT_REQUIRED", errorCode(t, serve(RequireTenant(), nil, nil)))
	assert.Equal(t, 200, serve(RequireTenant(), nil, acme).Code)

	assert.Equal(t, 200, serve(RequireTenantMember(), &member, acme).Code)
	assert.Equal(t, "NOT_TENANT_MEMBER", errorCode(t, serve(RequireTenantMember(), &stranger, acme)))
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, serve(RequireTenantMember(), nil, acme)))
	assert.Equal(t, 200, serve(RequireTenantMember(), &root, acme).Code)
	assert.Equal(t, 200, serve(RequirePermission(types.PermManageMembers), &root, acme).Code)

	assert.Equal(t, 200, serve(RequireTenantRole(types.TenantRoleAdmin), &admin, acme).Code)
	assert.Equal(t, "FORBIDDEN", errorCode(t, serve(RequireTenantRole(types.TenantRoleAdmin), &member, acme)))

	assert.Equal(t, 200, serve(RequirePermission(types.PermInviteMembers), &admin, acme).Code)
	assert.Equal(t, "FORBIDDEN", errorCode(t, serve(RequirePermission(types.PermInviteMembers), &member, acme)))
	assert.Equal(t, "NOT_TENANT_MEMBER", errorCode(t, serve(RequirePermission(types.PermViewMembers), &stranger, acme)))

	assert.Equal(t, 200, serve(RequirePlatformAdmin(), &root, nil).Code)
	assert.Equal(t, "FORBIDDEN", errorCode(t, serve(RequirePlatformAdmin(), &admin, nil)))
}

func TestRateLimit(t *testing.T) {
	h := Chain(http.HandlerFunc(ok), WithRateLimit(RateLimitConfig{
		Bucket:  "login",
		Limiter: rate.NewMemoryLimiter("login:", 2, time.Minute),
	}))
	before := testutil.ToFloat64(metrics.RateLimited.WithLabelValues("login"))

	call := func(ip string) *httptest.ResponseRecorder {
		r := httptest.NewRequest("POST", "/api/auth/login", nil)
		r.RemoteAddr = ip + ":5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		return rec
	}
	assert.Equal(t, 200, call("10.0.0.1").Code)
	assert.Equal(t, 200, call("10.0.0.1").Code)
	rec := call("10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", errorCode(t, rec))
	assert.Equal(t, 200, call("10.0.0.2").Code)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.RateLimited.WithLabelValues("login")))
}

func TestMetricsUseRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(WithMetrics())
	r.Get("/api/tenants/check-slug/{slug}", ok)

	c := metrics.HTTPRequestsTotal.WithLabelValues("GET", "/api/tenants/check-slug/{slug}", "200")
	before := testutil.ToFloat64(c)
	for _, slug := range []string{"acme", "globex"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/tenants/check-slug/"+slug, nil))
	}
	assert.Equal(t, before+2, testutil.ToFloat64(c))
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("X-Forwarded-Proto", "https")
	Chain(http.HandlerFunc(ok), WithSecurityHeaders()).ServeHTTP(rec, r)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))
}
