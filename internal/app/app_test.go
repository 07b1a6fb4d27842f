package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kobecorporation/kbsaas/internal/bootstrap"
	"github.com/kobecorporation/kbsaas/internal/cache"
	"github.com/kobecorporation/kbsaas/internal/config"
	"github.com/kobecorporation/kbsaas/internal/domain/repository"
	"github.com/kobecorporation/kbsaas/internal/email"
	"github.com/kobecorporation/kbsaas/internal/email/emailtest"
	jwtx "github.com/kobecorporation/kbsaas/internal/jwt"
	"github.com/kobecorporation/kbsaas/internal/rate"
	"github.com/kobecorporation/kbsaas/internal/security/password"
	"github.com/kobecorporation/kbsaas/internal/store/memory"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type harness struct {
	t     *testing.T
	app   *App
	store repository.Store
	mail  *emailtest.Recorder
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := config.Default()
	st := memory.New()
	rec := &emailtest.Recorder{}
	mailer, err := email.NewMailer(rec, email.MailerConfig{
		TenantPrefix:   cfg.Tenant.Prefix,
		PlatformDomain: cfg.Tenant.PlatformDomain,
	})
	require.NoError(t, err)
	codec, err := jwtx.NewCodec(jwtx.Config{Secret: testSecret, Issuer: "kbsaas-test"})
	require.NoError(t, err)

	a := New(cfg, Deps{
		Store:  st,
		Cache:  cache.NewMemory("test:", time.Minute, time.Minute),
		Codec:  codec,
		Mailer: mailer,
		Hasher: password.NewHasher(password.Fast),
		Policy: password.DefaultPolicy,
		Limiters: Limiters{
			Login: rate.NewMemoryLimiter("login:", 100, time.Minute),
		},
		Version: "test",
	})
	return &harness{t: t, app: a, store: st, mail: rec}
}

type call struct {
	method string
	path   string
	body   any
	tenant string
	token  string
}

func (h *harness) do(c call) (*httptest.ResponseRecorder, map[string]any) {
	h.t.Helper()
	var buf bytes.Buffer
	if c.body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(c.body))
	}
	req := httptest.NewRequest(c.method, c.path, &buf)
	req.Host = "localhost"
	if c.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tenant != "" {
		req.Header.Set("X-Tenant-ID", c.tenant)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	rr := httptest.NewRecorder()
	h.app.Handler.ServeHTTP(rr, req)

	var out map[string]any
	if rr.Body.Len() > 0 {
		_ = json.Unmarshal(rr.Body.Bytes(), &out)
	}
	return rr, out
}

func dataOf(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	d, ok := body["data"].(map[string]any)
	require.True(t, ok, "respuesta sin data: %v", body)
	return d
}

// signupAndVerify crea el tenant acme y devuelve el access token del OWNER.
func (h *harness) signupAndVerify() (tenantID, accessToken string) {
	t := h.t
	rr, body := h.do(call{method: http.MethodPost, path: "/api/tenants/signup", body: map[string]any{
		"name":           "Acme",
		"slug":           "acme",
		"ownerEmail":     "jean@acme.fr",
		"ownerPassword":  "Passw0rd!",
		"ownerFirstName": "Jean",
		"ownerLastName":  "Dupont",
		"ownerUsername":  "jdupont",
	}})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	tenantID = body["tenant"].(map[string]any)["id"].(string)

	rr, body = h.do(call{method: http.MethodPost, path: "/api/auth/login", tenant: "acme", body: map[string]any{
		"emailOrUsername": "jdupont", "password": "Passw0rd!",
	}})
	require.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "EMAIL_NOT_VERIFIED", body["code"])

	owner, err := h.store.Users().GetByEmail(context.Background(), repository.TenantScope(tenantID), "jean@acme.fr")
	require.NoError(t, err)
	require.NotNil(t, owner.EmailVerificationCode)

	rr, body = h.do(call{method: http.MethodPost, path: "/api/auth/verify-email", tenant: "acme", body: map[string]any{
		"email": "jean@acme.fr", "code": *owner.EmailVerificationCode,
	}})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	return tenantID, dataOf(t, body)["accessToken"].(string)
}

func TestTenantLifecycleOverHTTP(t *testing.T) {
	h := newHarness(t)
	tenantID, ownerToken := h.signupAndVerify()

	rr, body := h.do(call{method: http.MethodGet, path: "/api/auth/me", token: ownerToken})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "OWNER", dataOf(t, body)["tenantRole"])

	rr, body = h.do(call{method: http.MethodGet, path: "/api/tenants/me", tenant: "acme", token: ownerToken})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "acme", body["slug"])
	assert.Equal(t, "kb-saas-acme.kobecorporation.com", body["activeDomain"])
	assert.Equal(t, "acme", rr.Header().Get("X-Tenant-ID"))

	// invitación → aceptación
	rr, _ = h.do(call{method: http.MethodPost, path: "/api/tenants/me/invitations", tenant: "acme", token: ownerToken,
		body: map[string]any{"email": "marie@acme.fr"}})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	last, ok := h.mail.Last()
	require.True(t, ok)
	assert.Equal(t, "marie@acme.fr", last.To)

	invs, err := h.store.Invitations().ListByTenant(context.Background(), tenantID)
	require.NoError(t, err)
	require.Len(t, invs, 1)
	tok := invs[0].Token

	rr, body = h.do(call{method: http.MethodGet, path: "/api/invitations/" + tok})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "Acme", body["tenantName"])

	rr, _ = h.do(call{method: http.MethodPost, path: "/api/invitations/" + tok + "/accept", body: map[string]any{
		"username": "mmartin", "password": "Passw0rd!", "firstName": "Marie", "lastName": "Martin",
	}})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr, _ = h.do(call{method: http.MethodGet, path: "/api/invitations/" + tok})
	assert.Equal(t, http.StatusGone, rr.Code)

	rr, _ = h.do(call{method: http.MethodGet, path: "/api/tenants/me/members", tenant: "acme", token: ownerToken})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "2", rr.Header().Get("X-Total-Count"))

	// el nuevo miembro no administra miembros
	rr, body = h.do(call{method: http.MethodPost, path: "/api/auth/login", tenant: "acme", body: map[string]any{
		"emailOrUsername": "marie@acme.fr", "password": "Passw0rd!",
	}})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	memberToken := dataOf(t, body)["accessToken"].(string)

	rr, _ = h.do(call{method: http.MethodGet, path: "/api/tenants/me/invitations", tenant: "acme", token: memberToken})
	assert.Equal(t, http.StatusForbidden, rr.Code)

	// token de acme contra otro tenant
	rr, _ = h.do(call{method: http.MethodPost, path: "/api/tenants/signup", body: map[string]any{
		"name": "Globex", "slug": "globex", "ownerEmail": "hank@globex.fr", "ownerPassword": "Passw0rd!",
		"ownerFirstName": "Hank", "ownerLastName": "Scorpio", "ownerUsername": "hank",
	}})
	require.Equal(t, http.StatusCreated, rr.Code)
	rr, body = h.do(call{method: http.MethodGet, path: "/api/tenants/me", tenant: "globex", token: ownerToken})
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "NOT_TENANT_MEMBER", body["code"])
}

func TestPlatformAdminOverHTTP(t *testing.T) {
	h := newHarness(t)
	_, ownerToken := h.signupAndVerify()

	_, err := bootstrap.EnsurePlatformAdmin(context.Background(), bootstrap.AdminConfig{
		Store:    h.store,
		Hasher:   password.NewHasher(password.Fast),
		Policy:   password.DefaultPolicy,
		Email:    "admin@kobecorporation.com",
		Username: "platform-admin",
		Password: "Adm1nPassw0rd!",
	})
	require.NoError(t, err)

	rr, body := h.do(call{method: http.MethodPost, path: "/api/auth/login", body: map[string]any{
		"emailOrUsername": "platform-admin", "password": "Adm1nPassw0rd!",
	}})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	adminToken := dataOf(t, body)["accessToken"].(string)

	rr, _ = h.do(call{method: http.MethodGet, path: "/api/platform/admin/tenants", token: adminToken})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "1", rr.Header().Get("X-Total-Count"))

	rr, body = h.do(call{method: http.MethodGet, path: "/api/platform/admin/stats", token: adminToken})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.EqualValues(t, 1, body["totalTenants"])

	rr, _ = h.do(call{method: http.MethodGet, path: "/api/platform/admin/tenants", token: ownerToken})
	assert.Equal(t, http.StatusForbidden, rr.Code)

	// dentro de un tenant el platform admin actúa como OWNER
	rr, _ = h.do(call{method: http.MethodGet, path: "/api/tenants/me/members", tenant: "acme", token: adminToken})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "1", rr.Header().Get("X-Total-Count"))

	rr, _ = h.do(call{method: http.MethodPost, path: "/api/tenants/me/invitations", tenant: "acme", token: adminToken,
		body: map[string]any{"email": "paul@acme.fr", "role": "ADMIN"}})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr, _ = h.do(call{method: http.MethodPost, path: "/api/tenants/me/invitations", tenant: "acme", token: adminToken,
		body: map[string]any{"email": "zoe@acme.fr", "role": "OWNER"}})
	assert.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())

	rr, body = h.do(call{method: http.MethodGet, path: "/api/platform/admin/stats"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "TOKEN_MISSING", body["code"])
}

func TestRoutingErrorsAreJSON(t *testing.T) {
	h := newHarness(t)

	rr, body := h.do(call{method: http.MethodGet, path: "/api/nope"})
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "ROUTE_NOT_FOUND", body["code"])

	rr, body = h.do(call{method: http.MethodDelete, path: "/api/auth/login"})
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, "METHOD_NOT_ALLOWED", body["code"])

	rr, body = h.do(call{method: http.MethodGet, path: "/api/auth/me", tenant: "ghost"})
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "TENANT_NOT_FOUND", rr.Header().Get("X-Tenant-Error"))
	assert.Equal(t, "TENANT_NOT_FOUND", body["code"])

	rr, body = h.do(call{method: http.MethodGet, path: "/readyz"})
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ready", body["status"])
}
