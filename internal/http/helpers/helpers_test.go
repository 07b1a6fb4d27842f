package helpers

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kobecorporation/kbsaas/internal/domain/repository"
	httperrors "github.com/kobecorporation/kbsaas/internal/http/errors"
)

func TestReadJSON(t *testing.T) {
	var v struct{ Email string }
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":"a@x.com"}`))
	r.Header.Set("Content-Type", "application/json")
	require.NoError(t, ReadJSON(httptest.NewRecorder(), r, &v))
	assert.Equal(t, "a@x.com", v.Email)

	r = httptest.NewRequest("POST", "/", strings.NewReader(`{"email":`))
	err := ReadJSON(httptest.NewRecorder(), r, &v)
	assert.ErrorIs(t, err, httperrors.ErrInvalidJSON)

	r = httptest.NewRequest("POST", "/", strings.NewReader(`email=a`))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	assert.Error(t, ReadJSON(httptest.NewRecorder(), r, &v))
}

func TestTenantContextIsACopy(t *testing.T) {
	tn := &repository.Tenant{ID: "t1", Slug: "acme"}
	ctx := WithTenant(context.Background(), tn)
	tn.Slug = "mutated"

	got := TenantFrom(ctx)
	require.NotNil(t, got)
	assert.Equal(t, "acme", got.Slug)
	got.Slug = "again"
	assert.Equal(t, "acme", TenantFrom(ctx).Slug)

	assert.Equal(t, repository.TenantScope("t1"), ScopeFrom(ctx))
	assert.True(t, ScopeFrom(context.Background()).IsPlatform())
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	r.Header.Set("X-Forwarded-For", "1.2.3.4, 10.0.0.1")
	assert.Equal(t, "10.0.0.1", ClientIP(r, false))
	assert.Equal(t, "1.2.3.4", ClientIP(r, true))
}

func TestHostWithoutPort(t *testing.T) {
	assert.Equal(t, "kb-saas-acme.kobecorporation.com", HostWithoutPort("KB-SAAS-ACME.kobecorporation.com:8080"))
	assert.Equal(t, "app.client.fr", HostWithoutPort("app.client.fr"))
	assert.Equal(t, "::1", HostWithoutPort("[::1]:80"))
}
