package server

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kobecorporation/kbsaas/internal/config"
	"github.com/kobecorporation/kbsaas/internal/domain/repository"
	"github.com/kobecorporation/kbsaas/internal/security/password"
)

func TestBuildDefaultsServesHealthAndMetrics(t *testing.T) {
	cfg := config.Default()
	cfg.Metrics.Enabled = true
	cfg.Bootstrap.Enabled = true

	s, err := Build(context.Background(), cfg, "test")
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, "memory", s.Store.Driver())
	admin, err := s.Store.Users().GetByEmail(context.Background(), repository.PlatformScope(), cfg.Bootstrap.AdminEmail)
	require.NoError(t, err)
	assert.Nil(t, admin.TenantID)

	rr := httptest.NewRecorder()
	s.HTTP.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"version":"test"`)

	rr = httptest.NewRecorder()
	s.HTTP.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, cfg.Metrics.Path, nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "http_inflight_requests")
	assert.Equal(t, cfg.Server.ReadTimeout, s.HTTP.ReadTimeout)
}

func TestBuildWithoutMetrics(t *testing.T) {
	cfg := config.Default()
	s, err := Build(context.Background(), cfg, "test")
	require.NoError(t, err)
	defer s.Close()

	rr := httptest.NewRecorder()
	s.HTTP.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestBuildFailsOnBadBlacklist(t *testing.T) {
	cfg := config.Default()
	cfg.Auth.PasswordBlacklistPath = filepath.Join(t.TempDir(), "missing.txt")
	_, err := Build(context.Background(), cfg, "test")
	assert.Error(t, err)
}

func TestPasswordPolicyLoadsBlacklist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blacklist.txt")
	require.NoError(t, os.WriteFile(path, []byte("# comunes\nPassword123\n"), 0o600))
	cfg := config.Default()
	cfg.Auth.PasswordBlacklistPath = path

	p, err := PasswordPolicy(cfg)
	require.NoError(t, err)
	assert.ErrorIs(t, p.Validate("password123"), password.ErrPolicy)
	assert.NoError(t, p.Validate("correct-horse-battery"))
}

func TestNewLimiters(t *testing.T) {
	cfg := config.Default()
	off := newLimiters(cfg, nil)
	assert.Nil(t, off.Login)
	assert.NotNil(t, off.Resend)

	cfg.Rate.Enabled = true
	cfg.Rate.Login = config.Rule{Limit: 1, Window: time.Minute}
	l := newLimiters(cfg, nil)
	require.NotNil(t, l.Login)
	require.NotNil(t, l.Resend)

	ctx := context.Background()
	res, err := l.Login.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	res, err = l.Login.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
}

func TestRunShutsDownOnCancel(t *testing.T) {
	cfg := config.Default()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	cfg.Server.Addr = ln.Addr().String()
	require.NoError(t, ln.Close())

	s, err := Build(context.Background(), cfg, "test")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + cfg.Server.Addr + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run no terminó tras cancelar el contexto")
	}
}
