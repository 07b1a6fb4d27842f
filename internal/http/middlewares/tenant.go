package middlewares

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/kobecorporation/kbsaas/internal/domain/repository"
	httperrors "github.com/kobecorporation/kbsaas/internal/http/errors"
	"github.com/kobecorporation/kbsaas/internal/http/helpers"
	svc "github.com/kobecorporation/kbsaas/internal/http/services/tenant"
	"github.com/kobecorporation/kbsaas/internal/metrics"
	"github.com/kobecorporation/kbsaas/internal/observability/logger"
)

// TenantErrorHeader expone al cliente el motivo de un rechazo por tenant.
const TenantErrorHeader = "X-Tenant-Error"

// TenantResolver es lo que el middleware necesita del resolver de tenants.
type TenantResolver interface {
	Resolve(ctx context.Context, headerSlug, host string) (*repository.Tenant, svc.Source, error)
	TouchActivity(ctx context.Context, t *repository.Tenant)
}

// TenantConfig configura WithTenantResolution.
type TenantConfig struct {
	Resolver TenantResolver
	Header   string // default X-Tenant-ID
	// ExcludedPaths son prefijos que no pasan por la resolución.
	ExcludedPaths []string
}

func isExcluded(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if path == p || strings.HasPrefix(path, strings.TrimRight(p, "/")+"/") {
			return true
		}
	}
	return false
}

// WithTenantResolution resuelve el tenant del request (header, dominio custom o
// subdominio) y lo deja en el contexto. Sin coincidencia el request sigue sin
// tenant: las rutas que lo exigen usan RequireTenant.
func WithTenantResolution(cfg TenantConfig) Middleware {
	if cfg.Header == "" {
		cfg.Header = "X-Tenant-ID"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Resolver == nil || isExcluded(r.URL.Path, cfg.ExcludedPaths) {
				next.ServeHTTP(w, r)
				return
			}

			host := helpers.HostWithoutPort(r.Host)
			t, src, err := cfg.Resolver.Resolve(r.Context(), r.Header.Get(cfg.Header), host)
			switch {
			case errors.Is(err, svc.ErrTenantNotFound):
				w.Header().Set(TenantErrorHeader, "TENANT_NOT_FOUND")
				httperrors.WriteError(w, r, httperrors.ErrTenantNotFound)
				return
			case err != nil:
				httperrors.WriteError(w, r, httperrors.ErrServiceUnavailable.WithCause(err))
				return
			case t == nil:
				next.ServeHTTP(w, r)
				return
			}

			r = enrich(r, logger.TenantID(t.ID), logger.TenantSlug(t.Slug))
			if !t.IsAccessible() {
				metrics.RecordTenantResolution(string(src), "not_accessible")
				logger.From(r.Context()).Info("tenant not accessible", logger.String("status", string(t.Status)))
				w.Header().Set(TenantErrorHeader, "TENANT_NOT_ACCESSIBLE")
				httperrors.WriteError(w, r, httperrors.ErrTenantNotAccessible)
				return
			}

			cfg.Resolver.TouchActivity(r.Context(), t)
			w.Header().Set("X-Tenant-ID", t.Slug)
			next.ServeHTTP(w, r.WithContext(helpers.WithTenant(r.Context(), t)))
		})
	}
}
