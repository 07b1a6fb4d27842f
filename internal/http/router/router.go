// Package router arma el árbol de rutas chi del servicio.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kobecorporation/kbsaas/internal/http/controllers"
	httperrors "github.com/kobecorporation/kbsaas/internal/http/errors"
	mw "github.com/kobecorporation/kbsaas/internal/http/middlewares"
	"github.com/kobecorporation/kbsaas/internal/rate"
)

// Limiters son los rate limits por IP de los endpoints sensibles. nil = sin límite.
type Limiters struct {
	Login  rate.Limiter
	Forgot rate.Limiter
	Signup rate.Limiter
}

// Deps contiene todo lo que el router necesita.
type Deps struct {
	Controllers *controllers.Controllers
	Codec       mw.AccessParser
	Tenant      mw.TenantConfig
	Limiters    Limiters

	CORSOrigins []string
	TrustProxy  bool

	// Metrics se sirve en MetricsPath si no es nil.
	Metrics     http.Handler
	MetricsPath string
}

// New construye el handler raíz con los middlewares globales y todas las rutas.
func New(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		mw.WithRequestID(),
		mw.WithLogging(d.TrustProxy),
		mw.WithRecover(),
		mw.WithSecurityHeaders(),
		mw.WithCORS(d.CORSOrigins, d.Tenant.Header),
		mw.WithMetrics(),
		mw.WithTenantResolution(d.Tenant),
	)
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		httperrors.WriteError(w, req, httperrors.ErrRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		httperrors.WriteError(w, req, httperrors.ErrMethodNotAllowed)
	})

	c := d.Controllers
	r.Get("/health", c.Health.Live)
	r.Get("/healthz", c.Health.Live)
	r.Get("/readyz", c.Health.Ready)
	if d.Metrics != nil {
		path := d.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Method(http.MethodGet, path, d.Metrics)
	}

	r.Route("/api/auth", func(r chi.Router) { authRoutes(r, d) })
	r.Route("/api/tenants", func(r chi.Router) { tenantRoutes(r, d) })
	r.Route("/api/invitations/{token}", func(r chi.Router) { invitationRoutes(r, d) })
	r.Route("/api/platform/admin", func(r chi.Router) { platformRoutes(r, d) })
	return r
}

func (d Deps) limit(bucket string, l rate.Limiter) func(http.Handler) http.Handler {
	return mw.WithRateLimit(mw.RateLimitConfig{Bucket: bucket, Limiter: l, KeyFunc: mw.IPKey(d.TrustProxy)})
}
