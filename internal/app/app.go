// Package app arma la aplicación: services, controllers y router a partir de
// dependencias ya construidas.
package app

import (
	"net/http"
	"time"

	"github.com/kobecorporation/kbsaas/internal/cache"
	"github.com/kobecorporation/kbsaas/internal/config"
	"github.com/kobecorporation/kbsaas/internal/domain/repository"
	"github.com/kobecorporation/kbsaas/internal/email"
	"github.com/kobecorporation/kbsaas/internal/http/controllers"
	mw "github.com/kobecorporation/kbsaas/internal/http/middlewares"
	"github.com/kobecorporation/kbsaas/internal/http/router"
	authsvc "github.com/kobecorporation/kbsaas/internal/http/services/auth"
	healthsvc "github.com/kobecorporation/kbsaas/internal/http/services/health"
	invsvc "github.com/kobecorporation/kbsaas/internal/http/services/invitation"
	tenantsvc "github.com/kobecorporation/kbsaas/internal/http/services/tenant"
	jwtx "github.com/kobecorporation/kbsaas/internal/jwt"
	"github.com/kobecorporation/kbsaas/internal/rate"
	"github.com/kobecorporation/kbsaas/internal/security/password"
)

// Limiters agrupa los rate limiters por bucket. nil = sin límite.
type Limiters struct {
	Login  rate.Limiter
	Forgot rate.Limiter
	Resend rate.Limiter
	Signup rate.Limiter
}

// Deps son las dependencias de infraestructura ya abiertas.
type Deps struct {
	Store    repository.Store
	Cache    cache.Client // nil = resolver sin cache
	Codec    *jwtx.Codec
	Mailer   *email.Mailer
	Hasher   password.Hasher
	Policy   password.Policy
	Limiters Limiters

	// Metrics se monta en cfg.Metrics.Path si no es nil.
	Metrics http.Handler
	Version string
	Now     func() time.Time
}

// App es la aplicación cableada.
type App struct {
	Handler  http.Handler
	Services controllers.Services
}

// New crea services, controllers y router.
func New(cfg *config.Config, d Deps) *App {
	if d.Now == nil {
		d.Now = time.Now
	}

	// 1. Services
	tenants := tenantsvc.NewServices(tenantsvc.Deps{
		Store:  d.Store,
		Cache:  d.Cache,
		Mailer: d.Mailer,
		Hasher: d.Hasher,
		Policy: d.Policy,
		Config: tenantsvc.Config{
			Resolver: tenantsvc.ResolverConfig{
				PlatformDomain:   cfg.Tenant.PlatformDomain,
				Prefix:           cfg.Tenant.Prefix,
				CacheTTL:         cfg.Tenant.CacheTTL,
				ActivityInterval: cfg.Tenant.ActivityInterval,
			},
			TrialDays: cfg.Tenant.TrialDays,
			CodeTTL:   cfg.Auth.CodeTTL,
		},
		Now: d.Now,
	})

	svcs := controllers.Services{
		Auth: authsvc.NewServices(authsvc.Deps{
			Store:         d.Store,
			Codec:         d.Codec,
			Hasher:        d.Hasher,
			Policy:        d.Policy,
			Mailer:        d.Mailer,
			ResendLimiter: d.Limiters.Resend,
			Config: authsvc.Config{
				CodeTTL:           cfg.Auth.CodeTTL,
				ResetTTL:          cfg.Auth.ResetTTL,
				MaxFailedAttempts: cfg.Auth.MaxFailedAttempts,
				LockDuration:      cfg.Auth.LockDuration,
				RefreshIdle:       cfg.JWT.RefreshIdle,
			},
			Now: d.Now,
		}),
		Tenant: tenants,
		Invitation: invsvc.NewService(invsvc.Deps{
			Store:  d.Store,
			Mailer: d.Mailer,
			Hasher: d.Hasher,
			Policy: d.Policy,
			Now:    d.Now,
		}),
		Health: healthsvc.NewHealthService(healthChecks(d)),
	}

	// 2. Controllers + rutas
	handler := router.New(router.Deps{
		Controllers: controllers.New(svcs),
		Codec:       d.Codec,
		Tenant: mw.TenantConfig{
			Resolver:      tenants.Resolver,
			Header:        cfg.Tenant.Header,
			ExcludedPaths: cfg.Tenant.ExcludedPaths,
		},
		Limiters: router.Limiters{
			Login:  d.Limiters.Login,
			Forgot: d.Limiters.Forgot,
			Signup: d.Limiters.Signup,
		},
		CORSOrigins: cfg.Server.CORSAllowedOrigins,
		TrustProxy:  cfg.Server.TrustProxyHeaders,
		Metrics:     d.Metrics,
		MetricsPath: cfg.Metrics.Path,
	})

	return &App{Handler: handler, Services: svcs}
}

// healthChecks: el store es crítico, el cache solo degrada.
func healthChecks(d Deps) healthsvc.Deps {
	hd := healthsvc.Deps{
		Version:  d.Version,
		Critical: map[string]healthsvc.Check{"store": d.Store.Ping},
	}
	if d.Cache != nil {
		hd.Optional = map[string]healthsvc.Check{"cache": d.Cache.Ping}
	}
	return hd
}
