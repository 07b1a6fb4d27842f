// Package controllers agrupa los controllers HTTP por dominio.
//
// Flujo de inicialización:
//
//	svcs := services (auth, tenant, invitation, health)
//	ctrls := controllers.New(svcs)
//	router.New(router.Deps{Controllers: ctrls, ...})
package controllers

import (
	"github.com/kobecorporation/kbsaas/internal/http/controllers/auth"
	"github.com/kobecorporation/kbsaas/internal/http/controllers/health"
	"github.com/kobecorporation/kbsaas/internal/http/controllers/invitation"
	"github.com/kobecorporation/kbsaas/internal/http/controllers/platform"
	"github.com/kobecorporation/kbsaas/internal/http/controllers/tenant"
	authsvc "github.com/kobecorporation/kbsaas/internal/http/services/auth"
	healthsvc "github.com/kobecorporation/kbsaas/internal/http/services/health"
	invsvc "github.com/kobecorporation/kbsaas/internal/http/services/invitation"
	tenantsvc "github.com/kobecorporation/kbsaas/internal/http/services/tenant"
)

// Services son los services ya construidos que consumen los controllers.
type Services struct {
	Auth       authsvc.Services
	Tenant     tenantsvc.Services
	Invitation invsvc.Service
	Health     healthsvc.HealthService
}

// Controllers agrupa todos los sub-controllers por dominio.
type Controllers struct {
	Auth       *auth.Controllers
	Tenant     *tenant.Controllers
	Invitation *invitation.Controller
	Platform   *platform.AdminController
	Health     *health.HealthController
}

// New crea el agregador de controllers con todos los services inyectados.
func New(s Services) *Controllers {
	return &Controllers{
		Auth:       auth.NewControllers(s.Auth),
		Tenant:     tenant.NewControllers(s.Tenant),
		Invitation: invitation.NewController(s.Invitation),
		Platform:   platform.NewAdminController(s.Tenant.Admin),
		Health:     health.NewHealthController(s.Health),
	}
}
