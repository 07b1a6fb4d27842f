package router

import (
	"github.com/go-chi/chi/v5"

	"github.com/kobecorporation/kbsaas/internal/domain/types"
	mw "github.com/kobecorporation/kbsaas/internal/http/middlewares"
)

func tenantRoutes(r chi.Router, d Deps) {
	c := d.Controllers.Tenant
	inv := d.Controllers.Invitation

	r.With(d.limit("signup", d.Limiters.Signup)).Post("/signup", c.Signup.Signup)
	r.Get("/check-slug/{slug}", c.Signup.CheckSlug)

	r.Route("/me", func(r chi.Router) {
		r.Use(mw.RequireAuth(d.Codec), mw.RequireTenant(), mw.RequireTenantMember())

		r.Get("/", c.Tenant.Get)
		r.With(mw.RequirePermission(types.PermEditSettings)).Put("/", c.Tenant.Update)
		r.With(mw.RequirePermission(types.PermEditSettings)).Put("/domain", c.Tenant.SetDomain)

		r.With(mw.RequirePermission(types.PermViewMembers)).Get("/members", c.Tenant.Members)
		r.Group(func(r chi.Router) {
			r.Use(mw.RequirePermission(types.PermManageMembers))
			r.Put("/members/{id}/role", c.Tenant.ChangeRole)
			r.Delete("/members/{id}", c.Tenant.RemoveMember)
		})

		r.Group(func(r chi.Router) {
			r.Use(mw.RequirePermission(types.PermInviteMembers))
			r.Post("/invitations", inv.Create)
			r.Get("/invitations", inv.List)
			r.Delete("/invitations/{id}", inv.Cancel)
			r.Post("/invitations/{id}/resend", inv.Resend)
		})
	})
}

// invitationRoutes son públicas: el token es la credencial.
func invitationRoutes(r chi.Router, d Deps) {
	c := d.Controllers.Invitation
	r.Get("/", c.Info)
	r.Post("/accept", c.Accept)
	r.Post("/decline", c.Decline)
}

func platformRoutes(r chi.Router, d Deps) {
	c := d.Controllers.Platform
	r.Use(mw.RequireAuth(d.Codec), mw.RequirePlatformAdmin())

	r.Get("/tenants", c.List)
	r.Get("/tenants/search", c.Search)
	r.Get("/tenants/{id}", c.Get)
	r.Put("/tenants/{id}/status", c.UpdateStatus)
	r.Delete("/tenants/{id}", c.Delete)
	r.Get("/tenants/{id}/members", c.Members)
	r.Get("/stats", c.Stats)
}
