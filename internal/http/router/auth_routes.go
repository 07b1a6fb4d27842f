package router

import (
	"github.com/go-chi/chi/v5"

	mw "github.com/kobecorporation/kbsaas/internal/http/middlewares"
)

// authRoutes registra /api/auth. El scope (tenant o plataforma) sale del
// tenant resuelto por el middleware global.
func authRoutes(r chi.Router, d Deps) {
	c := d.Controllers.Auth

	r.With(d.limit("signup", d.Limiters.Signup), mw.RequireTenant()).Post("/register", c.Register.Register)
	r.Post("/verify-email", c.Register.VerifyEmail)
	r.Post("/resend-verification-code", c.Register.ResendCode)

	r.With(d.limit("login", d.Limiters.Login)).Post("/login", c.Login.Login)
	r.Post("/refresh", c.Refresh.Refresh)

	r.With(d.limit("forgot", d.Limiters.Forgot)).Post("/forgot-password", c.Password.Forgot)
	r.Post("/reset-password", c.Password.Reset)

	r.With(mw.OptionalAuth(d.Codec)).Post("/logout", c.Session.Logout)
	r.With(mw.RequireAuth(d.Codec)).Get("/me", c.Session.Me)
}
