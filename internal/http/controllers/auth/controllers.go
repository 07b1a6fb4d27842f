// Package auth contiene los controllers HTTP de /api/auth.
package auth

import svc "github.com/kobecorporation/kbsaas/internal/http/services/auth"

// Controllers agrupa todos los controllers del dominio auth.
type Controllers struct {
	Register *RegisterController
	Login    *LoginController
	Refresh  *RefreshController
	Password *PasswordController
	Session  *SessionController
}

// NewControllers crea el agregador de controllers auth.
func NewControllers(s svc.Services) *Controllers {
	return &Controllers{
		Register: NewRegisterController(s.Register),
		Login:    NewLoginController(s.Login),
		Refresh:  NewRefreshController(s.Refresh),
		Password: NewPasswordController(s.Password),
		Session:  NewSessionController(s.Session),
	}
}
