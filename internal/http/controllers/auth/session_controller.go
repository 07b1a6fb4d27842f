package auth

import (
	"net/http"

	"github.com/kobecorporation/kbsaas/internal/authz"
	dto "github.com/kobecorporation/kbsaas/internal/http/dto/auth"
	httperrors "github.com/kobecorporation/kbsaas/internal/http/errors"
	"github.com/kobecorporation/kbsaas/internal/http/helpers"
	svc "github.com/kobecorporation/kbsaas/internal/http/services/auth"
)

type SessionController struct {
	service svc.SessionService
}

func NewSessionController(s svc.SessionService) *SessionController {
	return &SessionController{service: s}
}

// Logout maneja POST /api/auth/logout. Con bearer válido revoca el refresh guardado.
func (c *SessionController) Logout(w http.ResponseWriter, r *http.Request) {
	var p *authz.Principal
	if pr, ok := authz.PrincipalFrom(r.Context()); ok {
		p = &pr
	}
	res, err := c.service.Logout(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, res)
}

// Me maneja GET /api/auth/me.
func (c *SessionController) Me(w http.ResponseWriter, r *http.Request) {
	p, ok := authz.PrincipalFrom(r.Context())
	if !ok {
		httperrors.WriteError(w, r, httperrors.ErrUnauthorized)
		return
	}
	user, err := c.service.Me(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.Envelope{Success: true, Data: user})
}
