package auth

import (
	"net/http"

	dto "github.com/kobecorporation/kbsaas/internal/http/dto/auth"
	httperrors "github.com/kobecorporation/kbsaas/internal/http/errors"
	"github.com/kobecorporation/kbsaas/internal/http/helpers"
	svc "github.com/kobecorporation/kbsaas/internal/http/services/auth"
	"github.com/kobecorporation/kbsaas/internal/observability/logger"
)

// RegisterController maneja el alta y la verificación del email.
type RegisterController struct {
	service svc.RegisterService
}

func NewRegisterController(s svc.RegisterService) *RegisterController {
	return &RegisterController{service: s}
}

// Register maneja POST /api/auth/register (requiere tenant).
func (c *RegisterController) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	res, err := c.service.Register(r.Context(), helpers.ScopeFrom(r.Context()), req)
	if err != nil {
		logger.From(r.Context()).Debug("register rejected", logger.Layer("controller"), logger.Err(err))
		writeError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, res)
}

// VerifyEmail maneja POST /api/auth/verify-email. Un código válido inicia sesión.
func (c *RegisterController) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req dto.VerifyEmailRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	data, err := c.service.VerifyEmail(r.Context(), helpers.ScopeFrom(r.Context()), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	helpers.NoStore(w)
	helpers.WriteJSON(w, http.StatusOK, dto.Envelope{Success: true, Message: "Email verificado.", Data: data})
}

// ResendCode maneja POST /api/auth/resend-verification-code.
func (c *RegisterController) ResendCode(w http.ResponseWriter, r *http.Request) {
	var req dto.EmailRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	res, err := c.service.ResendCode(r.Context(), helpers.ScopeFrom(r.Context()), req.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, res)
}
