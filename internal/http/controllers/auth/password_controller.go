package auth

import (
	"net/http"

	dto "github.com/kobecorporation/kbsaas/internal/http/dto/auth"
	httperrors "github.com/kobecorporation/kbsaas/internal/http/errors"
	"github.com/kobecorporation/kbsaas/internal/http/helpers"
	svc "github.com/kobecorporation/kbsaas/internal/http/services/auth"
)

type PasswordController struct {
	service svc.PasswordService
}

func NewPasswordController(s svc.PasswordService) *PasswordController {
	return &PasswordController{service: s}
}

// Forgot maneja POST /api/auth/forgot-password. La respuesta no revela si el email existe.
func (c *PasswordController) Forgot(w http.ResponseWriter, r *http.Request) {
	var req dto.EmailRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	res, err := c.service.RequestReset(r.Context(), helpers.ScopeFrom(r.Context()), req.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, res)
}

// Reset maneja POST /api/auth/reset-password.
func (c *PasswordController) Reset(w http.ResponseWriter, r *http.Request) {
	var req dto.ResetPasswordRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	res, err := c.service.Reset(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, res)
}
