package auth

import (
	"net/http"
	"strconv"

	dto "github.com/kobecorporation/kbsaas/internal/http/dto/auth"
	httperrors "github.com/kobecorporation/kbsaas/internal/http/errors"
	"github.com/kobecorporation/kbsaas/internal/http/helpers"
	svc "github.com/kobecorporation/kbsaas/internal/http/services/auth"
	"github.com/kobecorporation/kbsaas/internal/observability/logger"
)

type LoginController struct {
	service svc.LoginService
}

func NewLoginController(s svc.LoginService) *LoginController {
	return &LoginController{service: s}
}

// Login maneja POST /api/auth/login?rememberMe=true|false.
// Sin tenant resuelto autentica contra las cuentas de plataforma.
func (c *LoginController) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("auth.login"))

	var req dto.LoginRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	rememberMe, _ := strconv.ParseBool(r.URL.Query().Get("rememberMe"))

	data, err := c.service.Login(ctx, helpers.ScopeFrom(ctx), req, rememberMe)
	if err != nil {
		log.Debug("login failed", logger.Err(err))
		writeError(w, r, err)
		return
	}
	helpers.NoStore(w)
	helpers.WriteJSON(w, http.StatusOK, dto.Envelope{Success: true, Message: "Inicio de sesión exitoso.", Data: data})
}
