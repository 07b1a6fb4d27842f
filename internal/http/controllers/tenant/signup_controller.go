package tenant

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	dto "github.com/kobecorporation/kbsaas/internal/http/dto/tenant"
	httperrors "github.com/kobecorporation/kbsaas/internal/http/errors"
	"github.com/kobecorporation/kbsaas/internal/http/helpers"
	svc "github.com/kobecorporation/kbsaas/internal/http/services/tenant"
	"github.com/kobecorporation/kbsaas/internal/observability/logger"
)

type SignupController struct {
	service svc.SignupService
}

func NewSignupController(s svc.SignupService) *SignupController {
	return &SignupController{service: s}
}

// Signup maneja POST /api/tenants/signup: crea el tenant en TRIAL y su OWNER.
func (c *SignupController) Signup(w http.ResponseWriter, r *http.Request) {
	var req dto.SignupRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	res, err := c.service.Signup(r.Context(), req)
	if err != nil {
		logger.From(r.Context()).Debug("signup rejected", logger.Layer("controller"), logger.Err(err))
		writeError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, res)
}

// CheckSlug maneja GET /api/tenants/check-slug/{slug}.
func (c *SignupController) CheckSlug(w http.ResponseWriter, r *http.Request) {
	res, err := c.service.CheckSlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, res)
}
