package auth

import (
	"net/http"
	"strings"

	dto "github.com/kobecorporation/kbsaas/internal/http/dto/auth"
	httperrors "github.com/kobecorporation/kbsaas/internal/http/errors"
	"github.com/kobecorporation/kbsaas/internal/http/helpers"
	svc "github.com/kobecorporation/kbsaas/internal/http/services/auth"
)

type RefreshController struct {
	service svc.RefreshService
}

func NewRefreshController(s svc.RefreshService) *RefreshController {
	return &RefreshController{service: s}
}

// Refresh maneja POST /api/auth/refresh. El token rotado invalida al anterior.
func (c *RefreshController) Refresh(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	if strings.TrimSpace(req.RefreshToken) == "" {
		httperrors.WriteError(w, r, httperrors.ErrMissingFields.WithDetail("refreshToken"))
		return
	}
	data, err := c.service.Refresh(r.Context(), strings.TrimSpace(req.RefreshToken))
	if err != nil {
		writeError(w, r, err)
		return
	}
	helpers.NoStore(w)
	helpers.WriteJSON(w, http.StatusOK, dto.Envelope{Success: true, Message: "Token renovado.", Data: data})
}
