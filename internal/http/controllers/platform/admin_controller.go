// Package platform contiene la consola del platform admin (/api/platform/admin).
package platform

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kobecorporation/kbsaas/internal/domain/types"
	tenantctrl "github.com/kobecorporation/kbsaas/internal/http/controllers/tenant"
	dto "github.com/kobecorporation/kbsaas/internal/http/dto/platform"
	httperrors "github.com/kobecorporation/kbsaas/internal/http/errors"
	"github.com/kobecorporation/kbsaas/internal/http/helpers"
	svc "github.com/kobecorporation/kbsaas/internal/http/services/tenant"
)

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	httperrors.WriteError(w, r, httperrors.Map(err, tenantctrl.ErrorTable))
}

// AdminController expone AdminService. El acceso lo controla RequirePlatformAdmin.
type AdminController struct {
	service svc.AdminService
}

func NewAdminController(s svc.AdminService) *AdminController {
	return &AdminController{service: s}
}

// List maneja GET /api/platform/admin/tenants?status=.
func (c *AdminController) List(w http.ResponseWriter, r *http.Request) {
	status := types.TenantStatus(strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("status"))))
	res, err := c.service.List(r.Context(), status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	tenantctrl.SetTotal(w, len(res))
	helpers.WriteJSON(w, http.StatusOK, res)
}

// Search maneja GET /api/platform/admin/tenants/search?query=.
func (c *AdminController) Search(w http.ResponseWriter, r *http.Request) {
	res, err := c.service.Search(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	tenantctrl.SetTotal(w, len(res))
	helpers.WriteJSON(w, http.StatusOK, res)
}

func (c *AdminController) Get(w http.ResponseWriter, r *http.Request) {
	res, err := c.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, res)
}

// UpdateStatus maneja PUT /api/platform/admin/tenants/{id}/status.
func (c *AdminController) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateStatusRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	res, err := c.service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, res)
}

// Delete borra el tenant y, en cascada, sus usuarios e invitaciones.
func (c *AdminController) Delete(w http.ResponseWriter, r *http.Request) {
	if err := c.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *AdminController) Members(w http.ResponseWriter, r *http.Request) {
	res, err := c.service.Members(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	tenantctrl.SetTotal(w, len(res))
	helpers.WriteJSON(w, http.StatusOK, res)
}

func (c *AdminController) Stats(w http.ResponseWriter, r *http.Request) {
	res, err := c.service.Stats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, res)
}
