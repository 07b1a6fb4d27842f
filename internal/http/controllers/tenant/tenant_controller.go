package tenant

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	dto "github.com/kobecorporation/kbsaas/internal/http/dto/tenant"
	httperrors "github.com/kobecorporation/kbsaas/internal/http/errors"
	"github.com/kobecorporation/kbsaas/internal/http/helpers"
	svc "github.com/kobecorporation/kbsaas/internal/http/services/tenant"
)

// TenantController opera sobre el tenant del request (/api/tenants/me).
type TenantController struct {
	service svc.TenantService
}

func NewTenantController(s svc.TenantService) *TenantController {
	return &TenantController{service: s}
}

func (c *TenantController) Get(w http.ResponseWriter, r *http.Request) {
	p, tenantID, ok := actor(w, r)
	if !ok {
		return
	}
	res, err := c.service.Get(r.Context(), p, tenantID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, res)
}

// Update maneja PUT /api/tenants/me (nombre y settings).
func (c *TenantController) Update(w http.ResponseWriter, r *http.Request) {
	p, tenantID, ok := actor(w, r)
	if !ok {
		return
	}
	var req dto.UpdateTenantRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	res, err := c.service.Update(r.Context(), p, tenantID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.MutationResult{Success: true, Message: "Tenant actualizado.", Tenant: *res})
}

// SetDomain maneja PUT /api/tenants/me/domain. customDomain null lo quita.
func (c *TenantController) SetDomain(w http.ResponseWriter, r *http.Request) {
	p, tenantID, ok := actor(w, r)
	if !ok {
		return
	}
	var req dto.SetCustomDomainRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	res, err := c.service.SetCustomDomain(r.Context(), p, tenantID, req.CustomDomain)
	if err != nil {
		writeError(w, r, err)
		return
	}
	msg := "Dominio personalizado configurado."
	if req.CustomDomain == nil || *req.CustomDomain == "" {
		msg = "Dominio personalizado eliminado."
	}
	helpers.WriteJSON(w, http.StatusOK, dto.MutationResult{Success: true, Message: msg, Tenant: *res})
}

func (c *TenantController) Members(w http.ResponseWriter, r *http.Request) {
	p, tenantID, ok := actor(w, r)
	if !ok {
		return
	}
	res, err := c.service.Members(r.Context(), p, tenantID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	SetTotal(w, len(res))
	helpers.WriteJSON(w, http.StatusOK, res)
}

// ChangeRole maneja PUT /api/tenants/me/members/{id}/role.
func (c *TenantController) ChangeRole(w http.ResponseWriter, r *http.Request) {
	p, tenantID, ok := actor(w, r)
	if !ok {
		return
	}
	var req dto.ChangeRoleRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	res, err := c.service.ChangeMemberRole(r.Context(), p, tenantID, chi.URLParam(r, "id"), req.Role)
	if err != nil {
		writeError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, res)
}

// RemoveMember maneja DELETE /api/tenants/me/members/{id}.
func (c *TenantController) RemoveMember(w http.ResponseWriter, r *http.Request) {
	p, tenantID, ok := actor(w, r)
	if !ok {
		return
	}
	if err := c.service.RemoveMember(r.Context(), p, tenantID, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
