// Package invitation contiene los controllers de invitaciones: administración
// desde el tenant y uso público por token.
package invitation

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kobecorporation/kbsaas/internal/authz"
	dto "github.com/kobecorporation/kbsaas/internal/http/dto/invitation"
	httperrors "github.com/kobecorporation/kbsaas/internal/http/errors"
	"github.com/kobecorporation/kbsaas/internal/http/helpers"
	svc "github.com/kobecorporation/kbsaas/internal/http/services/invitation"
)

var errorTable = map[error]*httperrors.AppError{
	svc.ErrNotFound:            httperrors.ErrInvitationNotFound,
	svc.ErrExpired:             httperrors.ErrInvitationExpired,
	svc.ErrAlreadyUsed:         httperrors.ErrInvitationUsed,
	svc.ErrCancelled:           httperrors.ErrInvitationCancelled,
	svc.ErrDeclined:            httperrors.ErrInvitationDeclined,
	svc.ErrNotPending:          httperrors.ErrInvitationNotPending,
	svc.ErrResendLimit:         httperrors.ErrResendLimit,
	svc.ErrAlreadyMember:       httperrors.ErrAlreadyMember,
	svc.ErrAlreadyInvited:      httperrors.ErrAlreadyInvited,
	svc.ErrCapacityExceeded:    httperrors.ErrCapacityExceeded,
	svc.ErrUsernameTaken:       httperrors.ErrUsernameTaken,
	svc.ErrTenantNotFound:      httperrors.ErrTenantNotFound,
	svc.ErrTenantNotAccessible: httperrors.ErrTenantNotAccessible,
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	httperrors.WriteError(w, r, httperrors.Map(err, errorTable))
}

// Controller atiende /api/tenants/me/invitations y /api/invitations/{token}.
type Controller struct {
	service svc.Service
}

func NewController(s svc.Service) *Controller {
	return &Controller{service: s}
}

func actor(w http.ResponseWriter, r *http.Request) (authz.Principal, string, bool) {
	p, ok := authz.PrincipalFrom(r.Context())
	if !ok {
		httperrors.WriteError(w, r, httperrors.ErrUnauthorized)
		return p, "", false
	}
	t := helpers.TenantFrom(r.Context())
	if t == nil {
		httperrors.WriteError(w, r, httperrors.ErrTenantRequired)
		return p, "", false
	}
	return p, t.ID, true
}

// Create maneja POST /api/tenants/me/invitations.
func (c *Controller) Create(w http.ResponseWriter, r *http.Request) {
	p, tenantID, ok := actor(w, r)
	if !ok {
		return
	}
	var req dto.InviteRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	res, err := c.service.Create(r.Context(), p, tenantID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, res)
}

func (c *Controller) List(w http.ResponseWriter, r *http.Request) {
	p, tenantID, ok := actor(w, r)
	if !ok {
		return
	}
	res, err := c.service.List(r.Context(), p, tenantID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(len(res)))
	helpers.WriteJSON(w, http.StatusOK, res)
}

// Cancel maneja DELETE /api/tenants/me/invitations/{id}.
func (c *Controller) Cancel(w http.ResponseWriter, r *http.Request) {
	p, tenantID, ok := actor(w, r)
	if !ok {
		return
	}
	if err := c.service.Cancel(r.Context(), p, tenantID, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Resend maneja POST /api/tenants/me/invitations/{id}/resend.
func (c *Controller) Resend(w http.ResponseWriter, r *http.Request) {
	p, tenantID, ok := actor(w, r)
	if !ok {
		return
	}
	res, err := c.service.Resend(r.Context(), p, tenantID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, res)
}

// Info maneja GET /api/invitations/{token}: datos para la pantalla de aceptación.
func (c *Controller) Info(w http.ResponseWriter, r *http.Request) {
	res, err := c.service.Info(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	helpers.NoStore(w)
	helpers.WriteJSON(w, http.StatusOK, res)
}

// Accept maneja POST /api/invitations/{token}/accept.
func (c *Controller) Accept(w http.ResponseWriter, r *http.Request) {
	var req dto.AcceptRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	res, err := c.service.Accept(r.Context(), chi.URLParam(r, "token"), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, res)
}

// Decline maneja POST /api/invitations/{token}/decline.
func (c *Controller) Decline(w http.ResponseWriter, r *http.Request) {
	if err := c.service.Decline(r.Context(), chi.URLParam(r, "token")); err != nil {
		writeError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Invitación rechazada."})
}
