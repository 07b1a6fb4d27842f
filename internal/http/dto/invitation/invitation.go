// Package invitation contiene DTOs del ciclo de vida de las invitaciones.
package invitation

import (
	"time"

	"github.com/kobecorporation/kbsaas/internal/domain/repository"
	"github.com/kobecorporation/kbsaas/internal/domain/types"
	tenantdto "github.com/kobecorporation/kbsaas/internal/http/dto/tenant"
)

// InviteRequest: Role nil equivale a MEMBER.
type InviteRequest struct {
	Email string            `json:"email"`
	Role  *types.TenantRole `json:"role,omitempty"`
}

type AcceptRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type StatusInfo struct {
	Name      types.InvitationStatus `json:"name"`
	IsValid   bool                   `json:"isValid"`
	IsExpired bool                   `json:"isExpired"`
}

// InvitationResponse es la vista de administración; no incluye el token.
type InvitationResponse struct {
	ID          string                   `json:"id"`
	Email       string                   `json:"email"`
	Role        tenantdto.TenantRoleInfo `json:"role"`
	Status      StatusInfo               `json:"status"`
	ExpiresAt   time.Time                `json:"expiresAt"`
	EmailsSent  int                      `json:"emailsSent"`
	CreatedAt   time.Time                `json:"createdAt"`
	AcceptedAt  *time.Time               `json:"acceptedAt"`
	CancelledAt *time.Time               `json:"cancelledAt"`
}

func NewInvitationResponse(inv *repository.Invitation, now time.Time) InvitationResponse {
	return InvitationResponse{
		ID:    inv.ID,
		Email: inv.Email,
		Role:  tenantdto.NewTenantRoleInfo(inv.Role),
		Status: StatusInfo{
			Name:      inv.Status,
			IsValid:   inv.IsValid(now),
			IsExpired: inv.IsExpired(now),
		},
		ExpiresAt:   inv.ExpiresAt,
		EmailsSent:  inv.EmailsSent,
		CreatedAt:   inv.CreatedAt,
		AcceptedAt:  inv.AcceptedAt,
		CancelledAt: inv.CancelledAt,
	}
}

// Info es lo que ve el invitado antes de aceptar.
type Info struct {
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	TenantName string    `json:"tenantName"`
	TenantLogo string    `json:"tenantLogo"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

type CreateResult struct {
	Success    bool               `json:"success"`
	Message    string             `json:"message"`
	Invitation InvitationResponse `json:"invitation"`
}

type AcceptedUser struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Username   string `json:"username"`
	TenantRole string `json:"tenantRole"`
}

type AcceptResult struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	User    AcceptedUser `json:"user"`
}
