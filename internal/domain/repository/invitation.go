package repository

import (
	"context"
	"time"

	"github.com/kobecorporation/kbsaas/internal/domain/types"
)

const (
	// InvitationTTL es la vigencia de una invitación (y de cada reenvío).
	InvitationTTL = 7 * 24 * time.Hour
	// MaxInvitationEmails es el tope de envíos (incluye el primero).
	MaxInvitationEmails = 5
)

// Invitation es una oferta para unirse a un tenant.
type Invitation struct {
	ID          string
	TenantID    string
	Email       string
	Role        types.TenantRole
	Token       string
	InvitedBy   string
	ExpiresAt   time.Time
	Status      types.InvitationStatus
	EmailsSent  int
	CreatedAt   time.Time
	AcceptedAt  *time.Time
	CancelledAt *time.Time
}

// IsExpired: la fecha de expiración ya pasó (independiente del status guardado).
func (i *Invitation) IsExpired(now time.Time) bool { return !now.Before(i.ExpiresAt) }

// IsValid: PENDING y no expirada.
func (i *Invitation) IsValid(now time.Time) bool {
	return i.Status == types.InvitationPending && !i.IsExpired(now)
}

// CanResend: PENDING y por debajo del tope de envíos.
func (i *Invitation) CanResend() bool {
	return i.Status == types.InvitationPending && i.EmailsSent < MaxInvitationEmails
}

// InvitationRepository define la persistencia de invitaciones.
type InvitationRepository interface {
	// Create inserta. ErrConflict si el token se repite o si ya hay una PENDING para (tenant,email).
	Create(ctx context.Context, inv *Invitation) error
	Update(ctx context.Context, inv *Invitation) error

	GetByID(ctx context.Context, id string) (*Invitation, error)
	GetByToken(ctx context.Context, token string) (*Invitation, error)

	ExistsPending(ctx context.Context, tenantID, email string) (bool, error)
	ListByTenant(ctx context.Context, tenantID string) ([]Invitation, error)
	DeleteByTenant(ctx context.Context, tenantID string) (int, error)
}
