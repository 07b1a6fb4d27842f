// Package invitation contiene el ciclo de vida de las invitaciones a un tenant.
package invitation

import (
	"context"
	"errors"
	"time"

	"github.com/kobecorporation/kbsaas/internal/authz"
	"github.com/kobecorporation/kbsaas/internal/domain/repository"
	"github.com/kobecorporation/kbsaas/internal/email"
	dto "github.com/kobecorporation/kbsaas/internal/http/dto/invitation"
	"github.com/kobecorporation/kbsaas/internal/security/password"
)

// TokenBytes es la entropía del token de invitación.
const TokenBytes = 32

var (
	ErrNotFound            = errors.New("invitation: no encontrada")
	ErrExpired             = errors.New("invitation: expirada")
	ErrAlreadyUsed         = errors.New("invitation: ya utilizada")
	ErrCancelled           = errors.New("invitation: cancelada")
	ErrDeclined            = errors.New("invitation: rechazada")
	ErrNotPending          = errors.New("invitation: no está pendiente")
	ErrResendLimit         = errors.New("invitation: tope de reenvíos alcanzado")
	ErrAlreadyMember       = errors.New("invitation: el email ya es miembro del tenant")
	ErrAlreadyInvited      = errors.New("invitation: ya hay una invitación pendiente para el email")
	ErrCapacityExceeded    = errors.New("invitation: el plan no admite más usuarios")
	ErrUsernameTaken       = errors.New("invitation: username ya registrado")
	ErrTenantNotFound      = errors.New("invitation: tenant no encontrado")
	ErrTenantNotAccessible = errors.New("invitation: tenant no accesible")
)

// Deps contiene las dependencias del service de invitaciones.
type Deps struct {
	Store  repository.Store
	Mailer *email.Mailer
	Hasher password.Hasher
	Policy password.Policy
	Now    func() time.Time
}

// Service cubre la administración (del lado del tenant) y el uso público por token.
type Service interface {
	Create(ctx context.Context, p authz.Principal, tenantID string, in dto.InviteRequest) (*dto.CreateResult, error)
	List(ctx context.Context, p authz.Principal, tenantID string) ([]dto.InvitationResponse, error)
	Cancel(ctx context.Context, p authz.Principal, tenantID, invitationID string) error
	Resend(ctx context.Context, p authz.Principal, tenantID, invitationID string) (*dto.InvitationResponse, error)

	GetValid(ctx context.Context, token string) (*repository.Invitation, error)
	Info(ctx context.Context, token string) (*dto.Info, error)
	Accept(ctx context.Context, token string, in dto.AcceptRequest) (*dto.AcceptResult, error)
	Decline(ctx context.Context, token string) error
}

func NewService(d Deps) Service {
	if d.Now == nil {
		d.Now = time.Now
	}
	return &service{deps: d}
}
