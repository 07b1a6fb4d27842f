package invitation

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/kobecorporation/kbsaas/internal/audit"
	"github.com/kobecorporation/kbsaas/internal/authz"
	"github.com/kobecorporation/kbsaas/internal/domain/repository"
	"github.com/kobecorporation/kbsaas/internal/domain/types"
	dto "github.com/kobecorporation/kbsaas/internal/http/dto/invitation"
	"github.com/kobecorporation/kbsaas/internal/observability/logger"
	tokens "github.com/kobecorporation/kbsaas/internal/security/token"
	"github.com/kobecorporation/kbsaas/internal/validation"
)

type service struct {
	deps Deps
}

// actorRole: el platform admin invita con la autoridad de un OWNER.
func actorRole(p authz.Principal) types.TenantRole {
	if p.IsPlatformAdmin() {
		return types.TenantRoleOwner
	}
	return p.TenantRole
}

func (s *service) tenant(ctx context.Context, id string) (*repository.Tenant, error) {
	t, err := s.deps.Store.Tenants().GetByID(ctx, id)
	if repository.IsNotFound(err) {
		return nil, ErrTenantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load tenant: %w", err)
	}
	return t, nil
}

func (s *service) hasCapacity(ctx context.Context, t *repository.Tenant) (bool, error) {
	n, err := s.deps.Store.Users().CountByTenant(ctx, t.ID)
	if err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	return types.CanAddUser(t.Plan, n), nil
}

func (s *service) Create(ctx context.Context, p authz.Principal, tenantID string, in dto.InviteRequest) (*dto.CreateResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("invitation"),
		logger.Op("Create"),
		logger.TenantID(tenantID),
	)

	if err := authz.RequireTenantPermission(p, tenantID, types.PermInviteMembers); err != nil {
		return nil, err
	}

	// Paso 0: Normalización y validación
	mail := strings.ToLower(strings.TrimSpace(in.Email))
	role := types.TenantRoleMember
	if in.Role != nil {
		role = *in.Role
	}
	v := validation.New()
	v.Email("email", mail)
	v.Check(role.Valid(), "role", "rol desconocido")
	v.Check(role != types.TenantRoleOwner, "role", "no se puede invitar como OWNER")
	if err := v.Err(); err != nil {
		return nil, err
	}
	if !authz.CanAssignRole(actorRole(p), role) {
		return nil, authz.ErrForbidden
	}

	// Paso 1: Capacidad, membresía e invitaciones pendientes
	t, err := s.tenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if ok, err := s.hasCapacity(ctx, t); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrCapacityExceeded
	}
	if member, err := s.deps.Store.Users().ExistsByEmail(ctx, repository.TenantScope(tenantID), mail); err != nil {
		return nil, fmt.Errorf("check member: %w", err)
	} else if member {
		return nil, ErrAlreadyMember
	}
	invs := s.deps.Store.Invitations()
	if pending, err := invs.ExistsPending(ctx, tenantID, mail); err != nil {
		return nil, fmt.Errorf("check pending: %w", err)
	} else if pending {
		return nil, ErrAlreadyInvited
	}

	// Paso 2: Persistir
	tok, err := tokens.GenerateOpaqueToken(TokenBytes)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	now := s.deps.Now()
	inv := &repository.Invitation{
		ID:         uuid.NewString(),
		TenantID:   tenantID,
		Email:      mail,
		Role:       role,
		Token:      tok,
		InvitedBy:  p.UserID,
		ExpiresAt:  now.Add(repository.InvitationTTL),
		Status:     types.InvitationPending,
		EmailsSent: 1,
		CreatedAt:  now,
	}
	if err := invs.Create(ctx, inv); err != nil {
		if repository.IsConflict(err) {
			return nil, ErrAlreadyInvited
		}
		return nil, fmt.Errorf("create invitation: %w", err)
	}

	// Paso 3: Email; un fallo no deshace la invitación
	s.send(ctx, t, inv, p)

	audit.Log(ctx, audit.EventInvitationCreated, logger.TenantID(tenantID), logger.InvitationID(inv.ID),
		logger.UserID(p.UserID), logger.Role(string(role)))
	log.Debug("invitation created", logger.InvitationID(inv.ID))
	return &dto.CreateResult{
		Success:    true,
		Message:    "Invitación enviada a " + inv.Email,
		Invitation: dto.NewInvitationResponse(inv, now),
	}, nil
}

func (s *service) send(ctx context.Context, t *repository.Tenant, inv *repository.Invitation, p authz.Principal) {
	inviter := p.Email
	if u, err := s.deps.Store.Users().GetByID(ctx, p.UserID); err == nil && u.FullName() != "" {
		inviter = u.FullName()
	}
	if err := s.deps.Mailer.SendInvitation(ctx, t, inv.Email, inviter, inv.Token, inv.Role); err != nil {
		logger.From(ctx).Warn("invitation email failed", logger.InvitationID(inv.ID), logger.Err(err))
	}
}

// List retorna todas las invitaciones del tenant, más nuevas primero.
func (s *service) List(ctx context.Context, p authz.Principal, tenantID string) ([]dto.InvitationResponse, error) {
	if err := authz.RequireTenantPermission(p, tenantID, types.PermInviteMembers); err != nil {
		return nil, err
	}
	invs, err := s.deps.Store.Invitations().ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}
	now := s.deps.Now()
	out := make([]dto.InvitationResponse, 0, len(invs))
	for i := range invs {
		out = append(out, dto.NewInvitationResponse(&invs[i], now))
	}
	return out, nil
}

// owned carga una invitación exigiendo que pertenezca al tenant.
func (s *service) owned(ctx context.Context, tenantID, id string) (*repository.Invitation, error) {
	inv, err := s.deps.Store.Invitations().GetByID(ctx, id)
	if repository.IsNotFound(err) || (err == nil && inv.TenantID != tenantID) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load invitation: %w", err)
	}
	return inv, nil
}

func (s *service) Cancel(ctx context.Context, p authz.Principal, tenantID, invitationID string) error {
	if err := authz.RequireTenantPermission(p, tenantID, types.PermInviteMembers); err != nil {
		return err
	}
	inv, err := s.owned(ctx, tenantID, invitationID)
	if err != nil {
		return err
	}
	if inv.Status != types.InvitationPending {
		return ErrNotPending
	}
	now := s.deps.Now()
	inv.Status = types.InvitationCancelled
	inv.CancelledAt = &now
	if err := s.deps.Store.Invitations().Update(ctx, inv); err != nil {
		return fmt.Errorf("update invitation: %w", err)
	}
	audit.Log(ctx, audit.EventInvitationCancelled, logger.TenantID(tenantID), logger.InvitationID(inv.ID), logger.UserID(p.UserID))
	return nil
}

// Resend extiende la vigencia y reenvía el correo, hasta MaxInvitationEmails envíos.
func (s *service) Resend(ctx context.Context, p authz.Principal, tenantID, invitationID string) (*dto.InvitationResponse, error) {
	if err := authz.RequireTenantPermission(p, tenantID, types.PermInviteMembers); err != nil {
		return nil, err
	}
	inv, err := s.owned(ctx, tenantID, invitationID)
	if err != nil {
		return nil, err
	}
	if inv.Status != types.InvitationPending {
		return nil, ErrNotPending
	}
	if !inv.CanResend() {
		return nil, ErrResendLimit
	}
	t, err := s.tenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	now := s.deps.Now()
	inv.ExpiresAt = now.Add(repository.InvitationTTL)
	inv.EmailsSent++
	if err := s.deps.Store.Invitations().Update(ctx, inv); err != nil {
		return nil, fmt.Errorf("update invitation: %w", err)
	}
	s.send(ctx, t, inv, p)

	out := dto.NewInvitationResponse(inv, now)
	return &out, nil
}

// GetValid retorna la invitación solo si sigue PENDING y vigente. Una PENDING
// vencida se persiste como EXPIRED.
func (s *service) GetValid(ctx context.Context, token string) (*repository.Invitation, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	invs := s.deps.Store.Invitations()
	inv, err := invs.GetByToken(ctx, token)
	if repository.IsNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load invitation: %w", err)
	}

	switch inv.Status {
	case types.InvitationAccepted:
		return nil, ErrAlreadyUsed
	case types.InvitationCancelled:
		return nil, ErrCancelled
	case types.InvitationDeclined:
		return nil, ErrDeclined
	case types.InvitationExpired:
		return nil, ErrExpired
	}
	if inv.IsExpired(s.deps.Now()) {
		inv.Status = types.InvitationExpired
		if err := invs.Update(ctx, inv); err != nil {
			logger.From(ctx).Warn("persist expired invitation failed", logger.InvitationID(inv.ID), logger.Err(err))
		}
		return nil, ErrExpired
	}
	return inv, nil
}

func (s *service) Info(ctx context.Context, token string) (*dto.Info, error) {
	inv, err := s.GetValid(ctx, token)
	if err != nil {
		return nil, err
	}
	t, err := s.tenant(ctx, inv.TenantID)
	if err != nil {
		return nil, err
	}
	out := &dto.Info{
		Email:      inv.Email,
		Role:       inv.Role.DisplayName(),
		TenantName: t.Name,
		ExpiresAt:  inv.ExpiresAt,
	}
	if t.Settings.Logo != nil {
		out.TenantLogo = *t.Settings.Logo
	}
	return out, nil
}

func validateAccept(in dto.AcceptRequest) error {
	v := validation.New()
	v.Username("username", in.Username, 3, 30)
	v.Required("password", in.Password)
	v.Required("firstName", in.FirstName)
	v.Required("lastName", in.LastName)
	return v.Err()
}

// Accept crea la cuenta del invitado (verificada, con el rol de la invitación).
func (s *service) Accept(ctx context.Context, token string, in dto.AcceptRequest) (*dto.AcceptResult, error) {
	in.Username = strings.ToLower(strings.TrimSpace(in.Username))
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if err := validateAccept(in); err != nil {
		return nil, err
	}
	if err := s.deps.Policy.Validate(in.Password); err != nil {
		return nil, err
	}

	inv, err := s.GetValid(ctx, token)
	if err != nil {
		return nil, err
	}
	t, err := s.tenant(ctx, inv.TenantID)
	if err != nil {
		return nil, err
	}
	if !t.IsAccessible() {
		return nil, ErrTenantNotAccessible
	}
	// best effort: dos aceptaciones simultáneas pueden pasar ambas
	if ok, err := s.hasCapacity(ctx, t); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrCapacityExceeded
	}

	users := s.deps.Store.Users()
	scope := repository.TenantScope(t.ID)
	if taken, err := users.ExistsByUsername(ctx, scope, in.Username); err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	} else if taken {
		return nil, ErrUsernameTaken
	}
	if member, err := users.ExistsByEmail(ctx, scope, inv.Email); err != nil {
		return nil, fmt.Errorf("check member: %w", err)
	} else if member {
		return nil, ErrAlreadyMember
	}

	hash, err := s.deps.Hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := s.deps.Now()
	tid := t.ID
	u := &repository.User{
		ID:              uuid.NewString(),
		TenantID:        &tid,
		TenantRole:      inv.Role,
		Role:            types.RoleUser,
		Username:        in.Username,
		Email:           inv.Email,
		PasswordHash:    &hash,
		FirstName:       in.FirstName,
		LastName:        in.LastName,
		IsActive:        true,
		IsEmailVerified: true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := users.Create(ctx, u); err != nil {
		if repository.IsConflict(err) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	inv.Status = types.InvitationAccepted
	inv.AcceptedAt = &now
	if err := s.deps.Store.Invitations().Update(ctx, inv); err != nil {
		return nil, fmt.Errorf("update invitation: %w", err)
	}

	audit.Log(ctx, audit.EventInvitationAccepted, logger.TenantID(t.ID), logger.InvitationID(inv.ID), logger.UserID(u.ID))
	return &dto.AcceptResult{
		Success: true,
		Message: "¡Bienvenido! Su cuenta fue creada.",
		User: dto.AcceptedUser{
			ID:         u.ID,
			Email:      u.Email,
			Username:   u.Username,
			TenantRole: u.TenantRole.DisplayName(),
		},
	}, nil
}

func (s *service) Decline(ctx context.Context, token string) error {
	inv, err := s.GetValid(ctx, token)
	if err != nil {
		return err
	}
	inv.Status = types.InvitationDeclined
	if err := s.deps.Store.Invitations().Update(ctx, inv); err != nil {
		return fmt.Errorf("update invitation: %w", err)
	}
	audit.Log(ctx, audit.EventInvitationDeclined, logger.TenantID(inv.TenantID), logger.InvitationID(inv.ID))
	return nil
}
