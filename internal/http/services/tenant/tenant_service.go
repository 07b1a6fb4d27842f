package tenant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kobecorporation/kbsaas/internal/audit"
	"github.com/kobecorporation/kbsaas/internal/authz"
	"github.com/kobecorporation/kbsaas/internal/domain/repository"
	"github.com/kobecorporation/kbsaas/internal/domain/types"
	dto "github.com/kobecorporation/kbsaas/internal/http/dto/tenant"
	"github.com/kobecorporation/kbsaas/internal/observability/logger"
	"github.com/kobecorporation/kbsaas/internal/validation"
)

type tenantService struct {
	deps     Deps
	resolver *Resolver
}

func (s *tenantService) Get(ctx context.Context, p authz.Principal, tenantID string) (*dto.TenantResponse, error) {
	if !authz.CanAccessTenant(p, tenantID) {
		return nil, authz.ErrNotMember
	}
	t, err := s.deps.load(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return s.deps.view(ctx, t)
}

func validateSettings(st *repository.TenantSettings) error {
	v := validation.New()
	if st.CompanySize != nil {
		v.Check(st.CompanySize.Valid(), "settings.companySize", "valor desconocido")
	}
	v.Check(st.SessionDurationHours > 0, "settings.sessionDurationHours", "debe ser positivo")
	return v.Err()
}

func (s *tenantService) Update(ctx context.Context, p authz.Principal, tenantID string, in dto.UpdateTenantRequest) (*dto.TenantResponse, error) {
	if err := authz.RequireTenantPermission(p, tenantID, types.PermEditSettings); err != nil {
		return nil, err
	}
	t, err := s.deps.load(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		v := validation.New()
		v.Required("name", name)
		v.Length("name", name, 2, 100)
		if err := v.Err(); err != nil {
			return nil, err
		}
		t.Name = name
	}
	if in.Settings != nil {
		if err := validateSettings(in.Settings); err != nil {
			return nil, err
		}
		t.Settings = *in.Settings
	}
	t.UpdatedAt = s.deps.Now()
	if err := s.deps.Store.Tenants().Update(ctx, t); err != nil {
		return nil, fmt.Errorf("update tenant: %w", err)
	}
	s.resolver.Invalidate(ctx, t)

	audit.Log(ctx, audit.EventTenantUpdated, logger.TenantID(t.ID), logger.UserID(p.UserID))
	return s.deps.view(ctx, t)
}

// SetCustomDomain asigna o quita (nil/vacío) el dominio custom.
func (s *tenantService) SetCustomDomain(ctx context.Context, p authz.Principal, tenantID string, domain *string) (*dto.TenantResponse, error) {
	if err := authz.RequireTenantPermission(p, tenantID, types.PermEditSettings); err != nil {
		return nil, err
	}
	t, err := s.deps.load(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	before := *t

	var next *string
	if domain != nil {
		if d := strings.ToLower(strings.TrimSpace(*domain)); d != "" {
			next = &d
		}
	}

	if next != nil {
		if !t.CanUseCustomDomain() {
			return nil, ErrFeatureUnavailable
		}
		d := *next
		pd := s.deps.Config.Resolver.PlatformDomain
		if !validation.IsDomain(d) || d == pd || strings.HasSuffix(d, "."+pd) {
			return nil, ErrInvalidDomain
		}
		if t.CustomDomain == nil || *t.CustomDomain != d {
			taken, err := s.deps.Store.Tenants().ExistsByCustomDomain(ctx, d)
			if err != nil {
				return nil, fmt.Errorf("check domain: %w", err)
			}
			if taken {
				return nil, ErrDomainTaken
			}
		}
	}

	t.CustomDomain = next
	t.UpdatedAt = s.deps.Now()
	if err := s.deps.Store.Tenants().Update(ctx, t); err != nil {
		if repository.IsConflict(err) {
			return nil, ErrDomainTaken
		}
		return nil, fmt.Errorf("update tenant: %w", err)
	}
	s.resolver.Invalidate(ctx, &before, t)

	audit.Log(ctx, audit.EventCustomDomainSet, logger.TenantID(t.ID), logger.UserID(p.UserID),
		logger.String("domain", t.ActiveDomain(s.deps.Config.Resolver.Prefix, s.deps.Config.Resolver.PlatformDomain)))
	return s.deps.view(ctx, t)
}

func (s *tenantService) Members(ctx context.Context, p authz.Principal, tenantID string) ([]dto.MemberResponse, error) {
	if err := authz.RequireTenantPermission(p, tenantID, types.PermViewMembers); err != nil {
		return nil, err
	}
	users, err := s.deps.Store.Users().ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return members(users), nil
}

func (s *tenantService) MemberCount(ctx context.Context, tenantID string) (int, error) {
	return s.deps.Store.Users().CountByTenant(ctx, tenantID)
}

// CanAddMember compara el conteo actual con el tope del plan.
func (s *tenantService) CanAddMember(ctx context.Context, tenantID string) (bool, error) {
	t, err := s.deps.load(ctx, tenantID)
	if err != nil {
		return false, err
	}
	n, err := s.MemberCount(ctx, tenantID)
	if err != nil {
		return false, err
	}
	return types.CanAddUser(t.Plan, n), nil
}

func (s *tenantService) member(ctx context.Context, tenantID, memberID string) (*repository.User, error) {
	u, err := s.deps.Store.Users().GetByID(ctx, memberID)
	if repository.IsNotFound(err) || (err == nil && !u.BelongsTo(tenantID)) {
		return nil, ErrMemberNotFound
	}
	return u, err
}

func (s *tenantService) ChangeMemberRole(ctx context.Context, p authz.Principal, tenantID, memberID string, role types.TenantRole) (*dto.MemberResponse, error) {
	if err := authz.RequireTenantPermission(p, tenantID, types.PermManageMembers); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	u, err := s.member(ctx, tenantID, memberID)
	if err != nil {
		return nil, err
	}
	if err := authz.CanChangeMember(actorRole(p), u.TenantRole, role); err != nil {
		return nil, err
	}

	prev := u.TenantRole
	u.TenantRole = role
	u.UpdatedAt = s.deps.Now()
	if err := s.deps.Store.Users().Update(ctx, u); err != nil {
		return nil, fmt.Errorf("update member: %w", err)
	}
	audit.Log(ctx, audit.EventMemberRoleChanged, logger.TenantID(tenantID), logger.UserID(u.ID),
		logger.String("actor_id", p.UserID), logger.String("from", string(prev)), logger.Role(string(role)))
	out := dto.NewMemberResponse(u)
	return &out, nil
}

func (s *tenantService) RemoveMember(ctx context.Context, p authz.Principal, tenantID, memberID string) error {
	if err := authz.RequireTenantPermission(p, tenantID, types.PermManageMembers); err != nil {
		return err
	}
	u, err := s.member(ctx, tenantID, memberID)
	if err != nil {
		return err
	}
	if u.TenantRole == types.TenantRoleOwner {
		return authz.ErrRoleNotEditable
	}
	if !types.CanModifyRole(actorRole(p), u.TenantRole) {
		return authz.ErrForbidden
	}
	if err := s.deps.Store.Users().DeleteByID(ctx, u.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrMemberNotFound
		}
		return fmt.Errorf("delete member: %w", err)
	}
	audit.Log(ctx, audit.EventMemberRemoved, logger.TenantID(tenantID), logger.UserID(u.ID), logger.String("actor_id", p.UserID))
	return nil
}

// actorRole: el platform admin actúa con la autoridad de un OWNER.
func actorRole(p authz.Principal) types.TenantRole {
	if p.IsPlatformAdmin() {
		return types.TenantRoleOwner
	}
	return p.TenantRole
}
