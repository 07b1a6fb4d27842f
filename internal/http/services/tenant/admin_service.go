package tenant

import (
	"context"
	"fmt"
	"strings"

	"github.com/kobecorporation/kbsaas/internal/audit"
	"github.com/kobecorporation/kbsaas/internal/domain/repository"
	"github.com/kobecorporation/kbsaas/internal/domain/types"
	platformdto "github.com/kobecorporation/kbsaas/internal/http/dto/platform"
	dto "github.com/kobecorporation/kbsaas/internal/http/dto/tenant"
	"github.com/kobecorporation/kbsaas/internal/observability/logger"
)

type adminService struct {
	deps     Deps
	resolver *Resolver
}

func (s *adminService) list(ctx context.Context, f repository.TenantFilter) ([]dto.TenantResponse, error) {
	ts, err := s.deps.Store.Tenants().List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	out := make([]dto.TenantResponse, 0, len(ts))
	for i := range ts {
		v, err := s.deps.view(ctx, &ts[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, nil
}

// List filtra por estado; vacío lista todos.
func (s *adminService) List(ctx context.Context, status types.TenantStatus) ([]dto.TenantResponse, error) {
	if status != "" && !status.Valid() {
		return nil, ErrInvalidStatus
	}
	return s.list(ctx, repository.TenantFilter{Status: status})
}

func (s *adminService) Search(ctx context.Context, query string) ([]dto.TenantResponse, error) {
	return s.list(ctx, repository.TenantFilter{NameQuery: strings.TrimSpace(query)})
}

func (s *adminService) Get(ctx context.Context, tenantID string) (*dto.TenantResponse, error) {
	t, err := s.deps.load(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return s.deps.view(ctx, t)
}

func (s *adminService) UpdateStatus(ctx context.Context, tenantID string, status types.TenantStatus) (*dto.TenantResponse, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	t, err := s.deps.load(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	prev := t.Status
	t.Status = status
	t.UpdatedAt = s.deps.Now()
	if err := s.deps.Store.Tenants().Update(ctx, t); err != nil {
		return nil, fmt.Errorf("update tenant: %w", err)
	}
	s.resolver.Invalidate(ctx, t)

	audit.Log(ctx, audit.EventTenantStatusChanged, logger.TenantID(t.ID),
		logger.String("from", string(prev)), logger.String("to", string(status)))
	return s.deps.view(ctx, t)
}

// Delete borra invitaciones, usuarios y finalmente el tenant.
func (s *adminService) Delete(ctx context.Context, tenantID string) error {
	t, err := s.deps.load(ctx, tenantID)
	if err != nil {
		return err
	}
	invs, err := s.deps.Store.Invitations().DeleteByTenant(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("delete invitations: %w", err)
	}
	users, err := s.deps.Store.Users().DeleteByTenant(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("delete users: %w", err)
	}
	if err := s.deps.Store.Tenants().Delete(ctx, tenantID); err != nil && !repository.IsNotFound(err) {
		return fmt.Errorf("delete tenant: %w", err)
	}
	s.resolver.Invalidate(ctx, t)

	audit.Log(ctx, audit.EventTenantDeleted, logger.TenantID(tenantID), logger.TenantSlug(t.Slug),
		logger.Int("users", users), logger.Int("invitations", invs))
	return nil
}

func (s *adminService) Members(ctx context.Context, tenantID string) ([]dto.MemberResponse, error) {
	if _, err := s.deps.load(ctx, tenantID); err != nil {
		return nil, err
	}
	users, err := s.deps.Store.Users().ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return members(users), nil
}

func (s *adminService) Stats(ctx context.Context) (*platformdto.Stats, error) {
	ts, err := s.deps.Store.Tenants().List(ctx, repository.TenantFilter{})
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	st := &platformdto.Stats{
		TotalTenants: len(ts),
		ByStatus:     map[string]int{},
		ByPlan:       map[string]int{},
	}
	for _, t := range ts {
		st.ByStatus[string(t.Status)]++
		st.ByPlan[string(t.Plan)]++
		switch t.Status {
		case types.TenantStatusTrial:
			st.TrialTenants++
		case types.TenantStatusActive:
			st.ActiveTenants++
		case types.TenantStatusSuspended:
			st.SuspendedTenants++
		}
	}
	return st, nil
}
