package auth

import (
	"context"
	"fmt"

	"github.com/kobecorporation/kbsaas/internal/audit"
	"github.com/kobecorporation/kbsaas/internal/authz"
	"github.com/kobecorporation/kbsaas/internal/domain/repository"
	dto "github.com/kobecorporation/kbsaas/internal/http/dto/auth"
	"github.com/kobecorporation/kbsaas/internal/observability/logger"
)

type sessionService struct {
	deps Deps
}

func (s *sessionService) Logout(ctx context.Context, p *authz.Principal) (*dto.MessageResult, error) {
	out := &dto.MessageResult{Success: true, Message: "Sesión cerrada."}
	if p == nil {
		return out, nil
	}
	users := s.deps.Store.Users()
	u, err := users.GetByID(ctx, p.UserID)
	if repository.IsNotFound(err) {
		return out, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u.RefreshToken != nil {
		if err := s.deps.revokeRefresh(ctx, u.ID); err != nil {
			return nil, err
		}
	}
	audit.Log(ctx, audit.EventLogout, logger.UserID(u.ID))
	return out, nil
}

func (s *sessionService) Me(ctx context.Context, p authz.Principal) (*dto.UserResponse, error) {
	u, err := s.deps.Store.Users().GetByID(ctx, p.UserID)
	if repository.IsNotFound(err) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !sameTenant(p.TenantID, u.TenantID) {
		return nil, ErrUserNotFound
	}
	out := dto.NewUserResponse(u)
	return &out, nil
}
