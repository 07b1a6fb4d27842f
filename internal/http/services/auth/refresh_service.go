package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/kobecorporation/kbsaas/internal/domain/repository"
	dto "github.com/kobecorporation/kbsaas/internal/http/dto/auth"
	jwtx "github.com/kobecorporation/kbsaas/internal/jwt"
	"github.com/kobecorporation/kbsaas/internal/metrics"
	"github.com/kobecorporation/kbsaas/internal/observability/logger"
	tokens "github.com/kobecorporation/kbsaas/internal/security/token"
)

type refreshService struct {
	deps Deps
}

func mapTokenError(err error) error {
	switch {
	case errors.Is(err, jwtx.ErrExpired):
		return ErrTokenExpired
	case errors.Is(err, jwtx.ErrWrongType):
		return ErrWrongTokenType
	default:
		return ErrInvalidToken
	}
}

// Refresh rota el par. Solo el token guardado es válido: el swap condicional
// hace que de dos refresh concurrentes con el mismo token gane uno.
func (s *refreshService) Refresh(ctx context.Context, refreshToken string) (*dto.AuthData, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.refresh"),
		logger.Op("Refresh"),
	)

	if refreshToken == "" {
		return nil, ErrInvalidToken
	}
	claims, err := s.deps.Codec.ParseRefresh(refreshToken)
	if err != nil {
		metrics.RecordAuth("refresh", "invalid")
		return nil, mapTokenError(err)
	}

	users := s.deps.Store.Users()
	u, err := users.GetByID(ctx, claims.UserID())
	if repository.IsNotFound(err) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	log = log.With(logger.UserID(u.ID))

	if !sameTenant(claims.TenantID, u.TenantID) {
		log.Warn("refresh tenant mismatch")
		return nil, ErrInvalidToken
	}

	presented := tokens.SHA256Base64URL(refreshToken)
	if u.RefreshToken == nil || subtle.ConstantTimeCompare([]byte(*u.RefreshToken), []byte(presented)) != 1 {
		metrics.RecordAuth("refresh", "mismatch")
		return nil, ErrTokenMismatch
	}
	now := s.deps.Now()
	if u.RefreshTokenExpiresAt == nil || !now.Before(*u.RefreshTokenExpiresAt) {
		metrics.RecordAuth("refresh", "expired")
		return nil, ErrTokenExpired
	}
	if !u.IsActive {
		return nil, ErrAccountDisabled
	}

	data, err := s.deps.issuePair(u, claims.RememberMe)
	if err != nil {
		return nil, err
	}
	next := tokens.SHA256Base64URL(data.RefreshToken)
	err = users.SwapRefreshToken(ctx, u.ID, presented, next, now.Add(s.deps.Config.RefreshIdle))
	if errors.Is(err, repository.ErrPreconditionFailed) {
		metrics.RecordAuth("refresh", "mismatch")
		return nil, ErrTokenMismatch
	}
	if err != nil {
		return nil, fmt.Errorf("swap refresh: %w", err)
	}

	metrics.RecordAuth("refresh", "ok")
	return data, nil
}

func sameTenant(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
