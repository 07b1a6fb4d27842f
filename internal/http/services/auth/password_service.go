package auth

import (
	"context"
	"fmt"

	"github.com/kobecorporation/kbsaas/internal/audit"
	"github.com/kobecorporation/kbsaas/internal/domain/repository"
	dto "github.com/kobecorporation/kbsaas/internal/http/dto/auth"
	"github.com/kobecorporation/kbsaas/internal/observability/logger"
	tokens "github.com/kobecorporation/kbsaas/internal/security/token"
	"github.com/kobecorporation/kbsaas/internal/validation"
)

// ResetTokenLen es el largo del token de reseteo enviado por email.
const ResetTokenLen = 32

const resetGenericMessage = "Si el email existe, se envió un enlace para restablecer la contraseña."

type passwordService struct {
	deps Deps
}

// RequestReset responde lo mismo exista o no la cuenta. La única excepción es
// una cuenta sin verificar, que recibe success=false.
func (s *passwordService) RequestReset(ctx context.Context, scope repository.Scope, email string) (*dto.MessageResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.password"),
		logger.Op("RequestReset"),
	)

	email = normalize(email)
	v := validation.New()
	v.Email("email", email)
	if err := v.Err(); err != nil {
		return nil, err
	}
	generic := &dto.MessageResult{Success: true, Message: resetGenericMessage}

	users := s.deps.Store.Users()
	u, err := users.GetByEmail(ctx, scope, email)
	if repository.IsNotFound(err) {
		log.Debug("reset requested for unknown email")
		return generic, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	// Cuentas no verificadas o inactivas responden igual que un email desconocido.
	if !u.IsEmailVerified || !u.IsActive {
		log.Debug("reset requested for account in wrong state", logger.UserID(u.ID))
		return generic, nil
	}

	raw, err := tokens.RandomString(ResetTokenLen)
	if err != nil {
		return nil, fmt.Errorf("generate reset token: %w", err)
	}
	now := s.deps.Now()
	h := tokens.SHA256Base64URL(raw)
	u.PasswordResetToken = &h
	u.PasswordResetTokenExpiresAt = ptrTime(now.Add(s.deps.Config.ResetTTL))
	u.UpdatedAt = now
	if err := users.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	tenant, err := s.deps.tenantFor(ctx, scope)
	if err != nil {
		log.Warn("tenant lookup for reset failed", logger.Err(err))
		return generic, nil
	}
	if err := s.deps.Mailer.SendPasswordReset(ctx, tenant, u.Email, greetingName(u), raw); err != nil {
		log.Error("reset email failed", logger.UserID(u.ID), logger.Err(err))
	}
	return generic, nil
}

// Reset aplica la nueva contraseña, desbloquea la cuenta y revoca el refresh.
func (s *passwordService) Reset(ctx context.Context, in dto.ResetPasswordRequest) (*dto.MessageResult, error) {
	if in.Token == "" {
		return nil, ErrInvalidResetToken
	}
	if err := s.deps.Policy.Validate(in.NewPassword); err != nil {
		return nil, err
	}

	users := s.deps.Store.Users()
	u, err := users.GetByPasswordResetToken(ctx, tokens.SHA256Base64URL(in.Token))
	if repository.IsNotFound(err) {
		return nil, ErrInvalidResetToken
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	now := s.deps.Now()
	if u.PasswordResetTokenExpiresAt == nil || !now.Before(*u.PasswordResetTokenExpiresAt) {
		return nil, ErrInvalidResetToken
	}

	hash, err := s.deps.Hasher.Hash(in.NewPassword)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = &hash
	u.PasswordResetToken = nil
	u.PasswordResetTokenExpiresAt = nil
	u.FailedLoginAttempts = 0
	u.LockedUntil = nil
	u.UpdatedAt = now
	if err := users.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	if err := s.deps.revokeRefresh(ctx, u.ID); err != nil {
		return nil, err
	}

	audit.Log(ctx, audit.EventPasswordReset, logger.UserID(u.ID))
	return &dto.MessageResult{Success: true, Message: "La contraseña fue restablecida."}, nil
}
