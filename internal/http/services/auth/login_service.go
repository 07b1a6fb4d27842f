package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/kobecorporation/kbsaas/internal/audit"
	"github.com/kobecorporation/kbsaas/internal/domain/repository"
	dto "github.com/kobecorporation/kbsaas/internal/http/dto/auth"
	"github.com/kobecorporation/kbsaas/internal/metrics"
	"github.com/kobecorporation/kbsaas/internal/observability/logger"
)

type loginService struct {
	deps Deps
}

// rehasher lo implementan los hashers que detectan parámetros viejos.
type rehasher interface {
	NeedsRehash(hash string) bool
}

func (s *loginService) Login(ctx context.Context, scope repository.Scope, in dto.LoginRequest, rememberMe bool) (*dto.AuthData, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.login"),
		logger.Op("Login"),
	)

	// Paso 0: Normalización
	ident := normalize(in.EmailOrUsername)
	if ident == "" || in.Password == "" {
		return nil, ErrInvalidCredentials
	}

	// Paso 1: Buscar por email o username según el identificador
	users := s.deps.Store.Users()
	var (
		u   *repository.User
		err error
	)
	if strings.Contains(ident, "@") {
		u, err = users.GetByEmail(ctx, scope, ident)
	} else {
		u, err = users.GetByUsername(ctx, scope, ident)
	}
	if repository.IsNotFound(err) {
		log.Debug("user not found")
		metrics.RecordAuth("login", "unknown_user")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	log = log.With(logger.UserID(u.ID))

	// Paso 2: Estado de la cuenta
	now := s.deps.Now()
	switch {
	case !u.IsActive:
		metrics.RecordAuth("login", "disabled")
		return nil, ErrAccountDisabled
	case !u.IsEmailVerified:
		metrics.RecordAuth("login", "unverified")
		return nil, ErrEmailNotVerified
	case u.IsLocked(now):
		metrics.RecordAuth("login", "locked")
		return nil, ErrAccountLocked
	}

	// Paso 3: Password; cada fallo cuenta hacia el bloqueo
	if u.PasswordHash == nil || !s.deps.Hasher.Verify(in.Password, *u.PasswordHash) {
		u.FailedLoginAttempts++
		if u.FailedLoginAttempts >= s.deps.Config.MaxFailedAttempts {
			u.LockedUntil = ptrTime(now.Add(s.deps.Config.LockDuration))
			u.FailedLoginAttempts = 0
			audit.Log(ctx, audit.EventAccountLocked, logger.UserID(u.ID))
		}
		u.UpdatedAt = now
		if err := users.Update(ctx, u); err != nil {
			log.Error("persist failed attempt", logger.Err(err))
		}
		metrics.RecordAuth("login", "bad_password")
		audit.Log(ctx, audit.EventLoginFailed, logger.UserID(u.ID))
		return nil, ErrInvalidCredentials
	}

	// Paso 4: Éxito
	if rh, ok := s.deps.Hasher.(rehasher); ok && rh.NeedsRehash(*u.PasswordHash) {
		if h, err := s.deps.Hasher.Hash(in.Password); err == nil {
			u.PasswordHash = &h
		} else {
			log.Warn("rehash failed", logger.Err(err))
		}
	}
	u.FailedLoginAttempts = 0
	u.LockedUntil = nil
	u.LastLoginAt = ptrTime(now)
	u.UpdatedAt = now

	data, err := s.deps.issuePair(u, rememberMe)
	if err != nil {
		return nil, err
	}
	if err := users.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	if err := s.deps.storeRefresh(ctx, u.ID, data.RefreshToken, now); err != nil {
		return nil, err
	}

	metrics.RecordAuth("login", "ok")
	audit.Log(ctx, audit.EventLoginSucceeded, logger.UserID(u.ID), logger.Bool("remember_me", rememberMe))
	return data, nil
}
