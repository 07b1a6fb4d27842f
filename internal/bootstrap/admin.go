// Package bootstrap siembra el platform admin inicial.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kobecorporation/kbsaas/internal/audit"
	"github.com/kobecorporation/kbsaas/internal/domain/repository"
	"github.com/kobecorporation/kbsaas/internal/domain/types"
	"github.com/kobecorporation/kbsaas/internal/observability/logger"
	"github.com/kobecorporation/kbsaas/internal/security/password"
	"github.com/kobecorporation/kbsaas/internal/security/token"
	"github.com/kobecorporation/kbsaas/internal/validation"
)

// generatedPasswordLen es el largo del password generado en dev.
const generatedPasswordLen = 20

// ErrPasswordRequired se retorna en prod cuando no hay password configurado.
var ErrPasswordRequired = errors.New("bootstrap: admin_password requerido en prod")

// AdminConfig configura EnsurePlatformAdmin.
type AdminConfig struct {
	Store    repository.Store
	Hasher   password.Hasher
	Policy   password.Policy
	Email    string
	Username string
	// Password vacío: en dev se genera uno aleatorio, en prod es error.
	Password string
	Prod     bool
	Now      func() time.Time
}

// AdminResult describe lo que hizo el bootstrap.
type AdminResult struct {
	User    *repository.User
	Created bool
	// GeneratedPassword solo se completa si el password se generó acá.
	GeneratedPassword string
}

// EnsurePlatformAdmin crea el platform admin (sin tenant, OWNER, verificado y
// activo) si no existe ya un usuario de plataforma con ese email o username.
func EnsurePlatformAdmin(ctx context.Context, cfg AdminConfig) (*AdminResult, error) {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	email := strings.ToLower(strings.TrimSpace(cfg.Email))
	username := strings.TrimSpace(cfg.Username)

	v := validation.New()
	v.Email("email", email)
	v.Username("username", username, 3, 50)
	if err := v.Err(); err != nil {
		return nil, err
	}

	users := cfg.Store.Users()
	scope := repository.PlatformScope()
	existing, err := users.GetByEmail(ctx, scope, email)
	if err == nil {
		return &AdminResult{User: existing}, nil
	}
	if !repository.IsNotFound(err) {
		return nil, fmt.Errorf("bootstrap: buscar admin: %w", err)
	}
	if taken, err := users.ExistsByUsername(ctx, scope, username); err != nil {
		return nil, fmt.Errorf("bootstrap: buscar admin: %w", err)
	} else if taken {
		u, err := users.GetByUsername(ctx, scope, username)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: buscar admin: %w", err)
		}
		return &AdminResult{User: u}, nil
	}

	res := &AdminResult{Created: true}
	plain := cfg.Password
	if plain == "" {
		if cfg.Prod {
			return nil, ErrPasswordRequired
		}
		if plain, err = token.RandomString(generatedPasswordLen); err != nil {
			return nil, err
		}
		res.GeneratedPassword = plain
	} else if err := cfg.Policy.Validate(plain); err != nil {
		return nil, err
	}

	hash, err := cfg.Hasher.Hash(plain)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: hash: %w", err)
	}

	now := cfg.Now().UTC()
	u := &repository.User{
		ID:              uuid.NewString(),
		TenantRole:      types.TenantRoleOwner,
		Role:            types.RolePlatformAdmin,
		Username:        username,
		Email:           email,
		PasswordHash:    &hash,
		FirstName:       "Admin",
		LastName:        "Plateforme",
		IsActive:        true,
		IsEmailVerified: true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("bootstrap: crear admin: %w", err)
	}
	res.User = u

	audit.Log(ctx, audit.EventAdminBootstrapped, logger.UserID(u.ID), logger.MaskedEmail(u.Email))
	return res, nil
}
