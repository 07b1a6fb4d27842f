package tenant

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
	dto "github.com/kobecorporation/kbsaas/internal/http/dto/tenant"
	"github.com/kobecorporation/kbsaas/internal/observability/logger"
	tokens "github.com/kobecorporation/kbsaas/internal/security/token"
	"github.com/kobecorporation/kbsaas/internal/validation"
)

type signupService struct {
	deps Deps
}

func normalizeSignup(in dto.SignupRequest) dto.SignupRequest {
	in.Name = strings.TrimSpace(in.Name)
	in.Slug = strings.ToLower(strings.TrimSpace(in.Slug))
	in.OwnerEmail = strings.ToLower(strings.TrimSpace(in.OwnerEmail))
	in.OwnerUsername = strings.ToLower(strings.TrimSpace(in.OwnerUsername))
	in.OwnerFirstName = strings.TrimSpace(in.OwnerFirstName)
	in.OwnerLastName = strings.TrimSpace(in.OwnerLastName)
	return in
}

func validateSignup(in dto.SignupRequest) error {
	v := validation.New()
	v.Required("name", in.Name)
	v.Length("name", in.Name, 2, 100)
	switch err := types.ValidateSlug(in.Slug); {
	case errors.Is(err, types.ErrSlugReserved):
		v.Check(false, "slug", "está reservado")
	case err != nil:
		v.Check(false, "slug", "solo admite minúsculas, dígitos y guiones (3 a 50 caracteres)")
	}
	v.Email("ownerEmail", in.OwnerEmail)
	v.Required("ownerPassword", in.OwnerPassword)
	v.Username("ownerUsername", in.OwnerUsername, 3, 30)
	v.Required("ownerFirstName", in.OwnerFirstName)
	v.Required("ownerLastName", in.OwnerLastName)
	return v.Err()
}

// Signup crea el tenant en TRIAL/FREE y su OWNER sin verificar. Si el alta del
// OWNER falla el tenant se borra.
func (s *signupService) Signup(ctx context.Context, in dto.SignupRequest) (*dto.SignupResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("tenant.signup"),
		logger.Op("Signup"),
	)

	// Paso 0: Normalización y validación
	in = normalizeSignup(in)
	if err := validateSignup(in); err != nil {
		return nil, err
	}
	if err := s.deps.Policy.Validate(in.OwnerPassword); err != nil {
		return nil, err
	}
	log = log.With(logger.TenantSlug(in.Slug))

	// Paso 1: Disponibilidad
	tenants := s.deps.Store.Tenants()
	users := s.deps.Store.Users()
	if taken, err := tenants.ExistsBySlug(ctx, in.Slug); err != nil {
		return nil, fmt.Errorf("check slug: %w", err)
	} else if taken {
		return nil, ErrSlugTaken
	}

	tenantID := uuid.NewString()
	scope := repository.TenantScope(tenantID)
	if taken, err := users.ExistsByEmail(ctx, scope, in.OwnerEmail); err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	} else if taken {
		return nil, ErrEmailTaken
	}
	if taken, err := users.ExistsByUsername(ctx, scope, in.OwnerUsername); err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	} else if taken {
		return nil, ErrUsernameTaken
	}

	hash, err := s.deps.Hasher.Hash(in.OwnerPassword)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	code, err := tokens.VerificationCode()
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}

	// Paso 2: Tenant
	now := s.deps.Now()
	trialEnds := now.Add(time.Duration(s.deps.Config.TrialDays) * 24 * time.Hour)
	ownerID := uuid.NewString()
	t := &repository.Tenant{
		ID:          tenantID,
		Name:        in.Name,
		Slug:        in.Slug,
		Plan:        types.PlanFree,
		Status:      types.TenantStatusTrial,
		Settings:    repository.DefaultTenantSettings(),
		OwnerID:     ownerID,
		TrialEndsAt: &trialEnds,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := tenants.Create(ctx, t); err != nil {
		if repository.IsConflict(err) {
			return nil, ErrSlugTaken
		}
		return nil, fmt.Errorf("create tenant: %w", err)
	}

	// Paso 3: OWNER
	codeExp := now.Add(s.deps.Config.CodeTTL)
	tid := tenantID
	owner := &repository.User{
		ID:                             ownerID,
		TenantID:                       &tid,
		TenantRole:                     types.TenantRoleOwner,
		Role:                           types.RoleRootAdmin,
		Username:                       in.OwnerUsername,
		Email:                          in.OwnerEmail,
		PasswordHash:                   &hash,
		FirstName:                      in.OwnerFirstName,
		LastName:                       in.OwnerLastName,
		IsActive:                       true,
		EmailVerificationCode:          &code,
		EmailVerificationCodeExpiresAt: &codeExp,
		CreatedAt:                      now,
		UpdatedAt:                      now,
	}
	if err := users.Create(ctx, owner); err != nil {
		if derr := tenants.Delete(context.WithoutCancel(ctx), tenantID); derr != nil {
			log.Error("signup compensation failed", logger.TenantID(tenantID), logger.Err(derr))
		}
		if repository.IsConflict(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create owner: %w", err)
	}

	// Paso 4: Correos, best effort
	name := owner.FirstName
	if err := s.deps.Mailer.SendVerification(ctx, t, owner.Email, name, code); err != nil {
		log.Warn("signup verification email failed", logger.Err(err))
	}
	if err := s.deps.Mailer.SendTenantWelcome(ctx, t, owner.Email, name, owner.TenantRole); err != nil {
		log.Warn("tenant welcome email failed", logger.Err(err))
	}

	audit.Log(ctx, audit.EventTenantCreated, logger.TenantID(tenantID), logger.TenantSlug(t.Slug), logger.UserID(ownerID))
	return &dto.SignupResult{
		Success: true,
		Message: "Tenant creado. Se envió un email de verificación.",
		Tenant:  dto.NewTenantResponse(t, s.deps.domains(), 1),
		Owner:   dto.OwnerSummary{ID: owner.ID, Email: owner.Email, Username: owner.Username},
	}, nil
}

// CheckSlug reporta si el slug es válido y está libre, y el dominio que tendría.
func (s *signupService) CheckSlug(ctx context.Context, slug string) (*dto.SlugAvailability, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	out := &dto.SlugAvailability{
		Slug:   slug,
		Domain: s.deps.Config.Resolver.Prefix + slug + "." + s.deps.Config.Resolver.PlatformDomain,
	}
	if types.ValidateSlug(slug) != nil {
		return out, nil
	}
	taken, err := s.deps.Store.Tenants().ExistsBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("check slug: %w", err)
	}
	out.Available = !taken
	return out, nil
}
