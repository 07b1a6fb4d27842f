package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kobecorporation/kbsaas/internal/audit"
	"github.com/kobecorporation/kbsaas/internal/domain/repository"
	"github.com/kobecorporation/kbsaas/internal/domain/types"
	dto "github.com/kobecorporation/kbsaas/internal/http/dto/auth"
	"github.com/kobecorporation/kbsaas/internal/metrics"
	"github.com/kobecorporation/kbsaas/internal/observability/logger"
	tokens "github.com/kobecorporation/kbsaas/internal/security/token"
	"github.com/kobecorporation/kbsaas/internal/validation"
)

type registerService struct {
	deps Deps
}

func validateRegister(in dto.RegisterRequest) (*time.Time, error) {
	v := validation.New()
	v.Username("username", in.Username, 3, 50)
	v.Email("email", in.Email)
	v.Required("password", in.Password)
	v.Required("firstName", in.FirstName)
	v.Length("firstName", strings.TrimSpace(in.FirstName), 2, 50)
	v.Required("lastName", in.LastName)
	v.Length("lastName", strings.TrimSpace(in.LastName), 2, 50)

	var birth *time.Time
	if in.BirthDate != nil && *in.BirthDate != "" {
		t, err := time.Parse(dto.DateLayout, *in.BirthDate)
		v.Check(err == nil, "birthDate", "debe tener formato YYYY-MM-DD")
		if err == nil {
			birth = &t
		}
	}
	if in.Gender != nil {
		v.Check(in.Gender.Valid(), "gender", "valor desconocido")
	}
	return birth, v.Err()
}

func (s *registerService) Register(ctx context.Context, scope repository.Scope, in dto.RegisterRequest) (*dto.RegisterResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.register"),
		logger.Op("Register"),
	)

	// Paso 0: Normalización y validación de formato
	in.Email = normalize(in.Email)
	in.Username = normalize(in.Username)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)

	birth, err := validateRegister(in)
	if err != nil {
		return nil, err
	}
	if err := s.deps.Policy.Validate(in.Password); err != nil {
		return nil, err
	}

	// Paso 1: El alta pública solo existe dentro de un tenant
	tenantID, ok := scope.TenantID()
	if !ok {
		return nil, ErrTenantRequired
	}
	tenant, err := s.deps.tenantFor(ctx, scope)
	if err != nil {
		return nil, err
	}
	log = log.With(logger.TenantSlug(tenant.Slug))

	if !tenant.Settings.AllowPublicSignup {
		return nil, ErrPublicSignupDisabled
	}
	count, err := s.deps.Store.Users().CountByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	if !types.CanAddUser(tenant.Plan, count) {
		return nil, ErrCapacityExceeded
	}

	// Paso 2: Unicidad dentro del tenant
	users := s.deps.Store.Users()
	if taken, err := users.ExistsByEmail(ctx, scope, in.Email); err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	} else if taken {
		return nil, ErrEmailTaken
	}
	if taken, err := users.ExistsByUsername(ctx, scope, in.Username); err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	} else if taken {
		return nil, ErrUsernameTaken
	}

	// Paso 3: Construir el usuario pendiente de verificación
	hash, err := s.deps.Hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	code, err := tokens.VerificationCode()
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}
	now := s.deps.Now()
	tid := tenantID
	u := &repository.User{
		ID:                             uuid.NewString(),
		TenantID:                       &tid,
		TenantRole:                     types.TenantRoleMember,
		Role:                           types.RoleUser,
		Username:                       in.Username,
		Email:                          in.Email,
		PasswordHash:                   &hash,
		FirstName:                      in.FirstName,
		LastName:                       in.LastName,
		BirthDate:                      birth,
		Gender:                         in.Gender,
		IsActive:                       true,
		EmailVerificationCode:          &code,
		EmailVerificationCodeExpiresAt: ptrTime(now.Add(s.deps.Config.CodeTTL)),
		CreatedAt:                      now,
		UpdatedAt:                      now,
	}

	// Paso 4: El correo sale antes de persistir; si falla no queda cuenta
	if err := s.deps.Mailer.SendVerification(ctx, tenant, u.Email, greetingName(u), code); err != nil {
		log.Warn("verification email failed", logger.MaskedEmail(u.Email), logger.Err(err))
		metrics.RecordAuth("register", "email_failed")
		return nil, fmt.Errorf("send verification: %w", err)
	}

	if err := users.Create(ctx, u); err != nil {
		if repository.IsConflict(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	metrics.RecordAuth("register", "ok")
	audit.Log(ctx, audit.EventUserRegistered, logger.UserID(u.ID), logger.TenantID(tenantID))
	return &dto.RegisterResult{
		Success:       true,
		Message:       "Registro exitoso. Revise su email para obtener el código de verificación.",
		Email:         u.Email,
		EmailVerified: false,
	}, nil
}

func (s *registerService) VerifyEmail(ctx context.Context, scope repository.Scope, in dto.VerifyEmailRequest) (*dto.AuthData, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.register"),
		logger.Op("VerifyEmail"),
	)

	in.Email = normalize(in.Email)
	in.Code = strings.TrimSpace(in.Code)
	v := validation.New()
	v.Email("email", in.Email)
	v.Check(validation.IsVerificationCode(in.Code), "code", "debe tener 6 dígitos")
	if err := v.Err(); err != nil {
		return nil, err
	}

	users := s.deps.Store.Users()
	u, err := users.GetByEmail(ctx, scope, in.Email)
	if repository.IsNotFound(err) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u.IsEmailVerified {
		return nil, ErrAlreadyVerified
	}

	now := s.deps.Now()
	if u.EmailVerificationCode == nil || u.EmailVerificationCodeExpiresAt == nil ||
		subtle.ConstantTimeCompare([]byte(*u.EmailVerificationCode), []byte(in.Code)) != 1 ||
		!now.Before(*u.EmailVerificationCodeExpiresAt) {
		metrics.RecordAuth("verify_email", "invalid_code")
		return nil, ErrInvalidCode
	}

	// Verificado: se limpia el código y se hace auto-login
	u.IsEmailVerified = true
	u.EmailVerificationCode = nil
	u.EmailVerificationCodeExpiresAt = nil
	u.LastLoginAt = ptrTime(now)
	u.UpdatedAt = now

	data, err := s.deps.issuePair(u, false)
	if err != nil {
		return nil, err
	}
	if err := users.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	if err := s.deps.storeRefresh(ctx, u.ID, data.RefreshToken, now); err != nil {
		return nil, err
	}

	// Confirmación: best effort
	tenant, err := s.deps.tenantFor(ctx, scope)
	if err != nil {
		log.Warn("tenant lookup for confirmation failed", logger.Err(err))
	} else if err := s.deps.Mailer.SendAccountConfirmation(ctx, tenant, u.Email, greetingName(u), u.Role); err != nil {
		log.Warn("confirmation email failed", logger.MaskedEmail(u.Email), logger.Err(err))
	}

	metrics.RecordAuth("verify_email", "ok")
	audit.Log(ctx, audit.EventEmailVerified, logger.UserID(u.ID))
	return data, nil
}

func (s *registerService) ResendCode(ctx context.Context, scope repository.Scope, email string) (*dto.MessageResult, error) {
	email = normalize(email)
	v := validation.New()
	v.Email("email", email)
	if err := v.Err(); err != nil {
		return nil, err
	}

	users := s.deps.Store.Users()
	u, err := users.GetByEmail(ctx, scope, email)
	if repository.IsNotFound(err) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u.IsEmailVerified {
		return nil, ErrAlreadyVerified
	}

	res, err := s.deps.ResendLimiter.Allow(ctx, scope.String()+":"+email)
	if err != nil {
		logger.From(ctx).Warn("resend limiter unavailable", logger.Err(err))
	} else if !res.Allowed {
		metrics.RateLimited.WithLabelValues("resend").Inc()
		return nil, &RateLimitedError{RetryAfter: res.RetryAfter}
	}

	tenant, err := s.deps.tenantFor(ctx, scope)
	if err != nil {
		return nil, err
	}
	code, err := tokens.VerificationCode()
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}

	// Si el envío falla el código anterior sigue vigente
	if err := s.deps.Mailer.SendVerification(ctx, tenant, u.Email, greetingName(u), code); err != nil {
		return nil, fmt.Errorf("send verification: %w", err)
	}
	now := s.deps.Now()
	u.EmailVerificationCode = &code
	u.EmailVerificationCodeExpiresAt = ptrTime(now.Add(s.deps.Config.CodeTTL))
	u.UpdatedAt = now
	if err := users.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return &dto.MessageResult{Success: true, Message: "Se envió un nuevo código de verificación."}, nil
}
