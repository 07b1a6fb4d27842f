// Package auth contiene los services de autenticación: alta, verificación,
// login, rotación de refresh y recuperación de contraseña.
package auth

import (
	"context"
	"time"

	"github.com/kobecorporation/kbsaas/internal/authz"
	"github.com/kobecorporation/kbsaas/internal/domain/repository"
	"github.com/kobecorporation/kbsaas/internal/email"
	dto "github.com/kobecorporation/kbsaas/internal/http/dto/auth"
	jwtx "github.com/kobecorporation/kbsaas/internal/jwt"
	"github.com/kobecorporation/kbsaas/internal/rate"
	"github.com/kobecorporation/kbsaas/internal/security/password"
)

// Config agrupa los plazos y umbrales del motor. Ceros toman los defaults.
type Config struct {
	CodeTTL           time.Duration // default 10m
	ResetTTL          time.Duration // default 30m
	MaxFailedAttempts int           // default 5
	LockDuration      time.Duration // default 15m
	RefreshIdle       time.Duration // default 1h
}

func (c *Config) defaults() {
	if c.CodeTTL <= 0 {
		c.CodeTTL = 10 * time.Minute
	}
	if c.ResetTTL <= 0 {
		c.ResetTTL = 30 * time.Minute
	}
	if c.MaxFailedAttempts <= 0 {
		c.MaxFailedAttempts = 5
	}
	if c.LockDuration <= 0 {
		c.LockDuration = 15 * time.Minute
	}
	if c.RefreshIdle <= 0 {
		c.RefreshIdle = time.Hour
	}
}

// Deps contiene las dependencias para crear los services auth.
type Deps struct {
	Store  repository.Store
	Codec  *jwtx.Codec
	Hasher password.Hasher
	Policy password.Policy
	Mailer *email.Mailer
	// ResendLimiter limita los reenvíos de código por (scope,email). nil = sin límite.
	ResendLimiter rate.Limiter
	Config        Config
	Now           func() time.Time
}

// RegisterService cubre el alta pública y la verificación del email.
type RegisterService interface {
	Register(ctx context.Context, scope repository.Scope, in dto.RegisterRequest) (*dto.RegisterResult, error)
	VerifyEmail(ctx context.Context, scope repository.Scope, in dto.VerifyEmailRequest) (*dto.AuthData, error)
	ResendCode(ctx context.Context, scope repository.Scope, email string) (*dto.MessageResult, error)
}

type LoginService interface {
	Login(ctx context.Context, scope repository.Scope, in dto.LoginRequest, rememberMe bool) (*dto.AuthData, error)
}

type RefreshService interface {
	Refresh(ctx context.Context, refreshToken string) (*dto.AuthData, error)
}

type PasswordService interface {
	RequestReset(ctx context.Context, scope repository.Scope, email string) (*dto.MessageResult, error)
	Reset(ctx context.Context, in dto.ResetPasswordRequest) (*dto.MessageResult, error)
}

// SessionService opera sobre el usuario autenticado.
type SessionService interface {
	// Logout revoca el refresh guardado si hay principal; sin principal solo responde.
	Logout(ctx context.Context, p *authz.Principal) (*dto.MessageResult, error)
	Me(ctx context.Context, p authz.Principal) (*dto.UserResponse, error)
}

// Services agrupa todos los services del dominio auth.
type Services struct {
	Register RegisterService
	Login    LoginService
	Refresh  RefreshService
	Password PasswordService
	Session  SessionService
}

// NewServices crea el agregador de services auth.
func NewServices(d Deps) Services {
	d.Config.defaults()
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.ResendLimiter == nil {
		d.ResendLimiter = rate.Noop{}
	}
	return Services{
		Register: &registerService{deps: d},
		Login:    &loginService{deps: d},
		Refresh:  &refreshService{deps: d},
		Password: &passwordService{deps: d},
		Session:  &sessionService{deps: d},
	}
}
