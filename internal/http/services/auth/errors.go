package auth

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrTenantRequired       = errors.New("auth: la operación requiere un tenant")
	ErrTenantNotFound       = errors.New("auth: tenant no encontrado")
	ErrPublicSignupDisabled = errors.New("auth: registro público deshabilitado")
	ErrCapacityExceeded     = errors.New("auth: el plan no admite más usuarios")
	ErrEmailTaken           = errors.New("auth: email ya registrado")
	ErrUsernameTaken        = errors.New("auth: username ya registrado")
	ErrAccountNotFound      = errors.New("auth: cuenta no encontrada")
	ErrAlreadyVerified      = errors.New("auth: email ya verificado")
	ErrInvalidCode          = errors.New("auth: código inválido o expirado")
	ErrInvalidCredentials   = errors.New("auth: credenciales inválidas")
	ErrAccountDisabled      = errors.New("auth: cuenta deshabilitada")
	ErrEmailNotVerified     = errors.New("auth: email no verificado")
	ErrAccountLocked        = errors.New("auth: cuenta bloqueada")
	ErrInvalidToken         = errors.New("auth: token inválido")
	ErrTokenExpired         = errors.New("auth: token expirado")
	ErrWrongTokenType       = errors.New("auth: tipo de token incorrecto")
	ErrTokenMismatch        = errors.New("auth: refresh token revocado o ya usado")
	ErrUserNotFound         = errors.New("auth: usuario no encontrado")
	ErrInvalidResetToken    = errors.New("auth: token de reseteo inválido o expirado")
	ErrRateLimited          = errors.New("auth: demasiados intentos")
)

// RateLimitedError informa cuánto esperar. errors.Is(err, ErrRateLimited).
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("%s (reintentar en %s)", ErrRateLimited, e.RetryAfter)
}

func (e *RateLimitedError) Unwrap() error { return ErrRateLimited }
