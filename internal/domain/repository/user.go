package repository

import (
	"context"
	"strings"
	"time"

	"github.com/kobecorporation/kbsaas/internal/domain/types"
)

// User es una identidad. TenantID nil significa platform admin.
type User struct {
	ID         string
	TenantID   *string
	TenantRole types.TenantRole
	Role       types.Role

	Username     string
	Email        string
	PasswordHash *string

	FirstName      string
	LastName       string
	BirthDate      *time.Time
	Gender         *types.Gender
	ProfilePicture *string
	Bio            *string
	Website        *string

	IsActive        bool
	IsEmailVerified bool

	RefreshToken          *string
	RefreshTokenExpiresAt *time.Time

	EmailVerificationCode          *string
	EmailVerificationCodeExpiresAt *time.Time

	PasswordResetToken          *string
	PasswordResetTokenExpiresAt *time.Time

	FailedLoginAttempts int
	LockedUntil         *time.Time

	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastLoginAt *time.Time
}

// FullName concatena nombre y apellido.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// IsLocked reporta si la cuenta está bloqueada en now.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockedUntil != nil && u.LockedUntil.After(now)
}

// CanLogin combina activo, verificado y no bloqueado.
func (u *User) CanLogin(now time.Time) bool {
	return u.IsActive && u.IsEmailVerified && !u.IsLocked(now)
}

// BelongsTo reporta si el usuario pertenece al tenant dado.
func (u *User) BelongsTo(tenantID string) bool {
	return u.TenantID != nil && *u.TenantID == tenantID
}

// UserRepository define la persistencia de usuarios.
type UserRepository interface {
	// Create inserta un usuario. ErrConflict si (tenant,email) o (tenant,username) ya existen.
	Create(ctx context.Context, u *User) error

	// Update reemplaza el registro salvo tenant, creación y refresh token.
	// El refresh solo cambia vía SwapRefreshToken y SetRefreshToken.
	Update(ctx context.Context, u *User) error

	// GetByID retorna ErrNotFound si no existe.
	GetByID(ctx context.Context, id string) (*User, error)

	GetByEmail(ctx context.Context, scope Scope, email string) (*User, error)
	GetByUsername(ctx context.Context, scope Scope, username string) (*User, error)
	GetByPasswordResetToken(ctx context.Context, token string) (*User, error)

	ExistsByEmail(ctx context.Context, scope Scope, email string) (bool, error)
	ExistsByUsername(ctx context.Context, scope Scope, username string) (bool, error)

	// ListByTenant lista miembros ordenados por fecha de creación.
	ListByTenant(ctx context.Context, tenantID string) ([]User, error)
	ListByTenantRole(ctx context.Context, tenantID string, role types.TenantRole) ([]User, error)
	CountByTenant(ctx context.Context, tenantID string) (int, error)

	// DeleteByID elimina un usuario. ErrNotFound si no existe.
	DeleteByID(ctx context.Context, id string) error
	// DeleteByTenant elimina todos los usuarios de un tenant y retorna cuántos borró.
	DeleteByTenant(ctx context.Context, tenantID string) (int, error)

	// SwapRefreshToken reemplaza el refresh token guardado solo si sigue siendo expected.
	// Retorna ErrPreconditionFailed si otro request ya lo rotó.
	SwapRefreshToken(ctx context.Context, userID, expected, next string, expiresAt time.Time) error
	// SetRefreshToken fija el refresh token sin condición; token nil lo revoca.
	SetRefreshToken(ctx context.Context, userID string, token *string, expiresAt *time.Time) error
}
