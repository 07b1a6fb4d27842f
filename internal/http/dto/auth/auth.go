// Package auth contiene DTOs para endpoints de autenticación.
package auth

import (
	"time"

	"github.com/kobecorporation/kbsaas/internal/domain/repository"
	"github.com/kobecorporation/kbsaas/internal/domain/types"
)

// RegisterRequest es el alta pública de un usuario en el tenant del request.
type RegisterRequest struct {
	Username  string        `json:"username"`
	Email     string        `json:"email"`
	Password  string        `json:"password"`
	FirstName string        `json:"firstName"`
	LastName  string        `json:"lastName"`
	BirthDate *string       `json:"birthDate,omitempty"` // YYYY-MM-DD
	Gender    *types.Gender `json:"gender,omitempty"`
}

// RegisterResult: la cuenta queda pendiente de verificación.
type RegisterResult struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"emailVerified"`
}

type LoginRequest struct {
	EmailOrUsername string `json:"emailOrUsername"`
	Password        string `json:"password"`
}

type VerifyEmailRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// EmailRequest sirve a resend-code y forgot-password.
type EmailRequest struct {
	Email string `json:"email"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// AuthData es el par de tokens más el usuario.
type AuthData struct {
	AccessToken      string       `json:"accessToken"`
	RefreshToken     string       `json:"refreshToken"`
	TokenType        string       `json:"tokenType"` // "Bearer"
	ExpiresIn        int64        `json:"expiresIn"` // segundos
	RefreshExpiresIn int64        `json:"refreshExpiresIn"`
	User             UserResponse `json:"user"`
}

// Envelope es el sobre {success, message, data} de las respuestas exitosas.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// MessageResult es una respuesta sin datos.
type MessageResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// UserResponse es la vista pública de un usuario. Nunca expone hash ni tokens.
type UserResponse struct {
	ID              string           `json:"id"`
	Username        string           `json:"username"`
	Email           string           `json:"email"`
	FirstName       string           `json:"firstName"`
	LastName        string           `json:"lastName"`
	FullName        string           `json:"fullName"`
	BirthDate       *string          `json:"birthDate,omitempty"`
	Gender          *types.Gender    `json:"gender,omitempty"`
	Role            types.Role       `json:"role"`
	TenantRole      types.TenantRole `json:"tenantRole,omitempty"`
	TenantID        *string          `json:"tenantId,omitempty"`
	IsActive        bool             `json:"isActive"`
	IsEmailVerified bool             `json:"isEmailVerified"`
	ProfilePicture  *string          `json:"profilePicture,omitempty"`
	Bio             *string          `json:"bio,omitempty"`
	Website         *string          `json:"website,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
	LastLoginAt     *time.Time       `json:"lastLoginAt,omitempty"`
}

// DateLayout es el formato de birthDate.
const DateLayout = "2006-01-02"

// NewUserResponse mapea la entidad a su vista pública.
func NewUserResponse(u *repository.User) UserResponse {
	out := UserResponse{
		ID:              u.ID,
		Username:        u.Username,
		Email:           u.Email,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		FullName:        u.FullName(),
		Gender:          u.Gender,
		Role:            u.Role,
		TenantRole:      u.TenantRole,
		TenantID:        u.TenantID,
		IsActive:        u.IsActive,
		IsEmailVerified: u.IsEmailVerified,
		ProfilePicture:  u.ProfilePicture,
		Bio:             u.Bio,
		Website:         u.Website,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
		LastLoginAt:     u.LastLoginAt,
	}
	if u.BirthDate != nil {
		s := u.BirthDate.Format(DateLayout)
		out.BirthDate = &s
	}
	return out
}
