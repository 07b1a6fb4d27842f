package sqlite

import (
	"encoding/json"
	"time"

	"github.com/kobecorporation/kbsaas/internal/domain/repository"
	"github.com/kobecorporation/kbsaas/internal/domain/types"
)

type userRow struct {
	ID                             string `gorm:"primaryKey"`
	TenantID                       *string
	TenantRole                     string
	Role                           string
	Username                       string
	Email                          string
	PasswordHash                   *string
	FirstName                      string
	LastName                       string
	BirthDate                      *time.Time
	Gender                         *string
	ProfilePicture                 *string
	Bio                            *string
	Website                        *string
	IsActive                       bool
	IsEmailVerified                bool
	RefreshToken                   *string
	RefreshTokenExpiresAt          *time.Time
	EmailVerificationCode          *string
	EmailVerificationCodeExpiresAt *time.Time
	PasswordResetToken             *string
	PasswordResetTokenExpiresAt    *time.Time
	FailedLoginAttempts            int
	LockedUntil                    *time.Time
	CreatedAt                      time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt                      time.Time `gorm:"autoUpdateTime:false"`
	LastLoginAt                    *time.Time
}

func (userRow) TableName() string { return "users" }

func toUserRow(u *repository.User) userRow {
	var gender *string
	if u.Gender != nil {
		g := string(*u.Gender)
		gender = &g
	}
	return userRow{
		ID: u.ID, TenantID: u.TenantID, TenantRole: string(u.TenantRole), Role: string(u.Role),
		Username: u.Username, Email: u.Email, PasswordHash: u.PasswordHash,
		FirstName: u.FirstName, LastName: u.LastName, BirthDate: u.BirthDate, Gender: gender,
		ProfilePicture: u.ProfilePicture, Bio: u.Bio, Website: u.Website,
		IsActive: u.IsActive, IsEmailVerified: u.IsEmailVerified,
		RefreshToken: u.RefreshToken, RefreshTokenExpiresAt: u.RefreshTokenExpiresAt,
		EmailVerificationCode: u.EmailVerificationCode, EmailVerificationCodeExpiresAt: u.EmailVerificationCodeExpiresAt,
		PasswordResetToken: u.PasswordResetToken, PasswordResetTokenExpiresAt: u.PasswordResetTokenExpiresAt,
		FailedLoginAttempts: u.FailedLoginAttempts, LockedUntil: u.LockedUntil,
		CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt, LastLoginAt: u.LastLoginAt,
	}
}

func (r *userRow) toDomain() *repository.User {
	var gender *types.Gender
	if r.Gender != nil {
		g := types.Gender(*r.Gender)
		gender = &g
	}
	return &repository.User{
		ID: r.ID, TenantID: r.TenantID, TenantRole: types.TenantRole(r.TenantRole), Role: types.Role(r.Role),
		Username: r.Username, Email: r.Email, PasswordHash: r.PasswordHash,
		FirstName: r.FirstName, LastName: r.LastName, BirthDate: r.BirthDate, Gender: gender,
		ProfilePicture: r.ProfilePicture, Bio: r.Bio, Website: r.Website,
		IsActive: r.IsActive, IsEmailVerified: r.IsEmailVerified,
		RefreshToken: r.RefreshToken, RefreshTokenExpiresAt: r.RefreshTokenExpiresAt,
		EmailVerificationCode: r.EmailVerificationCode, EmailVerificationCodeExpiresAt: r.EmailVerificationCodeExpiresAt,
		PasswordResetToken: r.PasswordResetToken, PasswordResetTokenExpiresAt: r.PasswordResetTokenExpiresAt,
		FailedLoginAttempts: r.FailedLoginAttempts, LockedUntil: r.LockedUntil,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt, LastLoginAt: r.LastLoginAt,
	}
}

type tenantRow struct {
	ID             string `gorm:"primaryKey"`
	Name           string
	Slug           string
	CustomDomain   *string
	Plan           string
	Status         string
	Settings       string
	OwnerID        string
	TrialEndsAt    *time.Time
	CreatedAt      time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime:false"`
	LastActivityAt *time.Time
}

func (tenantRow) TableName() string { return "tenants" }

func toTenantRow(t *repository.Tenant) (tenantRow, error) {
	settings, err := json.Marshal(t.Settings)
	if err != nil {
		return tenantRow{}, err
	}
	return tenantRow{
		ID: t.ID, Name: t.Name, Slug: t.Slug, CustomDomain: t.CustomDomain,
		Plan: string(t.Plan), Status: string(t.Status), Settings: string(settings), OwnerID: t.OwnerID,
		TrialEndsAt: t.TrialEndsAt, CreatedAt: t.CreatedAt, UpdatedAt: t.UpdatedAt, LastActivityAt: t.LastActivityAt,
	}, nil
}

func (r *tenantRow) toDomain() (*repository.Tenant, error) {
	t := &repository.Tenant{
		ID: r.ID, Name: r.Name, Slug: r.Slug, CustomDomain: r.CustomDomain,
		Plan: types.Plan(r.Plan), Status: types.TenantStatus(r.Status), OwnerID: r.OwnerID,
		TrialEndsAt: r.TrialEndsAt, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt, LastActivityAt: r.LastActivityAt,
		Settings: repository.DefaultTenantSettings(),
	}
	if r.Settings != "" {
		if err := json.Unmarshal([]byte(r.Settings), &t.Settings); err != nil {
			return nil, err
		}
	}
	return t, nil
}

type invitationRow struct {
	ID          string `gorm:"primaryKey"`
	TenantID    string
	Email       string
	Role        string
	Token       string
	InvitedBy   string
	ExpiresAt   time.Time
	Status      string
	EmailsSent  int
	CreatedAt   time.Time `gorm:"autoCreateTime:false"`
	AcceptedAt  *time.Time
	CancelledAt *time.Time
}

func (invitationRow) TableName() string { return "tenant_invitations" }

func toInvitationRow(i *repository.Invitation) invitationRow {
	return invitationRow{
		ID: i.ID, TenantID: i.TenantID, Email: i.Email, Role: string(i.Role), Token: i.Token,
		InvitedBy: i.InvitedBy, ExpiresAt: i.ExpiresAt, Status: string(i.Status), EmailsSent: i.EmailsSent,
		CreatedAt: i.CreatedAt, AcceptedAt: i.AcceptedAt, CancelledAt: i.CancelledAt,
	}
}

func (r *invitationRow) toDomain() *repository.Invitation {
	return &repository.Invitation{
		ID: r.ID, TenantID: r.TenantID, Email: r.Email, Role: types.TenantRole(r.Role), Token: r.Token,
		InvitedBy: r.InvitedBy, ExpiresAt: r.ExpiresAt, Status: types.InvitationStatus(r.Status),
		EmailsSent: r.EmailsSent, CreatedAt: r.CreatedAt, AcceptedAt: r.AcceptedAt, CancelledAt: r.CancelledAt,
	}
}
