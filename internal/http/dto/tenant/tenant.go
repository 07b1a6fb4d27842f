// Package tenant contiene DTOs para el alta y la administración de tenants.
package tenant

import (
	"time"

	"github.com/kobecorporation/kbsaas/internal/domain/repository"
	"github.com/kobecorporation/kbsaas/internal/domain/types"
)

// SignupRequest crea un tenant junto con su OWNER.
type SignupRequest struct {
	Name           string `json:"name"`
	Slug           string `json:"slug"`
	OwnerEmail     string `json:"ownerEmail"`
	OwnerPassword  string `json:"ownerPassword"`
	OwnerFirstName string `json:"ownerFirstName"`
	OwnerLastName  string `json:"ownerLastName"`
	OwnerUsername  string `json:"ownerUsername"`
}

// UpdateTenantRequest: campos nil no se tocan.
type UpdateTenantRequest struct {
	Name     *string                    `json:"name,omitempty"`
	Settings *repository.TenantSettings `json:"settings,omitempty"`
}

// SetCustomDomainRequest: nil o vacío quita el dominio.
type SetCustomDomainRequest struct {
	CustomDomain *string `json:"customDomain"`
}

type ChangeRoleRequest struct {
	Role types.TenantRole `json:"role"`
}

type PlanInfo struct {
	Name         types.Plan `json:"name"`
	DisplayName  string     `json:"displayName"`
	MaxUsers     int        `json:"maxUsers"`
	MaxStorageMB int64      `json:"maxStorageMB"`
	MonthlyPrice int        `json:"monthlyPrice"`
}

type StatusInfo struct {
	Name         types.TenantStatus `json:"name"`
	DisplayName  string             `json:"displayName"`
	IsAccessible bool               `json:"isAccessible"`
}

// TenantResponse es la vista de un tenant con sus dominios calculados.
type TenantResponse struct {
	ID            string                    `json:"id"`
	Name          string                    `json:"name"`
	Slug          string                    `json:"slug"`
	CustomDomain  *string                   `json:"customDomain"`
	DefaultDomain string                    `json:"defaultDomain"`
	ActiveDomain  string                    `json:"activeDomain"`
	Plan          PlanInfo                  `json:"plan"`
	Status        StatusInfo                `json:"status"`
	Settings      repository.TenantSettings `json:"settings"`
	MemberCount   int                       `json:"memberCount"`
	TrialEndsAt   *time.Time                `json:"trialEndsAt"`
	CreatedAt     time.Time                 `json:"createdAt"`
}

// Domains son los parámetros para calcular defaultDomain y activeDomain.
type Domains struct {
	Prefix         string
	PlatformDomain string
}

func NewTenantResponse(t *repository.Tenant, d Domains, memberCount int) TenantResponse {
	limits := t.Plan.Limits()
	return TenantResponse{
		ID:            t.ID,
		Name:          t.Name,
		Slug:          t.Slug,
		CustomDomain:  t.CustomDomain,
		DefaultDomain: t.DefaultDomain(d.Prefix, d.PlatformDomain),
		ActiveDomain:  t.ActiveDomain(d.Prefix, d.PlatformDomain),
		Plan: PlanInfo{
			Name:         t.Plan,
			DisplayName:  limits.DisplayName,
			MaxUsers:     limits.MaxUsers,
			MaxStorageMB: limits.MaxStorageMB,
			MonthlyPrice: limits.MonthlyPrice,
		},
		Status: StatusInfo{
			Name:         t.Status,
			DisplayName:  t.Status.DisplayName(),
			IsAccessible: t.IsAccessible(),
		},
		Settings:    t.Settings,
		MemberCount: memberCount,
		TrialEndsAt: t.TrialEndsAt,
		CreatedAt:   t.CreatedAt,
	}
}

type TenantRoleInfo struct {
	Name        types.TenantRole `json:"name"`
	DisplayName string           `json:"displayName"`
	Level       int              `json:"level"`
}

func NewTenantRoleInfo(r types.TenantRole) TenantRoleInfo {
	return TenantRoleInfo{Name: r, DisplayName: r.DisplayName(), Level: r.Level()}
}

// MemberResponse es un usuario visto como miembro del tenant.
type MemberResponse struct {
	ID              string         `json:"id"`
	Username        string         `json:"username"`
	Email           string         `json:"email"`
	FirstName       string         `json:"firstName"`
	LastName        string         `json:"lastName"`
	FullName        string         `json:"fullName"`
	ProfilePicture  *string        `json:"profilePicture"`
	TenantRole      TenantRoleInfo `json:"tenantRole"`
	IsActive        bool           `json:"isActive"`
	IsEmailVerified bool           `json:"isEmailVerified"`
	LastLoginAt     *time.Time     `json:"lastLoginAt"`
	CreatedAt       time.Time      `json:"createdAt"`
}

func NewMemberResponse(u *repository.User) MemberResponse {
	return MemberResponse{
		ID:              u.ID,
		Username:        u.Username,
		Email:           u.Email,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		FullName:        u.FullName(),
		ProfilePicture:  u.ProfilePicture,
		TenantRole:      NewTenantRoleInfo(u.TenantRole),
		IsActive:        u.IsActive,
		IsEmailVerified: u.IsEmailVerified,
		LastLoginAt:     u.LastLoginAt,
		CreatedAt:       u.CreatedAt,
	}
}

type OwnerSummary struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

type SignupResult struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Tenant  TenantResponse `json:"tenant"`
	Owner   OwnerSummary   `json:"owner"`
}

type SlugAvailability struct {
	Slug      string `json:"slug"`
	Available bool   `json:"available"`
	Domain    string `json:"domain"`
}

// MutationResult envuelve el tenant tras una modificación.
type MutationResult struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Tenant  TenantResponse `json:"tenant"`
}
