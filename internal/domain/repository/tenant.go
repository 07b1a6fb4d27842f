package repository

import (
	"context"
	"time"

	"github.com/kobecorporation/kbsaas/internal/domain/types"
)

// Tenant es una organización cliente.
type Tenant struct {
	ID             string
	Name           string
	Slug           string
	CustomDomain   *string
	Plan           types.Plan
	Status         types.TenantStatus
	Settings       TenantSettings
	OwnerID        string
	TrialEndsAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
	LastActivityAt *time.Time
}

// TenantSettings agrupa branding, localización y políticas del tenant.
type TenantSettings struct {
	Logo           *string `json:"logo"`
	Favicon        *string `json:"favicon"`
	PrimaryColor   string  `json:"primaryColor"`
	SecondaryColor string  `json:"secondaryColor"`

	Timezone   string `json:"timezone"`
	Language   string `json:"language"`
	DateFormat string `json:"dateFormat"`

	EmailFromName    *string `json:"emailFromName"`
	EmailFromAddress *string `json:"emailFromAddress"`
	EmailFooter      *string `json:"emailFooter"`

	AllowPublicSignup    bool `json:"allowPublicSignup"`
	Require2FA           bool `json:"require2FA"`
	SessionDurationHours int  `json:"sessionDurationHours"`

	Industry    *string            `json:"industry"`
	CompanySize *types.CompanySize `json:"companySize"`
	Country     *string            `json:"country"`
	Address     *string            `json:"address"`
	VATNumber   *string            `json:"vatNumber"`
}

// DefaultTenantSettings retorna los valores por defecto de un tenant nuevo.
func DefaultTenantSettings() TenantSettings {
	return TenantSettings{
		PrimaryColor:         "#3B82F6",
		SecondaryColor:       "#1E40AF",
		Timezone:             "Europe/Paris",
		Language:             "fr",
		DateFormat:           "dd/MM/yyyy",
		SessionDurationHours: 24,
	}
}

// DefaultDomain construye {prefix}{slug}.{platformDomain}.
func (t *Tenant) DefaultDomain(prefix, platformDomain string) string {
	return prefix + t.Slug + "." + platformDomain
}

// ActiveDomain prioriza el dominio custom si existe.
func (t *Tenant) ActiveDomain(prefix, platformDomain string) string {
	if t.CustomDomain != nil && *t.CustomDomain != "" {
		return *t.CustomDomain
	}
	return t.DefaultDomain(prefix, platformDomain)
}

// IsAccessible delega en la tabla de estados.
func (t *Tenant) IsAccessible() bool { return types.IsAccessible(t.Status) }

// IsTrialValid: TRIAL y con fecha de fin futura.
func (t *Tenant) IsTrialValid(now time.Time) bool {
	return t.Status == types.TenantStatusTrial && t.TrialEndsAt != nil && t.TrialEndsAt.After(now)
}

// CanUseCustomDomain depende del plan.
func (t *Tenant) CanUseCustomDomain() bool {
	return types.HasFeature(t.Plan, types.FeatureCustomDomain)
}

// TenantFilter filtra listados de tenants. Campos vacíos no filtran.
type TenantFilter struct {
	Status types.TenantStatus
	// NameQuery busca por nombre, case-insensitive, "contiene".
	NameQuery string
}

// TenantRepository define la persistencia de tenants.
type TenantRepository interface {
	// Create inserta un tenant. ErrConflict si slug o dominio custom ya existen.
	Create(ctx context.Context, t *Tenant) error
	Update(ctx context.Context, t *Tenant) error

	GetByID(ctx context.Context, id string) (*Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*Tenant, error)
	GetByCustomDomain(ctx context.Context, domain string) (*Tenant, error)

	ExistsBySlug(ctx context.Context, slug string) (bool, error)
	ExistsByCustomDomain(ctx context.Context, domain string) (bool, error)

	// List retorna tenants ordenados por fecha de creación (más nuevos primero).
	List(ctx context.Context, filter TenantFilter) ([]Tenant, error)

	// TouchActivity actualiza last_activity_at sin reescribir el registro.
	TouchActivity(ctx context.Context, id string, at time.Time) error

	Delete(ctx context.Context, id string) error
}
