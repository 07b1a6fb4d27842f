// Package tenant contiene los services de tenants: resolución por request,
// alta self-service, administración del tenant propio y consola de plataforma.
package tenant

import (
	"context"
	"time"

	"github.com/kobecorporation/kbsaas/internal/authz"
	"github.com/kobecorporation/kbsaas/internal/cache"
	"github.com/kobecorporation/kbsaas/internal/domain/repository"
	"github.com/kobecorporation/kbsaas/internal/domain/types"
	"github.com/kobecorporation/kbsaas/internal/email"
	platformdto "github.com/kobecorporation/kbsaas/internal/http/dto/platform"
	dto "github.com/kobecorporation/kbsaas/internal/http/dto/tenant"
	"github.com/kobecorporation/kbsaas/internal/security/password"
)

// Config de los services de tenant. Ceros toman los defaults.
type Config struct {
	Resolver  ResolverConfig
	TrialDays int           // default 14
	CodeTTL   time.Duration // default 10m
}

// Deps contiene las dependencias para crear los services de tenant.
type Deps struct {
	Store  repository.Store
	Cache  cache.Client // nil = sin cache
	Mailer *email.Mailer
	Hasher password.Hasher
	Policy password.Policy
	Config Config
	Now    func() time.Time
}

// SignupService es el alta pública de tenants.
type SignupService interface {
	Signup(ctx context.Context, in dto.SignupRequest) (*dto.SignupResult, error)
	CheckSlug(ctx context.Context, slug string) (*dto.SlugAvailability, error)
}

// TenantService opera sobre el tenant del request en nombre de un principal.
type TenantService interface {
	Get(ctx context.Context, p authz.Principal, tenantID string) (*dto.TenantResponse, error)
	Update(ctx context.Context, p authz.Principal, tenantID string, in dto.UpdateTenantRequest) (*dto.TenantResponse, error)
	SetCustomDomain(ctx context.Context, p authz.Principal, tenantID string, domain *string) (*dto.TenantResponse, error)

	Members(ctx context.Context, p authz.Principal, tenantID string) ([]dto.MemberResponse, error)
	MemberCount(ctx context.Context, tenantID string) (int, error)
	CanAddMember(ctx context.Context, tenantID string) (bool, error)
	ChangeMemberRole(ctx context.Context, p authz.Principal, tenantID, memberID string, role types.TenantRole) (*dto.MemberResponse, error)
	RemoveMember(ctx context.Context, p authz.Principal, tenantID, memberID string) error
}

// AdminService es la consola del platform admin. El control de acceso lo
// hace el router con RequirePlatformAdmin.
type AdminService interface {
	List(ctx context.Context, status types.TenantStatus) ([]dto.TenantResponse, error)
	Search(ctx context.Context, query string) ([]dto.TenantResponse, error)
	Get(ctx context.Context, tenantID string) (*dto.TenantResponse, error)
	UpdateStatus(ctx context.Context, tenantID string, status types.TenantStatus) (*dto.TenantResponse, error)
	Delete(ctx context.Context, tenantID string) error
	Members(ctx context.Context, tenantID string) ([]dto.MemberResponse, error)
	Stats(ctx context.Context) (*platformdto.Stats, error)
}

// Services agrupa todos los services del dominio tenant.
type Services struct {
	Resolver *Resolver
	Signup   SignupService
	Tenant   TenantService
	Admin    AdminService
}

// NewServices crea el agregador de services de tenant.
func NewServices(d Deps) Services {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Config.TrialDays <= 0 {
		d.Config.TrialDays = 14
	}
	if d.Config.CodeTTL <= 0 {
		d.Config.CodeTTL = 10 * time.Minute
	}
	res := NewResolver(d.Store.Tenants(), d.Cache, d.Config.Resolver, d.Now)
	d.Config.Resolver = res.Config()
	return Services{
		Resolver: res,
		Signup:   &signupService{deps: d},
		Tenant:   &tenantService{deps: d, resolver: res},
		Admin:    &adminService{deps: d, resolver: res},
	}
}

func (d *Deps) domains() dto.Domains {
	return dto.Domains{Prefix: d.Config.Resolver.Prefix, PlatformDomain: d.Config.Resolver.PlatformDomain}
}

// view arma la respuesta con el conteo de miembros.
func (d *Deps) view(ctx context.Context, t *repository.Tenant) (*dto.TenantResponse, error) {
	n, err := d.Store.Users().CountByTenant(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	out := dto.NewTenantResponse(t, d.domains(), n)
	return &out, nil
}

func (d *Deps) load(ctx context.Context, id string) (*repository.Tenant, error) {
	t, err := d.Store.Tenants().GetByID(ctx, id)
	if repository.IsNotFound(err) {
		return nil, ErrTenantNotFound
	}
	return t, err
}

func members(users []repository.User) []dto.MemberResponse {
	out := make([]dto.MemberResponse, 0, len(users))
	for i := range users {
		out = append(out, dto.NewMemberResponse(&users[i]))
	}
	return out
}
