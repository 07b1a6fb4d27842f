// Package memory implementa un store en memoria protegido por mutex.
// Aplica las mismas restricciones de unicidad que los esquemas SQL; se usa en
// tests y en despliegues de desarrollo sin base de datos.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/kobecorporation/kbsaas/internal/domain/repository"
	"github.com/kobecorporation/kbsaas/internal/store"
)

func init() {
	store.RegisterAdapter(adapter{})
}

type adapter struct{}

func (adapter) Name() string { return "memory" }

func (adapter) Open(context.Context, store.Config) (repository.Store, error) {
	return New(), nil
}

// Store guarda copias de las entidades; nunca expone punteros internos.
type Store struct {
	mu          sync.RWMutex
	users       map[string]repository.User
	tenants     map[string]repository.Tenant
	invitations map[string]repository.Invitation
}

// New crea un store vacío.
func New() *Store {
	return &Store{
		users:       make(map[string]repository.User),
		tenants:     make(map[string]repository.Tenant),
		invitations: make(map[string]repository.Invitation),
	}
}

func (s *Store) Users() repository.UserRepository { return &userRepo{s} }
func (s *Store) Tenants() repository.TenantRepository { return &tenantRepo{s} }
func (s *Store) Invitations() repository.InvitationRepository { return &invitationRepo{s} }

func (s *Store) Driver() string { return "memory" }
func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }
func (s *Store) Close() error { return nil }

func ptr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func sameTenant(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func inScope(u *repository.User, scope repository.Scope) bool {
	tid, ok := scope.TenantID()
	if !ok {
		return u.TenantID == nil
	}
	return u.TenantID != nil && *u.TenantID == tid
}

func eqFold(a, b string) bool { return strings.EqualFold(a, b) }
