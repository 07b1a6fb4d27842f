// Package authz evalúa permisos combinando el rol global y el rol en el tenant.
//
// El principal viaja explícito: los middlewares lo construyen desde el access
// token y lo dejan en el contexto; los services lo reciben como parámetro.
package authz

import (
	"context"
	"errors"

	"github.com/kobecorporation/kbsaas/internal/domain/types"
	"github.com/kobecorporation/kbsaas/internal/jwt"
)

var (
	ErrForbidden       = errors.New("authz: permiso insuficiente")
	ErrNotMember       = errors.New("authz: el usuario no pertenece al tenant")
	ErrRoleNotEditable = errors.New("authz: rol no modificable")
)

// Principal es la identidad autenticada del request.
type Principal struct {
	UserID     string
	Email      string
	Role       types.Role
	TenantRole types.TenantRole
	TenantID   *string
}

// FromClaims construye el principal desde un access token ya validado.
func FromClaims(c *jwt.Claims) Principal {
	p := Principal{
		UserID:     c.UserID(),
		Email:      c.Email,
		Role:       c.Role,
		TenantRole: c.TenantRole,
	}
	if c.TenantID != nil {
		tid := *c.TenantID
		p.TenantID = &tid
	}
	return p
}

// IsPlatformAdmin: sin tenant y con rol PLATFORM_ADMIN.
func (p Principal) IsPlatformAdmin() bool {
	return p.TenantID == nil && HasGlobalRole(p.Role, types.RolePlatformAdmin)
}

// BelongsTo reporta si el token pertenece al tenant dado.
func (p Principal) BelongsTo(tenantID string) bool {
	return p.TenantID != nil && *p.TenantID == tenantID
}

// HasGlobalRole aplica la escalera global; PLATFORM_ADMIN la supera.
func HasGlobalRole(r, required types.Role) bool { return types.HasRole(r, required) }

// CanAccessTenant: platform admin o miembro del mismo tenant.
func CanAccessTenant(p Principal, tenantID string) bool {
	return p.IsPlatformAdmin() || p.BelongsTo(tenantID)
}

// RequireTenantPermission exige membresía y permiso. El platform admin no pasa
// por los roles de tenant.
func RequireTenantPermission(p Principal, tenantID string, perm types.Permission) error {
	if p.IsPlatformAdmin() {
		return nil
	}
	if !p.BelongsTo(tenantID) {
		return ErrNotMember
	}
	if !types.HasPermission(p.TenantRole, perm) {
		return ErrForbidden
	}
	return nil
}

// RequireTenantRole exige membresía y un rol mínimo.
func RequireTenantRole(p Principal, tenantID string, min types.TenantRole) error {
	if p.IsPlatformAdmin() {
		return nil
	}
	if !p.BelongsTo(tenantID) {
		return ErrNotMember
	}
	if !types.IsAtLeast(p.TenantRole, min) {
		return ErrForbidden
	}
	return nil
}

// CanAssignRole: el rol a otorgar nunca es OWNER y el actor debe poder
// modificarlo (un OWNER asigna cualquier rol por debajo suyo).
func CanAssignRole(actor, role types.TenantRole) bool {
	if role == types.TenantRoleOwner || !role.Valid() {
		return false
	}
	return actor == types.TenantRoleOwner || types.CanModifyRole(actor, role)
}

// CanChangeMember: el actor supera al miembro actual y puede otorgar el rol nuevo.
func CanChangeMember(actor, current, next types.TenantRole) error {
	if current == types.TenantRoleOwner || next == types.TenantRoleOwner {
		return ErrRoleNotEditable
	}
	if !types.CanModifyRole(actor, current) || !CanAssignRole(actor, next) {
		return ErrForbidden
	}
	return nil
}

type principalKey struct{}

// WithPrincipal guarda el principal en el contexto del request.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom retorna el principal y false si el request no está autenticado.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
