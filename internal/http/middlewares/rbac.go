package middlewares

import (
	"errors"
	"net/http"

	"github.com/kobecorporation/kbsaas/internal/authz"
	"github.com/kobecorporation/kbsaas/internal/domain/types"
	httperrors "github.com/kobecorporation/kbsaas/internal/http/errors"
	"github.com/kobecorporation/kbsaas/internal/http/helpers"
)

func authzError(err error) *httperrors.AppError {
	if errors.Is(err, authz.ErrNotMember) {
		return httperrors.ErrNotTenantMember
	}
	return httperrors.ErrForbidden
}

// RequireTenant exige un tenant resuelto en el contexto.
func RequireTenant() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if helpers.TenantFrom(r.Context()) == nil {
				httperrors.WriteError(w, r, httperrors.ErrTenantRequired)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// tenantCheck corre check con el principal y el tenant del request. Debe ir
// después de RequireAuth.
func tenantCheck(check func(p authz.Principal, tenantID string) error) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := authz.PrincipalFrom(r.Context())
			if !ok {
				httperrors.WriteError(w, r, httperrors.ErrUnauthorized)
				return
			}
			t := helpers.TenantFrom(r.Context())
			if t == nil {
				httperrors.WriteError(w, r, httperrors.ErrTenantRequired)
				return
			}
			if err := check(p, t.ID); err != nil {
				httperrors.WriteError(w, r, authzError(err))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireTenantMember exige que el tenant del token sea el tenant resuelto.
// El platform admin accede a cualquier tenant.
func RequireTenantMember() Middleware {
	return tenantCheck(func(p authz.Principal, tenantID string) error {
		if !authz.CanAccessTenant(p, tenantID) {
			return authz.ErrNotMember
		}
		return nil
	})
}

// RequireTenantRole exige membresía y un rol de tenant mínimo.
func RequireTenantRole(min types.TenantRole) Middleware {
	return tenantCheck(func(p authz.Principal, tenantID string) error {
		return authz.RequireTenantRole(p, tenantID, min)
	})
}

// RequirePermission exige membresía y el permiso en el tenant resuelto.
func RequirePermission(perm types.Permission) Middleware {
	return tenantCheck(func(p authz.Principal, tenantID string) error {
		return authz.RequireTenantPermission(p, tenantID, perm)
	})
}

// RequirePlatformAdmin exige un token de plataforma con rol PLATFORM_ADMIN.
func RequirePlatformAdmin() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := authz.PrincipalFrom(r.Context())
			if !ok {
				httperrors.WriteError(w, r, httperrors.ErrUnauthorized)
				return
			}
			if !p.IsPlatformAdmin() {
				httperrors.WriteError(w, r, httperrors.ErrForbidden.WithDetail("se requiere PLATFORM_ADMIN"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
