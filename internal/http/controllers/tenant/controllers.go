// Package tenant contiene los controllers de /api/tenants.
package tenant

import (
	"net/http"
	"strconv"

	"github.com/kobecorporation/kbsaas/internal/authz"
	httperrors "github.com/kobecorporation/kbsaas/internal/http/errors"
	"github.com/kobecorporation/kbsaas/internal/http/helpers"
	svc "github.com/kobecorporation/kbsaas/internal/http/services/tenant"
)

// Controllers agrupa los controllers del dominio tenant.
type Controllers struct {
	Signup *SignupController
	Tenant *TenantController
}

func NewControllers(s svc.Services) *Controllers {
	return &Controllers{
		Signup: NewSignupController(s.Signup),
		Tenant: NewTenantController(s.Tenant),
	}
}

// ErrorTable traduce los errores del dominio tenant. La usa también la consola de plataforma.
var ErrorTable = map[error]*httperrors.AppError{
	svc.ErrTenantNotFound:     httperrors.ErrTenantNotFound,
	svc.ErrSlugTaken:          httperrors.ErrSlugTaken,
	svc.ErrEmailTaken:         httperrors.ErrEmailInUse,
	svc.ErrUsernameTaken:      httperrors.ErrUsernameTaken,
	svc.ErrDomainTaken:        httperrors.ErrDomainTaken,
	svc.ErrInvalidDomain:      httperrors.ErrInvalidDomain,
	svc.ErrFeatureUnavailable: httperrors.ErrFeatureUnavailable,
	svc.ErrMemberNotFound:     httperrors.ErrUserNotFound,
	svc.ErrInvalidStatus:      httperrors.ErrValidation.WithDetail("status: estado desconocido"),
	svc.ErrInvalidRole:        httperrors.ErrValidation.WithDetail("role: rol desconocido"),
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	httperrors.WriteError(w, r, httperrors.Map(err, ErrorTable))
}

// SetTotal expone el tamaño de un listado.
func SetTotal(w http.ResponseWriter, n int) {
	w.Header().Set("X-Total-Count", strconv.Itoa(n))
}

// actor retorna el principal y el id del tenant resuelto. Los middlewares de la
// ruta ya garantizan ambos.
func actor(w http.ResponseWriter, r *http.Request) (authz.Principal, string, bool) {
	p, ok := authz.PrincipalFrom(r.Context())
	if !ok {
		httperrors.WriteError(w, r, httperrors.ErrUnauthorized)
		return p, "", false
	}
	t := helpers.TenantFrom(r.Context())
	if t == nil {
		httperrors.WriteError(w, r, httperrors.ErrTenantRequired)
		return p, "", false
	}
	return p, t.ID, true
}
