package errors

import (
	"errors"
	"strings"

	"github.com/kobecorporation/kbsaas/internal/authz"
	"github.com/kobecorporation/kbsaas/internal/domain/types"
	"github.com/kobecorporation/kbsaas/internal/email"
	"github.com/kobecorporation/kbsaas/internal/security/password"
	"github.com/kobecorporation/kbsaas/internal/validation"
)

// FromCommon traduce los errores compartidos por todos los services:
// validación, política de contraseñas, autorización y entrega de email.
func FromCommon(err error) (*AppError, bool) {
	var verrs validation.Errors
	var perr *password.PolicyError
	switch {
	case errors.As(err, &verrs):
		return ErrValidation.WithDetail(verrs.Error()), true
	case errors.As(err, &perr):
		return ErrWeakPassword.WithDetail(strings.Join(perr.Reasons, ",")), true
	case errors.Is(err, types.ErrSlugFormat), errors.Is(err, types.ErrSlugReserved):
		return ErrInvalidSlug.WithCause(err), true
	case errors.Is(err, authz.ErrNotMember):
		return ErrNotTenantMember, true
	case errors.Is(err, authz.ErrForbidden), errors.Is(err, authz.ErrRoleNotEditable):
		return ErrForbidden.WithCause(err), true
	case errors.Is(err, email.ErrDelivery):
		return ErrEmailDelivery.WithCause(err), true
	}
	return nil, false
}

// Map aplica table y luego FromCommon. Lo desconocido queda como 500 con la
// causa para los logs.
func Map(err error, table map[error]*AppError) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	for sentinel, ae := range table {
		if errors.Is(err, sentinel) {
			return ae.WithCause(err)
		}
	}
	if ae, ok := FromCommon(err); ok {
		return ae
	}
	return ErrInternalServerError.WithCause(err)
}
