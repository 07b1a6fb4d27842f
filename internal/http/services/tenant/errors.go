package tenant

import "errors"

var (
	ErrTenantNotFound     = errors.New("tenant: no encontrado")
	ErrSlugTaken          = errors.New("tenant: slug ya utilizado")
	ErrEmailTaken         = errors.New("tenant: email ya registrado")
	ErrUsernameTaken      = errors.New("tenant: username ya registrado")
	ErrDomainTaken        = errors.New("tenant: dominio ya utilizado")
	ErrInvalidDomain      = errors.New("tenant: dominio inválido")
	ErrFeatureUnavailable = errors.New("tenant: el plan no incluye esta funcionalidad")
	ErrMemberNotFound     = errors.New("tenant: miembro no encontrado")
	ErrInvalidStatus      = errors.New("tenant: estado desconocido")
	ErrInvalidRole        = errors.New("tenant: rol desconocido")
)
