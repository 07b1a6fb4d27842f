// Package errors define los errores HTTP de la API y su serialización.
package errors

import "net/http"

// ─── 400 Bad Request ───

var (
	ErrBadRequest    = New(http.StatusBadRequest, "BAD_REQUEST", "La solicitud contiene sintaxis inválida o parámetros faltantes.")
	ErrInvalidJSON   = New(http.StatusBadRequest, "INVALID_JSON", "El cuerpo de la solicitud no es un JSON válido.")
	ErrMissingFields = New(http.StatusBadRequest, "MISSING_FIELDS", "Faltan campos requeridos en la solicitud.")
	ErrValidation    = New(http.StatusBadRequest, "VALIDATION_ERROR", "Uno o más campos son inválidos.")
	ErrInvalidSlug   = New(http.StatusBadRequest, "INVALID_SLUG", "El slug es inválido o está reservado.")
	ErrWeakPassword  = New(http.StatusBadRequest, "PASSWORD_TOO_WEAK", "La contraseña no cumple con los requisitos de seguridad.")
	ErrInvalidCode   = New(http.StatusBadRequest, "INVALID_CODE", "El código de verificación es inválido o expiró.")
	ErrInvalidReset  = New(http.StatusBadRequest, "INVALID_RESET_TOKEN", "El enlace de reseteo es inválido o expiró.")
	ErrInvalidDomain = New(http.StatusBadRequest, "INVALID_DOMAIN", "El dominio es inválido.")
	ErrBodyTooLarge  = New(http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE", "El cuerpo de la solicitud excede el tamaño máximo permitido.")
)

// ─── 401 Unauthorized ───

var (
	ErrUnauthorized       = New(http.StatusUnauthorized, "UNAUTHORIZED", "No autorizado. Se requiere autenticación.")
	ErrInvalidCredentials = New(http.StatusUnauthorized, "INVALID_CREDENTIALS", "Las credenciales proporcionadas son inválidas.")
	ErrTokenExpired       = New(http.StatusUnauthorized, "TOKEN_EXPIRED", "El token ha expirado.")
	ErrTokenInvalid       = New(http.StatusUnauthorized, "TOKEN_INVALID", "El token es inválido o está malformado.")
	ErrTokenMissing       = New(http.StatusUnauthorized, "TOKEN_MISSING", "No se proporcionó token de autenticación.")
	ErrTokenMismatch      = New(http.StatusUnauthorized, "TOKEN_MISMATCH", "El refresh token ya fue utilizado o revocado.")
	ErrWrongTokenType     = New(http.StatusUnauthorized, "WRONG_TOKEN_TYPE", "El tipo de token no es válido para esta operación.")
)

// ─── 403 Forbidden ───

var (
	ErrForbidden            = New(http.StatusForbidden, "FORBIDDEN", "No tiene permisos para realizar esta acción.")
	ErrAccountDisabled      = New(http.StatusForbidden, "ACCOUNT_DISABLED", "La cuenta está deshabilitada.")
	ErrEmailNotVerified     = New(http.StatusForbidden, "EMAIL_NOT_VERIFIED", "La cuenta debe ser verificada antes de continuar.")
	ErrTenantNotAccessible  = New(http.StatusForbidden, "TENANT_NOT_ACCESSIBLE", "El tenant no está accesible.")
	ErrNotTenantMember      = New(http.StatusForbidden, "NOT_TENANT_MEMBER", "El usuario no pertenece a este tenant.")
	ErrTenantRequired       = New(http.StatusForbidden, "TENANT_REQUIRED", "Esta operación requiere un tenant.")
	ErrPublicSignupDisabled = New(http.StatusForbidden, "PUBLIC_SIGNUP_DISABLED", "El registro público está deshabilitado para este tenant.")
	ErrFeatureUnavailable   = New(http.StatusForbidden, "FEATURE_UNAVAILABLE", "El plan actual no incluye esta funcionalidad.")
	ErrCapacityExceeded     = New(http.StatusForbidden, "CAPACITY_EXCEEDED", "El tenant alcanzó el máximo de usuarios de su plan.")
	ErrAccountLocked        = New(http.StatusLocked, "ACCOUNT_LOCKED", "La cuenta está bloqueada temporalmente.")
)

// ─── 404 Not Found ───

var (
	ErrNotFound           = New(http.StatusNotFound, "NOT_FOUND", "El recurso solicitado no fue encontrado.")
	ErrUserNotFound       = New(http.StatusNotFound, "USER_NOT_FOUND", "El usuario especificado no existe.")
	ErrTenantNotFound     = New(http.StatusNotFound, "TENANT_NOT_FOUND", "El tenant especificado no existe.")
	ErrInvitationNotFound = New(http.StatusNotFound, "INVITATION_NOT_FOUND", "La invitación no existe.")
	ErrRouteNotFound      = New(http.StatusNotFound, "ROUTE_NOT_FOUND", "La ruta solicitada no existe.")
	ErrMethodNotAllowed   = New(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "El método HTTP no está permitido para este recurso.")
)

// ─── 409 Conflict ───

var (
	ErrAlreadyExists   = New(http.StatusConflict, "ALREADY_EXISTS", "El recurso ya existe.")
	ErrEmailInUse      = New(http.StatusConflict, "EMAIL_ALREADY_IN_USE", "El correo electrónico ya está registrado.")
	ErrUsernameTaken   = New(http.StatusConflict, "USERNAME_TAKEN", "El nombre de usuario ya está en uso.")
	ErrSlugTaken       = New(http.StatusConflict, "SLUG_TAKEN", "El slug ya está en uso.")
	ErrDomainTaken     = New(http.StatusConflict, "DOMAIN_TAKEN", "El dominio ya está en uso.")
	ErrAlreadyMember   = New(http.StatusConflict, "ALREADY_MEMBER", "El usuario ya es miembro del tenant.")
	ErrAlreadyInvited  = New(http.StatusConflict, "ALREADY_INVITED", "Ya existe una invitación pendiente para este email.")
	ErrAlreadyVerified = New(http.StatusConflict, "ALREADY_VERIFIED", "El email ya fue verificado.")
)

// ─── 410 Gone ───

var (
	ErrInvitationExpired    = New(http.StatusGone, "INVITATION_EXPIRED", "La invitación expiró.")
	ErrInvitationUsed       = New(http.StatusGone, "INVITATION_ALREADY_USED", "La invitación ya fue aceptada.")
	ErrInvitationCancelled  = New(http.StatusGone, "INVITATION_CANCELLED", "La invitación fue cancelada.")
	ErrInvitationDeclined   = New(http.StatusGone, "INVITATION_DECLINED", "La invitación fue rechazada.")
	ErrInvitationNotPending = New(http.StatusConflict, "INVITATION_NOT_PENDING", "La invitación ya no está pendiente.")
)

// ─── 429 / 5xx ───

var (
	ErrRateLimitExceeded   = New(http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Ha excedido el límite de solicitudes. Intente más tarde.")
	ErrResendLimit         = New(http.StatusTooManyRequests, "RESEND_LIMIT_REACHED", "Se alcanzó el máximo de reenvíos.")
	ErrInternalServerError = New(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Error interno del servidor.")
	ErrEmailDelivery       = New(http.StatusInternalServerError, "EMAIL_DELIVERY_FAILED", "No se pudo enviar el email. Intente nuevamente.")
	ErrServiceUnavailable  = New(http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "El servicio no está disponible.")
)
