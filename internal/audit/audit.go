// Package audit emite eventos de auditoría como logs estructurados en el logger "audit".
package audit

import (
	"context"

	"go.uber.org/zap"

	"github.com/kobecorporation/kbsaas/internal/metrics"
	"github.com/kobecorporation/kbsaas/internal/observability/logger"
)

// Eventos de negocio auditados.
const (
	EventUserRegistered      = "user.registered"
	EventEmailVerified       = "user.email_verified"
	EventLoginSucceeded      = "auth.login_succeeded"
	EventLoginFailed         = "auth.login_failed"
	EventAccountLocked       = "auth.account_locked"
	EventPasswordReset       = "auth.password_reset"
	EventLogout              = "auth.logout"
	EventTenantCreated       = "tenant.created"
	EventTenantUpdated       = "tenant.updated"
	EventTenantStatusChanged = "tenant.status_changed"
	EventTenantDeleted       = "tenant.deleted"
	EventCustomDomainSet     = "tenant.custom_domain_set"
	EventMemberRoleChanged   = "member.role_changed"
	EventMemberRemoved       = "member.removed"
	EventInvitationCreated   = "invitation.created"
	EventInvitationAccepted  = "invitation.accepted"
	EventInvitationDeclined  = "invitation.declined"
	EventInvitationCancelled = "invitation.cancelled"
	EventAdminBootstrapped   = "platform.admin_bootstrapped"
)

// Log escribe el evento con el logger del contexto (request_id, tenant) y lo cuenta.
func Log(ctx context.Context, event string, fields ...zap.Field) {
	metrics.AuditEvents.WithLabelValues(event).Inc()
	logger.From(ctx).Named("audit").Info(event, append(fields, zap.String("event", event))...)
}
