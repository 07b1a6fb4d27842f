package helpers

import (
	"context"

	"github.com/kobecorporation/kbsaas/internal/domain/repository"
)

type ctxHTTPKey string

const (
	ctxRequestIDKey ctxHTTPKey = "request_id"
	ctxTenantKey    ctxHTTPKey = "tenant"
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, requestID)
}

func RequestID(ctx context.Context) string {
	s, _ := ctx.Value(ctxRequestIDKey).(string)
	return s
}

// WithTenant guarda una copia del tenant resuelto. El valor del contexto no se
// comparte con nadie más.
func WithTenant(ctx context.Context, t *repository.Tenant) context.Context {
	if t == nil {
		return ctx
	}
	return context.WithValue(ctx, ctxTenantKey, *t)
}

// TenantFrom retorna una copia del tenant resuelto o nil si el request no tiene tenant.
func TenantFrom(ctx context.Context) *repository.Tenant {
	t, ok := ctx.Value(ctxTenantKey).(repository.Tenant)
	if !ok {
		return nil
	}
	return &t
}

// ScopeFrom deriva el scope de usuarios del request: tenant resuelto o plataforma.
func ScopeFrom(ctx context.Context) repository.Scope {
	if t := TenantFrom(ctx); t != nil {
		return repository.TenantScope(t.ID)
	}
	return repository.PlatformScope()
}
