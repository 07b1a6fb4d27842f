package logger

import (
	"go.uber.org/zap"
)

// ─── HTTP ───

func RequestID(v string) zap.Field { return zap.String("request_id", v) }
func Method(v string) zap.Field { return zap.String("method", v) }
func Path(v string) zap.Field { return zap.String("path", v) }
func Status(v int) zap.Field { return zap.Int("status", v) }
func Bytes(v int) zap.Field { return zap.Int("bytes", v) }
func DurationMs(v int64) zap.Field { return zap.Int64("duration_ms", v) }
func ClientIP(v string) zap.Field { return zap.String("client_ip", v) }
func Host(v string) zap.Field { return zap.String("host", v) }

// ─── Negocio ───

func TenantID(v string) zap.Field { return zap.String("tenant_id", v) }
func TenantSlug(v string) zap.Field { return zap.String("tenant_slug", v) }
func UserID(v string) zap.Field { return zap.String("user_id", v) }
func InvitationID(v string) zap.Field { return zap.String("invitation_id", v) }
func Role(v string) zap.Field { return zap.String("role", v) }

// Email loguea la dirección completa solo en debug; en otros niveles usar MaskedEmail.
func Email(v string) zap.Field { return zap.String("email", v) }

// MaskedEmail deja visible la primera letra y el dominio: a***@x.com
func MaskedEmail(v string) zap.Field {
	at := -1
	for i := 0; i < len(v); i++ {
		if v[i] == '@' {
			at = i
			break
		}
	}
	if at <= 0 {
		return zap.String("email", "***")
	}
	return zap.String("email", v[:1]+"***"+v[at:])
}

// ─── Sistema ───

func Component(v string) zap.Field { return zap.String("component", v) }
func Op(v string) zap.Field { return zap.String("op", v) }
func Layer(v string) zap.Field { return zap.String("layer", v) }
func Err(err error) zap.Field { return zap.Error(err) }

// ─── Genéricos ───

func Count(v int) zap.Field { return zap.Int("count", v) }
func Any(key string, v any) zap.Field { return zap.Any(key, v) }
func String(key, v string) zap.Field { return zap.String(key, v) }
func Int(key string, v int) zap.Field { return zap.Int(key, v) }
func Bool(key string, v bool) zap.Field { return zap.Bool(key, v) }
