package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/kobecorporation/kbsaas/internal/authz"
	httperrors "github.com/kobecorporation/kbsaas/internal/http/errors"
	jwtx "github.com/kobecorporation/kbsaas/internal/jwt"
	"github.com/kobecorporation/kbsaas/internal/observability/logger"
)

// AccessParser valida access tokens.
type AccessParser interface {
	ParseAccess(raw string) (*jwtx.Claims, error)
}

// bearerToken extrae el token del header Authorization: Bearer <token>.
func bearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

func tokenError(err error) *httperrors.AppError {
	switch {
	case errors.Is(err, jwtx.ErrExpired):
		return httperrors.ErrTokenExpired
	case errors.Is(err, jwtx.ErrWrongType):
		return httperrors.ErrWrongTokenType
	default:
		return httperrors.ErrTokenInvalid.WithCause(err)
	}
}

// RequireAuth exige un access token válido y deja el Principal en el contexto.
func RequireAuth(codec AccessParser) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
				httperrors.WriteError(w, r, httperrors.ErrTokenMissing)
				return
			}
			cl, err := codec.ParseAccess(raw)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
				httperrors.WriteError(w, r, tokenError(err))
				return
			}
			p := authz.FromClaims(cl)
			r = enrich(r, logger.UserID(p.UserID))
			next.ServeHTTP(w, r.WithContext(authz.WithPrincipal(r.Context(), p)))
		})
	}
}

// OptionalAuth deja el Principal en el contexto si hay un access token válido.
// Sin token, o con uno inválido, el request sigue anónimo.
func OptionalAuth(codec AccessParser) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if raw := bearerToken(r); raw != "" {
				if cl, err := codec.ParseAccess(raw); err == nil {
					p := authz.FromClaims(cl)
					r = enrich(r, logger.UserID(p.UserID))
					r = r.WithContext(authz.WithPrincipal(r.Context(), p))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
