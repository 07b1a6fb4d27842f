package middlewares

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/kobecorporation/kbsaas/internal/http/helpers"
)

// maxRequestIDLen acota el header recibido del cliente.
const maxRequestIDLen = 128

// WithRequestID propaga el X-Request-ID del cliente o genera uno nuevo.
// El ID se expone en el header de respuesta y se inyecta en el contexto.
func WithRequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rid := strings.TrimSpace(r.Header.Get("X-Request-ID"))
			if rid == "" || len(rid) > maxRequestIDLen {
				rid = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", rid)
			next.ServeHTTP(w, r.WithContext(helpers.WithRequestID(r.Context(), rid)))
		})
	}
}
