package middlewares

import (
	"net/http"
	"strings"
)

const (
	corsAllowHeaders  = "Content-Type, Authorization, X-Request-ID, X-Tenant-ID"
	corsExposeHeaders = "Authorization, X-Total-Count, X-Tenant-ID, X-Tenant-Error, X-Request-ID, Retry-After"
)

// WithCORS maneja CORS para los orígenes permitidos. "*" acepta cualquiera.
// tenantHeader se agrega a los headers permitidos si difiere del default.
func WithCORS(allowed []string, tenantHeader string) Middleware {
	trim := func(s string) string { return strings.TrimRight(strings.TrimSpace(s), "/") }
	alist := make([]string, 0, len(allowed))
	for _, v := range allowed {
		if v = trim(v); v != "" {
			alist = append(alist, v)
		}
	}
	allowHeaders := corsAllowHeaders
	if tenantHeader != "" && !strings.EqualFold(tenantHeader, "X-Tenant-ID") {
		allowHeaders += ", " + tenantHeader
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := trim(r.Header.Get("Origin"))
			allowedOrigin := ""
			for _, a := range alist {
				if origin != "" && (a == "*" || strings.EqualFold(origin, a)) {
					allowedOrigin = origin
					break
				}
			}

			h := w.Header()
			h.Add("Vary", "Origin")
			if allowedOrigin != "" {
				h.Set("Access-Control-Allow-Origin", allowedOrigin)
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Set("Access-Control-Allow-Methods", "GET,POST,PUT,PATCH,DELETE,OPTIONS")
				h.Set("Access-Control-Allow-Headers", allowHeaders)
				h.Set("Access-Control-Expose-Headers", corsExposeHeaders)
				h.Set("Access-Control-Max-Age", "3600")
			}

			// preflight
			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
