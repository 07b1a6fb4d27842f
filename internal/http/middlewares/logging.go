package middlewares

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kobecorporation/kbsaas/internal/http/helpers"
	"github.com/kobecorporation/kbsaas/internal/observability/logger"
)

// statusRecorder captura el status code y bytes escritos de la respuesta.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.wroteHeader {
		return
	}
	s.status = code
	s.wroteHeader = true
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if !s.wroteHeader {
		s.WriteHeader(http.StatusOK)
	}
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

func (s *statusRecorder) Unwrap() http.ResponseWriter { return s.ResponseWriter }

type reqLogKey struct{}

// reqLog es el logger del request; los middlewares internos lo enriquecen y el
// log final de WithLogging ve esos campos.
type reqLog struct{ l *zap.Logger }

// enrich agrega campos al logger del request.
func enrich(r *http.Request, fields ...zap.Field) *http.Request {
	l := logger.From(r.Context()).With(fields...)
	if h, ok := r.Context().Value(reqLogKey{}).(*reqLog); ok {
		h.l = l
	}
	return r.WithContext(logger.ToContext(r.Context(), l))
}

// WithLogging inyecta un logger con request_id, method y path en el contexto
// y registra cada request al terminar. El nivel depende del status.
func WithLogging(trustProxy bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			h := &reqLog{l: logger.L().With(
				logger.RequestID(helpers.RequestID(r.Context())),
				logger.Method(r.Method),
				logger.Path(r.URL.Path),
				logger.ClientIP(helpers.ClientIP(r, trustProxy)),
			)}
			ctx := context.WithValue(r.Context(), reqLogKey{}, h)
			ctx = logger.ToContext(ctx, h.l)
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r.WithContext(ctx))

			fields := []zap.Field{
				logger.Status(rec.status),
				logger.Bytes(rec.bytes),
				logger.DurationMs(time.Since(start).Milliseconds()),
			}
			switch {
			case rec.status >= 500:
				h.l.Error("request failed", fields...)
			case rec.status >= 400:
				h.l.Warn("request completed with client error", fields...)
			default:
				h.l.Info("request completed", fields...)
			}
		})
	}
}
