// Package health contiene el service de health checks.
package health

import (
	"context"
	"time"

	dto "github.com/kobecorporation/kbsaas/internal/http/dto/health"
	"github.com/kobecorporation/kbsaas/internal/observability/logger"
)

// Check verifica un componente. nil = sano.
type Check func(ctx context.Context) error

// Deps contiene las dependencias inyectables para el health service.
type Deps struct {
	Version string
	// Critical deja el servicio unavailable si falla (el store).
	Critical map[string]Check
	// Optional solo degrada (el cache).
	Optional map[string]Check
	Timeout  time.Duration // default 2s
}

type HealthService interface {
	Check(ctx context.Context) dto.Response
}

type healthService struct {
	deps Deps
}

func NewHealthService(d Deps) HealthService {
	if d.Timeout <= 0 {
		d.Timeout = 2 * time.Second
	}
	return &healthService{deps: d}
}

func (s *healthService) Check(ctx context.Context) dto.Response {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("health"), logger.Op("Check"))
	resp := dto.Response{
		Status:     "ready",
		Version:    s.deps.Version,
		Components: map[string]dto.Status{},
		Timestamp:  time.Now().UTC(),
	}

	run := func(name string, check Check, critical bool) {
		cctx, cancel := context.WithTimeout(ctx, s.deps.Timeout)
		defer cancel()
		start := time.Now()
		err := check(cctx)
		st := dto.Status{Status: "ok", Latency: time.Since(start).Round(time.Microsecond).String()}
		if err != nil {
			log.Warn("component unhealthy", logger.String("component", name), logger.Err(err))
			st.Status, st.Error = "degraded", err.Error()
			if critical {
				st.Status = "down"
				resp.Status = "unavailable"
			} else if resp.Status == "ready" {
				resp.Status = "degraded"
			}
		}
		resp.Components[name] = st
	}
	for name, c := range s.deps.Critical {
		run(name, c, true)
	}
	for name, c := range s.deps.Optional {
		run(name, c, false)
	}
	return resp
}
