// Package health contiene el controller de health checks.
package health

import (
	"net/http"

	"github.com/kobecorporation/kbsaas/internal/http/helpers"
	svc "github.com/kobecorporation/kbsaas/internal/http/services/health"
)

type HealthController struct {
	service svc.HealthService
}

func NewHealthController(s svc.HealthService) *HealthController {
	return &HealthController{service: s}
}

// Live maneja GET /health: el proceso responde.
func (c *HealthController) Live(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "UP"})
}

// Ready maneja GET /readyz: 503 si un componente crítico no responde.
func (c *HealthController) Ready(w http.ResponseWriter, r *http.Request) {
	res := c.service.Check(r.Context())
	status := http.StatusOK
	if res.Status == "unavailable" {
		status = http.StatusServiceUnavailable
	}
	helpers.NoStore(w)
	helpers.WriteJSON(w, status, res)
}
