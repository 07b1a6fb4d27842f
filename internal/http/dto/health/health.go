// Package health define la respuesta de /health y /readyz.
package health

import "time"

// Status de un componente: ok | degraded | down.
type Status struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Response agrega el estado del servicio. Status global: ready | degraded | unavailable.
type Response struct {
	Status     string            `json:"status"`
	Version    string            `json:"version,omitempty"`
	Components map[string]Status `json:"components,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}
