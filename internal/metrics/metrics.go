// Package metrics define los collectors Prometheus del servicio. Los collectors
// existen desde el arranque; Register los expone en un registry.
package metrics

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Número total de requests procesadas",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Latencia de los requests HTTP",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	HTTPInflight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_inflight_requests",
		Help: "Requests en vuelo",
	})

	// result: success|failure (+ motivo en event)
	AuthEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_events_total",
		Help: "Eventos de autenticación por tipo y resultado",
	}, []string{"event", "result"})

	// source: header|custom_domain|subdomain|none; result: resolved|none|not_found|not_accessible|error
	TenantResolutions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tenant_resolutions_total",
		Help: "Resoluciones de tenant por origen y resultado",
	}, []string{"source", "result"})

	TenantCacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tenant_cache_lookups_total",
		Help: "Lookups del cache de tenants (hit|miss)",
	}, []string{"result"})

	EmailsSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "emails_sent_total",
		Help: "Emails enviados por tipo y resultado",
	}, []string{"kind", "result"})

	AuditEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "audit_events_total",
		Help: "Eventos de auditoría emitidos",
	}, []string{"event"})

	RateLimited = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rate_limited_total",
		Help: "Requests rechazadas por rate limit",
	}, []string{"bucket"})
)

func all() []prometheus.Collector {
	return []prometheus.Collector{
		HTTPRequestsTotal, HTTPRequestDuration, HTTPInflight,
		AuthEvents, TenantResolutions, TenantCacheLookups,
		EmailsSent, AuditEvents, RateLimited,
	}
}

// Register registra todos los collectors (nil = DefaultRegisterer). Duplicados se ignoran.
func Register(reg prometheus.Registerer) error {
	for _, c := range all() {
		if err := registerCollector(reg, c); err != nil {
			return err
		}
	}
	return nil
}

// RegisterPool agrega gauges del pool pgx.
func RegisterPool(reg prometheus.Registerer, stat func() *pgxpool.Stat) error {
	return registerCollector(reg, newPoolCollector(stat))
}

// Handler expone el gatherer (nil = DefaultGatherer) en formato Prometheus.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// registerCollector registra el collector, ignorando duplicados.
func registerCollector(reg prometheus.Registerer, c prometheus.Collector) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return nil
		}
		return err
	}
	return nil
}

func RecordAuth(event, result string) { AuthEvents.WithLabelValues(event, result).Inc() }

func RecordTenantResolution(source, result string) {
	TenantResolutions.WithLabelValues(source, result).Inc()
}

func RecordEmail(kind string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	EmailsSent.WithLabelValues(kind, result).Inc()
}

// poolCollector expone gauges del pool global de postgres.
type poolCollector struct {
	stat func() *pgxpool.Stat

	acquiredDesc *prometheus.Desc
	idleDesc     *prometheus.Desc
	totalDesc    *prometheus.Desc
}

func newPoolCollector(stat func() *pgxpool.Stat) *poolCollector {
	return &poolCollector{
		stat:         stat,
		acquiredDesc: prometheus.NewDesc("pg_pool_acquired", "Conexiones adquiridas", nil, nil),
		idleDesc:     prometheus.NewDesc("pg_pool_idle", "Conexiones inactivas", nil, nil),
		totalDesc:    prometheus.NewDesc("pg_pool_total", "Conexiones totales", nil, nil),
	}
}

func (c *poolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.acquiredDesc
	ch <- c.idleDesc
	ch <- c.totalDesc
}

func (c *poolCollector) Collect(ch chan<- prometheus.Metric) {
	if c.stat == nil {
		return
	}
	s := c.stat()
	if s == nil {
		return
	}
	ch <- prometheus.MustNewConstMetric(c.acquiredDesc, prometheus.GaugeValue, float64(s.AcquiredConns()))
	ch <- prometheus.MustNewConstMetric(c.idleDesc, prometheus.GaugeValue, float64(s.IdleConns()))
	ch <- prometheus.MustNewConstMetric(c.totalDesc, prometheus.GaugeValue, float64(s.TotalConns()))
}
