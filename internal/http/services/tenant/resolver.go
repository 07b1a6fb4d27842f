package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/kobecorporation/kbsaas/internal/cache"
	"github.com/kobecorporation/kbsaas/internal/domain/repository"
	"github.com/kobecorporation/kbsaas/internal/http/helpers"
	"github.com/kobecorporation/kbsaas/internal/metrics"
	"github.com/kobecorporation/kbsaas/internal/observability/logger"
)

// Source indica cómo se resolvió el tenant.
type Source string

const (
	SourceNone         Source = "none"
	SourceHeader       Source = "header"
	SourceCustomDomain Source = "custom_domain"
	SourceSubdomain    Source = "subdomain"
)

// ResolverConfig parametriza la resolución por host.
type ResolverConfig struct {
	PlatformDomain string        // default kobecorporation.com
	Prefix         string        // default kb-saas-
	CacheTTL       time.Duration // default 1m
	// ActivityInterval limita las escrituras de last_activity_at por tenant.
	ActivityInterval time.Duration // default 1m
}

func (c *ResolverConfig) defaults() {
	if c.PlatformDomain == "" {
		c.PlatformDomain = "kobecorporation.com"
	}
	if c.Prefix == "" {
		c.Prefix = "kb-saas-"
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = time.Minute
	}
	if c.ActivityInterval <= 0 {
		c.ActivityInterval = time.Minute
	}
}

// Resolver identifica el tenant de un request. Las lecturas pasan por un cache
// read-through; cada mutación de tenant debe llamar a Invalidate.
type Resolver struct {
	store repository.TenantRepository
	cache cache.Client
	cfg   ResolverConfig
	now   func() time.Time
	sf    singleflight.Group
}

// NewResolver crea el resolver. cache nil desactiva el cache.
func NewResolver(store repository.TenantRepository, c cache.Client, cfg ResolverConfig, now func() time.Time) *Resolver {
	cfg.defaults()
	if now == nil {
		now = time.Now
	}
	return &Resolver{store: store, cache: c, cfg: cfg, now: now}
}

func (r *Resolver) Config() ResolverConfig { return r.cfg }

// Resolve aplica, en orden: header con slug, dominio custom, subdominio de la
// plataforma. Sin coincidencia retorna (nil, SourceNone, nil).
func (r *Resolver) Resolve(ctx context.Context, headerSlug, host string) (*repository.Tenant, Source, error) {
	if slug := strings.ToLower(strings.TrimSpace(headerSlug)); slug != "" {
		t, err := r.BySlug(ctx, slug)
		return t, SourceHeader, r.record(SourceHeader, err)
	}

	host = helpers.HostWithoutPort(host)
	if host == "" || host == "localhost" || net.ParseIP(host) != nil {
		return nil, SourceNone, nil
	}

	pd := r.cfg.PlatformDomain
	if host != pd && !strings.HasSuffix(host, "."+pd) {
		t, err := r.ByCustomDomain(ctx, host)
		return t, SourceCustomDomain, r.record(SourceCustomDomain, err)
	}

	sub := strings.TrimSuffix(strings.TrimSuffix(host, pd), ".")
	if sub == "" || !strings.HasPrefix(sub, r.cfg.Prefix) || strings.Contains(sub, ".") {
		return nil, SourceNone, nil
	}
	t, err := r.BySlug(ctx, strings.TrimPrefix(sub, r.cfg.Prefix))
	return t, SourceSubdomain, r.record(SourceSubdomain, err)
}

func (r *Resolver) record(src Source, err error) error {
	switch {
	case err == nil:
		metrics.RecordTenantResolution(string(src), "ok")
	case errors.Is(err, ErrTenantNotFound):
		metrics.RecordTenantResolution(string(src), "not_found")
	default:
		metrics.RecordTenantResolution(string(src), "error")
	}
	return err
}

func (r *Resolver) BySlug(ctx context.Context, slug string) (*repository.Tenant, error) {
	return r.lookup(ctx, "slug:"+slug, func(ctx context.Context) (*repository.Tenant, error) {
		return r.store.GetBySlug(ctx, slug)
	})
}

func (r *Resolver) ByCustomDomain(ctx context.Context, domain string) (*repository.Tenant, error) {
	return r.lookup(ctx, "domain:"+domain, func(ctx context.Context) (*repository.Tenant, error) {
		return r.store.GetByCustomDomain(ctx, domain)
	})
}

func cacheKey(k string) string { return "tenant:" + k }

func (r *Resolver) lookup(ctx context.Context, key string, load func(context.Context) (*repository.Tenant, error)) (*repository.Tenant, error) {
	if r.cache != nil {
		raw, err := r.cache.Get(ctx, cacheKey(key))
		switch {
		case err == nil:
			var t repository.Tenant
			if jerr := json.Unmarshal([]byte(raw), &t); jerr == nil {
				metrics.TenantCacheLookups.WithLabelValues("hit").Inc()
				return &t, nil
			}
		case !cache.IsNotFound(err):
			logger.From(ctx).Warn("tenant cache read failed", logger.Err(err))
		}
		metrics.TenantCacheLookups.WithLabelValues("miss").Inc()
	}

	// Requests concurrentes por la misma key comparten una lectura del store;
	// la cancelación de quien la inició no afecta a los demás.
	v, err, _ := r.sf.Do(key, func() (any, error) {
		lctx := context.WithoutCancel(ctx)
		t, err := load(lctx)
		if err != nil {
			return nil, err
		}
		r.fill(lctx, t)
		return t, nil
	})
	if repository.IsNotFound(err) {
		return nil, ErrTenantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("tenant lookup: %w", err)
	}
	t := *v.(*repository.Tenant)
	return &t, nil
}

// fill cachea el tenant bajo todas sus keys.
func (r *Resolver) fill(ctx context.Context, t *repository.Tenant) {
	if r.cache == nil {
		return
	}
	b, err := json.Marshal(t)
	if err != nil {
		return
	}
	for _, k := range keysOf(t) {
		if err := r.cache.Set(ctx, cacheKey(k), string(b), r.cfg.CacheTTL); err != nil {
			logger.From(ctx).Warn("tenant cache write failed", logger.Err(err))
			return
		}
	}
}

func keysOf(t *repository.Tenant) []string {
	keys := []string{"slug:" + t.Slug}
	if t.CustomDomain != nil && *t.CustomDomain != "" {
		keys = append(keys, "domain:"+*t.CustomDomain)
	}
	return keys
}

// Invalidate borra las keys del tenant. Recibe las versiones previa y nueva
// para cubrir cambios de dominio.
func (r *Resolver) Invalidate(ctx context.Context, tenants ...*repository.Tenant) {
	if r.cache == nil {
		return
	}
	for _, t := range tenants {
		if t == nil {
			continue
		}
		for _, k := range keysOf(t) {
			if err := r.cache.Delete(ctx, cacheKey(k)); err != nil {
				logger.From(ctx).Warn("tenant cache invalidation failed", logger.TenantID(t.ID), logger.Err(err))
			}
		}
	}
}

// TouchActivity registra actividad a lo sumo una vez por intervalo y tenant.
// Es best effort: los errores solo se loguean.
func (r *Resolver) TouchActivity(ctx context.Context, t *repository.Tenant) {
	if r.cache != nil {
		ok, err := r.cache.SetNX(ctx, "tenant-activity:"+t.ID, "1", r.cfg.ActivityInterval)
		if err != nil || !ok {
			return
		}
	}
	if err := r.store.TouchActivity(ctx, t.ID, r.now()); err != nil {
		logger.From(ctx).Debug("touch activity failed", logger.TenantID(t.ID), logger.Err(err))
	}
}
