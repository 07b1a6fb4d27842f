// Package server construye la infraestructura desde la configuración y sirve
// la aplicación HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/kobecorporation/kbsaas/internal/app"
	"github.com/kobecorporation/kbsaas/internal/bootstrap"
	"github.com/kobecorporation/kbsaas/internal/cache"
	"github.com/kobecorporation/kbsaas/internal/config"
	"github.com/kobecorporation/kbsaas/internal/domain/repository"
	"github.com/kobecorporation/kbsaas/internal/email"
	jwtx "github.com/kobecorporation/kbsaas/internal/jwt"
	"github.com/kobecorporation/kbsaas/internal/metrics"
	"github.com/kobecorporation/kbsaas/internal/observability/logger"
	"github.com/kobecorporation/kbsaas/internal/rate"
	"github.com/kobecorporation/kbsaas/internal/security/password"
	"github.com/kobecorporation/kbsaas/internal/security/token"
	"github.com/kobecorporation/kbsaas/internal/store"
	"github.com/kobecorporation/kbsaas/internal/store/pg"

	_ "github.com/kobecorporation/kbsaas/internal/store/drivers"
)

// Server es la aplicación cableada lista para servir.
type Server struct {
	HTTP  *http.Server
	App   *app.App
	Store repository.Store

	cfg     *config.Config
	closers []func() error
}

// Build abre store, cache, mailer, codec y limiters según cfg y arma la app.
// Ante error cierra lo que ya había abierto.
func Build(ctx context.Context, cfg *config.Config, version string) (_ *Server, err error) {
	log := logger.Named("server")
	s := &Server{cfg: cfg}
	defer func() {
		if err != nil {
			_ = s.Close()
		}
	}()

	// 1. Store
	st, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s.Store = st
	s.closers = append(s.closers, st.Close)
	log.Info("store ready", zap.String("driver", st.Driver()))

	// 2. Redis (cache y/o rate limits)
	var rdb *redis.Client
	if cfg.Cache.Kind == "redis" {
		rdb, err = cache.DialRedis(ctx, cfg.Cache.Redis.Addr, cfg.Cache.Redis.Password, cfg.Cache.Redis.DB)
		if err != nil {
			return nil, err
		}
	}
	cc, err := cache.New(cache.Config{
		Driver:          cfg.Cache.Kind,
		Prefix:          cfg.Cache.Prefix,
		DefaultTTL:      cfg.Cache.DefaultTTL,
		CleanupInterval: 2 * cfg.Cache.DefaultTTL,
	}, rdb)
	if err != nil {
		if rdb != nil {
			_ = rdb.Close()
		}
		return nil, err
	}
	s.closers = append(s.closers, cc.Close)

	// 3. Email
	mailer, err := newMailer(cfg)
	if err != nil {
		return nil, err
	}

	// 4. Tokens y passwords
	codec, err := newCodec(cfg)
	if err != nil {
		return nil, err
	}
	hasher := password.NewHasher(password.Default)
	policy, err := PasswordPolicy(cfg)
	if err != nil {
		return nil, err
	}

	// 5. Métricas
	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		if metricsHandler, err = newMetricsHandler(st); err != nil {
			return nil, err
		}
	}

	s.App = app.New(cfg, app.Deps{
		Store:    st,
		Cache:    cc,
		Codec:    codec,
		Mailer:   mailer,
		Hasher:   hasher,
		Policy:   policy,
		Limiters: newLimiters(cfg, rdb),
		Metrics:  metricsHandler,
		Version:  version,
	})

	// 6. Platform admin
	if cfg.Bootstrap.Enabled {
		res, err := bootstrap.EnsurePlatformAdmin(ctx, bootstrap.AdminConfig{
			Store:    st,
			Hasher:   hasher,
			Policy:   policy,
			Email:    cfg.Bootstrap.AdminEmail,
			Username: cfg.Bootstrap.AdminUsername,
			Password: cfg.Bootstrap.AdminPassword,
			Prod:     cfg.IsProd(),
		})
		if err != nil {
			return nil, err
		}
		LogBootstrap(log, res)
	}

	s.HTTP = &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      s.App.Handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		ErrorLog:     zap.NewStdLog(logger.Named("http")),
	}
	return s, nil
}

// Close libera los recursos en orden inverso de apertura.
func (s *Server) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// OpenStore abre el store configurado (con migraciones si auto_migrate).
func OpenStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	return store.Open(ctx, store.Config{
		Driver:      cfg.Storage.Driver,
		DSN:         cfg.Storage.DSN,
		MaxConns:    cfg.Storage.MaxConns,
		MinConns:    cfg.Storage.MinConns,
		AutoMigrate: cfg.Storage.AutoMigrate,
	})
}

// LogBootstrap informa el resultado del seed del platform admin.
func LogBootstrap(log *zap.Logger, res *bootstrap.AdminResult) {
	fields := []zap.Field{logger.UserID(res.User.ID), logger.MaskedEmail(res.User.Email)}
	switch {
	case !res.Created:
		log.Info("platform admin already present", fields...)
	case res.GeneratedPassword != "":
		log.Warn("platform admin created with generated password",
			append(fields, zap.String("password", res.GeneratedPassword))...)
	default:
		log.Info("platform admin created", fields...)
	}
}

func newMailer(cfg *config.Config) (*email.Mailer, error) {
	var sender email.Sender = email.LogSender{}
	if cfg.SMTP.Host != "" {
		sender = email.NewSMTPSender(email.SMTPConfig{
			Host:               cfg.SMTP.Host,
			Port:               cfg.SMTP.Port,
			Username:           cfg.SMTP.Username,
			Password:           cfg.SMTP.Password,
			TLSMode:            cfg.SMTP.TLS,
			InsecureSkipVerify: cfg.SMTP.InsecureSkipVerify,
		})
	} else {
		logger.Named("server").Warn("smtp.host vacío: los emails solo se escriben en el log")
	}
	return email.NewMailer(sender, email.MailerConfig{
		FromName:       cfg.Email.FromName,
		FromAddress:    cfg.Email.FromAddress,
		FrontendURL:    cfg.Email.FrontendURL,
		TenantPrefix:   cfg.Tenant.Prefix,
		PlatformDomain: cfg.Tenant.PlatformDomain,
		CodeTTL:        cfg.Auth.CodeTTL,
		ResetTTL:       cfg.Auth.ResetTTL,
	})
}

// newCodec usa jwt.secret; fuera de prod, sin secret, genera uno efímero.
func newCodec(cfg *config.Config) (*jwtx.Codec, error) {
	secret := cfg.JWT.Secret
	if secret == "" && !cfg.IsProd() {
		var err error
		if secret, err = token.GenerateOpaqueToken(48); err != nil {
			return nil, err
		}
		logger.Named("server").Warn("jwt.secret vacío: clave efímera, los tokens no sobreviven un reinicio")
	}
	return jwtx.NewCodec(jwtx.Config{
		Secret:        secret,
		Issuer:        cfg.JWT.Issuer,
		AccessTTL:     cfg.JWT.AccessTTL,
		RefreshTTL:    cfg.JWT.RefreshTTL,
		RememberMeTTL: cfg.JWT.RememberMeTTL,
	})
}

// PasswordPolicy arma la política de passwords de cfg, con blacklist si hay path.
func PasswordPolicy(cfg *config.Config) (password.Policy, error) {
	pp := cfg.Auth.PasswordPolicy
	p := password.Policy{
		MinLength:     pp.MinLength,
		MaxLength:     pp.MaxLength,
		RequireUpper:  pp.RequireUpper,
		RequireLower:  pp.RequireLower,
		RequireDigit:  pp.RequireDigit,
		RequireSymbol: pp.RequireSymbol,
	}
	if path := strings.TrimSpace(cfg.Auth.PasswordBlacklistPath); path != "" {
		bl, err := password.LoadBlacklist(path)
		if err != nil {
			return p, fmt.Errorf("password blacklist: %w", err)
		}
		p.Blacklist = bl
	}
	return p, nil
}

// newLimiters: con rdb los contadores se comparten entre réplicas.
// El límite de reenvío de código aplica siempre; el resto depende de rate.enabled.
func newLimiters(cfg *config.Config, rdb *redis.Client) app.Limiters {
	build := func(bucket string, r config.Rule) rate.Limiter {
		prefix := cfg.Cache.Prefix + "rl:" + bucket + ":"
		if rdb != nil {
			return rate.NewRedisLimiter(rdb, prefix, r.Limit, r.Window)
		}
		return rate.NewMemoryLimiter(prefix, r.Limit, r.Window)
	}
	l := app.Limiters{Resend: build("resend", cfg.Rate.Resend)}
	if cfg.Rate.Enabled {
		l.Login = build("login", cfg.Rate.Login)
		l.Forgot = build("forgot", cfg.Rate.Forgot)
		l.Signup = build("signup", cfg.Rate.Signup)
	}
	return l
}

func newMetricsHandler(st repository.Store) (http.Handler, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if err := metrics.Register(reg); err != nil {
		return nil, err
	}
	if ps, ok := st.(*pg.Store); ok {
		if err := metrics.RegisterPool(reg, ps.PoolStat); err != nil {
			return nil, err
		}
	}
	return metrics.Handler(reg), nil
}
