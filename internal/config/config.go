package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kobecorporation/kbsaas/internal/security/secretbox"
)

// MinJWTSecretLen es el largo mínimo de la clave HMAC.
const MinJWTSecretLen = 32

type Config struct {
	App struct {
		// dev | staging | prod
		Env      string `yaml:"env"`
		LogLevel string `yaml:"log_level"`
		Name     string `yaml:"name"`
	} `yaml:"app"`

	Server struct {
		Addr               string        `yaml:"addr"`
		CORSAllowedOrigins []string      `yaml:"cors_allowed_origins"`
		ReadTimeout        time.Duration `yaml:"read_timeout"`
		WriteTimeout       time.Duration `yaml:"write_timeout"`
		IdleTimeout        time.Duration `yaml:"idle_timeout"`
		ShutdownTimeout    time.Duration `yaml:"shutdown_timeout"`
		// TrustProxyHeaders habilita X-Forwarded-For / X-Real-IP para la IP del cliente.
		TrustProxyHeaders bool `yaml:"trust_proxy_headers"`
	} `yaml:"server"`

	Storage struct {
		Driver      string `yaml:"driver"` // postgres | sqlite | memory
		DSN         string `yaml:"dsn"`
		MaxConns    int32  `yaml:"max_conns"`
		MinConns    int32  `yaml:"min_conns"`
		AutoMigrate bool   `yaml:"auto_migrate"`
	} `yaml:"storage"`

	Cache struct {
		Kind       string        `yaml:"kind"` // memory | redis
		Prefix     string        `yaml:"prefix"`
		DefaultTTL time.Duration `yaml:"default_ttl"`
		Redis      struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	JWT struct {
		Secret        string        `yaml:"secret"`
		Issuer        string        `yaml:"issuer"`
		AccessTTL     time.Duration `yaml:"access_ttl"`
		RefreshTTL    time.Duration `yaml:"refresh_ttl"`
		RememberMeTTL time.Duration `yaml:"remember_me_ttl"`
		// RefreshIdle es la ventana server-side que se renueva en cada refresh.
		RefreshIdle time.Duration `yaml:"refresh_idle"`
	} `yaml:"jwt"`

	Auth struct {
		CodeTTL           time.Duration `yaml:"code_ttl"`
		ResetTTL          time.Duration `yaml:"reset_ttl"`
		MaxFailedAttempts int           `yaml:"max_failed_attempts"`
		LockDuration      time.Duration `yaml:"lock_duration"`
		PasswordPolicy    struct {
			MinLength     int  `yaml:"min_length"`
			MaxLength     int  `yaml:"max_length"`
			RequireUpper  bool `yaml:"require_upper"`
			RequireLower  bool `yaml:"require_lower"`
			RequireDigit  bool `yaml:"require_digit"`
			RequireSymbol bool `yaml:"require_symbol"`
		} `yaml:"password_policy"`
		PasswordBlacklistPath string `yaml:"password_blacklist_path"`
	} `yaml:"auth"`

	Tenant struct {
		PlatformDomain string        `yaml:"platform_domain"`
		Prefix         string        `yaml:"prefix"`
		Header         string        `yaml:"header"`
		TrialDays      int           `yaml:"trial_days"`
		ExcludedPaths  []string      `yaml:"excluded_paths"`
		CacheTTL       time.Duration `yaml:"cache_ttl"`
		// ActivityInterval limita la frecuencia de escritura de last_activity_at.
		ActivityInterval time.Duration `yaml:"activity_interval"`
	} `yaml:"tenant"`

	Rate struct {
		Enabled bool `yaml:"enabled"`
		Login   Rule `yaml:"login"`
		Forgot  Rule `yaml:"forgot"`
		Resend  Rule `yaml:"resend"`
		Signup  Rule `yaml:"signup"`
	} `yaml:"rate"`

	SMTP struct {
		Host               string `yaml:"host"`
		Port               int    `yaml:"port"`
		Username           string `yaml:"username"`
		Password           string `yaml:"password"`
		TLS                string `yaml:"tls"`                  // auto | starttls | ssl | none
		InsecureSkipVerify bool   `yaml:"insecure_skip_verify"` // sólo dev
	} `yaml:"smtp"`

	Email struct {
		FrontendURL string `yaml:"frontend_url"`
		FromName    string `yaml:"from_name"`
		FromAddress string `yaml:"from_address"`
	} `yaml:"email"`

	Bootstrap struct {
		Enabled       bool   `yaml:"enabled"`
		AdminEmail    string `yaml:"admin_email"`
		AdminUsername string `yaml:"admin_username"`
		AdminPassword string `yaml:"admin_password"`
	} `yaml:"bootstrap"`

	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
}

// SecretKeyEnv es la variable con la clave para los valores "enc:".
const SecretKeyEnv = "KBSAAS_SECRET_KEY"

// openSecrets descifra los campos sensibles que vienen con prefijo "enc:".
func (c *Config) openSecrets(key string) error {
	fields := map[string]*string{
		"storage.dsn":              &c.Storage.DSN,
		"cache.redis.password":     &c.Cache.Redis.Password,
		"jwt.secret":               &c.JWT.Secret,
		"smtp.password":            &c.SMTP.Password,
		"bootstrap.admin_password": &c.Bootstrap.AdminPassword,
	}
	var box *secretbox.Box
	for name, v := range fields {
		if !secretbox.IsSealed(*v) {
			continue
		}
		if box == nil {
			if strings.TrimSpace(key) == "" {
				return fmt.Errorf("config: %s está cifrado y falta %s", name, SecretKeyEnv)
			}
			var err error
			if box, err = secretbox.New(key); err != nil {
				return fmt.Errorf("config: %s: %w", SecretKeyEnv, err)
			}
		}
		plain, err := box.Open(*v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", name, err)
		}
		*v = plain
	}
	return nil
}

// Rule es un límite de ventana fija.
type Rule struct {
	Limit  int           `yaml:"limit"`
	Window time.Duration `yaml:"window"`
}

// DefaultExcludedPaths no pasan por la resolución de tenant.
var DefaultExcludedPaths = []string{
	"/actuator", "/health", "/healthz", "/readyz", "/metrics",
	"/api/platform", "/api/tenants/signup", "/api/tenants/check-slug",
}

// Default retorna la configuración con todos los valores por defecto.
func Default() *Config {
	var c Config
	c.applyDefaults()
	return &c
}

// Load lee el YAML (path vacío = solo defaults), aplica defaults, overrides de
// entorno y valida.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("config: %s: %w", path, err)
		}
	}
	c.applyDefaults()
	if err := c.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := c.openSecrets(os.Getenv(SecretKeyEnv)); err != nil {
		return nil, err
	}

	if p := strings.TrimSpace(c.Auth.PasswordBlacklistPath); p != "" && path != "" && !filepath.IsAbs(p) {
		c.Auth.PasswordBlacklistPath = filepath.Clean(filepath.Join(filepath.Dir(path), p))
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.App.Name == "" {
		c.App.Name = "kbsaas"
	}

	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}

	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Storage.Driver == "sqlite" && c.Storage.DSN == "" {
		c.Storage.DSN = "./data/kbsaas.db"
	}

	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Prefix == "" {
		c.Cache.Prefix = "kbsaas:"
	}
	if c.Cache.DefaultTTL == 0 {
		c.Cache.DefaultTTL = 2 * time.Minute
	}

	if c.JWT.Issuer == "" {
		c.JWT.Issuer = "kbsaas"
	}
	if c.JWT.AccessTTL == 0 {
		c.JWT.AccessTTL = time.Hour
	}
	if c.JWT.RefreshTTL == 0 {
		c.JWT.RefreshTTL = 7 * 24 * time.Hour
	}
	if c.JWT.RememberMeTTL == 0 {
		c.JWT.RememberMeTTL = 30 * 24 * time.Hour
	}
	if c.JWT.RefreshIdle == 0 {
		c.JWT.RefreshIdle = time.Hour
	}

	if c.Auth.CodeTTL == 0 {
		c.Auth.CodeTTL = 10 * time.Minute
	}
	if c.Auth.ResetTTL == 0 {
		c.Auth.ResetTTL = 30 * time.Minute
	}
	if c.Auth.MaxFailedAttempts == 0 {
		c.Auth.MaxFailedAttempts = 5
	}
	if c.Auth.LockDuration == 0 {
		c.Auth.LockDuration = 15 * time.Minute
	}
	if c.Auth.PasswordPolicy.MinLength == 0 {
		c.Auth.PasswordPolicy.MinLength = 8
	}
	if c.Auth.PasswordPolicy.MaxLength == 0 {
		c.Auth.PasswordPolicy.MaxLength = 100
	}

	if c.Tenant.PlatformDomain == "" {
		c.Tenant.PlatformDomain = "kobecorporation.com"
	}
	if c.Tenant.Prefix == "" {
		c.Tenant.Prefix = "kb-saas-"
	}
	if c.Tenant.Header == "" {
		c.Tenant.Header = "X-Tenant-ID"
	}
	if c.Tenant.TrialDays == 0 {
		c.Tenant.TrialDays = 14
	}
	if c.Tenant.ExcludedPaths == nil {
		c.Tenant.ExcludedPaths = append([]string(nil), DefaultExcludedPaths...)
	}
	if c.Tenant.CacheTTL == 0 {
		c.Tenant.CacheTTL = time.Minute
	}
	if c.Tenant.ActivityInterval == 0 {
		c.Tenant.ActivityInterval = time.Minute
	}

	c.Rate.Login.defaults(10, time.Minute)
	c.Rate.Forgot.defaults(5, 10*time.Minute)
	c.Rate.Resend.defaults(3, 10*time.Minute)
	c.Rate.Signup.defaults(5, time.Hour)

	if c.SMTP.Port == 0 {
		c.SMTP.Port = 587
	}
	if c.SMTP.TLS == "" {
		c.SMTP.TLS = "auto"
	}

	if c.Email.FrontendURL == "" {
		c.Email.FrontendURL = "http://localhost:3000"
	}
	if c.Email.FromName == "" {
		c.Email.FromName = "KOBE Corporation"
	}
	if c.Email.FromAddress == "" {
		c.Email.FromAddress = "noreply@example.com"
	}

	if c.Bootstrap.AdminEmail == "" {
		c.Bootstrap.AdminEmail = "admin@kobecorporation.com"
	}
	if c.Bootstrap.AdminUsername == "" {
		c.Bootstrap.AdminUsername = "platform-admin"
	}

	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

func (r *Rule) defaults(limit int, window time.Duration) {
	if r.Limit == 0 {
		r.Limit = limit
	}
	if r.Window == 0 {
		r.Window = window
	}
}

// IsProd reporta si el entorno es producción.
func (c *Config) IsProd() bool { return strings.EqualFold(c.App.Env, "prod") }

// Validate chequea los valores críticos. En prod exige secret JWT y SMTP.
func (c *Config) Validate() error {
	var errs []error
	switch c.Storage.Driver {
	case "memory":
	case "postgres", "sqlite":
		if strings.TrimSpace(c.Storage.DSN) == "" {
			errs = append(errs, fmt.Errorf("storage.dsn requerido para driver %q", c.Storage.Driver))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver inválido: %q", c.Storage.Driver))
	}
	switch c.Cache.Kind {
	case "memory":
	case "redis":
		if c.Cache.Redis.Addr == "" {
			errs = append(errs, errors.New("cache.redis.addr requerido para cache redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("cache.kind inválido: %q", c.Cache.Kind))
	}

	if n := len(c.JWT.Secret); n > 0 && n < MinJWTSecretLen {
		errs = append(errs, fmt.Errorf("jwt.secret demasiado corto: %d bytes (mínimo %d)", n, MinJWTSecretLen))
	}
	if c.IsProd() {
		if c.JWT.Secret == "" {
			errs = append(errs, errors.New("jwt.secret requerido en prod"))
		}
		if c.SMTP.Host == "" {
			errs = append(errs, errors.New("smtp.host requerido en prod"))
		}
		if c.Storage.Driver == "memory" {
			errs = append(errs, errors.New("storage.driver memory no permitido en prod"))
		}
	}

	switch c.SMTP.TLS {
	case "auto", "starttls", "ssl", "none":
	default:
		errs = append(errs, fmt.Errorf("smtp.tls inválido: %q", c.SMTP.TLS))
	}

	if c.Tenant.PlatformDomain == "" {
		errs = append(errs, errors.New("tenant.platform_domain requerido"))
	}
	if c.Tenant.TrialDays < 0 {
		errs = append(errs, errors.New("tenant.trial_days no puede ser negativo"))
	}
	if c.Auth.MaxFailedAttempts < 1 {
		errs = append(errs, errors.New("auth.max_failed_attempts debe ser >= 1"))
	}
	for name, r := range map[string]Rule{"login": c.Rate.Login, "forgot": c.Rate.Forgot, "resend": c.Rate.Resend, "signup": c.Rate.Signup} {
		if r.Limit < 1 || r.Window <= 0 {
			errs = append(errs, fmt.Errorf("rate.%s: limit y window deben ser positivos", name))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("config inválida: %w", errors.Join(errs...))
	}
	return nil
}

// ───────── env overrides ─────────

// getEnvStr retorna el primer valor no vacío entre las claves dadas.
func getEnvStr(keys ...string) (string, bool) {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v, true
		}
	}
	return "", false
}

func getEnvInt(keys ...string) (int, bool, error) {
	s, ok := getEnvStr(keys...)
	if !ok {
		return 0, false, nil
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, false, fmt.Errorf("config: %s: %w", keys[0], err)
	}
	return i, true, nil
}

func getEnvBool(keys ...string) (bool, bool, error) {
	s, ok := getEnvStr(keys...)
	if !ok {
		return false, false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, false, fmt.Errorf("config: %s: %w", keys[0], err)
	}
	return b, true, nil
}

func getEnvDur(keys ...string) (time.Duration, bool, error) {
	s, ok := getEnvStr(keys...)
	if !ok {
		return 0, false, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, false, fmt.Errorf("config: %s: %w", keys[0], err)
	}
	return d, true, nil
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// applyEnvOverrides aplica KBSAAS_* y los nombres convencionales (DATABASE_URL, JWT_SECRET, SMTP_*).
func (c *Config) applyEnvOverrides() error {
	str := func(dst *string, keys ...string) {
		if v, ok := getEnvStr(keys...); ok {
			*dst = v
		}
	}
	var errs []error
	num := func(dst *int, keys ...string) {
		v, ok, err := getEnvInt(keys...)
		if err != nil {
			errs = append(errs, err)
		} else if ok {
			*dst = v
		}
	}
	flag := func(dst *bool, keys ...string) {
		v, ok, err := getEnvBool(keys...)
		if err != nil {
			errs = append(errs, err)
		} else if ok {
			*dst = v
		}
	}
	dur := func(dst *time.Duration, keys ...string) {
		v, ok, err := getEnvDur(keys...)
		if err != nil {
			errs = append(errs, err)
		} else if ok {
			*dst = v
		}
	}

	if v, ok := getEnvStr("KBSAAS_APP_ENV", "APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	str(&c.App.LogLevel, "KBSAAS_LOG_LEVEL", "LOG_LEVEL")

	str(&c.Server.Addr, "KBSAAS_SERVER_ADDR", "SERVER_ADDR")
	if v, ok := getEnvStr("KBSAAS_CORS_ALLOWED_ORIGINS", "SERVER_CORS_ALLOWED_ORIGINS"); ok {
		c.Server.CORSAllowedOrigins = splitCSV(v)
	}
	flag(&c.Server.TrustProxyHeaders, "KBSAAS_TRUST_PROXY_HEADERS")

	str(&c.Storage.Driver, "KBSAAS_STORAGE_DRIVER", "STORAGE_DRIVER")
	str(&c.Storage.DSN, "KBSAAS_STORAGE_DSN", "DATABASE_URL", "STORAGE_DSN")
	flag(&c.Storage.AutoMigrate, "KBSAAS_AUTO_MIGRATE")

	str(&c.Cache.Kind, "KBSAAS_CACHE_KIND", "CACHE_KIND")
	str(&c.Cache.Redis.Addr, "KBSAAS_REDIS_ADDR", "REDIS_ADDR")
	str(&c.Cache.Redis.Password, "KBSAAS_REDIS_PASSWORD", "REDIS_PASSWORD")
	num(&c.Cache.Redis.DB, "KBSAAS_REDIS_DB", "REDIS_DB")

	str(&c.JWT.Secret, "KBSAAS_JWT_SECRET", "JWT_SECRET")
	str(&c.JWT.Issuer, "KBSAAS_JWT_ISSUER", "JWT_ISSUER")
	dur(&c.JWT.AccessTTL, "KBSAAS_JWT_ACCESS_TTL", "JWT_ACCESS_TTL")
	dur(&c.JWT.RefreshTTL, "KBSAAS_JWT_REFRESH_TTL", "JWT_REFRESH_TTL")
	dur(&c.JWT.RememberMeTTL, "KBSAAS_JWT_REMEMBER_ME_TTL")

	dur(&c.Auth.ResetTTL, "KBSAAS_AUTH_RESET_TTL", "AUTH_RESET_TTL")
	num(&c.Auth.MaxFailedAttempts, "KBSAAS_AUTH_MAX_FAILED_ATTEMPTS")
	dur(&c.Auth.LockDuration, "KBSAAS_AUTH_LOCK_DURATION")
	str(&c.Auth.PasswordBlacklistPath, "KBSAAS_PASSWORD_BLACKLIST_PATH")

	str(&c.Tenant.PlatformDomain, "KBSAAS_PLATFORM_DOMAIN", "PLATFORM_DOMAIN")
	str(&c.Tenant.Prefix, "KBSAAS_TENANT_PREFIX", "TENANT_PREFIX")
	str(&c.Tenant.Header, "KBSAAS_TENANT_HEADER")
	num(&c.Tenant.TrialDays, "KBSAAS_TRIAL_DAYS")

	flag(&c.Rate.Enabled, "KBSAAS_RATE_ENABLED", "RATE_ENABLED")

	str(&c.SMTP.Host, "KBSAAS_SMTP_HOST", "SMTP_HOST")
	num(&c.SMTP.Port, "KBSAAS_SMTP_PORT", "SMTP_PORT")
	str(&c.SMTP.Username, "KBSAAS_SMTP_USERNAME", "SMTP_USERNAME", "SMTP_USER")
	str(&c.SMTP.Password, "KBSAAS_SMTP_PASSWORD", "SMTP_PASSWORD", "SMTP_PASS")
	str(&c.SMTP.TLS, "KBSAAS_SMTP_TLS", "SMTP_TLS")
	flag(&c.SMTP.InsecureSkipVerify, "KBSAAS_SMTP_INSECURE_SKIP_VERIFY")

	str(&c.Email.FrontendURL, "KBSAAS_FRONTEND_URL", "FRONTEND_URL")
	str(&c.Email.FromName, "KBSAAS_EMAIL_FROM_NAME", "EMAIL_FROM_NAME")
	str(&c.Email.FromAddress, "KBSAAS_EMAIL_FROM_ADDRESS", "EMAIL_FROM_ADDRESS")

	flag(&c.Bootstrap.Enabled, "KBSAAS_BOOTSTRAP_ENABLED")
	str(&c.Bootstrap.AdminEmail, "KBSAAS_ADMIN_EMAIL", "PLATFORM_ADMIN_EMAIL")
	str(&c.Bootstrap.AdminUsername, "KBSAAS_ADMIN_USERNAME", "PLATFORM_ADMIN_USERNAME")
	str(&c.Bootstrap.AdminPassword, "KBSAAS_ADMIN_PASSWORD", "PLATFORM_ADMIN_PASSWORD")

	flag(&c.Metrics.Enabled, "KBSAAS_METRICS_ENABLED")

	// el driver pudo cambiar por env
	if c.Storage.Driver == "sqlite" && c.Storage.DSN == "" {
		c.Storage.DSN = "./data/kbsaas.db"
	}
	return errors.Join(errs...)
}
