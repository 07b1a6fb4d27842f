package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kobecorporation/kbsaas/internal/security/secretbox"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestDefaults(t *testing.T) {
	c := Default()
	assert.Equal(t, "memory", c.Storage.Driver)
	assert.Equal(t, "kobecorporation.com", c.Tenant.PlatformDomain)
	assert.Equal(t, "kb-saas-", c.Tenant.Prefix)
	assert.Equal(t, "X-Tenant-ID", c.Tenant.Header)
	assert.Equal(t, 14, c.Tenant.TrialDays)
	assert.Equal(t, 5, c.Auth.MaxFailedAttempts)
	assert.Equal(t, 15*time.Minute, c.Auth.LockDuration)
	assert.Equal(t, 30*time.Minute, c.Auth.ResetTTL)
	assert.Equal(t, Rule{Limit: 3, Window: 10 * time.Minute}, c.Rate.Resend)
	assert.Contains(t, c.Tenant.ExcludedPaths, "/api/tenants/signup")
	require.NoError(t, c.Validate())
}

func TestLoadYAMLAndEnvOverrides(t *testing.T) {
	p := writeYAML(t, `
app:
  env: dev
storage:
  driver: sqlite
jwt:
  access_ttl: 30m
auth:
  password_blacklist_path: blacklist.txt
tenant:
  trial_days: 30
`)
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("KBSAAS_PLATFORM_DOMAIN", "saas.test")

	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, c.JWT.AccessTTL)
	assert.Equal(t, "./data/kbsaas.db", c.Storage.DSN)
	assert.Equal(t, 30, c.Tenant.TrialDays)
	assert.Equal(t, "saas.test", c.Tenant.PlatformDomain)
	assert.Equal(t, "0123456789abcdef0123456789abcdef", c.JWT.Secret)
	assert.Equal(t, filepath.Join(filepath.Dir(p), "blacklist.txt"), c.Auth.PasswordBlacklistPath)
}

func TestKBSAASPrefixWins(t *testing.T) {
	t.Setenv("KBSAAS_STORAGE_DSN", "postgres://a")
	t.Setenv("DATABASE_URL", "postgres://b")
	t.Setenv("KBSAAS_STORAGE_DRIVER", "postgres")
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "postgres://a", c.Storage.DSN)
}

func TestSealedSecrets(t *testing.T) {
	key := "abcdefghijklmnopqrstuvwxyz012345"
	box, err := secretbox.New(key)
	require.NoError(t, err)
	sealed, err := box.Seal("postgres://kb:s3cret@db/kbsaas")
	require.NoError(t, err)

	t.Setenv("KBSAAS_STORAGE_DRIVER", "postgres")
	t.Setenv("KBSAAS_STORAGE_DSN", secretbox.Prefix+sealed)

	_, err = Load("")
	assert.ErrorContains(t, err, SecretKeyEnv)

	t.Setenv(SecretKeyEnv, key)
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "postgres://kb:s3cret@db/kbsaas", c.Storage.DSN)

	t.Setenv(SecretKeyEnv, "zyxwvutsrqponmlkjihgfedcba543210")
	_, err = Load("")
	assert.ErrorContains(t, err, "storage.dsn")
}

func TestInvalidEnvDuration(t *testing.T) {
	t.Setenv("JWT_ACCESS_TTL", "una hora")
	_, err := Load("")
	require.Error(t, err)
}

func TestInvalidYAMLDuration(t *testing.T) {
	p := writeYAML(t, "jwt:\n  access_ttl: nope\n")
	_, err := Load(p)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(c *Config)
		ok     bool
	}{
		{"defaults", func(c *Config) {}, true},
		{"short secret", func(c *Config) { c.JWT.Secret = "short" }, false},
		{"unknown driver", func(c *Config) { c.Storage.Driver = "mongo" }, false},
		{"postgres without dsn", func(c *Config) { c.Storage.Driver = "postgres" }, false},
		{"redis without addr", func(c *Config) { c.Cache.Kind = "redis" }, false},
		{"bad tls", func(c *Config) { c.SMTP.TLS = "maybe" }, false},
		{"prod without secret", func(c *Config) {
			c.App.Env = "prod"
			c.Storage.Driver = "postgres"
			c.Storage.DSN = "postgres://x"
			c.SMTP.Host = "smtp.x"
		}, false},
		{"prod complete", func(c *Config) {
			c.App.Env = "prod"
			c.Storage.Driver = "postgres"
			c.Storage.DSN = "postgres://x"
			c.SMTP.Host = "smtp.x"
			c.JWT.Secret = "0123456789abcdef0123456789abcdef"
		}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := Default()
			tc.mutate(c)
			err := c.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
