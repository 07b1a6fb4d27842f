package bootstrap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kobecorporation/kbsaas/internal/domain/repository"
	"github.com/kobecorporation/kbsaas/internal/domain/types"
	"github.com/kobecorporation/kbsaas/internal/security/password"
	"github.com/kobecorporation/kbsaas/internal/store/memory"
	"github.com/kobecorporation/kbsaas/internal/validation"
)

func adminConfig(st repository.Store) AdminConfig {
	return AdminConfig{
		Store:    st,
		Hasher:   password.NewHasher(password.Fast),
		Policy:   password.DefaultPolicy,
		Email:    "Admin@KobeCorporation.com",
		Username: "platform-admin",
	}
}

func TestEnsurePlatformAdminCreatesOnce(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	cfg := adminConfig(st)
	cfg.Password = "Sup3rSecret!"

	res, err := EnsurePlatformAdmin(ctx, cfg)
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Empty(t, res.GeneratedPassword)

	u := res.User
	assert.Nil(t, u.TenantID)
	assert.Equal(t, types.RolePlatformAdmin, u.Role)
	assert.Equal(t, types.TenantRoleOwner, u.TenantRole)
	assert.Equal(t, "admin@kobecorporation.com", u.Email)
	assert.True(t, u.IsActive)
	assert.True(t, u.IsEmailVerified)
	require.NotNil(t, u.PasswordHash)
	assert.True(t, cfg.Hasher.Verify("Sup3rSecret!", *u.PasswordHash))

	again, err := EnsurePlatformAdmin(ctx, cfg)
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.Equal(t, u.ID, again.User.ID)
}

func TestEnsurePlatformAdminExistingUsername(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	cfg := adminConfig(st)
	first, err := EnsurePlatformAdmin(ctx, cfg)
	require.NoError(t, err)

	cfg.Email = "other@kobecorporation.com"
	res, err := EnsurePlatformAdmin(ctx, cfg)
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Equal(t, first.User.ID, res.User.ID)
}

func TestEnsurePlatformAdminPassword(t *testing.T) {
	ctx := context.Background()

	t.Run("dev genera", func(t *testing.T) {
		res, err := EnsurePlatformAdmin(ctx, adminConfig(memory.New()))
		require.NoError(t, err)
		assert.Len(t, res.GeneratedPassword, generatedPasswordLen)
		assert.True(t, password.NewHasher(password.Fast).Verify(res.GeneratedPassword, *res.User.PasswordHash))
	})

	t.Run("prod exige", func(t *testing.T) {
		cfg := adminConfig(memory.New())
		cfg.Prod = true
		_, err := EnsurePlatformAdmin(ctx, cfg)
		assert.ErrorIs(t, err, ErrPasswordRequired)
	})

	t.Run("policy", func(t *testing.T) {
		cfg := adminConfig(memory.New())
		cfg.Password = "short"
		_, err := EnsurePlatformAdmin(ctx, cfg)
		assert.ErrorIs(t, err, password.ErrPolicy)
	})

	t.Run("email inválido", func(t *testing.T) {
		cfg := adminConfig(memory.New())
		cfg.Email = "nope"
		_, err := EnsurePlatformAdmin(ctx, cfg)
		assert.ErrorIs(t, err, validation.ErrInvalid)
	})
}
