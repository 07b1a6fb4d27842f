package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kobecorporation/kbsaas/internal/domain/repository"
	"github.com/kobecorporation/kbsaas/internal/store"
	"github.com/kobecorporation/kbsaas/internal/store/storetest"
)

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) repository.Store { return New() })
}

func TestRegisteredAndNotMigratable(t *testing.T) {
	st, err := store.Open(context.Background(), store.Config{Driver: "memory", AutoMigrate: true})
	require.NoError(t, err)
	assert.Equal(t, "memory", st.Driver())

	res, err := store.Migrate(context.Background(), st)
	require.NoError(t, err)
	assert.Empty(t, res.Applied)
}

func TestReturnedEntitiesAreCopies(t *testing.T) {
	ctx := context.Background()
	st := New()
	tn := storetest.NewTenant("acme")
	require.NoError(t, st.Tenants().Create(ctx, tn))
	u := storetest.NewUser(&tn.ID, "alice", "alice@x.com")
	require.NoError(t, st.Users().Create(ctx, u))

	got, err := st.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	*got.PasswordHash = "mutated"
	*got.TenantID = "other"

	again, err := st.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "hash", *again.PasswordHash)
	assert.Equal(t, tn.ID, *again.TenantID)
}

func TestUserRequiresExistingTenant(t *testing.T) {
	missing := "missing"
	err := New().Users().Create(context.Background(), storetest.NewUser(&missing, "a", "a@x.com"))
	require.ErrorIs(t, err, repository.ErrInvalidInput)
}
