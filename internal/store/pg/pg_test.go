package pg

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kobecorporation/kbsaas/internal/domain/repository"
	"github.com/kobecorporation/kbsaas/internal/store"
	"github.com/kobecorporation/kbsaas/internal/store/storetest"
)

func TestMapErr(t *testing.T) {
	assert.NoError(t, mapErr(nil))
	assert.ErrorIs(t, mapErr(&pgconn.PgError{Code: "23505", ConstraintName: "ux_tenants_slug"}), repository.ErrConflict)
	assert.ErrorIs(t, mapErr(&pgconn.PgError{Code: "23503"}), repository.ErrInvalidInput)

	other := errors.New("connection reset")
	assert.Equal(t, other, mapErr(other))
}

// Requiere KBSAAS_TEST_PG_DSN apuntando a una base descartable.
func TestConformance(t *testing.T) {
	dsn := os.Getenv("KBSAAS_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("KBSAAS_TEST_PG_DSN no definido")
	}

	storetest.Run(t, func(t *testing.T) repository.Store {
		ctx := context.Background()
		st, err := store.Open(ctx, store.Config{Driver: "postgres", DSN: dsn, AutoMigrate: true})
		require.NoError(t, err)
		pgs := st.(*Store)
		_, err = pgs.pool.Exec(ctx, `TRUNCATE tenant_invitations, users, tenants`)
		require.NoError(t, err)
		t.Cleanup(func() { _ = st.Close() })
		return st
	})
}
