package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kobecorporation/kbsaas/internal/domain/repository"
	"github.com/kobecorporation/kbsaas/internal/store"
	"github.com/kobecorporation/kbsaas/internal/store/storetest"
)

func openTemp(t *testing.T) repository.Store {
	t.Helper()
	st, err := store.Open(context.Background(), store.Config{
		Driver:      "sqlite",
		DSN:         filepath.Join(t.TempDir(), "kbsaas.db"),
		AutoMigrate: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestConformance(t *testing.T) {
	storetest.Run(t, openTemp)
}

func TestMigrateIsIdempotent(t *testing.T) {
	st := openTemp(t)
	res, err := store.Migrate(context.Background(), st)
	require.NoError(t, err)
	assert.Empty(t, res.Applied)
	assert.Equal(t, []int{1}, res.Skipped)
}

func TestForeignKeyViolationMapsToInvalidInput(t *testing.T) {
	st := openTemp(t)
	missing := "00000000-0000-0000-0000-000000000000"
	err := st.Users().Create(context.Background(), storetest.NewUser(&missing, "a", "a@x.com"))
	require.ErrorIs(t, err, repository.ErrInvalidInput)
}

func TestSplitStatements(t *testing.T) {
	got := splitStatements("CREATE TABLE a(x);\n\n CREATE INDEX i ON a(x);  ;")
	assert.Equal(t, []string{"CREATE TABLE a(x)", "CREATE INDEX i ON a(x)"}, got)
}
