package store

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExecutor struct {
	applied map[int]bool
	ran     []string
	failOn  int
}

func (f *fakeExecutor) EnsureMigrationsTable(context.Context) error { return nil }

func (f *fakeExecutor) AppliedVersions(context.Context) (map[int]bool, error) {
	out := map[int]bool{}
	for k, v := range f.applied {
		out[k] = v
	}
	return out, nil
}

func (f *fakeExecutor) ApplyMigration(_ context.Context, m Migration) error {
	if m.Version == f.failOn {
		return errors.New("boom")
	}
	f.ran = append(f.ran, m.Name)
	f.applied[m.Version] = true
	return nil
}

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"sql/0002_invites.sql": {Data: []byte("CREATE TABLE b();")},
		"sql/0001_init.sql":    {Data: []byte("CREATE TABLE a();")},
		"sql/README.md":        {Data: []byte("ignored")},
	}
}

func TestParseMigrationsSortsAndFilters(t *testing.T) {
	migs, err := NewMigrator(testFS(), "sql").ParseMigrations()
	require.NoError(t, err)
	require.Len(t, migs, 2)
	assert.Equal(t, 1, migs[0].Version)
	assert.Equal(t, "init", migs[0].Name)
	assert.Equal(t, "invites", migs[1].Name)
}

func TestParseMigrationsRejectsDuplicates(t *testing.T) {
	fsys := testFS()
	fsys["sql/002_other.sql"] = &fstest.MapFile{Data: []byte("--")}
	_, err := NewMigrator(fsys, "sql").ParseMigrations()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate migration version 2")
}

func TestRunSkipsApplied(t *testing.T) {
	exec := &fakeExecutor{applied: map[int]bool{1: true}}
	res, err := NewMigrator(testFS(), "sql").Run(context.Background(), exec)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, res.Applied)
	assert.Equal(t, []int{1}, res.Skipped)
	assert.Equal(t, []string{"invites"}, exec.ran)

	res, err = NewMigrator(testFS(), "sql").Run(context.Background(), exec)
	require.NoError(t, err)
	assert.Empty(t, res.Applied)
}

func TestRunStopsOnFailure(t *testing.T) {
	exec := &fakeExecutor{applied: map[int]bool{}, failOn: 1}
	res, err := NewMigrator(testFS(), "sql").Run(context.Background(), exec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "0001_init")
	assert.Empty(t, res.Applied)
	assert.Empty(t, exec.ran)
}
