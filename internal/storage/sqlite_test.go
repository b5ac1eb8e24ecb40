package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestSQLite(t *testing.T, path string) *SQLiteMedium {
	t.Helper()
	m, err := OpenSQLiteMedium(path)
	require.NoError(t, err)
	return m
}

func TestSQLiteMedium_Behaves(t *testing.T) {
	m := openTestSQLite(t, filepath.Join(t.TempDir(), "petcache.db"))
	defer m.Close()
	exerciseMedium(t, m)
}

func TestSQLiteMedium_PersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "petcache.db")

	m := openTestSQLite(t, path)
	require.NoError(t, m.SetItem("petdata_1_abc", `{"name":"Rex"}`))
	require.NoError(t, m.Close())

	reopened := openTestSQLite(t, path)
	defer reopened.Close()
	v, ok, err := reopened.GetItem("petdata_1_abc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"name":"Rex"}`, v)
}

func TestSQLiteMedium_RequiresPath(t *testing.T) {
	_, err := OpenSQLiteMedium("  ")
	assert.Error(t, err)
}

func TestSQLiteMedium_Closed(t *testing.T) {
	m := openTestSQLite(t, filepath.Join(t.TempDir(), "petcache.db"))
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	assert.ErrorIs(t, m.SetItem("a", "1"), ErrClosed)
	_, err := m.Keys()
	assert.ErrorIs(t, err, ErrClosed)
}
