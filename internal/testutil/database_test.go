package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindMigrationsRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "migrations", "postgresql"), 0o755))
	nested := filepath.Join(root, "internal", "preferences", "repository")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	t.Chdir(nested)

	got, err := findMigrationsRoot()
	require.NoError(t, err)

	want, err := filepath.EvalSymlinks(filepath.Join(root, "migrations"))
	require.NoError(t, err)
	gotResolved, err := filepath.EvalSymlinks(got)
	require.NoError(t, err)
	assert.Equal(t, want, gotResolved)
}

func TestFindMigrationsRoot_NotFound(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := findMigrationsRoot()
	assert.ErrorContains(t, err, "migrations directory not found")
}

func TestSetupSkipsWithoutDSN(t *testing.T) {
	t.Setenv(postgresDSNEnv, "")

	skipped := true
	t.Run("postgres", func(t *testing.T) {
		SetupPostgresDB(t)
		skipped = false
	})
	assert.True(t, skipped)
}
