package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreSaveAndLoad(t *testing.T) {
	store, err := NewStoreAt(filepath.Join(t.TempDir(), ".mcp-profiler"))
	require.NoError(t, err)

	assert.False(t, store.IsConfigured())
	assert.Empty(t, store.Token())

	require.NoError(t, store.SaveToken("ghp_example123"))
	assert.True(t, store.IsConfigured())
	assert.Equal(t, "ghp_example123", store.Token())

	// Overwrite keeps the store consistent.
	require.NoError(t, store.SaveToken("ghp_rotated456"))
	assert.Equal(t, "ghp_rotated456", store.Token())
}

func TestStoreFilePermissions(t *testing.T) {
	store, err := NewStoreAt(filepath.Join(t.TempDir(), ".mcp-profiler"))
	require.NoError(t, err)
	require.NoError(t, store.SaveToken("ghp_example123"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestStoreCorruptFileTreatedAsEmpty(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".mcp-profiler")
	store, err := NewStoreAt(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(store.Path(), []byte("{not json"), 0o600))
	assert.False(t, store.IsConfigured())

	// Saving over a corrupt file recovers it.
	require.NoError(t, store.SaveToken("ghp_fresh"))
	assert.Equal(t, "ghp_fresh", store.Token())
}
