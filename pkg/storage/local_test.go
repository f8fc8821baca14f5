package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveAndDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir, "/uploads")
	require.NoError(t, err)

	ref, err := store.Save(context.Background(), "posts/a.png", strings.NewReader("data"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/posts/a.png", ref)

	data, err := os.ReadFile(filepath.Join(dir, "posts", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, "data", string(data))

	// Delete accepts the public reference, not just the raw path.
	require.NoError(t, store.Delete(context.Background(), ref))
	_, err = os.Stat(filepath.Join(dir, "posts", "a.png"))
	assert.True(t, os.IsNotExist(err))

	// Deleting a missing file is not an error.
	require.NoError(t, store.Delete(context.Background(), "posts/missing.png"))
}

func TestNewStorageUnknownType(t *testing.T) {
	_, err := NewStorage(Config{Type: "ftp"})
	assert.Error(t, err)
}
