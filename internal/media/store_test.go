package media

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDiskStoreSave(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDiskStore(dir, "/uploads/")
	require.NoError(t, err)

	url, err := store.Save(context.Background(), []byte("fake-png-bytes"), "image/png")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "/uploads/"))
	require.True(t, strings.HasSuffix(url, ".png"))

	name := strings.TrimPrefix(url, "/uploads/")
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	require.Equal(t, []byte("fake-png-bytes"), data)
}

func TestDiskStoreRejectsNonImage(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), "/uploads")
	require.NoError(t, err)

	_, err = store.Save(context.Background(), []byte("%PDF-1.4"), "application/pdf")
	require.ErrorIs(t, err, ErrNotImage)
}

func TestDiskStoreRejectsEmptyUpload(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), "/uploads")
	require.NoError(t, err)

	_, err = store.Save(context.Background(), nil, "image/png")
	require.ErrorIs(t, err, ErrEmptyUpload)
}

func TestNewDiskStoreCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "uploads")

	_, err := NewDiskStore(dir, "/uploads")
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestDiskStoreUniqueNames(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), "/uploads")
	require.NoError(t, err)

	first, err := store.Save(context.Background(), []byte("a"), "image/jpeg")
	require.NoError(t, err)
	second, err := store.Save(context.Background(), []byte("b"), "image/jpeg")
	require.NoError(t, err)

	require.NotEqual(t, first, second)
}
