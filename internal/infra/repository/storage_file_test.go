package repository_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	infraRepo "bookstore/internal/infra/repository"

	"github.com/stretchr/testify/assert"
)

func TestFileStorageRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	storage, err := infraRepo.NewFileStorageRepository(t.TempDir())
	assert.NoError(t, err)

	_, ok, err := storage.GetItem(ctx, "cart")
	assert.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, storage.SetItem(ctx, "cart", `{"7":{}}`))

	v, ok, err := storage.GetItem(ctx, "cart")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"7":{}}`, v)

	// 上書き
	assert.NoError(t, storage.SetItem(ctx, "cart", `{}`))
	v, _, _ = storage.GetItem(ctx, "cart")
	assert.Equal(t, `{}`, v)

	assert.NoError(t, storage.RemoveItem(ctx, "cart"))
	_, ok, err = storage.GetItem(ctx, "cart")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestFileStorageRepository_RemoveMissingKeyIsNoop(t *testing.T) {
	storage, err := infraRepo.NewFileStorageRepository(t.TempDir())
	assert.NoError(t, err)

	assert.NoError(t, storage.RemoveItem(context.Background(), "guestCart"))
}

func TestFileStorageRepository_KeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	storage, err := infraRepo.NewFileStorageRepository(t.TempDir())
	assert.NoError(t, err)

	assert.NoError(t, storage.SetItem(ctx, "cart", "a"))
	assert.NoError(t, storage.SetItem(ctx, "guestCart", "b"))
	assert.NoError(t, storage.RemoveItem(ctx, "guestCart"))

	v, ok, err := storage.GetItem(ctx, "cart")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "a", v)
}

func TestFileStorageRepository_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "storage")

	storage, err := infraRepo.NewFileStorageRepository(dir)
	assert.NoError(t, err)
	assert.NoError(t, storage.SetItem(context.Background(), "cart", "{}"))

	info, err := os.Stat(dir)
	assert.NoError(t, err)
	assert.True(t, info.IsDir())
}
