package deploy_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redlinehq/paddock/pkg/deploy"
	"github.com/redlinehq/paddock/pkg/storage"
)

func TestUploadPackDefaultKey(t *testing.T) {
	d, store, _ := testDeployer(t)
	ctx := context.Background()

	local := filepath.Join(t.TempDir(), "trackday.tar.gz")
	require.NoError(t, os.WriteFile(local, []byte("pack contents"), 0o644))

	key, err := d.UploadPack(ctx, local, "")
	require.NoError(t, err)
	assert.Equal(t, "packs/trackday.tar.gz", key)

	meta, err := store.Head(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(13), meta.Size)
}

func TestUploadPackExplicitKey(t *testing.T) {
	d, _, _ := testDeployer(t)

	local := filepath.Join(t.TempDir(), "trackday.tar.gz")
	require.NoError(t, os.WriteFile(local, []byte("pack"), 0o644))

	key, err := d.UploadPack(context.Background(), local, "packs/custom.tar.gz")
	require.NoError(t, err)
	assert.Equal(t, "packs/custom.tar.gz", key)
}

func TestUploadPackMissingFile(t *testing.T) {
	d, _, _ := testDeployer(t)

	_, err := d.UploadPack(context.Background(), "/nonexistent/pack.tar.gz", "")
	assert.Error(t, err)
}

func TestDownloadPack(t *testing.T) {
	d, _, _ := testDeployer(t)
	ctx := context.Background()

	local := filepath.Join(t.TempDir(), "up.tar.gz")
	require.NoError(t, os.WriteFile(local, []byte("round trip"), 0o644))
	key, err := d.UploadPack(ctx, local, "")
	require.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "nested", "dir", "down.tar.gz")
	require.NoError(t, d.DownloadPack(ctx, key, dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "round trip", string(data))
}

func TestDownloadPackMissing(t *testing.T) {
	d, _, _ := testDeployer(t)

	dest := filepath.Join(t.TempDir(), "down.tar.gz")
	err := d.DownloadPack(context.Background(), "packs/ghost.tar.gz", dest)
	require.Error(t, err)
	assert.True(t, storage.IsNotFound(err))

	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr))
}

func TestListPacks(t *testing.T) {
	d, store, _ := testDeployer(t)
	ctx := context.Background()
	uploadPack(t, store, "packs/a.tar.gz")
	uploadPack(t, store, "packs/b.tar.gz")
	uploadPack(t, store, "bootstrap/not-a-pack.sh")

	packs, err := d.ListPacks(ctx)
	require.NoError(t, err)
	require.Len(t, packs, 2)
	assert.Equal(t, deploy.PackKeyPrefix+"a.tar.gz", packs[0].Key)
	assert.Equal(t, deploy.PackKeyPrefix+"b.tar.gz", packs[1].Key)
}

func TestDeletePack(t *testing.T) {
	d, store, _ := testDeployer(t)
	ctx := context.Background()
	uploadPack(t, store, "packs/a.tar.gz")

	require.NoError(t, d.DeletePack(ctx, "packs/a.tar.gz"))
	assert.Equal(t, 0, store.Len())

	// Deleting a missing pack is success.
	assert.NoError(t, d.DeletePack(ctx, "packs/a.tar.gz"))
}
