package deploy

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/redlinehq/paddock/pkg/storage"
)

// PackKeyPrefix namespaces server pack archives in the bucket.
const PackKeyPrefix = "packs/"

// UploadPack uploads a local pack archive. An empty key defaults to
// packs/<basename>.
func (d *Deployer) UploadPack(ctx context.Context, localPath, key string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("upload pack: %w", err)
	}
	defer func() { _ = f.Close() }()

	st, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("upload pack: %w", err)
	}

	if key == "" {
		key = PackKeyPrefix + filepath.Base(localPath)
	}

	if err := d.Store.PutObject(ctx, key, f, st.Size()); err != nil {
		return "", err
	}
	return key, nil
}

// DownloadPack downloads a pack object to a local path, creating parent
// directories as needed.
func (d *Deployer) DownloadPack(ctx context.Context, key, localPath string) error {
	body, _, err := d.Store.GetObject(ctx, key)
	if err != nil {
		return err
	}
	defer func() { _ = body.Close() }()

	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return fmt.Errorf("download pack: %w", err)
	}

	f, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("download pack: %w", err)
	}
	if _, err := io.Copy(f, body); err != nil {
		_ = f.Close()
		_ = os.Remove(localPath)
		return fmt.Errorf("download pack: %w", err)
	}
	return f.Close()
}

// ListPacks returns metadata for all uploaded packs.
func (d *Deployer) ListPacks(ctx context.Context) ([]storage.ObjectMeta, error) {
	return d.Store.List(ctx, PackKeyPrefix)
}

// DeletePack removes a pack object. Missing packs are success.
func (d *Deployer) DeletePack(ctx context.Context, key string) error {
	return d.Store.DeleteObject(ctx, key)
}
