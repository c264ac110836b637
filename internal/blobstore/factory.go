package blobstore

import (
	"context"
	"fmt"

	"feedgrid/internal/config"
	"feedgrid/internal/gallery"
)

// NewBlobStoreFromConfig creates a BlobStore based on the blob store config type.
func NewBlobStoreFromConfig(ctx context.Context, cfg config.BlobStoreConfig) (gallery.BlobStore, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryStore(), nil
	case "filesystem":
		if cfg.Root == "" {
			return nil, fmt.Errorf("filesystem blob store requires root to be set")
		}
		return NewFileSystemStore(cfg.Root)
	case "s3":
		return NewS3Store(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown blob store type: %s", cfg.Type)
	}
}
