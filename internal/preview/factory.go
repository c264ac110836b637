package preview

import (
	"fmt"

	"feedgrid/internal/config"
	"feedgrid/internal/gallery"
)

// NewHandleFactoryFromConfig creates a HandleFactory based on the preview config type.
func NewHandleFactoryFromConfig(cfg config.PreviewConfig) (gallery.HandleFactory, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryFactory(), nil
	case "filesystem":
		if cfg.CacheDir == "" {
			return nil, fmt.Errorf("filesystem preview requires cache_dir to be set")
		}
		return NewFileSystemFactory(cfg.CacheDir)
	default:
		return nil, fmt.Errorf("unknown preview type: %s", cfg.Type)
	}
}
