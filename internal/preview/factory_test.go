package preview

import (
	"testing"

	"feedgrid/internal/config"
)

func TestNewHandleFactoryFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.PreviewConfig
		wantErr bool
	}{
		{name: "memory", cfg: config.PreviewConfig{Type: "memory"}},
		{name: "filesystem", cfg: config.PreviewConfig{Type: "filesystem", CacheDir: t.TempDir()}},
		{name: "filesystem without cache_dir", cfg: config.PreviewConfig{Type: "filesystem"}, wantErr: true},
		{name: "unknown type", cfg: config.PreviewConfig{Type: "gpu"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewHandleFactoryFromConfig(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewHandleFactoryFromConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if (got == nil) != tt.wantErr {
				t.Errorf("NewHandleFactoryFromConfig() returned nil = %v, wantErr %v", got == nil, tt.wantErr)
			}
		})
	}
}
