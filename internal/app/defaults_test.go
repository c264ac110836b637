package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetDefaults(t *testing.T) {
	t.Run("uses env vars when set", func(t *testing.T) {
		t.Setenv(ConfigPathEnv, "/custom/feedgrid.toml")
		t.Setenv(HomeEnv, "/custom/feedgrid")

		d, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}

		if d.ConfigPath != "/custom/feedgrid.toml" {
			t.Errorf("ConfigPath = %q, want %q", d.ConfigPath, "/custom/feedgrid.toml")
		}
		if d.BaseDir != "/custom/feedgrid" {
			t.Errorf("BaseDir = %q, want %q", d.BaseDir, "/custom/feedgrid")
		}
		if d.LogDir != "/custom/feedgrid/log" {
			t.Errorf("LogDir = %q, want %q", d.LogDir, "/custom/feedgrid/log")
		}
	})

	t.Run("falls back to home dir defaults", func(t *testing.T) {
		t.Setenv(ConfigPathEnv, "")
		t.Setenv(HomeEnv, "")

		d, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}

		homeDir, _ := os.UserHomeDir()
		if want := filepath.Join(homeDir, ".config", "feedgrid.toml"); d.ConfigPath != want {
			t.Errorf("ConfigPath = %q, want %q", d.ConfigPath, want)
		}
		wantBase := filepath.Join(homeDir, ".local", "share", "feedgrid")
		if d.BaseDir != wantBase {
			t.Errorf("BaseDir = %q, want %q", d.BaseDir, wantBase)
		}
		if want := filepath.Join(wantBase, "log"); d.LogDir != want {
			t.Errorf("LogDir = %q, want %q", d.LogDir, want)
		}
	})
}
