package app

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// ConfigPathEnv overrides the config file location.
	ConfigPathEnv = "FEEDGRID_CONFIG_PATH"

	// HomeEnv overrides the base directory for feedgrid data.
	HomeEnv = "FEEDGRID_HOME"
)

// Defaults holds application default paths.
type Defaults struct {
	ConfigPath string
	BaseDir    string
	LogDir     string
}

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - FEEDGRID_CONFIG_PATH: config file location (default: ~/.config/feedgrid.toml)
//   - FEEDGRID_HOME: base directory for feedgrid data (default: ~/.local/share/feedgrid)
func GetDefaults() (*Defaults, error) {
	configPath, err := fromEnvOrHome(ConfigPathEnv, ".config", "feedgrid.toml")
	if err != nil {
		return nil, err
	}

	baseDir, err := fromEnvOrHome(HomeEnv, ".local", "share", "feedgrid")
	if err != nil {
		return nil, err
	}

	return &Defaults{
		ConfigPath: configPath,
		BaseDir:    baseDir,
		LogDir:     filepath.Join(baseDir, "log"),
	}, nil
}

// fromEnvOrHome returns the value of env if set, else a path under the home directory.
func fromEnvOrHome(env string, elem ...string) (string, error) {
	if path := os.Getenv(env); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(append([]string{homeDir}, elem...)...), nil
}
