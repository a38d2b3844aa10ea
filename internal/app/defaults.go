package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// Defaults holds the application default paths.
type Defaults struct {
	ConfigPath string
	BaseDir    string
	LogDir     string
}

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - ARC_CONFIG_PATH: config file location (default: ~/.config/arc.toml)
//   - ARC_HOME: base directory for arc data (default: ~/.local/share/arc)
func GetDefaults() (*Defaults, error) {
	configPath, err := fromEnvOrHome("ARC_CONFIG_PATH", ".config", "arc.toml")
	if err != nil {
		return nil, err
	}

	baseDir, err := fromEnvOrHome("ARC_HOME", ".local", "share", "arc")
	if err != nil {
		return nil, err
	}

	return &Defaults{
		ConfigPath: configPath,
		BaseDir:    baseDir,
		LogDir:     filepath.Join(baseDir, "log"),
	}, nil
}

// fromEnvOrHome returns $env if set, otherwise the path under the user's home.
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
