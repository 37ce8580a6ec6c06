package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath returns the config file location, checking the
// FBD_CONFIG_PATH environment variable first and falling back to
// ~/.config/fbd.toml.
func DefaultConfigPath() (string, error) {
	if path := os.Getenv("FBD_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "fbd.toml"), nil
}
