package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// HomeEnvVar overrides the sar home directory
const HomeEnvVar = "SAR_HOME"

// GetSarHome returns the sar home directory
// Priority order:
//  1. SAR_HOME environment variable (if set)
//  2. ~/.sar
//
// The directory is created if it doesn't exist
func GetSarHome() (string, error) {
	home := os.Getenv(HomeEnvVar)
	if home == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("get user home directory: %w", err)
		}
		home = filepath.Join(userHome, ".sar")
	}

	if err := os.MkdirAll(home, 0755); err != nil {
		return "", fmt.Errorf("create sar home directory: %w", err)
	}
	return home, nil
}

// GetHistoryDBPath returns the default path of the run history database
// Always returns: $SAR_HOME/history/runs.db
func GetHistoryDBPath() (string, error) {
	home, err := GetSarHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "history", "runs.db"), nil
}

// GetLockDir returns the directory holding run locks
func GetLockDir() (string, error) {
	home, err := GetSarHome()
	if err != nil {
		return "", err
	}

	lockDir := filepath.Join(home, "locks")
	if err := os.MkdirAll(lockDir, 0755); err != nil {
		return "", fmt.Errorf("create lock directory: %w", err)
	}
	return lockDir, nil
}
