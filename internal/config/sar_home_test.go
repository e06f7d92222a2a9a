package config

import (
	"os"
	"path/filepath"
	"testing"
)

// TestGetSarHomeWithEnvVar tests SAR_HOME env var takes precedence
func TestGetSarHomeWithEnvVar(t *testing.T) {
	customHome := filepath.Join(t.TempDir(), "custom")
	t.Setenv(HomeEnvVar, customHome)

	home, err := GetSarHome()
	if err != nil {
		t.Fatalf("GetSarHome() error = %v", err)
	}
	if home != customHome {
		t.Errorf("GetSarHome() = %q, want %q", home, customHome)
	}
	if _, err := os.Stat(home); err != nil {
		t.Errorf("directory not created: %v", err)
	}
}

// TestGetSarHomeDefault tests the ~/.sar fallback
func TestGetSarHomeDefault(t *testing.T) {
	userHome := t.TempDir()
	t.Setenv(HomeEnvVar, "")
	t.Setenv("HOME", userHome)

	home, err := GetSarHome()
	if err != nil {
		t.Fatalf("GetSarHome() error = %v", err)
	}
	if want := filepath.Join(userHome, ".sar"); home != want {
		t.Errorf("GetSarHome() = %q, want %q", home, want)
	}
}

// TestGetLockDir tests the lock directory is created under SAR_HOME
func TestGetLockDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv(HomeEnvVar, home)

	dir, err := GetLockDir()
	if err != nil {
		t.Fatalf("GetLockDir() error = %v", err)
	}
	if want := filepath.Join(home, "locks"); dir != want {
		t.Errorf("GetLockDir() = %q, want %q", dir, want)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Errorf("lock directory not created: %v", err)
	}
}
