package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromFileMissingMatchesNotExist(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected wrapped fs.ErrNotExist, got %v", err)
	}
}

func TestLoaderLoadWithoutConfigFiles(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := NewLoader(nil).Load()
	if err != nil {
		t.Fatalf("expected defaults when no config files exist, got error: %v", err)
	}
	if cfg.Rules.CoverageThreshold != 90 {
		t.Errorf("expected default coverage threshold 90, got %d", cfg.Rules.CoverageThreshold)
	}
}

func TestLoaderLoadMergesUserConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	userDir := filepath.Join(home, UserConfigDir)
	if err := os.MkdirAll(userDir, 0755); err != nil {
		t.Fatalf("failed to create user config dir: %v", err)
	}
	content := []byte("rules:\n  coverage_threshold: 75\n")
	if err := os.WriteFile(filepath.Join(userDir, UserConfigFile), content, 0644); err != nil {
		t.Fatalf("failed to write user config: %v", err)
	}

	cfg, err := NewLoader(nil).Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Rules.CoverageThreshold != 75 {
		t.Errorf("expected user coverage threshold 75, got %d", cfg.Rules.CoverageThreshold)
	}
	if cfg.Artifacts.Specification != "spec.md" {
		t.Errorf("expected untouched defaults to survive the merge, got %s", cfg.Artifacts.Specification)
	}
}

func TestEnsureUserConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	loader := NewLoader(nil)
	if err := loader.EnsureUserConfig(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	path := filepath.Join(home, UserConfigDir, UserConfigFile)
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected user config at %s: %v", path, err)
	}

	// Second call leaves the existing file alone.
	if err := loader.EnsureUserConfig(); err != nil {
		t.Fatalf("expected no-op on existing config, got %v", err)
	}
	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("failed to load created config: %v", err)
	}
	if loaded.NATS.Subject != "specgate.analyze" {
		t.Errorf("expected default subject in created config, got %s", loaded.NATS.Subject)
	}
}
