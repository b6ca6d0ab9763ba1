package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Artifacts.Specification != "spec.md" {
		t.Errorf("expected default specification pattern spec.md, got %s", cfg.Artifacts.Specification)
	}
	if cfg.Rules.DuplicationThreshold != 0.8 {
		t.Errorf("expected default duplication threshold 0.8, got %f", cfg.Rules.DuplicationThreshold)
	}
	if cfg.Rules.CoverageThreshold != 90 {
		t.Errorf("expected default coverage threshold 90, got %d", cfg.Rules.CoverageThreshold)
	}
	if len(cfg.Rules.AmbiguityMarkers) == 0 {
		t.Error("expected default ambiguity markers")
	}
	if cfg.Watch.Debounce != 250*time.Millisecond {
		t.Errorf("expected default debounce 250ms, got %v", cfg.Watch.Debounce)
	}
	if cfg.NATS.Subject != "specgate.analyze" {
		t.Errorf("expected default subject specgate.analyze, got %s", cfg.NATS.Subject)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing specification pattern",
			modify:  func(c *Config) { c.Artifacts.Specification = "" },
			wantErr: true,
		},
		{
			name:    "missing constitution pattern",
			modify:  func(c *Config) { c.Artifacts.Constitution = "" },
			wantErr: true,
		},
		{
			name:    "duplication threshold too high",
			modify:  func(c *Config) { c.Rules.DuplicationThreshold = 1.1 },
			wantErr: true,
		},
		{
			name:    "duplication threshold negative",
			modify:  func(c *Config) { c.Rules.DuplicationThreshold = -0.1 },
			wantErr: true,
		},
		{
			name:    "coverage threshold above 100",
			modify:  func(c *Config) { c.Rules.CoverageThreshold = 101 },
			wantErr: true,
		},
		{
			name:    "negative debounce",
			modify:  func(c *Config) { c.Watch.Debounce = -time.Second },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
artifacts:
  specification: "specs/**/spec.md"
  plan: "specs/**/plan.md"
rules:
  duplication_threshold: 0.9
  coverage_threshold: 80
  ambiguity_markers:
    - "TBD"
watch:
  debounce: 500ms
nats:
  url: "nats://test:4222"
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.Artifacts.Specification != "specs/**/spec.md" {
		t.Errorf("expected specification pattern specs/**/spec.md, got %s", cfg.Artifacts.Specification)
	}
	// TaskList should remain default since the file didn't set it
	if cfg.Artifacts.TaskList != "tasks.md" {
		t.Errorf("expected tasklist pattern to remain default, got %s", cfg.Artifacts.TaskList)
	}
	if cfg.Rules.DuplicationThreshold != 0.9 {
		t.Errorf("expected duplication threshold 0.9, got %f", cfg.Rules.DuplicationThreshold)
	}
	if cfg.Rules.CoverageThreshold != 80 {
		t.Errorf("expected coverage threshold 80, got %d", cfg.Rules.CoverageThreshold)
	}
	if len(cfg.Rules.AmbiguityMarkers) != 1 {
		t.Errorf("expected 1 ambiguity marker, got %d", len(cfg.Rules.AmbiguityMarkers))
	}
	if cfg.Watch.Debounce != 500*time.Millisecond {
		t.Errorf("expected debounce 500ms, got %v", cfg.Watch.Debounce)
	}
	if cfg.NATS.URL != "nats://test:4222" {
		t.Errorf("expected NATS URL nats://test:4222, got %s", cfg.NATS.URL)
	}
}

func TestConfigMerge(t *testing.T) {
	base := DefaultConfig()
	override := &Config{
		Rules: RulesConfig{
			CoverageThreshold: 75,
		},
		NATS: NATSConfig{
			URL: "nats://override:4222",
		},
	}

	base.Merge(override)

	if base.Rules.CoverageThreshold != 75 {
		t.Errorf("expected coverage threshold 75, got %d", base.Rules.CoverageThreshold)
	}
	// Duplication threshold should remain from base since override didn't set it
	if base.Rules.DuplicationThreshold != 0.8 {
		t.Errorf("expected duplication threshold to remain 0.8, got %f", base.Rules.DuplicationThreshold)
	}
	if base.NATS.URL != "nats://override:4222" {
		t.Errorf("expected NATS URL nats://override:4222, got %s", base.NATS.URL)
	}
	// Subject should remain default
	if base.NATS.Subject != "specgate.analyze" {
		t.Errorf("expected subject to remain default, got %s", base.NATS.Subject)
	}
}

func TestConfigSaveToFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "subdir", "config.yaml")

	cfg := DefaultConfig()
	cfg.Rules.CoverageThreshold = 85

	if err := cfg.SaveToFile(configPath); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	loaded, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("failed to load saved config: %v", err)
	}
	if loaded.Rules.CoverageThreshold != 85 {
		t.Errorf("expected coverage threshold 85, got %d", loaded.Rules.CoverageThreshold)
	}
}
