// Package config provides configuration loading and management for Specgate.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete Specgate configuration.
type Config struct {
	Artifacts ArtifactsConfig `yaml:"artifacts"`
	Rules     RulesConfig     `yaml:"rules"`
	Watch     WatchConfig     `yaml:"watch"`
	NATS      NATSConfig      `yaml:"nats"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ArtifactsConfig maps each artifact kind to a glob pattern resolved
// against the artifact directory. Patterns support doublestar globs
// (e.g. "**/spec.md"). When a pattern matches multiple files the
// lexicographically first path is used.
type ArtifactsConfig struct {
	// Specification is the glob pattern for the specification artifact
	Specification string `yaml:"specification"`
	// Plan is the glob pattern for the technical plan artifact
	Plan string `yaml:"plan"`
	// TaskList is the glob pattern for the task list artifact
	TaskList string `yaml:"tasklist"`
	// Constitution is the glob pattern for the governance artifact
	Constitution string `yaml:"constitution"`
}

// RulesConfig holds the tunables for the analyzer rule set.
type RulesConfig struct {
	// DuplicationThreshold is the token-set Jaccard similarity at or above
	// which two requirements are reported as duplicates (0.0-1.0)
	DuplicationThreshold float64 `yaml:"duplication_threshold"`

	// CoverageThreshold is the minimum coverage percentage for a PASS gate
	CoverageThreshold int `yaml:"coverage_threshold"`

	// AmbiguityMarkers are phrases whose presence in a requirement marks
	// it as ambiguous (matched case-insensitively)
	AmbiguityMarkers []string `yaml:"ambiguity_markers"`

	// Synonyms maps a compliance keyword to accepted synonyms. A
	// non-negotiable principle is satisfied when any significant word of
	// its name, or a configured synonym of that word, appears in the plan
	// or task list.
	Synonyms map[string][]string `yaml:"synonyms"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	// Debounce is how long to wait for more file changes before re-running
	Debounce time.Duration `yaml:"debounce"`
}

// NATSConfig configures the gate service connection.
type NATSConfig struct {
	// URL is the NATS server URL
	URL string `yaml:"url"`
	// Subject is the request subject the gate service answers on
	Subject string `yaml:"subject"`
	// Queue is the queue group for load-balanced subscribers
	Queue string `yaml:"queue"`
}

// MetricsConfig configures the Prometheus metrics endpoint for serve mode.
type MetricsConfig struct {
	// Enabled controls whether the metrics HTTP server starts
	Enabled bool `yaml:"enabled"`
	// Addr is the listen address for the /metrics endpoint
	Addr string `yaml:"addr"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Artifacts: ArtifactsConfig{
			Specification: "spec.md",
			Plan:          "plan.md",
			TaskList:      "tasks.md",
			Constitution:  "constitution.md",
		},
		Rules: RulesConfig{
			DuplicationThreshold: 0.8,
			CoverageThreshold:    90,
			AmbiguityMarkers: []string{
				"NEEDS CLARIFICATION",
				"TBD",
				"TODO",
				"FIXME",
				"XXX",
				"???",
			},
			Synonyms: map[string][]string{
				"authentication": {"auth", "login", "credential", "oauth", "sso"},
				"authorization":  {"rbac", "permission", "access control"},
				"testing":        {"test", "tdd", "coverage"},
				"logging":        {"log", "observability", "telemetry"},
				"security":       {"secure", "encryption", "tls"},
				"documentation":  {"document", "docs", "readme"},
			},
		},
		Watch: WatchConfig{
			Debounce: 250 * time.Millisecond,
		},
		NATS: NATSConfig{
			URL:     "nats://localhost:4222",
			Subject: "specgate.analyze",
			Queue:   "specgate",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    ":9090",
		},
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Artifacts.Specification == "" {
		return fmt.Errorf("artifacts.specification pattern is required")
	}
	if c.Artifacts.Plan == "" {
		return fmt.Errorf("artifacts.plan pattern is required")
	}
	if c.Artifacts.TaskList == "" {
		return fmt.Errorf("artifacts.tasklist pattern is required")
	}
	if c.Artifacts.Constitution == "" {
		return fmt.Errorf("artifacts.constitution pattern is required")
	}
	if c.Rules.DuplicationThreshold < 0 || c.Rules.DuplicationThreshold > 1 {
		return fmt.Errorf("rules.duplication_threshold must be between 0 and 1")
	}
	if c.Rules.CoverageThreshold < 0 || c.Rules.CoverageThreshold > 100 {
		return fmt.Errorf("rules.coverage_threshold must be between 0 and 100")
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file.
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for
// non-zero values).
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Artifacts
	if other.Artifacts.Specification != "" {
		c.Artifacts.Specification = other.Artifacts.Specification
	}
	if other.Artifacts.Plan != "" {
		c.Artifacts.Plan = other.Artifacts.Plan
	}
	if other.Artifacts.TaskList != "" {
		c.Artifacts.TaskList = other.Artifacts.TaskList
	}
	if other.Artifacts.Constitution != "" {
		c.Artifacts.Constitution = other.Artifacts.Constitution
	}

	// Rules
	if other.Rules.DuplicationThreshold != 0 {
		c.Rules.DuplicationThreshold = other.Rules.DuplicationThreshold
	}
	if other.Rules.CoverageThreshold != 0 {
		c.Rules.CoverageThreshold = other.Rules.CoverageThreshold
	}
	if len(other.Rules.AmbiguityMarkers) > 0 {
		c.Rules.AmbiguityMarkers = other.Rules.AmbiguityMarkers
	}
	if len(other.Rules.Synonyms) > 0 {
		c.Rules.Synonyms = other.Rules.Synonyms
	}

	// Watch
	if other.Watch.Debounce != 0 {
		c.Watch.Debounce = other.Watch.Debounce
	}

	// NATS
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}
	if other.NATS.Subject != "" {
		c.NATS.Subject = other.NATS.Subject
	}
	if other.NATS.Queue != "" {
		c.NATS.Queue = other.NATS.Queue
	}

	// Metrics
	if other.Metrics.Addr != "" {
		c.Metrics.Addr = other.Metrics.Addr
		c.Metrics.Enabled = other.Metrics.Enabled
	}
}
