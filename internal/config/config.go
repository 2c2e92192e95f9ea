// Package config handles configuration and the .vellum directory
// structure. Every corpus audited with vellum gets a .vellum/ folder
// created in its root.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"vellum/internal/finding"
)

const (
	// VellumDir is the name of the directory we create in each corpus root.
	VellumDir = ".vellum"

	// ConfigFile is the project configuration filename inside VellumDir.
	ConfigFile = "config.yaml"

	// SupportedVersion is the config schema version this build understands.
	SupportedVersion = 1
)

const defaultProjectConfigYAML = `# vellum corpus configuration
version: 1

corpus:
  # Filename patterns that identify persona briefs.
  patterns:
    - INSTRUCTIONS.md
  # Relative-path globs to skip entirely.
  # excludes:
  #   - archive/*

lint:
  # Worker pool size for the document pass. 0 means one worker per CPU.
  concurrency: 0
  # Expected bullet count under Key Requirements.
  requirement_count: 5
  # Disable rules by id.
  # disabled:
  #   - vague-language
  # Override rule severities.
  # severity:
  #   requirement-count: info

watch:
  # Debounce window for re-linting after file changes.
  debounce_ms: 400
`

// CorpusConfig selects which files count as persona briefs.
type CorpusConfig struct {
	Patterns []string `yaml:"patterns,omitempty"`
	Excludes []string `yaml:"excludes,omitempty"`
}

// LintConfig tunes the lint engine and the built-in rules.
type LintConfig struct {
	Concurrency      int               `yaml:"concurrency,omitempty"`
	RequirementCount int               `yaml:"requirement_count,omitempty"`
	Disabled         []string          `yaml:"disabled,omitempty"`
	Severity         map[string]string `yaml:"severity,omitempty"`
}

// WatchConfig tunes watch mode.
type WatchConfig struct {
	DebounceMS int `yaml:"debounce_ms,omitempty"`
}

// ProjectConfig models .vellum/config.yaml.
type ProjectConfig struct {
	Version int          `yaml:"version"`
	Corpus  CorpusConfig `yaml:"corpus"`
	Lint    LintConfig   `yaml:"lint"`
	Watch   WatchConfig  `yaml:"watch"`
}

// Config holds the runtime configuration for vellum.
type Config struct {
	// RootDir is the corpus root the user pointed vellum at.
	RootDir string

	// VellumProjectDir is RootDir/.vellum.
	VellumProjectDir string

	Project ProjectConfig
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version: SupportedVersion,
		Corpus: CorpusConfig{
			Patterns: []string{"INSTRUCTIONS.md"},
		},
		Lint: LintConfig{
			RequirementCount: 5,
		},
		Watch: WatchConfig{
			DebounceMS: 400,
		},
	}
}

// InitVellumDir creates the .vellum directory structure in the given
// corpus root and scaffolds a commented config.yaml when none exists.
//
// Structure created:
// .vellum/
// ├── logs/     <- Lint activity and the run journal
// ├── rules/    <- User rule packs (*.yaml)
// └── index/    <- Generated catalog artifacts
func InitVellumDir(rootDir string) error {
	vellumDir := filepath.Join(rootDir, VellumDir)
	dirs := []string{
		filepath.Join(vellumDir, "logs"),
		filepath.Join(vellumDir, "rules"),
		filepath.Join(vellumDir, "index"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: create %s: %w", dir, err)
		}
	}
	return ensureProjectConfig(filepath.Join(vellumDir, ConfigFile))
}

func ensureProjectConfig(path string) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config: stat %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(defaultProjectConfigYAML), 0o644); err != nil {
		return fmt.Errorf("config: write default config: %w", err)
	}
	return nil
}

// NewConfig creates a Config populated from RootDir/.vellum/config.yaml.
// A missing file yields the defaults; a malformed or unsupported one is an
// error.
func NewConfig(rootDir string) (*Config, error) {
	abs, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("config: resolve root %s: %w", rootDir, err)
	}
	cfg := &Config{
		RootDir:          abs,
		VellumProjectDir: filepath.Join(abs, VellumDir),
		Project:          defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadProjectConfig() error {
	path := filepath.Join(c.VellumProjectDir, ConfigFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	parsed := defaultProjectConfig()
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	if parsed.Version != SupportedVersion {
		return fmt.Errorf("config: unsupported version %d in %s (want %d)", parsed.Version, path, SupportedVersion)
	}
	if err := validateProjectConfig(parsed); err != nil {
		return fmt.Errorf("config: %s: %w", path, err)
	}
	c.Project = parsed
	return nil
}

func validateProjectConfig(p ProjectConfig) error {
	if p.Lint.Concurrency < 0 {
		return fmt.Errorf("lint.concurrency must be >= 0")
	}
	if p.Lint.RequirementCount <= 0 {
		return fmt.Errorf("lint.requirement_count must be > 0")
	}
	if p.Watch.DebounceMS < 0 {
		return fmt.Errorf("watch.debounce_ms must be >= 0")
	}
	for rule, severity := range p.Lint.Severity {
		if _, err := finding.ParseSeverity(severity); err != nil {
			return fmt.Errorf("lint.severity[%s]: %w", rule, err)
		}
	}
	return nil
}

// Patterns returns the configured brief filename patterns.
func (c *Config) Patterns() []string {
	if len(c.Project.Corpus.Patterns) == 0 {
		return []string{"INSTRUCTIONS.md"}
	}
	return c.Project.Corpus.Patterns
}

// Excludes returns the configured exclusion globs.
func (c *Config) Excludes() []string {
	return c.Project.Corpus.Excludes
}

// Disabled reports whether a rule is switched off.
func (c *Config) Disabled(ruleID string) bool {
	for _, id := range c.Project.Lint.Disabled {
		if id == ruleID {
			return true
		}
	}
	return false
}

// SeverityOverride returns the configured severity for a rule, if any.
func (c *Config) SeverityOverride(ruleID string) (finding.Severity, bool) {
	raw, ok := c.Project.Lint.Severity[ruleID]
	if !ok {
		return "", false
	}
	severity, err := finding.ParseSeverity(raw)
	if err != nil {
		return "", false
	}
	return severity, true
}

// LogsDir returns the path to the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.VellumProjectDir, "logs")
}

// RulesDir returns the path to the user rule pack directory.
func (c *Config) RulesDir() string {
	return filepath.Join(c.VellumProjectDir, "rules")
}

// IndexDir returns the path to the generated catalog directory.
func (c *Config) IndexDir() string {
	return filepath.Join(c.VellumProjectDir, "index")
}

// JournalPath returns the path of the append-only run journal.
func (c *Config) JournalPath() string {
	return filepath.Join(c.LogsDir(), "runs.log")
}
