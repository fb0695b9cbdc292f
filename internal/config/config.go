// Package config defines the engine's configuration object: an immutable
// value loaded from defaults, a file, or the environment, and validated
// before use. Grounded on the teacher's internal/config/config.go layered
// Default()/Load()/LoadFromFile()/loadFromEnv() shape, generalized from its
// JSON-only file loader to YAML (gopkg.in/yaml.v3) and from its `UT_` env
// prefix to a configurable one (default `GOT_`, per spec.md §6).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"graphreason/internal/coreerrors"
)

// DefaultEnvPrefix is the environment variable prefix used by Load when the
// caller does not supply one.
const DefaultEnvPrefix = "GOT_"

// ResourceLimits bounds the engine's resource consumption, per spec.md §4.G.
type ResourceLimits struct {
	MaxThoughts             int  `yaml:"max_thoughts"`
	MaxDepth                int  `yaml:"max_depth"`
	MaxTokens               *int `yaml:"max_tokens,omitempty"`
	TimeoutSeconds          *int `yaml:"timeout_seconds,omitempty"`
	MaxConcurrentExpansions int  `yaml:"max_concurrent_expansions"`
	CheckpointInterval      *int `yaml:"checkpoint_interval,omitempty"`
}

// SearchDefaults seeds a SearchConfig when a caller does not override them.
type SearchDefaults struct {
	BeamWidth      int     `yaml:"beam_width"`
	MaxExpansions  int     `yaml:"max_expansions"`
	ScoreThreshold float64 `yaml:"score_threshold"`
}

// GraphConfig is the engine's top-level, immutable configuration object.
type GraphConfig struct {
	AllowCycles       bool           `yaml:"allow_cycles"`
	AutoCheckpoint    bool           `yaml:"auto_checkpoint"`
	Limits            ResourceLimits `yaml:"limits"`
	Search            SearchDefaults `yaml:"search"`
	EnableMetrics     bool           `yaml:"enable_metrics"`
	EnableTracing     bool           `yaml:"enable_tracing"`
	EnablePersistence bool           `yaml:"enable_persistence"`
	Metadata          map[string]any `yaml:"metadata,omitempty"`
}

func intPtr(v int) *int { return &v }

// Default returns the spec-mandated default configuration.
func Default() *GraphConfig {
	return &GraphConfig{
		AllowCycles:    false,
		AutoCheckpoint: false,
		Limits: ResourceLimits{
			MaxThoughts:             10_000,
			MaxDepth:                20,
			MaxTokens:               nil,
			TimeoutSeconds:          nil,
			MaxConcurrentExpansions: 10,
			CheckpointInterval:      intPtr(100),
		},
		Search: SearchDefaults{
			BeamWidth:      3,
			MaxExpansions:  100,
			ScoreThreshold: 0.0,
		},
		EnableMetrics:     false,
		EnableTracing:     false,
		EnablePersistence: false,
		Metadata:          make(map[string]any),
	}
}

// Validate checks every rule in spec.md §4.G, collecting all violations
// rather than failing on the first.
func (c *GraphConfig) Validate() error {
	var violations []string
	if c.Limits.MaxThoughts < 1 {
		violations = append(violations, "max_thoughts must be >= 1")
	}
	if c.Limits.MaxDepth < 1 {
		violations = append(violations, "max_depth must be >= 1")
	}
	if c.Limits.MaxTokens != nil && *c.Limits.MaxTokens < 1 {
		violations = append(violations, "max_tokens must be >= 1 when set")
	}
	if c.Limits.TimeoutSeconds != nil && *c.Limits.TimeoutSeconds <= 0 {
		violations = append(violations, "timeout_seconds must be > 0 when set")
	}
	if c.Search.BeamWidth < 1 {
		violations = append(violations, "beam_width must be >= 1")
	}
	if c.Search.MaxExpansions < 1 {
		violations = append(violations, "max_expansions must be >= 1")
	}
	if len(violations) > 0 {
		return coreerrors.ConfigurationError(violations)
	}
	return nil
}

// LoadFromFile reads a YAML-encoded GraphConfig from path, starting from
// Default() so an omitted field keeps its default value.
func LoadFromFile(path string) (*GraphConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, coreerrors.ConfigurationError([]string{fmt.Sprintf("parse %s: %v", path, err)})
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load builds a GraphConfig layered env > defaults, using prefix (or
// DefaultEnvPrefix when empty) for the variable names listed in spec.md §6.
func Load(prefix string) (*GraphConfig, error) {
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}
	cfg := Default()
	loadFromEnv(cfg, prefix)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFromEnv(cfg *GraphConfig, prefix string) {
	env := func(name string) (string, bool) {
		return os.LookupEnv(prefix + name)
	}

	if v, ok := env("ALLOW_CYCLES"); ok {
		if b, ok := parseBool(v); ok {
			cfg.AllowCycles = b
		}
	}
	if v, ok := env("AUTO_CHECKPOINT"); ok {
		if b, ok := parseBool(v); ok {
			cfg.AutoCheckpoint = b
		}
	}
	if v, ok := env("MAX_THOUGHTS"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Limits.MaxThoughts = n
		}
	}
	if v, ok := env("MAX_DEPTH"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Limits.MaxDepth = n
		}
	}
	if v, ok := env("MAX_TOKENS"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Limits.MaxTokens = intPtr(n)
		}
	}
	if v, ok := env("TIMEOUT_SECONDS"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Limits.TimeoutSeconds = intPtr(n)
		}
	}
	if v, ok := env("MAX_CONCURRENT_EXPANSIONS"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Limits.MaxConcurrentExpansions = n
		}
	}
	if v, ok := env("CHECKPOINT_INTERVAL"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Limits.CheckpointInterval = intPtr(n)
		}
	}
	if v, ok := env("BEAM_WIDTH"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Search.BeamWidth = n
		}
	}
	if v, ok := env("MAX_EXPANSIONS"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Search.MaxExpansions = n
		}
	}
	if v, ok := env("SCORE_THRESHOLD"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Search.ScoreThreshold = f
		}
	}
	if v, ok := env("ENABLE_METRICS"); ok {
		if b, ok := parseBool(v); ok {
			cfg.EnableMetrics = b
		}
	}
	if v, ok := env("ENABLE_TRACING"); ok {
		if b, ok := parseBool(v); ok {
			cfg.EnableTracing = b
		}
	}
	if v, ok := env("ENABLE_PERSISTENCE"); ok {
		if b, ok := parseBool(v); ok {
			cfg.EnablePersistence = b
		}
	}
}

// parseBool accepts true/1/yes and false/0/no case-insensitively, per
// spec.md §4.G; an unrecognized string reports ok=false so the caller
// silently keeps the default.
func parseBool(v string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes":
		return true, true
	case "false", "0", "no":
		return false, true
	default:
		return false, false
	}
}
