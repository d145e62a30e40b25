package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/gait.report/internal/gait"
)

// DefaultConfigPath is the path to the canonical matching defaults file.
// This is the single source of truth for all default matching values.
const DefaultConfigPath = "config/matching.defaults.json"

// MatchingConfig is the JSON form of the engine configuration. All fields are
// optional; fields omitted from a file keep the engine defaults, so partial
// configs are safe.
type MatchingConfig struct {
	// Template params
	TemplateLength *int `json:"template_length,omitempty"`
	MarginSamples  *int `json:"margin_samples,omitempty"`

	// Scan params
	ScaleMin            *float64 `json:"scale_min,omitempty"`
	ScaleMax            *float64 `json:"scale_max,omitempty"`
	ScaleStep           *float64 `json:"scale_step,omitempty"`
	AcceptanceThreshold *float64 `json:"acceptance_threshold,omitempty"`
	Workers             *int     `json:"workers,omitempty"`

	// Conditioning params
	UpsampleFactor *int     `json:"upsample_factor,omitempty"`
	SmoothWindow   *int     `json:"smooth_window,omitempty"`
	SmoothOrder    *int     `json:"smooth_order,omitempty"`
	SmoothEnabled  *bool    `json:"smooth_enabled,omitempty"`
	RolesInOrder   []string `json:"roles_in_order,omitempty"`
}

// EmptyMatchingConfig returns a MatchingConfig with all fields unset.
// Use LoadMatchingConfig to load actual values from the defaults file.
func EmptyMatchingConfig() *MatchingConfig {
	return &MatchingConfig{}
}

// LoadMatchingConfig loads a MatchingConfig from a JSON file. The file must
// have a .json extension and be under the max file size.
func LoadMatchingConfig(path string) (*MatchingConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyMatchingConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	// Full range checks happen in the engine's eager validation; this only
	// rejects files the engine could never accept.
	if _, err := cfg.BatchConfig(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical matching defaults from
// DefaultConfigPath, searching upward from the current directory. Panics if
// the file cannot be loaded; intended for test setup.
func MustLoadDefaultConfig() *MatchingConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath, // from internal/config/
		"../../../" + DefaultConfigPath,
		"../../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadMatchingConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// BatchConfig materializes the engine configuration, overlaying set fields on
// the engine defaults and validating the result.
func (c *MatchingConfig) BatchConfig() (gait.BatchConfig, error) {
	cfg := gait.DefaultBatchConfig()

	if c.TemplateLength != nil {
		cfg.Template.Length = *c.TemplateLength
	}
	if c.MarginSamples != nil {
		cfg.Template.Margin = *c.MarginSamples
	}
	if c.ScaleMin != nil {
		cfg.Matcher.ScaleMin = *c.ScaleMin
	}
	if c.ScaleMax != nil {
		cfg.Matcher.ScaleMax = *c.ScaleMax
	}
	if c.ScaleStep != nil {
		cfg.Matcher.ScaleStep = *c.ScaleStep
	}
	if c.AcceptanceThreshold != nil {
		cfg.Matcher.AcceptanceThreshold = *c.AcceptanceThreshold
	}
	if c.Workers != nil {
		cfg.Matcher.Workers = *c.Workers
	}
	if c.UpsampleFactor != nil {
		cfg.UpsampleFactor = *c.UpsampleFactor
	}
	if c.SmoothWindow != nil {
		cfg.Smooth.Window = *c.SmoothWindow
	}
	if c.SmoothOrder != nil {
		cfg.Smooth.Order = *c.SmoothOrder
	}
	if c.SmoothEnabled != nil {
		cfg.SmoothEnabled = *c.SmoothEnabled
	}
	if len(c.RolesInOrder) > 0 {
		roles := make([]gait.Role, len(c.RolesInOrder))
		for i, r := range c.RolesInOrder {
			roles[i] = gait.Role(r)
		}
		cfg.Roles = roles
	}

	if err := cfg.Validate(); err != nil {
		return gait.BatchConfig{}, err
	}
	return cfg, nil
}
