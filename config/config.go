// Package config provides configuration types and utilities for the Troika
// orchestrator. This file contains the main unified configuration entry point.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ============================================================================
// MAIN UNIFIED CONFIGURATION
// ============================================================================

// Config represents the complete configuration: named LLM providers, the
// orchestrator run settings, and optional tracing.
type Config struct {
	// Version and metadata
	Version     string `yaml:"version,omitempty"`
	Name        string `yaml:"name,omitempty"`
	Description string `yaml:"description,omitempty"`

	// Provider configurations
	LLMs map[string]LLMProviderConfig `yaml:"llms,omitempty"`

	// Orchestrator run settings
	Orchestrator OrchestratorConfig `yaml:"orchestrator,omitempty"`

	// Tracing settings
	Tracing TracingConfig `yaml:"tracing,omitempty"`
}

// Validate implements Config.Validate for Config
func (c *Config) Validate() error {
	for name, llm := range c.LLMs {
		if err := llm.Validate(); err != nil {
			return fmt.Errorf("LLM '%s' validation failed: %w", name, err)
		}
	}

	if err := c.Orchestrator.Validate(); err != nil {
		return fmt.Errorf("orchestrator validation failed: %w", err)
	}

	if _, ok := c.LLMs[c.Orchestrator.LLM]; !ok && len(c.LLMs) > 0 {
		return fmt.Errorf("orchestrator references unknown LLM '%s'", c.Orchestrator.LLM)
	}

	return nil
}

// SetDefaults implements Config.SetDefaults for Config
func (c *Config) SetDefaults() {
	if c.LLMs == nil {
		c.LLMs = make(map[string]LLMProviderConfig)
	}
	for name, llm := range c.LLMs {
		llm.SetDefaults()
		c.LLMs[name] = llm
	}
	c.Orchestrator.SetDefaults()
	c.Tracing.SetDefaults()
}

// LoadFromFile loads configuration from a YAML file. Environment variables
// referenced as ${VAR}, ${VAR:-default} or $VAR are expanded before
// unmarshaling, and .env files are loaded first.
func LoadFromFile(path string) (*Config, error) {
	if err := LoadEnvFiles(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Load(data)
}

// Load parses configuration from raw YAML bytes.
func Load(data []byte) (*Config, error) {
	expanded := ExpandEnvVars(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DefaultConfig returns a config with a single provider built from flags or
// environment (zero-config path used by the CLI).
func DefaultConfig(providerType, model, apiKey string) *Config {
	cfg := &Config{
		LLMs: map[string]LLMProviderConfig{
			"default": {
				Type:   providerType,
				Model:  model,
				APIKey: apiKey,
			},
		},
	}
	cfg.SetDefaults()
	return cfg
}
