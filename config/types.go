package config

import (
	"fmt"
)

// ============================================================================
// PROVIDER CONFIGURATION
// ============================================================================

// LLMProviderConfig represents LLM provider configuration
type LLMProviderConfig struct {
	Type        string  `yaml:"type"`        // "openai", "anthropic", "ollama"
	Model       string  `yaml:"model"`       // Model name
	APIKey      string  `yaml:"api_key"`     // API key (openai/anthropic)
	Host        string  `yaml:"host"`        // API host, or ollama address
	Temperature float64 `yaml:"temperature"` // Temperature setting
	MaxTokens   int     `yaml:"max_tokens"`  // Max tokens per completion
	Timeout     int     `yaml:"timeout"`     // Request timeout in seconds
}

// Validate implements Config.Validate for LLMProviderConfig
func (c *LLMProviderConfig) Validate() error {
	if c.Type == "" {
		return fmt.Errorf("type is required")
	}
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.Host == "" {
		return fmt.Errorf("host is required")
	}
	if (c.Type == "openai" || c.Type == "anthropic") && c.APIKey == "" {
		return fmt.Errorf("api_key is required for %s", c.Type)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2")
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must be non-negative")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative")
	}
	return nil
}

// SetDefaults implements Config.SetDefaults for LLMProviderConfig
func (c *LLMProviderConfig) SetDefaults() {
	if c.Type == "" {
		c.Type = "openai"
	}
	if c.Model == "" {
		switch c.Type {
		case "anthropic":
			c.Model = "claude-sonnet-4-20250514"
		case "ollama":
			c.Model = "llama3.2"
		default:
			c.Model = "gpt-4o-mini"
		}
	}
	if c.Host == "" {
		switch c.Type {
		case "openai":
			c.Host = "https://api.openai.com/v1"
		case "anthropic":
			c.Host = "https://api.anthropic.com"
		case "ollama":
			c.Host = "http://localhost:11434"
		}
	}
	if c.Temperature == 0 {
		c.Temperature = 0.7
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 2000
	}
	if c.Timeout == 0 {
		c.Timeout = 60
	}
}

// ============================================================================
// ORCHESTRATOR CONFIGURATION
// ============================================================================

// BudgetConfig holds the hard resource ceilings for a run. Exceeding either
// gate terminates the run regardless of task progress.
type BudgetConfig struct {
	MaxIterations  int `yaml:"max_iterations"`   // Worker+Critic cycles
	MaxTotalTokens int `yaml:"max_total_tokens"` // cumulative tokens across all roles
}

// Validate implements Config.Validate for BudgetConfig
func (c *BudgetConfig) Validate() error {
	if c.MaxIterations <= 0 {
		return fmt.Errorf("max_iterations must be positive")
	}
	if c.MaxTotalTokens <= 0 {
		return fmt.Errorf("max_total_tokens must be positive")
	}
	return nil
}

// SetDefaults implements Config.SetDefaults for BudgetConfig
func (c *BudgetConfig) SetDefaults() {
	if c.MaxIterations == 0 {
		c.MaxIterations = 10
	}
	if c.MaxTotalTokens == 0 {
		c.MaxTotalTokens = 50000
	}
}

// DefaultBudgetConfig returns the default budget gates
func DefaultBudgetConfig() BudgetConfig {
	c := BudgetConfig{}
	c.SetDefaults()
	return c
}

// EscalationConfig holds the worker-attempt thresholds for the deterministic
// escalation policy: retry with feedback, then re-plan, then give up.
//
// The thresholds are independent tunables. Validation requires
// GiveUpThreshold > ReplanThreshold so the give-up path stays reachable.
type EscalationConfig struct {
	RetryThreshold  int `yaml:"retry_threshold"`   // rejections before retrying under same plan
	ReplanThreshold int `yaml:"replan_threshold"`  // rejections before discarding the plan
	GiveUpThreshold int `yaml:"give_up_threshold"` // rejections before giving up entirely
}

// Validate implements Config.Validate for EscalationConfig
func (c *EscalationConfig) Validate() error {
	if c.RetryThreshold < 1 {
		return fmt.Errorf("retry_threshold must be at least 1")
	}
	if c.ReplanThreshold < c.RetryThreshold {
		return fmt.Errorf("replan_threshold must be >= retry_threshold")
	}
	if c.GiveUpThreshold <= c.ReplanThreshold {
		return fmt.Errorf("give_up_threshold must be > replan_threshold")
	}
	return nil
}

// SetDefaults implements Config.SetDefaults for EscalationConfig
func (c *EscalationConfig) SetDefaults() {
	if c.RetryThreshold == 0 {
		c.RetryThreshold = 1
	}
	if c.ReplanThreshold == 0 {
		c.ReplanThreshold = 2
	}
	if c.GiveUpThreshold == 0 {
		c.GiveUpThreshold = 3
	}
}

// DefaultEscalationConfig returns the default escalation thresholds
func DefaultEscalationConfig() EscalationConfig {
	c := EscalationConfig{}
	c.SetDefaults()
	return c
}

// OrchestratorConfig represents the orchestrator run configuration
type OrchestratorConfig struct {
	LLM        string           `yaml:"llm"`        // name of the provider to use
	Budget     BudgetConfig     `yaml:"budget"`     // resource ceilings
	Escalation EscalationConfig `yaml:"escalation"` // escalation thresholds
	AuditLog   string           `yaml:"audit_log"`  // JSONL audit file path (empty = disabled)
}

// Validate implements Config.Validate for OrchestratorConfig
func (c *OrchestratorConfig) Validate() error {
	if err := c.Budget.Validate(); err != nil {
		return fmt.Errorf("budget validation failed: %w", err)
	}
	if err := c.Escalation.Validate(); err != nil {
		return fmt.Errorf("escalation validation failed: %w", err)
	}
	return nil
}

// SetDefaults implements Config.SetDefaults for OrchestratorConfig
func (c *OrchestratorConfig) SetDefaults() {
	if c.LLM == "" {
		c.LLM = "default"
	}
	c.Budget.SetDefaults()
	c.Escalation.SetDefaults()
}

// TracingConfig configures OTLP trace export for role invocations
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	EndpointURL  string  `yaml:"endpoint_url"`
	SamplingRate float64 `yaml:"sampling_rate"`
	ServiceName  string  `yaml:"service_name"`
}

// SetDefaults implements Config.SetDefaults for TracingConfig
func (c *TracingConfig) SetDefaults() {
	if c.EndpointURL == "" {
		c.EndpointURL = "localhost:4317"
	}
	if c.SamplingRate == 0 {
		c.SamplingRate = 1.0
	}
	if c.ServiceName == "" {
		c.ServiceName = "troika"
	}
}
