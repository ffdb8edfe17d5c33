package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	yamlData := `
version: "1.0"
name: troika-test
llms:
  default:
    type: openai
    model: gpt-4o-mini
    api_key: test-key
orchestrator:
  llm: default
  budget:
    max_iterations: 5
    max_total_tokens: 20000
`

	cfg, err := Load([]byte(yamlData))
	require.NoError(t, err)

	assert.Equal(t, "troika-test", cfg.Name)
	assert.Equal(t, "openai", cfg.LLMs["default"].Type)
	assert.Equal(t, 5, cfg.Orchestrator.Budget.MaxIterations)
	assert.Equal(t, 20000, cfg.Orchestrator.Budget.MaxTotalTokens)

	// Defaults filled in
	assert.Equal(t, "https://api.openai.com/v1", cfg.LLMs["default"].Host)
	assert.Equal(t, 1, cfg.Orchestrator.Escalation.RetryThreshold)
	assert.Equal(t, 2, cfg.Orchestrator.Escalation.ReplanThreshold)
	assert.Equal(t, 3, cfg.Orchestrator.Escalation.GiveUpThreshold)
}

func TestLoad_EnvExpansion(t *testing.T) {
	os.Setenv("TROIKA_TEST_KEY", "expanded-key")
	defer os.Unsetenv("TROIKA_TEST_KEY")

	yamlData := `
llms:
  default:
    type: openai
    model: gpt-4o-mini
    api_key: ${TROIKA_TEST_KEY}
`

	cfg, err := Load([]byte(yamlData))
	require.NoError(t, err)
	assert.Equal(t, "expanded-key", cfg.LLMs["default"].APIKey)
}

func TestLoad_UnknownLLMReference(t *testing.T) {
	yamlData := `
llms:
  main:
    type: openai
    model: gpt-4o-mini
    api_key: key
orchestrator:
  llm: missing
`

	_, err := Load([]byte(yamlData))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown LLM")
}

func TestExpandEnvVars(t *testing.T) {
	os.Setenv("TROIKA_VAR", "value")
	defer os.Unsetenv("TROIKA_VAR")

	tests := []struct {
		input string
		want  string
	}{
		{"${TROIKA_VAR}", "value"},
		{"$TROIKA_VAR", "value"},
		{"${TROIKA_UNSET:-fallback}", "fallback"},
		{"${TROIKA_VAR:-fallback}", "value"},
		{"no variables here", "no variables here"},
		{"prefix-${TROIKA_VAR}-suffix", "prefix-value-suffix"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ExpandEnvVars(tt.input), "input %q", tt.input)
	}
}

func TestLLMProviderConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  LLMProviderConfig
		wantErr bool
	}{
		{
			name: "valid openai",
			config: LLMProviderConfig{
				Type: "openai", Model: "gpt-4o-mini", APIKey: "k",
				Host: "https://api.openai.com/v1", Temperature: 0.7,
			},
			wantErr: false,
		},
		{
			name: "openai without api key",
			config: LLMProviderConfig{
				Type: "openai", Model: "gpt-4o-mini",
				Host: "https://api.openai.com/v1",
			},
			wantErr: true,
		},
		{
			name: "ollama without api key is fine",
			config: LLMProviderConfig{
				Type: "ollama", Model: "llama3.2", Host: "http://localhost:11434",
			},
			wantErr: false,
		},
		{
			name: "temperature out of range",
			config: LLMProviderConfig{
				Type: "ollama", Model: "llama3.2",
				Host: "http://localhost:11434", Temperature: 3.0,
			},
			wantErr: true,
		},
		{
			name:    "missing type",
			config:  LLMProviderConfig{Model: "m", Host: "h"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEscalationConfig_Validate(t *testing.T) {
	valid := DefaultEscalationConfig()
	require.NoError(t, valid.Validate())

	// Give-up threshold must stay above re-plan threshold so the give-up
	// path remains reachable
	unreachable := EscalationConfig{RetryThreshold: 1, ReplanThreshold: 2, GiveUpThreshold: 2}
	assert.Error(t, unreachable.Validate())

	backwards := EscalationConfig{RetryThreshold: 2, ReplanThreshold: 1, GiveUpThreshold: 3}
	assert.Error(t, backwards.Validate())

	zero := EscalationConfig{}
	assert.Error(t, zero.Validate())
}

func TestBudgetConfig_Defaults(t *testing.T) {
	cfg := DefaultBudgetConfig()
	assert.Equal(t, 10, cfg.MaxIterations)
	assert.Equal(t, 50000, cfg.MaxTotalTokens)
	assert.NoError(t, cfg.Validate())
}
