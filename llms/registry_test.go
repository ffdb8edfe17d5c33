package llms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/troika-ai/troika/config"
)

func TestLLMRegistry_CreateLLMFromConfig(t *testing.T) {
	reg := NewLLMRegistry()

	provider, err := reg.CreateLLMFromConfig("default", &config.LLMProviderConfig{
		Type:   "openai",
		Model:  "gpt-4o-mini",
		APIKey: "sk-test",
	})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", provider.GetModelName())

	// Retrievable by name
	got, err := reg.GetLLM("default")
	require.NoError(t, err)
	assert.Equal(t, provider, got)
}

func TestLLMRegistry_CreateLLMFromConfig_Errors(t *testing.T) {
	reg := NewLLMRegistry()

	_, err := reg.CreateLLMFromConfig("", &config.LLMProviderConfig{Type: "openai"})
	assert.Error(t, err)

	_, err = reg.CreateLLMFromConfig("x", nil)
	assert.Error(t, err)

	_, err = reg.CreateLLMFromConfig("x", &config.LLMProviderConfig{Type: "unknown", Model: "m", Host: "h"})
	assert.Error(t, err)
}

func TestLLMRegistry_GetLLM_NotFound(t *testing.T) {
	reg := NewLLMRegistry()

	_, err := reg.GetLLM("missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestLLMRegistry_RegisterLLM(t *testing.T) {
	reg := NewLLMRegistry()

	err := reg.RegisterLLM("", NewOpenAIProvider("k", "gpt-4o-mini"))
	assert.Error(t, err)

	err = reg.RegisterLLM("main", nil)
	assert.Error(t, err)

	err = reg.RegisterLLM("main", NewOpenAIProvider("k", "gpt-4o-mini"))
	assert.NoError(t, err)
}
