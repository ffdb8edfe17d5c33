package llms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/troika-ai/troika/config"
	"github.com/troika-ai/troika/utils"
)

// ============================================================================
// OLLAMA PROVIDER IMPLEMENTATION
// ============================================================================

// OllamaProvider implements LLMProvider for a local Ollama server
type OllamaProvider struct {
	config  *config.LLMProviderConfig
	client  *http.Client
	counter *utils.TokenCounter
}

// OllamaRequest represents the request payload for the Ollama generate API
type OllamaRequest struct {
	Model   string                 `json:"model"`
	Prompt  string                 `json:"prompt"`
	Stream  bool                   `json:"stream"`
	Options map[string]interface{} `json:"options,omitempty"`
}

// OllamaResponse represents the response from the Ollama generate API
type OllamaResponse struct {
	Response        string `json:"response"`
	Done            bool   `json:"done"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
}

// NewOllamaProvider creates a new Ollama provider with default settings
func NewOllamaProvider(model string) *OllamaProvider {
	cfg := &config.LLMProviderConfig{
		Type:  "ollama",
		Model: model,
	}

	provider, _ := NewOllamaProviderFromConfig(cfg)
	return provider
}

// NewOllamaProviderFromConfig creates a new Ollama provider from config
func NewOllamaProviderFromConfig(cfg *config.LLMProviderConfig) (*OllamaProvider, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Ollama does not always report usage; keep a local counter as fallback
	counter, err := utils.NewTokenCounter(cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("failed to create token counter: %w", err)
	}

	return &OllamaProvider{
		config:  cfg,
		client:  &http.Client{Timeout: time.Duration(cfg.Timeout) * time.Second},
		counter: counter,
	}, nil
}

// Generate implements LLMProvider.Generate
func (o *OllamaProvider) Generate(ctx context.Context, prompt string) (string, int, error) {
	request := OllamaRequest{
		Model:  o.config.Model,
		Prompt: prompt,
		Stream: false,
		Options: map[string]interface{}{
			"temperature": o.config.Temperature,
			"num_predict": o.config.MaxTokens,
		},
	}

	response, err := o.makeRequest(ctx, request)
	if err != nil {
		return "", 0, err
	}

	tokensUsed := response.PromptEvalCount + response.EvalCount
	if tokensUsed == 0 {
		tokensUsed = o.counter.CountExchange(prompt, response.Response)
	}

	return response.Response, tokensUsed, nil
}

// GetModelName implements LLMProvider.GetModelName
func (o *OllamaProvider) GetModelName() string {
	return o.config.Model
}

// GetMaxTokens implements LLMProvider.GetMaxTokens
func (o *OllamaProvider) GetMaxTokens() int {
	return o.config.MaxTokens
}

// GetTemperature implements LLMProvider.GetTemperature
func (o *OllamaProvider) GetTemperature() float64 {
	return o.config.Temperature
}

// Close implements LLMProvider.Close
func (o *OllamaProvider) Close() error {
	// Ollama doesn't require explicit closing
	return nil
}

// makeRequest calls the Ollama generate API
func (o *OllamaProvider) makeRequest(ctx context.Context, request OllamaRequest) (*OllamaResponse, error) {
	jsonData, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", o.config.Host+"/api/generate", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call Ollama API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("Ollama API error (status %d): %s", resp.StatusCode, string(body))
	}

	var response OllamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &response, nil
}
