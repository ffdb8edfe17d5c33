package llms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/troika-ai/troika/config"
)

// ============================================================================
// OPENAI PROVIDER IMPLEMENTATION
// ============================================================================

// OpenAIProvider implements LLMProvider for the OpenAI chat completions API
type OpenAIProvider struct {
	config *config.LLMProviderConfig
	client *http.Client
}

// OpenAIRequest represents the request payload for OpenAI API
type OpenAIRequest struct {
	Model               string    `json:"model"`
	Messages            []Message `json:"messages"`
	MaxTokens           int       `json:"max_tokens,omitempty"`            // Legacy parameter
	MaxCompletionTokens int       `json:"max_completion_tokens,omitempty"` // New parameter
	Temperature         float64   `json:"temperature"`
}

// OpenAIResponse represents the response from OpenAI API
type OpenAIResponse struct {
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
	Error   *Error   `json:"error,omitempty"`
}

// Choice represents a response choice
type Choice struct {
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// NewOpenAIProvider creates a new OpenAI provider with default settings
func NewOpenAIProvider(apiKey string, model string) *OpenAIProvider {
	cfg := &config.LLMProviderConfig{
		Type:   "openai",
		Model:  model,
		APIKey: apiKey,
	}
	cfg.SetDefaults()

	provider, _ := NewOpenAIProviderFromConfig(cfg)
	return provider
}

// NewOpenAIProviderFromConfig creates a new OpenAI provider from config
func NewOpenAIProviderFromConfig(cfg *config.LLMProviderConfig) (*OpenAIProvider, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &OpenAIProvider{
		config: cfg,
		client: &http.Client{Timeout: time.Duration(cfg.Timeout) * time.Second},
	}, nil
}

// WithBaseURL sets a custom base URL (useful for proxies or local servers)
func (p *OpenAIProvider) WithBaseURL(baseURL string) *OpenAIProvider {
	p.config.Host = strings.TrimSuffix(baseURL, "/")
	return p
}

// Generate generates a response given a pre-built prompt
func (p *OpenAIProvider) Generate(ctx context.Context, prompt string) (string, int, error) {
	request := p.buildRequest(prompt)

	response, err := p.makeRequest(ctx, request)
	if err != nil {
		return "", 0, err
	}

	if response.Error != nil {
		return "", 0, fmt.Errorf("OpenAI API error: %s", response.Error.Message)
	}

	if len(response.Choices) == 0 {
		return "", 0, fmt.Errorf("no response choices returned")
	}

	content := response.Choices[0].Message.Content
	tokensUsed := response.Usage.TotalTokens

	return content, tokensUsed, nil
}

// GetModelName returns the model name
func (p *OpenAIProvider) GetModelName() string {
	return p.config.Model
}

// GetMaxTokens returns the maximum tokens for generation
func (p *OpenAIProvider) GetMaxTokens() int {
	return p.config.MaxTokens
}

// GetTemperature returns the temperature setting
func (p *OpenAIProvider) GetTemperature() float64 {
	return p.config.Temperature
}

// Close closes the provider
func (p *OpenAIProvider) Close() error {
	// OpenAI provider doesn't need explicit cleanup
	return nil
}

// buildRequest builds an OpenAI request with appropriate parameters based on model
func (p *OpenAIProvider) buildRequest(prompt string) OpenAIRequest {
	request := OpenAIRequest{
		Model:       p.config.Model,
		Messages:    []Message{{Role: "user", Content: prompt}},
		Temperature: p.config.Temperature,
	}

	// Use appropriate token parameter based on model
	if p.isNewerModel() {
		request.MaxCompletionTokens = p.config.MaxTokens
	} else {
		request.MaxTokens = p.config.MaxTokens
	}

	return request
}

// isNewerModel checks if the model requires max_completion_tokens instead of max_tokens
func (p *OpenAIProvider) isNewerModel() bool {
	newerModels := []string{
		"gpt-5-nano",
		"gpt-5",
		"gpt-4o",
		"gpt-4o-mini",
		"gpt-4-turbo",
		"gpt-4",
	}

	for _, model := range newerModels {
		if p.config.Model == model {
			return true
		}
	}

	return false
}

// makeRequest makes a non-streaming request to OpenAI API
func (p *OpenAIProvider) makeRequest(ctx context.Context, request OpenAIRequest) (*OpenAIResponse, error) {
	jsonData, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.config.Host+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.config.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var response OpenAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &response, nil
}
