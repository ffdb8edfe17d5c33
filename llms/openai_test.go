package llms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/troika-ai/troika/config"
)

func TestNewOpenAIProvider(t *testing.T) {
	provider := NewOpenAIProvider("sk-test-key", "gpt-4o-mini")

	if provider == nil {
		t.Fatal("NewOpenAIProvider() returned nil provider")
	}

	if provider.GetModelName() != "gpt-4o-mini" {
		t.Errorf("NewOpenAIProvider() model = %v, want gpt-4o-mini", provider.GetModelName())
	}

	if provider.GetTemperature() != 0.7 {
		t.Errorf("NewOpenAIProvider() temperature = %v, want 0.7", provider.GetTemperature())
	}
}

func TestNewOpenAIProviderFromConfig(t *testing.T) {
	cfg := &config.LLMProviderConfig{
		Type:    "openai",
		Model:   "gpt-4o-mini",
		Host:    "https://api.openai.com/v1",
		APIKey:  "sk-test-key",
		Timeout: 30,
	}

	provider, err := NewOpenAIProviderFromConfig(cfg)
	if err != nil {
		t.Fatalf("NewOpenAIProviderFromConfig() error = %v, want nil", err)
	}

	if provider.GetModelName() != "gpt-4o-mini" {
		t.Errorf("NewOpenAIProviderFromConfig() model = %v, want gpt-4o-mini", provider.GetModelName())
	}

	// Invalid config: missing API key
	bad := &config.LLMProviderConfig{Type: "openai", Model: "gpt-4o-mini"}
	bad.Host = "https://api.openai.com/v1"
	if _, err := NewOpenAIProviderFromConfig(bad); err == nil {
		t.Error("expected error for missing API key")
	}
}

func TestOpenAIProvider_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test-key" {
			t.Errorf("unexpected Authorization header: %s", got)
		}

		var req OpenAIRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if len(req.Messages) != 1 || req.Messages[0].Content != "hello" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}

		resp := OpenAIResponse{
			Choices: []Choice{
				{Message: Message{Role: "assistant", Content: "world"}, FinishReason: "stop"},
			},
			Usage: Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	provider := NewOpenAIProvider("sk-test-key", "gpt-4o-mini").WithBaseURL(server.URL)

	text, tokens, err := provider.Generate(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if text != "world" {
		t.Errorf("Generate() text = %q, want %q", text, "world")
	}
	if tokens != 15 {
		t.Errorf("Generate() tokens = %d, want 15", tokens)
	}
}

func TestOpenAIProvider_Generate_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"message": "rate limit exceeded"}}`))
	}))
	defer server.Close()

	provider := NewOpenAIProvider("sk-test-key", "gpt-4o-mini").WithBaseURL(server.URL)

	_, _, err := provider.Generate(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected error for 429 response")
	}
}

func TestOpenAIProvider_Generate_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(OpenAIResponse{})
	}))
	defer server.Close()

	provider := NewOpenAIProvider("sk-test-key", "gpt-4o-mini").WithBaseURL(server.URL)

	_, _, err := provider.Generate(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected error for empty choices")
	}
}
