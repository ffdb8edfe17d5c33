package utils

import (
	"testing"
)

func TestNewTokenCounter(t *testing.T) {
	tc, err := NewTokenCounter("gpt-4o-mini")
	if err != nil {
		t.Fatalf("failed to create counter: %v", err)
	}

	if tc.GetModel() != "gpt-4o-mini" {
		t.Errorf("expected model gpt-4o-mini, got %s", tc.GetModel())
	}

	// Unknown models fall back to cl100k_base
	tc2, err := NewTokenCounter("some-unknown-model")
	if err != nil {
		t.Fatalf("expected fallback encoding, got error: %v", err)
	}
	if tc2.Count("hello world") == 0 {
		t.Error("fallback encoding produced zero tokens")
	}
}

func TestTokenCounter_Count(t *testing.T) {
	tc, err := NewTokenCounter("gpt-4o-mini")
	if err != nil {
		t.Fatalf("failed to create counter: %v", err)
	}

	if got := tc.Count(""); got != 0 {
		t.Errorf("expected 0 tokens for empty string, got %d", got)
	}

	short := tc.Count("hello")
	long := tc.Count("hello there, this is a much longer sentence with more tokens")
	if short >= long {
		t.Errorf("expected longer text to use more tokens: short=%d long=%d", short, long)
	}
}

func TestTokenCounter_CountExchange(t *testing.T) {
	tc, err := NewTokenCounter("gpt-4o-mini")
	if err != nil {
		t.Fatalf("failed to create counter: %v", err)
	}

	exchange := tc.CountExchange("what is 2+2?", "4")
	sum := tc.Count("what is 2+2?") + tc.Count("4")
	if exchange <= sum {
		t.Errorf("exchange count %d should include message overhead beyond %d", exchange, sum)
	}
}

func TestTokenCounter_EstimateTokensForText(t *testing.T) {
	var tc *TokenCounter

	// Nil counter falls back to the chars/4 heuristic
	if got := tc.EstimateTokensForText("12345678"); got != 2 {
		t.Errorf("expected estimate 2, got %d", got)
	}
}
