package orchestrator

import (
	"testing"

	"github.com/troika-ai/troika/config"
)

func TestEscalationPolicyDefaults(t *testing.T) {
	policy := NewEscalationPolicy(config.EscalationConfig{})

	tests := []struct {
		name     string
		attempts int
		want     Decision
	}{
		{"first rejection retries", 1, DecisionRetry},
		{"second rejection re-plans", 2, DecisionReplan},
		{"third rejection gives up", 3, DecisionGiveUp},
		{"beyond ceiling gives up", 5, DecisionGiveUp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := &RunState{WorkerAttempts: tt.attempts}
			if got := policy.Decide(state); got != tt.want {
				t.Errorf("Decide(attempts=%d) = %s, want %s", tt.attempts, got, tt.want)
			}
		})
	}
}

func TestEscalationPolicyCustomThresholds(t *testing.T) {
	policy := NewEscalationPolicy(config.EscalationConfig{
		RetryThreshold:  1,
		ReplanThreshold: 3,
		GiveUpThreshold: 4,
	})

	if got := policy.Decide(&RunState{WorkerAttempts: 2}); got != DecisionRetry {
		t.Errorf("Expected retry below the replan threshold, got %s", got)
	}
	if got := policy.Decide(&RunState{WorkerAttempts: 3}); got != DecisionReplan {
		t.Errorf("Expected replan at the threshold, got %s", got)
	}
	if got := policy.Decide(&RunState{WorkerAttempts: 4}); got != DecisionGiveUp {
		t.Errorf("Expected give up at the ceiling, got %s", got)
	}
}

func TestGiveUpTakesPrecedenceOverReplan(t *testing.T) {
	policy := NewEscalationPolicy(config.EscalationConfig{})

	// Attempts past both thresholds resolve to give up, not replan
	state := &RunState{WorkerAttempts: 7}
	if got := policy.Decide(state); got != DecisionGiveUp {
		t.Errorf("Expected give up past both thresholds, got %s", got)
	}
}
