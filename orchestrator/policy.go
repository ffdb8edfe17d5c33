package orchestrator

import (
	"github.com/troika-ai/troika/config"
)

// ============================================================================
// ESCALATION POLICY
// ============================================================================

// Decision is the orchestrator's next move after a Critic rejection
type Decision string

const (
	// DecisionRetry loops back to the Worker with the Critic's feedback
	DecisionRetry Decision = "retry"
	// DecisionReplan discards the plan and re-runs the Planner
	DecisionReplan Decision = "replan"
	// DecisionGiveUp ends the run as escalation-exhausted
	DecisionGiveUp Decision = "give_up"
)

// DecisionPolicy decides how to escalate after a rejection. The
// deterministic EscalationPolicy is the default; an adaptive policy (one
// that asks an LLM what to do next) can be swapped in without touching the
// orchestration loop.
type DecisionPolicy interface {
	Decide(state *RunState) Decision
}

// EscalationPolicy is the deterministic threshold policy: retry under the
// same plan first, re-plan on repeated rejection, give up when attempts
// under one plan exceed the ceiling.
type EscalationPolicy struct {
	cfg config.EscalationConfig
}

// NewEscalationPolicy creates a policy from escalation thresholds
func NewEscalationPolicy(cfg config.EscalationConfig) *EscalationPolicy {
	cfg.SetDefaults()
	return &EscalationPolicy{cfg: cfg}
}

// Decide implements DecisionPolicy
func (p *EscalationPolicy) Decide(state *RunState) Decision {
	switch {
	case state.WorkerAttempts >= p.cfg.GiveUpThreshold:
		return DecisionGiveUp
	case state.WorkerAttempts >= p.cfg.ReplanThreshold:
		return DecisionReplan
	default:
		return DecisionRetry
	}
}
