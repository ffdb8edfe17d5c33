package orchestrator

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/troika-ai/troika/config"
	"github.com/troika-ai/troika/logger"
	"github.com/troika-ai/troika/observability"
)

// ============================================================================
// ORCHESTRATOR
// Coordinates Planner, Worker and Critic with budget gates and escalation.
// The loop is deterministic Go rules, not an LLM, so runs are predictable.
// ============================================================================

// Orchestrator owns the run state machine. Create one with New; a single
// Orchestrator can execute multiple runs sequentially, each with a fresh
// RunState.
type Orchestrator struct {
	budget  config.BudgetConfig
	policy  DecisionPolicy
	invoker Invoker
	audit   AuditWriter
	log     *slog.Logger
	tracer  trace.Tracer
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithDecisionPolicy swaps the escalation policy
func WithDecisionPolicy(p DecisionPolicy) Option {
	return func(o *Orchestrator) { o.policy = p }
}

// WithAuditWriter attaches an audit event consumer
func WithAuditWriter(w AuditWriter) Option {
	return func(o *Orchestrator) { o.audit = w }
}

// WithLogger overrides the default logger
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.log = l }
}

// New creates an Orchestrator with the given budget gates and Invoker.
// Budgets are per-orchestrator arguments, not globals, so runs with
// different budgets can coexist.
func New(budget config.BudgetConfig, invoker Invoker, opts ...Option) *Orchestrator {
	budget.SetDefaults()

	o := &Orchestrator{
		budget:  budget,
		policy:  NewEscalationPolicy(config.DefaultEscalationConfig()),
		invoker: invoker,
		audit:   NopAuditWriter{},
		log:     logger.GetLogger(),
		tracer:  observability.GetTracer("troika/orchestrator"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RunResult is the terminal outcome of a run. Callers must inspect Status
// and, on failure, Reason: budget and escalation exhaustion are normal
// outcomes that may succeed with a different task or budget, while
// invocation errors point at the provider and contract violations at a bug.
type RunResult struct {
	RunID       string         `json:"run_id"`
	Status      Status         `json:"status"`
	Reason      FailureReason  `json:"reason,omitempty"`
	Result      string         `json:"result,omitempty"`
	TotalTokens int            `json:"total_tokens"`
	Iterations  int            `json:"iterations"`
	History     []HistoryEntry `json:"history"`
}

// invocation binds a context and an Invoker for one role call
type invocation struct {
	ctx     context.Context
	invoker Invoker
}

func (i invocation) call(role Role, prompt string) (string, int, error) {
	return i.invoker.Invoke(i.ctx, role, prompt)
}

// Run executes the full orchestration for one task: plan once, then loop
// Worker and Critic under the escalation policy until approval, budget
// exhaustion, or escalation exhaustion.
//
// The returned error is non-nil only for invocation errors and contract
// violations; budget and escalation exhaustion are reported through the
// RunResult alone.
func (o *Orchestrator) Run(ctx context.Context, task string) (*RunResult, error) {
	if task == "" {
		err := newContractViolation("orchestrator", "run", "task must be non-empty")
		return &RunResult{Status: StatusFailed, Reason: ReasonContractViolation}, err
	}

	state := NewRunState(task)

	o.log.Info("run started",
		"run_id", state.ID,
		"max_iterations", o.budget.MaxIterations,
		"max_tokens", o.budget.MaxTotalTokens)
	o.writeAudit(state, "run_started", map[string]interface{}{
		"task":           task,
		"max_iterations": o.budget.MaxIterations,
		"max_tokens":     o.budget.MaxTotalTokens,
	})

	// Seed the plan
	if err := o.invokePlanner(ctx, state); err != nil {
		return o.finishErr(state, err)
	}

	for state.Iteration < o.budget.MaxIterations {
		// Budget gates take precedence over escalation: a run that could
		// otherwise retry or re-plan stops here if the budget is spent.
		if state.TotalTokens >= o.budget.MaxTotalTokens {
			return o.finish(state, ReasonBudgetExhausted), nil
		}

		o.log.Info("iteration started",
			"run_id", state.ID,
			"iteration", state.Iteration+1,
			"tokens_used", state.TotalTokens)

		if state.TotalTokens*10 >= o.budget.MaxTotalTokens*8 {
			o.log.Warn("token budget nearly exhausted",
				"run_id", state.ID,
				"tokens_used", state.TotalTokens,
				"max_tokens", o.budget.MaxTotalTokens)
		}

		if err := o.invokeWorker(ctx, state); err != nil {
			return o.finishErr(state, err)
		}

		if state.TotalTokens >= o.budget.MaxTotalTokens {
			return o.finish(state, ReasonBudgetExhausted), nil
		}

		if err := o.invokeCritic(ctx, state); err != nil {
			return o.finishErr(state, err)
		}

		// An iteration is one completed Worker-Critic cycle; a run that
		// stops between the two does not count the partial cycle.
		state.Iteration++

		if state.Approved {
			return o.succeed(state), nil
		}

		decision := o.policy.Decide(state)
		o.log.Info("escalation decision",
			"run_id", state.ID,
			"decision", string(decision),
			"worker_attempts", state.WorkerAttempts,
			"plan_version", state.PlanVersion)
		o.writeAudit(state, "escalation", map[string]interface{}{
			"decision":        string(decision),
			"worker_attempts": state.WorkerAttempts,
		})

		switch decision {
		case DecisionGiveUp:
			return o.finish(state, ReasonEscalationExhausted), nil
		case DecisionReplan:
			if state.TotalTokens >= o.budget.MaxTotalTokens {
				return o.finish(state, ReasonBudgetExhausted), nil
			}
			if err := o.invokePlanner(ctx, state); err != nil {
				return o.finishErr(state, err)
			}
		case DecisionRetry:
			// Worker revises with the Critic's feedback on the next cycle
		}
	}

	return o.finish(state, ReasonBudgetExhausted), nil
}

// ============================================================================
// ROLE INVOCATION WRAPPERS
// ============================================================================

func (o *Orchestrator) invokePlanner(ctx context.Context, state *RunState) error {
	if state.Status.Terminal() {
		return newContractViolation("orchestrator", "plan", "role invoked after terminal status")
	}

	ctx, span := o.tracer.Start(ctx, "orchestrator.plan")
	defer span.End()

	before := state.TotalTokens
	err := runPlanner(invocation{ctx: ctx, invoker: o.invoker}, state)
	span.SetAttributes(
		attribute.String("role", string(RolePlanner)),
		attribute.Int("plan_version", state.PlanVersion),
		attribute.Int("tokens", state.TotalTokens-before),
	)
	if err != nil {
		span.RecordError(err)
		return err
	}

	o.log.Info("plan created",
		"run_id", state.ID,
		"plan_version", state.PlanVersion,
		"steps", len(state.Plan),
		"tokens", state.TotalTokens-before)
	o.writeAudit(state, "planner_call", map[string]interface{}{
		"plan_version": state.PlanVersion,
		"steps":        len(state.Plan),
		"tokens":       state.TotalTokens - before,
	})
	return nil
}

func (o *Orchestrator) invokeWorker(ctx context.Context, state *RunState) error {
	if state.Status.Terminal() {
		return newContractViolation("orchestrator", "work", "role invoked after terminal status")
	}

	ctx, span := o.tracer.Start(ctx, "orchestrator.work")
	defer span.End()

	before := state.TotalTokens
	err := runWorker(invocation{ctx: ctx, invoker: o.invoker}, state)
	span.SetAttributes(
		attribute.String("role", string(RoleWorker)),
		attribute.Int("attempt", state.WorkerAttempts),
		attribute.Int("tokens", state.TotalTokens-before),
	)
	if err != nil {
		span.RecordError(err)
		return err
	}

	o.log.Info("work completed",
		"run_id", state.ID,
		"attempt", state.WorkerAttempts,
		"tokens", state.TotalTokens-before)
	o.writeAudit(state, "worker_call", map[string]interface{}{
		"attempt": state.WorkerAttempts,
		"tokens":  state.TotalTokens - before,
	})
	return nil
}

func (o *Orchestrator) invokeCritic(ctx context.Context, state *RunState) error {
	if state.Status.Terminal() {
		return newContractViolation("orchestrator", "critique", "role invoked after terminal status")
	}

	ctx, span := o.tracer.Start(ctx, "orchestrator.critique")
	defer span.End()

	before := state.TotalTokens
	err := runCritic(invocation{ctx: ctx, invoker: o.invoker}, state)
	span.SetAttributes(
		attribute.String("role", string(RoleCritic)),
		attribute.Bool("approved", state.Approved),
		attribute.Int("tokens", state.TotalTokens-before),
	)
	if err != nil {
		span.RecordError(err)
		return err
	}

	o.log.Info("review completed",
		"run_id", state.ID,
		"approved", state.Approved,
		"tokens", state.TotalTokens-before)
	o.writeAudit(state, "critic_call", map[string]interface{}{
		"approved": state.Approved,
		"tokens":   state.TotalTokens - before,
	})
	return nil
}

// ============================================================================
// TERMINATION
// ============================================================================

func (o *Orchestrator) buildResult(state *RunState, reason FailureReason) *RunResult {
	res := &RunResult{
		RunID:       state.ID,
		Status:      state.Status,
		Reason:      reason,
		TotalTokens: state.TotalTokens,
		Iterations:  state.Iteration,
		History:     state.History,
	}
	if state.Status == StatusSucceeded && state.Result != nil {
		res.Result = *state.Result
	}
	return res
}

func (o *Orchestrator) succeed(state *RunState) *RunResult {
	state.Status = StatusSucceeded

	o.log.Info("run succeeded",
		"run_id", state.ID,
		"iterations", state.Iteration,
		"total_tokens", state.TotalTokens)
	o.writeAudit(state, "run_finished", map[string]interface{}{
		"status":       string(StatusSucceeded),
		"iterations":   state.Iteration,
		"total_tokens": state.TotalTokens,
	})

	return o.buildResult(state, "")
}

func (o *Orchestrator) finish(state *RunState, reason FailureReason) *RunResult {
	state.Status = StatusFailed

	o.log.Warn("run failed",
		"run_id", state.ID,
		"reason", string(reason),
		"iterations", state.Iteration,
		"total_tokens", state.TotalTokens)
	o.writeAudit(state, "run_finished", map[string]interface{}{
		"status":       string(StatusFailed),
		"reason":       string(reason),
		"iterations":   state.Iteration,
		"total_tokens": state.TotalTokens,
	})

	return o.buildResult(state, reason)
}

func (o *Orchestrator) finishErr(state *RunState, err error) (*RunResult, error) {
	reason := reasonOf(err)
	state.Status = StatusFailed

	o.log.Error("run failed",
		"run_id", state.ID,
		"reason", string(reason),
		"error", err.Error())
	o.writeAudit(state, "run_finished", map[string]interface{}{
		"status": string(StatusFailed),
		"reason": string(reason),
		"error":  err.Error(),
	})

	return o.buildResult(state, reason), err
}

// writeAudit emits an audit event; audit failures are logged, never fatal
func (o *Orchestrator) writeAudit(state *RunState, eventType string, data map[string]interface{}) {
	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		RunID:     state.ID,
		EventType: eventType,
		Data:      data,
	}
	if err := o.audit.Write(event); err != nil {
		o.log.Debug("audit write failed", "error", err.Error())
	}
}
