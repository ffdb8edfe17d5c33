package orchestrator

import (
	"fmt"
	"regexp"
	"strings"
)

// ============================================================================
// ROLE ADAPTERS
// Each adapter builds its prompt, calls the Invoker, and writes only the
// state fields it contractually owns.
// ============================================================================

const plannerSystemPrompt = `You are a Planner agent. Your job is to break down complex tasks into clear, executable step-by-step plans.

Create a detailed plan that a Worker agent can follow. Be specific about what needs to be done at each step.

Return ONLY the plan as a numbered list. Example:
1. First step description
2. Second step description
3. Third step description`

const workerSystemPrompt = `You are a Worker agent. Your job is to execute the given plan and produce the requested output.

Execute ALL steps in the plan. Be thorough and complete. Produce the final deliverable.

If you're revising based on feedback, address ALL the issues mentioned.`

const criticSystemPrompt = `You are a Critic agent. Your job is to review the Worker's output against the original task requirements.

Provide honest, constructive feedback. Be specific about what needs improvement.

Return your review in this exact format:

APPROVED: [YES or NO]
FEEDBACK: [Specific feedback on what's good and what needs improvement]

If approving, explain why it meets requirements.
If rejecting, be specific about what needs to be fixed.`

// ============================================================================
// PLANNER
// ============================================================================

// buildPlannerPrompt assembles the planning prompt. On re-plan the prior
// plan, results and feedback are included so the new plan is informed, not
// blind repetition.
func buildPlannerPrompt(state *RunState) string {
	var b strings.Builder

	b.WriteString(plannerSystemPrompt)
	b.WriteString("\n\nTASK:\n")
	b.WriteString(state.Task)
	b.WriteString("\n\n")

	if state.PlanVersion > 0 {
		b.WriteString("PREVIOUS PLAN FAILED. History:\n")
		b.WriteString(formatHistory(state.History))
		b.WriteString("\n\nCreate an IMPROVED plan that addresses the issues in previous attempts.\n\n")
	}

	b.WriteString("Create the execution plan:")
	return b.String()
}

// runPlanner invokes the Planner: it writes plan and plan_version, resets
// worker_attempts, appends one history entry, and adds its token usage.
func runPlanner(inv invocation, state *RunState) error {
	if state.Task == "" {
		return newContractViolation("planner", "plan", "task must be non-empty")
	}

	output, tokens, err := inv.call(RolePlanner, buildPlannerPrompt(state))
	if err != nil {
		return newInvocationError("planner", "plan", err)
	}

	steps := parsePlanSteps(output)
	if len(steps) == 0 {
		return newContractViolation("planner", "plan", "planner returned an empty plan")
	}

	state.Plan = steps
	state.PlanVersion++
	state.WorkerAttempts = 0
	state.TotalTokens += tokens
	state.appendHistory(HistoryEntry{
		Role:    RolePlanner,
		Version: state.PlanVersion,
		Content: output,
	})

	return nil
}

// parsePlanSteps extracts ordered steps from planner output. Numbered lines
// ("1. ..." or "1) ...") are preferred; if the output has no numbering,
// each non-empty line becomes a step.
var planStepPattern = regexp.MustCompile(`^\s*\d+[\.\)]\s*(.+)$`)

func parsePlanSteps(output string) []string {
	var numbered []string
	var plain []string

	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if m := planStepPattern.FindStringSubmatch(line); m != nil {
			numbered = append(numbered, strings.TrimSpace(m[1]))
		}
		plain = append(plain, trimmed)
	}

	if len(numbered) > 0 {
		return numbered
	}
	return plain
}

// ============================================================================
// WORKER
// ============================================================================

// buildWorkerPrompt assembles the execution prompt. Revisions include the
// prior attempts and feedback for the current plan version only; entries
// from before the last re-plan describe a different plan and are excluded.
func buildWorkerPrompt(state *RunState) string {
	var b strings.Builder

	b.WriteString(workerSystemPrompt)
	b.WriteString("\n\nORIGINAL TASK:\n")
	b.WriteString(state.Task)
	b.WriteString("\n\nEXECUTION PLAN:\n")
	for i, step := range state.Plan {
		b.WriteString(fmt.Sprintf("%d. %s\n", i+1, step))
	}
	b.WriteString("\n")

	if state.WorkerAttempts > 0 {
		b.WriteString("PREVIOUS ATTEMPTS AND FEEDBACK:\n")
		b.WriteString(formatHistory(state.historyForCurrentPlan()))
		b.WriteString("\n\nLATEST CRITIC FEEDBACK:\n")
		b.WriteString(state.Feedback)
		b.WriteString("\n\nCreate an IMPROVED version that addresses all feedback.\n\n")
	}

	b.WriteString("Execute the plan and produce the complete result:")
	return b.String()
}

// runWorker invokes the Worker: it writes result, increments
// worker_attempts, appends one history entry, and adds its token usage.
// Calling it without a plan is a contract violation, not a runtime error.
func runWorker(inv invocation, state *RunState) error {
	if len(state.Plan) == 0 {
		return newContractViolation("worker", "work", "worker called without a plan; planner must run first")
	}

	output, tokens, err := inv.call(RoleWorker, buildWorkerPrompt(state))
	if err != nil {
		return newInvocationError("worker", "work", err)
	}

	state.Result = &output
	state.WorkerAttempts++
	state.TotalTokens += tokens
	state.appendHistory(HistoryEntry{
		Role:    RoleWorker,
		Attempt: state.WorkerAttempts,
		Content: output,
	})

	return nil
}

// ============================================================================
// CRITIC
// ============================================================================

// buildCriticPrompt assembles the review prompt from the task and the
// Worker's latest output.
func buildCriticPrompt(state *RunState) string {
	var b strings.Builder

	b.WriteString(criticSystemPrompt)
	b.WriteString("\n\nORIGINAL TASK:\n")
	b.WriteString(state.Task)
	b.WriteString("\n\nWORKER'S OUTPUT:\n")
	b.WriteString(*state.Result)
	b.WriteString("\n\nReview the output and provide your assessment:")
	return b.String()
}

// runCritic invokes the Critic: it writes approved and feedback, appends
// one history entry, and adds its token usage. Calling it before the Worker
// has produced a result is a contract violation.
func runCritic(inv invocation, state *RunState) error {
	if state.Result == nil {
		return newContractViolation("critic", "critique", "critic called without worker output; worker must run first")
	}

	output, tokens, err := inv.call(RoleCritic, buildCriticPrompt(state))
	if err != nil {
		return newInvocationError("critic", "critique", err)
	}

	approved, feedback := parseCriticReview(output)

	state.Approved = approved
	state.Feedback = feedback
	state.TotalTokens += tokens
	state.appendHistory(HistoryEntry{
		Role:     RoleCritic,
		Attempt:  state.WorkerAttempts,
		Content:  output,
		Approved: &approved,
		Feedback: feedback,
	})

	return nil
}

// feedbackMarkerPattern locates the FEEDBACK: marker case-insensitively.
// The match is taken on the original string; indexing into a case-folded
// copy is unsafe because case conversion can change rune byte lengths.
var feedbackMarkerPattern = regexp.MustCompile(`(?i)feedback:`)

// parseCriticReview extracts the verdict and feedback from critic output.
// Rejections always carry non-empty feedback: when no FEEDBACK: section is
// found, the full review text is used so the Worker has something concrete
// to revise against.
func parseCriticReview(output string) (approved bool, feedback string) {
	approved = strings.Contains(strings.ToUpper(output), "APPROVED: YES")

	if loc := feedbackMarkerPattern.FindStringIndex(output); loc != nil {
		feedback = strings.TrimSpace(output[loc[1]:])
	}
	if feedback == "" {
		feedback = strings.TrimSpace(output)
	}
	return approved, feedback
}
