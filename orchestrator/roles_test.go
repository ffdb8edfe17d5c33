package orchestrator

import (
	"strings"
	"testing"
)

func TestParsePlanSteps(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   []string
	}{
		{
			name:   "numbered with dots",
			output: "1. First step\n2. Second step\n3. Third step",
			want:   []string{"First step", "Second step", "Third step"},
		},
		{
			name:   "numbered with parens",
			output: "1) First step\n2) Second step",
			want:   []string{"First step", "Second step"},
		},
		{
			name:   "preamble ignored when numbering present",
			output: "Here is the plan:\n\n1. Gather sources\n2. Write the draft",
			want:   []string{"Gather sources", "Write the draft"},
		},
		{
			name:   "unnumbered falls back to lines",
			output: "Gather sources\nWrite the draft",
			want:   []string{"Gather sources", "Write the draft"},
		},
		{
			name:   "blank output",
			output: "   \n  \n",
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parsePlanSteps(tt.output)
			if len(got) != len(tt.want) {
				t.Fatalf("Expected %d steps, got %d: %v", len(tt.want), len(got), got)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("Step %d: expected %q, got %q", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestParseCriticReview(t *testing.T) {
	tests := []struct {
		name         string
		output       string
		wantApproved bool
		wantFeedback string
	}{
		{
			name:         "approval",
			output:       "APPROVED: YES\nFEEDBACK: Clear and complete.",
			wantApproved: true,
			wantFeedback: "Clear and complete.",
		},
		{
			name:         "rejection",
			output:       "APPROVED: NO\nFEEDBACK: Missing the conclusion.",
			wantApproved: false,
			wantFeedback: "Missing the conclusion.",
		},
		{
			name:         "case insensitive verdict",
			output:       "approved: yes\nfeedback: fine",
			wantApproved: true,
			wantFeedback: "fine",
		},
		{
			name:         "multibyte runes before the marker",
			output:       "APPROVED: NO\nThe transcription misuses ɐ and ʊ throughout.\nFEEDBACK: Fix the vowel symbols.",
			wantApproved: false,
			wantFeedback: "Fix the vowel symbols.",
		},
		{
			name:         "malformed review treated as rejection",
			output:       "This looks mostly fine but I am not sure.",
			wantApproved: false,
			wantFeedback: "This looks mostly fine but I am not sure.",
		},
		{
			name:         "empty feedback falls back to full text",
			output:       "APPROVED: NO\nFEEDBACK:",
			wantApproved: false,
			wantFeedback: "APPROVED: NO\nFEEDBACK:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			approved, feedback := parseCriticReview(tt.output)
			if approved != tt.wantApproved {
				t.Errorf("approved = %v, want %v", approved, tt.wantApproved)
			}
			if feedback != tt.wantFeedback {
				t.Errorf("feedback = %q, want %q", feedback, tt.wantFeedback)
			}
		})
	}
}

func TestBuildPlannerPromptInitial(t *testing.T) {
	state := NewRunState("Write a haiku about Go")
	prompt := buildPlannerPrompt(state)

	if !strings.Contains(prompt, "Write a haiku about Go") {
		t.Error("Prompt should contain the task")
	}
	if strings.Contains(prompt, "PREVIOUS PLAN FAILED") {
		t.Error("Initial planning prompt must not mention prior failures")
	}
}

func TestBuildWorkerPromptFirstAttempt(t *testing.T) {
	state := NewRunState("Write a haiku about Go")
	state.Plan = []string{"Pick a theme", "Write three lines"}

	prompt := buildWorkerPrompt(state)
	if !strings.Contains(prompt, "1. Pick a theme") || !strings.Contains(prompt, "2. Write three lines") {
		t.Error("Prompt should render the plan as a numbered list")
	}
	if strings.Contains(prompt, "PREVIOUS ATTEMPTS") {
		t.Error("First attempt must not include revision context")
	}
}

func TestBuildWorkerPromptExcludesStalePlanHistory(t *testing.T) {
	state := NewRunState("Write a haiku about Go")
	state.Plan = []string{"New approach"}
	state.WorkerAttempts = 1
	state.Feedback = "Too literal"

	state.appendHistory(HistoryEntry{Role: RolePlanner, Version: 1, Content: "old plan"})
	state.appendHistory(HistoryEntry{Role: RoleWorker, Attempt: 1, Content: "stale output from the old plan"})
	state.appendHistory(HistoryEntry{Role: RolePlanner, Version: 2, Content: "new plan"})
	state.appendHistory(HistoryEntry{Role: RoleWorker, Attempt: 1, Content: "current plan output"})

	prompt := buildWorkerPrompt(state)
	if strings.Contains(prompt, "stale output from the old plan") {
		t.Error("Worker prompt must not include history from a superseded plan")
	}
	if !strings.Contains(prompt, "current plan output") {
		t.Error("Worker prompt should include attempts under the current plan")
	}
	if !strings.Contains(prompt, "Too literal") {
		t.Error("Worker prompt should include the latest feedback")
	}
}

func TestRunWorkerWithoutPlan(t *testing.T) {
	state := NewRunState("task")
	inv := invocation{}

	err := runWorker(inv, state)
	if err == nil {
		t.Fatal("Expected contract violation for worker without a plan")
	}
	if reasonOf(err) != ReasonContractViolation {
		t.Errorf("Expected contract violation, got %s", reasonOf(err))
	}
}

func TestRunCriticWithoutResult(t *testing.T) {
	state := NewRunState("task")
	inv := invocation{}

	err := runCritic(inv, state)
	if err == nil {
		t.Fatal("Expected contract violation for critic without worker output")
	}
	if reasonOf(err) != ReasonContractViolation {
		t.Errorf("Expected contract violation, got %s", reasonOf(err))
	}
}
