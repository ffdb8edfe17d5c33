// Package orchestrator implements the Planner-Worker-Critic control loop.
//
// A single run owns one RunState. The orchestrator sequences role
// invocations over it, applies the escalation policy on Critic rejections,
// and enforces iteration and token budget gates before every transition.
package orchestrator

import (
	"time"

	"github.com/google/uuid"
)

// ============================================================================
// ROLES AND RUN STATUS
// ============================================================================

// Role identifies one of the three orchestrated units
type Role string

const (
	RolePlanner Role = "planner"
	RoleWorker  Role = "worker"
	RoleCritic  Role = "critic"
)

// Status represents the lifecycle state of a run
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
)

// Terminal reports whether the status is final
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// ============================================================================
// RUN STATE
// ============================================================================

// HistoryEntry records one role invocation's salient output. History is
// append-only and ordered by invocation; it is the auditable record of what
// each role saw and produced.
type HistoryEntry struct {
	Role      Role      `json:"role"`
	Version   int       `json:"version,omitempty"` // plan version (planner entries)
	Attempt   int       `json:"attempt,omitempty"` // worker attempt (worker/critic entries)
	Content   string    `json:"content"`
	Approved  *bool     `json:"approved,omitempty"` // critic entries only
	Feedback  string    `json:"feedback,omitempty"` // critic entries only
	Timestamp time.Time `json:"timestamp"`
}

// RunState is the shared state for a single orchestration run. It has
// exactly one owner (the Orchestrator); role adapters receive it by pointer
// and write only the fields they contractually own.
type RunState struct {
	// Run identity
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`

	// Input
	Task string `json:"task"`

	// Planner output
	Plan        []string `json:"plan,omitempty"`
	PlanVersion int      `json:"plan_version"`

	// Worker output. Nil until the first Worker invocation.
	Result         *string `json:"result,omitempty"`
	WorkerAttempts int     `json:"worker_attempts"`

	// Critic output
	Approved bool   `json:"approved"`
	Feedback string `json:"feedback,omitempty"`

	// History prevents roles from repeating mistakes and is the audit trail
	History []HistoryEntry `json:"history"`

	// Metadata
	TotalTokens int    `json:"total_tokens"`
	Iteration   int    `json:"iteration"`
	Status      Status `json:"status"`
}

// NewRunState creates the state for a fresh run
func NewRunState(task string) *RunState {
	return &RunState{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Task:      task,
		History:   make([]HistoryEntry, 0),
		Status:    StatusInProgress,
	}
}

// appendHistory appends an entry, stamping it with the current time
func (s *RunState) appendHistory(entry HistoryEntry) {
	entry.Timestamp = time.Now().UTC()
	s.History = append(s.History, entry)
}

// historyForCurrentPlan returns the history entries produced under the
// current plan version: everything after the most recent planner entry.
// Entries from before the last re-plan describe a different plan and are
// excluded from Worker context.
func (s *RunState) historyForCurrentPlan() []HistoryEntry {
	for i := len(s.History) - 1; i >= 0; i-- {
		if s.History[i].Role == RolePlanner {
			return s.History[i+1:]
		}
	}
	return s.History
}
