package orchestrator

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ============================================================================
// FAILURE TAXONOMY
// ============================================================================

// FailureReason classifies why a run ended without an approved result.
// Budget and escalation exhaustion are normal terminal outcomes; invocation
// errors point at the external LLM boundary; contract violations are
// implementation bugs and fail fast.
type FailureReason string

const (
	ReasonInvocationError     FailureReason = "invocation_error"
	ReasonContractViolation   FailureReason = "contract_violation"
	ReasonBudgetExhausted     FailureReason = "budget_exhausted"
	ReasonEscalationExhausted FailureReason = "escalation_exhausted"
)

// OrchestratorError represents errors raised by the orchestrator or its
// role adapters, tagged with the failure reason they map to.
type OrchestratorError struct {
	Component string
	Operation string
	Reason    FailureReason
	Message   string
	Err       error
	Timestamp time.Time
}

func (e *OrchestratorError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Component, e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Component, e.Operation, e.Message)
}

func (e *OrchestratorError) Unwrap() error {
	return e.Err
}

// NewOrchestratorError creates a new orchestrator error
func NewOrchestratorError(component, operation string, reason FailureReason, message string, err error) *OrchestratorError {
	return &OrchestratorError{
		Component: component,
		Operation: operation,
		Reason:    reason,
		Message:   message,
		Err:       err,
		Timestamp: time.Now(),
	}
}

// newContractViolation tags an error as a programming-contract violation.
// These surface implementation bugs and are never retried.
func newContractViolation(component, operation, message string) *OrchestratorError {
	return NewOrchestratorError(component, operation, ReasonContractViolation, message, nil)
}

// newInvocationError tags a failure at the Invoker boundary.
func newInvocationError(component, operation string, err error) *OrchestratorError {
	return NewOrchestratorError(component, operation, ReasonInvocationError, "invocation failed", err)
}

// reasonOf extracts the failure reason from an error chain. Unclassified
// errors are treated as invocation errors since the Invoker boundary is the
// only external failure source.
func reasonOf(err error) FailureReason {
	var oerr *OrchestratorError
	if errors.As(err, &oerr) {
		return oerr.Reason
	}
	return ReasonInvocationError
}

// ============================================================================
// TRANSIENT FAILURES
// ============================================================================

// TransientError marks an Invoker failure as worth a single retry
// (rate limiting, transient network trouble).
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// MarkTransient wraps an error as transient
func MarkTransient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// transientSubstrings indicate retryable provider failures when the error
// is not explicitly marked.
var transientSubstrings = []string{
	"rate limit",
	"too many requests",
	"429",
	"500",
	"502",
	"503",
	"504",
	"timeout",
	"connection refused",
	"connection reset",
	"temporarily unavailable",
}

// IsTransient reports whether an error should be retried once. Explicitly
// marked errors are authoritative; otherwise provider HTTP errors are
// matched by substring.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var terr *TransientError
	if errors.As(err, &terr) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, substr := range transientSubstrings {
		if strings.Contains(msg, substr) {
			return true
		}
	}
	return false
}
