package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/troika-ai/troika/llms"
	"github.com/troika-ai/troika/logger"
	"github.com/troika-ai/troika/utils"
)

// ============================================================================
// INVOKER BOUNDARY
// ============================================================================

// Invoker is the external boundary that turns a role plus a structured
// prompt into generated text and a token count. It stands in for any
// LLM-calling mechanism.
type Invoker interface {
	Invoke(ctx context.Context, role Role, prompt string) (output string, tokensUsed int, err error)
}

// LLMInvoker adapts an llms.LLMProvider to the Invoker interface. When the
// provider does not report usage, tokens are estimated locally so the token
// budget gate still binds.
type LLMInvoker struct {
	provider llms.LLMProvider
	counter  *utils.TokenCounter
}

// NewLLMInvoker creates an invoker backed by the given provider
func NewLLMInvoker(provider llms.LLMProvider) *LLMInvoker {
	// Counter creation only fails for unresolvable encodings; the estimate
	// then degrades to a character heuristic inside EstimateTokensForText.
	counter, _ := utils.NewTokenCounter(provider.GetModelName())

	return &LLMInvoker{
		provider: provider,
		counter:  counter,
	}
}

// Invoke implements Invoker
func (i *LLMInvoker) Invoke(ctx context.Context, role Role, prompt string) (string, int, error) {
	output, tokens, err := i.provider.Generate(ctx, prompt)
	if err != nil {
		return "", 0, fmt.Errorf("%s invocation failed: %w", role, err)
	}

	if tokens == 0 {
		tokens = i.counter.EstimateTokensForText(prompt) + i.counter.EstimateTokensForText(output)
	}

	return output, tokens, nil
}

// ============================================================================
// RETRY POLICY
// ============================================================================

// DefaultRetryDelay is the fixed wait before the single retry of a
// transient failure.
const DefaultRetryDelay = 2 * time.Second

// RetryInvoker decorates an Invoker with the retry policy for transient
// failures: exactly one retry after a fixed short delay. A second
// consecutive failure for the same call is promoted to a fatal invocation
// failure. Non-transient failures are never retried.
type RetryInvoker struct {
	inner Invoker
	delay time.Duration
	log   *slog.Logger
}

// NewRetryInvoker wraps an invoker with the single-retry policy
func NewRetryInvoker(inner Invoker) *RetryInvoker {
	return &RetryInvoker{
		inner: inner,
		delay: DefaultRetryDelay,
		log:   logger.GetLogger(),
	}
}

// WithDelay overrides the fixed retry delay
func (r *RetryInvoker) WithDelay(delay time.Duration) *RetryInvoker {
	r.delay = delay
	return r
}

// Invoke implements Invoker
func (r *RetryInvoker) Invoke(ctx context.Context, role Role, prompt string) (string, int, error) {
	output, tokens, err := r.inner.Invoke(ctx, role, prompt)
	if err == nil {
		return output, tokens, nil
	}

	if !IsTransient(err) {
		return "", 0, err
	}

	r.log.Warn("transient invocation failure, retrying once",
		"role", string(role),
		"delay", r.delay.String(),
		"error", err.Error())

	select {
	case <-time.After(r.delay):
	case <-ctx.Done():
		return "", 0, ctx.Err()
	}

	output, tokens, err = r.inner.Invoke(ctx, role, prompt)
	if err != nil {
		return "", 0, fmt.Errorf("retry exhausted for %s: %w", role, err)
	}
	return output, tokens, nil
}
