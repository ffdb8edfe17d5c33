// Package troika provides a deterministic Planner-Worker-Critic orchestrator
// for LLM-backed task execution.
//
// Troika coordinates three role-specialized LLM calls over a single shared
// run state: a Planner that decomposes the task into ordered steps, a Worker
// that executes the current plan, and a Critic that reviews the Worker's
// output and either approves it or returns actionable feedback.
//
// The orchestration loop itself is plain Go, not an LLM: escalation (retry
// with feedback, re-plan, give up) follows fixed thresholds, and hard budget
// gates on iterations and tokens bound every run.
//
// # Quick Start
//
// Install the CLI:
//
//	go install github.com/troika-ai/troika/cmd/troika@latest
//
// Run a task against OpenAI:
//
//	export OPENAI_API_KEY=sk-...
//	troika run "Write a 300-word blog post about multi-agent systems"
//
// Or embed the orchestrator:
//
//	provider, err := llms.NewOpenAIProviderFromConfig(&config.LLMProviderConfig{
//		Type:   "openai",
//		Model:  "gpt-4o-mini",
//		APIKey: os.Getenv("OPENAI_API_KEY"),
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	orch := orchestrator.New(
//		config.DefaultBudgetConfig(),
//		orchestrator.NewRetryInvoker(orchestrator.NewLLMInvoker(provider)),
//	)
//	result, err := orch.Run(ctx, "Summarize the attached notes")
//
// See the orchestrator package for the run state machine and the llms
// package for the provider boundary.
package troika
