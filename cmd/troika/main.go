// Command troika runs a task through the Planner-Worker-Critic orchestrator.
//
// Usage:
//
//	troika run "Write a 3-sentence summary of photosynthesis"
//	troika run --provider anthropic --model claude-sonnet-4-20250514 "..."
//	troika run --config troika.yaml "..."
//	troika validate troika.yaml
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	troika "github.com/troika-ai/troika"
	"github.com/troika-ai/troika/config"
	"github.com/troika-ai/troika/llms"
	"github.com/troika-ai/troika/observability"
	"github.com/troika-ai/troika/orchestrator"
)

// CLI defines the command-line interface.
type CLI struct {
	Version  VersionCmd  `cmd:"" help:"Show version information."`
	Run      RunCmd      `cmd:"" help:"Run a task through the orchestrator."`
	Validate ValidateCmd `cmd:"" help:"Validate a configuration file."`

	Config    string `short:"c" help:"Path to config file." type:"path"`
	LogLevel  string `help:"Log level (debug, info, warn, error)." default:"info"`
	LogFile   string `help:"Log file path (empty = stderr)."`
	LogFormat string `help:"Log format (simple, verbose, json)." default:"simple"`
}

// VersionCmd shows version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Println(troika.GetVersion().String())
	return nil
}

// RunCmd executes one orchestration run.
type RunCmd struct {
	Task string `arg:"" help:"Task for the orchestrator to accomplish."`

	// Zero-config options
	Provider string `help:"LLM provider (openai, anthropic, ollama)." default:"openai"`
	Model    string `help:"Model name."`
	APIKey   string `name:"api-key" help:"API key (defaults to environment variable)."`

	// Budget overrides
	MaxIterations int `name:"max-iterations" help:"Maximum Worker-Critic cycles (0 = config default)."`
	MaxTokens     int `name:"max-tokens" help:"Total token budget for the run (0 = config default)."`

	// Output options
	AuditLog string `name:"audit-log" help:"Append orchestration events to this JSONL file." type:"path"`
	Export   string `help:"Write the run history as JSONL to this path." type:"path"`
	Quiet    bool   `short:"q" help:"Print only the final result."`

	// Observability
	Observe bool `help:"Enable OTLP tracing to localhost:4317."`
}

func (c *RunCmd) Run(cli *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := c.loadConfig(cli)
	if err != nil {
		return err
	}

	if c.Observe {
		cfg.Tracing.Enabled = true
	}
	tp, err := observability.InitGlobalTracer(ctx, observability.TracerConfig{
		Enabled:      cfg.Tracing.Enabled,
		EndpointURL:  cfg.Tracing.EndpointURL,
		SamplingRate: cfg.Tracing.SamplingRate,
		ServiceName:  cfg.Tracing.ServiceName,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() { _ = observability.Shutdown(context.Background(), tp) }()

	llmName := cfg.Orchestrator.LLM
	llmCfg, ok := cfg.LLMs[llmName]
	if !ok {
		return fmt.Errorf("no LLM provider named '%s' in configuration", llmName)
	}

	registry := llms.NewLLMRegistry()
	provider, err := registry.CreateLLMFromConfig(llmName, &llmCfg)
	if err != nil {
		return fmt.Errorf("failed to create LLM provider: %w", err)
	}
	defer func() { _ = provider.Close() }()

	invoker := orchestrator.NewRetryInvoker(orchestrator.NewLLMInvoker(provider))

	opts := []orchestrator.Option{
		orchestrator.WithDecisionPolicy(orchestrator.NewEscalationPolicy(cfg.Orchestrator.Escalation)),
	}

	auditPath := c.AuditLog
	if auditPath == "" {
		auditPath = cfg.Orchestrator.AuditLog
	}
	if auditPath != "" {
		audit, err := orchestrator.OpenJSONLAuditFile(auditPath)
		if err != nil {
			return err
		}
		defer func() { _ = audit.Close() }()
		opts = append(opts, orchestrator.WithAuditWriter(audit))
	}

	orch := orchestrator.New(cfg.Orchestrator.Budget, invoker, opts...)

	result, err := orch.Run(ctx, c.Task)
	if err != nil {
		return err
	}

	if c.Export != "" {
		if err := c.exportHistory(result); err != nil {
			return err
		}
	}

	if result.Status != orchestrator.StatusSucceeded {
		fmt.Fprintf(os.Stderr, "Run %s failed: %s (iterations: %d, tokens: %d)\n",
			result.RunID, result.Reason, result.Iterations, result.TotalTokens)
		return fmt.Errorf("run ended without an approved result: %s", result.Reason)
	}

	if !c.Quiet {
		fmt.Fprintf(os.Stderr, "Run %s succeeded (iterations: %d, tokens: %d)\n",
			result.RunID, result.Iterations, result.TotalTokens)
	}
	fmt.Println(result.Result)
	return nil
}

// loadConfig resolves the effective configuration: config file if given,
// zero-config flags otherwise, with budget flags overriding either.
func (c *RunCmd) loadConfig(cli *CLI) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if cli.Config != "" {
		cfg, err = config.LoadFromFile(cli.Config)
		if err != nil {
			return nil, err
		}
	} else {
		apiKey := c.APIKey
		if apiKey == "" {
			apiKey = apiKeyFromEnv(c.Provider)
		}
		cfg = config.DefaultConfig(c.Provider, c.Model, apiKey)
	}

	if c.MaxIterations > 0 {
		cfg.Orchestrator.Budget.MaxIterations = c.MaxIterations
	}
	if c.MaxTokens > 0 {
		cfg.Orchestrator.Budget.MaxTotalTokens = c.MaxTokens
	}
	return cfg, nil
}

func (c *RunCmd) exportHistory(result *orchestrator.RunResult) error {
	file, err := os.Create(c.Export)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer func() { _ = file.Close() }()
	return result.ExportHistory(file)
}

// apiKeyFromEnv returns the conventional environment variable for a provider
func apiKeyFromEnv(provider string) string {
	switch provider {
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	case "anthropic":
		return os.Getenv("ANTHROPIC_API_KEY")
	default:
		return ""
	}
}

func main() {
	_ = config.LoadEnvFiles()

	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("troika"),
		kong.Description("Troika - Planner-Worker-Critic LLM orchestrator"),
		kong.UsageOnError(),
	)

	cleanup, err := initLoggerFromCLI(cli.LogLevel, cli.LogFile, cli.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	if cleanup != nil {
		defer cleanup()
	}

	err = ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}
