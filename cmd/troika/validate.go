package main

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/troika-ai/troika/config"
)

// ValidateCmd validates a configuration file.
type ValidateCmd struct {
	Config string `arg:"" name:"config" help:"Configuration file path." placeholder:"PATH"`

	// PrintConfig prints the expanded configuration
	PrintConfig bool `short:"p" name:"print-config" help:"Print the expanded configuration (with defaults applied and env vars resolved)."`
}

// Run executes the validate command.
func (c *ValidateCmd) Run(cli *CLI) error {
	cfg, err := config.LoadFromFile(c.Config)
	if err != nil {
		return fmt.Errorf("%s: %w", c.Config, err)
	}

	if c.PrintConfig {
		out, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to render configuration: %w", err)
		}
		fmt.Print(string(out))
		return nil
	}

	fmt.Printf("%s: configuration is valid\n", c.Config)
	return nil
}
