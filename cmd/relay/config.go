package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/relay/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		key, _ := config.GetAPIKey(cfg)

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "User config:     %s\n", config.GetUserConfigPath())
		if project := config.GetProjectConfigPath(); project != "" {
			fmt.Fprintf(out, "Project config:  %s\n", project)
		}
		fmt.Fprintf(out, "API key:         %s\n", config.MaskAPIKey(key))
		if cfg.Anthropic.UseAWSBedrock {
			fmt.Fprintf(out, "Backend:         AWS Bedrock (%s)\n", cfg.Anthropic.AWSRegion)
		} else {
			fmt.Fprintf(out, "Backend:         Anthropic API\n")
		}
		if cfg.Anthropic.Model != "" {
			fmt.Fprintf(out, "Model:           %s\n", cfg.Anthropic.Model)
		}
		fmt.Fprintf(out, "Coordinator:     %v\n", cfg.Orchestrator.UseCoordinator)
		fmt.Fprintf(out, "Subtask timeout: %s\n", cfg.Orchestrator.SubtaskTimeout)
		fmt.Fprintf(out, "Turn timeout:    %s\n", cfg.Orchestrator.TurnTimeout)
		if cfg.Agents.Manifest != "" {
			fmt.Fprintf(out, "Agent manifest:  %s\n", cfg.Agents.Manifest)
		}
		return nil
	},
}
