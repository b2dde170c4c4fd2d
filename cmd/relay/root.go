package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "relay [request]",
	Short: "Multi-agent request orchestrator",
	Long: `Relay routes a request through a roster of specialized agents.

Simple requests are answered directly. Complex ones are decomposed by a
coordinator into subtasks, dispatched to web-search, file-reading, and
code-analysis agents in dependency order, and synthesized into one answer.

With arguments, behaves like "relay ask":

  relay "Search the web for Go 1.23 changes and summarize them"`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		return runAsk(cmd, strings.Join(args, " "))
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	addAskFlags(rootCmd)

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(agentsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
