package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/relay/internal/config"
	"github.com/ShayCichocki/relay/internal/registry"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List the configured agent roster",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		manifest := registry.DefaultManifest()
		source := "built-in defaults"
		if cfg.Agents.Manifest != "" {
			if manifest, err = registry.LoadManifest(cfg.Agents.Manifest); err != nil {
				return err
			}
			source = cfg.Agents.Manifest
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Roster (%s):\n\n", source)
		for _, entry := range manifest.Agents {
			status := ""
			if entry.Disabled {
				status = " (disabled)"
			}

			caps := registry.KindCapabilities(entry.Kind)
			names := make([]string, 0, len(caps))
			for _, c := range caps {
				names = append(names, string(c))
			}

			fmt.Fprintf(out, "  %-14s kind=%-14s capabilities=%s%s\n",
				entry.Name, entry.Kind, strings.Join(names, ","), status)
		}
		return nil
	},
}
