package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/relay/internal/config"
	"github.com/ShayCichocki/relay/internal/store"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent conversation turns",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		path := cfg.Storage.Path
		if path == "" {
			path = config.DefaultStoragePath()
		}

		db, err := store.Open(path)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.Migrate(); err != nil {
			return err
		}

		turns, err := db.RecentTurns(historyLimit)
		if err != nil {
			return err
		}
		if len(turns) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No history yet.")
			return nil
		}

		out := cmd.OutOrStdout()
		for _, turn := range turns {
			fmt.Fprintf(out, "%s  [%s]\n  Q: %s\n  A: %s\n\n",
				turn.CreatedAt.Local().Format("2006-01-02 15:04"),
				turn.Mode, turn.Request, truncateAnswer(turn.Answer, 200))
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "Number of turns to show")
}

func truncateAnswer(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
