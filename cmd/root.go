package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cratedigger/trackmatch/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "trackmatch",
	Short: "Playlist metadata enrichment against an online dance-music catalog",
	Long:  "Matches playlist tracks against catalog track pages via layered search strategies, fuzzy scoring and guard rules, and emits per-track metadata (BPM, key, label, release).",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
