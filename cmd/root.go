package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/crm-dedupe/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "crm-dedupe",
	Short: "Duplicate detection and record merging for CRM data",
	Long:  "Scans tenant records for likely duplicates, persists reviewable suggestions, and executes transactional merges that re-point every dependent row to the surviving record.",
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
