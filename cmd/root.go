package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/rankgrid/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "rankgrid",
	Short: "Local-search rank tracking over a geographic grid",
	Long:  "Samples a neighborhood with a coordinate grid, queries Google Places at every point, and reports where a target business ranks against its competitors across the area.",
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
