package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/windcost/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "windcost",
	Short: "Levelized cost of energy for onshore wind turbines",
	Long:  "Estimates the lifetime cost per MWh of an onshore wind turbine in a given country from regional wages, prices, taxes and interest rates.",
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
