package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/livability-map/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "livability-map",
	Short: "Livability choropleth scoring for postal areas",
	Long:  "Blends safety, parks, transit and parking scores per forward sortation area with adjustable weights, classifies them into quantile colour bands and serves the result as a map API.",
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
