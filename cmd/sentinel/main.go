// RegimeSentinel: regime-aware crypto signal engine with backtesting and a
// closed-bar monitor.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"RegimeSentinel/internal/config"
	"RegimeSentinel/internal/logging"
)

var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "sentinel",
	Short:         "Regime-aware signal engine, backtester and monitor",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		if v := os.Getenv("CONFIG_PATH"); v != "" && !cmd.Flags().Changed("config") {
			path = v
		}
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Log.Level = lvl
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("config validation: %w", err)
		}
		if err := logging.Setup(cfg.Log.Level, cfg.Log.Pretty, os.Stderr); err != nil {
			return err
		}
		log.Debug().Str("config", path).Msg("config loaded")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "configs/config.yaml", "config file path")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (trace, debug, info, warn, error)")

	rootCmd.AddCommand(backtestCmd)
	rootCmd.AddCommand(signalCmd)
	rootCmd.AddCommand(monitorCmd)
}
