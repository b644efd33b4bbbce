package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"marketviewer/internal/config"
	"marketviewer/internal/domain"
	"marketviewer/internal/util"
)

const version = "0.1.0"

// cfg is loaded once per invocation by the root command.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:           "marketviewer-cli",
	Short:         "Inspect NASDAQ and SPX bars alongside the news calendar",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(".env"); err != nil {
			return err
		}

		cfgPath, _ := cmd.Flags().GetString("config")
		if !cmd.Flags().Changed("config") {
			if p := os.Getenv("MARKETVIEWER_CONFIG"); p != "" {
				cfgPath = p
			}
		}
		loaded, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded

		level := cfg.Logging.Level
		if cmd.Flags().Changed("log-level") {
			level, _ = cmd.Flags().GetString("log-level")
		}
		util.SetDefault(util.NewLoggerTo(os.Stderr, level, cfg.Logging.Format))
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the CLI version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "marketviewer-cli %s\n", version)
	},
}

// labels returns the configured chart watermarks.
func labels() map[domain.Instrument]string {
	return map[domain.Instrument]string{
		domain.InstrumentNasdaq: cfg.Viewer.NasdaqLabel,
		domain.InstrumentSPX:    cfg.Viewer.SPXLabel,
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "config/marketviewer.yaml", "config file (MARKETVIEWER_CONFIG)")
	rootCmd.PersistentFlags().String("log-level", "warn", "debug, info, warn or error (overrides logging.level)")
	rootCmd.AddCommand(versionCmd, viewCmd, exportCmd, pushCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
