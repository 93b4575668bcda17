// Package cli provides the command-line interface for coinit.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"coinit/internal/config"
	"coinit/internal/logging"
	"coinit/internal/theme"
)

// Version and Commit are set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "coinit",
	Short:         "Republish Farcaster channel images as Zora mints and Clanker tokens",
	Long:          theme.Banner() + "\ncoinit polls a Farcaster channel for new image casts and publishes each one to Zora and/or a Clanker token on Base.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "coinit %s (%s)\n", Version, Commit)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "./coinit.yaml", "config path")
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command. The log file is closed only after the
// command's outcome line has been written.
func Execute() error {
	err := rootCmd.Execute()
	_ = logging.Close()
	if err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), "error:", err)
	}
	return err
}

// loadConfig reads config and points the logger at the configured sinks.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	if err := logging.Setup(cfg.Logging.Level, cfg.Logging.File, cfg.Logging.Pretty); err != nil {
		return cfg, fmt.Errorf("setup logging: %w", err)
	}
	return cfg, nil
}
