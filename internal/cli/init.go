package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"coinit/internal/cmdlog"
	"coinit/internal/config"
	"coinit/internal/theme"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmdlog.Run("init", func() error {
			if err := config.Save(configPath, config.Default()); err != nil {
				return err
			}
			abs, _ := filepath.Abs(configPath)
			fmt.Fprint(cmd.OutOrStdout(), theme.Banner())
			fmt.Fprintln(cmd.OutOrStdout(), "Config written to:", abs)
			fmt.Fprintln(cmd.OutOrStdout(), "Credentials are read from NEYNAR_API_KEY, ZORA_API_KEY and WALLET_PRIVATE_KEY when left empty.")
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
