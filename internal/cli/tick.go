package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"coinit/internal/clanker"
)

var tickCmd = &cobra.Command{
	Use:   "tick",
	Short: "Print the starting pool tick used for deployments",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), clanker.ComputeTick())
	},
}

func init() {
	rootCmd.AddCommand(tickCmd)
}
