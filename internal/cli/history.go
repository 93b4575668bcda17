package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"coinit/internal/cmdlog"
	"coinit/internal/config"
	"coinit/internal/store/ledger"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent publications from the ledger",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmdlog.Run("history", func() error { return historyAction(cmd) })
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "rows to show")
	rootCmd.AddCommand(historyCmd)
}

func historyAction(cmd *cobra.Command) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Storage.LedgerPath == "" {
		return errors.New("ledger disabled: set storage.ledgerPath or LEDGER_PATH")
	}
	db, err := ledger.Open(cfg.Storage.LedgerPath)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer func() { _ = db.Close() }()

	pubs, err := db.Recent(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}
	if len(pubs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no publications yet")
		return nil
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tSTAGE\tPOST\tREF\tERROR")
	for _, p := range pubs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.TS.Format(time.RFC3339), p.Stage, p.PostID, p.Ref, p.Error)
	}
	return w.Flush()
}
