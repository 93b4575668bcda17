package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"coinit/internal/analytics"
	"coinit/internal/cmdlog"
	"coinit/internal/config"
	"coinit/internal/store/ledger"
)

var statsSince time.Duration

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show hourly mint and deploy counts from the ledger",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmdlog.Run("stats", func() error { return statsAction(cmd) })
	},
}

func init() {
	statsCmd.Flags().DurationVar(&statsSince, "since", 24*time.Hour, "time window")
	rootCmd.AddCommand(statsCmd)
}

func statsAction(cmd *cobra.Command) error {
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

	now := time.Now().UTC()
	pubs, err := db.LoadRange(cmd.Context(), now.Add(-statsSince), now.Add(time.Second), "")
	if err != nil {
		return err
	}
	buckets := analytics.HourlyPublications(pubs)
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "HOUR\tMINT OK\tMINT FAIL\tDEPLOY OK\tDEPLOY FAIL")
	for _, k := range analytics.SortedBucketKeys(buckets) {
		b := buckets[k]
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\n", k.Format("2006-01-02 15:04"), b.OK["mint"], b.Failed["mint"], b.OK["deploy"], b.Failed["deploy"])
	}
	return w.Flush()
}
