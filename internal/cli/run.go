package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"coinit/internal/cmdlog"
	"coinit/internal/metrics"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Poll the channel and publish new images until interrupted",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmdlog.Run("run", func() error { return runAction(cmd) })
	},
}

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run a single poll tick and exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmdlog.Run("once", func() error { return onceAction(cmd) })
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate config and confirm the channel resolves",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmdlog.Run("check", func() error { return checkAction(cmd) })
	},
}

func init() {
	rootCmd.AddCommand(runCmd, onceCmd, checkCmd)
}

func runAction(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	o, cleanup, err := build(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()
	metrics.StartServer(cfg.Metrics.Addr)
	if err := o.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func onceAction(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	o, cleanup, err := build(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer cleanup()
	if _, err := o.CheckChannel(cmd.Context()); err != nil {
		return err
	}
	res := o.Tick(cmd.Context())
	fmt.Fprintf(cmd.OutOrStdout(), "tick %s: %d new image posts, %d processed\n", res.ID, res.Found, res.Processed)
	return nil
}

func checkAction(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	ch, err := newFeed(cfg).GetChannelInfo(cmd.Context(), cfg.Channel.ID)
	if err != nil {
		return fmt.Errorf("channel check %s: %w", cfg.Channel.ID, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "channel %s (%s), %d followers\n", ch.ID, ch.Name, ch.FollowerCount)
	fmt.Fprintf(cmd.OutOrStdout(), "zora=%t clanker=%t interval=%s\n", cfg.Features.EnableZora, cfg.Features.EnableClanker, cfg.PollInterval())
	return nil
}
