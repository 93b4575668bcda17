package cli

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"coinit/internal/clanker"
	"coinit/internal/config"
	"coinit/internal/jobs"
	"coinit/internal/logging"
	"coinit/internal/neynar"
	"coinit/internal/store/ledger"
	"coinit/internal/zora"
)

// newFeed builds the Neynar client from config.
func newFeed(cfg config.Config) *neynar.Client {
	return neynar.New(neynar.Options{
		BaseURL:           cfg.APIs.NeynarBaseURL,
		APIKey:            cfg.Credentials.NeynarAPIKey,
		HTTPClient:        &http.Client{Timeout: time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second},
		RequestsPerSecond: cfg.HTTP.RequestsPerSecond,
		Burst:             cfg.HTTP.Burst,
		MaxAttempts:       cfg.HTTP.MaxAttempts,
		BaseBackoff:       time.Duration(cfg.HTTP.BaseBackoffMs) * time.Millisecond,
	})
}

// build validates cfg and wires an orchestrator with every enabled stage.
// The returned cleanup closes the ledger, if one was opened.
func build(ctx context.Context, cfg config.Config) (*jobs.Orchestrator, func(), error) {
	cleanup := func() {}
	if err := cfg.Validate(); err != nil {
		return nil, cleanup, err
	}
	opts := jobs.Options{
		Feed:         newFeed(cfg),
		EnableMint:   cfg.Features.EnableZora,
		EnableDeploy: cfg.Features.EnableClanker,
		ChannelID:    cfg.Channel.ID,
		Limit:        cfg.Channel.FetchLimit,
		Interval:     cfg.PollInterval(),
		Budget:       cfg.Budget,
	}
	if cfg.Features.EnableZora {
		opts.Minter = zora.NewClient(cfg.APIs.ZoraBaseURL, cfg.Credentials.ZoraAPIKey, cfg.APIs.ZoraChain)
	}
	if cfg.Features.EnableClanker {
		d, err := clanker.Dial(ctx, cfg.Chain.RPCURL, cfg.Chain.FactoryAddress, cfg.Credentials.WalletPrivateKey)
		if err != nil {
			return nil, cleanup, err
		}
		logging.Info("clanker_ready", map[string]any{"account": d.Account().Hex(), "factory": cfg.Chain.FactoryAddress})
		opts.Deployer = d
	}
	if cfg.Storage.LedgerPath != "" {
		db, err := ledger.Open(cfg.Storage.LedgerPath)
		if err != nil {
			return nil, cleanup, fmt.Errorf("open ledger: %w", err)
		}
		opts.Ledger = db
		cleanup = func() { _ = db.Close() }
	}
	return jobs.NewOrchestrator(opts), cleanup, nil
}
