package budget

import (
	"context"
	"time"

	"coinit/internal/config"
	"coinit/internal/store/ledger"
)

const (
	StageMint   = "mint"
	StageDeploy = "deploy"
)

// Counter is the ledger query the caps need.
type Counter interface {
	CountSuccessWithin(ctx context.Context, start, end time.Time, stage string) (int, error)
}

var _ Counter = (*ledger.DB)(nil)

func caps(cfg config.BudgetConfig, stage string) (perHour, perDay int) {
	switch stage {
	case StageMint:
		return cfg.MaxMintsPerHour, cfg.MaxMintsPerDay
	case StageDeploy:
		return cfg.MaxDeploysPerHour, cfg.MaxDeploysPerDay
	}
	return 0, 0
}

// ShouldAllow checks hourly/daily caps for stage before publishing.
// Windows are UTC calendar hours and days. A nil counter allows everything.
func ShouldAllow(ctx context.Context, db Counter, cfg config.BudgetConfig, stage string, now time.Time) (bool, error) {
	perHour, perDay := caps(cfg, stage)
	if db == nil || (perHour <= 0 && perDay <= 0) {
		return true, nil
	}
	now = now.UTC()
	startHour := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), 0, 0, 0, time.UTC)
	startDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if perHour > 0 {
		n, err := db.CountSuccessWithin(ctx, startHour, startHour.Add(time.Hour), stage)
		if err != nil {
			return false, err
		}
		if n >= perHour {
			return false, nil
		}
	}
	if perDay > 0 {
		n, err := db.CountSuccessWithin(ctx, startDay, startDay.Add(24*time.Hour), stage)
		if err != nil {
			return false, err
		}
		if n >= perDay {
			return false, nil
		}
	}
	return true, nil
}
