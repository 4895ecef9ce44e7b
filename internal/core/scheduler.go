package core

// scheduler.go provides the background retention sweep for the audit
// log. It is long-running and context-aware for graceful shutdown; a
// failed sweep is logged and retried on the next tick rather than
// failing the application.

import (
	"context"
	"log/slog"
	"time"
)

// SweeperConfig holds audit retention settings. Zero values fall back
// to defaults.
type SweeperConfig struct {
	RetentionDays int           // days to keep entries (default: 90)
	BatchSize     int           // rows per delete batch (default: 5000)
	CheckInterval time.Duration // how often to sweep (default: 24h)
}

// StartSweeper runs retention sweeps until ctx is cancelled. It sweeps
// once immediately, then every CheckInterval.
func (a *AuditLog) StartSweeper(ctx context.Context, cfg SweeperConfig) {
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = 90
	}
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = 24 * time.Hour
	}

	slog.Info("audit sweeper started",
		"retention_days", cfg.RetentionDays,
		"check_interval", cfg.CheckInterval,
	)

	a.sweep(ctx, cfg)

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("audit sweeper stopped")
			return
		case <-ticker.C:
			a.sweep(ctx, cfg)
		}
	}
}

func (a *AuditLog) sweep(ctx context.Context, cfg SweeperConfig) {
	cutoff := time.Now().UTC().AddDate(0, 0, -cfg.RetentionDays)

	total := int64(0)
	for {
		deleted, err := a.Prune(ctx, cutoff, cfg.BatchSize)
		if err != nil {
			slog.Error("audit sweep failed", "error", err)
			return
		}
		total += deleted
		if deleted == 0 {
			break
		}
	}

	if total > 0 {
		slog.Info("audit sweep complete", "deleted", total)
	}
}
