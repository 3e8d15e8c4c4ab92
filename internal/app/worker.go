package app

import (
	"context"
	"time"

	"github.com/janajenn/capstone2-sub006/internal/messaging/kafka/producer"

	"go.uber.org/zap"
)

// RunWorker drives the background side of the system: the outbox
// publisher and the daily credit accrual. Blocks until ctx is done.
func RunWorker(ctx context.Context, a *App, logger *zap.Logger) {
	go producer.ProcessOutboxEvents(ctx, a.Modules.OutboxRepo, a.KafkaWriter, logger, 3*time.Second)

	runAccrualLoop(ctx, a, logger.Named("accrual.worker"))
}

// runAccrualLoop runs one accrual pass immediately, then once per day.
// AccrueDaily is idempotent per calendar day, so restarts and overlap with
// a previous run are harmless.
func runAccrualLoop(ctx context.Context, a *App, logger *zap.Logger) {
	runAccrual(ctx, a, logger)

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("accrual worker stopped")
			return
		case <-ticker.C:
			runAccrual(ctx, a, logger)
		}
	}
}

func runAccrual(ctx context.Context, a *App, logger *zap.Logger) {
	summary, err := a.Modules.LedgerService.RunDailyAccrual(ctx, time.Now().UTC())
	if err != nil {
		logger.Error("daily accrual run failed", zap.Error(err))
		return
	}
	logger.Info("daily accrual run complete",
		zap.Int("processed", summary.Processed),
		zap.Int("accrued", summary.Accrued),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
	)
}
