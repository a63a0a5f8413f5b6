package feed

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// StartTrendingCron rebuilds the trending feed immediately and then every
// interval until ctx is cancelled.
func StartTrendingCron(ctx context.Context, agg *TrendingAggregator, interval time.Duration) {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	run := func() {
		if _, err := agg.RunTrendingAggregation(ctx); err != nil {
			agg.logger.Warn("trending aggregation failed", zap.Error(err))
		}
	}

	run()
	for {
		select {
		case <-ctx.Done():
			agg.logger.Info("trending cron shutdown signal received")
			return
		case <-ticker.C:
			run()
		}
	}
}
