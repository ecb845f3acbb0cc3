package workers

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Pruner forgets per-client state once it grows past limit
type Pruner interface {
	Prune(limit int) int
}

// PollPrune prunes every interval until ctx is done.
func PollPrune(ctx context.Context, p Pruner, interval time.Duration, limit int, logger *zap.Logger) {
	logger.Info("Starting throttle pruning", zap.Duration("interval", interval), zap.Int("max_clients", limit))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Throttle pruning stopped.")
			return
		case <-ticker.C:
			if n := p.Prune(limit); n > 0 {
				logger.Info("🧹 Pruned throttle buckets", zap.Int("dropped", n))
			}
		}
	}
}
