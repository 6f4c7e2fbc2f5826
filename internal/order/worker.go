package order

import (
	"context"
	"time"

	"github.com/dangminhtuanan/storefront/internal/logger"
	"go.uber.org/zap"
)

// Expirer отменяет зависшие pending-заказы.
type Expirer interface {
	ExpireStale(ctx context.Context, maxAge time.Duration) (int, error)
}

// ExpiryLoop периодически снимает pending-заказы, по которым шлюз так и не
// прислал подтверждение. Останавливается по контексту.
func ExpiryLoop(ctx context.Context, svc Expirer, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Log.Info("expiry loop started",
		zap.Duration("interval", interval),
		zap.Duration("max_age", maxAge))

	for {
		select {
		case <-ctx.Done():
			logger.Log.Info("expiry loop stopped")
			return
		case <-ticker.C:
			n, err := svc.ExpireStale(ctx, maxAge)
			if err != nil {
				logger.Log.Error("expire stale orders", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Log.Info("expired stale orders", zap.Int("count", n))
			}
		}
	}
}
