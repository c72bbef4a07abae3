package konturapi

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/kirillbelykh/kontur-api/internal/core/domain"
	"github.com/kirillbelykh/kontur-api/internal/core/ports"
)

// DefaultPollInterval is how often the release watcher asks the portal
// for the order status.
const DefaultPollInterval = 2 * time.Second

// waitReleased polls the order status until the portal reports a
// terminal state. released resolves the wait; error fails it as a
// rejected submission. The caller's ctx bounds the wait; vendor errors
// stop the polling immediately.
func waitReleased(ctx context.Context, api ports.OrderAPI, orderID string, interval time.Duration, logger *zap.Logger) (domain.Order, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	var last domain.Order
	check := func() error {
		order, err := api.GetOrder(ctx, orderID)
		if err != nil {
			return backoff.Permanent(err)
		}
		last = order
		switch order.Status {
		case domain.StatusReleased:
			return nil
		case domain.StatusError:
			return backoff.Permanent(domain.SubmissionError(
				fmt.Sprintf("order %s failed processing", orderID), nil))
		}
		if logger != nil {
			logger.Debug("order not released yet",
				zap.String("order_id", orderID),
				zap.String("status", string(order.Status)))
		}
		return fmt.Errorf("order %s still %s", orderID, order.Status)
	}

	policy := backoff.WithContext(backoff.NewConstantBackOff(interval), ctx)
	if err := backoff.Retry(check, policy); err != nil {
		return last, err
	}
	return last, nil
}
