package events

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/matsalen/desafio-procion/internal/domain"
)

// Dispatcher publishes events in the background. A failed publish is logged
// and never reaches the request that saved the order.
type Dispatcher struct {
	pub     Publisher
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewDispatcher(pub Publisher, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Dispatcher{pub: pub, timeout: timeout}
}

// Emit snapshots o and publishes an OrderCreated event asynchronously.
func (d *Dispatcher) Emit(o *domain.Order) {
	if d == nil || o == nil {
		return
	}
	ev := NewOrderCreated(o)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				zap.L().Error("event publish panicked", zap.Int64("order_id", ev.OrderID), zap.Any("panic", r))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := d.pub.Publish(ctx, ev); err != nil {
			zap.L().Warn("event publish failed",
				zap.Int64("order_id", ev.OrderID),
				zap.String("event_id", ev.EventID),
				zap.Error(err))
			return
		}
		zap.L().Debug("event published", zap.Int64("order_id", ev.OrderID), zap.String("event_id", ev.EventID))
	}()
}

// Close waits for in-flight publishes. It may be called again after more Emits.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.wg.Wait()
}
