// README: Consumer loop for the error_queue; persists every error event the
// pipeline publishes on the wildcard error keys.
package errlog

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"nomnomgo/internal/types"
)

type wireEvent struct {
	ErrorID    string `json:"errorId"`
	CustomerID string `json:"custId"`
	OrderID    string `json:"orderId"`
	Message    string `json:"message"`
}

// Events is the persistence side of the consumer.
type Events interface {
	Append(ctx context.Context, e *Event) error
}

type Consumer struct {
	store Events
	log   *slog.Logger
}

func NewConsumer(store Events, log *slog.Logger) *Consumer {
	return &Consumer{store: store, log: log}
}

// Run drains deliveries until the channel closes or ctx is done. Unparseable
// messages are logged and acked; requeueing them would just loop forever.
func (c *Consumer) Run(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			c.handle(ctx, d)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	var evt wireEvent
	if err := json.Unmarshal(d.Body, &evt); err != nil {
		c.log.Warn("error event: unparseable body", "routing_key", d.RoutingKey, "error", err)
		_ = d.Ack(false)
		return
	}
	if evt.ErrorID == "" {
		evt.ErrorID = string(types.NewID())
	}

	e := &Event{
		ErrorID:    types.ID(evt.ErrorID),
		CustomerID: evt.CustomerID,
		OrderID:    evt.OrderID,
		Message:    evt.Message,
		RoutingKey: d.RoutingKey,
		ReceivedAt: time.Now().UTC(),
	}
	if err := c.store.Append(ctx, e); err != nil {
		c.log.Error("error event: persist failed", "error_id", evt.ErrorID, "error", err)
		_ = d.Nack(false, true)
		return
	}
	c.log.Info("error event stored", "error_id", evt.ErrorID, "routing_key", d.RoutingKey)
	_ = d.Ack(false)
}
