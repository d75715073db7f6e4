// README: Turns order_topic events into outbound emails. One consumer loop
// drains the notifications queue; rendering is per routing key.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"

	"nomnomgo/internal/broker"
)

type Dispatcher struct {
	emailer Emailer
	log     *slog.Logger
}

func NewDispatcher(emailer Emailer, log *slog.Logger) *Dispatcher {
	return &Dispatcher{emailer: emailer, log: log}
}

// Run drains deliveries until the channel closes or ctx is done. Every
// message is acked: notification delivery is fire-and-forget, a failed send
// is logged, not retried.
func (d *Dispatcher) Run(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-deliveries:
			if !ok {
				return
			}
			d.handle(msg)
		}
	}
}

func (d *Dispatcher) handle(msg amqp.Delivery) {
	email, err := Render(msg.RoutingKey, msg.Body)
	if err != nil {
		d.log.Warn("notification: cannot render", "routing_key", msg.RoutingKey, "error", err)
		_ = msg.Ack(false)
		return
	}
	if email.To == "" {
		d.log.Warn("notification: no recipient, dropping", "routing_key", msg.RoutingKey)
		_ = msg.Ack(false)
		return
	}
	if err := d.emailer.Send(email); err != nil {
		d.log.Error("notification: send failed", "to", email.To, "error", err)
	} else {
		d.log.Info("notification sent", "to", email.To, "subject", email.Subject)
	}
	_ = msg.Ack(false)
}

// Render builds the email for a routing key. Exposed for tests.
func Render(routingKey string, body []byte) (Email, error) {
	switch routingKey {
	case broker.KeyDriverAssigned:
		var evt broker.DriverAssignedEvent
		if err := json.Unmarshal(body, &evt); err != nil {
			return Email{}, err
		}
		return Email{
			To:      evt.Recipient,
			Subject: fmt.Sprintf("Your order %s is on its way", evt.OrderID),
			Body: fmt.Sprintf(
				"Good news! %s (contact %s) has picked up your order from %s.\n\n%sSubtotal: %s\nDelivery fee: %s\nTotal: %s\n",
				evt.DriverName, evt.DriverPhone, evt.Restaurant,
				itemLines(evt.Items), evt.Subtotal, evt.DeliveryFee, evt.Total),
		}, nil

	case broker.KeyOrderCancelled:
		var evt broker.OrderCancelledEvent
		if err := json.Unmarshal(body, &evt); err != nil {
			return Email{}, err
		}
		return Email{
			To:      evt.Recipient,
			Subject: fmt.Sprintf("Order %s cancelled and refunded", evt.OrderID),
			Body: fmt.Sprintf(
				"We could not find a driver for your order, so it was cancelled.\n\n%sSubtotal: %s\nDelivery fee: %s\nRefunded: %s\nNew wallet balance: %s\n",
				itemLines(evt.Items), evt.Subtotal, evt.DeliveryFee, evt.Total, evt.NewBalance),
		}, nil

	case broker.KeyPaymentError:
		var evt broker.PaymentErrorEvent
		if err := json.Unmarshal(body, &evt); err != nil {
			return Email{}, err
		}
		return Email{
			To:      evt.Recipient,
			Subject: "Payment failed: insufficient balance",
			Body: fmt.Sprintf(
				"Your payment for order %s could not be processed: %s.\nRequired: %s, wallet balance: %s.\nPlease top up your wallet and try again.\n",
				evt.OrderID, evt.Message, evt.Required, evt.Balance),
		}, nil

	default:
		return Email{}, fmt.Errorf("no template for routing key %q", routingKey)
	}
}

func itemLines(items []broker.ItemLine) string {
	if len(items) == 0 {
		return ""
	}
	var b strings.Builder
	for _, it := range items {
		fmt.Fprintf(&b, "%dx %s @ %s\n", it.Quantity, it.Name, it.UnitPrice)
	}
	b.WriteString("\n")
	return b.String()
}
