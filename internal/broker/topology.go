// README: Exchange and queue declarations for the order_topic exchange.
package broker

import amqp "github.com/rabbitmq/amqp091-go"

const (
	QueueNotifications = "notifications"
	QueueErrors        = "error_queue"
	QueueActivityLog   = "Activity_Log"
)

// declareTopology sets up the durable topic exchange and its queues so both
// publishers and consumers can start in any order.
func declareTopology(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil); err != nil {
		return err
	}

	bindings := []struct {
		queue string
		keys  []string
	}{
		{QueueNotifications, []string{KeyDriverAssigned, KeyOrderCancelled, KeyPaymentError}},
		{QueueErrors, []string{"order.*.error", "payment.*.error", "wallet.*.error"}},
		{QueueActivityLog, []string{"#"}},
	}
	for _, b := range bindings {
		if _, err := ch.QueueDeclare(b.queue, true, false, false, false, nil); err != nil {
			return err
		}
		for _, key := range b.keys {
			if err := ch.QueueBind(b.queue, key, Exchange, false, nil); err != nil {
				return err
			}
		}
	}
	return nil
}
