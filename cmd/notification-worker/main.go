// README: Notification worker; consumes the notifications queue and sends
// customer emails.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"nomnomgo/internal/broker"
	"nomnomgo/internal/config"
	"nomnomgo/internal/notify"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	events, err := broker.New(cfg.AMQP.URL, logger)
	if err != nil {
		log.Fatalf("broker init: %v", err)
	}
	defer events.Close()

	var emailer notify.Emailer
	if cfg.SMTP.Addr != "" {
		emailer = notify.NewSMTPSender(cfg.SMTP.Addr, cfg.SMTP.From)
	} else {
		emailer = notify.NewLogSender(logger)
	}

	deliveries, err := events.Consume(ctx, broker.QueueNotifications, "notification-worker")
	if err != nil {
		log.Fatalf("consume: %v", err)
	}

	logger.Info("notification worker started", "queue", broker.QueueNotifications)
	notify.NewDispatcher(emailer, logger).Run(ctx, deliveries)
}
