// README: Error worker; drains the error queue into the error_events table.
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
	"nomnomgo/internal/infra"
	"nomnomgo/internal/modules/errlog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatal(err)
	}
	defer dbPool.Close()

	events, err := broker.New(cfg.AMQP.URL, logger)
	if err != nil {
		log.Fatalf("broker init: %v", err)
	}
	defer events.Close()

	deliveries, err := events.Consume(ctx, broker.QueueErrors, "error-worker")
	if err != nil {
		log.Fatalf("consume: %v", err)
	}

	logger.Info("error worker started", "queue", broker.QueueErrors)
	errlog.NewConsumer(errlog.NewStore(dbPool), logger).Run(ctx, deliveries)
}
