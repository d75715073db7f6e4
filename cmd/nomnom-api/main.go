// README: Entry point; loads config, wires services, starts the HTTP server.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nomnomgo/internal/broker"
	"nomnomgo/internal/config"
	"nomnomgo/internal/driver"
	httptransport "nomnomgo/internal/http"
	"nomnomgo/internal/infra"
	"nomnomgo/internal/modules/assignment"
	"nomnomgo/internal/modules/customer"
	"nomnomgo/internal/modules/order"
	"nomnomgo/internal/modules/payment"
	"nomnomgo/internal/modules/refund"
	"nomnomgo/internal/modules/wallet"
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

	redisClient := infra.NewRedis(cfg.Redis.Addr)

	events, err := broker.New(cfg.AMQP.URL, logger)
	if err != nil {
		log.Fatalf("broker init: %v", err)
	}
	defer events.Close()

	orderStore := order.NewStore(dbPool)
	orderSvc := order.NewService(orderStore)

	walletStore := wallet.NewStore(dbPool)
	walletSvc := wallet.NewService(walletStore)

	customerStore := customer.NewStore(dbPool)
	customerSvc := customer.NewService(customerStore)

	directory := driver.NewClient(cfg.Driver.BaseURL, cfg.Driver.Timeout)
	cooldowns := assignment.NewCooldownStore(redisClient)
	registry := assignment.NewRegistry(ctx)

	refundSvc := refund.NewService(orderSvc, walletSvc, customerSvc, events, registry, directory, logger)
	assignSvc := assignment.NewService(orderSvc, directory, cooldowns, customerSvc, events,
		refundSvc, registry, cfg.Assignment, logger)
	paymentSvc := payment.NewService(walletSvc, orderSvc, assignSvc, customerSvc, events, logger)

	handler := httptransport.NewRouter(httptransport.RouterDeps{
		Orders:     orderSvc,
		Wallets:    walletSvc,
		Customers:  customerSvc,
		Payments:   paymentSvc,
		Assignment: assignSvc,
		Refunds:    refundSvc,
		Log:        logger,
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("listening", "addr", cfg.HTTP.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
