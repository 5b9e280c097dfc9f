package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dmaia-dev/medishop/internal/messaging"
	"github.com/dmaia-dev/medishop/internal/notifier"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	kafkaBrokers := os.Getenv("KAFKA_BROKERS")
	if kafkaBrokers == "" {
		logger.Error("KAFKA_BROKERS environment variable is required")
		os.Exit(1)
	}

	posServiceURL := os.Getenv("POS_SERVICE_URL")
	if posServiceURL == "" {
		logger.Error("POS_SERVICE_URL environment variable is required")
		os.Exit(1)
	}

	mailerServiceURL := os.Getenv("MAILER_SERVICE_URL")
	if mailerServiceURL == "" {
		logger.Error("MAILER_SERVICE_URL environment variable is required")
		os.Exit(1)
	}

	brokers := strings.Split(kafkaBrokers, ",")
	consumer := messaging.NewConsumer(brokers, messaging.SaleTopic, "reorder-notifier")
	defer func() { _ = consumer.Close() }()

	httpClient := &http.Client{
		Timeout: 10 * time.Second,
	}

	reorderHandler := notifier.NewReorderHandler(posServiceURL, mailerServiceURL, httpClient, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		<-stop
		logger.Info("shutting down")
		cancel()
	}()

	logger.Info("starting reorder notifier", "brokers", brokers)

	if err := consumer.Consume(ctx, reorderHandler.Handle); err != nil {
		if ctx.Err() == context.Canceled {
			logger.Info("consumer stopped")
			return
		}
		logger.Error("consumer error", "error", err)
		os.Exit(1)
	}
}
