package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/goodluckbakery/shop/internal/config"
	"github.com/goodluckbakery/shop/internal/fulfillment"
	kafkax "github.com/goodluckbakery/shop/internal/kafka"
	"github.com/goodluckbakery/shop/internal/orders"
	"github.com/goodluckbakery/shop/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.ServiceName+"-fulfillment").Logger()
	log.Logger = logger

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &fulfillment.Service{
		Redis:       rdb,
		ServiceName: cfg.ServiceName + "-fulfillment",
	}

	group := getenv("FULFILLMENT_GROUP", "fulfillment-svc")
	workers := atoiDefault(os.Getenv("FULFILLMENT_WORKERS"), 4)

	var wg sync.WaitGroup
	for _, topic := range []string{orders.TopicOrderCreated, orders.TopicOrderPaid} {
		cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, topic, workers)
		wg.Add(1)
		go func(topic string) {
			defer wg.Done()
			logger.Info().Str("topic", topic).Str("group", group).Int("workers", workers).Msg("consumer started")
			if err := cons.Start(ctx, svc.HandleOrderEvent); err != nil {
				logger.Error().Err(err).Str("topic", topic).Msg("consumer exit")
				cancel()
			}
		}(topic)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
		logger.Info().Msg("shutting down consumers")
		cancel()
	case <-ctx.Done():
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil || i <= 0 {
		return def
	}
	return i
}
