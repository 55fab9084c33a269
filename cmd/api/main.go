package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/goodluckbakery/shop/internal/cart"
	"github.com/goodluckbakery/shop/internal/catalog"
	"github.com/goodluckbakery/shop/internal/config"
	"github.com/goodluckbakery/shop/internal/crm"
	"github.com/goodluckbakery/shop/internal/httpx"
	kafkax "github.com/goodluckbakery/shop/internal/kafka"
	"github.com/goodluckbakery/shop/internal/orders"
	"github.com/goodluckbakery/shop/internal/payment"
	"github.com/goodluckbakery/shop/internal/postgres"
	"github.com/goodluckbakery/shop/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.ServiceName).Logger()
	log.Logger = logger

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// schema first, pool second
	if err := postgres.Migrate(migrateDSN(cfg.PostgresDSN)); err != nil {
		logger.Fatal().Err(err).Msg("migrate")
	}
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("db connect")
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	prodCreated := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCreated, 1024)
	prodCreated.Start(ctx)
	prodPaid := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderPaid, 1024)
	prodPaid.Start(ctx)

	catalogRepo := &catalog.Repo{DB: db}
	cartRepo := &cart.Repo{DB: db}
	orderRepo := &orders.Repo{DB: db, Pricing: orders.Pricing{
		TaxRate:             cfg.TaxRate,
		ShippingCosts:       cfg.ShippingCosts,
		DefaultShippingCost: cfg.DefaultShippingCost,
	}}
	crmRepo := &crm.Repo{DB: db}
	payments := payment.New(cfg.StripeSecretKey, cfg.StripeWebhookSecret, cfg.Currency)

	router := httpx.NewRouter(logger)
	(&httpx.CatalogHandler{Repo: catalogRepo}).Register(router)
	(&httpx.CartHandler{Carts: cartRepo, Catalog: catalogRepo}).Register(router)
	(&httpx.CheckoutHandler{
		Orders:   orderRepo,
		Payments: payments,
		Producer: prodCreated,
		Redis:    rdb,
		Service:  cfg.ServiceName,
	}).Register(router)
	(&httpx.OrdersHandler{Repo: orderRepo, Redis: rdb}).Register(router)
	(&httpx.WebhookHandler{
		Orders:   orderRepo,
		Payments: payments,
		Producer: prodPaid,
		Redis:    rdb,
		Service:  cfg.ServiceName,
	}).Register(router)
	(&httpx.CRMHandler{Repo: crmRepo}).Register(router)
	(&httpx.AdminHandler{Repo: orderRepo, Token: cfg.AdminToken}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("http listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("listen")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info().Msg("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prodCreated.Close()
	prodPaid.Close()
	cancel()
	prodCreated.WaitClosed()
	prodPaid.WaitClosed()
}

// migrateDSN rewrites the pool DSN for golang-migrate's pgx/v5 driver.
func migrateDSN(dsn string) string {
	return "pgx5://" + strings.TrimPrefix(strings.TrimPrefix(dsn, "postgres://"), "postgresql://")
}
