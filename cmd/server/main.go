package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"chariledger/internal/ledger/handler"
	"chariledger/internal/ledger/metrics"
	"chariledger/internal/ledger/ports"
	"chariledger/internal/ledger/publisher"
	amqpsink "chariledger/internal/ledger/publisher/amqp"
	kafkasink "chariledger/internal/ledger/publisher/kafka"
	"chariledger/internal/ledger/service"
	memorystore "chariledger/internal/ledger/store/memory"
	pgstore "chariledger/internal/ledger/store/postgres"
	"chariledger/internal/platform/config"
	"chariledger/internal/platform/httpserver"
	"chariledger/internal/platform/logger"
	"chariledger/internal/platform/middleware"
	"chariledger/internal/wallet"
)

// main wires high-level dependencies, exposes the HTTP router, and
// keeps the server lifecycle small. Business logic lives in the
// internal/ledger packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	ctx := context.Background()

	store, cleanup, err := buildStore(ctx, cfg)
	if err != nil {
		log.Error("store initialization failed", "error", err.Error())
		os.Exit(1)
	}
	defer cleanup()

	var sinks []ports.EventSink
	if len(cfg.KafkaBrokers) > 0 {
		sink, err := kafkasink.New(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			log.Error("kafka sink initialization failed", "error", err.Error())
			os.Exit(1)
		}
		defer sink.Close()
		sinks = append(sinks, sink)
		log.Info("kafka notifications enabled", "topic", cfg.KafkaTopic)
	}
	if cfg.AMQPURL != "" {
		sink, err := amqpsink.New(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Error("amqp sink initialization failed", "error", err.Error())
			os.Exit(1)
		}
		defer sink.Close()
		sinks = append(sinks, sink)
		log.Info("amqp notifications enabled", "exchange", cfg.AMQPExchange)
	}

	pub := publisher.New(sinks,
		publisher.WithLogger(log),
		publisher.WithAsyncBuffer(256),
	)
	defer pub.Close()

	svc, err := service.New(store, service.Config{
		Owner:        cfg.Owner,
		FeeRecipient: cfg.FeeRecipient,
	},
		service.WithLogger(log),
		service.WithPublisher(pub),
		service.WithMetrics(metrics.New()),
		// Settlement happens outside this service; the ledger only
		// records the split.
		service.WithFundMover(wallet.NopMover{}),
	)
	if err != nil {
		log.Error("service initialization failed", "error", err.Error())
		os.Exit(1)
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recovery(log))
	router.Use(middleware.Logger(log))
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Handle("/metrics", promhttp.Handler())
	handler.New(svc, log).Register(router)

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting chariledger",
		"addr", cfg.Addr,
		"owner", cfg.Owner.Hex(),
		"fee_recipient", cfg.FeeRecipient.Hex(),
	)

	// Errors here do not exit early: the deferred publisher drain and
	// store cleanup still run.
	if err := httpserver.Run(srv, log); err != nil {
		log.Error("server stopped with error", "error", err.Error())
	}
}

// buildStore selects persistence: PostgreSQL when DATABASE_URL is set,
// otherwise the in-memory ledger. The returned cleanup is safe to call
// either way.
func buildStore(ctx context.Context, cfg config.Server) (ports.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		return memorystore.New(cfg.FeeRateBps), func() {}, nil
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	if err := pgstore.RunMigrations(db); err != nil {
		db.Close()
		return nil, nil, err
	}

	store := pgstore.New(db)
	if err := store.EnsureFeeRate(ctx, cfg.FeeRateBps); err != nil {
		db.Close()
		return nil, nil, err
	}
	return store, func() { db.Close() }, nil
}
