package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ntentasd/kolam-api/internal/cache"
	"github.com/ntentasd/kolam-api/internal/chart"
	"github.com/ntentasd/kolam-api/internal/config"
	"github.com/ntentasd/kolam-api/internal/dashboard"
	"github.com/ntentasd/kolam-api/internal/db"
	"github.com/ntentasd/kolam-api/internal/kafka"
	routes "github.com/ntentasd/kolam-api/internal/routes"
	"github.com/ntentasd/kolam-api/internal/tracing"
	"github.com/ntentasd/kolam-api/internal/worker"
	"github.com/rs/zerolog"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "kolam-api").Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	logger = logger.Level(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := tracing.InitTracer(ctx, cfg.TempoEndpoint)
	if err != nil {
		logger.Fatal().Err(err).Msg("unable to init tracing")
	}
	defer shutdownTracer(context.Background())

	store, err := db.Connect(cfg.ScyllaNodes, cfg.ScyllaKeyspace)
	if err != nil {
		logger.Fatal().Err(err).Strs("nodes", cfg.ScyllaNodes).Msg("unable to connect to scylla")
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		logger.Fatal().Err(err).Msg("unable to migrate schema")
	}

	c, err := cache.New(cfg.CacheDriver, cfg.CacheAddrs())
	if err != nil {
		logger.Fatal().Err(err).Msg("unable to create cache")
	}
	defer c.Close()

	dcfg := dashboard.Config{
		Window:    cfg.ReadWindow,
		TTL:       cfg.CacheTTL,
		DateOrder: cfg.DateOrder,
		Chart:     chart.Options{PaddingFactor: cfg.PaddingFactor},
	}
	svc := dashboard.NewService(store, c, dcfg, logger)

	if len(cfg.KafkaBrokers) > 0 {
		ingestor := kafka.NewIngestor(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroup, svc, logger)
		go func() {
			if err := ingestor.Run(ctx); err != nil {
				logger.Error().Err(err).Msg("ingestor stopped")
			}
		}()
	} else {
		logger.Warn().Msg("KAFKA_BROKERS not set, reading ingestion disabled")
	}

	refresher := worker.NewRefresher(svc, store, cfg.RefreshPonds, cfg.RefreshInterval, logger)
	refresher.Start(ctx)
	defer refresher.Stop()

	app := routes.New(svc, store, c, dcfg, logger)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           routes.NewMux(app),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("addr", cfg.HTTPAddr).Msg("listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server failed")
	}
}
