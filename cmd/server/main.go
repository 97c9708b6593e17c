package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/CJosueA/Sistema-Facturacion/internal/config"
	"github.com/CJosueA/Sistema-Facturacion/internal/infra"
	"github.com/CJosueA/Sistema-Facturacion/internal/repository"
	"github.com/CJosueA/Sistema-Facturacion/internal/router"
	"github.com/CJosueA/Sistema-Facturacion/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: pretty console in development, JSON in production
	if cfg.Env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := infra.SetupTracing(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up tracing")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	if cfg.MigrationsPath != "" {
		err = infra.RunSQLMigrations(db, cfg.DatabaseURL, cfg.MigrationsPath)
	} else {
		err = infra.RunMigrations(db)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	// Redis only backs the product cache and the job queue. Invoices can
	// still be issued without it; their documents are rendered once it is back.
	rdb, err := infra.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable: cache and background jobs disabled")
		rdb = nil
	}

	deps := router.Deps{DB: db, Redis: rdb}

	var publisher *infra.KafkaPublisher
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		breaker := infra.NewCircuitBreaker(infra.DefaultCBConfig("kafka"))
		publisher = infra.NewKafkaPublisher(brokers, cfg.KafkaTopic, breaker)
		deps.Events = publisher
		deps.EventsBreaker = breaker
	} else {
		log.Info().Msg("KAFKA_BROKERS not set: invoice events disabled")
	}

	// Worker handlers are wired here (composition root) so that the pool
	// has full access to all infrastructure dependencies.
	if rdb != nil {
		invoiceRepo := repository.NewInvoiceRepository(db)
		documentRepo := repository.NewDocumentRepository(db)
		mailer := infra.NewMailer(cfg)
		dispatcher := worker.NewDispatcher(rdb)

		render := worker.NewRenderWorker(invoiceRepo, documentRepo, dispatcher, cfg.PDFStoragePath)
		email := worker.NewEmailWorker(mailer, documentRepo)
		worker.StartWorkerPool(ctx, rdb, map[string]worker.Handler{
			worker.JobRender: render.Process,
			worker.JobEmail:  email.Process,
		}, cfg.WorkerPoolSize)
		worker.StartRetryCron(ctx, worker.RetryCronConfig{
			Documents:  documentRepo,
			Dispatcher: dispatcher,
			RDB:        rdb,
		})
	}

	r := router.New(ctx, cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("invoicing service listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	cancel()

	if publisher != nil {
		if err := publisher.Close(); err != nil {
			log.Warn().Err(err).Msg("kafka writer close")
		}
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("tracing shutdown")
	}
	log.Info().Msg("server exited")
}
