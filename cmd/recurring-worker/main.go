package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avast/retry-go"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	runOnce := flag.Bool("once", false, "run a single materialization pass and exit")
	flag.Parse()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	logger.Info("Starting recurring-worker")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", log.FieldError, err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("Failed to resolve scheduler timezone", log.FieldError, err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository",
			log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// The broker may come up after this process; retry the dial before
	// falling back to store-only mode.
	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := dialAMQP(cfg)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without event publishing",
				log.FieldError, err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
			logger.Info("AMQP client initialized",
				"exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	} else {
		logger.Info("AMQP disabled - created transactions will not be announced")
	}

	processor := services.NewRecurringProcessor(repo, publisher, cfg.TemplateTimeout)
	scheduler := services.NewScheduler(processor, services.SystemClock(), loc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *runOnce {
		summary := scheduler.TriggerNow(ctx)
		logger.Info("Manual pass complete",
			log.FieldRunID, summary.RunID,
			"checked", summary.Checked,
			"created", summary.Created,
			"errors", summary.Errors)
		return
	}

	if cfg.RunOnStartup {
		summary := scheduler.TriggerNow(ctx)
		logger.Info("Startup pass complete",
			log.FieldRunID, summary.RunID,
			"created", summary.Created,
			"errors", summary.Errors)
	}

	logger.Info("Scheduler configured",
		"timezone", loc.String(),
		"next_run", scheduler.NextRun(time.Now()).Format(time.RFC3339),
		"sqlite_db", cfg.SQLiteDBPath)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return scheduler.Run(ctx)
	})
	g.Go(func() error {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
			return nil
		case <-ctx.Done():
			return nil
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}

	logger.Info("Recurring-worker shutdown complete")
}

func dialAMQP(cfg *config.Config) (*amqp.Client, error) {
	var client *amqp.Client
	err := retry.Do(
		func() error {
			var err error
			client, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
			if err != nil {
				return fmt.Errorf("dial AMQP: %w", err)
			}
			return nil
		},
		retry.Attempts(3),
		retry.Delay(2*time.Second),
		retry.LastErrorOnly(true),
	)
	return client, err
}
