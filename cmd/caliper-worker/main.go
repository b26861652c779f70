package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/felixgeelhaar/caliper/internal/config"
	"github.com/felixgeelhaar/caliper/internal/plan"
	"github.com/felixgeelhaar/caliper/internal/queue"
	"github.com/felixgeelhaar/caliper/internal/storage/postgres"
	"github.com/felixgeelhaar/caliper/internal/storage/sqlite"
)

func main() {
	if err := run(); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.RabbitMQURL == "" {
		return fmt.Errorf("RABBITMQ_URL is required for the plan worker")
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	// Plans are always written to sqlite; tests are read from whichever
	// backend the daemon writes them to.
	db, err := sqlite.Open(cfg.SQLitePath)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrate sqlite: %w", err)
	}

	var testSource plan.TestSource = sqlite.NewTestStore(db)
	if cfg.DatabaseDriver == "postgres" {
		pg, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		defer pg.Close()
		testSource = postgres.NewTestStore(pg)
	}

	planSvc := plan.NewService(testSource, sqlite.NewPlanStore(db), logger)

	conn, err := queue.NewConnection(cfg.RabbitMQURL)
	if err != nil {
		return fmt.Errorf("connect rabbitmq: %w", err)
	}
	defer conn.Close()

	consumer := queue.NewPlanConsumer(conn, planSvc.HandleRequest, queue.ConsumerConfig{
		Workers: cfg.PlanWorkers,
		Timeout: cfg.PlanTimeout,
	})
	if err := consumer.Start(context.Background()); err != nil {
		return fmt.Errorf("start consumer: %w", err)
	}

	logger.Info("caliper-worker consuming", "queue", queue.PlanQueueName, "workers", cfg.PlanWorkers)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	logger.Info("received signal, shutting down", "signal", sig.String())
	consumer.Stop()
	logger.Info("worker stopped")
	return nil
}
