package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/felixgeelhaar/caliper/internal/config"
	"github.com/felixgeelhaar/caliper/internal/content"
	"github.com/felixgeelhaar/caliper/internal/daemon"
	"github.com/felixgeelhaar/caliper/internal/llm"
	"github.com/felixgeelhaar/caliper/internal/placement"
	"github.com/felixgeelhaar/caliper/internal/plan"
	"github.com/felixgeelhaar/caliper/internal/profile"
	"github.com/felixgeelhaar/caliper/internal/question"
	"github.com/felixgeelhaar/caliper/internal/queue"
	"github.com/felixgeelhaar/caliper/internal/storage/postgres"
	"github.com/felixgeelhaar/caliper/internal/storage/sqlite"
)

func main() {
	if err := run(); err != nil {
		slog.Error("daemon error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Optional .env for local development
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := setupLogging(cfg.Debug)

	// Content, profiles and plans always live in sqlite. The postgres
	// driver moves only the test table, which takes all the write load.
	db, err := sqlite.Open(cfg.SQLitePath)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrate sqlite: %w", err)
	}

	var testStore placement.TestStore = sqlite.NewTestStore(db)
	if cfg.DatabaseDriver == "postgres" {
		pg, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		defer pg.Close()
		if err := pg.Migrate(); err != nil {
			return fmt.Errorf("migrate postgres: %w", err)
		}
		testStore = postgres.NewTestStore(pg)
	}

	contentStore := sqlite.NewContentStore(db)
	profileStore := sqlite.NewProfileStore(db)
	planStore := sqlite.NewPlanStore(db)

	registry, err := buildRegistry(cfg)
	if err != nil {
		return fmt.Errorf("setup llm: %w", err)
	}

	var notifier placement.Notifier
	if cfg.RabbitMQURL != "" {
		conn, err := queue.NewConnection(cfg.RabbitMQURL)
		if err != nil {
			return fmt.Errorf("connect rabbitmq: %w", err)
		}
		defer conn.Close()
		notifier = queue.NewProducer(conn)
	} else {
		logger.Warn("queue disabled, completion events will only be logged")
	}

	contentSvc := content.NewService(contentStore, registry, logger)
	questionSvc := question.NewService(contentStore, registry, logger)
	profileSvc := profile.NewService(profileStore, logger)
	planSvc := plan.NewService(testStore, planStore, logger)
	placementSvc := placement.NewService(testStore, contentSvc, questionSvc, profileSvc, notifier, logger)

	server := daemon.NewServer(daemon.ServerConfig{
		Addr:       fmt.Sprintf(":%d", cfg.Port),
		Placements: placementSvc,
		Profiles:   profileSvc,
		Plans:      planSvc,
		Logger:     logger,
	})

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh

		logger.Info("received signal, shutting down", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
		close(done)
	}()

	logger.Info("caliperd listening", "port", cfg.Port, "driver", cfg.DatabaseDriver)
	if err := server.Start(); err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	logger.Info("daemon stopped")
	return nil
}

func setupLogging(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return logger
}

// buildRegistry wires the configured LLM provider behind the resilience
// wrapper and makes it the registry default.
func buildRegistry(cfg *config.Config) (*llm.Registry, error) {
	registry := llm.NewRegistry()

	var provider llm.Provider
	switch cfg.LLMProvider {
	case "claude":
		provider = llm.NewClaudeProvider(llm.ClaudeConfig{
			APIKey: cfg.LLMAPIKey,
			Model:  cfg.LLMModel,
		})
	case "openai":
		provider = llm.NewOpenAIProvider(llm.OpenAIConfig{
			APIKey: cfg.LLMAPIKey,
			Model:  cfg.LLMModel,
		})
	case "ollama":
		provider = llm.NewOllamaProvider(llm.OllamaConfig{
			BaseURL: cfg.OllamaURL,
			Model:   cfg.LLMModel,
		})
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLMProvider)
	}

	resilient := llm.NewResilientProvider(provider, llm.DefaultResilientConfig())
	registry.Register(cfg.LLMProvider, resilient)
	if err := registry.SetDefault(cfg.LLMProvider); err != nil {
		return nil, err
	}

	return registry, nil
}
