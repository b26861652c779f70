package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/felixgeelhaar/caliper/internal/config"
	"github.com/felixgeelhaar/caliper/internal/content"
	"github.com/felixgeelhaar/caliper/internal/llm"
	mcpserver "github.com/felixgeelhaar/caliper/internal/mcp"
	"github.com/felixgeelhaar/caliper/internal/placement"
	"github.com/felixgeelhaar/caliper/internal/profile"
	"github.com/felixgeelhaar/caliper/internal/question"
	"github.com/felixgeelhaar/caliper/internal/queue"
	"github.com/felixgeelhaar/caliper/internal/storage/sqlite"
)

// cmdMCP runs the placement engine as an MCP server on stdio
func cmdMCP() error {
	cfg, err := config.LoadLocalConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	caliperDir, err := config.EnsureCaliperDir()
	if err != nil {
		return fmt.Errorf("ensure caliper dir: %w", err)
	}

	// Stdout carries the MCP protocol; logs go to stderr only.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	registry := llm.NewRegistry()
	for name, providerCfg := range cfg.LLM.Providers {
		if !providerCfg.Enabled || (providerCfg.APIKey == "" && name != "ollama") {
			continue
		}

		var provider llm.Provider
		switch name {
		case "claude":
			provider = llm.NewClaudeProvider(llm.ClaudeConfig{
				APIKey: providerCfg.APIKey,
				Model:  providerCfg.Model,
			})
		case "openai":
			provider = llm.NewOpenAIProvider(llm.OpenAIConfig{
				APIKey: providerCfg.APIKey,
				Model:  providerCfg.Model,
			})
		case "ollama":
			provider = llm.NewOllamaProvider(llm.OllamaConfig{
				BaseURL: providerCfg.URL,
				Model:   providerCfg.Model,
			})
		default:
			continue
		}
		registry.Register(name, llm.NewResilientProvider(provider, llm.DefaultResilientConfig()))
	}
	if cfg.LLM.DefaultProvider != "" && cfg.LLM.DefaultProvider != "auto" {
		if err := registry.SetDefault(cfg.LLM.DefaultProvider); err != nil {
			return fmt.Errorf("set default provider: %w", err)
		}
	}

	dbPath := cfg.Storage.SQLitePath
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(caliperDir, "data", dbPath)
	}
	db, err := sqlite.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrate sqlite: %w", err)
	}

	testStore := sqlite.NewTestStore(db)
	contentStore := sqlite.NewContentStore(db)

	var notifier placement.Notifier
	if cfg.Queue.URL != "" {
		conn, err := queue.NewConnection(cfg.Queue.URL)
		if err != nil {
			return fmt.Errorf("connect queue: %w", err)
		}
		defer conn.Close()
		notifier = queue.NewProducer(conn)
	}

	contentSvc := content.NewService(contentStore, registry, logger)
	questionSvc := question.NewService(contentStore, registry, logger)
	profileSvc := profile.NewService(sqlite.NewProfileStore(db), logger)
	placementSvc := placement.NewService(testStore, contentSvc, questionSvc, profileSvc, notifier, logger)

	mcpSrv := mcpserver.NewServer(mcpserver.Config{
		Placements: placementSvc,
		Profiles:   profileSvc,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	return mcpSrv.ServeStdio(ctx)
}
