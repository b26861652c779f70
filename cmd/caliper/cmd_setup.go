package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/caliper/internal/config"
)

// cmdInit performs first-time setup of ~/.caliper
func cmdInit() error {
	fmt.Println("Caliper - First-Time Setup")
	fmt.Println("==========================")
	fmt.Println()

	fmt.Print("Creating ~/.caliper directory structure... ")
	caliperDir, err := config.EnsureCaliperDir()
	if err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	fmt.Println("✓")

	configPath := filepath.Join(caliperDir, "config.yaml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		fmt.Print("Creating default configuration... ")
		if err := config.SaveLocalConfig(config.DefaultLocalConfig()); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		fmt.Println("✓")
	} else {
		fmt.Println("Configuration already exists ✓")
	}

	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Printf("  1. Put provider API keys in %s\n", filepath.Join(caliperDir, "secrets.yaml"))
	fmt.Println("  2. Edit config.yaml to pick a default provider")
	fmt.Println("  3. Run 'caliper mcp' or start caliperd")

	return nil
}

// cmdConfig prints the effective local configuration
func cmdConfig() error {
	cfg, err := config.LoadLocalConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	fmt.Println("Caliper Configuration")
	fmt.Println("=====================")
	fmt.Println()
	fmt.Printf("Daemon:    %s:%d (log level %s)\n", cfg.Daemon.Bind, cfg.Daemon.Port, cfg.Daemon.LogLevel)
	fmt.Printf("Storage:   %s", cfg.Storage.Driver)
	if cfg.Storage.Driver == "sqlite" {
		fmt.Printf(" (%s)", cfg.Storage.SQLitePath)
	}
	fmt.Println()
	if cfg.Queue.URL != "" {
		fmt.Printf("Queue:     %s (%d workers)\n", cfg.Queue.URL, cfg.Queue.Workers)
	} else {
		fmt.Println("Queue:     disabled")
	}
	fmt.Println()
	fmt.Printf("Default LLM provider: %s\n", cfg.LLM.DefaultProvider)
	for name, p := range cfg.LLM.Providers {
		status := "disabled"
		if p.Enabled {
			status = "enabled"
			if p.APIKey == "" && name != "ollama" {
				status = "enabled, no API key"
			}
		}
		fmt.Printf("  %-8s %s (model %s)\n", name, status, p.Model)
	}

	return nil
}
