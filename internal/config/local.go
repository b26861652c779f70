package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LocalConfig holds configuration for self-hosted daemon deployments,
// read from ~/.caliper/config.yaml.
type LocalConfig struct {
	Daemon  DaemonConfig  `yaml:"daemon"`
	LLM     LLMConfig     `yaml:"llm"`
	Storage StorageConfig `yaml:"storage"`
	Queue   QueueConfig   `yaml:"queue"`
}

// DaemonConfig holds daemon server settings
type DaemonConfig struct {
	Port     int    `yaml:"port"`
	Bind     string `yaml:"bind"`
	LogLevel string `yaml:"log_level"`
}

// LLMConfig holds LLM provider settings
type LLMConfig struct {
	DefaultProvider string                     `yaml:"default_provider"`
	Providers       map[string]*ProviderConfig `yaml:"providers"`
}

// ProviderConfig holds settings for a single LLM provider
type ProviderConfig struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model"`
	URL     string `yaml:"url,omitempty"` // For Ollama
	APIKey  string `yaml:"-"`             // Loaded from secrets.yaml
}

// StorageConfig selects the database backend
type StorageConfig struct {
	Driver     string `yaml:"driver"` // sqlite, postgres
	SQLitePath string `yaml:"sqlite_path"`
	Postgres   string `yaml:"postgres_url"`
}

// QueueConfig holds RabbitMQ settings. An empty URL disables the queue;
// completion events are then only logged.
type QueueConfig struct {
	URL     string `yaml:"url"`
	Workers int    `yaml:"workers"`
}

// SecretsConfig holds API keys loaded from secrets.yaml
type SecretsConfig struct {
	Providers map[string]struct {
		APIKey string `yaml:"api_key"`
	} `yaml:"providers"`
}

// CaliperDir returns the path to ~/.caliper
func CaliperDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".caliper"), nil
}

// EnsureCaliperDir creates ~/.caliper and subdirectories if they don't exist
func EnsureCaliperDir() (string, error) {
	dir, err := CaliperDir()
	if err != nil {
		return "", err
	}

	for _, subdir := range []string{"", "logs", "data"} {
		path := filepath.Join(dir, subdir)
		if err := os.MkdirAll(path, 0755); err != nil {
			return "", fmt.Errorf("create dir %s: %w", path, err)
		}
	}

	return dir, nil
}

// DefaultLocalConfig returns sensible defaults for local mode
func DefaultLocalConfig() *LocalConfig {
	return &LocalConfig{
		Daemon: DaemonConfig{
			Port:     7542,
			Bind:     "127.0.0.1",
			LogLevel: "info",
		},
		LLM: LLMConfig{
			DefaultProvider: "auto",
			Providers: map[string]*ProviderConfig{
				"claude": {
					Enabled: true,
					Model:   "claude-sonnet-4-20250514",
				},
				"openai": {
					Enabled: false,
					Model:   "gpt-4o",
				},
				"ollama": {
					Enabled: true,
					URL:     "http://localhost:11434",
					Model:   "llama2",
				},
			},
		},
		Storage: StorageConfig{
			Driver:     "sqlite",
			SQLitePath: "caliper.db",
		},
		Queue: QueueConfig{
			Workers: 3,
		},
	}
}

// LoadLocalConfig loads configuration from ~/.caliper/config.yaml
func LoadLocalConfig() (*LocalConfig, error) {
	dir, err := CaliperDir()
	if err != nil {
		return nil, err
	}

	configPath := filepath.Join(dir, "config.yaml")

	// If config doesn't exist, return defaults
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultLocalConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultLocalConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := loadSecrets(dir, cfg); err != nil {
		return nil, fmt.Errorf("load secrets: %w", err)
	}

	return cfg, nil
}

// loadSecrets loads API keys from secrets.yaml
func loadSecrets(dir string, cfg *LocalConfig) error {
	secretsPath := filepath.Join(dir, "secrets.yaml")

	if _, err := os.Stat(secretsPath); os.IsNotExist(err) {
		return nil
	}

	data, err := os.ReadFile(secretsPath)
	if err != nil {
		return fmt.Errorf("read secrets: %w", err)
	}

	var secrets SecretsConfig
	if err := yaml.Unmarshal(data, &secrets); err != nil {
		return fmt.Errorf("parse secrets: %w", err)
	}

	for name, secret := range secrets.Providers {
		if provider, ok := cfg.LLM.Providers[name]; ok {
			provider.APIKey = secret.APIKey
		}
	}

	return nil
}

// SaveLocalConfig saves configuration to ~/.caliper/config.yaml
func SaveLocalConfig(cfg *LocalConfig) error {
	dir, err := EnsureCaliperDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(dir, "config.yaml")

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}
