// Package config loads the optional modelpipe configuration file
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	ConfigDirName  = ".modelpipe"
	ConfigFileName = "config.yaml"

	// EnvConfigPath overrides the config file location
	EnvConfigPath = "MODELPIPE_CONFIG"
)

// Config holds the modelpipe configuration
type Config struct {
	Embeddings EmbeddingsSection `yaml:"embeddings"`
	Extraction ExtractionSection `yaml:"extraction"`
	Log        LogSection        `yaml:"log"`
}

// EmbeddingsSection configures the embedding backends
type EmbeddingsSection struct {
	Ollama OllamaConfig `yaml:"ollama"`
	Voyage VoyageConfig `yaml:"voyage"`
}

// OllamaConfig configures the local Ollama backend
type OllamaConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// VoyageConfig configures the remote Voyage AI backend. The API key is never
// configured here; it comes from the VOYAGE_API_KEY environment variable only.
type VoyageConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// ExtractionSection configures the extraction server
type ExtractionSection struct {
	MaxFileSizeMB int `yaml:"max_file_size_mb"`
	CacheSize     int `yaml:"cache_size"` // negative disables result caching
}

// LogSection configures stderr diagnostics
type LogSection struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// DefaultConfig returns the built-in defaults. OLLAMA_HOST seeds the local
// backend URL when set.
func DefaultConfig() *Config {
	return &Config{
		Embeddings: EmbeddingsSection{
			Ollama: OllamaConfig{
				BaseURL:        getEnvOrDefault("OLLAMA_HOST", "http://localhost:11434"),
				TimeoutSeconds: 120,
			},
			Voyage: VoyageConfig{
				BaseURL:        "https://api.voyageai.com/v1",
				TimeoutSeconds: 60,
			},
		},
		Extraction: ExtractionSection{
			MaxFileSizeMB: 50,
			CacheSize:     32,
		},
		Log: LogSection{
			Level: "info",
		},
	}
}

// DefaultPath returns the config file location under the user's home directory
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ConfigDirName, ConfigFileName), nil
}

// Load reads the config file named by MODELPIPE_CONFIG, falling back to
// ~/.modelpipe/config.yaml. A missing file yields the defaults; values set in
// the file override them field by field.
func Load() (*Config, error) {
	path := os.Getenv(EnvConfigPath)
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return DefaultConfig(), nil
		}
	}
	return LoadFile(path)
}

// LoadFile reads configuration from an explicit path. A missing file yields
// the defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// applyDefaults fills in missing configuration values with the defaults.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	if c.Embeddings.Ollama.BaseURL == "" {
		c.Embeddings.Ollama.BaseURL = defaults.Embeddings.Ollama.BaseURL
	}
	if c.Embeddings.Ollama.TimeoutSeconds == 0 {
		c.Embeddings.Ollama.TimeoutSeconds = defaults.Embeddings.Ollama.TimeoutSeconds
	}
	if c.Embeddings.Voyage.BaseURL == "" {
		c.Embeddings.Voyage.BaseURL = defaults.Embeddings.Voyage.BaseURL
	}
	if c.Embeddings.Voyage.TimeoutSeconds == 0 {
		c.Embeddings.Voyage.TimeoutSeconds = defaults.Embeddings.Voyage.TimeoutSeconds
	}
	if c.Extraction.MaxFileSizeMB == 0 {
		c.Extraction.MaxFileSizeMB = defaults.Extraction.MaxFileSizeMB
	}
	if c.Extraction.CacheSize == 0 {
		c.Extraction.CacheSize = defaults.Extraction.CacheSize
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
}

// getEnvOrDefault returns the environment variable value or a default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
