package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the chat backend.
type Config struct {
	Chunk     ChunkConfig     `yaml:"chunk"`
	Retrieve  RetrieveConfig  `yaml:"retrieve"`
	Generator GeneratorConfig `yaml:"generator"`
	Server    ServerConfig    `yaml:"server"`
	Documents DocumentsConfig `yaml:"documents"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ChunkConfig holds the chunker window settings, in characters.
type ChunkConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	TopK                 int  `yaml:"top_k"`
	MinChunkLength       int  `yaml:"min_chunk_length"`
	FilterBeforeTruncate bool `yaml:"filter_before_truncate"` // drop short chunks before taking the top K
}

// GeneratorConfig selects and tunes the hosted model.
type GeneratorConfig struct {
	Provider        string        `yaml:"provider"` // "gemini", "openai", "anthropic", "mock"
	Model           string        `yaml:"model"`
	APIKeyEnv       string        `yaml:"api_key_env"` // empty selects the provider's usual variable
	BaseURL         string        `yaml:"base_url"`
	Temperature     float32       `yaml:"temperature"`
	TopK            int           `yaml:"top_k"`
	TopP            float32       `yaml:"top_p"`
	MaxOutputTokens int           `yaml:"max_output_tokens"`
	Timeout         time.Duration `yaml:"timeout"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr           string `yaml:"addr"`
	MaxBodyBytes   int64  `yaml:"max_body_bytes"`
	MetricsEnabled bool   `yaml:"metrics_enabled"`
	OTLPEndpoint   string `yaml:"otlp_endpoint"` // host:port of an OTLP/HTTP collector, empty disables tracing
}

// DocumentsConfig controls which local files the CLI loads.
type DocumentsConfig struct {
	Includes     []string `yaml:"includes"`
	Excludes     []string `yaml:"excludes"`
	MaxFileBytes int64    `yaml:"max_file_bytes"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

var providers = []string{"gemini", "openai", "anthropic", "mock"}

var defaultKeyEnv = map[string]string{
	"gemini":    "GEMINI_API_KEY",
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Chunk: ChunkConfig{
			Size:    1000,
			Overlap: 200,
		},
		Retrieve: RetrieveConfig{
			TopK:           3,
			MinChunkLength: 50,
		},
		Generator: GeneratorConfig{
			Provider:        "gemini",
			Model:           "gemini-1.5-flash",
			Temperature:     0.7,
			TopK:            40,
			TopP:            0.95,
			MaxOutputTokens: 1024,
			Timeout:         60 * time.Second,
		},
		Server: ServerConfig{
			Addr:           ":8080",
			MaxBodyBytes:   10 << 20,
			MetricsEnabled: true,
		},
		Documents: DocumentsConfig{
			Includes:     []string{"**/*.txt", "**/*.md", "**/*.markdown", "**/*.pdf"},
			Excludes:     []string{"**/node_modules/**", "**/.git/**", "**/vendor/**"},
			MaxFileBytes: 10 << 20,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for ragchat.yaml,
// then .ragchat/config.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "ragchat.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".ragchat", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadEnvFile loads variables from a .env file into the process environment.
// Variables already set win. A missing file is not an error.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return godotenv.Load(path)
}

// ApplyEnv overrides configuration from RAGCHAT_* environment variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("RAGCHAT_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("RAGCHAT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("RAGCHAT_PROVIDER"); v != "" {
		c.Generator.Provider = strings.ToLower(v)
	}
	if v := os.Getenv("RAGCHAT_MODEL"); v != "" {
		c.Generator.Model = v
	}
	if v := os.Getenv("RAGCHAT_OTLP_ENDPOINT"); v != "" {
		c.Server.OTLPEndpoint = v
	}
	if v := os.Getenv("RAGCHAT_TOP_K"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RAGCHAT_TOP_K: %w", err)
		}
		c.Retrieve.TopK = n
	}
	if v := os.Getenv("RAGCHAT_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("RAGCHAT_TIMEOUT: %w", err)
		}
		c.Generator.Timeout = d
	}
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Chunk.Size <= 0 {
		return fmt.Errorf("chunk.size must be positive, got %d", c.Chunk.Size)
	}
	if c.Chunk.Overlap < 0 {
		return fmt.Errorf("chunk.overlap must not be negative, got %d", c.Chunk.Overlap)
	}
	if c.Retrieve.TopK <= 0 {
		return fmt.Errorf("retrieve.top_k must be positive, got %d", c.Retrieve.TopK)
	}
	if c.Generator.Timeout < 0 {
		return fmt.Errorf("generator.timeout must not be negative, got %s", c.Generator.Timeout)
	}
	for _, p := range providers {
		if c.Generator.Provider == p {
			return nil
		}
	}
	return fmt.Errorf("generator.provider %q is not one of %s", c.Generator.Provider, strings.Join(providers, ", "))
}

// KeyEnv returns the environment variable holding the server-side API key.
func (g GeneratorConfig) KeyEnv() string {
	if g.APIKeyEnv != "" {
		return g.APIKeyEnv
	}
	return defaultKeyEnv[g.Provider]
}

// APIKey returns the server-side API key, or "" when none is configured.
func (g GeneratorConfig) APIKey() string {
	env := g.KeyEnv()
	if env == "" {
		return ""
	}
	return os.Getenv(env)
}

// ConfigPath returns the default location written by "config init".
func ConfigPath(dir string) string {
	return filepath.Join(dir, "ragchat.yaml")
}
