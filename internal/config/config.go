package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the ragdex service configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Provider  ProviderConfig  `yaml:"provider"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Storage   StorageConfig   `yaml:"storage"`
	Sessions  SessionsConfig  `yaml:"sessions"`
	Redis     RedisConfig     `yaml:"redis"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// ProviderConfig holds model provider settings. The same embedding model
// serves both index builds and queries; mixing models across the two
// makes similarity scores meaningless and is refused at query time.
type ProviderConfig struct {
	Kind           string  `yaml:"kind"` // ollama, openai (default: ollama)
	BaseURL        string  `yaml:"base_url"`
	APIKey         string  `yaml:"api_key"`
	EmbedModel     string  `yaml:"embed_model"`
	ChatModel      string  `yaml:"chat_model"`
	Temperature    float64 `yaml:"temperature"`
	TopP           float64 `yaml:"top_p"`
	MaxTokens      int     `yaml:"max_tokens"`
	TimeoutSec     int     `yaml:"timeout_sec"`
	UnloadAfterUse bool    `yaml:"unload_after_build"`
}

// ChunkingConfig holds document chunking settings.
type ChunkingConfig struct {
	Size    int `yaml:"size"`    // target chunk size in characters
	Overlap int `yaml:"overlap"` // characters shared between consecutive chunks
}

// RetrievalConfig holds retrieval settings.
type RetrievalConfig struct {
	TopK int `yaml:"top_k"`
}

// StorageConfig holds on-disk layout settings.
type StorageConfig struct {
	Root     string `yaml:"root"`      // base directory (default: storage)
	DocsDir  string `yaml:"docs_dir"`  // staging area for uploaded documents
	IndexDir string `yaml:"index_dir"` // vector index directory, owned by the index
}

// SessionsConfig holds session persistence settings.
type SessionsConfig struct {
	Backend string `yaml:"backend"` // file, redis (default: file)
	Dir     string `yaml:"dir"`     // file backend directory
}

// RedisConfig holds connection settings for the redis-backed session
// store and the embedding cache.
type RedisConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	CacheEmbeddings  bool     `yaml:"cache_embeddings"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port <= 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		// Generation against a local model can take a while.
		c.HTTP.WriteTimeoutSec = 180
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Provider.Kind == "" {
		c.Provider.Kind = "ollama"
	}
	if c.Provider.BaseURL == "" && c.Provider.Kind == "ollama" {
		c.Provider.BaseURL = "http://localhost:11434"
	}
	if c.Provider.EmbedModel == "" {
		c.Provider.EmbedModel = "nomic-embed-text"
	}
	if c.Provider.ChatModel == "" {
		c.Provider.ChatModel = "llama3.2:3b"
	}
	if c.Provider.Temperature <= 0 {
		c.Provider.Temperature = 0.05
	}
	if c.Provider.TopP <= 0 {
		c.Provider.TopP = 0.85
	}
	if c.Provider.MaxTokens <= 0 {
		c.Provider.MaxTokens = 512
	}
	if c.Provider.TimeoutSec <= 0 {
		c.Provider.TimeoutSec = 120
	}
	if c.Chunking.Size <= 0 {
		c.Chunking.Size = 600
	}
	if c.Chunking.Overlap <= 0 {
		c.Chunking.Overlap = 100
	}
	if c.Retrieval.TopK <= 0 {
		c.Retrieval.TopK = 6
	}
	if c.Storage.Root == "" {
		c.Storage.Root = "storage"
	}
	if c.Storage.DocsDir == "" {
		c.Storage.DocsDir = "source_documents"
	}
	if c.Storage.IndexDir == "" {
		c.Storage.IndexDir = filepath.Join(c.Storage.Root, "index")
	}
	if c.Sessions.Backend == "" {
		c.Sessions.Backend = "file"
	}
	if c.Sessions.Dir == "" {
		c.Sessions.Dir = filepath.Join(c.Storage.Root, "sessions")
	}
	if c.Redis.ReadinessTimeout <= 0 {
		c.Redis.ReadinessTimeout = 10
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Provider.Kind {
	case "ollama", "openai":
	default:
		return fmt.Errorf("provider.kind must be \"ollama\" or \"openai\", got %q", c.Provider.Kind)
	}
	if c.Provider.Kind == "openai" && c.Provider.APIKey == "" {
		return fmt.Errorf("provider.api_key is required for the openai provider")
	}
	if c.Chunking.Overlap >= c.Chunking.Size {
		return fmt.Errorf("chunking.overlap (%d) must be smaller than chunking.size (%d)",
			c.Chunking.Overlap, c.Chunking.Size)
	}
	switch c.Sessions.Backend {
	case "file", "redis":
	default:
		return fmt.Errorf("sessions.backend must be \"file\" or \"redis\", got %q", c.Sessions.Backend)
	}
	if (c.Sessions.Backend == "redis" || c.Redis.CacheEmbeddings) && len(c.Redis.Addrs) == 0 {
		return fmt.Errorf("redis.addrs is required when redis is in use")
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
