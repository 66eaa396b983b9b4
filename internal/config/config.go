// Package config provides configuration loading and structs for the lookalike server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Search    SearchConfig    `yaml:"search"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	CORSOrigins    []string      `yaml:"cors_origins"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// CatalogConfig holds the catalog source. The format follows the file
// extension: .json, .xlsx or .db/.sqlite.
type CatalogConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
}

// EmbeddingConfig selects and configures the embedder backend.
type EmbeddingConfig struct {
	// Backend is one of command, http, onnx or mock.
	Backend string   `yaml:"backend"`
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
	URL     string   `yaml:"url"`

	ModelPath      string `yaml:"model_path"`
	ORTLibraryPath string `yaml:"ort_library_path"`
	InputName      string `yaml:"input_name"`
	OutputName     string `yaml:"output_name"`
	InputSize      int    `yaml:"input_size"`
	// Dimensions is the embedding length the backend produces. Only the
	// onnx and mock backends need it up front.
	Dimensions int `yaml:"dimensions"`

	Timeout       time.Duration `yaml:"timeout"`
	MaxConcurrent int           `yaml:"max_concurrent"`
	CacheSize     int           `yaml:"cache_size"`
	TempDir       string        `yaml:"temp_dir"`
	Redis         RedisConfig   `yaml:"redis"`
}

// RedisConfig enables a shared embedding cache when Addr is set.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// SearchConfig holds ranking limits.
type SearchConfig struct {
	DefaultTopK int `yaml:"default_top_k"`
	MaxTopK     int `yaml:"max_top_k"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}

	configDir := filepath.Dir(path)
	cfg.Catalog.Path = expandPath(cfg.Catalog.Path, configDir)
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	cfg.Embedding.TempDir = expandPath(cfg.Embedding.TempDir, configDir)
	for i, arg := range cfg.Embedding.Args {
		if strings.HasPrefix(arg, "./") {
			cfg.Embedding.Args[i] = expandPath(arg, configDir)
		}
	}

	return &cfg, cfg.Validate()
}

// Default returns the configuration used when no config file exists.
func Default() (*Config, error) {
	var cfg Config
	ApplyDefaults(&cfg)
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, cfg.Validate()
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	switch c.Embedding.Backend {
	case "command":
		if c.Embedding.Command == "" {
			return fmt.Errorf("embedding.command is required for the command backend")
		}
	case "http":
		if c.Embedding.URL == "" {
			return fmt.Errorf("embedding.url is required for the http backend")
		}
	case "onnx":
		if c.Embedding.ModelPath == "" {
			return fmt.Errorf("embedding.model_path is required for the onnx backend")
		}
	case "mock":
	default:
		return fmt.Errorf("unknown embedding backend %q", c.Embedding.Backend)
	}
	if c.Search.DefaultTopK > c.Search.MaxTopK {
		return fmt.Errorf("search.default_top_k (%d) exceeds search.max_top_k (%d)", c.Search.DefaultTopK, c.Search.MaxTopK)
	}
	if c.Catalog.Path == "" {
		return fmt.Errorf("catalog.path is required")
	}
	return nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnv lets PORT override server.port.
func applyEnv(cfg *Config) error {
	v := os.Getenv("PORT")
	if v == "" {
		return nil
	}
	port, err := strconv.Atoi(v)
	if err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("invalid PORT %q", v)
	}
	cfg.Server.Port = port
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory. Empty paths stay empty.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
