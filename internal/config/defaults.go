package config

import "time"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5000
	}
	if cfg.Server.MaxUploadBytes == 0 {
		cfg.Server.MaxUploadBytes = 5 * 1024 * 1024
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 60 * time.Second
	}
	if cfg.Server.CORSOrigins == nil {
		cfg.Server.CORSOrigins = []string{"*"}
	}
	if cfg.Catalog.Path == "" {
		cfg.Catalog.Path = "./product_features.json"
	}
	if cfg.Embedding.Backend == "" {
		cfg.Embedding.Backend = "command"
	}
	if cfg.Embedding.Backend == "command" && cfg.Embedding.Command == "" {
		cfg.Embedding.Command = "python"
		if cfg.Embedding.Args == nil {
			cfg.Embedding.Args = []string{"./compute_embedding.py"}
		}
	}
	if cfg.Embedding.InputName == "" {
		cfg.Embedding.InputName = "input_1"
	}
	if cfg.Embedding.OutputName == "" {
		cfg.Embedding.OutputName = "avg_pool"
	}
	if cfg.Embedding.InputSize == 0 {
		cfg.Embedding.InputSize = 224
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 2048
	}
	if cfg.Embedding.Timeout == 0 {
		cfg.Embedding.Timeout = 30 * time.Second
	}
	if cfg.Embedding.MaxConcurrent == 0 {
		cfg.Embedding.MaxConcurrent = 4
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 1000
	}
	if cfg.Embedding.Redis.Addr != "" && cfg.Embedding.Redis.TTL == 0 {
		cfg.Embedding.Redis.TTL = 24 * time.Hour
	}
	if cfg.Search.DefaultTopK == 0 {
		cfg.Search.DefaultTopK = 6
	}
	if cfg.Search.MaxTopK == 0 {
		cfg.Search.MaxTopK = 100
	}
}
