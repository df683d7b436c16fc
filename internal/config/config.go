package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xxxsen/common/logger"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port             int              `json:"port"`
	Database         DatabaseConfig   `json:"database"`
	LogConfig        logger.LogConfig `json:"log_config"`
	CORSAllowOrigins []string         `json:"cors_allow_origins"`
	AI               AIConfig         `json:"ai"`
	Similarity       SimilarityConfig `json:"similarity"`
	Archive          FileStoreConfig  `json:"archive"`
	RateLimit        RateLimitConfig  `json:"rate_limit"`
	MaxIngestBytes   int64            `json:"max_ingest_bytes"`
}

type DatabaseConfig struct {
	Driver   string `json:"driver"`
	DSN      string `json:"dsn"`
	Path     string `json:"path"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

type AIConfig struct {
	Classifier      ProviderConfig   `json:"classifier"`
	Generators      []ProviderConfig `json:"generators"`
	Timeout         int              `json:"timeout"`
	MaxInputChars   int              `json:"max_input_chars"`
	CacheSize       int              `json:"cache_size"`
	CacheTTLSeconds int              `json:"cache_ttl_seconds"`
	Breaker         BreakerConfig    `json:"breaker"`
}

// ProviderConfig selects a provider by name; Data is handed to the provider factory untouched.
type ProviderConfig struct {
	Name     string      `json:"name"`
	Provider string      `json:"provider"`
	Model    string      `json:"model"`
	Data     interface{} `json:"data"`
}

type BreakerConfig struct {
	MaxFailures uint32 `json:"max_failures"`
	OpenSeconds int    `json:"open_seconds"`
}

type SimilarityConfig struct {
	MaxFeatures int    `json:"max_features"`
	RebuildCron string `json:"rebuild_cron"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type RateLimitConfig struct {
	SuggestReplyWindowMs int `json:"suggest_reply_window_ms"`
}

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" {
		raw, err = yamlToJSON(raw)
		if err != nil {
			return nil, fmt.Errorf("decode config: %w", err)
		}
	}
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) applyDefaults() error {
	if cfg.Port == 0 {
		return fmt.Errorf("port is required")
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	switch cfg.Database.Driver {
	case "sqlite":
		if cfg.Database.Path == "" && cfg.Database.DSN == "" {
			return fmt.Errorf("database.path is required for sqlite")
		}
	case "postgres":
		if cfg.Database.DSN == "" && cfg.Database.Host == "" {
			return fmt.Errorf("database.dsn or database.host is required for postgres")
		}
		if cfg.Database.Port == 0 {
			cfg.Database.Port = 5432
		}
	default:
		return fmt.Errorf("database.driver must be sqlite or postgres")
	}
	if cfg.AI.Classifier.Provider == "" {
		cfg.AI.Classifier.Provider = "lexicon"
	}
	for i := range cfg.AI.Generators {
		if cfg.AI.Generators[i].Provider == "" {
			return fmt.Errorf("ai.generators[%d].provider is required", i)
		}
		if cfg.AI.Generators[i].Name == "" {
			cfg.AI.Generators[i].Name = cfg.AI.Generators[i].Provider
		}
	}
	if cfg.AI.Timeout == 0 {
		cfg.AI.Timeout = 30
	}
	if cfg.AI.MaxInputChars == 0 {
		cfg.AI.MaxInputChars = 400
	}
	if cfg.AI.CacheSize == 0 {
		cfg.AI.CacheSize = 1000
	}
	if cfg.AI.CacheTTLSeconds == 0 {
		cfg.AI.CacheTTLSeconds = 3600
	}
	if cfg.AI.Breaker.MaxFailures == 0 {
		cfg.AI.Breaker.MaxFailures = 5
	}
	if cfg.AI.Breaker.OpenSeconds == 0 {
		cfg.AI.Breaker.OpenSeconds = 60
	}
	if cfg.Similarity.MaxFeatures == 0 {
		cfg.Similarity.MaxFeatures = 1000
	}
	if cfg.MaxIngestBytes == 0 {
		cfg.MaxIngestBytes = 32 * 1024 * 1024
	}
	switch strings.ToLower(cfg.Archive.Type) {
	case "", "local", "s3":
	default:
		return fmt.Errorf("archive.type must be local or s3")
	}
	return nil
}

func yamlToJSON(raw []byte) ([]byte, error) {
	var generic interface{}
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	return json.Marshal(normalizeYAML(generic))
}

// normalizeYAML rewrites map[interface{}]interface{} nodes so encoding/json can marshal them.
func normalizeYAML(v interface{}) interface{} {
	switch node := v.(type) {
	case map[string]interface{}:
		for k, item := range node {
			node[k] = normalizeYAML(item)
		}
		return node
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(node))
		for k, item := range node {
			out[fmt.Sprint(k)] = normalizeYAML(item)
		}
		return out
	case []interface{}:
		for i, item := range node {
			node[i] = normalizeYAML(item)
		}
		return node
	default:
		return v
	}
}
