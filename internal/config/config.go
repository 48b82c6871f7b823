// Package config provides configuration loading and structs for the Naze server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Dataset   DatasetConfig   `yaml:"dataset"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatasetConfig holds the dataset snapshot source settings.
// Source is "csv" (directory of orders.csv, fleet_logs.csv, ...),
// "xlsx" (one workbook, one sheet per record kind), or "sqlite".
type DatasetConfig struct {
	Source string `yaml:"source"`
	Path   string `yaml:"path"`
	// Watch reloads and atomically swaps the snapshot when files change.
	Watch bool `yaml:"watch"`
}

// EmbeddingConfig holds embedder settings.
type EmbeddingConfig struct {
	ModelPath  string `yaml:"model_path"`
	Dimensions int    `yaml:"dimensions"`
	MaxTokens  int    `yaml:"max_tokens"`
	CacheSize  int    `yaml:"cache_size"`
	BatchSize  int    `yaml:"batch_size"`
	// Concurrency bounds simultaneous inference calls across requests.
	Concurrency int `yaml:"concurrency"`
	TimeoutMS   int `yaml:"timeout_ms"`
}

// AnalysisConfig holds similarity, clustering, and synthesis settings.
type AnalysisConfig struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	KMeansClusters      int     `yaml:"kmeans_clusters"`
	ClusterSeed         int64   `yaml:"cluster_seed"`
	MinClusterSamples   int     `yaml:"min_cluster_samples"`
	// MinPatternPercent is the materiality threshold for frequency patterns.
	MinPatternPercent float64 `yaml:"min_pattern_percent"`
	INRRate           float64 `yaml:"inr_rate"`
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

	configDir := filepath.Dir(path)
	cfg.Dataset.Path = expandPath(cfg.Dataset.Path, configDir)
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)

	return &cfg, nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
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
