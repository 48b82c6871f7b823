package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Dataset.Source == "" {
		cfg.Dataset.Source = "csv"
	}
	if cfg.Dataset.Path == "" {
		cfg.Dataset.Path = "/usr/local/var/naze/data"
	}
	if cfg.Embedding.ModelPath == "" {
		cfg.Embedding.ModelPath = "/usr/local/var/naze/models/all-MiniLM-L12-v2.onnx"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Embedding.BatchSize == 0 {
		cfg.Embedding.BatchSize = 32
	}
	if cfg.Embedding.Concurrency == 0 {
		cfg.Embedding.Concurrency = 4
	}
	if cfg.Embedding.TimeoutMS == 0 {
		cfg.Embedding.TimeoutMS = 800
	}
	if cfg.Analysis.SimilarityThreshold == 0 {
		cfg.Analysis.SimilarityThreshold = 0.7
	}
	if cfg.Analysis.KMeansClusters == 0 {
		cfg.Analysis.KMeansClusters = 5
	}
	if cfg.Analysis.ClusterSeed == 0 {
		cfg.Analysis.ClusterSeed = 42
	}
	if cfg.Analysis.MinClusterSamples == 0 {
		cfg.Analysis.MinClusterSamples = 5
	}
	if cfg.Analysis.MinPatternPercent == 0 {
		cfg.Analysis.MinPatternPercent = 5.0
	}
	if cfg.Analysis.INRRate == 0 {
		cfg.Analysis.INRRate = 83.0
	}
}
