// Package main is the Naze CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/hyperjump/naze/internal/analysis"
	"github.com/hyperjump/naze/internal/config"
	"github.com/hyperjump/naze/internal/dataset"
	"github.com/hyperjump/naze/internal/embedding"
	"github.com/hyperjump/naze/internal/interpret"
	"github.com/hyperjump/naze/internal/models"
	"github.com/hyperjump/naze/internal/server"
	"github.com/hyperjump/naze/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/naze/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used,
// so that "naze server" from the project dir uses the project's config (including debug).
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "analyze":
		runAnalyze()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("naze version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (dataset reloads, query interpretation, etc.)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	var watchSvc *dataset.Watcher
	if cfg.Dataset.Watch {
		watchSvc = dataset.NewWatcher(cfg.Dataset.Path, components.Provider, logger)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start dataset watcher", zap.Error(err))
		}
	}

	srv := server.NewServer(components.Engine, &cfg.Server, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	if watchSvc != nil {
		watchSvc.Stop()
	}
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// buildAnalyzeQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildAnalyzeQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func runAnalyze() {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = load the dataset directly when server is not running)")
	outputFormat := fs.String("output", "text", "output format: text (human-readable) or json (parseable)")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: naze analyze [flags] <query>")
		fmt.Println("\nExamples:")
		fmt.Println(`  naze analyze why did deliveries fail in Mumbai last week`)
		fmt.Println(`  naze analyze --output json "failure reasons for Client X in March 2026"`)
		os.Exit(1)
	}
	queryStr := buildAnalyzeQuery(fs.Args())
	if queryStr == "" {
		fmt.Println("Usage: naze analyze [flags] <query>")
		os.Exit(1)
	}

	var response *models.AnalysisResponse
	if *serverURL != "" {
		// Use HTTP API when server is running (shares its warm embedding cache).
		resp, err := analyzeViaHTTP(*serverURL, queryStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Analysis failed: %v\n", err)
			os.Exit(1)
		}
		response = resp
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		logger, err := utils.NewLogger(cfg.Debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()

		components, err := initializeComponents(cfg, logger)
		if err != nil {
			logger.Fatal("Failed to initialize", zap.Error(err))
		}
		defer components.Close()

		resp, err := components.Engine.Analyze(context.Background(), queryStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Analysis failed: %v\n", err)
			os.Exit(1)
		}
		response = resp
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(response); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		printAnalysis(response)
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func printAnalysis(r *models.AnalysisResponse) {
	fmt.Printf("query:       %s\n", r.OriginalQuery)
	fmt.Printf("interpreted: %s\n", r.InterpretedQuery)
	fmt.Printf("orders:      %d analyzed, %d failed (%.1f%% success)\n",
		r.DataSummary.TotalOrders, r.DataSummary.FailedOrders, r.DataSummary.SuccessRate)
	if r.DegradedMode {
		fmt.Println("note: semantic analysis unavailable, frequency-only results")
	}
	fmt.Println()
	for i, c := range r.RootCauses {
		fmt.Printf("%d. %s (confidence %.2f, impact %s, %d orders)\n", i+1, c.Cause, c.Confidence, c.Impact, c.AffectedOrders)
		fmt.Printf("   %s\n", c.Evidence)
		for _, f := range c.ContributingFactors {
			fmt.Printf("   - %s\n", f)
		}
	}
	fmt.Println()
	fmt.Println("recommendations:")
	for _, rec := range r.Recommendations {
		fmt.Printf("  [%s] %s (%s, %s)\n", rec.Priority, rec.Title, rec.InvestmentRequired, rec.ImplementationTimeline)
	}
	fmt.Printf("\nestimated savings: INR %.0f across %d orders\n",
		r.ImpactAnalysis.EstimatedCostSavings, r.ImpactAnalysis.TotalAffectedOrders)
}

func analyzeViaHTTP(serverURL, query string) (*models.AnalysisResponse, error) {
	body, err := json.Marshal(models.AnalyzeRequest{Query: query})
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/analyze", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response models.AnalysisResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	resp, err := http.Get(*serverURL + "/api/v1/status")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		fmt.Fprintf(os.Stderr, "Status failed (%d): %s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}
	var status map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		fmt.Fprintf(os.Stderr, "Parse failed: %v\n", err)
		os.Exit(1)
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		if ds, ok := status["dataset"].(map[string]interface{}); ok {
			fmt.Println("# dataset")
			for _, key := range []string{"orders", "fleet_logs", "drivers", "warehouse_logs", "external_factors", "feedback", "warehouses", "clients", "loaded_at"} {
				if v, ok := ds[key]; ok {
					fmt.Printf("%-18s %v\n", key+":", v)
				}
			}
		}
		if model, ok := status["model"].(map[string]interface{}); ok {
			fmt.Println()
			fmt.Println("# model")
			for k, v := range model {
				fmt.Printf("%-22s %v\n", k+":", v)
			}
		}
		if up, ok := status["uptime_seconds"]; ok {
			fmt.Printf("\nuptime_seconds:    %v\n", up)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

// Components holds initialized services.
type Components struct {
	Provider *dataset.Provider
	Embedder embedding.Embedder
	Pool     *embedding.Pool
	Engine   *analysis.Engine
}

func (c *Components) Close() {
	if c.Pool != nil {
		_ = c.Pool.Close()
	}
}

func newLoader(cfg *config.Config, logger *zap.Logger) (dataset.Loader, error) {
	switch cfg.Dataset.Source {
	case "csv":
		return dataset.NewCSVLoader(cfg.Dataset.Path, logger), nil
	case "xlsx":
		return dataset.NewXLSXLoader(cfg.Dataset.Path, logger), nil
	case "sqlite":
		return dataset.NewSQLiteLoader(cfg.Dataset.Path, logger), nil
	default:
		return nil, fmt.Errorf("unknown dataset source %q (use csv, xlsx, or sqlite)", cfg.Dataset.Source)
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	loader, err := newLoader(cfg, logger)
	if err != nil {
		return nil, err
	}
	provider, err := dataset.NewProvider(loader, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}

	var embedder embedding.Embedder
	modelName := strings.TrimSuffix(filepath.Base(cfg.Embedding.ModelPath), filepath.Ext(cfg.Embedding.ModelPath))
	onnxEmbedder, err := embedding.NewONNXEmbedder(
		cfg.Embedding.ModelPath,
		cfg.Embedding.Dimensions,
		cfg.Embedding.MaxTokens,
		cfg.Embedding.CacheSize,
	)
	if err != nil {
		if logger != nil {
			logger.Warn("ONNX model unavailable, using mock embedder",
				zap.String("model_path", cfg.Embedding.ModelPath),
				zap.Error(err))
		}
		embedder = embedding.NewMockEmbedder(cfg.Embedding.Dimensions)
		modelName = "mock"
	} else {
		embedder = onnxEmbedder
	}

	pool := embedding.NewPool(embedder, cfg.Embedding.Concurrency, cfg.Embedding.BatchSize,
		time.Duration(cfg.Embedding.TimeoutMS)*time.Millisecond)

	engine := analysis.NewEngine(cfg, provider, interpret.NewInterpreter(logger), pool, modelName, logger)

	return &Components{
		Provider: provider,
		Embedder: embedder,
		Pool:     pool,
		Engine:   engine,
	}, nil
}

func printUsage() {
	fmt.Println(`naze - Delivery failure root cause analysis engine

Usage:
  naze server [flags]            Start the HTTP server
  naze analyze [flags] <query>   Run a root cause analysis query
  naze status [flags]            Show dataset and model status
  naze version                   Show version
  naze help                      Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/naze/config.yaml)
  --debug            Enable debug logging (dataset reloads, query interpretation, etc.)

Analyze Flags:
  --config string    Config file path (for direct dataset mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") to load the dataset directly.
  --output string    Output format: text or json (default: text)

Status Flags:
  --server string    Server URL (default: http://localhost:8080)
  --output string    Output format: text or json (default: text)

Examples:
  naze server
  naze analyze why did deliveries fail in Mumbai last week
  naze analyze --output json "compare failures between Delhi and Mumbai in March 2026"
  naze status`)
}
