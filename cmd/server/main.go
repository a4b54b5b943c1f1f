package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ruvnet/ultrasonic/internal/config"
	"github.com/ruvnet/ultrasonic/internal/crypto"
	"github.com/ruvnet/ultrasonic/internal/metrics"
	"github.com/ruvnet/ultrasonic/internal/server"
	"github.com/ruvnet/ultrasonic/internal/stego"
)

const (
	defaultConfigPath = "configs/config.yaml"
	serviceName       = "ultrasonic"
	serviceVersion    = "1.0.0"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Load configuration; a missing default file falls back to built-in
	// defaults so the service can run without any setup
	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger based on configuration
	logger := initLogger(cfg.Logging)

	// Log service startup
	logger.Info("Service starting",
		slog.String("service", serviceName),
		slog.String("version", serviceVersion),
		slog.String("config_path", *configPath),
	)

	// Log configuration summary (without sensitive data)
	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.HTTP.Address),
		slog.Int("http_port", cfg.HTTP.Port),
		slog.Float64("freq0", cfg.Modem.Freq0),
		slog.Float64("freq1", cfg.Modem.Freq1),
		slog.Int("sample_rate", cfg.Modem.SampleRate),
		slog.Float64("bit_duration", cfg.Modem.BitDuration),
		slog.String("discriminator", cfg.Modem.Discriminator),
		slog.String("coding_scheme", cfg.Modem.CodingScheme),
		slog.String("log_level", cfg.Logging.Level),
	)

	// Create the payload cipher
	cipher, err := initCipher(cfg.Crypto, logger)
	if err != nil {
		logger.Error("Failed to create cipher", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize Prometheus metrics
	appMetrics := metrics.NewMetrics()
	logger.Info("Prometheus metrics initialized")

	// Build the embed and extract pipelines
	modemCfg := cfg.Modem.ToFSK()
	scheme := cfg.Modem.Scheme()

	embedder, err := stego.NewEmbedder(modemCfg, scheme, cipher, cfg.Modem.MinHostDuration, logger)
	if err != nil {
		logger.Error("Failed to create embedder", slog.String("error", err.Error()))
		os.Exit(1)
	}
	extractor, err := stego.NewExtractor(modemCfg, scheme, cipher, logger)
	if err != nil {
		logger.Error("Failed to create extractor", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Modem pipelines initialized",
		slog.Float64("carrier_seconds_per_100_bytes", embedder.EstimateDuration(100)),
	)

	// Initialize the MCP tool surface and the HTTP API server
	mcpServer := server.NewMCPServer(cfg, embedder, extractor)
	httpServer := server.NewHTTPServer(cfg, logger, embedder, extractor, appMetrics, mcpServer)

	if err := httpServer.Start(); err != nil {
		logger.Error("Failed to start HTTP server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("Service started successfully, waiting for signals...",
		slog.String("http_address", fmt.Sprintf("%s:%d", cfg.HTTP.Address, cfg.HTTP.Port)),
	)

	sig := <-sigChan
	logger.Info("Received shutdown signal", slog.String("signal", sig.String()))

	logger.Info("Starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Error("Error stopping HTTP server", slog.String("error", err.Error()))
	}

	logger.Info("Service stopped")
}

// loadConfig loads the configuration file, tolerating a missing file only
// when the default path was used.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) && path == defaultConfigPath {
		return config.Default(), nil
	}
	return config.Load(path)
}

// initCipher builds the payload cipher from configuration. Without a
// configured key a random one is generated and logged so a paired decoder
// can still be started by hand.
func initCipher(cfg config.CryptoConfig, logger *slog.Logger) (*crypto.Cipher, error) {
	if cfg.Key != "" {
		return crypto.NewCipherFromBase64(cfg.Key)
	}

	cipher, err := crypto.NewRandomCipher()
	if err != nil {
		return nil, err
	}
	logger.Warn("No crypto key configured, generated a random key",
		slog.String("key", cipher.KeyBase64()),
	)
	return cipher, nil
}

// initLogger creates and configures the structured logger based on configuration
func initLogger(cfg config.LoggingConfig) *slog.Logger {
	// Parse log level
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo // default fallback
	}

	// Configure handler options
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug, // Add source info for debug level
	}

	// Determine output destination
	var output *os.File
	switch cfg.Output {
	case "stderr":
		output = os.Stderr
	case "stdout", "":
		output = os.Stdout
	default:
		// Assume it's a file path
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v, falling back to stdout\n", cfg.Output, err)
			output = os.Stdout
		} else {
			output = file
		}
	}

	// Create handler based on format
	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	case "text", "":
		handler = slog.NewTextHandler(output, opts)
	default:
		// Default to text format
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler)
}
