package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ruvnet/ultrasonic/internal/config"
	"github.com/ruvnet/ultrasonic/internal/metrics"
	"github.com/ruvnet/ultrasonic/internal/stego"
)

// HTTPServer provides the HTTP API for embedding and extracting commands
type HTTPServer struct {
	server    *http.Server
	logger    *slog.Logger
	config    *config.Config
	embedder  *stego.Embedder
	extractor *stego.Extractor
	metrics   *metrics.Metrics
	mcp       *MCPServer

	startTime time.Time
}

// NewHTTPServer creates a new HTTP API server
func NewHTTPServer(cfg *config.Config, logger *slog.Logger,
	embedder *stego.Embedder, extractor *stego.Extractor, m *metrics.Metrics, mcp *MCPServer) *HTTPServer {

	h := &HTTPServer{
		logger:    logger,
		config:    cfg,
		embedder:  embedder,
		extractor: extractor,
		metrics:   m,
		mcp:       mcp,
		startTime: time.Now(),
	}

	mux := http.NewServeMux()
	h.setupRoutes(mux)

	h.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Address, cfg.HTTP.Port),
		Handler:      mux,
		ReadTimeout:  cfg.HTTP.GetReadTimeout(),
		WriteTimeout: cfg.HTTP.GetWriteTimeout(),
		IdleTimeout:  60 * time.Second,
	}

	return h
}

// setupRoutes configures HTTP API routes
func (h *HTTPServer) setupRoutes(mux *http.ServeMux) {
	// Embedding and extraction endpoints
	mux.HandleFunc("/embed/audio", h.withMetrics("/embed/audio", h.handleEmbed))
	mux.HandleFunc("/decode/audio", h.withMetrics("/decode/audio", h.handleDecode))
	mux.HandleFunc("/analyze/audio", h.withMetrics("/analyze/audio", h.handleAnalyze))

	// Configuration endpoint
	mux.HandleFunc("/config", h.withMetrics("/config", h.handleConfig))

	// Health check endpoint
	mux.HandleFunc("/health", h.withMetrics("/health", h.handleHealth))

	// Prometheus metrics endpoint
	mux.Handle("/metrics", promhttp.Handler())

	// Model Context Protocol endpoint
	if h.mcp != nil {
		mux.Handle("/mcp", h.mcp)
	}

	// Root endpoint with API documentation
	mux.HandleFunc("/", h.withMetrics("/", h.handleRoot))
}

// withMetrics wraps an HTTP handler with metrics collection
func (h *HTTPServer) withMetrics(endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()

		ww := &responseWriter{ResponseWriter: w, statusCode: 200}
		handler(ww, r)

		duration := time.Since(startTime).Seconds()
		h.metrics.RecordHTTPRequest(endpoint, fmt.Sprintf("%d", ww.statusCode), duration)

		if ww.statusCode >= 400 {
			h.metrics.RecordHTTPError(endpoint)
		}
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Start starts the HTTP server
func (h *HTTPServer) Start() error {
	h.logger.Info("Starting HTTP API server",
		slog.String("address", h.server.Addr),
	)

	go func() {
		if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			h.logger.Error("HTTP server error", slog.String("error", err.Error()))
		}
	}()

	return nil
}

// Stop gracefully stops the HTTP server
func (h *HTTPServer) Stop(ctx context.Context) error {
	h.logger.Info("Stopping HTTP API server...")

	return h.server.Shutdown(ctx)
}

// embedRequest is the JSON body of POST /embed/audio
type embedRequest struct {
	Command string `json:"command"`
	// HostAudio is optional base64-encoded WAV to hide the command in.
	// Without it the command rides on generated silence.
	HostAudio string `json:"host_audio,omitempty"`
}

// handleEmbed implements the /embed/audio endpoint. It responds with the
// carrier WAV as audio/wav.
func (h *HTTPServer) handleEmbed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req embedRequest
	body := http.MaxBytesReader(w, r.Body, h.config.HTTP.MaxRequestSize)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if req.Command == "" {
		http.Error(w, "Command is required", http.StatusBadRequest)
		return
	}

	var hostWAV []byte
	if req.HostAudio != "" {
		decoded, err := base64.StdEncoding.DecodeString(req.HostAudio)
		if err != nil {
			http.Error(w, "Invalid host_audio: not valid base64", http.StatusBadRequest)
			return
		}
		hostWAV = decoded
	}

	h.metrics.EmbedRequests.Inc()
	startTime := time.Now()

	wav, err := h.embedder.EmbedWAV(req.Command, hostWAV)
	if err != nil {
		h.metrics.EmbedFailures.Inc()
		h.logger.Warn("Embed request failed",
			slog.Int("command_bytes", len(req.Command)),
			slog.String("error", err.Error()),
		)
		http.Error(w, fmt.Sprintf("Embedding failed: %v", err), http.StatusUnprocessableEntity)
		return
	}

	h.metrics.EmbedSuccesses.Inc()
	h.metrics.EmbedDuration.Observe(time.Since(startTime).Seconds())
	h.metrics.PayloadSize.Observe(float64(len(req.Command)))
	h.metrics.CarrierDuration.Observe(h.embedder.EstimateDuration(len(req.Command)))

	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(wav)))
	w.Write(wav)
}

// decodeResponse is the JSON body returned by POST /decode/audio
type decodeResponse struct {
	Found   bool   `json:"found"`
	Command string `json:"command,omitempty"`
}

// handleDecode implements the /decode/audio endpoint. The request body is
// raw WAV audio.
func (h *HTTPServer) handleDecode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.config.HTTP.MaxRequestSize))
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to read request body: %v", err), http.StatusBadRequest)
		return
	}

	h.metrics.DecodeRequests.Inc()
	startTime := time.Now()

	command, found, err := h.extractor.ExtractWAV(data)
	if err != nil {
		h.metrics.RecordDecodeFailure(metrics.ReasonInvalidAudio)
		http.Error(w, fmt.Sprintf("Invalid audio: %v", err), http.StatusBadRequest)
		return
	}

	h.metrics.DecodeDuration.Observe(time.Since(startTime).Seconds())
	if found {
		h.metrics.DecodeSuccesses.Inc()
	} else {
		h.metrics.RecordDecodeFailure(metrics.ReasonNoSignal)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(decodeResponse{Found: found, Command: command})
}

// handleAnalyze implements the /analyze/audio endpoint. The request body is
// raw WAV audio.
func (h *HTTPServer) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.config.HTTP.MaxRequestSize))
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to read request body: %v", err), http.StatusBadRequest)
		return
	}

	h.metrics.AnalyzeRequests.Inc()

	analysis, err := h.extractor.AnalyzeWAV(data)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid audio: %v", err), http.StatusBadRequest)
		return
	}
	h.metrics.SignalStrength.Observe(analysis.SignalStrength)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(analysis)
}

// handleConfig implements the /config endpoint
func (h *HTTPServer) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// The crypto key never leaves the process.
	response := map[string]interface{}{
		"http": map[string]interface{}{
			"address": h.config.HTTP.Address,
			"port":    h.config.HTTP.Port,
		},
		"modem": map[string]interface{}{
			"freq0":               h.config.Modem.Freq0,
			"freq1":               h.config.Modem.Freq1,
			"sample_rate":         h.config.Modem.SampleRate,
			"bit_duration":        h.config.Modem.BitDuration,
			"amplitude":           h.config.Modem.Amplitude,
			"detection_threshold": h.config.Modem.DetectionThreshold,
			"discriminator":       h.config.Modem.Discriminator,
			"coding_scheme":       h.config.Modem.CodingScheme,
		},
		"logging": h.config.Logging,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// handleHealth implements the /health endpoint
func (h *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(h.startTime).String(),
		"service": map[string]interface{}{
			"name":    "ultrasonic",
			"version": "1.0.0",
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}

// handleRoot implements the / endpoint with API documentation
func (h *HTTPServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	docs := map[string]interface{}{
		"service":     "ultrasonic",
		"description": "Near-ultrasonic FSK modem for hiding encrypted commands in audio",
		"endpoints": map[string]string{
			"POST /embed/audio":   "Embed a command into audio; JSON body {command, host_audio?}, responds with WAV",
			"POST /decode/audio":  "Extract the hidden command from WAV audio",
			"POST /analyze/audio": "Report carrier presence and strength for WAV audio",
			"GET /config":         "Service configuration (without secrets)",
			"GET /health":         "Health check",
			"GET /metrics":        "Prometheus metrics",
			"POST /mcp":           "Model Context Protocol endpoint",
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(docs)
}
