package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ruvnet/ultrasonic/internal/config"
	"github.com/ruvnet/ultrasonic/internal/stego"
)

// MCPServer exposes the modem as Model Context Protocol tools so agent
// frameworks can embed and extract commands directly
type MCPServer struct {
	embedder   *stego.Embedder
	extractor  *stego.Extractor
	config     *config.Config
	mcpServer  *server.MCPServer
	httpServer *server.StreamableHTTPServer
}

// NewMCPServer creates a new MCP server instance
func NewMCPServer(cfg *config.Config, embedder *stego.Embedder, extractor *stego.Extractor) *MCPServer {
	m := &MCPServer{
		embedder:  embedder,
		extractor: extractor,
		config:    cfg,
	}

	// Create MCP server with server info
	m.mcpServer = server.NewMCPServer(
		"Ultrasonic",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	// Register all tools
	m.registerTools()

	// Create HTTP server wrapper
	m.httpServer = server.NewStreamableHTTPServer(m.mcpServer)

	return m
}

// registerTools registers all available MCP tools
func (m *MCPServer) registerTools() {
	// Tool: embed_audio
	m.mcpServer.AddTool(
		mcp.NewTool("embed_audio",
			mcp.WithDescription("Embed an encrypted command into audio as a near-ultrasonic FSK carrier. Returns base64-encoded WAV audio. Provide host_audio to hide the command inside existing audio, or omit it to generate a carrier over silence."),
			mcp.WithString("command",
				mcp.Description("The command string to embed"),
				mcp.Required(),
			),
			mcp.WithString("host_audio",
				mcp.Description("Optional base64-encoded WAV audio to hide the command in"),
			),
		),
		m.handleEmbedAudio,
	)

	// Tool: decode_audio
	m.mcpServer.AddTool(
		mcp.NewTool("decode_audio",
			mcp.WithDescription("Extract the hidden command from audio carrying a near-ultrasonic FSK signal. Returns the decrypted command, or an error when no valid carrier is present."),
			mcp.WithString("audio",
				mcp.Description("Base64-encoded WAV audio to decode"),
				mcp.Required(),
			),
		),
		m.handleDecodeAudio,
	)

	// Tool: analyze_audio
	m.mcpServer.AddTool(
		mcp.NewTool("analyze_audio",
			mcp.WithDescription("Analyze audio for the presence and strength of an ultrasonic carrier without decrypting it. Reports sample rate, duration, carrier-band signal strength and whether a preamble was found."),
			mcp.WithString("audio",
				mcp.Description("Base64-encoded WAV audio to analyze"),
				mcp.Required(),
			),
		),
		m.handleAnalyzeAudio,
	)

	// Tool: get_modem_config
	m.mcpServer.AddTool(
		mcp.NewTool("get_modem_config",
			mcp.WithDescription("Get the modem configuration: carrier frequencies, sample rate, bit duration and coding scheme. Audio passed to decode_audio must have been generated with matching parameters."),
		),
		m.handleGetModemConfig,
	)
}

// ServeHTTP lets the server mount directly on an HTTP mux
func (m *MCPServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.httpServer.ServeHTTP(w, r)
}

// Tool handlers

func (m *MCPServer) handleEmbedAudio(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	command := request.GetString("command", "")
	if command == "" {
		return mcp.NewToolResultError("command is required"), nil
	}

	var hostWAV []byte
	if encoded := request.GetString("host_audio", ""); encoded != "" {
		decoded, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return mcp.NewToolResultError("host_audio is not valid base64"), nil
		}
		hostWAV = decoded
	}

	wav, err := m.embedder.EmbedWAV(command, hostWAV)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Embedding failed: %v", err)), nil
	}

	return mcp.NewToolResultText(base64.StdEncoding.EncodeToString(wav)), nil
}

func (m *MCPServer) handleDecodeAudio(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	encoded := request.GetString("audio", "")
	if encoded == "" {
		return mcp.NewToolResultError("audio is required"), nil
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return mcp.NewToolResultError("audio is not valid base64"), nil
	}

	command, found, err := m.extractor.ExtractWAV(data)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid audio: %v", err)), nil
	}
	if !found {
		return mcp.NewToolResultError("No hidden command found in the audio"), nil
	}

	return mcp.NewToolResultText(command), nil
}

func (m *MCPServer) handleAnalyzeAudio(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	encoded := request.GetString("audio", "")
	if encoded == "" {
		return mcp.NewToolResultError("audio is required"), nil
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return mcp.NewToolResultError("audio is not valid base64"), nil
	}

	analysis, err := m.extractor.AnalyzeWAV(data)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid audio: %v", err)), nil
	}

	jsonData, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to marshal analysis: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (m *MCPServer) handleGetModemConfig(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	modem := m.config.Modem
	info := map[string]interface{}{
		"freq0":               modem.Freq0,
		"freq1":               modem.Freq1,
		"sample_rate":         modem.SampleRate,
		"bit_duration":        modem.BitDuration,
		"amplitude":           modem.Amplitude,
		"detection_threshold": modem.DetectionThreshold,
		"discriminator":       modem.Discriminator,
		"coding_scheme":       modem.CodingScheme,
	}

	jsonData, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to marshal config: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}
