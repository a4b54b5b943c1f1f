package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ruvnet/ultrasonic/internal/frame"
	"github.com/ruvnet/ultrasonic/internal/fsk"
)

// Config represents the complete service configuration
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Modem   ModemConfig   `yaml:"modem"`
	Crypto  CryptoConfig  `yaml:"crypto"`
	Logging LoggingConfig `yaml:"logging"`
}

// HTTPConfig contains HTTP API server configuration
type HTTPConfig struct {
	Port           int    `yaml:"port"`
	Address        string `yaml:"address"`
	ReadTimeout    int    `yaml:"read_timeout"`     // seconds
	WriteTimeout   int    `yaml:"write_timeout"`    // seconds
	MaxRequestSize int64  `yaml:"max_request_size"` // bytes
}

// ModemConfig contains FSK modem parameters
type ModemConfig struct {
	Freq0              float64 `yaml:"freq0"`               // Hz, binary 0 carrier
	Freq1              float64 `yaml:"freq1"`               // Hz, binary 1 carrier
	SampleRate         int     `yaml:"sample_rate"`         // Hz
	BitDuration        float64 `yaml:"bit_duration"`        // seconds
	Amplitude          float64 `yaml:"amplitude"`
	DetectionThreshold float64 `yaml:"detection_threshold"`
	Discriminator      string  `yaml:"discriminator"`
	CodingScheme       string  `yaml:"coding_scheme"`
	MinHostDuration    float64 `yaml:"min_host_duration"` // seconds
}

// CryptoConfig contains payload encryption configuration
type CryptoConfig struct {
	// Key is the base64-encoded AES key. Empty generates a random key at
	// startup, which is only useful for single-process testing.
	Key string `yaml:"key"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Port:           8080,
			Address:        "0.0.0.0",
			ReadTimeout:    30,
			WriteTimeout:   60,
			MaxRequestSize: 64 << 20,
		},
		Modem: ModemConfig{
			Freq0:              fsk.DefaultFreq0,
			Freq1:              fsk.DefaultFreq1,
			SampleRate:         fsk.DefaultSampleRate,
			BitDuration:        fsk.DefaultBitDuration,
			Amplitude:          fsk.DefaultAmplitude,
			DetectionThreshold: fsk.DefaultDetectionThreshold,
			Discriminator:      fsk.DiscriminatorCorrelation,
			CodingScheme:       frame.SchemeRepetition.String(),
			MinHostDuration:    5.0,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Validate performs comprehensive validation of the configuration
func (c *Config) Validate() error {
	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("http config: %w", err)
	}

	if err := c.Modem.Validate(); err != nil {
		return fmt.Errorf("modem config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates HTTP configuration
func (h *HTTPConfig) Validate() error {
	if h.Port < 1 || h.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", h.Port)
	}

	if h.Address == "" {
		return fmt.Errorf("address cannot be empty")
	}

	if h.ReadTimeout < 1 {
		return fmt.Errorf("read_timeout must be at least 1 second, got %d", h.ReadTimeout)
	}

	if h.WriteTimeout < 1 {
		return fmt.Errorf("write_timeout must be at least 1 second, got %d", h.WriteTimeout)
	}

	if h.MaxRequestSize < 1024 {
		return fmt.Errorf("max_request_size must be at least 1024 bytes, got %d", h.MaxRequestSize)
	}

	return nil
}

// Validate validates modem configuration, delegating the signal parameters
// to the modem's own config type so the rules cannot drift.
func (m *ModemConfig) Validate() error {
	if err := m.ToFSK().Validate(); err != nil {
		return err
	}

	if _, err := frame.ParseScheme(m.CodingScheme); err != nil {
		return err
	}

	if m.MinHostDuration < 0 {
		return fmt.Errorf("min_host_duration cannot be negative, got %f", m.MinHostDuration)
	}

	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	return nil
}

// ToFSK converts the modem section into the modem package's config type.
func (m *ModemConfig) ToFSK() fsk.Config {
	return fsk.Config{
		Freq0:              m.Freq0,
		Freq1:              m.Freq1,
		SampleRate:         m.SampleRate,
		BitDuration:        m.BitDuration,
		Amplitude:          m.Amplitude,
		DetectionThreshold: m.DetectionThreshold,
		Discriminator:      m.Discriminator,
	}
}

// Scheme returns the parsed coding scheme. Validate must have passed.
func (m *ModemConfig) Scheme() frame.Scheme {
	scheme, err := frame.ParseScheme(m.CodingScheme)
	if err != nil {
		return frame.SchemeRepetition
	}
	return scheme
}

// GetReadTimeout returns the HTTP read timeout as a time.Duration
func (h *HTTPConfig) GetReadTimeout() time.Duration {
	return time.Duration(h.ReadTimeout) * time.Second
}

// GetWriteTimeout returns the HTTP write timeout as a time.Duration
func (h *HTTPConfig) GetWriteTimeout() time.Duration {
	return time.Duration(h.WriteTimeout) * time.Second
}
