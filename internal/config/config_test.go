package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ruvnet/ultrasonic/internal/frame"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config is invalid: %v", err)
	}
}

func TestLoadValidConfig(t *testing.T) {
	path := writeConfig(t, `
http:
  port: 9090
  address: "127.0.0.1"
modem:
  freq0: 18000
  freq1: 19000
  coding_scheme: hamming
logging:
  level: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.HTTP.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.HTTP.Port)
	}
	if cfg.Modem.Freq0 != 18000 {
		t.Errorf("freq0 = %f, want 18000", cfg.Modem.Freq0)
	}
	if cfg.Modem.Scheme() != frame.SchemeHamming {
		t.Errorf("scheme = %v, want hamming", cfg.Modem.Scheme())
	}
	// Unset fields keep their defaults.
	if cfg.Modem.SampleRate != 48000 {
		t.Errorf("sample rate = %d, want default 48000", cfg.Modem.SampleRate)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("log format = %q, want default json", cfg.Logging.Format)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing file, got nil")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "http: [not a mapping")
	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid YAML, got nil")
	}
}

func TestValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero http port", func(c *Config) { c.HTTP.Port = 0 }},
		{"empty address", func(c *Config) { c.HTTP.Address = "" }},
		{"carrier above nyquist", func(c *Config) { c.Modem.Freq1 = 25000 }},
		{"negative amplitude", func(c *Config) { c.Modem.Amplitude = -0.5 }},
		{"unknown discriminator", func(c *Config) { c.Modem.Discriminator = "goertzel" }},
		{"unknown coding scheme", func(c *Config) { c.Modem.CodingScheme = "turbo" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestToFSKRoundTrip(t *testing.T) {
	cfg := Default()
	modem := cfg.Modem.ToFSK()

	if modem.Freq0 != cfg.Modem.Freq0 || modem.Freq1 != cfg.Modem.Freq1 {
		t.Error("carrier frequencies not carried over")
	}
	if modem.SampleRate != cfg.Modem.SampleRate {
		t.Error("sample rate not carried over")
	}
	if err := modem.Validate(); err != nil {
		t.Errorf("converted config is invalid: %v", err)
	}
}
