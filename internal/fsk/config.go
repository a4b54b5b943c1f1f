package fsk

import (
	"fmt"
	"math"
)

// Discriminator selection values for Config.Discriminator.
const (
	DiscriminatorCorrelation = "correlation"
	DiscriminatorFFT         = "fft"
)

// Default modem parameters. The detection threshold is an empirically tuned
// correlation-magnitude cutoff with no fixed physical unit; it must be
// recalibrated if the correlation normalization changes.
const (
	DefaultFreq0              = 18500.0
	DefaultFreq1              = 19500.0
	DefaultSampleRate         = 48000
	DefaultBitDuration        = 0.01
	DefaultAmplitude          = 0.1
	DefaultDetectionThreshold = 0.01
)

// Config holds the modem parameters shared by the modulator and demodulator.
// A Config is treated as an immutable value: modulators and demodulators
// capture it at construction and reconfiguring means building a new instance,
// so filter coefficients and frequencies can never observe inconsistent
// state.
type Config struct {
	// Freq0 and Freq1 are the carrier frequencies in Hz for bits 0 and 1
	Freq0 float64
	Freq1 float64

	// SampleRate is the audio sample rate in Hz
	SampleRate int

	// BitDuration is the duration of one bit in seconds
	BitDuration float64

	// Amplitude is the tone amplitude in [0, 1]
	Amplitude float64

	// DetectionThreshold is the minimum normalized correlation for preamble
	// detection and the reference level for bit confidence scaling
	DetectionThreshold float64

	// Discriminator selects the bit discrimination strategy: "correlation"
	// (time-domain matched filtering, the default) or "fft" (spectral peak)
	Discriminator string
}

// DefaultConfig returns the default modem configuration.
func DefaultConfig() Config {
	return Config{
		Freq0:              DefaultFreq0,
		Freq1:              DefaultFreq1,
		SampleRate:         DefaultSampleRate,
		BitDuration:        DefaultBitDuration,
		Amplitude:          DefaultAmplitude,
		DetectionThreshold: DefaultDetectionThreshold,
		Discriminator:      DiscriminatorCorrelation,
	}
}

// Validate checks the configuration. Violations are configuration errors and
// are reported here, at construction time, never deferred into encode or
// decode.
func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", c.SampleRate)
	}

	nyquist := c.Nyquist()
	if c.Freq0 <= 0 || c.Freq0 >= nyquist {
		return fmt.Errorf("freq_0 must be in (0, %g) Hz (below Nyquist), got %g", nyquist, c.Freq0)
	}
	if c.Freq1 <= 0 || c.Freq1 >= nyquist {
		return fmt.Errorf("freq_1 must be in (0, %g) Hz (below Nyquist), got %g", nyquist, c.Freq1)
	}
	if c.Freq0 == c.Freq1 {
		return fmt.Errorf("freq_0 and freq_1 must differ, both are %g Hz", c.Freq0)
	}

	if c.BitDuration <= 0 {
		return fmt.Errorf("bit duration must be positive, got %g", c.BitDuration)
	}
	if c.SamplesPerBit() < 1 {
		return fmt.Errorf("bit duration %g s too short for sample rate %d Hz", c.BitDuration, c.SampleRate)
	}

	if c.Amplitude < 0 || c.Amplitude > 1 {
		return fmt.Errorf("amplitude must be between 0 and 1, got %g", c.Amplitude)
	}

	if c.DetectionThreshold <= 0 {
		return fmt.Errorf("detection threshold must be positive, got %g", c.DetectionThreshold)
	}

	switch c.Discriminator {
	case "", DiscriminatorCorrelation, DiscriminatorFFT:
	default:
		return fmt.Errorf("discriminator must be %q or %q, got %q",
			DiscriminatorCorrelation, DiscriminatorFFT, c.Discriminator)
	}

	return nil
}

// SamplesPerBit returns the number of samples spanning one bit.
func (c Config) SamplesPerBit() int {
	return int(math.Round(float64(c.SampleRate) * c.BitDuration))
}

// Nyquist returns half the sample rate, the highest representable frequency.
func (c Config) Nyquist() float64 {
	return float64(c.SampleRate) / 2
}

// FrequencyRange returns the low and high carrier frequencies in order.
func (c Config) FrequencyRange() (low, high float64) {
	if c.Freq0 < c.Freq1 {
		return c.Freq0, c.Freq1
	}
	return c.Freq1, c.Freq0
}
