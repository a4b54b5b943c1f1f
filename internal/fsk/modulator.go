package fsk

import (
	"fmt"
	"math"

	"github.com/ruvnet/ultrasonic/internal/frame"
)

// Modulator renders bit sequences into FSK tone-burst waveforms. It is
// immutable after construction; use NewModulator with a fresh Config to
// reconfigure. Separate instances are independent and safe for concurrent
// use.
type Modulator struct {
	cfg           Config
	samplesPerBit int
}

// NewModulator validates the configuration and creates a modulator.
func NewModulator(cfg Config) (*Modulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("modulator config: %w", err)
	}
	return &Modulator{
		cfg:           cfg,
		samplesPerBit: cfg.SamplesPerBit(),
	}, nil
}

// Config returns the modulator's configuration.
func (m *Modulator) Config() Config {
	return m.cfg
}

// EncodePayload frames the payload and renders preamble plus frame bits into
// a mono sample buffer at the configured sample rate, with all samples in
// [-amplitude, amplitude]. It fails only when the payload's bit count does
// not fit the frame's 16-bit length prefix (payloads over 8191 bytes).
func (m *Modulator) EncodePayload(payload []byte) ([]float64, error) {
	frameBits, err := frame.Encode(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	bits := make([]bool, 0, PreambleLength+len(frameBits))
	bits = append(bits, preambleBits...)
	bits = append(bits, frameBits...)

	return m.ModulateBits(bits), nil
}

// ModulateBits synthesizes one tone burst per bit and concatenates them into
// a single contiguous buffer.
func (m *Modulator) ModulateBits(bits []bool) []float64 {
	signal := make([]float64, len(bits)*m.samplesPerBit)
	dt := m.cfg.BitDuration / float64(m.samplesPerBit)

	for i, bit := range bits {
		freq := m.cfg.Freq0
		if bit {
			freq = m.cfg.Freq1
		}

		segment := signal[i*m.samplesPerBit : (i+1)*m.samplesPerBit]
		for j := range segment {
			segment[j] = m.cfg.Amplitude * math.Sin(2*math.Pi*freq*float64(j)*dt)
		}
		applyEdgeFade(segment)
	}

	return signal
}

// EstimateDuration returns the signal duration in seconds needed for a
// payload of the given byte size, accounting for the preamble, the length
// prefix and repetition coding.
func (m *Modulator) EstimateDuration(payloadSize int) float64 {
	frameBits := (frame.LengthPrefixBits + payloadSize*8) * frame.Repetitions
	return float64(PreambleLength+frameBits) * m.cfg.BitDuration
}

// applyEdgeFade ramps the first and last 1% of a bit segment between 0.9 and
// 1.0 of full amplitude. The fade is deliberately gentle: enough to suppress
// inter-symbol clicks without degrading the tone's frequency purity for
// discrimination.
func applyEdgeFade(segment []float64) {
	fade := len(segment) / 100
	if fade < 1 {
		fade = 1
	}
	if fade == 1 {
		segment[0] *= 0.9
		return
	}

	for i := 0; i < fade; i++ {
		ramp := 0.1 * float64(i) / float64(fade-1)
		segment[i] *= 0.9 + ramp
		segment[len(segment)-fade+i] *= 1.0 - ramp
	}
}
