package fsk

import (
	"math"
	"testing"

	"github.com/ruvnet/ultrasonic/internal/frame"
)

func TestNewModulatorRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Freq1 = cfg.Freq0

	if _, err := NewModulator(cfg); err == nil {
		t.Error("expected error for invalid config, got nil")
	}
}

func TestModulateBitsSampleCount(t *testing.T) {
	mod, err := NewModulator(DefaultConfig())
	if err != nil {
		t.Fatalf("NewModulator failed: %v", err)
	}

	bits := []bool{true, false, true, true, false}
	signal := mod.ModulateBits(bits)

	want := len(bits) * DefaultConfig().SamplesPerBit()
	if len(signal) != want {
		t.Errorf("sample count = %d, want %d", len(signal), want)
	}
}

func TestModulateBitsAmplitudeBounds(t *testing.T) {
	cfg := DefaultConfig()
	mod, err := NewModulator(cfg)
	if err != nil {
		t.Fatalf("NewModulator failed: %v", err)
	}

	signal := mod.ModulateBits([]bool{true, false, true, false})
	for i, s := range signal {
		if math.Abs(s) > cfg.Amplitude {
			t.Fatalf("sample %d = %f exceeds amplitude %f", i, s, cfg.Amplitude)
		}
	}
}

func TestModulateBitsCarrierFrequencies(t *testing.T) {
	cfg := DefaultConfig()
	mod, err := NewModulator(cfg)
	if err != nil {
		t.Fatalf("NewModulator failed: %v", err)
	}

	spb := cfg.SamplesPerBit()
	signal := mod.ModulateBits([]bool{false, true})

	// Each bit segment should correlate far more strongly with its own
	// carrier than with the other.
	ref0 := referenceTone(cfg.Freq0, cfg.BitDuration, spb)
	ref1 := referenceTone(cfg.Freq1, cfg.BitDuration, spb)

	seg0 := signal[:spb]
	seg1 := signal[spb:]

	if corr(seg0, ref0) < 10*corr(seg0, ref1) {
		t.Error("bit 0 segment does not track the freq0 carrier")
	}
	if corr(seg1, ref1) < 10*corr(seg1, ref0) {
		t.Error("bit 1 segment does not track the freq1 carrier")
	}
}

func corr(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return math.Abs(sum)
}

func TestEdgeFadeReducesBoundarySamples(t *testing.T) {
	cfg := DefaultConfig()
	mod, err := NewModulator(cfg)
	if err != nil {
		t.Fatalf("NewModulator failed: %v", err)
	}

	spb := cfg.SamplesPerBit()
	signal := mod.ModulateBits([]bool{true})

	// The first sample of a faded segment carries 90% of the raw value.
	dt := cfg.BitDuration / float64(spb)
	raw := cfg.Amplitude * math.Sin(2*math.Pi*cfg.Freq1*1*dt)
	if math.Abs(signal[1]) >= math.Abs(raw) {
		t.Error("fade-in did not attenuate the segment start")
	}

	// Samples in the middle of the segment are untouched.
	mid := spb / 2
	rawMid := cfg.Amplitude * math.Sin(2*math.Pi*cfg.Freq1*float64(mid)*dt)
	if math.Abs(signal[mid]-rawMid) > 1e-12 {
		t.Errorf("mid-segment sample = %g, want %g", signal[mid], rawMid)
	}
}

func TestEncodePayloadBitLayout(t *testing.T) {
	cfg := DefaultConfig()
	mod, err := NewModulator(cfg)
	if err != nil {
		t.Fatalf("NewModulator failed: %v", err)
	}

	payload := []byte{0xAB}
	signal, err := mod.EncodePayload(payload)
	if err != nil {
		t.Fatalf("EncodePayload failed: %v", err)
	}

	frameBits, err := frame.Encode(payload)
	if err != nil {
		t.Fatalf("frame.Encode failed: %v", err)
	}
	want := (PreambleLength + len(frameBits)) * cfg.SamplesPerBit()
	if len(signal) != want {
		t.Errorf("sample count = %d, want %d", len(signal), want)
	}
}

func TestEncodePayloadTooLarge(t *testing.T) {
	mod, err := NewModulator(DefaultConfig())
	if err != nil {
		t.Fatalf("NewModulator failed: %v", err)
	}

	if _, err := mod.EncodePayload(make([]byte, frame.MaxPayloadBytes+1)); err == nil {
		t.Error("expected error for oversized payload, got nil")
	}
}

func TestEstimateDurationMatchesEncoder(t *testing.T) {
	mod, err := NewModulator(DefaultConfig())
	if err != nil {
		t.Fatalf("NewModulator failed: %v", err)
	}

	for _, size := range []int{0, 1, 50, 200} {
		signal, err := mod.EncodePayload(make([]byte, size))
		if err != nil {
			t.Fatalf("EncodePayload(%d) failed: %v", size, err)
		}

		actual := float64(len(signal)) / float64(DefaultSampleRate)
		estimated := mod.EstimateDuration(size)
		if math.Abs(actual-estimated) > 1e-9 {
			t.Errorf("size %d: estimate = %f, actual = %f", size, estimated, actual)
		}
	}
}
