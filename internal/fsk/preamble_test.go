package fsk

import (
	"math/rand"
	"testing"
)

func preambleSignal(t *testing.T, cfg Config) []float64 {
	t.Helper()
	mod, err := NewModulator(cfg)
	if err != nil {
		t.Fatalf("NewModulator failed: %v", err)
	}
	return mod.ModulateBits(preambleBits)
}

func TestFindPreambleAtStart(t *testing.T) {
	cfg := DefaultConfig()
	signal := preambleSignal(t, cfg)

	offset, found := FindPreamble(signal, cfg)
	if !found {
		t.Fatal("preamble not found at signal start")
	}
	if offset != PreambleLength*cfg.SamplesPerBit() {
		t.Errorf("offset = %d, want %d", offset, PreambleLength*cfg.SamplesPerBit())
	}
}

func TestFindPreambleAfterSilence(t *testing.T) {
	cfg := DefaultConfig()
	spb := cfg.SamplesPerBit()
	lead := 3 * spb

	signal := append(make([]float64, lead), preambleSignal(t, cfg)...)

	offset, found := FindPreamble(signal, cfg)
	if !found {
		t.Fatal("preamble not found after leading silence")
	}

	// Sub-bit search steps bound the alignment error.
	want := lead + PreambleLength*spb
	step := spb / 8
	if offset < want-step || offset > want+step {
		t.Errorf("offset = %d, want %d within one search step (%d)", offset, want, step)
	}
}

func TestFindPreambleFirstMatchWins(t *testing.T) {
	cfg := DefaultConfig()
	spb := cfg.SamplesPerBit()
	burst := preambleSignal(t, cfg)

	// Two bursts separated by silence; detection must pin to the first.
	signal := append([]float64{}, burst...)
	signal = append(signal, make([]float64, 10*spb)...)
	signal = append(signal, burst...)

	offset, found := FindPreamble(signal, cfg)
	if !found {
		t.Fatal("preamble not found")
	}
	if offset != PreambleLength*spb {
		t.Errorf("offset = %d, want first burst at %d", offset, PreambleLength*spb)
	}
}

func TestFindPreambleAbsent(t *testing.T) {
	cfg := DefaultConfig()

	// Silence.
	if _, found := FindPreamble(make([]float64, 48000), cfg); found {
		t.Error("preamble found in silence")
	}

	// Low-level noise.
	rng := rand.New(rand.NewSource(3))
	noise := make([]float64, 48000)
	for i := range noise {
		noise[i] = 0.002 * (rng.Float64()*2 - 1)
	}
	if _, found := FindPreamble(noise, cfg); found {
		t.Error("preamble found in noise")
	}
}

func TestFindPreambleSignalTooShort(t *testing.T) {
	cfg := DefaultConfig()
	short := make([]float64, PreambleLength*cfg.SamplesPerBit()-1)

	if _, found := FindPreamble(short, cfg); found {
		t.Error("preamble found in undersized buffer")
	}
}

func TestPreambleBitsReturnsCopy(t *testing.T) {
	bits := PreambleBits()
	if len(bits) != PreambleLength {
		t.Fatalf("preamble length = %d, want %d", len(bits), PreambleLength)
	}

	bits[0] = !bits[0]
	if preambleBits[0] == bits[0] {
		t.Error("PreambleBits returned the internal slice instead of a copy")
	}
}
