package audio

import (
	"math"
	"testing"
)

func TestFloatToPCM16Clipping(t *testing.T) {
	signal := []float64{0.0, 0.5, -0.5, 1.5, -1.5, 1.0, -1.0}
	samples := FloatToPCM16(signal)

	want := []int16{0, 16383, -16383, 32767, -32767, 32767, -32767}
	for i := range want {
		if samples[i] != want[i] {
			t.Errorf("sample %d = %d, want %d", i, samples[i], want[i])
		}
	}
}

func TestPCM16FloatRoundTrip(t *testing.T) {
	signal := make([]float64, 1000)
	for i := range signal {
		signal[i] = 0.8 * math.Sin(2*math.Pi*float64(i)/100)
	}

	recovered := PCM16ToFloat(FloatToPCM16(signal))
	for i := range signal {
		if math.Abs(recovered[i]-signal[i]) > 1e-3 {
			t.Fatalf("sample %d = %f, want %f", i, recovered[i], signal[i])
		}
	}
}

func TestDownmixStereo(t *testing.T) {
	stereo := []float64{0.2, 0.4, -0.6, -0.2, 1.0, 0.0}
	mono, err := DownmixStereo(stereo, 2)
	if err != nil {
		t.Fatalf("DownmixStereo failed: %v", err)
	}

	want := []float64{0.3, -0.4, 0.5}
	if len(mono) != len(want) {
		t.Fatalf("mono length = %d, want %d", len(mono), len(want))
	}
	for i := range want {
		if math.Abs(mono[i]-want[i]) > 1e-12 {
			t.Errorf("sample %d = %f, want %f", i, mono[i], want[i])
		}
	}
}

func TestDownmixMonoPassthrough(t *testing.T) {
	signal := []float64{0.1, 0.2, 0.3}
	mono, err := DownmixStereo(signal, 1)
	if err != nil {
		t.Fatalf("DownmixStereo failed: %v", err)
	}
	if len(mono) != len(signal) {
		t.Errorf("mono length = %d, want %d", len(mono), len(signal))
	}
}

func TestDownmixUnsupportedChannels(t *testing.T) {
	if _, err := DownmixStereo([]float64{0.1}, 6); err == nil {
		t.Error("expected error for 6 channels, got nil")
	}
}

func TestResamplePreservesTone(t *testing.T) {
	const freq = 1000.0
	in := make([]float64, 44100)
	for i := range in {
		in[i] = math.Sin(2 * math.Pi * freq * float64(i) / 44100)
	}

	out, err := Resample(in, 44100, 48000)
	if err != nil {
		t.Fatalf("Resample failed: %v", err)
	}
	if len(out) != 48000 {
		t.Fatalf("output length = %d, want 48000", len(out))
	}

	// Compare against the ideal tone at the new rate, skipping the tail
	// where interpolation runs off the end.
	for i := 0; i < len(out)-10; i++ {
		want := math.Sin(2 * math.Pi * freq * float64(i) / 48000)
		if math.Abs(out[i]-want) > 0.02 {
			t.Fatalf("sample %d = %f, want %f", i, out[i], want)
		}
	}
}

func TestResampleSameRate(t *testing.T) {
	in := []float64{0.1, 0.2, 0.3}
	out, err := Resample(in, 48000, 48000)
	if err != nil {
		t.Fatalf("Resample failed: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("output length = %d, want %d", len(out), len(in))
	}
	out[0] = 99 // must be a copy
	if in[0] != 0.1 {
		t.Error("Resample returned the input slice instead of a copy")
	}
}

func TestOverlayPadsHost(t *testing.T) {
	host := []float64{0.5, 0.5}
	carrier := []float64{0.1, 0.1, 0.1, 0.1}

	out := Overlay(host, carrier, 8)
	if len(out) != 8 {
		t.Fatalf("output length = %d, want 8", len(out))
	}

	want := []float64{0.6, 0.6, 0.1, 0.1, 0, 0, 0, 0}
	for i := range want {
		if math.Abs(out[i]-want[i]) > 1e-12 {
			t.Errorf("sample %d = %f, want %f", i, out[i], want[i])
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		signal   []float64
		limit    float64
		wantPeak float64
	}{
		{"over limit", []float64{2.0, -4.0, 1.0}, 1.0, 1.0},
		{"under limit", []float64{0.2, -0.3}, 1.0, 0.3},
		{"all zero", []float64{0, 0, 0}, 1.0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Normalize(tt.signal, tt.limit)
			peak := 0.0
			for _, v := range out {
				if a := math.Abs(v); a > peak {
					peak = a
				}
			}
			if math.Abs(peak-tt.wantPeak) > 1e-12 {
				t.Errorf("peak = %f, want %f", peak, tt.wantPeak)
			}
		})
	}
}
