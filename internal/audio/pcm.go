package audio

import (
	"fmt"
	"math"
)

// FloatToPCM16 converts a float signal in [-1, 1] to PCM-16 samples.
// Values outside the range are clipped rather than wrapped.
func FloatToPCM16(signal []float64) []int16 {
	samples := make([]int16, len(signal))
	for i, v := range signal {
		if v > 1.0 {
			v = 1.0
		} else if v < -1.0 {
			v = -1.0
		}
		samples[i] = int16(v * 32767.0)
	}
	return samples
}

// PCM16ToFloat converts PCM-16 samples to a float signal in [-1, 1].
func PCM16ToFloat(samples []int16) []float64 {
	signal := make([]float64, len(samples))
	for i, s := range samples {
		signal[i] = float64(s) / 32768.0
	}
	return signal
}

// DownmixStereo averages interleaved stereo samples into a mono signal.
// Mono input is returned as-is.
func DownmixStereo(signal []float64, channels int) ([]float64, error) {
	switch channels {
	case 1:
		return signal, nil
	case 2:
		mono := make([]float64, len(signal)/2)
		for i := range mono {
			mono[i] = (signal[2*i] + signal[2*i+1]) / 2.0
		}
		return mono, nil
	default:
		return nil, fmt.Errorf("unsupported channel count: %d", channels)
	}
}

// Resample converts a signal between sample rates using linear
// interpolation. Good enough for the narrow carrier band the modem uses;
// callers that care about fidelity should record at the modem rate.
func Resample(signal []float64, fromRate, toRate int) ([]float64, error) {
	if fromRate <= 0 || toRate <= 0 {
		return nil, fmt.Errorf("sample rates must be positive, got %d and %d", fromRate, toRate)
	}
	if fromRate == toRate || len(signal) == 0 {
		out := make([]float64, len(signal))
		copy(out, signal)
		return out, nil
	}

	ratio := float64(toRate) / float64(fromRate)
	outLen := int(math.Round(float64(len(signal)) * ratio))
	if outLen < 1 {
		outLen = 1
	}

	out := make([]float64, outLen)
	for i := range out {
		pos := float64(i) / ratio
		left := int(pos)
		if left >= len(signal)-1 {
			out[i] = signal[len(signal)-1]
			continue
		}
		frac := pos - float64(left)
		out[i] = signal[left]*(1.0-frac) + signal[left+1]*frac
	}
	return out, nil
}

// Overlay mixes the carrier signal into the host audio at offset zero.
// The host is padded with silence so the result always covers the full
// carrier and at least minLength samples.
func Overlay(host, carrier []float64, minLength int) []float64 {
	length := len(host)
	if len(carrier) > length {
		length = len(carrier)
	}
	if minLength > length {
		length = minLength
	}

	out := make([]float64, length)
	copy(out, host)
	for i, v := range carrier {
		out[i] += v
	}
	return out
}

// Normalize scales the signal so its peak magnitude is at most limit.
// Signals already under the limit are left untouched.
func Normalize(signal []float64, limit float64) []float64 {
	peak := 0.0
	for _, v := range signal {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}

	out := make([]float64, len(signal))
	if peak <= limit || peak == 0 {
		copy(out, signal)
		return out
	}
	scale := limit / peak
	for i, v := range signal {
		out[i] = v * scale
	}
	return out
}
