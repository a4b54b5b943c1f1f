package fsk

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// preambleBits is the fixed 24-bit synchronization pattern 10101010 11110000
// 10101010, transmitted ahead of every frame with the same two carriers as
// data bits. It is never part of the payload.
var preambleBits = []bool{
	true, false, true, false, true, false, true, false,
	true, true, true, true, false, false, false, false,
	true, false, true, false, true, false, true, false,
}

// PreambleLength is the number of bits in the synchronization preamble.
const PreambleLength = 24

// PreambleBits returns a copy of the synchronization bit pattern.
func PreambleBits() []bool {
	bits := make([]bool, len(preambleBits))
	copy(bits, preambleBits)
	return bits
}

// FindPreamble locates the synchronization preamble in a sample buffer by
// sliding a correlation window across it in sub-bit steps. It returns the
// offset of the first sample after the preamble and true, or 0 and false when
// no window's normalized correlation against the expected tone sequence
// exceeds the detection threshold.
//
// The first window above the threshold wins over windows later in the
// buffer, which bounds detection latency and pins decoding to the earliest
// transmission when several bursts are present. Within one pattern length of
// that first hit the best-scoring window is taken: a window whose tail
// partially overlaps the burst can clear the threshold up to a full pattern
// before true alignment, and syncing there would hand garbage bits to the
// frame codec.
func FindPreamble(signal []float64, cfg Config) (int, bool) {
	samplesPerBit := cfg.SamplesPerBit()
	patternLen := PreambleLength * samplesPerBit
	if len(signal) < patternLen {
		return 0, false
	}

	ref0 := referenceTone(cfg.Freq0, cfg.BitDuration, samplesPerBit)
	ref1 := referenceTone(cfg.Freq1, cfg.BitDuration, samplesPerBit)

	// Theoretical maximum correlation for a unit-amplitude tone burst
	maxPossible := float64(PreambleLength) * float64(samplesPerBit) * 0.5

	step := samplesPerBit / 8
	if step < 1 {
		step = 1
	}

	for start := 0; start <= len(signal)-patternLen; start += step {
		score := preambleScore(signal, start, samplesPerBit, ref0, ref1) / maxPossible
		if score <= cfg.DetectionThreshold {
			continue
		}

		best, bestScore := start, score
		for cand := start + step; cand <= start+patternLen && cand <= len(signal)-patternLen; cand += step {
			if s := preambleScore(signal, cand, samplesPerBit, ref0, ref1) / maxPossible; s > bestScore {
				best, bestScore = cand, s
			}
		}
		return best + patternLen, true
	}

	return 0, false
}

// preambleScore sums the per-bit correlation magnitudes between the window
// at start and the expected preamble tone sequence.
func preambleScore(signal []float64, start, samplesPerBit int, ref0, ref1 []float64) float64 {
	var sum float64
	for i, bit := range preambleBits {
		segment := signal[start+i*samplesPerBit : start+(i+1)*samplesPerBit]
		ref := ref0
		if bit {
			ref = ref1
		}
		sum += math.Abs(floats.Dot(segment, ref))
	}
	return sum
}

// referenceTone synthesizes one bit period of a unit-amplitude sine at the
// given frequency.
func referenceTone(freq, bitDuration float64, samplesPerBit int) []float64 {
	tone := make([]float64, samplesPerBit)
	dt := bitDuration / float64(samplesPerBit)
	for i := range tone {
		tone[i] = math.Sin(2 * math.Pi * freq * float64(i) * dt)
	}
	return tone
}
