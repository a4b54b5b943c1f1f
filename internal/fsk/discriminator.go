package fsk

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
)

// BitCandidate is one demodulated bit decision. Confidence in [0, 1] measures
// how unambiguously the two carrier energies were separated; Power is the
// combined carrier energy driving end-of-transmission detection. Candidates
// are transient: they are produced per window and consumed immediately by the
// frame codec's majority vote.
type BitCandidate struct {
	Bit        bool
	Confidence float64
	Power      float64
}

// Discriminator decides the bit value for one window of samples. The two
// implementations are selected explicitly through Config.Discriminator; there
// is no implicit fallback between them, so each can be tested in isolation.
type Discriminator interface {
	// Discriminate examines exactly one bit period of samples
	Discriminate(window []float64) BitCandidate
}

// correlationDiscriminator discriminates bits by time-domain matched
// filtering: the dot product magnitude against reference sines at the two
// carrier frequencies.
type correlationDiscriminator struct {
	ref0      []float64
	ref1      []float64
	threshold float64
}

// NewCorrelationDiscriminator creates the time-domain correlation
// discriminator, the default strategy.
func NewCorrelationDiscriminator(cfg Config) Discriminator {
	samplesPerBit := cfg.SamplesPerBit()
	return &correlationDiscriminator{
		ref0:      referenceTone(cfg.Freq0, cfg.BitDuration, samplesPerBit),
		ref1:      referenceTone(cfg.Freq1, cfg.BitDuration, samplesPerBit),
		threshold: cfg.DetectionThreshold,
	}
}

func (d *correlationDiscriminator) Discriminate(window []float64) BitCandidate {
	n := len(window)
	if n > len(d.ref0) {
		n = len(d.ref0)
	}
	power0 := math.Abs(floats.Dot(window[:n], d.ref0[:n]))
	power1 := math.Abs(floats.Dot(window[:n], d.ref1[:n]))

	return makeCandidate(power0, power1, d.threshold)
}

// fftDiscriminator discriminates bits by spectral peak energy at the two
// carrier bins of a per-window FFT.
type fftDiscriminator struct {
	fft       *fourier.FFT
	bin0      int
	bin1      int
	threshold float64
	size      int
}

// NewFFTDiscriminator creates the spectral-peak discriminator. The FFT length
// equals the bit period, so carrier bins are resolved at
// sampleRate/samplesPerBit Hz granularity.
func NewFFTDiscriminator(cfg Config) Discriminator {
	samplesPerBit := cfg.SamplesPerBit()
	return &fftDiscriminator{
		fft:       fourier.NewFFT(samplesPerBit),
		bin0:      carrierBin(cfg.Freq0, cfg.SampleRate, samplesPerBit),
		bin1:      carrierBin(cfg.Freq1, cfg.SampleRate, samplesPerBit),
		threshold: cfg.DetectionThreshold,
		size:      samplesPerBit,
	}
}

func (d *fftDiscriminator) Discriminate(window []float64) BitCandidate {
	seq := window
	if len(seq) != d.size {
		padded := make([]float64, d.size)
		copy(padded, seq)
		seq = padded
	}

	coeffs := d.fft.Coefficients(nil, seq)
	power0 := cmplx.Abs(coeffs[d.bin0])
	power1 := cmplx.Abs(coeffs[d.bin1])

	return makeCandidate(power0, power1, d.threshold)
}

// carrierBin maps a frequency onto the nearest FFT bin index.
func carrierBin(freq float64, sampleRate, size int) int {
	bin := int(math.Round(freq / float64(sampleRate) * float64(size)))
	if bin < 0 {
		bin = 0
	}
	if bin > size/2 {
		bin = size / 2
	}
	return bin
}

// makeCandidate derives the bit decision and confidence from the carrier
// powers. Confidence combines the relative power separation with the
// absolute signal strength against the detection threshold and clamps to
// zero when no power is present at either carrier.
func makeCandidate(power0, power1, threshold float64) BitCandidate {
	total := power0 + power1

	var confidence float64
	if total > 0 {
		confidence = math.Min(1, math.Abs(power0-power1)/total)
		confidence *= math.Min(1, total/threshold)
	}

	return BitCandidate{
		Bit:        power1 >= power0,
		Confidence: confidence,
		Power:      total,
	}
}
