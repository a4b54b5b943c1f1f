package fsk

import (
	"fmt"
	"math"

	"github.com/ruvnet/ultrasonic/internal/frame"
)

const (
	// filterMarginHz widens the band-pass pre-filter around the carriers
	filterMarginHz = 1000

	// maxBitWindows caps how many bit windows a single decode will examine,
	// bounding worst-case processing of pathological input
	maxBitWindows = 10000

	// maxLowPowerWindows ends collection after this many consecutive windows
	// below the noise-floor cutoff
	maxLowPowerWindows = 5

	// endPowerFactor scales the detection threshold into the noise-floor
	// cutoff used for end-of-transmission detection
	endPowerFactor = 0.2
)

// Demodulator recovers bit sequences from sample buffers: band-pass
// pre-filtering, preamble synchronization and per-bit discrimination. Like
// the Modulator it is immutable after construction; filter coefficients are
// derived from the Config exactly once, so a live decode can never observe a
// half-applied reconfiguration. Separate instances are independent and safe
// for concurrent use.
type Demodulator struct {
	cfg           Config
	samplesPerBit int
	disc          Discriminator

	// prefilter is nil when filter construction failed; decoding then runs
	// on the unfiltered signal, trading accuracy for availability
	prefilter *bandPassFilter
}

// NewDemodulator validates the configuration and creates a demodulator.
func NewDemodulator(cfg Config) (*Demodulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("demodulator config: %w", err)
	}

	d := &Demodulator{
		cfg:           cfg,
		samplesPerBit: cfg.SamplesPerBit(),
	}

	switch cfg.Discriminator {
	case DiscriminatorFFT:
		d.disc = NewFFTDiscriminator(cfg)
	default:
		d.disc = NewCorrelationDiscriminator(cfg)
	}

	low, high := cfg.FrequencyRange()
	filter, err := newBandPassFilter(low-filterMarginHz, high+filterMarginHz, cfg.Nyquist(), float64(cfg.SampleRate))
	if err == nil {
		d.prefilter = filter
	}

	return d, nil
}

// Config returns the demodulator's configuration.
func (d *Demodulator) Config() Config {
	return d.cfg
}

// DecodePayload recovers payload bytes from a sample buffer. The boolean
// result is false for the expected no-signal and corrupted-channel outcomes:
// preamble not found, too few bit candidates, or an invalid frame. It never
// fails with an error; malformed input is an absent result.
func (d *Demodulator) DecodePayload(signal []float64) ([]byte, bool) {
	candidates, ok := d.Demodulate(signal)
	if !ok {
		return nil, false
	}

	bits := make([]bool, len(candidates))
	for i, c := range candidates {
		bits[i] = c.Bit
	}
	return frame.Decode(bits)
}

// Demodulate extracts the ordered bit candidates following the first
// preamble in the signal. It returns false when no preamble is found or no
// windows were collected.
func (d *Demodulator) Demodulate(signal []float64) ([]BitCandidate, bool) {
	filtered := d.Prefilter(signal)

	start, ok := FindPreamble(filtered, d.cfg)
	if !ok {
		return nil, false
	}

	cutoff := d.cfg.DetectionThreshold * endPowerFactor
	lowPower := 0

	var candidates []BitCandidate
	for pos := start; pos+d.samplesPerBit <= len(filtered) && len(candidates) < maxBitWindows; pos += d.samplesPerBit {
		c := d.disc.Discriminate(filtered[pos : pos+d.samplesPerBit])

		if c.Power < cutoff {
			lowPower++
			if lowPower >= maxLowPowerWindows {
				break
			}
		} else {
			lowPower = 0
		}

		candidates = append(candidates, c)
	}

	if len(candidates) == 0 {
		return nil, false
	}
	return candidates, true
}

// Prefilter band-limits the signal around the carriers, always returning a
// new buffer. When the filter could not be constructed the input is copied
// through unchanged: degraded accuracy is preferable to a hard failure here.
func (d *Demodulator) Prefilter(signal []float64) []float64 {
	if d.prefilter == nil {
		out := make([]float64, len(signal))
		copy(out, signal)
		return out
	}
	return d.prefilter.Apply(signal)
}

// DetectSignal reports whether carrier-band energy above the detection
// threshold is present in the signal.
func (d *Demodulator) DetectSignal(signal []float64) bool {
	filtered := d.Prefilter(signal)

	var sum float64
	for _, s := range filtered {
		sum += math.Abs(s)
	}
	if len(filtered) == 0 {
		return false
	}
	return sum/float64(len(filtered)) > d.cfg.DetectionThreshold
}

// SignalStrength returns the RMS level of the signal within the carrier
// band.
func (d *Demodulator) SignalStrength(signal []float64) float64 {
	if len(signal) == 0 {
		return 0
	}

	filtered := d.Prefilter(signal)
	var sum float64
	for _, s := range filtered {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(filtered)))
}
