package fsk

import (
	"fmt"
	"math"
	"math/cmplx"
)

// biquadCoeffs holds normalized second-order IIR filter coefficients
// (a0 scaled to 1).
type biquadCoeffs struct {
	b0, b1, b2 float64
	a1, a2     float64
}

// apply runs the section over the signal in place with zero initial state.
func (c biquadCoeffs) apply(signal []float64) {
	var x1, x2, y1, y2 float64
	for i, x := range signal {
		y := c.b0*x + c.b1*x1 + c.b2*x2 - c.a1*y1 - c.a2*y2
		x2, x1 = x1, x
		y2, y1 = y1, y
		signal[i] = y
	}
}

// bandPassFilter is a 4th-order Butterworth band-pass filter factored into
// two second-order sections, applied forward and backward so the net phase
// shift is zero and bit boundaries are not smeared.
type bandPassFilter struct {
	sections [2]biquadCoeffs
}

// newBandPassFilter designs a 4th-order Butterworth band-pass spanning
// [lowHz, highHz], clamped to (100, nyquist-100): an order-2 low-pass
// prototype is transformed to band-pass and discretized with the bilinear
// transform, leaving the -3 dB points on the clamped band edges and the
// passband between them near unity gain. Construction fails when the clamped
// band collapses; callers are expected to fall back to the unfiltered signal
// in that case.
func newBandPassFilter(lowHz, highHz, nyquist, sampleRate float64) (*bandPassFilter, error) {
	lowHz = math.Max(lowHz, 100)
	highHz = math.Min(highHz, nyquist-100)
	if lowHz >= highHz {
		return nil, fmt.Errorf("band-pass range collapsed: [%g, %g] Hz", lowHz, highHz)
	}

	// Prewarp the band edges so the bilinear transform lands them exactly.
	fs2 := 2 * sampleRate
	warpedLow := fs2 * math.Tan(math.Pi*lowHz/sampleRate)
	warpedHigh := fs2 * math.Tan(math.Pi*highHz/sampleRate)
	bandwidth := warpedHigh - warpedLow
	center := math.Sqrt(warpedLow * warpedHigh)

	// Order-2 Butterworth low-pass prototype pole with positive imaginary
	// part; each section's coefficients carry the conjugate implicitly.
	prototype := complex(-math.Sqrt2/2, math.Sqrt2/2)

	// The low-pass to band-pass transform splits the prototype pole into
	// two analog poles around the center frequency.
	shifted := prototype * complex(bandwidth/2, 0)
	split := cmplx.Sqrt(shifted*shifted - complex(center*center, 0))
	analog := [2]complex128{shifted + split, shifted - split}

	// Transfer-function gain after the bilinear transform. The band-pass
	// zeros at s=0 and s=infinity map to z=1 and z=-1, giving each section
	// the numerator (z-1)(z+1).
	d0 := cmplx.Abs(complex(fs2, 0) - analog[0])
	d1 := cmplx.Abs(complex(fs2, 0) - analog[1])
	gain := bandwidth * bandwidth * fs2 * fs2 / (d0 * d0 * d1 * d1)
	g := math.Sqrt(gain)

	f := &bandPassFilter{}
	for i, s := range analog {
		z := (complex(fs2, 0) + s) / (complex(fs2, 0) - s)
		mag := cmplx.Abs(z)
		f.sections[i] = biquadCoeffs{
			b0: g,
			b1: 0,
			b2: -g,
			a1: -2 * real(z),
			a2: mag * mag,
		}
	}
	return f, nil
}

// Apply filters the signal forward and backward, returning a new buffer. The
// input is never mutated.
func (f *bandPassFilter) Apply(signal []float64) []float64 {
	out := make([]float64, len(signal))
	copy(out, signal)

	for _, section := range f.sections {
		section.apply(out)
	}
	reverse(out)
	for _, section := range f.sections {
		section.apply(out)
	}
	reverse(out)

	return out
}

func reverse(s []float64) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
