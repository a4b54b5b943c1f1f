package frame

import (
	"fmt"
)

// Frame layout constants
const (
	// LengthPrefixBits is the size of the big-endian bit-count prefix
	LengthPrefixBits = 16

	// Repetitions is the repetition-coding factor applied to every frame bit
	Repetitions = 3

	// MinEncodedBits is the minimum number of raw bits a decodable frame can
	// have: the length prefix alone under repetition coding
	MinEncodedBits = LengthPrefixBits * Repetitions

	// MaxPayloadBytes is the largest payload whose bit count fits the 16-bit
	// length prefix
	MaxPayloadBytes = (1<<LengthPrefixBits - 1) / 8
)

// BytesToBits expands data into individual bits, most significant bit first.
func BytesToBits(data []byte) []bool {
	bits := make([]bool, 0, len(data)*8)
	for _, b := range data {
		for shift := 7; shift >= 0; shift-- {
			bits = append(bits, (b>>shift)&1 == 1)
		}
	}
	return bits
}

// BitsToBytes packs bits into bytes, most significant bit first. Trailing bits
// that do not form a complete byte are dropped.
func BitsToBytes(bits []bool) []byte {
	out := make([]byte, 0, len(bits)/8)
	for i := 0; i+8 <= len(bits); i += 8 {
		var b byte
		for j := 0; j < 8; j++ {
			b <<= 1
			if bits[i+j] {
				b |= 1
			}
		}
		out = append(out, b)
	}
	return out
}

// Encode converts a payload into the transmitted bit sequence: a 16-bit
// big-endian prefix holding the payload's exact bit count, followed by the
// payload bits MSB-first, with every resulting bit repeated 3 times.
func Encode(payload []byte) ([]bool, error) {
	if len(payload) > MaxPayloadBytes {
		return nil, fmt.Errorf("payload too large: %d bytes exceeds %d byte limit of the 16-bit length prefix",
			len(payload), MaxPayloadBytes)
	}

	payloadBits := BytesToBits(payload)
	bitCount := uint16(len(payloadBits))

	frameBits := make([]bool, 0, LengthPrefixBits+len(payloadBits))
	for shift := LengthPrefixBits - 1; shift >= 0; shift-- {
		frameBits = append(frameBits, (bitCount>>shift)&1 == 1)
	}
	frameBits = append(frameBits, payloadBits...)

	encoded := make([]bool, 0, len(frameBits)*Repetitions)
	for _, bit := range frameBits {
		for r := 0; r < Repetitions; r++ {
			encoded = append(encoded, bit)
		}
	}

	return encoded, nil
}

// Decode recovers a payload from raw demodulated bits. It applies per-group
// majority voting, validates the length prefix and returns the payload bytes.
// The boolean result is false when the frame cannot be recovered: too few
// bits, a prefix exceeding the bits actually present, or a non-empty prefix
// that yields no complete byte. A zero prefix decodes to an empty payload,
// matching what Encode produces for zero-length input.
func Decode(bits []bool) ([]byte, bool) {
	if len(bits) < MinEncodedBits {
		return nil, false
	}

	decoded := majorityVote(bits)
	if len(decoded) < LengthPrefixBits {
		return nil, false
	}

	var length int
	for _, bit := range decoded[:LengthPrefixBits] {
		length <<= 1
		if bit {
			length |= 1
		}
	}

	payloadBits := decoded[LengthPrefixBits:]
	if length == 0 {
		return []byte{}, true
	}
	if length > len(payloadBits) {
		return nil, false
	}

	payload := BitsToBytes(payloadBits[:length])
	if len(payload) == 0 {
		return nil, false
	}

	return payload, true
}

// majorityVote collapses each group of Repetitions raw bits into a single bit.
// Incomplete trailing groups are discarded. Ties cannot occur with an odd
// group size.
func majorityVote(bits []bool) []bool {
	decoded := make([]bool, 0, len(bits)/Repetitions)
	for i := 0; i+Repetitions <= len(bits); i += Repetitions {
		ones := 0
		for j := 0; j < Repetitions; j++ {
			if bits[i+j] {
				ones++
			}
		}
		decoded = append(decoded, ones > Repetitions/2)
	}
	return decoded
}
