package frame

import (
	"fmt"
)

// Scheme selects the coding strategy a Codec applies to frames. Only
// SchemeRepetition participates in the modem's default pipeline; the stronger
// schemes are opt-in and carry their own frame layout (length prefix plus
// CRC-16), so they are not interchangeable with repetition frames on the wire.
type Scheme int

const (
	// SchemeRepetition is the default 3x repetition code with majority voting
	SchemeRepetition Scheme = iota

	// SchemeHamming applies Hamming(7,4) forward error correction with
	// single-bit correction per codeword, protected by a CRC-16 checksum
	SchemeHamming

	// SchemeInterleaved applies Hamming(7,4) followed by depth-8 block
	// interleaving to spread burst errors across codewords
	SchemeInterleaved
)

// String returns the configuration name of the scheme.
func (s Scheme) String() string {
	switch s {
	case SchemeRepetition:
		return "repetition"
	case SchemeHamming:
		return "hamming"
	case SchemeInterleaved:
		return "interleaved"
	default:
		return fmt.Sprintf("scheme(%d)", int(s))
	}
}

// ParseScheme converts a configuration string into a Scheme.
func ParseScheme(name string) (Scheme, error) {
	switch name {
	case "repetition", "":
		return SchemeRepetition, nil
	case "hamming":
		return SchemeHamming, nil
	case "interleaved":
		return SchemeInterleaved, nil
	default:
		return 0, fmt.Errorf("unknown coding scheme %q (must be repetition, hamming or interleaved)", name)
	}
}

const interleaveDepth = 8

// Codec encodes and decodes frames under a fixed coding scheme.
type Codec struct {
	scheme Scheme
}

// NewCodec creates a codec for the given scheme.
func NewCodec(scheme Scheme) (*Codec, error) {
	switch scheme {
	case SchemeRepetition, SchemeHamming, SchemeInterleaved:
		return &Codec{scheme: scheme}, nil
	default:
		return nil, fmt.Errorf("invalid coding scheme %d", int(scheme))
	}
}

// Scheme returns the codec's coding scheme.
func (c *Codec) Scheme() Scheme {
	return c.scheme
}

// Encode converts a payload into the coded bit sequence for transmission.
func (c *Codec) Encode(payload []byte) ([]bool, error) {
	switch c.scheme {
	case SchemeRepetition:
		return Encode(payload)
	case SchemeHamming:
		return encodeHammingFrame(payload, false)
	case SchemeInterleaved:
		return encodeHammingFrame(payload, true)
	default:
		return nil, fmt.Errorf("invalid coding scheme %d", int(c.scheme))
	}
}

// Decode recovers a payload from raw demodulated bits. The boolean result is
// false when the frame cannot be recovered under the codec's scheme.
func (c *Codec) Decode(bits []bool) ([]byte, bool) {
	switch c.scheme {
	case SchemeRepetition:
		return Decode(bits)
	case SchemeHamming:
		return decodeHammingFrame(bits, false)
	case SchemeInterleaved:
		return decodeHammingFrame(bits, true)
	default:
		return nil, false
	}
}

// encodeHammingFrame lays out length(16) + crc16(16) + payload bits, encodes
// 4-bit chunks into Hamming(7,4) codewords and optionally interleaves the
// result.
func encodeHammingFrame(payload []byte, interleave bool) ([]bool, error) {
	if len(payload) > MaxPayloadBytes {
		return nil, fmt.Errorf("payload too large: %d bytes exceeds %d byte limit of the 16-bit length prefix",
			len(payload), MaxPayloadBytes)
	}

	payloadBits := BytesToBits(payload)
	frameBits := make([]bool, 0, 32+len(payloadBits))
	frameBits = appendUint16Bits(frameBits, uint16(len(payloadBits)))
	frameBits = appendUint16Bits(frameBits, CRC16(payload))
	frameBits = append(frameBits, payloadBits...)

	coded := make([]bool, 0, (len(frameBits)+3)/4*7)
	for i := 0; i < len(frameBits); i += 4 {
		var nibble [4]bool
		copy(nibble[:], frameBits[i:min(i+4, len(frameBits))])
		coded = append(coded, encodeHamming74(nibble)...)
	}

	if interleave {
		coded = interleaveBits(coded)
	}
	return coded, nil
}

// decodeHammingFrame reverses encodeHammingFrame: deinterleave, correct each
// 7-bit codeword, then validate the length prefix and CRC.
func decodeHammingFrame(bits []bool, interleave bool) ([]byte, bool) {
	if interleave {
		bits = deinterleaveBits(bits)
	}

	decoded := make([]bool, 0, len(bits)/7*4)
	for i := 0; i+7 <= len(bits); i += 7 {
		var codeword [7]bool
		copy(codeword[:], bits[i:i+7])
		nibble := decodeHamming74(codeword)
		decoded = append(decoded, nibble[:]...)
	}

	if len(decoded) < 32 {
		return nil, false
	}

	length := int(uint16Bits(decoded[:16]))
	wantCRC := uint16Bits(decoded[16:32])
	payloadBits := decoded[32:]

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
	if CRC16(payload) != wantCRC {
		return nil, false
	}
	return payload, true
}

// encodeHamming74 maps 4 data bits onto the codeword p1 p2 d1 p3 d2 d3 d4.
func encodeHamming74(d [4]bool) []bool {
	p1 := d[0] != d[1] != d[3]
	p2 := d[0] != d[2] != d[3]
	p3 := d[1] != d[2] != d[3]
	return []bool{p1, p2, d[0], p3, d[1], d[2], d[3]}
}

// decodeHamming74 corrects at most one flipped bit in a codeword and returns
// the 4 data bits.
func decodeHamming74(c [7]bool) [4]bool {
	s1 := c[0] != c[2] != c[4] != c[6]
	s2 := c[1] != c[2] != c[5] != c[6]
	s3 := c[3] != c[4] != c[5] != c[6]

	errorPos := 0
	if s1 {
		errorPos |= 1
	}
	if s2 {
		errorPos |= 2
	}
	if s3 {
		errorPos |= 4
	}
	if errorPos != 0 {
		c[errorPos-1] = !c[errorPos-1]
	}

	return [4]bool{c[2], c[4], c[5], c[6]}
}

// interleaveBits performs depth-8 block interleaving: bits are written into
// rows of 8 and read out column by column. The input is zero-padded to a
// whole number of rows.
func interleaveBits(bits []bool) []bool {
	padded := padBits(bits, interleaveDepth)
	rows := len(padded) / interleaveDepth

	out := make([]bool, 0, len(padded))
	for col := 0; col < interleaveDepth; col++ {
		for row := 0; row < rows; row++ {
			out = append(out, padded[row*interleaveDepth+col])
		}
	}
	return out
}

// deinterleaveBits restores the original bit order produced by interleaveBits.
func deinterleaveBits(bits []bool) []bool {
	rows := len(bits) / interleaveDepth
	if rows == 0 {
		return bits
	}
	usable := rows * interleaveDepth

	out := make([]bool, 0, usable)
	for row := 0; row < rows; row++ {
		for col := 0; col < interleaveDepth; col++ {
			out = append(out, bits[col*rows+row])
		}
	}
	return out
}

func padBits(bits []bool, multiple int) []bool {
	rem := len(bits) % multiple
	if rem == 0 {
		return bits
	}
	return append(bits[:len(bits):len(bits)], make([]bool, multiple-rem)...)
}

func appendUint16Bits(bits []bool, v uint16) []bool {
	for shift := 15; shift >= 0; shift-- {
		bits = append(bits, (v>>shift)&1 == 1)
	}
	return bits
}

func uint16Bits(bits []bool) uint16 {
	var v uint16
	for _, bit := range bits[:16] {
		v <<= 1
		if bit {
			v |= 1
		}
	}
	return v
}

// CRC16 computes the CRC-16-CCITT checksum (polynomial 0x1021, initial value
// 0xFFFF) used by the Hamming frame layouts.
func CRC16(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
