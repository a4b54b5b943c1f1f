package frame

import (
	"bytes"
	"testing"
)

func TestBytesToBitsRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", []byte{}},
		{"single byte", []byte{0xA5}},
		{"all zeros", []byte{0x00, 0x00}},
		{"all ones", []byte{0xFF, 0xFF}},
		{"text", []byte("hello world")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bits := BytesToBits(tt.data)
			if len(bits) != len(tt.data)*8 {
				t.Fatalf("bit count = %d, want %d", len(bits), len(tt.data)*8)
			}
			got := BitsToBytes(bits)
			if !bytes.Equal(got, tt.data) {
				t.Errorf("round trip = %v, want %v", got, tt.data)
			}
		})
	}
}

func TestBytesToBitsMSBFirst(t *testing.T) {
	bits := BytesToBits([]byte{0x80})
	if !bits[0] {
		t.Error("MSB of 0x80 should be the first bit")
	}
	for i := 1; i < 8; i++ {
		if bits[i] {
			t.Errorf("bit %d of 0x80 should be 0", i)
		}
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
	}{
		{"empty", []byte{}},
		{"single byte", []byte{0x42}},
		{"command", []byte("execute:status")},
		{"binary", []byte{0x00, 0xFF, 0xAA, 0x55}},
		{"200 bytes", bytes.Repeat([]byte{0xC3}, 200)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bits, err := Encode(tt.payload)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}

			wantBits := (LengthPrefixBits + len(tt.payload)*8) * Repetitions
			if len(bits) != wantBits {
				t.Errorf("encoded bit count = %d, want %d", len(bits), wantBits)
			}

			got, ok := Decode(bits)
			if !ok {
				t.Fatal("Decode failed")
			}
			if !bytes.Equal(got, tt.payload) {
				t.Errorf("round trip = %v, want %v", got, tt.payload)
			}
		})
	}
}

func TestEncodePayloadTooLarge(t *testing.T) {
	if _, err := Encode(make([]byte, MaxPayloadBytes+1)); err == nil {
		t.Error("expected error for oversized payload, got nil")
	}

	if _, err := Encode(make([]byte, MaxPayloadBytes)); err != nil {
		t.Errorf("payload at the limit should encode, got %v", err)
	}
}

func TestDecodeSingleBitErrorsPerGroup(t *testing.T) {
	payload := []byte("majority vote")
	bits, err := Encode(payload)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	// Flip one bit in every repetition group; the vote must still win.
	for group := 0; group < len(bits)/Repetitions; group++ {
		bits[group*Repetitions+group%Repetitions] = !bits[group*Repetitions+group%Repetitions]
	}

	got, ok := Decode(bits)
	if !ok {
		t.Fatal("Decode failed with one error per group")
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("decoded %q, want %q", got, payload)
	}
}

func TestDecodeTwoBitErrorsCorruptGroup(t *testing.T) {
	bits, err := Encode([]byte{0x00})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	// Two flips in the same group outvote the true bit. The frame decodes
	// to the wrong value or fails, but must not panic.
	bits[0] = !bits[0]
	bits[1] = !bits[1]

	got, ok := Decode(bits)
	if ok && bytes.Equal(got, []byte{0x00}) {
		t.Error("two errors in one group should corrupt the vote")
	}
}

func TestDecodeRejectsMalformedInput(t *testing.T) {
	tests := []struct {
		name string
		bits []bool
	}{
		{"nil", nil},
		{"too short", make([]bool, MinEncodedBits-1)},
		{"truncated payload", mustEncode(t, []byte("hello"))[:MinEncodedBits+3]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := Decode(tt.bits); ok {
				t.Error("expected decode failure, got success")
			}
		})
	}
}

func TestDecodeEmptyPayload(t *testing.T) {
	bits, err := Encode(nil)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	got, ok := Decode(bits)
	if !ok {
		t.Fatal("Decode failed for empty payload")
	}
	if len(got) != 0 {
		t.Errorf("decoded %v, want empty payload", got)
	}
}

func TestDecodeIgnoresTrailingBits(t *testing.T) {
	payload := []byte("trailing")
	bits, err := Encode(payload)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	// Decoders hand over a few extra low-power windows past the end of the
	// transmission.
	bits = append(bits, true, false, true, true)

	got, ok := Decode(bits)
	if !ok {
		t.Fatal("Decode failed with trailing bits")
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("decoded %q, want %q", got, payload)
	}
}

func mustEncode(t *testing.T, payload []byte) []bool {
	t.Helper()
	bits, err := Encode(payload)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	return bits
}
