package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const (
	// KeySize is the default AES-256 key length
	KeySize = 32

	// nonceSize is the GCM nonce length used on the wire
	nonceSize = 16

	// tagSize is the GCM authentication tag length
	tagSize = 16

	// maxPaddingBytes bounds the random obfuscation padding
	maxPaddingBytes = 32

	// EncryptionOverhead is the number of bytes Encrypt adds to a plaintext:
	// the nonce plus the authentication tag.
	EncryptionOverhead = nonceSize + tagSize

	// MaxObfuscationOverhead is the largest number of bytes Obfuscate can
	// add to a payload: the size byte plus the maximum padding.
	MaxObfuscationOverhead = 1 + maxPaddingBytes
)

// Cipher encrypts and decrypts command payloads with AES-GCM. The key is
// fixed at construction; a cipher handle is injected into whichever component
// needs it rather than shared through process-wide state. Payload layout:
// nonce (16) | ciphertext | tag (16).
type Cipher struct {
	key  []byte
	aead cipher.AEAD
}

// NewCipher creates a cipher with the given AES key (16, 24 or 32 bytes).
func NewCipher(key []byte) (*Cipher, error) {
	switch len(key) {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("key must be 16, 24 or 32 bytes for AES, got %d", len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize AES: %w", err)
	}

	aead, err := cipher.NewGCMWithNonceSize(block, nonceSize)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize GCM: %w", err)
	}

	owned := make([]byte, len(key))
	copy(owned, key)
	return &Cipher{key: owned, aead: aead}, nil
}

// NewRandomCipher creates a cipher with a freshly generated AES-256 key.
func NewRandomCipher() (*Cipher, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return NewCipher(key)
}

// NewCipherFromBase64 creates a cipher from a base64-encoded key.
func NewCipherFromBase64(encoded string) (*Cipher, error) {
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 key: %w", err)
	}
	return NewCipher(key)
}

// Key returns a copy of the cipher's key.
func (c *Cipher) Key() []byte {
	key := make([]byte, len(c.key))
	copy(key, c.key)
	return key
}

// KeyBase64 returns the cipher's key as a base64 string.
func (c *Cipher) KeyBase64() string {
	return base64.StdEncoding.EncodeToString(c.key)
}

// Encrypt seals a command string into an authenticated payload with a random
// nonce.
func (c *Cipher) Encrypt(command string) ([]byte, error) {
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	// Seal appends ciphertext+tag after the nonce
	return c.aead.Seal(nonce, nonce, []byte(command), nil), nil
}

// Decrypt opens an encrypted payload. The boolean result is false for any
// malformed or tampered payload; a failed decrypt is an expected outcome of a
// noisy channel, not an error.
func (c *Cipher) Decrypt(payload []byte) (string, bool) {
	if len(payload) < nonceSize+tagSize {
		return "", false
	}

	nonce := payload[:nonceSize]
	plaintext, err := c.aead.Open(nil, nonce, payload[nonceSize:], nil)
	if err != nil {
		return "", false
	}
	return string(plaintext), true
}

// Obfuscate prepends random padding to a payload: one length byte followed by
// 1-32 random bytes. The padding hides the true ciphertext length from
// traffic analysis of the carrier.
func Obfuscate(payload []byte) ([]byte, error) {
	var sizeByte [1]byte
	if _, err := rand.Read(sizeByte[:]); err != nil {
		return nil, fmt.Errorf("failed to generate padding size: %w", err)
	}
	paddingSize := int(sizeByte[0])%maxPaddingBytes + 1

	padding := make([]byte, paddingSize)
	if _, err := rand.Read(padding); err != nil {
		return nil, fmt.Errorf("failed to generate padding: %w", err)
	}

	out := make([]byte, 0, 1+paddingSize+len(payload))
	out = append(out, byte(paddingSize))
	out = append(out, padding...)
	out = append(out, payload...)
	return out, nil
}

// Deobfuscate strips the random padding added by Obfuscate. The boolean
// result is false when the payload is too short for its declared padding.
func Deobfuscate(payload []byte) ([]byte, bool) {
	if len(payload) < 1 {
		return nil, false
	}

	paddingSize := int(payload[0])
	if len(payload) < 1+paddingSize {
		return nil, false
	}
	return payload[1+paddingSize:], true
}
