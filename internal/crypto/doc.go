// Package crypto provides the AES-256-GCM cipher service that encrypts
// command strings into opaque payloads for the modem, plus the random-padding
// obfuscation layer applied on top of the ciphertext.
package crypto
