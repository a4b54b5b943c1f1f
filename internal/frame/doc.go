// Package frame implements the bit-level framing protocol for the FSK modem.
// It handles the length-prefixed frame layout, repetition coding with majority
// voting, and the opt-in stronger coding schemes (Hamming, interleaved).
package frame
