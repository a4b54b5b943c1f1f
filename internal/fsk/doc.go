// Package fsk implements the binary FSK acoustic modem: rendering frame bits
// into near-ultrasonic tone bursts and recovering them from noisy, re-sampled
// sample buffers via band-pass filtering, preamble synchronization and
// per-bit frequency discrimination.
package fsk
