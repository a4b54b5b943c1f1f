package stego

import (
	"fmt"
	"log/slog"

	"github.com/ruvnet/ultrasonic/internal/audio"
	"github.com/ruvnet/ultrasonic/internal/crypto"
	"github.com/ruvnet/ultrasonic/internal/frame"
	"github.com/ruvnet/ultrasonic/internal/fsk"
)

// Extractor recovers hidden commands from audio, inverting the embed
// pipeline: demodulate, deframe, deobfuscate, decrypt. An Extractor is
// immutable after construction and safe for concurrent use.
type Extractor struct {
	cfg    fsk.Config
	cipher *crypto.Cipher
	demod  *fsk.Demodulator
	codec  *frame.Codec
	logger *slog.Logger
}

// Analysis describes the carrier content of an audio stream without
// decrypting it.
type Analysis struct {
	Info           audio.Info `json:"audio"`
	SignalDetected bool       `json:"signal_detected"`
	SignalStrength float64    `json:"signal_strength"`
	PreambleFound  bool       `json:"preamble_found"`
}

// NewExtractor creates an extractor for the given modem configuration and
// coding scheme. The scheme must match the one used to embed.
func NewExtractor(cfg fsk.Config, scheme frame.Scheme, cipher *crypto.Cipher, logger *slog.Logger) (*Extractor, error) {
	if cipher == nil {
		return nil, fmt.Errorf("cipher is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	demod, err := fsk.NewDemodulator(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create demodulator: %w", err)
	}
	codec, err := frame.NewCodec(scheme)
	if err != nil {
		return nil, fmt.Errorf("failed to create frame codec: %w", err)
	}

	return &Extractor{
		cfg:    cfg,
		cipher: cipher,
		demod:  demod,
		codec:  codec,
		logger: logger,
	}, nil
}

// ExtractWAV recovers the hidden command from WAV audio. The error reports a
// malformed container; a false boolean reports the expected
// no-signal-present and corrupted-channel outcomes.
func (x *Extractor) ExtractWAV(data []byte) (string, bool, error) {
	signal, _, err := x.prepareSignal(data)
	if err != nil {
		return "", false, err
	}

	command, ok := x.ExtractSignal(signal)
	return command, ok, nil
}

// ExtractSignal recovers the hidden command from a mono float signal at the
// modem sample rate. It never fails with an error; audio without a valid
// carrier yields a false result.
func (x *Extractor) ExtractSignal(signal []float64) (string, bool) {
	candidates, ok := x.demod.Demodulate(signal)
	if !ok {
		x.logger.Debug("No carrier preamble found in signal",
			slog.Int("signal_samples", len(signal)),
		)
		return "", false
	}

	bits := make([]bool, len(candidates))
	for i, c := range candidates {
		bits[i] = c.Bit
	}

	payload, ok := x.codec.Decode(bits)
	if !ok {
		x.logger.Debug("Frame decode failed",
			slog.Int("bit_count", len(bits)),
			slog.String("coding_scheme", x.codec.Scheme().String()),
		)
		return "", false
	}

	// The obfuscation wrapper is optional on the wire: fall back to
	// treating the payload as a bare ciphertext when stripping fails.
	if inner, ok := crypto.Deobfuscate(payload); ok {
		if command, ok := x.cipher.Decrypt(inner); ok {
			return command, true
		}
	}

	command, ok := x.cipher.Decrypt(payload)
	if !ok {
		x.logger.Debug("Payload decryption failed",
			slog.Int("payload_bytes", len(payload)),
		)
		return "", false
	}
	return command, true
}

// AnalyzeWAV reports carrier presence and strength for WAV audio without
// attempting decryption.
func (x *Extractor) AnalyzeWAV(data []byte) (Analysis, error) {
	signal, info, err := x.prepareSignal(data)
	if err != nil {
		return Analysis{}, err
	}

	_, preambleFound := fsk.FindPreamble(x.demod.Prefilter(signal), x.cfg)
	return Analysis{
		Info:           info,
		SignalDetected: x.demod.DetectSignal(signal),
		SignalStrength: x.demod.SignalStrength(signal),
		PreambleFound:  preambleFound,
	}, nil
}

func (x *Extractor) prepareSignal(data []byte) ([]float64, audio.Info, error) {
	samples, info, err := audio.DecodeWAV(data)
	if err != nil {
		return nil, audio.Info{}, fmt.Errorf("failed to decode audio: %w", err)
	}

	signal, err := audio.DownmixStereo(audio.PCM16ToFloat(samples), info.Channels)
	if err != nil {
		return nil, audio.Info{}, fmt.Errorf("failed to down-mix audio: %w", err)
	}

	if info.SampleRate != x.cfg.SampleRate {
		signal, err = audio.Resample(signal, info.SampleRate, x.cfg.SampleRate)
		if err != nil {
			return nil, audio.Info{}, fmt.Errorf("failed to resample audio: %w", err)
		}
	}
	return signal, info, nil
}
