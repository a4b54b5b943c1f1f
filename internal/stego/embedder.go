package stego

import (
	"fmt"
	"log/slog"

	"github.com/ruvnet/ultrasonic/internal/audio"
	"github.com/ruvnet/ultrasonic/internal/crypto"
	"github.com/ruvnet/ultrasonic/internal/frame"
	"github.com/ruvnet/ultrasonic/internal/fsk"
)

// DefaultMinHostDuration is the default minimum length of generated carrier
// audio in seconds. Short bursts at the edge of a file are easy to notice;
// padding to a few seconds of audio makes the output look like an ordinary
// clip.
const DefaultMinHostDuration = 5.0

// Embedder hides encrypted commands in audio. The pipeline is
// encrypt, obfuscate, frame, modulate, then mix into host audio.
// An Embedder is immutable after construction and safe for concurrent use.
type Embedder struct {
	cfg             fsk.Config
	cipher          *crypto.Cipher
	mod             *fsk.Modulator
	codec           *frame.Codec
	minHostDuration float64
	logger          *slog.Logger
}

// NewEmbedder creates an embedder for the given modem configuration and
// coding scheme. The cipher must not be nil. minHostDuration is the minimum
// output length in seconds; zero disables padding and a negative value is
// rejected.
func NewEmbedder(cfg fsk.Config, scheme frame.Scheme, cipher *crypto.Cipher, minHostDuration float64, logger *slog.Logger) (*Embedder, error) {
	if cipher == nil {
		return nil, fmt.Errorf("cipher is required")
	}
	if minHostDuration < 0 {
		return nil, fmt.Errorf("min host duration cannot be negative, got %f", minHostDuration)
	}
	if logger == nil {
		logger = slog.Default()
	}

	mod, err := fsk.NewModulator(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create modulator: %w", err)
	}
	codec, err := frame.NewCodec(scheme)
	if err != nil {
		return nil, fmt.Errorf("failed to create frame codec: %w", err)
	}

	return &Embedder{
		cfg:             cfg,
		cipher:          cipher,
		mod:             mod,
		codec:           codec,
		minHostDuration: minHostDuration,
		logger:          logger,
	}, nil
}

// EncodeCommand encrypts and modulates a command into a standalone carrier
// signal at the modem sample rate.
func (e *Embedder) EncodeCommand(command string) ([]float64, error) {
	encrypted, err := e.cipher.Encrypt(command)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt command: %w", err)
	}

	payload, err := crypto.Obfuscate(encrypted)
	if err != nil {
		return nil, fmt.Errorf("failed to obfuscate payload: %w", err)
	}

	frameBits, err := e.codec.Encode(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to frame payload: %w", err)
	}

	bits := make([]bool, 0, fsk.PreambleLength+len(frameBits))
	bits = append(bits, fsk.PreambleBits()...)
	bits = append(bits, frameBits...)
	signal := e.mod.ModulateBits(bits)

	e.logger.Debug("Encoded command into carrier signal",
		slog.Int("command_bytes", len(command)),
		slog.Int("payload_bytes", len(payload)),
		slog.Int("signal_bits", len(bits)),
		slog.Int("signal_samples", len(signal)),
		slog.String("coding_scheme", e.codec.Scheme().String()),
	)
	return signal, nil
}

// EmbedWAV produces WAV audio carrying the command. With a nil host the
// carrier rides on silence padded to the minimum host duration; otherwise
// it is mixed into the host audio, which is down-mixed to mono and
// resampled to the modem rate first.
func (e *Embedder) EmbedWAV(command string, hostWAV []byte) ([]byte, error) {
	carrier, err := e.EncodeCommand(command)
	if err != nil {
		return nil, err
	}

	var host []float64
	if len(hostWAV) > 0 {
		host, err = e.prepareHost(hostWAV)
		if err != nil {
			return nil, err
		}
	}

	minSamples := int(e.minHostDuration * float64(e.cfg.SampleRate))
	mixed := audio.Overlay(host, carrier, minSamples)
	mixed = audio.Normalize(mixed, 1.0)

	out, err := audio.EncodeWAV(audio.FloatToPCM16(mixed), e.cfg.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("failed to encode output WAV: %w", err)
	}

	e.logger.Info("Embedded command into audio",
		slog.Int("host_samples", len(host)),
		slog.Int("carrier_samples", len(carrier)),
		slog.Int("output_bytes", len(out)),
		slog.Float64("duration_seconds", float64(len(mixed))/float64(e.cfg.SampleRate)),
	)
	return out, nil
}

// EstimateDuration returns the carrier duration in seconds for a command of
// the given length, including encryption and obfuscation overhead. The
// estimate uses the worst-case obfuscation padding.
func (e *Embedder) EstimateDuration(commandLength int) float64 {
	payloadSize := commandLength + crypto.EncryptionOverhead + crypto.MaxObfuscationOverhead
	return e.mod.EstimateDuration(payloadSize)
}

func (e *Embedder) prepareHost(hostWAV []byte) ([]float64, error) {
	samples, info, err := audio.DecodeWAV(hostWAV)
	if err != nil {
		return nil, fmt.Errorf("failed to decode host audio: %w", err)
	}

	host, err := audio.DownmixStereo(audio.PCM16ToFloat(samples), info.Channels)
	if err != nil {
		return nil, fmt.Errorf("failed to down-mix host audio: %w", err)
	}

	if info.SampleRate != e.cfg.SampleRate {
		e.logger.Debug("Resampling host audio to modem rate",
			slog.Int("host_rate", info.SampleRate),
			slog.Int("modem_rate", e.cfg.SampleRate),
		)
		host, err = audio.Resample(host, info.SampleRate, e.cfg.SampleRate)
		if err != nil {
			return nil, fmt.Errorf("failed to resample host audio: %w", err)
		}
	}
	return host, nil
}
