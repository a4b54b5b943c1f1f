package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// wavHeader is the canonical 44-byte PCM WAV header.
type wavHeader struct {
	ChunkID       [4]byte // "RIFF"
	ChunkSize     uint32  // File size - 8 bytes
	Format        [4]byte // "WAVE"
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32  // 16 for PCM
	AudioFormat   uint16  // 1 for PCM
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32 // SampleRate * NumChannels * BitsPerSample / 8
	BlockAlign    uint16 // NumChannels * BitsPerSample / 8
	BitsPerSample uint16
	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32  // Number of bytes in the data
}

const wavHeaderSize = 44

// Info describes a decoded WAV stream.
type Info struct {
	SampleRate int     `json:"sample_rate"`
	Channels   int     `json:"channels"`
	Duration   float64 `json:"duration_seconds"`
	NumSamples int     `json:"num_samples"`
}

// EncodeWAV encodes mono PCM-16 samples into a WAV container. WAV is the
// recommended carrier format: it preserves the near-ultrasonic band above
// 17 kHz that lossy codecs discard.
func EncodeWAV(samples []int16, sampleRate int) ([]byte, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("cannot encode empty audio samples")
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}

	dataSize := uint32(len(samples) * 2)
	header := wavHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + dataSize,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   1,
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate) * 2,
		BlockAlign:    2,
		BitsPerSample: 16,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}

	buf := bytes.NewBuffer(make([]byte, 0, wavHeaderSize+len(samples)*2))
	if err := binary.Write(buf, binary.LittleEndian, header); err != nil {
		return nil, fmt.Errorf("failed to write WAV header: %w", err)
	}
	if err := binary.Write(buf, binary.LittleEndian, samples); err != nil {
		return nil, fmt.Errorf("failed to write audio data: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeWAV decodes PCM-16 WAV data into interleaved samples. Mono and
// stereo streams are accepted; callers down-mix multi-channel audio before
// handing it to the modem.
func DecodeWAV(data []byte) ([]int16, Info, error) {
	header, err := parseHeader(data)
	if err != nil {
		return nil, Info{}, err
	}

	numSamples := int(header.Subchunk2Size) / 2
	if numSamples <= 0 {
		return nil, Info{}, fmt.Errorf("no audio data found")
	}
	if available := (len(data) - wavHeaderSize) / 2; numSamples > available {
		numSamples = available
	}

	samples := make([]int16, numSamples)
	reader := bytes.NewReader(data[wavHeaderSize:])
	if err := binary.Read(reader, binary.LittleEndian, samples); err != nil {
		return nil, Info{}, fmt.Errorf("failed to read audio samples: %w", err)
	}

	channels := int(header.NumChannels)
	info := Info{
		SampleRate: int(header.SampleRate),
		Channels:   channels,
		Duration:   float64(numSamples/channels) / float64(header.SampleRate),
		NumSamples: numSamples,
	}
	return samples, info, nil
}

// WAVInfo extracts stream metadata without decoding the sample data.
func WAVInfo(data []byte) (Info, error) {
	header, err := parseHeader(data)
	if err != nil {
		return Info{}, err
	}

	channels := int(header.NumChannels)
	numSamples := int(header.Subchunk2Size) / 2
	return Info{
		SampleRate: int(header.SampleRate),
		Channels:   channels,
		Duration:   float64(numSamples/channels) / float64(header.SampleRate),
		NumSamples: numSamples,
	}, nil
}

func parseHeader(data []byte) (*wavHeader, error) {
	if len(data) < wavHeaderSize {
		return nil, fmt.Errorf("WAV data too short: need at least %d bytes, got %d", wavHeaderSize, len(data))
	}

	var header wavHeader
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read WAV header: %w", err)
	}

	if string(header.ChunkID[:]) != "RIFF" {
		return nil, fmt.Errorf("invalid WAV file: missing RIFF header")
	}
	if string(header.Format[:]) != "WAVE" {
		return nil, fmt.Errorf("invalid WAV file: missing WAVE format")
	}
	if string(header.Subchunk1ID[:]) != "fmt " {
		return nil, fmt.Errorf("invalid WAV file: missing fmt chunk")
	}
	if string(header.Subchunk2ID[:]) != "data" {
		return nil, fmt.Errorf("invalid WAV file: missing data chunk")
	}
	if header.AudioFormat != 1 {
		return nil, fmt.Errorf("unsupported audio format: %d (only PCM is supported)", header.AudioFormat)
	}
	if header.BitsPerSample != 16 {
		return nil, fmt.Errorf("unsupported bit depth: %d (only 16-bit is supported)", header.BitsPerSample)
	}
	if header.NumChannels != 1 && header.NumChannels != 2 {
		return nil, fmt.Errorf("unsupported channel count: %d (only mono and stereo are supported)", header.NumChannels)
	}
	if header.SampleRate == 0 {
		return nil, fmt.Errorf("invalid sample rate: 0")
	}
	return &header, nil
}
