// Package audio converts between raw PCM samples and WAV containers.
package audio

import (
	"encoding/binary"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// PCM is a block of interleaved signed samples.
type PCM struct {
	Samples    []int
	SampleRate int
	Channels   int
	BitDepth   int
}

// FromLE16 converts little-endian 16-bit PCM bytes to samples.
func FromLE16(raw []byte, sampleRate, channels int) (*PCM, error) {
	if len(raw)%2 != 0 {
		return nil, fmt.Errorf("odd pcm length %d for 16-bit samples", len(raw))
	}
	samples := make([]int, len(raw)/2)
	for i := range samples {
		samples[i] = int(int16(binary.LittleEndian.Uint16(raw[i*2:])))
	}
	return &PCM{
		Samples:    samples,
		SampleRate: sampleRate,
		Channels:   channels,
		BitDepth:   16,
	}, nil
}

// DecodeWAV reads a complete WAV stream into memory.
func DecodeWAV(r io.ReadSeeker) (*PCM, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return nil, fmt.Errorf("not a valid wav file")
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("reading wav pcm: %w", err)
	}
	return &PCM{
		Samples:    buf.Data,
		SampleRate: int(d.SampleRate),
		Channels:   int(d.NumChans),
		BitDepth:   int(d.BitDepth),
	}, nil
}

// EncodeWAV writes p as an uncompressed PCM WAV file.
func EncodeWAV(w io.WriteSeeker, p *PCM) error {
	if p.SampleRate <= 0 || p.Channels <= 0 || p.BitDepth <= 0 {
		return fmt.Errorf("invalid pcm format: rate=%d channels=%d depth=%d",
			p.SampleRate, p.Channels, p.BitDepth)
	}

	format := &goaudio.Format{SampleRate: p.SampleRate, NumChannels: p.Channels}
	e := wav.NewEncoder(w, p.SampleRate, p.BitDepth, p.Channels, 1) // 1 = PCM

	// Write even when empty so the header is always emitted.
	buf := &goaudio.IntBuffer{
		Format:         format,
		Data:           p.Samples,
		SourceBitDepth: p.BitDepth,
	}
	if err := e.Write(buf); err != nil {
		return fmt.Errorf("writing wav samples: %w", err)
	}
	return e.Close()
}
