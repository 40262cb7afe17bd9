// Package wavfile moves signed integer PCM and its tape.Spec in and out of
// WAV containers.
package wavfile

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/norasector/tapedeck/pkg/tape"
)

const pcmFormat = 1

var (
	ErrInvalidFile       = errors.New("invalid WAV file")
	ErrUnsupportedFormat = errors.New("unsupported WAV format")
)

// 8 bit WAV is unsigned; everything else in this module is signed.
const unsignedOffset = 128

// Read decodes an integer PCM WAV stream into interleaved samples.
func Read(r io.ReadSeeker) ([]int32, tape.Spec, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, tape.Spec{}, ErrInvalidFile
	}
	if dec.WavAudioFormat != pcmFormat {
		return nil, tape.Spec{}, fmt.Errorf("%w: audio format %d", ErrUnsupportedFormat, dec.WavAudioFormat)
	}

	spec := tape.Spec{
		SampleRate:    int(dec.SampleRate),
		Channels:      int(dec.NumChans),
		BitsPerSample: int(dec.BitDepth),
	}
	if err := spec.Validate(); err != nil {
		return nil, tape.Spec{}, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, tape.Spec{}, fmt.Errorf("reading PCM data: %w", err)
	}

	samples := make([]int32, len(buf.Data))
	for i, v := range buf.Data {
		if spec.BitsPerSample == 8 {
			v -= unsignedOffset
		}
		samples[i] = int32(v)
	}
	return samples, spec, nil
}

func ReadFile(path string) ([]int32, tape.Spec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, tape.Spec{}, err
	}
	defer f.Close()

	return Read(f)
}

// Write encodes interleaved samples as integer PCM.
func Write(w io.WriteSeeker, samples []int32, spec tape.Spec) error {
	if err := spec.Validate(); err != nil {
		return err
	}

	data := make([]int, len(samples))
	for i, v := range samples {
		data[i] = int(v)
		if spec.BitsPerSample == 8 {
			data[i] += unsignedOffset
		}
	}

	enc := wav.NewEncoder(w, spec.SampleRate, spec.BitsPerSample, spec.Channels, pcmFormat)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: spec.Channels,
			SampleRate:  spec.SampleRate,
		},
		Data:           data,
		SourceBitDepth: spec.BitsPerSample,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("writing PCM data: %w", err)
	}
	return enc.Close()
}

func WriteFile(path string, samples []int32, spec tape.Spec) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := Write(f, samples, spec); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
