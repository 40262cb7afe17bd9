// Package tape holds the sample format and wire constants shared by the
// cassette demodulator, modulator and container packages.
package tape

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var ErrInvalidSpec = errors.New("invalid sample spec")

// Spec describes interleaved signed PCM samples.
type Spec struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
}

func (s Spec) Validate() error {
	if s.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d", ErrInvalidSpec, s.SampleRate)
	}
	if s.Channels <= 0 {
		return fmt.Errorf("%w: channel count %d", ErrInvalidSpec, s.Channels)
	}
	if s.BitsPerSample < 8 || s.BitsPerSample > 32 {
		return fmt.Errorf("%w: %d bits per sample", ErrInvalidSpec, s.BitsPerSample)
	}
	return nil
}

// MaxAmplitude is the full-scale positive value of a signed sample of the given depth.
func MaxAmplitude(bits int) int32 {
	return int32((uint64(1) << (bits - 1)) - 1)
}

// Threshold is the magnitude a sample must exceed to count as signal.
func (s Spec) Threshold() int32 {
	return int32(math.Round(CrossThresholdRatio * float64(MaxAmplitude(s.BitsPerSample))))
}

// Frames converts a duration to a whole number of frames at the spec's rate.
func (s Spec) Frames(d time.Duration) int {
	return int(math.Round(d.Seconds() * float64(s.SampleRate)))
}

func (s Spec) String() string {
	return fmt.Sprintf("%d Hz, %d ch, %d bit", s.SampleRate, s.Channels, s.BitsPerSample)
}
