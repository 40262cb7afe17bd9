// Package modem renders payload bytes as the two-tone cassette waveform read
// back by the pulse and frame packages.
package modem

import (
	"math/bits"

	"github.com/norasector/tapedeck/pkg/dsp/tone"
	"github.com/norasector/tapedeck/pkg/tape"
	"github.com/norasector/tapedeck/pkg/tape/pulse"
)

// Modulator holds the rendered pulse shapes for one sample spec.
type Modulator struct {
	spec     tape.Spec
	carriers [2][]int32
	silence  int
}

func NewModulator(spec tape.Spec) (*Modulator, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	amp := tape.MaxAmplitude(spec.BitsPerSample)
	zero := tone.NewOscillator(spec.SampleRate, tape.ZeroToneHz, amp)
	one := tone.NewOscillator(spec.SampleRate, tape.OneToneHz, amp)

	return &Modulator{
		spec: spec,
		carriers: [2][]int32{
			zero.Pulse(holdLength(zero, pulse.Zero, spec.SampleRate)),
			one.Pulse(holdLength(one, pulse.One, spec.SampleRate)),
		},
		silence: spec.Frames(tape.BurstSilence),
	}, nil
}

// holdLength stretches a carrier cycle to the nominal length of its pulse
// window; the decoder measures the span between rising edges, not the tone.
func holdLength(o *tone.Oscillator, k pulse.Kind, sampleRate int) int {
	n := pulse.Nominal(k, sampleRate)
	if c := o.CycleLength(); c > n {
		return c
	}
	return n
}

func (m *Modulator) getCarrier(bit bool) []int32 {
	if bit {
		return m.carriers[1]
	}
	return m.carriers[0]
}

func (m *Modulator) appendBytes(out []int32, data []byte) []int32 {
	for _, b := range data {
		for i := 7; i >= 0; i-- {
			out = append(out, m.getCarrier(b&(1<<i) != 0)...)
		}
	}
	return out
}

// Burst renders preamble, payload and a closing cycle that gives the final
// payload bit its terminating crossing.
func (m *Modulator) Burst(out []int32, payload []byte) []int32 {
	out = m.appendBytes(out, tape.Preamble())
	out = m.appendBytes(out, payload)
	return append(out, m.carriers[1]...)
}

func (m *Modulator) burstLength(payload []byte) int {
	ones := 0
	for _, b := range tape.Preamble() {
		ones += bits.OnesCount8(b)
	}
	for _, b := range payload {
		ones += bits.OnesCount8(b)
	}
	zeros := (tape.PreambleLength+1+len(payload))*8 - ones
	return zeros*len(m.carriers[0]) + (ones+1)*len(m.carriers[1])
}

// Modulate renders each payload as its own burst, separated by silence.
func (m *Modulator) Modulate(payloads [][]byte) []int32 {
	size := 0
	for _, p := range payloads {
		size += m.burstLength(p) + m.silence
	}

	out := make([]int32, 0, size)
	for i, p := range payloads {
		out = m.Burst(out, p)
		if i != len(payloads)-1 {
			out = append(out, make([]int32, m.silence)...)
		}
	}
	return out
}

// Modulate is a convenience wrapper around NewModulator. The output is mono.
func Modulate(payloads [][]byte, spec tape.Spec) ([]int32, error) {
	m, err := NewModulator(spec)
	if err != nil {
		return nil, err
	}
	return m.Modulate(payloads), nil
}
