package tone

import (
	"math"
)

const (
	tau float64 = math.Pi * 2
)

// Oscillator renders a sine carrier as signed integer samples. Phase restarts
// at zero for every cycle so each pulse begins with a rising half-wave.
type Oscillator struct {
	sampleRate     int
	frequency      float64
	amplitude      float64
	phaseIncrement float64
}

func NewOscillator(sampleRate int, frequency float64, amplitude int32) *Oscillator {
	return &Oscillator{
		sampleRate:     sampleRate,
		frequency:      frequency,
		amplitude:      float64(amplitude),
		phaseIncrement: frequency * tau / float64(sampleRate),
	}
}

// CycleLength is the whole number of samples in one period of the carrier.
func (o *Oscillator) CycleLength() int {
	return int(math.Round(float64(o.sampleRate) / o.frequency))
}

func (o *Oscillator) sample(i int) int32 {
	return int32(math.Round(math.Sin(float64(i)*o.phaseIncrement) * o.amplitude))
}

// WorkBuffer fills output with consecutive samples starting at phase zero.
func (o *Oscillator) WorkBuffer(output []int32) int {
	for i := range output {
		output[i] = o.sample(i)
	}
	return len(output)
}

// Pulse renders a single cycle held at zero until length samples have been
// produced. A length shorter than the cycle truncates it.
func (o *Oscillator) Pulse(length int) []int32 {
	cycle := o.CycleLength()
	if length < cycle {
		cycle = length
	}
	ret := make([]int32, length)
	o.WorkBuffer(ret[:cycle])
	return ret
}
