// Package pulse turns PCM samples into timing-classified pulses.
package pulse

import (
	"fmt"

	"github.com/norasector/tapedeck/pkg/dsp/slicer"
	"github.com/norasector/tapedeck/pkg/tape"
)

// Interval is the span between two consecutive crossings.
type Interval struct {
	Frame  int // frame of the crossing that opens the interval
	Frames int
}

func (i Interval) Seconds(sampleRate int) float64 {
	return float64(i.Frames) / float64(sampleRate)
}

type InvalidPulseLengthError struct {
	Seconds float64
	Frame   int
}

func (e *InvalidPulseLengthError) Error() string {
	return fmt.Sprintf("invalid pulse length %.6fs at frame %d", e.Seconds, e.Frame)
}

// Measure returns every crossing interval in the signal, in order.
func Measure(samples []int32, spec tape.Spec) []Interval {
	crossings := slicer.NewCrossingSlicer(spec.Threshold(), spec.Channels).Work(samples)
	if len(crossings) < 2 {
		return nil
	}

	ret := make([]Interval, len(crossings)-1)
	for i := 0; i < len(crossings)-1; i++ {
		ret[i] = Interval{
			Frame:  crossings[i],
			Frames: crossings[i+1] - crossings[i],
		}
	}
	return ret
}

// Group classifies intervals and splits them into bursts at every gap.
// Empty bursts are dropped.
func Group(intervals []Interval, sampleRate int) ([][]Kind, error) {
	var groups [][]Kind
	var cur []Kind

	for _, iv := range intervals {
		kind, ok := ClassifyInterval(iv.Frames, sampleRate)
		if !ok {
			return nil, &InvalidPulseLengthError{
				Seconds: iv.Seconds(sampleRate),
				Frame:   iv.Frame,
			}
		}

		if kind == Gap {
			if len(cur) > 0 {
				groups = append(groups, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, kind)
	}

	if len(cur) > 0 {
		groups = append(groups, cur)
	}
	return groups, nil
}

// Classify runs the crossing detector over samples and groups the resulting
// pulses. The first unclassifiable interval aborts with *InvalidPulseLengthError.
func Classify(samples []int32, spec tape.Spec) ([][]Kind, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return Group(Measure(samples, spec), spec.SampleRate)
}
