// Package analysis summarizes a recording for calibration: how the measured
// pulse lengths fall relative to the decoder windows, and which carrier
// frequencies dominate the signal.
package analysis

import (
	"github.com/norasector/tapedeck/pkg/tape"
	"github.com/norasector/tapedeck/pkg/tape/pulse"
	"gonum.org/v1/gonum/stat"
)

// PulseStats describes every interval classified as one kind. Lengths are in
// 1/44100 s units regardless of the recording's rate.
type PulseStats struct {
	Kind   pulse.Kind
	Count  int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

type Report struct {
	Spec      tape.Spec
	Intervals int
	Pulses    []PulseStats
	// Unclassified intervals would abort a decode.
	Unclassified int
	// FirstUnclassified is the frame of the first such interval, -1 if none.
	FirstUnclassified int
	Carriers          []float64
}

var reportKinds = []pulse.Kind{pulse.One, pulse.Zero, pulse.Start, pulse.Gap}

func units(frames, sampleRate int) float64 {
	return float64(frames) * tape.CalibrationRate / float64(sampleRate)
}

// Analyze measures samples without failing on bad pulses.
func Analyze(samples []int32, spec tape.Spec) (*Report, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	intervals := pulse.Measure(samples, spec)
	r := &Report{
		Spec:              spec,
		Intervals:         len(intervals),
		FirstUnclassified: -1,
	}

	lengths := make(map[pulse.Kind][]float64)
	for _, iv := range intervals {
		kind, ok := pulse.ClassifyInterval(iv.Frames, spec.SampleRate)
		if !ok {
			if r.Unclassified == 0 {
				r.FirstUnclassified = iv.Frame
			}
			r.Unclassified++
			continue
		}
		lengths[kind] = append(lengths[kind], units(iv.Frames, spec.SampleRate))
	}

	for _, k := range reportKinds {
		r.Pulses = append(r.Pulses, summarize(k, lengths[k]))
	}

	r.Carriers = EstimateCarriers(samples, spec, 2)
	return r, nil
}

func summarize(k pulse.Kind, x []float64) PulseStats {
	ret := PulseStats{Kind: k, Count: len(x)}
	if len(x) == 0 {
		return ret
	}

	if len(x) == 1 {
		ret.Mean = x[0]
	} else {
		ret.Mean, ret.StdDev = stat.MeanStdDev(x, nil)
	}
	ret.Min, ret.Max = x[0], x[0]
	for _, v := range x[1:] {
		if v < ret.Min {
			ret.Min = v
		}
		if v > ret.Max {
			ret.Max = v
		}
	}
	return ret
}

// Stats returns the entry for k.
func (r *Report) Stats(k pulse.Kind) PulseStats {
	for _, p := range r.Pulses {
		if p.Kind == k {
			return p
		}
	}
	return PulseStats{Kind: k}
}
