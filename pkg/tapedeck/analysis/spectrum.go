package analysis

import (
	"math/cmplx"
	"sort"

	dspfft "github.com/mjibson/go-dsp/fft"
	"github.com/norasector/tapedeck/pkg/tape"
	"gonum.org/v1/gonum/dsp/window"
)

// maxSpectrumFrames bounds the FFT size for long recordings.
const maxSpectrumFrames = 1 << 18

func nextRadix(size int) int {
	radix := 16

	for {
		if size > radix {
			radix *= 2
		} else {
			return radix
		}
	}
}

type indexedPower struct {
	index int
	power float64
}

// findPeaks returns up to numPeaks bins that are the centre of a local
// maximum, strongest first.
func findPeaks(power []float64, numPeaks int) []int {
	windowSize := 13
	peaks := make([]indexedPower, 0)
	for i := 0; i < len(power)-windowSize; i++ {
		max := power[i]
		maxIdx := 0
		for j := i + 1; j < windowSize+i; j++ {
			if power[j] > max {
				maxIdx = j - i
				max = power[j]
			}
		}

		if maxIdx == windowSize/2 {
			peaks = append(peaks, indexedPower{index: maxIdx + i, power: max})
		}
	}

	sort.SliceStable(peaks, func(i, j int) bool {
		return peaks[i].power > peaks[j].power
	})

	ret := make([]int, 0, numPeaks)
	for i := 0; i < numPeaks && i < len(peaks); i++ {
		ret = append(ret, peaks[i].index)
	}
	return ret
}

// EstimateCarriers returns the strongest n spectral peaks of the first
// channel in Hz, starting at the first sample above the signal threshold.
func EstimateCarriers(samples []int32, spec tape.Spec, n int) []float64 {
	ch := spec.Channels
	threshold := spec.Threshold()

	start := -1
	for i := 0; i < len(samples); i += ch {
		if samples[i] > threshold || samples[i] < -threshold {
			start = i
			break
		}
	}
	if start < 0 {
		return nil
	}

	frames := (len(samples) - start) / ch
	if frames > maxSpectrumFrames {
		frames = maxSpectrumFrames
	}
	buf := make([]float64, frames)
	for i := range buf {
		buf[i] = float64(samples[start+i*ch])
	}
	window.Hann(buf)

	padded := make([]float64, nextRadix(frames))
	copy(padded, buf)
	result := dspfft.FFTReal(padded)

	half := len(result) / 2
	power := make([]float64, half)
	for i := range power {
		power[i] = cmplx.Abs(result[i])
	}

	peaks := findPeaks(power, n)
	ret := make([]float64, len(peaks))
	for i, p := range peaks {
		ret[i] = float64(p) * float64(spec.SampleRate) / float64(len(result))
	}
	return ret
}
