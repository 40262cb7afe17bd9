package fir

// Filter convolves interleaved integer samples with a set of taps, keeping a
// separate delay line per channel so it can be fed in chunks.
type Filter struct {
	taps     []float64
	channels int
	limit    float64
	lines    [][]float64
	pos      int
	phase    int
}

// NewFilter clamps its output to ±limit.
func NewFilter(taps []float32, channels int, limit int32) *Filter {
	f := &Filter{
		taps:     make([]float64, len(taps)),
		channels: channels,
		limit:    float64(limit),
		lines:    make([][]float64, channels),
	}
	for i, t := range taps {
		f.taps[i] = float64(t)
	}
	for c := range f.lines {
		f.lines[c] = make([]float64, len(taps))
	}
	return f
}

// Delay is the group delay in frames.
func (f *Filter) Delay() int {
	return (len(f.taps) - 1) / 2
}

func (f *Filter) PredictOutputSize(inputSize int) int {
	return inputSize
}

func (f *Filter) WorkBuffer(input, output []int32) int {
	n := len(f.taps)
	for i, v := range input {
		line := f.lines[f.phase]
		line[f.pos] = float64(v)

		var acc float64
		idx := f.pos
		for k := 0; k < n; k++ {
			acc += f.taps[k] * line[idx]
			idx--
			if idx < 0 {
				idx = n - 1
			}
		}

		switch {
		case acc > f.limit:
			acc = f.limit
		case acc < -f.limit:
			acc = -f.limit
		}
		if acc >= 0 {
			output[i] = int32(acc + 0.5)
		} else {
			output[i] = int32(acc - 0.5)
		}

		f.phase++
		if f.phase == f.channels {
			f.phase = 0
			f.pos++
			if f.pos == n {
				f.pos = 0
			}
		}
	}
	return len(input)
}

func (f *Filter) Work(input []int32) []int32 {
	ret := make([]int32, f.PredictOutputSize(len(input)))
	f.WorkBuffer(input, ret)
	return ret
}

// Apply filters a whole recording and removes the group delay so the output
// lines up with the input. The first and last frames are held for the length
// of the delay on either side so the edges of the recording do not ring.
func (f *Filter) Apply(samples []int32) []int32 {
	ch := f.channels
	whole := len(samples) - len(samples)%ch
	if whole == 0 {
		return f.Work(samples)
	}
	d := f.Delay() * ch
	padded := make([]int32, 0, whole+2*d)
	for i := 0; i < d; i += ch {
		padded = append(padded, samples[:ch]...)
	}
	padded = append(padded, samples[:whole]...)
	for i := 0; i < d; i += ch {
		padded = append(padded, samples[whole-ch:whole]...)
	}
	out := f.Work(padded)[2*d:]
	return append(out, samples[whole:]...)
}
